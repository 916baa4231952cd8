package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"

	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// DefaultEventBufferSize is the default buffer size for the event channel.
const DefaultEventBufferSize = 100

// ErrEventBusClosed is returned when publishing to or subscribing on a closed bus.
var ErrEventBusClosed = errors.New("event bus closed")

// ErrEventBufferFull is returned when an event is dropped because the buffer is full.
var ErrEventBufferFull = errors.New("event buffer full")

// Compile-time checks that ChannelEventBus implements ports interfaces.
var (
	_ ports.EventPublisher  = (*ChannelEventBus)(nil)
	_ ports.EventSubscriber = (*ChannelEventBus)(nil)
)

type eventHandler func(context.Context, domain.Event)

// ChannelEventBus provides a channel-based event bus for async event handling.
// A single dispatcher goroutine delivers events in publish order.
type ChannelEventBus struct {
	events   chan domain.Event
	handlers map[reflect.Type][]eventHandler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewChannelEventBus creates a new ChannelEventBus with the given buffer size.
func NewChannelEventBus(bufferSize int) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	bus := &ChannelEventBus{
		events:   make(chan domain.Event, bufferSize),
		handlers: make(map[reflect.Type][]eventHandler),
		ctx:      ctx,
		cancel:   cancel,
	}

	bus.wg.Add(1)
	go bus.dispatch()

	return bus
}

func (b *ChannelEventBus) dispatch() {
	defer b.wg.Done()

	// Drain until Close closes the channel so events published before Close are delivered.
	for event := range b.events {
		b.mu.RLock()
		handlers := b.handlers[reflect.TypeOf(event)]
		b.mu.RUnlock()

		for _, handler := range handlers {
			handler(b.ctx, event)
		}
	}
}

// Publish enqueues event for delivery.
// Non-blocking: if the buffer is full, the event is dropped with a warning.
func (b *ChannelEventBus) Publish(event domain.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	eventType := reflect.TypeOf(event)

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", eventType)
		return ErrEventBusClosed
	}

	select {
	case b.events <- event:
		slog.Debug("published event", "type", eventType, "guild", event.EventGuildID())
		return nil
	default:
		slog.Warn("event buffer full, dropping event", "type", eventType, "guild", event.EventGuildID())
		return ErrEventBufferFull
	}
}

// Subscribe registers handler for events whose dynamic type is eventType.
func (b *ChannelEventBus) Subscribe(
	eventType reflect.Type,
	handler func(context.Context, domain.Event),
) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Close stops accepting events, delivers those already buffered and waits for the dispatcher.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.events)
	b.mu.Unlock()

	b.wg.Wait()
	b.cancel()

	slog.Debug("channel event bus closed")
}
