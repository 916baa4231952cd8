package application

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// NotificationEventHandler handles events related to Discord notifications.
// It turns playback events into messages in the guild's notification channel.
type NotificationEventHandler struct {
	subscriber ports.EventSubscriber
	notifier   ports.NotificationSender
}

// NewNotificationEventHandler creates a new NotificationEventHandler.
func NewNotificationEventHandler(
	subscriber ports.EventSubscriber,
	notifier ports.NotificationSender,
) *NotificationEventHandler {
	return &NotificationEventHandler{
		subscriber: subscriber,
		notifier:   notifier,
	}
}

// Start registers event handlers with the subscriber.
func (h *NotificationEventHandler) Start() error {
	handlers := map[reflect.Type]func(context.Context, domain.Event){
		reflect.TypeFor[domain.TrackQueuedEvent](): func(_ context.Context, e domain.Event) {
			h.handleTrackQueued(e.(domain.TrackQueuedEvent))
		},
		reflect.TypeFor[domain.PlaybackStartedEvent](): func(_ context.Context, e domain.Event) {
			h.handlePlaybackStarted(e.(domain.PlaybackStartedEvent))
		},
		reflect.TypeFor[domain.PlaybackFailedEvent](): func(_ context.Context, e domain.Event) {
			h.handlePlaybackFailed(e.(domain.PlaybackFailedEvent))
		},
		reflect.TypeFor[domain.QueueEndedEvent](): func(_ context.Context, e domain.Event) {
			h.handleQueueEnded(e.(domain.QueueEndedEvent))
		},
	}

	for eventType, handler := range handlers {
		if err := h.subscriber.Subscribe(eventType, handler); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", eventType, err)
		}
	}

	slog.Debug("notification event handlers properly registered")

	return nil
}

func (h *NotificationEventHandler) handleTrackQueued(event domain.TrackQueuedEvent) {
	if event.NotificationChannelID == 0 {
		return
	}

	err := h.notifier.SendQueued(event.NotificationChannelID, event.Entry, event.Position)
	if err != nil {
		slog.Error(
			"failed to send queued notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handlePlaybackStarted(event domain.PlaybackStartedEvent) {
	if event.NotificationChannelID == 0 {
		return
	}

	slog.Debug(
		"sending now playing notification",
		"guild", event.GuildID,
		"media", event.Entry.MediaRef,
	)

	err := h.notifier.SendNowPlaying(event.NotificationChannelID, event.Entry, event.Controls)
	if err != nil {
		slog.Error(
			"failed to send now playing notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handlePlaybackFailed(event domain.PlaybackFailedEvent) {
	if event.NotificationChannelID == 0 {
		return
	}

	message := fmt.Sprintf("Could not play %s, skipping.", event.Entry.MediaRef)
	if err := h.notifier.SendError(event.NotificationChannelID, message); err != nil {
		slog.Error(
			"failed to send playback failure notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleQueueEnded(event domain.QueueEndedEvent) {
	if event.NotificationChannelID == 0 {
		return
	}

	if err := h.notifier.SendQueueEnded(event.NotificationChannelID); err != nil {
		slog.Error(
			"failed to send queue ended notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}
