package infrastructure

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
)

const (
	// 20ms of audio at 48 kHz.
	opusFrameSize = 960
	// Upper bound for one encoded Opus packet.
	maxOpusPacketSize = 4000
)

// FrameEncoder encodes one frame of interleaved PCM into an Opus packet.
type FrameEncoder interface {
	Encode(pcm []int16, data []byte) (int, error)
}

// VoicePlayer streams decoded audio as Opus packets into a voice connection.
// It plays at most one source at a time.
type VoicePlayer struct {
	decoder  Decoder
	encoder  FrameEncoder
	frames   chan<- []byte
	speaking func(bool) error

	mu      sync.Mutex
	current *voiceStream
}

// NewVoicePlayer creates a VoicePlayer that sends packets on frames.
// speaking may be nil when the sink needs no speaking indicator.
func NewVoicePlayer(
	decoder Decoder,
	encoder FrameEncoder,
	frames chan<- []byte,
	speaking func(bool) error,
) *VoicePlayer {
	return &VoicePlayer{
		decoder:  decoder,
		encoder:  encoder,
		frames:   frames,
		speaking: speaking,
	}
}

type voiceStream struct {
	cancel context.CancelFunc
	exited chan struct{}
	done   chan error

	mu     sync.Mutex
	paused chan struct{} // non-nil while paused, closed on resume
}

func (s *voiceStream) pauseGate() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Play starts streaming source, stopping whatever was playing before.
// The returned channel yields the outcome once and is then closed.
func (p *VoicePlayer) Play(ctx context.Context, source ports.AudioSource) (<-chan error, error) {
	if err := p.Stop(ctx); err != nil {
		return nil, err
	}

	// The stream outlives the request that started it.
	streamCtx, cancel := context.WithCancel(context.Background())

	pcm, err := p.decoder.Decode(streamCtx, source)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start decoder: %w", err)
	}

	// Unblocks a Read waiting on the decoder once the stream is stopped.
	context.AfterFunc(streamCtx, func() { _ = pcm.Close() })

	st := &voiceStream{
		cancel: cancel,
		exited: make(chan struct{}),
		done:   make(chan error, 1),
	}

	p.mu.Lock()
	p.current = st
	p.mu.Unlock()

	go p.stream(streamCtx, st, pcm, source)

	return st.done, nil
}

func (p *VoicePlayer) stream(
	ctx context.Context,
	st *voiceStream,
	pcm PCMStream,
	source ports.AudioSource,
) {
	err := p.pump(ctx, st, pcm)

	st.cancel()
	_ = pcm.Close()
	if closeErr := source.Close(); closeErr != nil {
		slog.Warn("failed to close audio source", "source", source.MediaRef(), "error", closeErr)
	}

	st.done <- err
	close(st.done)
	close(st.exited)
}

// pump moves frames from pcm to the voice sink until the decoder runs dry or ctx ends.
// A stopped stream and a natural end both report nil.
func (p *VoicePlayer) pump(ctx context.Context, st *voiceStream, pcm PCMStream) error {
	p.setSpeaking(true)
	defer p.setSpeaking(false)

	frame := make([]int16, opusFrameSize*pcmChannels)
	packet := make([]byte, maxOpusPacketSize)

	for {
		if err := binary.Read(pcm, binary.LittleEndian, frame); err != nil {
			switch {
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
				return nil
			default:
				return fmt.Errorf("failed to read pcm: %w", err)
			}
		}

		n, err := p.encoder.Encode(frame, packet)
		if err != nil {
			return fmt.Errorf("failed to encode opus frame: %w", err)
		}

		if gate := st.pauseGate(); gate != nil {
			p.setSpeaking(false)
			select {
			case <-gate:
				p.setSpeaking(true)
			case <-ctx.Done():
				return nil
			}
		}

		out := make([]byte, n)
		copy(out, packet[:n])

		select {
		case p.frames <- out:
		case <-ctx.Done():
			return nil
		}
	}
}

func (p *VoicePlayer) setSpeaking(speaking bool) {
	if p.speaking == nil {
		return
	}
	if err := p.speaking(speaking); err != nil {
		slog.Debug("failed to update speaking state", "speaking", speaking, "error", err)
	}
}

// Stop ends the current stream and waits for it to wind down.
// Stopping an idle player is a no-op.
func (p *VoicePlayer) Stop(ctx context.Context) error {
	p.mu.Lock()
	st := p.current
	p.current = nil
	p.mu.Unlock()

	if st == nil {
		return nil
	}

	st.cancel()

	select {
	case <-st.exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pause holds back further frames until Resume. Pausing twice is a no-op.
func (p *VoicePlayer) Pause(context.Context) error {
	p.mu.Lock()
	st := p.current
	p.mu.Unlock()

	if st == nil {
		return nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.paused == nil {
		st.paused = make(chan struct{})
	}
	return nil
}

// Resume releases a paused stream.
func (p *VoicePlayer) Resume(context.Context) error {
	p.mu.Lock()
	st := p.current
	p.mu.Unlock()

	if st == nil {
		return nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.paused != nil {
		close(st.paused)
		st.paused = nil
	}
	return nil
}

// Ensure VoicePlayer implements ports.AudioPlayer.
var _ ports.AudioPlayer = (*VoicePlayer)(nil)
