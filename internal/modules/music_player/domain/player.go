package domain

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// VoiceConnection is a live voice transport owned by exactly one PlayerState.
type VoiceConnection interface {
	// ChannelID returns the voice channel the connection is joined to.
	ChannelID() snowflake.ID

	// Disconnect leaves the voice channel.
	Disconnect(ctx context.Context) error
}

// AudioSource is a streamable source acquired for one media reference.
type AudioSource interface {
	// MediaRef returns the reference the source was resolved from.
	MediaRef() MediaRef

	// Close releases the source without playing it.
	Close() error
}

// AudioPlayer emits audio into the voice connection it is attached to.
type AudioPlayer interface {
	// Play starts playback of source, replacing anything currently playing.
	// The returned channel yields exactly one value when the stream goes idle
	// (nil for a normal end or an explicit Stop) and is then closed.
	// The player owns source once Play succeeds.
	Play(ctx context.Context, source AudioSource) (<-chan error, error)

	// Stop ends the active stream. Stopping an idle player is a no-op.
	Stop(ctx context.Context) error

	// Pause suspends the active stream.
	Pause(ctx context.Context) error

	// Resume continues a paused stream.
	Resume(ctx context.Context) error
}
