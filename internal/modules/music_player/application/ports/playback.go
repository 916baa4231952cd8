package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// Re-export the playback handles owned by domain.PlayerState.
type (
	VoiceConnection = domain.VoiceConnection
	AudioPlayer     = domain.AudioPlayer
	AudioSource     = domain.AudioSource
)

// VoiceConnector defines the interface for joining voice channels.
type VoiceConnector interface {
	// Connect joins the voice channel and returns the connection together with
	// a player that sends audio into it.
	Connect(
		ctx context.Context,
		guildID, channelID snowflake.ID,
	) (VoiceConnection, AudioPlayer, error)
}

// SourceResolver defines the interface for acquiring a streamable source for a media reference.
type SourceResolver interface {
	// Resolve returns a playable source for ref. This is usually network-bound.
	Resolve(ctx context.Context, ref domain.MediaRef) (AudioSource, error)
}
