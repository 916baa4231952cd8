package ports

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// NotificationSender defines the interface for sending notifications to Discord channels.
type NotificationSender interface {
	// SendQueued tells the channel that entry was added at the given 1-indexed position.
	SendQueued(channelID snowflake.ID, entry domain.QueueEntry, position int) error

	// SendNowPlaying sends a "Now Playing" embed with buttons for the given controls.
	SendNowPlaying(
		channelID snowflake.ID,
		entry domain.QueueEntry,
		controls []domain.PlaybackControl,
	) error

	// SendQueueEnded tells the channel that nothing is left to play.
	SendQueueEnded(channelID snowflake.ID) error

	// SendError sends an error message embed to the channel.
	SendError(channelID snowflake.ID, message string) error
}
