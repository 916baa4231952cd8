package domain

import (
	"strings"

	"github.com/disgoorg/snowflake/v2"
)

// PlaybackControl is an action the presentation layer can offer next to "Now Playing".
type PlaybackControl string

const (
	ControlPause   PlaybackControl = "pause"
	ControlResume  PlaybackControl = "resume"
	ControlSkip    PlaybackControl = "skip"
	ControlShuffle PlaybackControl = "shuffle"
	ControlStop    PlaybackControl = "stop"
)

// PlaybackControls returns the controls offered while a track is playing, in display order.
func PlaybackControls() []PlaybackControl {
	return []PlaybackControl{ControlPause, ControlResume, ControlSkip, ControlShuffle, ControlStop}
}

const controlCustomIDPrefix = "music_"

// CustomID returns the component id used for the control's button.
func (c PlaybackControl) CustomID() string {
	return controlCustomIDPrefix + string(c)
}

// ParsePlaybackControl maps a button custom id back to its control.
func ParsePlaybackControl(customID string) (PlaybackControl, bool) {
	name, ok := strings.CutPrefix(customID, controlCustomIDPrefix)
	if !ok {
		return "", false
	}
	for _, c := range PlaybackControls() {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// Event is a notification published by the playback controller.
type Event interface {
	EventGuildID() snowflake.ID
}

// TrackQueuedEvent is published when an entry is added while something else is playing.
type TrackQueuedEvent struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID
	Entry                 QueueEntry
	Position              int // 1-indexed position among pending entries
}

// PlaybackStartedEvent is published when an entry starts playing.
type PlaybackStartedEvent struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID
	Entry                 QueueEntry
	Controls              []PlaybackControl
}

// PlaybackFailedEvent is published when an entry could not be resolved or played.
type PlaybackFailedEvent struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID
	Entry                 QueueEntry
	Err                   error
}

// QueueEndedEvent is published when the last entry finished and nothing is left to play.
type QueueEndedEvent struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID
}

func (e TrackQueuedEvent) EventGuildID() snowflake.ID     { return e.GuildID }
func (e PlaybackStartedEvent) EventGuildID() snowflake.ID { return e.GuildID }
func (e PlaybackFailedEvent) EventGuildID() snowflake.ID  { return e.GuildID }
func (e QueueEndedEvent) EventGuildID() snowflake.ID      { return e.GuildID }
