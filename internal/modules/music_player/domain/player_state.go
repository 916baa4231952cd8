package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// PlayerState is the mutable playback state of one guild.
//
// Every started track gets a fresh generation token. Anything that interrupts
// playback bumps the generation, so a completion signal or an in-flight source
// resolution that still carries the old token can be recognised as stale.
type PlayerState struct {
	guildID               snowflake.ID
	notificationChannelID snowflake.ID // Text channel for notifications
	connection            VoiceConnection
	player                AudioPlayer
	Queue                 Queue
	current               *QueueEntry
	playing               bool
	streaming             bool // Player accepted the current source
	paused                bool
	generation            uint64
}

// NewPlayerState creates an idle PlayerState for the given guild.
func NewPlayerState(guildID snowflake.ID) *PlayerState {
	return &PlayerState{
		guildID: guildID,
		Queue:   NewQueue(),
	}
}

// GetGuildID returns the guild ID.
func (p *PlayerState) GetGuildID() snowflake.ID {
	return p.guildID
}

// GetNotificationChannelID returns the text channel for status messages.
func (p *PlayerState) GetNotificationChannelID() snowflake.ID {
	return p.notificationChannelID
}

// SetNotificationChannelID updates the text channel for status messages.
func (p *PlayerState) SetNotificationChannelID(channelID snowflake.ID) {
	p.notificationChannelID = channelID
}

// Connection returns the live voice connection, or nil if not joined.
func (p *PlayerState) Connection() VoiceConnection {
	return p.connection
}

// Player returns the attached audio player, or nil if not joined.
func (p *PlayerState) Player() AudioPlayer {
	return p.player
}

// IsConnected returns true if a voice connection is attached.
func (p *PlayerState) IsConnected() bool {
	return p.connection != nil
}

// Attach stores the voice connection and the player that feeds it.
func (p *PlayerState) Attach(connection VoiceConnection, player AudioPlayer) {
	p.connection = connection
	p.player = player
}

// Detach removes and returns the voice connection.
func (p *PlayerState) Detach() VoiceConnection {
	conn := p.connection
	p.connection = nil
	p.player = nil
	return conn
}

// IsPlaying returns true while a track is loaded or being loaded.
func (p *PlayerState) IsPlaying() bool {
	return p.playing
}

// IsStreaming returns true once the player has accepted the current track's source.
// It is false while the source is still being resolved.
func (p *PlayerState) IsStreaming() bool {
	return p.playing && p.streaming
}

// MarkStreaming records that the player accepted the source for token.
func (p *PlayerState) MarkStreaming(token uint64) {
	if p.IsCurrent(token) {
		p.streaming = true
	}
}

// IsPaused returns true if the active track is paused.
func (p *PlayerState) IsPaused() bool {
	return p.paused
}

// SetPaused sets the paused flag.
func (p *PlayerState) SetPaused(paused bool) {
	p.paused = paused
}

// Current returns a copy of the entry being played, or nil when idle.
func (p *PlayerState) Current() *QueueEntry {
	if !p.playing || p.current == nil {
		return nil
	}
	entry := *p.current
	return &entry
}

// BeginPlayback marks entry as playing and returns its generation token.
func (p *PlayerState) BeginPlayback(entry QueueEntry) uint64 {
	p.generation++
	p.current = &entry
	p.playing = true
	p.streaming = false
	p.paused = false
	return p.generation
}

// IsCurrent reports whether token still identifies the active playback.
func (p *PlayerState) IsCurrent(token uint64) bool {
	return p.playing && p.generation == token
}

// EndPlayback returns to idle if token identifies the active playback.
// Returns false for stale tokens, leaving the state untouched.
func (p *PlayerState) EndPlayback(token uint64) bool {
	if !p.IsCurrent(token) {
		return false
	}
	p.playing = false
	p.streaming = false
	p.paused = false
	p.current = nil
	return true
}

// Interrupt forces the state to idle and invalidates the active token.
// Returns true if something was playing.
func (p *PlayerState) Interrupt() bool {
	wasPlaying := p.playing
	p.generation++
	p.playing = false
	p.streaming = false
	p.paused = false
	p.current = nil
	return wasPlaying
}
