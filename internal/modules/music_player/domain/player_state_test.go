package domain

import (
	"context"
	"testing"

	"github.com/disgoorg/snowflake/v2"
)

const testGuildID = snowflake.ID(1)

type stubConnection struct {
	channelID snowflake.ID
}

func (c *stubConnection) ChannelID() snowflake.ID { return c.channelID }

func (c *stubConnection) Disconnect(context.Context) error { return nil }

type stubPlayer struct{}

func (stubPlayer) Play(context.Context, AudioSource) (<-chan error, error) {
	return make(chan error, 1), nil
}
func (stubPlayer) Stop(context.Context) error   { return nil }
func (stubPlayer) Pause(context.Context) error  { return nil }
func (stubPlayer) Resume(context.Context) error { return nil }

func TestNewPlayerState(t *testing.T) {
	state := NewPlayerState(testGuildID)

	if state.GetGuildID() != testGuildID {
		t.Errorf("expected GuildID %d, got %d", testGuildID, state.GetGuildID())
	}
	if state.IsPlaying() {
		t.Error("expected new state to be idle")
	}
	if state.IsConnected() {
		t.Error("expected new state to have no connection")
	}
	if !state.Queue.IsEmpty() {
		t.Error("expected Queue to be empty")
	}
	if state.Current() != nil {
		t.Error("expected no current entry")
	}
}

func TestPlayerState_AttachDetach(t *testing.T) {
	state := NewPlayerState(testGuildID)
	conn := &stubConnection{channelID: 42}

	state.Attach(conn, stubPlayer{})

	if !state.IsConnected() {
		t.Fatal("expected state to be connected after Attach")
	}
	if state.Player() == nil {
		t.Error("expected player to be attached")
	}

	got := state.Detach()
	if got != conn {
		t.Errorf("expected Detach to return the attached connection")
	}
	if state.IsConnected() || state.Player() != nil {
		t.Error("expected state to be disconnected after Detach")
	}
}

func TestPlayerState_BeginEndPlayback(t *testing.T) {
	state := NewPlayerState(testGuildID)
	entry := NewQueueEntry("https://example.com/a", 7)

	token := state.BeginPlayback(entry)

	if !state.IsPlaying() {
		t.Fatal("expected playing after BeginPlayback")
	}
	if cur := state.Current(); cur == nil || cur.ID != entry.ID {
		t.Fatalf("expected current entry %v, got %v", entry.ID, cur)
	}
	if !state.IsCurrent(token) {
		t.Error("expected token to be current")
	}

	if !state.EndPlayback(token) {
		t.Fatal("expected EndPlayback to accept current token")
	}
	if state.IsPlaying() || state.Current() != nil {
		t.Error("expected idle after EndPlayback")
	}
}

func TestPlayerState_StaleTokenIgnored(t *testing.T) {
	state := NewPlayerState(testGuildID)

	stale := state.BeginPlayback(NewQueueEntry("a", 1))
	state.Interrupt()
	fresh := state.BeginPlayback(NewQueueEntry("b", 1))

	if state.IsCurrent(stale) {
		t.Error("expected interrupted token to be stale")
	}
	if state.EndPlayback(stale) {
		t.Error("expected EndPlayback to reject stale token")
	}
	if !state.IsPlaying() || state.Current().MediaRef != "b" {
		t.Error("expected stale completion to leave the new playback untouched")
	}
	if !state.EndPlayback(fresh) {
		t.Error("expected EndPlayback to accept fresh token")
	}
}

func TestPlayerState_Interrupt(t *testing.T) {
	state := NewPlayerState(testGuildID)

	if state.Interrupt() {
		t.Error("expected Interrupt on idle state to report nothing playing")
	}

	state.BeginPlayback(NewQueueEntry("a", 1))
	state.SetPaused(true)

	if !state.Interrupt() {
		t.Error("expected Interrupt to report something was playing")
	}
	if state.IsPlaying() || state.IsPaused() || state.Current() != nil {
		t.Error("expected Interrupt to reset playback fields")
	}
}

func TestPlayerState_BeginPlaybackClearsPause(t *testing.T) {
	state := NewPlayerState(testGuildID)
	token := state.BeginPlayback(NewQueueEntry("a", 1))
	state.SetPaused(true)
	state.EndPlayback(token)

	state.BeginPlayback(NewQueueEntry("b", 1))

	if state.IsPaused() {
		t.Error("expected a new playback to start unpaused")
	}
}

func TestPlayerState_CurrentReturnsCopy(t *testing.T) {
	state := NewPlayerState(testGuildID)
	state.BeginPlayback(NewQueueEntry("a", 1))

	cur := state.Current()
	cur.MediaRef = "changed"

	if state.Current().MediaRef != "a" {
		t.Error("expected Current to return a copy")
	}
}

func TestPlayerState_SetNotificationChannelID(t *testing.T) {
	state := NewPlayerState(testGuildID)
	state.SetNotificationChannelID(888)

	if state.GetNotificationChannelID() != 888 {
		t.Errorf("expected NotificationChannelID 888, got %d", state.GetNotificationChannelID())
	}
}

func TestPlayerState_Streaming(t *testing.T) {
	state := NewPlayerState(testGuildID)
	token := state.BeginPlayback(NewQueueEntry("a", 0))

	if state.IsStreaming() {
		t.Error("expected a resolving track not to be streaming")
	}

	state.MarkStreaming(token + 1)
	if state.IsStreaming() {
		t.Error("expected a stale token to be ignored")
	}

	state.MarkStreaming(token)
	if !state.IsStreaming() {
		t.Error("expected track to be streaming")
	}

	next := state.BeginPlayback(NewQueueEntry("b", 0))
	if state.IsStreaming() {
		t.Error("expected a new track to start out resolving")
	}

	state.MarkStreaming(next)
	state.Interrupt()
	if state.IsStreaming() {
		t.Error("expected Interrupt to clear streaming")
	}
}
