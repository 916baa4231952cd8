package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// EnqueueInput contains the input for the Enqueue use case.
type EnqueueInput struct {
	GuildID               snowflake.ID
	VoiceChannelID        snowflake.ID // Joined only if the guild has no connection yet
	NotificationChannelID snowflake.ID
	MediaRef              domain.MediaRef
	RequesterID           snowflake.ID
}

// EnqueueOutput contains the result of the Enqueue use case.
type EnqueueOutput struct {
	Entry    domain.QueueEntry
	Position int  // 1-indexed position among pending entries, 0 if playback started
	Started  bool // True if the player was idle and advanced to this entry
	Failed   bool // True if this entry was popped but its source could not be played
}

// ControlInput contains the input shared by the playback control use cases.
type ControlInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// SkipOutput contains the result of the Skip use case.
type SkipOutput struct {
	Skipped domain.QueueEntry
	Next    *domain.QueueEntry // nil if the queue is empty
}

// StopOutput contains the result of the Stop use case.
type StopOutput struct {
	Cleared int // Pending entries removed
}

// ShuffleOutput contains the result of the Shuffle use case.
type ShuffleOutput struct {
	Count int // Pending entries shuffled
}

// PlaybackController drives per-guild playback: it owns the queue transitions
// and turns player completion signals into the next track.
type PlaybackController struct {
	sessions  domain.SessionRepository
	connector ports.VoiceConnector
	sources   ports.SourceResolver
	publisher ports.EventPublisher
	intn      func(n int) int
}

// NewPlaybackController creates a new PlaybackController.
func NewPlaybackController(
	sessions domain.SessionRepository,
	connector ports.VoiceConnector,
	sources ports.SourceResolver,
	publisher ports.EventPublisher,
) *PlaybackController {
	return &PlaybackController{
		sessions:  sessions,
		connector: connector,
		sources:   sources,
		publisher: publisher,
		intn:      rand.IntN,
	}
}

// Enqueue appends a media reference to the guild's queue, joining the voice
// channel first if needed, and starts playback when the player is idle.
// An existing connection is reused even if VoiceChannelID differs.
func (c *PlaybackController) Enqueue(
	ctx context.Context,
	input EnqueueInput,
) (*EnqueueOutput, error) {
	ref := domain.MediaRef(strings.TrimSpace(input.MediaRef.String()))
	if ref == "" {
		return nil, ErrInvalidMediaRef
	}

	sess := c.sessions.GetOrCreate(input.GuildID)
	sess.Lock()
	state := sess.State()

	if input.NotificationChannelID != 0 {
		state.SetNotificationChannelID(input.NotificationChannelID)
	}

	if !state.IsConnected() {
		if input.VoiceChannelID == 0 {
			sess.Unlock()
			return nil, ErrUserNotInVoice
		}

		conn, player, err := c.connector.Connect(ctx, input.GuildID, input.VoiceChannelID)
		if err != nil {
			sess.Unlock()
			return nil, fmt.Errorf("failed to join voice channel: %w", err)
		}
		state.Attach(conn, player)
	}

	entry := domain.NewQueueEntry(ref, input.RequesterID)
	state.Queue.Push(entry)

	output := &EnqueueOutput{Entry: entry}
	idle := !state.IsPlaying()
	if idle && state.Queue.Len() == 1 {
		output.Started = true
	} else {
		output.Position = state.Queue.Len()
		c.publish(domain.TrackQueuedEvent{
			GuildID:               input.GuildID,
			NotificationChannelID: state.GetNotificationChannelID(),
			Entry:                 entry,
			Position:              output.Position,
		})
	}
	sess.Unlock()

	if idle {
		failed := c.advance(ctx, sess)
		if slices.ContainsFunc(failed, func(e domain.QueueEntry) bool { return e.ID == entry.ID }) {
			output.Started = false
			output.Failed = true
		}
	}

	return output, nil
}

// advance starts the head of the queue if nothing is playing.
// Entries whose source cannot be resolved or played are reported, skipped and returned.
func (c *PlaybackController) advance(ctx context.Context, sess *domain.Session) []domain.QueueEntry {
	ctx = context.WithoutCancel(ctx)

	var failed []domain.QueueEntry
	for {
		sess.Lock()
		state := sess.State()
		if state.IsPlaying() || state.Player() == nil {
			sess.Unlock()
			return failed
		}
		entry, ok := state.Queue.Pop()
		if !ok {
			sess.Unlock()
			return failed
		}
		token := state.BeginPlayback(entry)
		guildID := state.GetGuildID()
		sess.Unlock()

		source, err := c.sources.Resolve(ctx, entry.MediaRef)

		sess.Lock()
		if !state.IsCurrent(token) {
			// Skipped or stopped while resolving.
			sess.Unlock()
			if source != nil {
				_ = source.Close()
			}
			slog.Debug("discarding stale source", "guild", guildID, "media", entry.MediaRef)
			return failed
		}

		if err == nil {
			var done <-chan error
			done, err = state.Player().Play(ctx, source)
			if err == nil {
				state.MarkStreaming(token)
				c.publish(domain.PlaybackStartedEvent{
					GuildID:               guildID,
					NotificationChannelID: state.GetNotificationChannelID(),
					Entry:                 entry,
					Controls:              domain.PlaybackControls(),
				})
				sess.Unlock()

				slog.Info("started playback", "guild", guildID, "media", entry.MediaRef)
				go c.watch(sess, token, done)
				return failed
			}
			_ = source.Close()
			err = fmt.Errorf("failed to play source: %w", err)
		} else {
			err = fmt.Errorf("failed to resolve source: %w", err)
		}

		state.EndPlayback(token)
		failed = append(failed, entry)
		c.publish(domain.PlaybackFailedEvent{
			GuildID:               guildID,
			NotificationChannelID: state.GetNotificationChannelID(),
			Entry:                 entry,
			Err:                   err,
		})
		sess.Unlock()

		slog.Error("failed to start playback",
			"guild", guildID,
			"media", entry.MediaRef,
			"error", err,
		)
	}
}

// watch waits for the player to go idle and advances to the next entry.
func (c *PlaybackController) watch(sess *domain.Session, token uint64, done <-chan error) {
	err := <-done

	sess.Lock()
	state := sess.State()
	entry := state.Current()
	if !state.EndPlayback(token) {
		// Interrupted by skip/stop/leave, which handle the follow-up themselves.
		sess.Unlock()
		return
	}

	guildID := state.GetGuildID()
	if err != nil && entry != nil {
		c.publish(domain.PlaybackFailedEvent{
			GuildID:               guildID,
			NotificationChannelID: state.GetNotificationChannelID(),
			Entry:                 *entry,
			Err:                   err,
		})
	}
	if state.Queue.IsEmpty() {
		c.publish(domain.QueueEndedEvent{
			GuildID:               guildID,
			NotificationChannelID: state.GetNotificationChannelID(),
		})
	}
	sess.Unlock()

	if err != nil {
		slog.Warn("playback ended with error", "guild", guildID, "error", err)
	} else {
		slog.Debug("playback finished", "guild", guildID)
	}

	c.advance(context.Background(), sess)
}

// Skip stops the current track and starts advancing to the next one.
// It returns without waiting for the next source to resolve.
func (c *PlaybackController) Skip(ctx context.Context, input ControlInput) (*SkipOutput, error) {
	sess := c.sessions.Get(input.GuildID)
	if sess == nil {
		return nil, ErrNotPlaying
	}

	sess.Lock()
	state := sess.State()
	c.updateNotificationChannel(state, input.NotificationChannelID)

	current := state.Current()
	if current == nil {
		sess.Unlock()
		return nil, ErrNotPlaying
	}

	state.Interrupt()
	c.stopPlayer(ctx, state)
	output := &SkipOutput{
		Skipped: *current,
		Next:    state.Queue.Peek(),
	}
	sess.Unlock()

	go c.advance(context.WithoutCancel(ctx), sess)

	return output, nil
}

// Stop clears the queue and stops the current track. The voice connection is kept.
func (c *PlaybackController) Stop(ctx context.Context, input ControlInput) (*StopOutput, error) {
	sess := c.sessions.Get(input.GuildID)
	if sess == nil {
		return nil, ErrNotPlaying
	}

	sess.Lock()
	defer sess.Unlock()

	state := sess.State()
	c.updateNotificationChannel(state, input.NotificationChannelID)

	if !state.IsPlaying() && state.Queue.IsEmpty() {
		return nil, ErrNotPlaying
	}

	cleared := state.Queue.Clear()
	if state.Interrupt() {
		c.stopPlayer(ctx, state)
	}

	slog.Info("stopped playback", "guild", input.GuildID, "cleared", cleared)

	return &StopOutput{Cleared: cleared}, nil
}

// Shuffle randomly permutes the pending entries. The current track is unaffected.
func (c *PlaybackController) Shuffle(
	_ context.Context,
	input ControlInput,
) (*ShuffleOutput, error) {
	sess := c.sessions.Get(input.GuildID)
	if sess == nil {
		return nil, ErrQueueEmpty
	}

	sess.Lock()
	defer sess.Unlock()

	state := sess.State()
	c.updateNotificationChannel(state, input.NotificationChannelID)

	if state.Queue.IsEmpty() {
		return nil, ErrQueueEmpty
	}

	state.Queue.Shuffle(c.intn)

	return &ShuffleOutput{Count: state.Queue.Len()}, nil
}

// Pause suspends the current track.
func (c *PlaybackController) Pause(ctx context.Context, input ControlInput) error {
	sess := c.sessions.Get(input.GuildID)
	if sess == nil {
		return ErrNotConnected
	}

	sess.Lock()
	defer sess.Unlock()

	state := sess.State()
	c.updateNotificationChannel(state, input.NotificationChannelID)

	if !state.IsConnected() {
		return ErrNotConnected
	}
	// A track whose source is still resolving has nothing to pause yet.
	if !state.IsStreaming() {
		return ErrNotPlaying
	}
	if state.IsPaused() {
		return ErrAlreadyPaused
	}

	if err := state.Player().Pause(ctx); err != nil {
		return err
	}

	state.SetPaused(true)

	return nil
}

// Resume continues a paused track.
func (c *PlaybackController) Resume(ctx context.Context, input ControlInput) error {
	sess := c.sessions.Get(input.GuildID)
	if sess == nil {
		return ErrNotConnected
	}

	sess.Lock()
	defer sess.Unlock()

	state := sess.State()
	c.updateNotificationChannel(state, input.NotificationChannelID)

	if !state.IsConnected() {
		return ErrNotConnected
	}
	if !state.IsPlaying() {
		return ErrNotPlaying
	}
	if !state.IsPaused() {
		return ErrNotPaused
	}

	if err := state.Player().Resume(ctx); err != nil {
		return err
	}

	state.SetPaused(false)

	return nil
}

// Leave stops playback, clears the queue and disconnects from voice.
// The next Enqueue joins again.
func (c *PlaybackController) Leave(ctx context.Context, input ControlInput) error {
	sess := c.sessions.Get(input.GuildID)
	if sess == nil {
		return ErrNotConnected
	}

	sess.Lock()
	state := sess.State()
	if !state.IsConnected() {
		sess.Unlock()
		return ErrNotConnected
	}

	state.Queue.Clear()
	if state.Interrupt() {
		c.stopPlayer(ctx, state)
	}
	conn := state.Detach()
	sess.Unlock()

	if err := conn.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}

	return nil
}

// Queue returns the pending entries in play order, excluding the current track.
func (c *PlaybackController) Queue(guildID snowflake.ID) []domain.QueueEntry {
	sess := c.sessions.Get(guildID)
	if sess == nil {
		return nil
	}

	sess.Lock()
	defer sess.Unlock()

	return sess.State().Queue.List()
}

// NowPlaying returns the entry being played, or nil when idle.
func (c *PlaybackController) NowPlaying(guildID snowflake.ID) *domain.QueueEntry {
	sess := c.sessions.Get(guildID)
	if sess == nil {
		return nil
	}

	sess.Lock()
	defer sess.Unlock()

	return sess.State().Current()
}

func (c *PlaybackController) updateNotificationChannel(
	state *domain.PlayerState,
	channelID snowflake.ID,
) {
	if channelID != 0 {
		state.SetNotificationChannelID(channelID)
	}
}

func (c *PlaybackController) stopPlayer(ctx context.Context, state *domain.PlayerState) {
	player := state.Player()
	if player == nil {
		return
	}
	if err := player.Stop(ctx); err != nil {
		slog.Warn("failed to stop player", "guild", state.GetGuildID(), "error", err)
	}
}

func (c *PlaybackController) publish(event domain.Event) {
	if err := c.publisher.Publish(event); err != nil {
		slog.Warn("failed to publish event",
			"guild", event.EventGuildID(),
			"event", fmt.Sprintf("%T", event),
			"error", err,
		)
	}
}
