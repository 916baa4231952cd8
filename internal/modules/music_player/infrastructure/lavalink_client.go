package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// voiceConnectionTimeout is the maximum time to wait for voice connection to be established.
const voiceConnectionTimeout = 10 * time.Second

var (
	// ErrNoLavalinkNode is returned when no Lavalink node is available.
	ErrNoLavalinkNode = errors.New("no available Lavalink node")

	// ErrNoTracks is returned when Lavalink finds nothing for a reference.
	ErrNoTracks = errors.New("no tracks found")

	// ErrPlayerCleanedUp completes a track whose Lavalink player was destroyed mid-play.
	ErrPlayerCleanedUp = errors.New("lavalink player was cleaned up")
)

// pendingVoiceConnection tracks the state of a pending voice connection.
type pendingVoiceConnection struct {
	mu             sync.Mutex
	hasVoiceState  bool
	hasVoiceServer bool
	ready          chan struct{}
}

func newPendingVoiceConnection() *pendingVoiceConnection {
	return &pendingVoiceConnection{ready: make(chan struct{})}
}

// onEvent marks an event as received and signals ready if both events are present.
func (p *pendingVoiceConnection) onEvent(isVoiceState bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if isVoiceState {
		p.hasVoiceState = true
	} else {
		p.hasVoiceServer = true
	}

	if p.hasVoiceState && p.hasVoiceServer {
		select {
		case <-p.ready:
			// Already closed
		default:
			close(p.ready)
		}
	}
}

// voiceEventBuffer holds VoiceStateUpdate and VoiceServerUpdate data until both
// have arrived, because Lavalink rejects a partial voice state.
type voiceEventBuffer struct {
	mu sync.Mutex

	hasVoiceState bool
	channelID     *snowflake.ID
	sessionID     string

	hasVoiceServer bool
	token          string
	endpoint       string
}

// setVoiceState stores voice state data and returns true if both events are now ready.
func (b *voiceEventBuffer) setVoiceState(channelID *snowflake.ID, sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceState = true
	b.channelID = channelID
	b.sessionID = sessionID

	return b.hasVoiceState && b.hasVoiceServer
}

// setVoiceServer stores voice server data and returns true if both events are now ready.
func (b *voiceEventBuffer) setVoiceServer(token, endpoint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceServer = true
	b.token = token
	b.endpoint = endpoint

	return b.hasVoiceState && b.hasVoiceServer
}

// drain returns the buffered data and resets the buffer.
func (b *voiceEventBuffer) drain() (channelID *snowflake.ID, sessionID, token, endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	channelID, sessionID, token, endpoint = b.channelID, b.sessionID, b.token, b.endpoint
	b.hasVoiceState, b.hasVoiceServer = false, false
	b.channelID, b.sessionID, b.token, b.endpoint = nil, "", "", ""

	return
}

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
	Secure   bool
}

// LavalinkBackend plays audio through a Lavalink node. It acts as voice connector,
// source resolver and per-guild audio player at once.
type LavalinkBackend struct {
	link    disgolink.Client
	session *discordgo.Session
	botID   snowflake.ID

	pendingMu sync.Mutex
	pending   map[snowflake.ID]*pendingVoiceConnection

	voiceBufferMu sync.Mutex
	voiceBuffers  map[snowflake.ID]*voiceEventBuffer

	playersMu sync.Mutex
	players   map[snowflake.ID]*lavalinkPlayer
}

// NewLavalinkBackend connects to the configured node.
// The session must already be open so the bot's user ID is known.
func NewLavalinkBackend(
	ctx context.Context,
	session *discordgo.Session,
	config LavalinkConfig,
) (*LavalinkBackend, error) {
	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	backend := newLavalinkBackend(session, botID)

	backend.link = disgolink.New(botID,
		disgolink.WithListenerFunc(backend.onTrackStart),
		disgolink.WithListenerFunc(backend.onTrackEnd),
		disgolink.WithListenerFunc(backend.onTrackException),
		disgolink.WithListenerFunc(backend.onTrackStuck),
	)

	node, err := backend.link.AddNode(ctx, disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return backend, nil
}

func newLavalinkBackend(session *discordgo.Session, botID snowflake.ID) *LavalinkBackend {
	return &LavalinkBackend{
		session:      session,
		botID:        botID,
		pending:      make(map[snowflake.ID]*pendingVoiceConnection),
		voiceBuffers: make(map[snowflake.ID]*voiceEventBuffer),
		players:      make(map[snowflake.ID]*lavalinkPlayer),
	}
}

// Close disconnects from all Lavalink nodes.
func (b *LavalinkBackend) Close() {
	b.link.Close()
}

// Connect joins a voice channel and returns the connection and the guild's player.
// It waits for both VoiceStateUpdate and VoiceServerUpdate events before returning.
func (b *LavalinkBackend) Connect(
	ctx context.Context,
	guildID, channelID snowflake.ID,
) (ports.VoiceConnection, ports.AudioPlayer, error) {
	pending := newPendingVoiceConnection()

	b.pendingMu.Lock()
	b.pending[guildID] = pending
	b.pendingMu.Unlock()

	defer func() {
		b.pendingMu.Lock()
		delete(b.pending, guildID)
		b.pendingMu.Unlock()
	}()

	err := b.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), voiceSelfMute, voiceSelfDeaf)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to join voice channel: %w", err)
	}

	select {
	case <-pending.ready:
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("context cancelled while waiting for voice connection: %w", ctx.Err())
	case <-time.After(voiceConnectionTimeout):
		return nil, nil, fmt.Errorf("timeout waiting for voice connection")
	}

	slog.Info("joined voice channel", "guild", guildID, "channel", channelID, "backend", "lavalink")

	conn := &lavalinkConnection{backend: b, guildID: guildID, channelID: channelID}
	return conn, b.playerFor(guildID), nil
}

func (b *LavalinkBackend) playerFor(guildID snowflake.ID) *lavalinkPlayer {
	b.playersMu.Lock()
	defer b.playersMu.Unlock()

	player, ok := b.players[guildID]
	if !ok {
		player = newLavalinkPlayer(b, guildID)
		b.players[guildID] = player
	}
	return player
}

func (b *LavalinkBackend) existingPlayer(guildID snowflake.ID) *lavalinkPlayer {
	b.playersMu.Lock()
	defer b.playersMu.Unlock()

	return b.players[guildID]
}

// Resolve loads ref on the best node. Plain text is searched on YouTube.
func (b *LavalinkBackend) Resolve(
	ctx context.Context,
	ref domain.MediaRef,
) (ports.AudioSource, error) {
	node := b.link.BestNode()
	if node == nil {
		return nil, ErrNoLavalinkNode
	}

	identifier := ref.String()
	if !domain.IsURL(identifier) {
		identifier = "ytsearch:" + identifier
	}

	result, err := node.LoadTracks(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}

	track, err := trackFromResult(result)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", ref, err)
	}

	return &lavalinkSource{ref: ref, track: track}, nil
}

// trackFromResult picks the track to play from a load result.
// Playlists start at their selected track, searches at the top hit.
func trackFromResult(result *lavalink.LoadResult) (lavalink.Track, error) {
	switch data := result.Data.(type) {
	case lavalink.Track:
		return data, nil

	case lavalink.Playlist:
		if len(data.Tracks) == 0 {
			return lavalink.Track{}, ErrNoTracks
		}
		selected := data.Info.SelectedTrack
		if selected < 0 || selected >= len(data.Tracks) {
			selected = 0
		}
		return data.Tracks[selected], nil

	case lavalink.Search:
		if len(data) == 0 {
			return lavalink.Track{}, ErrNoTracks
		}
		return data[0], nil

	case lavalink.Exception:
		return lavalink.Track{}, fmt.Errorf("lavalink exception: %s", data.Message)

	default:
		return lavalink.Track{}, ErrNoTracks
	}
}

type lavalinkSource struct {
	ref   domain.MediaRef
	track lavalink.Track
}

func (s *lavalinkSource) MediaRef() domain.MediaRef {
	return s.ref
}

func (s *lavalinkSource) Close() error {
	return nil
}

type lavalinkConnection struct {
	backend   *LavalinkBackend
	guildID   snowflake.ID
	channelID snowflake.ID
}

func (c *lavalinkConnection) ChannelID() snowflake.ID {
	return c.channelID
}

func (c *lavalinkConnection) Disconnect(ctx context.Context) error {
	if player := c.backend.link.ExistingPlayer(c.guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", c.guildID, "error", err)
		}
	}

	err := c.backend.session.ChannelVoiceJoinManual(c.guildID.String(), "", false, false)
	if err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}

	slog.Info("left voice channel", "guild", c.guildID, "channel", c.channelID)

	return nil
}

// lavalinkPlayer turns Lavalink's track events into a per-play completion channel.
type lavalinkPlayer struct {
	backend *LavalinkBackend
	guildID snowflake.ID

	mu      sync.Mutex
	pending *pendingTrack
	// stopped counts our own stops per track so their "stopped" end events are ignored.
	stopped map[string]int
}

type pendingTrack struct {
	encoded   string
	done      chan error
	exception string
}

func newLavalinkPlayer(backend *LavalinkBackend, guildID snowflake.ID) *lavalinkPlayer {
	return &lavalinkPlayer{
		backend: backend,
		guildID: guildID,
		stopped: make(map[string]int),
	}
}

func (p *lavalinkPlayer) Play(ctx context.Context, source ports.AudioSource) (<-chan error, error) {
	src, ok := source.(*lavalinkSource)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedSource, source)
	}

	done := p.begin(src.track.Encoded)

	player := p.backend.link.Player(p.guildID)
	if err := player.Update(ctx, lavalink.WithEncodedTrack(src.track.Encoded)); err != nil {
		p.abandon(done)
		return nil, fmt.Errorf("failed to play track: %w", err)
	}

	return done, nil
}

// begin registers a new pending track. A track it replaces completes with nil.
func (p *lavalinkPlayer) begin(encoded string) chan error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending != nil {
		p.finishLocked(nil)
	}

	done := make(chan error, 1)
	p.pending = &pendingTrack{encoded: encoded, done: done}
	return done
}

// abandon forgets done without completing it when Play never reached Lavalink.
func (p *lavalinkPlayer) abandon(done chan error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending != nil && p.pending.done == done {
		p.pending = nil
	}
}

func (p *lavalinkPlayer) finishLocked(err error) {
	p.pending.done <- err
	close(p.pending.done)
	p.pending = nil
}

func (p *lavalinkPlayer) Stop(ctx context.Context) error {
	if !p.stopPending() {
		return nil
	}

	player := p.backend.link.Player(p.guildID)
	if err := player.Update(ctx, lavalink.WithNullTrack()); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}

	return nil
}

// stopPending completes the pending track and expects Lavalink to report it stopped.
func (p *lavalinkPlayer) stopPending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending == nil {
		return false
	}
	p.stopped[p.pending.encoded]++
	p.finishLocked(nil)
	return true
}

func (p *lavalinkPlayer) Pause(ctx context.Context) error {
	player := p.backend.link.Player(p.guildID)

	if err := player.Update(ctx, lavalink.WithPaused(true)); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}

	return nil
}

func (p *lavalinkPlayer) Resume(ctx context.Context) error {
	player := p.backend.link.Player(p.guildID)

	if err := player.Update(ctx, lavalink.WithPaused(false)); err != nil {
		return fmt.Errorf("failed to resume playback: %w", err)
	}

	return nil
}

// trackException remembers the failure message for the upcoming loadFailed end event.
func (p *lavalinkPlayer) trackException(encoded, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending != nil && p.pending.encoded == encoded {
		p.pending.exception = message
	}
}

// trackEnded completes the pending track for every end reason that leaves the player idle.
// Only "replaced" is left alone, since begin already completed the old track.
func (p *lavalinkPlayer) trackEnded(encoded string, reason lavalink.TrackEndReason) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if reason == lavalink.TrackEndReasonStopped && p.stopped[encoded] > 0 {
		p.stopped[encoded]--
		if p.stopped[encoded] == 0 {
			delete(p.stopped, encoded)
		}
		return
	}

	if p.pending == nil || p.pending.encoded != encoded {
		return
	}

	switch reason {
	case lavalink.TrackEndReasonFinished, lavalink.TrackEndReasonStopped:
		p.finishLocked(nil)
	case lavalink.TrackEndReasonLoadFailed:
		message := p.pending.exception
		if message == "" {
			message = "unknown error"
		}
		p.finishLocked(fmt.Errorf("track failed to load: %s", message))
	case lavalink.TrackEndReasonCleanup:
		p.finishLocked(ErrPlayerCleanedUp)
	}
}

// OnVoiceServerUpdate handles Discord voice server updates.
// This must be called from the Discord event handler.
func (b *LavalinkBackend) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	buffer := b.getOrCreateVoiceBuffer(guildID)
	if buffer.setVoiceServer(event.Token, event.Endpoint) {
		b.forwardBufferedVoiceEvents(guildID, buffer)
	}

	b.signalPending(guildID, false)
}

// OnVoiceStateUpdate handles Discord voice state updates.
// This must be called from the Discord event handler.
func (b *LavalinkBackend) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.UserID != b.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	var channelID *snowflake.ID
	if event.ChannelID != "" {
		id, err := snowflake.Parse(event.ChannelID)
		if err != nil {
			slog.Error("failed to parse channel ID in voice state update", "error", err)
			return
		}
		channelID = &id
	}

	// Disconnects need no server update.
	if channelID == nil {
		b.link.OnVoiceStateUpdate(context.Background(), guildID, nil, event.SessionID)
		b.clearVoiceBuffer(guildID)
		return
	}

	buffer := b.getOrCreateVoiceBuffer(guildID)
	if buffer.setVoiceState(channelID, event.SessionID) {
		b.forwardBufferedVoiceEvents(guildID, buffer)
	}

	b.signalPending(guildID, true)
}

func (b *LavalinkBackend) signalPending(guildID snowflake.ID, isVoiceState bool) {
	b.pendingMu.Lock()
	pending := b.pending[guildID]
	b.pendingMu.Unlock()

	if pending != nil {
		pending.onEvent(isVoiceState)
	}
}

func (b *LavalinkBackend) getOrCreateVoiceBuffer(guildID snowflake.ID) *voiceEventBuffer {
	b.voiceBufferMu.Lock()
	defer b.voiceBufferMu.Unlock()

	buffer, exists := b.voiceBuffers[guildID]
	if !exists {
		buffer = &voiceEventBuffer{}
		b.voiceBuffers[guildID] = buffer
	}
	return buffer
}

func (b *LavalinkBackend) clearVoiceBuffer(guildID snowflake.ID) {
	b.voiceBufferMu.Lock()
	defer b.voiceBufferMu.Unlock()
	delete(b.voiceBuffers, guildID)
}

// forwardBufferedVoiceEvents sends the buffered voice events to Lavalink, state first.
func (b *LavalinkBackend) forwardBufferedVoiceEvents(
	guildID snowflake.ID,
	buffer *voiceEventBuffer,
) {
	channelID, sessionID, token, endpoint := buffer.drain()

	slog.Debug("forwarding buffered voice events to Lavalink",
		"guild", guildID,
		"channel", channelID,
		"hasSessionID", sessionID != "",
	)

	b.link.OnVoiceStateUpdate(context.Background(), guildID, channelID, sessionID)
	b.link.OnVoiceServerUpdate(context.Background(), guildID, token, endpoint)
}

func (b *LavalinkBackend) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("track started", "guild", player.GuildID(), "track", event.Track.Info.Title)
}

func (b *LavalinkBackend) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	slog.Debug("track ended", "guild", player.GuildID(), "reason", event.Reason)

	if p := b.existingPlayer(player.GuildID()); p != nil {
		p.trackEnded(event.Track.Encoded, event.Reason)
	}
}

func (b *LavalinkBackend) onTrackException(
	player disgolink.Player,
	event lavalink.TrackExceptionEvent,
) {
	slog.Warn("track exception", "guild", player.GuildID(), "error", event.Exception.Message)

	if p := b.existingPlayer(player.GuildID()); p != nil {
		p.trackException(event.Track.Encoded, event.Exception.Message)
	}
}

func (b *LavalinkBackend) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	slog.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)
}

// Ensure LavalinkBackend and its player implement port interfaces.
var (
	_ ports.VoiceConnector  = (*LavalinkBackend)(nil)
	_ ports.SourceResolver  = (*LavalinkBackend)(nil)
	_ ports.AudioPlayer     = (*lavalinkPlayer)(nil)
	_ ports.VoiceConnection = (*lavalinkConnection)(nil)
)
