package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

const (
	testGuildID        = snowflake.ID(1)
	testVoiceChannelID = snowflake.ID(4)
	testTextChannelID  = snowflake.ID(3)
	testRequesterID    = snowflake.ID(123)
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type mockSessionRepository struct {
	mu       sync.Mutex
	sessions map[snowflake.ID]*domain.Session
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{
		sessions: make(map[snowflake.ID]*domain.Session),
	}
}

func (m *mockSessionRepository) GetOrCreate(guildID snowflake.ID) *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[guildID]
	if !ok {
		sess = domain.NewSession(domain.NewPlayerState(guildID))
		m.sessions[guildID] = sess
	}
	return sess
}

func (m *mockSessionRepository) Get(guildID snowflake.ID) *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.sessions[guildID]
}

type mockVoiceConnection struct {
	channelID snowflake.ID

	mu           sync.Mutex
	disconnected int
}

func (m *mockVoiceConnection) ChannelID() snowflake.ID {
	return m.channelID
}

func (m *mockVoiceConnection) Disconnect(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnected++
	return nil
}

// mockAudioPlayer hands out completion channels the test can fire with finish.
type mockAudioPlayer struct {
	mu        sync.Mutex
	played    []domain.MediaRef
	current   chan error
	overlaps  int
	playErr   error
	stopErr   error
	pauseErr  error
	resumeErr error
	pauses    int
	resumes   int
}

func (m *mockAudioPlayer) Play(_ context.Context, source domain.AudioSource) (<-chan error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.playErr != nil {
		return nil, m.playErr
	}
	if m.current != nil {
		m.overlaps++
	}

	m.played = append(m.played, source.MediaRef())
	m.current = make(chan error, 1)
	return m.current, nil
}

func (m *mockAudioPlayer) Stop(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current <- nil
		close(m.current)
		m.current = nil
	}
	return m.stopErr
}

func (m *mockAudioPlayer) Pause(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauses++
	return m.pauseErr
}

func (m *mockAudioPlayer) Resume(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumes++
	return m.resumeErr
}

// finish simulates the stream going idle on its own.
func (m *mockAudioPlayer) finish(err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return false
	}
	m.current <- err
	close(m.current)
	m.current = nil
	return true
}

func (m *mockAudioPlayer) playedRefs() []domain.MediaRef {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]domain.MediaRef, len(m.played))
	copy(result, m.played)
	return result
}

func (m *mockAudioPlayer) overlapCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlaps
}

func (m *mockAudioPlayer) isActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

type mockVoiceConnector struct {
	mu         sync.Mutex
	player     *mockAudioPlayer
	players    map[snowflake.ID]*mockAudioPlayer // Per-guild override of player
	connectErr error
	joined     []snowflake.ID
}

func (m *mockVoiceConnector) Connect(
	_ context.Context,
	guildID, channelID snowflake.ID,
) (ports.VoiceConnection, ports.AudioPlayer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connectErr != nil {
		return nil, nil, m.connectErr
	}
	m.joined = append(m.joined, channelID)

	player := m.player
	if p, ok := m.players[guildID]; ok {
		player = p
	}
	return &mockVoiceConnection{channelID: channelID}, player, nil
}

func (m *mockVoiceConnector) joinCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.joined)
}

type mockAudioSource struct {
	ref domain.MediaRef

	mu     sync.Mutex
	closed bool
}

func (m *mockAudioSource) MediaRef() domain.MediaRef {
	return m.ref
}

func (m *mockAudioSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockAudioSource) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var errResolveFailed = errors.New("resolve failed")

// mockSourceResolver fails refs listed in fail and blocks refs listed in gates until released.
type mockSourceResolver struct {
	mu       sync.Mutex
	fail     map[domain.MediaRef]bool
	gates    map[domain.MediaRef]chan struct{}
	started  map[domain.MediaRef]int
	resolved []*mockAudioSource
}

func newMockSourceResolver() *mockSourceResolver {
	return &mockSourceResolver{
		fail:    make(map[domain.MediaRef]bool),
		gates:   make(map[domain.MediaRef]chan struct{}),
		started: make(map[domain.MediaRef]int),
	}
}

func (m *mockSourceResolver) Resolve(
	_ context.Context,
	ref domain.MediaRef,
) (ports.AudioSource, error) {
	m.mu.Lock()
	m.started[ref]++
	gate := m.gates[ref]
	fail := m.fail[ref]
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fail {
		return nil, errResolveFailed
	}

	source := &mockAudioSource{ref: ref}
	m.mu.Lock()
	m.resolved = append(m.resolved, source)
	m.mu.Unlock()
	return source, nil
}

func (m *mockSourceResolver) block(ref domain.MediaRef) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	gate := make(chan struct{})
	m.gates[ref] = gate
	return gate
}

func (m *mockSourceResolver) startedCount(ref domain.MediaRef) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started[ref]
}

func (m *mockSourceResolver) sources() []*mockAudioSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*mockAudioSource, len(m.resolved))
	copy(result, m.resolved)
	return result
}

type mockEventPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (m *mockEventPublisher) Publish(event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventPublisher) published() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]domain.Event, len(m.events))
	copy(result, m.events)
	return result
}

func eventsOf[T domain.Event](m *mockEventPublisher) []T {
	var result []T
	for _, e := range m.published() {
		if typed, ok := e.(T); ok {
			result = append(result, typed)
		}
	}
	return result
}

type controllerFixture struct {
	controller *PlaybackController
	sessions   *mockSessionRepository
	connector  *mockVoiceConnector
	player     *mockAudioPlayer
	sources    *mockSourceResolver
	publisher  *mockEventPublisher
}

func newControllerFixture() *controllerFixture {
	f := &controllerFixture{
		sessions:  newMockSessionRepository(),
		player:    &mockAudioPlayer{},
		sources:   newMockSourceResolver(),
		publisher: &mockEventPublisher{},
	}
	f.connector = &mockVoiceConnector{player: f.player}
	f.controller = NewPlaybackController(f.sessions, f.connector, f.sources, f.publisher)
	return f
}

func (f *controllerFixture) enqueue(t *testing.T, ref domain.MediaRef) *EnqueueOutput {
	t.Helper()

	out, err := f.controller.Enqueue(context.Background(), EnqueueInput{
		GuildID:               testGuildID,
		VoiceChannelID:        testVoiceChannelID,
		NotificationChannelID: testTextChannelID,
		MediaRef:              ref,
		RequesterID:           testRequesterID,
	})
	if err != nil {
		t.Fatalf("Enqueue(%q) returned error: %v", ref, err)
	}
	return out
}

func (f *controllerFixture) nowPlaying() domain.MediaRef {
	cur := f.controller.NowPlaying(testGuildID)
	if cur == nil {
		return ""
	}
	return cur.MediaRef
}

func (f *controllerFixture) queuedRefs() []domain.MediaRef {
	var refs []domain.MediaRef
	for _, e := range f.controller.Queue(testGuildID) {
		refs = append(refs, e.MediaRef)
	}
	return refs
}

var controlInput = ControlInput{GuildID: testGuildID}

type mockSearchProvider struct {
	mu            sync.Mutex
	ids           []string
	candidates    map[string]domain.Candidate
	searchErr     error
	detailsErr    error
	searchCalls   int
	detailsCalls  int
	lastRequest   ports.SearchRequest
	lastDetailIDs []string
}

func (m *mockSearchProvider) Search(_ context.Context, req ports.SearchRequest) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.searchCalls++
	m.lastRequest = req
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.ids, nil
}

func (m *mockSearchProvider) Details(_ context.Context, ids []string) ([]domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.detailsCalls++
	m.lastDetailIDs = ids
	if m.detailsErr != nil {
		return nil, m.detailsErr
	}

	var result []domain.Candidate
	for _, id := range ids {
		if c, ok := m.candidates[id]; ok {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockSearchProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searchCalls + m.detailsCalls
}

// newSearchProvider returns a provider whose search returns the candidates in order.
func newSearchProvider(candidates ...domain.Candidate) *mockSearchProvider {
	m := &mockSearchProvider{candidates: make(map[string]domain.Candidate)}
	for _, c := range candidates {
		m.ids = append(m.ids, string(c.ID))
		m.candidates[string(c.ID)] = c
	}
	return m
}

type mockSuggestionProvider struct {
	suggestions []ports.Suggestion
	err         error
	lastLimit   int
	calls       int
}

func (m *mockSuggestionProvider) Suggest(
	_ context.Context,
	_ string,
	limit int,
) ([]ports.Suggestion, error) {
	m.calls++
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	if len(m.suggestions) > limit {
		return m.suggestions[:limit], nil
	}
	return m.suggestions, nil
}
