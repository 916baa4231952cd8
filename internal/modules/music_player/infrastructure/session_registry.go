package infrastructure

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// SessionRegistry is an in-memory implementation of SessionRepository.
// Sessions live for the lifetime of the process.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[snowflake.ID]*domain.Session
}

// NewSessionRegistry creates a new SessionRegistry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[snowflake.ID]*domain.Session),
	}
}

// GetOrCreate returns the session for the guild, creating an idle one on first use.
func (r *SessionRegistry) GetOrCreate(guildID snowflake.ID) *domain.Session {
	if sess := r.Get(guildID); sess != nil {
		return sess
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have created it between the two locks.
	if sess, ok := r.sessions[guildID]; ok {
		return sess
	}

	sess := domain.NewSession(domain.NewPlayerState(guildID))
	r.sessions[guildID] = sess
	return sess
}

// Get returns the session for the guild, or nil if none exists.
func (r *SessionRegistry) Get(guildID snowflake.ID) *domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sessions[guildID]
}

// Count returns the number of sessions (for testing/monitoring).
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// Ensure SessionRegistry implements SessionRepository.
var _ domain.SessionRepository = (*SessionRegistry)(nil)
