package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// SessionRepository maps guilds to their sessions.
type SessionRepository interface {
	// GetOrCreate returns the session for the guild, creating an idle one on first use.
	GetOrCreate(guildID snowflake.ID) *Session

	// Get returns the session for the guild, or nil if none was created yet.
	Get(guildID snowflake.ID) *Session
}
