package usecases

import (
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// Re-export domain types for presentation layer use.
// This allows presentation to depend only on usecases without importing domain directly.

// QueueEntry is an alias for domain.QueueEntry.
type QueueEntry = domain.QueueEntry

// MediaRef is an alias for domain.MediaRef.
type MediaRef = domain.MediaRef

// PlaybackControl is an alias for domain.PlaybackControl.
type PlaybackControl = domain.PlaybackControl

// SessionRepository is an alias for domain.SessionRepository.
type SessionRepository = domain.SessionRepository
