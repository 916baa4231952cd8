package domain

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
)

// QueueEntry is one pending track in a guild's queue.
type QueueEntry struct {
	ID          uuid.UUID
	MediaRef    MediaRef
	RequesterID snowflake.ID
	EnqueuedAt  time.Time
}

// NewQueueEntry creates a new QueueEntry with the current time as EnqueuedAt.
func NewQueueEntry(ref MediaRef, requesterID snowflake.ID) QueueEntry {
	return QueueEntry{
		ID:          uuid.New(),
		MediaRef:    ref,
		RequesterID: requesterID,
		EnqueuedAt:  time.Now().UTC(),
	}
}
