package ports

import (
	"context"
	"errors"

	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// ErrMissingCredential is returned when the search provider has no credential configured.
var ErrMissingCredential = errors.New("missing search provider credential")

// SearchRequest describes a text search against the provider.
type SearchRequest struct {
	Query      string
	CategoryID string // Provider content category, "10" is music on YouTube
	Order      string // Provider ranking, e.g. "viewCount"
	MaxResults int64
}

// SearchProvider defines the interface for the external search collaborator.
type SearchProvider interface {
	// Search returns candidate IDs ranked by the provider.
	Search(ctx context.Context, req SearchRequest) ([]string, error)

	// Details returns title, channel and view count for each ID.
	// The result keeps the order of ids; unknown IDs are omitted.
	Details(ctx context.Context, ids []string) ([]domain.Candidate, error)
}
