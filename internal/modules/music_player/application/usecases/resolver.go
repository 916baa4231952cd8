package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/sglre6355/jukebot/internal/cache"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

const (
	musicCategoryID = "10"
	searchOrder     = "viewCount"
	maxCandidates   = 10
)

// MediaResolver turns free-text queries into the best matching media ID.
type MediaResolver struct {
	provider ports.SearchProvider
	cache    *cache.TTL[string, domain.MediaID]
}

// NewMediaResolver creates a new MediaResolver.
// A nil provider means no credential is configured; Resolve then fails with ErrMissingCredential.
func NewMediaResolver(
	provider ports.SearchProvider,
	cache *cache.TTL[string, domain.MediaID],
) *MediaResolver {
	return &MediaResolver{
		provider: provider,
		cache:    cache,
	}
}

// Resolve returns the best media ID for text. The boolean is false when nothing matched.
func (r *MediaResolver) Resolve(ctx context.Context, text string) (domain.MediaID, bool, error) {
	if r.provider == nil {
		return "", false, ErrMissingCredential
	}

	query := domain.NewSearchQuery(text)
	if !query.IsValid() {
		return "", false, nil
	}

	key := query.CacheKey()
	if id, ok := r.cache.Get(key); ok {
		slog.Debug("resolver cache hit", "query", query.Normalized, "id", id)
		return id, true, nil
	}

	ids, err := r.provider.Search(ctx, ports.SearchRequest{
		Query:      query.Normalized,
		CategoryID: musicCategoryID,
		Order:      searchOrder,
		MaxResults: maxCandidates,
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to search: %w", err)
	}

	ids = lo.Filter(ids, func(id string, _ int) bool {
		return id != ""
	})
	if len(ids) == 0 {
		return "", false, nil
	}

	candidates, err := r.provider.Details(ctx, ids)
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch candidate details: %w", err)
	}

	candidates = lo.Filter(candidates, func(c domain.Candidate, _ int) bool {
		return c.ID != ""
	})
	best, ok := domain.SelectBest(candidates)
	if !ok {
		return "", false, nil
	}

	r.cache.Set(key, best.ID)

	slog.Debug("resolved query",
		"query", query.Normalized,
		"id", best.ID,
		"title", best.Title,
		"channel", best.ChannelTitle,
	)

	return best.ID, true, nil
}

// ResolveMediaRef turns user input into a playable reference.
// http(s) links are used as-is; anything else is resolved as a search query.
func (r *MediaResolver) ResolveMediaRef(ctx context.Context, input string) (domain.MediaRef, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrInvalidMediaRef
	}

	if domain.IsURL(input) {
		return domain.MediaRef(input), nil
	}

	id, ok, err := r.Resolve(ctx, input)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoResults
	}

	return domain.WatchURL(id), nil
}
