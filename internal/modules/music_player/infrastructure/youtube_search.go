package infrastructure

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTubeSearchConfig configures a YouTubeSearchProvider.
type YouTubeSearchConfig struct {
	APIKey string

	// RateLimit is the number of API calls per second; zero or less disables throttling.
	RateLimit float64
	Burst     int

	// ClientOptions are appended after the API key, mainly to point tests at a fake server.
	ClientOptions []option.ClientOption
}

// YouTubeSearchProvider implements ports.SearchProvider with the YouTube Data API.
type YouTubeSearchProvider struct {
	service *youtube.Service
	limiter *rate.Limiter
}

// NewYouTubeSearchProvider creates a new YouTubeSearchProvider.
// Returns ports.ErrMissingCredential when no API key is configured.
func NewYouTubeSearchProvider(
	ctx context.Context,
	cfg YouTubeSearchConfig,
) (*YouTubeSearchProvider, error) {
	if cfg.APIKey == "" {
		return nil, ports.ErrMissingCredential
	}

	opts := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, cfg.ClientOptions...)
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := max(cfg.Burst, 1)

	return &YouTubeSearchProvider{
		service: service,
		limiter: rate.NewLimiter(limit, burst),
	}, nil
}

// Search runs search.list and returns the matching video IDs in ranking order.
func (p *YouTubeSearchProvider) Search(
	ctx context.Context,
	req ports.SearchRequest,
) ([]string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	call := p.service.Search.List([]string{"id"}).
		Q(req.Query).
		Type("video").
		SafeSearch("none")
	if req.MaxResults > 0 {
		call = call.MaxResults(req.MaxResults)
	}
	if req.CategoryID != "" {
		call = call.VideoCategoryId(req.CategoryID)
	}
	if req.Order != "" {
		call = call.Order(req.Order)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search videos: %w", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		ids = append(ids, item.Id.VideoId)
	}
	return ids, nil
}

// Details runs videos.list for ids and returns candidates in the order of ids.
// IDs the API does not return are left out.
func (p *YouTubeSearchProvider) Details(
	ctx context.Context,
	ids []string,
) ([]domain.Candidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := p.service.Videos.List([]string{"snippet", "statistics"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video details: %w", err)
	}

	byID := lo.SliceToMap(resp.Items, func(v *youtube.Video) (string, *youtube.Video) {
		return v.Id, v
	})

	candidates := make([]domain.Candidate, 0, len(resp.Items))
	for _, id := range lo.Uniq(ids) {
		video, ok := byID[id]
		if !ok {
			continue
		}

		candidate := domain.Candidate{ID: domain.MediaID(video.Id)}
		if video.Snippet != nil {
			candidate.Title = video.Snippet.Title
			candidate.ChannelTitle = video.Snippet.ChannelTitle
		}
		if video.Statistics != nil {
			candidate.ViewCount = video.Statistics.ViewCount
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// Ensure YouTubeSearchProvider implements ports.SearchProvider.
var _ ports.SearchProvider = (*YouTubeSearchProvider)(nil)
