package infrastructure

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/ppalone/ytsearch"
	"github.com/raitonoberu/ytmusic"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// maxChoiceLength is Discord's limit for autocomplete choice names.
const maxChoiceLength = 100

type suggestionHit struct {
	videoID string
	title   string
	artist  string
}

// hitSearcher performs one keyless search.
type hitSearcher func(ctx context.Context, query string) ([]suggestionHit, error)

// SuggestionProvider offers autocomplete choices from a keyless YouTube search.
// Values are canonical watch URLs so results from different sources dedupe by video.
type SuggestionProvider struct {
	label  string
	search hitSearcher
}

// NewYouTubeMusicSuggestions suggests songs from YouTube Music.
func NewYouTubeMusicSuggestions() *SuggestionProvider {
	return &SuggestionProvider{label: "YTM", search: searchYouTubeMusic}
}

// NewYouTubeSuggestions suggests videos from YouTube.
func NewYouTubeSuggestions() *SuggestionProvider {
	client := ytsearch.NewClient(nil)
	return &SuggestionProvider{
		label: "YT",
		search: func(ctx context.Context, query string) ([]suggestionHit, error) {
			res, err := client.Search(ctx, query)
			if err != nil {
				return nil, err
			}
			hits := make([]suggestionHit, 0, len(res.Results))
			for _, v := range res.Results {
				hits = append(hits, suggestionHit{videoID: v.VideoID, title: v.Title})
			}
			return hits, nil
		},
	}
}

// searchYouTubeMusic runs the track search off the caller's goroutine because
// the client takes no context.
func searchYouTubeMusic(ctx context.Context, query string) ([]suggestionHit, error) {
	type outcome struct {
		hits []suggestionHit
		err  error
	}
	ch := make(chan outcome, 1)

	go func() {
		res, err := ytmusic.TrackSearch(query).Next()
		if err != nil {
			ch <- outcome{err: err}
			return
		}
		hits := make([]suggestionHit, 0, len(res.Tracks))
		for _, v := range res.Tracks {
			hit := suggestionHit{videoID: v.VideoID, title: v.Title}
			if len(v.Artists) > 0 {
				hit.artist = v.Artists[0].Name
			}
			hits = append(hits, hit)
		}
		ch <- outcome{hits: hits}
	}()

	select {
	case out := <-ch:
		return out.hits, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Suggest returns up to limit choices for query.
func (p *SuggestionProvider) Suggest(
	ctx context.Context,
	query string,
	limit int,
) ([]ports.Suggestion, error) {
	hits, err := p.search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", p.label, err)
	}

	var suggestions []ports.Suggestion
	for _, hit := range hits {
		if len(suggestions) >= limit {
			break
		}
		if hit.videoID == "" {
			continue
		}
		suggestions = append(suggestions, ports.Suggestion{
			Name:  choiceName(p.label, hit),
			Value: domain.WatchURL(domain.MediaID(hit.videoID)).String(),
		})
	}
	return suggestions, nil
}

// choiceName renders "[label] title - artist", shortening the title to fit.
func choiceName(label string, hit suggestionHit) string {
	prefix := "[" + label + "] "
	suffix := ""
	if hit.artist != "" {
		suffix = " - " + hit.artist
	}

	budget := maxChoiceLength - utf8.RuneCountInString(prefix) - utf8.RuneCountInString(suffix)
	title := hit.title
	if utf8.RuneCountInString(title) > budget {
		if budget <= 1 {
			title = ""
		} else {
			title = string([]rune(title)[:budget-1]) + "…"
		}
	}

	name := prefix + title + suffix
	if utf8.RuneCountInString(name) > maxChoiceLength {
		name = string([]rune(name)[:maxChoiceLength])
	}
	return name
}

// Ensure SuggestionProvider implements ports.SuggestionProvider.
var _ ports.SuggestionProvider = (*SuggestionProvider)(nil)
