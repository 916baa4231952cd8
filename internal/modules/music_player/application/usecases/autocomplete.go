package usecases

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
)

// maxSuggestions is Discord's limit on autocomplete choices.
const maxSuggestions = 25

// AutocompleteService handles autocomplete-related operations.
type AutocompleteService struct {
	providers []ports.SuggestionProvider
}

// NewAutocompleteService creates a new AutocompleteService.
// Providers are queried in order and their results merged.
func NewAutocompleteService(providers ...ports.SuggestionProvider) *AutocompleteService {
	return &AutocompleteService{
		providers: providers,
	}
}

// Suggest returns up to 25 choices for a partial query, deduplicated by value.
// A failing provider is skipped.
func (s *AutocompleteService) Suggest(ctx context.Context, partial string) []ports.Suggestion {
	partial = strings.TrimSpace(partial)
	if partial == "" {
		return nil
	}

	var merged []ports.Suggestion
	for _, provider := range s.providers {
		remaining := maxSuggestions - len(merged)
		if remaining <= 0 {
			break
		}

		suggestions, err := provider.Suggest(ctx, partial, remaining)
		if err != nil {
			slog.Debug("suggestion provider failed", "query", partial, "error", err)
			continue
		}
		merged = append(merged, suggestions...)
		merged = lo.UniqBy(merged, func(s ports.Suggestion) string {
			return s.Value
		})
	}

	if len(merged) > maxSuggestions {
		merged = merged[:maxSuggestions]
	}

	return merged
}
