package ports

import (
	"context"
)

// Suggestion is one autocomplete choice.
type Suggestion struct {
	Name  string // Display text
	Value string // Value submitted with the command, usually a watch URL
}

// SuggestionProvider defines the interface for keyless, best-effort search used by autocomplete.
type SuggestionProvider interface {
	Suggest(ctx context.Context, query string, limit int) ([]Suggestion, error)
}
