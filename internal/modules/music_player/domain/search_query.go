package domain

import (
	"strings"
)

// cacheNamespace prefixes resolver cache keys.
const cacheNamespace = "best:"

// SearchQuery is free-text user input prepared for resolution.
type SearchQuery struct {
	Raw        string // Input as typed
	Normalized string // Trimmed, lowercased, whitespace collapsed
}

// NewSearchQuery creates a SearchQuery from user input.
func NewSearchQuery(input string) SearchQuery {
	return SearchQuery{
		Raw:        input,
		Normalized: NormalizeQuery(input),
	}
}

// NormalizeQuery trims the input, lowercases it and collapses runs of whitespace to a single space.
func NormalizeQuery(input string) string {
	return strings.Join(strings.Fields(strings.ToLower(input)), " ")
}

// IsValid returns true if the normalized query is not empty.
func (q SearchQuery) IsValid() bool {
	return q.Normalized != ""
}

// CacheKey returns the key under which the resolved media ID is cached.
func (q SearchQuery) CacheKey() string {
	return cacheNamespace + q.Normalized
}
