package domain

import (
	"strings"

	"github.com/samber/lo"
)

// Channel bonuses are far above any realistic view count so that a recognised
// channel always outranks an unrecognised one.
const (
	labelChannelBonus    uint64 = 2_000_000_000_000
	topicChannelBonus    uint64 = 800_000_000_000
	officialChannelBonus uint64 = 150_000_000_000
)

const (
	labelChannelMarker    = "vevo"
	topicChannelSuffix    = " - topic"
	officialChannelMarker = "official"
)

// lowQualityTerms mark remixes, covers and other edits of a song.
var lowQualityTerms = []string{
	"remix",
	"mix",
	"cover",
	"live",
	"karaoke",
	"nightcore",
	"slowed",
	"sped up",
	"speed up",
	"8d",
	"instrumental",
	"acoustic",
	"edit",
}

// Candidate is one search result considered during resolution.
type Candidate struct {
	ID           MediaID
	Title        string
	ChannelTitle string
	ViewCount    uint64
}

// Score ranks the candidate by popularity plus its channel bonus.
func (c Candidate) Score() uint64 {
	return c.ViewCount + ChannelBonus(c.ChannelTitle)
}

// IsLowQualityTitle reports whether the title contains any denylisted term (case-insensitive).
func IsLowQualityTitle(title string) bool {
	t := strings.ToLower(title)
	return lo.SomeBy(lowQualityTerms, func(term string) bool {
		return strings.Contains(t, term)
	})
}

// ChannelBonus returns the ranking bonus for a channel name.
func ChannelBonus(channelTitle string) uint64 {
	ct := strings.ToLower(channelTitle)
	switch {
	case strings.Contains(ct, labelChannelMarker):
		return labelChannelBonus
	case strings.HasSuffix(ct, topicChannelSuffix):
		return topicChannelBonus
	case strings.Contains(ct, officialChannelMarker):
		return officialChannelBonus
	default:
		return 0
	}
}

// SelectBest picks the highest scoring candidate.
// Candidates with denylisted titles are dropped unless that would leave none.
// Ties keep the earlier candidate. Returns false if candidates is empty.
func SelectBest(candidates []Candidate) (Candidate, bool) {
	pool := lo.Filter(candidates, func(c Candidate, _ int) bool {
		return !IsLowQualityTitle(c.Title)
	})
	if len(pool) == 0 {
		pool = candidates
	}
	if len(pool) == 0 {
		return Candidate{}, false
	}

	best := pool[0]
	for _, c := range pool[1:] {
		if c.Score() > best.Score() {
			best = c
		}
	}
	return best, true
}
