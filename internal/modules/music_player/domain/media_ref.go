package domain

import (
	"net/url"
	"regexp"
	"strings"
)

// MediaRef is an opaque locator for a playable track, usually a URL.
type MediaRef string

// MediaID is a provider-specific media identifier, e.g. a YouTube video ID.
type MediaID string

const youtubeWatchURL = "https://www.youtube.com/watch?v="

var urlPattern = regexp.MustCompile(`(?i)^https?://`)

// WatchURL returns the canonical YouTube watch URL for the given video ID.
func WatchURL(id MediaID) MediaRef {
	return MediaRef(youtubeWatchURL + string(id))
}

// IsURL reports whether the input looks like a direct http(s) link.
func IsURL(input string) bool {
	return urlPattern.MatchString(input)
}

// String returns the reference as a plain string.
func (r MediaRef) String() string {
	return string(r)
}

// YouTubeID extracts the video ID from youtube.com/watch and youtu.be links.
// Returns an empty ID for anything else.
func (r MediaRef) YouTubeID() MediaID {
	u, err := url.Parse(string(r))
	if err != nil {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch host {
	case "youtube.com", "music.youtube.com", "m.youtube.com":
		return MediaID(u.Query().Get("v"))
	case "youtu.be":
		return MediaID(strings.Trim(u.Path, "/"))
	default:
		return ""
	}
}
