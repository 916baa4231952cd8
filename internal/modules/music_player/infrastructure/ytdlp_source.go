package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// ErrNoStreamURL is returned when yt-dlp succeeds but prints no stream URL.
var ErrNoStreamURL = errors.New("yt-dlp returned no stream url")

// StreamSource is an AudioSource backed by a direct, decodable media URL.
type StreamSource struct {
	ref       domain.MediaRef
	streamURL string
}

// NewStreamSource creates a StreamSource for ref served from streamURL.
func NewStreamSource(ref domain.MediaRef, streamURL string) *StreamSource {
	return &StreamSource{ref: ref, streamURL: streamURL}
}

// MediaRef returns the reference the source was resolved from.
func (s *StreamSource) MediaRef() domain.MediaRef {
	return s.ref
}

// StreamURL returns the direct media URL.
func (s *StreamSource) StreamURL() string {
	return s.streamURL
}

// Close is a no-op; the stream is only opened once a player decodes it.
func (s *StreamSource) Close() error {
	return nil
}

// ytdlpRunner runs yt-dlp against target and returns its stdout.
type ytdlpRunner func(ctx context.Context, target string) (string, error)

// YtdlpSourceResolver resolves media references to stream URLs with yt-dlp.
type YtdlpSourceResolver struct {
	run ytdlpRunner
}

// NewYtdlpSourceResolver creates a resolver that shells out to yt-dlp on PATH.
func NewYtdlpSourceResolver() *YtdlpSourceResolver {
	return &YtdlpSourceResolver{run: runYtdlp}
}

func runYtdlp(ctx context.Context, target string) (string, error) {
	res, err := ytdlp.New().
		Format("bestaudio[ext=webm]/bestaudio").
		Print("urls").
		NoPlaylist().
		NoWarnings().
		IgnoreConfig().
		Run(ctx, target)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Resolve asks yt-dlp for the best audio-only stream of ref.
// References that are not links are treated as a single-result YouTube search.
func (r *YtdlpSourceResolver) Resolve(
	ctx context.Context,
	ref domain.MediaRef,
) (ports.AudioSource, error) {
	target := ref.String()
	if !domain.IsURL(target) {
		target = "ytsearch1:" + target
	}

	stdout, err := r.run(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to run yt-dlp for %s: %w", ref, err)
	}

	streamURL, ok := firstLine(stdout)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoStreamURL, ref)
	}

	return NewStreamSource(ref, streamURL), nil
}

func firstLine(output string) (string, bool) {
	for line := range strings.Lines(output) {
		if line = strings.TrimSpace(line); line != "" {
			return line, true
		}
	}
	return "", false
}

// Ensure YtdlpSourceResolver implements ports.SourceResolver.
var _ ports.SourceResolver = (*YtdlpSourceResolver)(nil)
