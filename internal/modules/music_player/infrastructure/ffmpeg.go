package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
)

// PCM format produced by decoders: signed 16-bit little-endian, 48 kHz, stereo.
const (
	pcmSampleRate = 48000
	pcmChannels   = 2
)

// ErrUnsupportedSource is returned when a decoder is handed a source it cannot open.
var ErrUnsupportedSource = errors.New("unsupported audio source")

// PCMStream is a running decode of one source.
type PCMStream interface {
	io.Reader
	Close() error
}

// Decoder turns an audio source into raw PCM.
type Decoder interface {
	Decode(ctx context.Context, source ports.AudioSource) (PCMStream, error)
}

// FFmpegDecoder decodes stream sources with an ffmpeg subprocess.
type FFmpegDecoder struct {
	path string
}

// NewFFmpegDecoder creates a decoder running the ffmpeg binary at path.
func NewFFmpegDecoder(path string) *FFmpegDecoder {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpegDecoder{path: path}
}

// Decode starts ffmpeg on the source's stream URL and returns its stdout.
// The process is killed when ctx is cancelled or the stream is closed.
func (d *FFmpegDecoder) Decode(ctx context.Context, source ports.AudioSource) (PCMStream, error) {
	stream, ok := source.(*StreamSource)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedSource, source)
	}

	cmd := exec.CommandContext(ctx, d.path, ffmpegArgs(stream.StreamURL())...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	return &ffmpegStream{cmd: cmd, stdout: stdout}, nil
}

func ffmpegArgs(input string) []string {
	return []string{
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", input,
		"-analyzeduration", "0",
		"-loglevel", "0",
		"-vn",
		"-f", "s16le",
		"-ar", fmt.Sprint(pcmSampleRate),
		"-ac", fmt.Sprint(pcmChannels),
		"pipe:1",
	}
}

type ffmpegStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser

	closeOnce sync.Once
}

func (s *ffmpegStream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

// Close kills ffmpeg if it is still running and reaps it.
func (s *ffmpegStream) Close() error {
	s.closeOnce.Do(func() {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	})
	return nil
}
