package infrastructure

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

type fakePCM struct {
	io.Reader

	mu     sync.Mutex
	closed bool
	onClose func()
}

func (f *fakePCM) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed && f.onClose != nil {
		f.onClose()
	}
	f.closed = true
	return nil
}

type fakeDecoder struct {
	stream *fakePCM
	err    error
}

func (d *fakeDecoder) Decode(context.Context, ports.AudioSource) (PCMStream, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.stream, nil
}

// fakeEncoder emits a 2-byte packet holding the frame's first sample.
type fakeEncoder struct {
	err error
}

func (e *fakeEncoder) Encode(pcm []int16, data []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	binary.LittleEndian.PutUint16(data, uint16(pcm[0]))
	return 2, nil
}

type speakingRecorder struct {
	mu     sync.Mutex
	states []bool
}

func (r *speakingRecorder) set(speaking bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, speaking)
	return nil
}

func (r *speakingRecorder) snapshot() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.states)
}

// pcmFrames returns n full frames whose first sample is the frame index + 1.
func pcmFrames(n int) []byte {
	var buf bytes.Buffer
	frame := make([]int16, opusFrameSize*pcmChannels)
	for i := range n {
		frame[0] = int16(i + 1)
		_ = binary.Write(&buf, binary.LittleEndian, frame)
	}
	return buf.Bytes()
}

func firstSample(packet []byte) int16 {
	return int16(binary.LittleEndian.Uint16(packet))
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err, ok := <-done:
		if !ok {
			t.Fatal("done channel closed without a value")
		}
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream to finish")
		return nil
	}
}

func testSource() *StreamSource {
	return NewStreamSource(domain.MediaRef("https://example.com/a"), "https://cdn.example.com/a")
}

type closeTrackingSource struct {
	*StreamSource

	mu     sync.Mutex
	closed bool
}

func (s *closeTrackingSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *closeTrackingSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func TestVoicePlayer_PlaysToCompletion(t *testing.T) {
	// Two full frames plus a partial one that is dropped at the end.
	data := append(pcmFrames(2), 1, 2, 3)
	pcm := &fakePCM{Reader: bytes.NewReader(data)}
	frames := make(chan []byte, 10)
	speaking := &speakingRecorder{}
	source := &closeTrackingSource{StreamSource: testSource()}

	player := NewVoicePlayer(&fakeDecoder{stream: pcm}, &fakeEncoder{}, frames, speaking.set)

	done, err := player.Play(context.Background(), source)
	if err != nil {
		t.Fatalf("Play returned error: %v", err)
	}

	if err := waitDone(t, done); err != nil {
		t.Errorf("expected natural end to report nil, got %v", err)
	}
	if _, ok := <-done; ok {
		t.Error("expected done channel to be closed after its value")
	}

	close(frames)
	var got []int16
	for packet := range frames {
		got = append(got, firstSample(packet))
	}
	if !slices.Equal(got, []int16{1, 2}) {
		t.Errorf("expected packets for frames 1 and 2, got %v", got)
	}

	if !source.isClosed() {
		t.Error("expected the player to close the source")
	}
	if states := speaking.snapshot(); !slices.Equal(states, []bool{true, false}) {
		t.Errorf("expected speaking on then off, got %v", states)
	}
}

func TestVoicePlayer_Stop(t *testing.T) {
	reader, writer := io.Pipe()
	pcm := &fakePCM{Reader: reader, onClose: func() { _ = reader.Close() }}
	defer writer.Close()

	player := NewVoicePlayer(&fakeDecoder{stream: pcm}, &fakeEncoder{}, make(chan []byte, 10), nil)

	done, err := player.Play(context.Background(), testSource())
	if err != nil {
		t.Fatalf("Play returned error: %v", err)
	}

	if err := player.Stop(context.Background()); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if err := waitDone(t, done); err != nil {
		t.Errorf("expected stopped stream to report nil, got %v", err)
	}

	// A second Stop on an idle player does nothing.
	if err := player.Stop(context.Background()); err != nil {
		t.Errorf("expected Stop on idle player to succeed, got %v", err)
	}
}

func TestVoicePlayer_PlayReplacesCurrent(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()
	first := &fakePCM{Reader: reader, onClose: func() { _ = reader.Close() }}
	decoder := &fakeDecoder{stream: first}

	player := NewVoicePlayer(decoder, &fakeEncoder{}, make(chan []byte, 10), nil)

	firstDone, err := player.Play(context.Background(), testSource())
	if err != nil {
		t.Fatalf("Play returned error: %v", err)
	}

	decoder.stream = &fakePCM{Reader: bytes.NewReader(pcmFrames(1))}
	secondDone, err := player.Play(context.Background(), testSource())
	if err != nil {
		t.Fatalf("second Play returned error: %v", err)
	}

	if err := waitDone(t, firstDone); err != nil {
		t.Errorf("expected replaced stream to report nil, got %v", err)
	}
	if err := waitDone(t, secondDone); err != nil {
		t.Errorf("expected second stream to finish cleanly, got %v", err)
	}
}

func TestVoicePlayer_PauseHoldsFrames(t *testing.T) {
	reader, writer := io.Pipe()
	pcm := &fakePCM{Reader: reader, onClose: func() { _ = reader.Close() }}
	frames := make(chan []byte)

	player := NewVoicePlayer(&fakeDecoder{stream: pcm}, &fakeEncoder{}, frames, nil)

	done, err := player.Play(context.Background(), testSource())
	if err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if err := player.Pause(context.Background()); err != nil {
		t.Fatalf("Pause returned error: %v", err)
	}

	go func() {
		_, _ = writer.Write(pcmFrames(1))
		_ = writer.Close()
	}()

	select {
	case <-frames:
		t.Fatal("expected no packet while paused")
	case <-time.After(50 * time.Millisecond):
	}

	if err := player.Resume(context.Background()); err != nil {
		t.Fatalf("Resume returned error: %v", err)
	}

	select {
	case packet := <-frames:
		if firstSample(packet) != 1 {
			t.Errorf("expected packet for frame 1, got %d", firstSample(packet))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for packet after resume")
	}

	if err := waitDone(t, done); err != nil {
		t.Errorf("expected nil after the stream ran dry, got %v", err)
	}
}

func TestVoicePlayer_Errors(t *testing.T) {
	t.Run("decoder fails to start", func(t *testing.T) {
		errDecode := errors.New("ffmpeg not found")
		player := NewVoicePlayer(&fakeDecoder{err: errDecode}, &fakeEncoder{}, make(chan []byte, 1), nil)

		if _, err := player.Play(context.Background(), testSource()); !errors.Is(err, errDecode) {
			t.Errorf("expected decoder error, got %v", err)
		}
		// Nothing is active, so pausing is a no-op.
		if err := player.Pause(context.Background()); err != nil {
			t.Errorf("expected Pause on idle player to succeed, got %v", err)
		}
	})

	t.Run("encoder failure ends the stream", func(t *testing.T) {
		errEncode := errors.New("bad frame")
		pcm := &fakePCM{Reader: bytes.NewReader(pcmFrames(3))}
		player := NewVoicePlayer(&fakeDecoder{stream: pcm}, &fakeEncoder{err: errEncode}, make(chan []byte, 3), nil)

		done, err := player.Play(context.Background(), testSource())
		if err != nil {
			t.Fatalf("Play returned error: %v", err)
		}
		if err := waitDone(t, done); !errors.Is(err, errEncode) {
			t.Errorf("expected encoder error, got %v", err)
		}
	})
}
