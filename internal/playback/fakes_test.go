package playback_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/vibeverse/internal/domain/model"
	"github.com/okian/vibeverse/internal/domain/synth"
	"github.com/okian/vibeverse/internal/playback"
)

var errUnreachable = errors.New("source unreachable")

type fakeStream struct {
	mu       sync.Mutex
	pos      time.Duration
	dur      time.Duration
	finished bool
	playing  bool
	closed   bool
	volume   float64
	seeks    []time.Duration
	playErr  error
}

func (s *fakeStream) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playErr != nil {
		return s.playErr
	}
	s.playing = true
	return nil
}

func (s *fakeStream) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	return nil
}

func (s *fakeStream) Seek(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = pos
	s.seeks = append(s.seeks, pos)
	return nil
}

func (s *fakeStream) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
}

func (s *fakeStream) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

func (s *fakeStream) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dur
}

func (s *fakeStream) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.playing = false
	return nil
}

func (s *fakeStream) set(f func(s *fakeStream)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s)
}

type streamState struct {
	pos     time.Duration
	playing bool
	closed  bool
	volume  float64
	seeks   []time.Duration
}

func (s *fakeStream) state() streamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return streamState{pos: s.pos, playing: s.playing, closed: s.closed, volume: s.volume, seeks: append([]time.Duration(nil), s.seeks...)}
}

// fakeOpener serves streams per track ID. Tracks without a stream fail, and
// tracks listed in block wait for their channel (or ctx) first.
type fakeOpener struct {
	mu      sync.Mutex
	streams map[string]*fakeStream
	block   map[string]chan struct{}
	opens   int
}

var _ playback.Opener = (*fakeOpener)(nil)

func newFakeOpener() *fakeOpener {
	return &fakeOpener{streams: map[string]*fakeStream{}, block: map[string]chan struct{}{}}
}

func (o *fakeOpener) Open(ctx context.Context, track model.Track) (playback.Stream, error) {
	o.mu.Lock()
	o.opens++
	s := o.streams[track.ID]
	gate := o.block[track.ID]
	o.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			if s == nil {
				return nil, ctx.Err()
			}
			// Deliver late anyway, like a decoder that ignores cancellation.
			<-gate
		}
	}
	if s == nil {
		return nil, errUnreachable
	}
	return s, nil
}

func (o *fakeOpener) serve(id string, s *fakeStream) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.streams[id] = s
}

func (o *fakeOpener) gate(id string) chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	ch := make(chan struct{})
	o.block[id] = ch
	return ch
}

func (o *fakeOpener) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

type fakeSink struct {
	mu    sync.Mutex
	tones []synth.Tone
}

func (s *fakeSink) PlayTone(t synth.Tone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tones = append(s.tones, t)
}

func (s *fakeSink) played() []synth.Tone {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]synth.Tone(nil), s.tones...)
}

// eventually polls cond for up to two seconds.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}
