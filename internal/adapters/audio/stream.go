package audio

import (
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
)

// stream plays one decoded source through an oto player. Position, duration
// and seeking use the decoded source's own sample rate.
type stream struct {
	mu     sync.Mutex
	src    beep.StreamSeekCloser
	format beep.Format
	pcm    *pcmReader
	player player
	once   sync.Once
}

func newStream(src beep.StreamSeekCloser, format beep.Format, out output) *stream {
	var s beep.Streamer = src
	if rate := beep.SampleRate(out.sampleRate()); rate != format.SampleRate {
		s = beep.Resample(resampleQuality, format.SampleRate, rate, src)
	}
	st := &stream{src: src, format: format}
	st.pcm = &pcmReader{mu: &st.mu, streamer: s}
	st.player = out.newPlayer(st.pcm)
	return st
}

func (s *stream) Play() error {
	s.player.Play()
	if err := s.player.Err(); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	return nil
}

func (s *stream) Pause() error {
	s.player.Pause()
	return nil
}

func (s *stream) Seek(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := min(max(s.format.SampleRate.N(pos), 0), s.src.Len())
	if err := s.src.Seek(n); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	s.pcm.done.Store(false)
	return nil
}

func (s *stream) SetVolume(v float64) {
	s.player.SetVolume(v)
}

func (s *stream) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format.SampleRate.D(s.src.Position())
}

func (s *stream) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format.SampleRate.D(s.src.Len())
}

// Finished holds no lock while asking the player, whose reader takes s.mu.
func (s *stream) Finished() bool {
	return s.pcm.done.Load() && !s.player.IsPlaying()
}

func (s *stream) Close() error {
	var err error
	s.once.Do(func() {
		if cerr := s.player.Close(); cerr != nil {
			err = fmt.Errorf("close player: %w", cerr)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if cerr := s.src.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close source: %w", cerr)
		}
	})
	return err
}

// pcmReader turns beep samples into interleaved float32 LE frames.
type pcmReader struct {
	mu       *sync.Mutex
	streamer beep.Streamer
	buf      [][2]float64
	done     atomic.Bool
}

func (r *pcmReader) Read(p []byte) (int, error) {
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cap(r.buf) < frames {
		r.buf = make([][2]float64, frames)
	}
	n, ok := r.streamer.Stream(r.buf[:frames])
	if !ok || n == 0 {
		r.done.Store(true)
		return 0, io.EOF
	}
	for i, frame := range r.buf[:n] {
		putF32(p[i*frameBytes:], frame[0])
		putF32(p[i*frameBytes+bytesPerSample:], frame[1])
	}
	return n * frameBytes, nil
}

func putF32(b []byte, sample float64) {
	v := math.Float32bits(float32(max(-1, min(1, sample))))
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
