package playback

import (
	"context"
	"time"

	"github.com/okian/vibeverse/internal/clock"
	"github.com/okian/vibeverse/internal/domain/model"
	"github.com/okian/vibeverse/internal/domain/synth"
)

// Stream is an opened real audio source.
type Stream interface {
	Play() error
	Pause() error
	Seek(pos time.Duration) error
	SetVolume(v float64)
	Position() time.Duration
	// Duration is the true length, or 0 while unknown.
	Duration() time.Duration
	// Finished reports that playback reached the end of the source.
	Finished() bool
	Close() error
}

// Opener opens the real backend for a track. ctx bounds the open only; the
// returned stream must stay usable after ctx is done.
type Opener interface {
	Open(ctx context.Context, track model.Track) (Stream, error)
}

// ToneSink plays synthesized tones. PlayTone must not block.
type ToneSink interface {
	PlayTone(t synth.Tone)
}

// Fallback reasons, used as the metrics label and log field.
const (
	reasonOpenFailed   = "open_failed"
	reasonTimeout      = "timeout"
	reasonCancelled    = "cancelled"
	reasonPlayFailed   = "play_failed"
	reasonResumeFailed = "resume_failed"
)

// backend is either *realBackend or *synthBackend.
type backend interface {
	stopTimers()
}

type realBackend struct {
	stream Stream
	poll   clock.Timer
}

func (b *realBackend) stopTimers() {
	if b.poll != nil {
		b.poll.Stop()
		b.poll = nil
	}
}

type synthBackend struct {
	pattern synth.Pattern
	step    int
	tick    clock.Timer
	emit    clock.Timer
}

func (b *synthBackend) stopTimers() {
	if b.tick != nil {
		b.tick.Stop()
		b.tick = nil
	}
	if b.emit != nil {
		b.emit.Stop()
		b.emit = nil
	}
}

// openOutcome is the result of a readiness wait.
type openOutcome struct {
	stream Stream
	err    error
	reason string
}

// pendingLoad is a real-backend open in progress.
type pendingLoad struct {
	cancel context.CancelFunc
	pause  bool
}
