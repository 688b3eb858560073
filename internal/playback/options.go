package playback

import (
	"time"

	"github.com/okian/vibeverse/internal/clock"
	"github.com/okian/vibeverse/pkg/logger"
)

// Default controller settings.
const (
	DefaultReadyTimeout = 5 * time.Second
	DefaultTick         = 100 * time.Millisecond
	DefaultVolume       = 0.8
)

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithClock sets the time source for timers.
func WithClock(c clock.Clock) Option {
	return func(ctl *Controller) {
		if c != nil {
			ctl.clk = c
		}
	}
}

// WithReadyTimeout bounds how long the real backend may take to open.
func WithReadyTimeout(d time.Duration) Option {
	return func(ctl *Controller) {
		if d > 0 {
			ctl.readyTimeout = d
		}
	}
}

// WithTick sets the position refresh interval of both backends.
func WithTick(d time.Duration) Option {
	return func(ctl *Controller) {
		if d > 0 {
			ctl.tick = d
		}
	}
}

// WithVolume sets the initial volume; it is clamped to [0,1].
func WithVolume(v float64) Option {
	return func(ctl *Controller) {
		ctl.volume = clampVolume(v)
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(ctl *Controller) {
		if l != nil {
			ctl.log = l
		}
	}
}
