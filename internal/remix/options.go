package remix

import (
	"time"

	"github.com/okian/vibeverse/internal/clock"
	"github.com/okian/vibeverse/pkg/logger"
)

// Defaults for a Lab built without options.
const (
	DefaultDelay    = 3 * time.Second
	DefaultMaxBytes = 10 << 20
	DefaultMaxJobs  = 100
)

// Option configures the Lab.
type Option func(*Lab)

// WithClock sets the time source that completes jobs.
func WithClock(c clock.Clock) Option {
	return func(l *Lab) {
		if c != nil {
			l.clk = c
		}
	}
}

// WithDelay sets how long generation takes.
func WithDelay(d time.Duration) Option {
	return func(l *Lab) {
		if d > 0 {
			l.delay = d
		}
	}
}

// WithMaxBytes caps the recording size.
func WithMaxBytes(n int64) Option {
	return func(l *Lab) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// WithMaxJobs caps how many jobs are remembered. Finished jobs are evicted
// oldest first; pending ones are kept.
func WithMaxJobs(n int) Option {
	return func(l *Lab) {
		if n > 0 {
			l.maxJobs = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Lab) {
		if lg != nil {
			l.log = lg
		}
	}
}
