package journal

import (
	"github.com/okian/vibeverse/internal/clock"
	"github.com/okian/vibeverse/pkg/logger"
)

// DefaultMaxEntries bounds the journal when no limit is configured.
const DefaultMaxEntries = 1_000

// Option configures the Journal.
type Option func(*Journal)

// WithClock sets the time source used to date memories.
func WithClock(c clock.Clock) Option {
	return func(j *Journal) {
		if c != nil {
			j.clk = c
		}
	}
}

// WithMaxEntries caps the number of memories kept; the oldest are dropped first.
func WithMaxEntries(n int) Option {
	return func(j *Journal) {
		if n > 0 {
			j.maxEntries = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(j *Journal) {
		if l != nil {
			j.log = l
		}
	}
}
