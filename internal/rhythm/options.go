package rhythm

import (
	"time"

	"github.com/google/uuid"

	"github.com/okian/vibeverse/internal/clock"
	"github.com/okian/vibeverse/internal/domain/scoring"
	"github.com/okian/vibeverse/pkg/logger"
)

// Default loop settings.
const (
	DefaultTick     = 50 * time.Millisecond
	DefaultBeatStep = 2.0
	laneEnd         = 100.0
	fullAccuracy    = 100.0
)

// Option applies a configuration option to the Game.
type Option func(*Game)

// WithClock sets the time source for the spawn and advance timers.
func WithClock(c clock.Clock) Option {
	return func(g *Game) {
		if c != nil {
			g.clk = c
		}
	}
}

// WithJudge sets the hit judge.
func WithJudge(j *scoring.Judge) Option {
	return func(g *Game) {
		if j != nil {
			g.judge = j
		}
	}
}

// WithTick sets the advance interval.
func WithTick(d time.Duration) Option {
	return func(g *Game) {
		if d > 0 {
			g.tick = d
		}
	}
}

// WithBeatStep sets how far beats move per advance tick.
func WithBeatStep(step float64) Option {
	return func(g *Game) {
		if step > 0 {
			g.step = step
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Game) {
		if l != nil {
			g.log = l
		}
	}
}

// WithSessionIDs sets the session ID generator.
func WithSessionIDs(next func() string) Option {
	return func(g *Game) {
		if next != nil {
			g.newID = next
		}
	}
}

func newSessionID() string { return uuid.NewString() }
