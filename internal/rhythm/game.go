// Package rhythm runs a rhythm-game session: beats spawn at the track's tempo,
// move along a 0..100 lane on a fixed tick, and player inputs are judged
// against the hit window.
package rhythm

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/okian/vibeverse/internal/clock"
	"github.com/okian/vibeverse/internal/domain/model"
	"github.com/okian/vibeverse/internal/domain/scoring"
	"github.com/okian/vibeverse/pkg/logger"
	"github.com/okian/vibeverse/pkg/metrics"
)

// Game owns one session at a time. It is safe for concurrent use.
type Game struct {
	clk   clock.Clock
	judge *scoring.Judge
	log   logger.Logger
	tick  time.Duration
	step  float64
	newID func() string

	mu        sync.Mutex
	sessionID string
	player    string
	track     model.Track
	state     model.GameState
	paused    bool
	played    bool
	beats     []model.BeatEvent
	lastBeat  int64
	score     int
	combo     int
	maxCombo  int
	hits      int
	misses    int
	accuracy  float64
	elapsed   time.Duration
	spawn     clock.Timer
	advance   clock.Timer
	// epoch changes whenever timers are armed or torn down.
	epoch uint64
}

// New creates an idle game with a fresh session.
func New(opts ...Option) *Game {
	g := &Game{
		clk:   clock.New(),
		judge: scoring.NewJudge(),
		log:   logger.Named("rhythm"),
		tick:  DefaultTick,
		step:  DefaultBeatStep,
		newID: newSessionID,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.resetLocked()
	return g
}

// Cadence returns the spawn interval for a tempo: one beat per 60000/bpm ms.
// It is 0 when the tempo has no representable positive interval.
func Cadence(bpm float64) time.Duration {
	if !(bpm > 0) || math.IsInf(bpm, 1) {
		return 0
	}
	ns := float64(time.Minute) / bpm
	if ns < 1 || ns >= math.MaxInt64 {
		return 0
	}
	return time.Duration(ns)
}

// Start begins or continues the session for player on track. A stopped
// session keeps its score and beats.
func (g *Game) Start(ctx context.Context, player string, track model.Track) error {
	if Cadence(track.BPM) <= 0 {
		return ErrInvalidTempo
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == model.GameRunning {
		return ErrAlreadyRunning
	}
	if g.played && (g.player != player || g.track.ID != track.ID) {
		return ErrSessionMismatch
	}

	g.player = player
	g.track = track
	g.state = model.GameRunning
	g.paused = false
	g.played = true
	g.armLocked()
	metrics.AddRunningSessions(1)

	g.log.Info(ctx, "session started",
		logger.String("session", g.sessionID),
		logger.String("player", player),
		logger.String("track", track.ID),
		logger.Duration("cadence", Cadence(track.BPM)),
	)
	return nil
}

// SetPaused freezes or unfreezes spawning and movement. Beats and score are kept.
func (g *Game) SetPaused(ctx context.Context, paused bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused == paused {
		return
	}
	g.paused = paused
	if g.state != model.GameRunning {
		return
	}
	if paused {
		g.disarmLocked()
	} else {
		g.armLocked()
	}
	g.log.Debug(ctx, "session paused", logger.String("session", g.sessionID), logger.Bool("paused", paused))
}

// Stop moves a running session to idle. Beats are retained.
func (g *Game) Stop(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != model.GameRunning {
		return
	}
	g.stopLocked()
	g.log.Info(ctx, "session stopped",
		logger.String("session", g.sessionID),
		logger.Int("score", g.score),
		logger.Float64("accuracy", g.accuracy),
	)
}

// Hit judges one player input against the earliest-spawned unhit beat in the window.
func (g *Game) Hit(_ context.Context) (model.HitResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != model.GameRunning || g.paused {
		return model.HitResult{}, ErrNotRunning
	}

	for i := range g.beats {
		b := &g.beats[i]
		if b.Hit || !g.judge.InWindow(b.Position) {
			continue
		}
		points, timing := g.judge.Points(b.Position)
		b.Hit = true
		g.score += scoring.Round(points)
		g.combo++
		g.maxCombo = max(g.maxCombo, g.combo)
		g.hits++
		g.accuracy = g.judge.AfterHit(g.accuracy, points)
		metrics.RecordGameHit(points)
		return model.HitResult{
			Hit:         true,
			BeatID:      b.ID,
			TimingError: timing,
			Points:      points,
			Score:       g.score,
			Combo:       g.combo,
			Accuracy:    g.accuracy,
		}, nil
	}

	g.combo = 0
	g.misses++
	g.accuracy = g.judge.AfterMiss(g.accuracy)
	metrics.RecordGameMiss()
	return model.HitResult{Score: g.score, Combo: g.combo, Accuracy: g.accuracy}, nil
}

// Reset discards the session and starts a fresh idle one. Player and track are kept.
func (g *Game) Reset(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	old := g.sessionID
	if g.state == model.GameRunning {
		g.stopLocked()
	}
	g.resetLocked()
	g.log.Debug(ctx, "session reset", logger.String("previous", old), logger.String("session", g.sessionID))
}

// Snapshot returns the current session state; beats are in spawn order.
func (g *Game) Snapshot() model.GameSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	beats := make([]model.BeatEvent, len(g.beats))
	copy(beats, g.beats)
	return model.GameSnapshot{
		SessionID: g.sessionID,
		Player:    g.player,
		TrackID:   g.track.ID,
		BPM:       g.track.BPM,
		State:     g.state,
		Paused:    g.paused,
		Score:     g.score,
		Combo:     g.combo,
		MaxCombo:  g.maxCombo,
		Accuracy:  g.accuracy,
		Elapsed:   g.elapsed,
		Hits:      g.hits,
		Misses:    g.misses,
		Beats:     beats,
	}
}

// Result returns the tally of a played, stopped session.
func (g *Game) Result() (model.GameResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case !g.played:
		return model.GameResult{}, ErrNoResult
	case g.state == model.GameRunning:
		return model.GameResult{}, ErrSessionRunning
	}
	return model.GameResult{
		SessionID:  g.sessionID,
		Player:     g.player,
		TrackID:    g.track.ID,
		Score:      g.score,
		Accuracy:   g.accuracy,
		MaxCombo:   g.maxCombo,
		FinishedAt: g.clk.Now(),
	}, nil
}

func (g *Game) resetLocked() {
	g.sessionID = g.newID()
	g.state = model.GameIdle
	g.paused = false
	g.played = false
	g.beats = nil
	g.lastBeat = 0
	g.score = 0
	g.combo = 0
	g.maxCombo = 0
	g.hits = 0
	g.misses = 0
	g.accuracy = fullAccuracy
	g.elapsed = 0
}

func (g *Game) stopLocked() {
	g.disarmLocked()
	g.state = model.GameIdle
	g.paused = false
	metrics.AddRunningSessions(-1)
}

func (g *Game) armLocked() {
	g.disarmLocked()
	epoch := g.epoch
	g.spawn = g.clk.Every(Cadence(g.track.BPM), func() { g.onSpawn(epoch) })
	g.advance = g.clk.Every(g.tick, func() { g.onAdvance(epoch) })
}

func (g *Game) disarmLocked() {
	g.epoch++
	if g.spawn != nil {
		g.spawn.Stop()
		g.spawn = nil
	}
	if g.advance != nil {
		g.advance.Stop()
		g.advance = nil
	}
}

func (g *Game) live(epoch uint64) bool {
	return g.epoch == epoch && g.state == model.GameRunning && !g.paused
}

func (g *Game) onSpawn(epoch uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.live(epoch) {
		return
	}
	g.lastBeat++
	g.beats = append(g.beats, model.BeatEvent{ID: g.lastBeat})
	metrics.RecordBeatSpawned()
}

func (g *Game) onAdvance(epoch uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.live(epoch) {
		return
	}
	g.elapsed += g.tick
	kept := g.beats[:0]
	for _, b := range g.beats {
		b.Position += g.step
		if b.Position < laneEnd {
			kept = append(kept, b)
		}
	}
	g.beats = kept
}
