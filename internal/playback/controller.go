// Package playback owns the single active audio source: a real streamed track
// or, when that cannot be opened, a synthesized tone sequence.
//
// Every operation is absorbed: errors from the real backend end in the
// synthesized backend and are reported through logs and metrics only.
package playback

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/vibeverse/internal/clock"
	"github.com/okian/vibeverse/internal/domain/model"
	"github.com/okian/vibeverse/internal/domain/synth"
	"github.com/okian/vibeverse/pkg/logger"
	"github.com/okian/vibeverse/pkg/metrics"
)

// Controller is the playback state machine. It is safe for concurrent use.
type Controller struct {
	opener       Opener
	sink         ToneSink
	clk          clock.Clock
	log          logger.Logger
	readyTimeout time.Duration
	tick         time.Duration

	mu       sync.Mutex
	track    *model.Track
	status   model.Status
	mode     model.Mode
	position time.Duration
	duration time.Duration
	volume   float64
	backend  backend
	load     *pendingLoad
	// epoch changes whenever timers are armed or torn down; callbacks
	// armed under an older epoch are dropped.
	epoch uint64
}

// New creates a controller over a real-source opener and a tone sink.
func New(opener Opener, sink ToneSink, opts ...Option) *Controller {
	c := &Controller{
		opener:       opener,
		sink:         sink,
		clk:          clock.New(),
		log:          logger.Named("playback"),
		readyTimeout: DefaultReadyTimeout,
		tick:         DefaultTick,
		status:       model.StatusStopped,
		mode:         model.ModeReal,
		volume:       DefaultVolume,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PlayTrack starts track, or resumes it when it is already loaded. It blocks
// until the real backend is ready or the controller has fallen back to the
// synthesized backend, and returns the resulting snapshot.
func (c *Controller) PlayTrack(ctx context.Context, track model.Track) model.PlaybackSnapshot {
	c.mu.Lock()
	offset := time.Duration(0)
	if c.track != nil && c.track.ID == track.ID {
		switch c.status {
		case model.StatusPlaying:
			defer c.mu.Unlock()
			return c.snapshotLocked()
		case model.StatusPaused:
			c.resumeLocked(ctx)
			defer c.mu.Unlock()
			return c.snapshotLocked()
		case model.StatusLoading:
			c.load.pause = false
			defer c.mu.Unlock()
			return c.snapshotLocked()
		case model.StatusStopped:
			offset = c.position
		}
	}

	c.releaseLocked(ctx)
	t := track
	c.track = &t
	c.status = model.StatusLoading
	c.mode = model.ModeReal
	c.duration = t.NominalDuration()
	c.position = clampPosition(offset, c.duration)
	// The open outlives the caller; only the readiness wait, Stop or a newer
	// PlayTrack end it.
	loadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	load := &pendingLoad{cancel: cancel}
	c.load = load
	c.mu.Unlock()

	c.log.Debug(ctx, "opening track", logger.String("track", t.ID), logger.String("url", t.URL))
	started := c.clk.Now()
	out := c.open(loadCtx, cancel, t)
	if out.err == nil {
		metrics.RecordPlaybackOpenLatency(float64(c.clk.Now().Sub(started).Milliseconds()))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.finishLoadLocked(ctx, load, out)
	return c.snapshotLocked()
}

// open runs the opener under the readiness timeout. A stream that arrives
// after the wait has been abandoned is closed.
func (c *Controller) open(loadCtx context.Context, cancel context.CancelFunc, t model.Track) openOutcome {
	defer cancel()

	var timedOut atomic.Bool
	timer := c.clk.AfterFunc(c.readyTimeout, func() {
		timedOut.Store(true)
		cancel()
	})
	defer timer.Stop()

	res := make(chan openOutcome, 1)
	go func() {
		s, err := c.opener.Open(loadCtx, t)
		res <- openOutcome{stream: s, err: err}
	}()

	var out openOutcome
	select {
	case out = <-res:
	case <-loadCtx.Done():
		out = openOutcome{err: loadCtx.Err()}
		go func() {
			if late := <-res; late.stream != nil {
				_ = late.stream.Close()
			}
		}()
	}

	if out.err != nil {
		switch {
		case timedOut.Load():
			out.reason = reasonTimeout
		case errors.Is(out.err, context.Canceled):
			out.reason = reasonCancelled
		default:
			out.reason = reasonOpenFailed
		}
		if out.stream != nil {
			_ = out.stream.Close()
			out.stream = nil
		}
	}
	return out
}

func (c *Controller) finishLoadLocked(ctx context.Context, load *pendingLoad, out openOutcome) {
	if c.load != load {
		// Superseded by Stop, Close or another PlayTrack.
		if out.stream != nil {
			_ = out.stream.Close()
		}
		return
	}
	c.load = nil

	if out.err != nil {
		c.fallbackLocked(ctx, out.reason, out.err, load.pause)
		return
	}

	s := out.stream
	s.SetVolume(c.volume)
	if d := s.Duration(); d > 0 {
		c.duration = d
		c.position = clampPosition(c.position, d)
	}
	if c.position > 0 {
		if err := s.Seek(c.position); err != nil {
			c.log.Warn(ctx, "seek to start offset failed", logger.String("track", c.track.ID), logger.Error(err))
		}
	}

	rb := &realBackend{stream: s}
	c.backend = rb
	c.mode = model.ModeReal
	if load.pause {
		c.status = model.StatusPaused
		return
	}
	if err := s.Play(); err != nil {
		c.releaseLocked(ctx)
		c.fallbackLocked(ctx, reasonPlayFailed, err, false)
		return
	}
	c.status = model.StatusPlaying
	c.armRealLocked(rb)
	metrics.RecordPlaybackStart(string(model.ModeReal))
	c.log.Info(ctx, "playing track", logger.String("track", c.track.ID), logger.String("mode", string(c.mode)))
}

// fallbackLocked switches to the synthesized backend at the current position.
func (c *Controller) fallbackLocked(ctx context.Context, reason string, cause error, paused bool) {
	c.log.Warn(ctx, "real playback unavailable, using synthesized tones",
		logger.String("track", c.track.ID),
		logger.String("reason", reason),
		logger.Error(cause),
	)
	metrics.RecordPlaybackFallback(reason)

	sb := &synthBackend{pattern: synth.ForTrack(c.track.ID)}
	c.backend = sb
	c.mode = model.ModeSynthesized
	c.duration = c.track.NominalDuration()
	c.position = clampPosition(c.position, c.duration)
	if paused {
		c.status = model.StatusPaused
		return
	}
	c.status = model.StatusPlaying
	c.armSynthLocked(sb)
	metrics.RecordPlaybackStart(string(model.ModeSynthesized))
}

// Pause suspends time advance. It is idempotent and a no-op without a track.
func (c *Controller) Pause(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.track == nil {
		return
	}
	switch c.status {
	case model.StatusLoading:
		c.load.pause = true
	case model.StatusPlaying:
		c.epoch++
		c.backend.stopTimers()
		if rb, ok := c.backend.(*realBackend); ok {
			c.refreshLocked(rb)
			if err := rb.stream.Pause(); err != nil {
				c.log.Warn(ctx, "pause failed", logger.String("track", c.track.ID), logger.Error(err))
			}
		}
		c.status = model.StatusPaused
	default:
	}
}

// Resume continues from the current position. It is a no-op without a track
// and when the track is stopped; use PlayTrack to restart a stopped track.
func (c *Controller) Resume(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.track == nil {
		return
	}
	switch c.status {
	case model.StatusLoading:
		c.load.pause = false
	case model.StatusPaused:
		c.resumeLocked(ctx)
	default:
	}
}

func (c *Controller) resumeLocked(ctx context.Context) {
	switch b := c.backend.(type) {
	case *realBackend:
		if err := b.stream.Play(); err != nil {
			c.releaseLocked(ctx)
			c.fallbackLocked(ctx, reasonResumeFailed, err, false)
			return
		}
		c.status = model.StatusPlaying
		c.armRealLocked(b)
	case *synthBackend:
		c.status = model.StatusPlaying
		c.armSynthLocked(b)
	}
}

// Stop halts playback, returns the position to 0, releases the backend and keeps the track.
func (c *Controller) Stop(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.track == nil {
		return
	}
	c.releaseLocked(ctx)
	c.status = model.StatusStopped
	c.position = 0
}

// Seek moves to pos, clamped to [0, duration]. The synthesized backend only
// updates the reported position; tones are not resynchronised.
func (c *Controller) Seek(ctx context.Context, pos time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.track == nil {
		return
	}
	c.position = clampPosition(pos, c.duration)
	if rb, ok := c.backend.(*realBackend); ok {
		if err := rb.stream.Seek(c.position); err != nil {
			c.log.Warn(ctx, "seek failed", logger.String("track", c.track.ID), logger.Error(err))
		}
	}
}

// SetVolume sets the volume, clamped to [0,1] with NaN treated as 0. It
// persists across tracks.
func (c *Controller) SetVolume(_ context.Context, v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = clampVolume(v)
	if rb, ok := c.backend.(*realBackend); ok {
		rb.stream.SetVolume(c.volume)
	}
}

// Snapshot returns the current playback state.
func (c *Controller) Snapshot() model.PlaybackSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close releases every resource and forgets the track.
func (c *Controller) Close(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked(ctx)
	c.track = nil
	c.status = model.StatusStopped
	c.position = 0
	c.duration = 0
}

func (c *Controller) snapshotLocked() model.PlaybackSnapshot {
	s := model.PlaybackSnapshot{
		Status:   c.status,
		Mode:     c.mode,
		Position: c.position,
		Duration: c.duration,
		Volume:   c.volume,
	}
	if c.track != nil {
		t := *c.track
		s.Track = &t
	}
	return s
}

// releaseLocked cancels a pending load, stops timers and closes the stream.
func (c *Controller) releaseLocked(ctx context.Context) {
	c.epoch++
	if c.load != nil {
		c.load.cancel()
		c.load = nil
	}
	if c.backend == nil {
		return
	}
	c.backend.stopTimers()
	if rb, ok := c.backend.(*realBackend); ok {
		if err := rb.stream.Close(); err != nil {
			c.log.Debug(ctx, "closing stream", logger.Error(err))
		}
	}
	c.backend = nil
}

func (c *Controller) armRealLocked(rb *realBackend) {
	c.epoch++
	epoch := c.epoch
	rb.poll = c.clk.Every(c.tick, func() { c.onRealTick(epoch) })
}

func (c *Controller) armSynthLocked(sb *synthBackend) {
	c.epoch++
	epoch := c.epoch
	sb.tick = c.clk.Every(c.tick, func() { c.onSynthTick(epoch) })
	c.emitLocked(sb)
	sb.emit = c.clk.Every(sb.pattern.Tempo, func() { c.onEmit(epoch) })
}

func (c *Controller) onRealTick(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch || c.status != model.StatusPlaying {
		return
	}
	rb, ok := c.backend.(*realBackend)
	if !ok {
		return
	}
	c.refreshLocked(rb)
	if rb.stream.Finished() {
		c.completeLocked(context.Background())
	}
}

func (c *Controller) onSynthTick(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch || c.status != model.StatusPlaying {
		return
	}
	c.position += c.tick
	if c.duration > 0 && c.position >= c.duration {
		c.position = c.duration
		c.completeLocked(context.Background())
	}
}

func (c *Controller) onEmit(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch || c.status != model.StatusPlaying {
		return
	}
	if sb, ok := c.backend.(*synthBackend); ok {
		c.emitLocked(sb)
	}
}

func (c *Controller) emitLocked(sb *synthBackend) {
	tone := sb.pattern.Tone(sb.step, c.volume)
	sb.step++
	c.sink.PlayTone(tone)
	metrics.RecordToneEmitted()
}

// refreshLocked copies position and duration from the stream. Position never
// exceeds the known duration.
func (c *Controller) refreshLocked(rb *realBackend) {
	if d := rb.stream.Duration(); d > 0 {
		c.duration = d
	}
	c.position = clampPosition(rb.stream.Position(), c.duration)
}

// completeLocked ends playback at the end of the source and keeps the track.
func (c *Controller) completeLocked(ctx context.Context) {
	c.log.Info(ctx, "track finished", logger.String("track", c.track.ID), logger.String("mode", string(c.mode)))
	c.releaseLocked(ctx)
	c.status = model.StatusStopped
	c.position = 0
}

func clampPosition(pos, duration time.Duration) time.Duration {
	if pos < 0 {
		return 0
	}
	if duration > 0 && pos > duration {
		return duration
	}
	return pos
}

func clampVolume(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
