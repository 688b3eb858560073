// Package remix turns voice recordings into genre beats.
//
// Generation is simulated: a job completes after a fixed delay and names its
// beat after the genre and the completion time.
package remix

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/okian/vibeverse/internal/clock"
	"github.com/okian/vibeverse/pkg/logger"
	"github.com/okian/vibeverse/pkg/metrics"
)

// Genre is a beat style.
type Genre struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var genres = []Genre{
	{ID: "lofi", Name: "Lo-fi", Description: "Chill and relaxed"},
	{ID: "afrobeats", Name: "Afrobeats", Description: "Rhythmic and vibrant"},
	{ID: "trap", Name: "Trap", Description: "Heavy bass and hi-hats"},
	{ID: "house", Name: "House", Description: "Electronic dance vibes"},
	{ID: "jazz", Name: "Jazz", Description: "Smooth and sophisticated"},
	{ID: "ambient", Name: "Ambient", Description: "Atmospheric and dreamy"},
}

// Genres lists the supported genres.
func Genres() []Genre {
	return slices.Clone(genres)
}

// Status of a job.
type Status string

// Job statuses.
const (
	StatusGenerating Status = "generating"
	StatusReady      Status = "ready"
	StatusCancelled  Status = "cancelled"
)

// Job is one remix request.
type Job struct {
	ID          string     `json:"id"`
	Genre       string     `json:"genre"`
	Status      Status     `json:"status"`
	Bytes       int        `json:"recording_bytes"`
	Fingerprint string     `json:"fingerprint"`
	Beat        string     `json:"beat,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadyAt     *time.Time `json:"ready_at,omitempty"`
}

// Lab is safe for concurrent use.
type Lab struct {
	mu     sync.Mutex
	jobs   []*Job // oldest first
	timers map[string]clock.Timer
	closed bool

	clk      clock.Clock
	delay    time.Duration
	maxBytes int64
	maxJobs  int
	log      logger.Logger
}

// New returns an open lab.
func New(opts ...Option) *Lab {
	l := &Lab{
		timers:   map[string]clock.Timer{},
		clk:      clock.New(),
		delay:    DefaultDelay,
		maxBytes: DefaultMaxBytes,
		maxJobs:  DefaultMaxJobs,
		log:      logger.Named("remix"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MaxBytes returns the recording size cap.
func (l *Lab) MaxBytes() int64 { return l.maxBytes }

// Submit starts generating a beat in genre from recording.
func (l *Lab) Submit(ctx context.Context, genre string, recording []byte) (Job, error) {
	if !slices.ContainsFunc(genres, func(g Genre) bool { return g.ID == genre }) {
		return Job{}, fmt.Errorf("%w: %q", ErrUnknownGenre, genre)
	}
	switch {
	case len(recording) == 0:
		return Job{}, ErrEmptyRecording
	case int64(len(recording)) > l.maxBytes:
		return Job{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrRecordingTooLarge, len(recording), l.maxBytes)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return Job{}, ErrClosed
	}

	j := &Job{
		ID:          uuid.NewString(),
		Genre:       genre,
		Status:      StatusGenerating,
		Bytes:       len(recording),
		Fingerprint: strconv.FormatUint(xxhash.Sum64(recording), 16),
		CreatedAt:   l.clk.Now().UTC(),
	}
	l.jobs = append(l.jobs, j)
	l.evictLocked()
	id := j.ID
	bg := context.WithoutCancel(ctx)
	l.timers[id] = l.clk.AfterFunc(l.delay, func() { l.finish(bg, id) })

	l.log.Info(ctx, "remix started",
		logger.String("id", id),
		logger.String("genre", genre),
		logger.Int("bytes", len(recording)),
	)
	return *j, nil
}

func (l *Lab) finish(ctx context.Context, id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.timers, id)
	j := l.findLocked(id)
	if j == nil || j.Status != StatusGenerating {
		return
	}
	now := l.clk.Now().UTC()
	j.Status = StatusReady
	j.ReadyAt = &now
	j.Beat = fmt.Sprintf("%s-remix-%d", j.Genre, now.UnixMilli())
	metrics.RecordRemixGenerated(j.Genre)
	l.log.Info(ctx, "remix ready", logger.String("id", id), logger.String("beat", j.Beat))
}

// evictLocked drops the oldest finished jobs beyond the cap.
func (l *Lab) evictLocked() {
	for i := 0; len(l.jobs) > l.maxJobs && i < len(l.jobs); {
		if l.jobs[i].Status == StatusGenerating {
			i++
			continue
		}
		l.jobs = slices.Delete(l.jobs, i, i+1)
	}
}

func (l *Lab) findLocked(id string) *Job {
	for _, j := range l.jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

// Get returns one job.
func (l *Lab) Get(id string) (Job, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	j := l.findLocked(id)
	if j == nil {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *j, nil
}

// List returns the remembered jobs, newest first.
func (l *Lab) List() []Job {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Job, 0, len(l.jobs))
	for i := len(l.jobs) - 1; i >= 0; i-- {
		out = append(out, *l.jobs[i])
	}
	return out
}

// Pending returns how many jobs are still generating.
func (l *Lab) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

// Close cancels every pending job and rejects new ones.
func (l *Lab) Close(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	for id, t := range l.timers {
		t.Stop()
		if j := l.findLocked(id); j != nil {
			j.Status = StatusCancelled
		}
	}
	if n := len(l.timers); n > 0 {
		l.log.Info(ctx, "pending remixes cancelled", logger.Int("count", n))
	}
	clear(l.timers)
}
