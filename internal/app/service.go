// Package service composes playback, the rhythm game, the catalog, the
// leaderboard pipeline and the studio tools behind one API-facing type.
package service

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/okian/vibeverse/internal/adapters/audio"
	"github.com/okian/vibeverse/internal/adapters/mq/queue"
	"github.com/okian/vibeverse/internal/adapters/mq/worker"
	"github.com/okian/vibeverse/internal/adapters/repository"
	"github.com/okian/vibeverse/internal/domain/catalog"
	"github.com/okian/vibeverse/internal/domain/dedupe"
	"github.com/okian/vibeverse/internal/domain/journal"
	"github.com/okian/vibeverse/internal/domain/model"
	"github.com/okian/vibeverse/internal/domain/types"
	"github.com/okian/vibeverse/internal/playback"
	"github.com/okian/vibeverse/internal/remix"
	"github.com/okian/vibeverse/internal/rhythm"
	"github.com/okian/vibeverse/pkg/logger"
	"github.com/okian/vibeverse/pkg/metrics"
)

// Service is safe for concurrent use.
type Service struct {
	mu sync.RWMutex

	catalog *catalog.Catalog
	player  *playback.Controller
	game    *rhythm.Game
	journal *journal.Journal
	lab     *remix.Lab

	store   repository.Store
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool

	workerCount int
	queueSize   int
	dedupeSize  int

	started bool
	logger  logger.Logger
}

// Stats is the service summary served on /stats.
type Stats struct {
	Started        bool            `json:"started"`
	Workers        int             `json:"workers"`
	QueueCapacity  int             `json:"queue_capacity"`
	QueueLength    int             `json:"queue_length"`
	DedupeCapacity int             `json:"dedupe_capacity"`
	DedupeSize     int64           `json:"dedupe_size"`
	Processed      int64           `json:"processed"`
	Players        int             `json:"players"`
	Tracks         int             `json:"tracks"`
	PlaybackStatus model.Status    `json:"playback_status"`
	PlaybackMode   model.Mode      `json:"playback_mode"`
	GameState      model.GameState `json:"game_state"`
	Memories       int             `json:"memories"`
	RemixesPending int             `json:"remixes_pending"`
}

// New creates a stopped service. Components not supplied through options
// default to the built-in catalog, headless playback and a default game.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   10_000,
		dedupeSize:  100_000,
		logger:      logger.Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.catalog == nil {
		c, err := catalog.New()
		if err != nil {
			return nil, fmt.Errorf("load built-in catalog: %w", err)
		}
		s.catalog = c
	}
	if s.player == nil {
		s.player = playback.New(audio.Unavailable{}, audio.Silent{})
	}
	if s.game == nil {
		s.game = rhythm.New()
	}
	if s.journal == nil {
		s.journal = journal.New()
	}
	if s.lab == nil {
		s.lab = remix.New()
	}
	return s, nil
}

// Start creates the leaderboard pipeline and starts its workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	if s.store == nil {
		s.store = repository.NewTreapStore(ctx)
		s.logger.Info(ctx, "using treap store")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithBufferSize(s.queueSize),
	)
	s.pool = worker.NewPool(s.workerCount, s.queue, s.store)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int("tracks", s.catalog.Len()),
	)
	return nil
}

// Stop drains the result queue, closes the store, releases playback and
// cancels pending remixes.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.game.Stop(ctx)
	s.player.Close(ctx)
	s.lab.Close(ctx)
	if !s.started {
		return
	}

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "store close", logger.Error(err))
	}
	s.store = nil
	s.started = false
	s.logger.Info(ctx, "service stopped")
}

// Tracks returns the catalog, or one mood of it when mood is not empty.
func (s *Service) Tracks(mood string) []model.Track {
	if mood = strings.TrimSpace(mood); mood != "" {
		return s.catalog.ByMood(mood)
	}
	return s.catalog.All()
}

// Moods returns the catalog moods.
func (s *Service) Moods() []string {
	return s.catalog.Moods()
}

// Track looks up one catalog track.
func (s *Service) Track(id string) (model.Track, error) {
	return s.catalog.ByID(id)
}

// Play starts the catalog track with the given ID.
func (s *Service) Play(ctx context.Context, trackID string) (model.PlaybackSnapshot, error) {
	t, err := s.catalog.ByID(trackID)
	if err != nil {
		return s.player.Snapshot(), err
	}
	return s.player.PlayTrack(ctx, t), nil
}

// Next plays the track after the current one in its mood playlist.
func (s *Service) Next(ctx context.Context) (model.PlaybackSnapshot, error) {
	return s.step(ctx, 1)
}

// Previous plays the track before the current one in its mood playlist.
func (s *Service) Previous(ctx context.Context) (model.PlaybackSnapshot, error) {
	return s.step(ctx, -1)
}

func (s *Service) step(ctx context.Context, delta int) (model.PlaybackSnapshot, error) {
	snap := s.player.Snapshot()
	if snap.Track == nil {
		return snap, ErrNoTrack
	}
	t, err := s.catalog.Step(snap.Track.ID, delta)
	if err != nil {
		return snap, err
	}
	return s.player.PlayTrack(ctx, t), nil
}

// Pause pauses playback.
func (s *Service) Pause(ctx context.Context) model.PlaybackSnapshot {
	s.player.Pause(ctx)
	return s.player.Snapshot()
}

// Resume resumes playback.
func (s *Service) Resume(ctx context.Context) model.PlaybackSnapshot {
	s.player.Resume(ctx)
	return s.player.Snapshot()
}

// StopPlayback stops playback and rewinds.
func (s *Service) StopPlayback(ctx context.Context) model.PlaybackSnapshot {
	s.player.Stop(ctx)
	return s.player.Snapshot()
}

// maxSeekSeconds is the largest offset that still fits a time.Duration.
const maxSeekSeconds = float64(math.MaxInt64 / int64(time.Second))

// Seek moves playback to seconds. NaN seeks to the start; offsets beyond
// what a time.Duration holds are clamped before the player clamps them to
// the track duration.
func (s *Service) Seek(ctx context.Context, seconds float64) model.PlaybackSnapshot {
	switch {
	case math.IsNaN(seconds), seconds < 0:
		seconds = 0
	case seconds > maxSeekSeconds:
		seconds = maxSeekSeconds
	}
	s.player.Seek(ctx, time.Duration(seconds*float64(time.Second)))
	return s.player.Snapshot()
}

// SetVolume sets the playback volume.
func (s *Service) SetVolume(ctx context.Context, v float64) model.PlaybackSnapshot {
	s.player.SetVolume(ctx, v)
	return s.player.Snapshot()
}

// Playback returns the playback snapshot.
func (s *Service) Playback() model.PlaybackSnapshot {
	return s.player.Snapshot()
}

// StartGame starts or continues the session for player on a catalog track.
func (s *Service) StartGame(ctx context.Context, player, trackID string) (model.GameSnapshot, error) {
	player = strings.TrimSpace(player)
	if player == "" {
		return s.game.Snapshot(), ErrInvalidPlayer
	}
	t, err := s.catalog.ByID(trackID)
	if err != nil {
		return s.game.Snapshot(), err
	}
	if err := s.game.Start(ctx, player, t); err != nil {
		return s.game.Snapshot(), err
	}
	return s.game.Snapshot(), nil
}

// PauseGame freezes or unfreezes the session.
func (s *Service) PauseGame(ctx context.Context, paused bool) model.GameSnapshot {
	s.game.SetPaused(ctx, paused)
	return s.game.Snapshot()
}

// StopGame stops the session, keeping its score.
func (s *Service) StopGame(ctx context.Context) model.GameSnapshot {
	s.game.Stop(ctx)
	return s.game.Snapshot()
}

// Hit judges one player input.
func (s *Service) Hit(ctx context.Context) (model.HitResult, error) {
	return s.game.Hit(ctx)
}

// ResetGame discards the session.
func (s *Service) ResetGame(ctx context.Context) model.GameSnapshot {
	s.game.Reset(ctx)
	return s.game.Snapshot()
}

// Game returns the session snapshot.
func (s *Service) Game() model.GameSnapshot {
	return s.game.Snapshot()
}

// SubmitResult queues the stopped session's result for ranking. Each session
// is accepted once; a full queue forgets the submission so it can be retried.
func (s *Service) SubmitResult(ctx context.Context) (model.GameResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.GameResult{}, ErrNotStarted
	}

	r, err := s.game.Result()
	if err != nil {
		return model.GameResult{}, err
	}
	if s.deduper.SeenAndRecord(ctx, r.SessionID) {
		metrics.RecordResultDuplicate()
		s.logger.Debug(ctx, "duplicate result", logger.String("session", r.SessionID))
		return r, ErrDuplicateResult
	}
	if !s.queue.Enqueue(ctx, r) {
		s.deduper.Unrecord(ctx, r.SessionID)
		return r, ErrBackpressure
	}
	metrics.RecordResultSubmitted()
	s.logger.Info(ctx, "result submitted",
		logger.String("session", r.SessionID),
		logger.String("player", r.Player),
		logger.Int("score", r.Score),
	)
	return r, nil
}

// TopN returns the first n leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store.TopN(ctx, n)
}

// Rank returns a player's leaderboard entry.
func (s *Service) Rank(ctx context.Context, player string) (types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.Entry{}, ErrNotStarted
	}
	return s.store.Rank(ctx, player)
}

// Emotions lists the emotions a memory can carry.
func (s *Service) Emotions() []journal.Emotion {
	return journal.Emotions()
}

// AddMemory records a memory. A catalog track ID fills in a missing song
// or artist.
func (s *Service) AddMemory(ctx context.Context, d journal.Draft) (journal.Memory, error) {
	if id := strings.TrimSpace(d.TrackID); id != "" {
		t, err := s.catalog.ByID(id)
		if err != nil {
			return journal.Memory{}, err
		}
		if strings.TrimSpace(d.Song) == "" {
			d.Song = t.Name
		}
		if strings.TrimSpace(d.Artist) == "" {
			d.Artist = t.Artist
		}
	}
	m, err := s.journal.Add(ctx, d)
	if err != nil {
		return m, err
	}
	metrics.UpdateJournalMemories(s.journal.Len())
	return m, nil
}

// Memories returns the journal newest first, optionally one emotion only.
func (s *Service) Memories(emotion string) ([]journal.Memory, error) {
	if strings.TrimSpace(emotion) == "" {
		return s.journal.List(""), nil
	}
	e, err := journal.ParseEmotion(emotion)
	if err != nil {
		return nil, err
	}
	return s.journal.List(e), nil
}

// Memory returns one journal entry.
func (s *Service) Memory(id string) (journal.Memory, error) {
	return s.journal.Get(id)
}

// DeleteMemory removes one journal entry.
func (s *Service) DeleteMemory(ctx context.Context, id string) error {
	if err := s.journal.Delete(ctx, id); err != nil {
		return err
	}
	metrics.UpdateJournalMemories(s.journal.Len())
	return nil
}

// Genres lists the remix genres.
func (s *Service) Genres() []remix.Genre {
	return remix.Genres()
}

// SubmitRemix starts generating a beat from recording.
func (s *Service) SubmitRemix(ctx context.Context, genre string, recording []byte) (remix.Job, error) {
	return s.lab.Submit(ctx, strings.ToLower(strings.TrimSpace(genre)), recording)
}

// Remix returns one remix job.
func (s *Service) Remix(id string) (remix.Job, error) {
	return s.lab.Get(id)
}

// Remixes returns the remembered remix jobs, newest first.
func (s *Service) Remixes() []remix.Job {
	return s.lab.List()
}

// RemixMaxBytes returns the recording size cap.
func (s *Service) RemixMaxBytes() int64 {
	return s.lab.MaxBytes()
}

// GetStats summarises the service.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pb := s.player.Snapshot()
	stats := Stats{
		Started:        s.started,
		Workers:        s.workerCount,
		QueueCapacity:  s.queueSize,
		DedupeCapacity: s.dedupeSize,
		Tracks:         s.catalog.Len(),
		PlaybackStatus: pb.Status,
		PlaybackMode:   pb.Mode,
		GameState:      s.game.Snapshot().State,
		Memories:       s.journal.Len(),
		RemixesPending: s.lab.Pending(),
	}
	if !s.started {
		return stats
	}

	stats.QueueLength = s.queue.Len(ctx)
	stats.DedupeSize = s.deduper.Size()
	stats.Processed = s.pool.Processed()
	players, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Warn(ctx, "count players", logger.Error(err))
	}
	stats.Players = players
	metrics.UpdateLeaderboardPlayers(players)
	return stats
}
