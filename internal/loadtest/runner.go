package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/vibeverse/internal/domain/model"
	"github.com/okian/vibeverse/internal/domain/types"
	"github.com/okian/vibeverse/pkg/logger"
)

const (
	topPerformers       = 10
	directoryPermission = 0750
	filePermission      = 0600
)

// Run plays sessions against a running service and verifies that the
// leaderboard reflects every accepted result.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Named("loadtest")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting vibeverse load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sessions", cfg.Sessions),
		logger.Int("players", cfg.Players),
		logger.Int("hits", cfg.Hits),
		logger.Duration("hitInterval", cfg.HitInterval),
		logger.Int("topN", cfg.TopN),
		logger.Int("workers", cfg.Workers))

	c := newClient(cfg.BaseURL, cfg.Timeout)

	if err := checkServiceHealth(ctx, c); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	tracks, err := fetchTracks(ctx, c, cfg.Mood)
	if err != nil {
		return stats, fmt.Errorf("track listing failed: %w", err)
	}

	results, err := playSessions(ctx, &cfg, c, generatePlayers(cfg.Players), tracks, stats)
	if err != nil {
		return stats, fmt.Errorf("session play failed: %w", err)
	}
	if len(results) == 0 {
		return stats, errors.New("no session was accepted")
	}
	best := bestScores(results)

	// Wait for every best score to be ranked, then read a consistent view.
	if _, err := retrieveRankings(ctx, &cfg, c, best, cfg.Settle, stats); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrVerification, err)
	}
	rankings, err := retrieveRankings(ctx, &cfg, c, best, 0, stats)
	if err != nil {
		return stats, fmt.Errorf("%w: %w", ErrVerification, err)
	}
	board, err := getLeaderboard(ctx, c, cfg.TopN, stats)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	if err := errors.Join(verifyLeaderboard(board), verifyRankings(best, rankings, board)); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrVerification, err)
	}
	log.Info(ctx, "leaderboard consistency verified")

	if cfg.OutputFile != "" {
		if err := saveResults(ctx, cfg.OutputFile, results); err != nil {
			log.Warn(ctx, "failed to save results", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logFinalStats(ctx, stats)
	displayTopPerformers(ctx, sortedRankings(rankings), cfg.Verbose)
	return stats, nil
}

// checkServiceHealth verifies the service answers /healthz.
func checkServiceHealth(ctx context.Context, c *client) error {
	return c.get(ctx, "/healthz", nil)
}

// saveResults writes the accepted results as a JSON array.
func saveResults(ctx context.Context, filename string, results []model.GameResult) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), filePermission); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	logger.Named("loadtest").Info(ctx, "results saved to file", logger.String("filename", filename))
	return nil
}

func logFinalStats(ctx context.Context, stats *Stats) {
	var hitRate, sessionsPerSecond float64
	if n := stats.HitsLanded + stats.HitsMissed; n > 0 {
		hitRate = float64(stats.HitsLanded) / float64(n) * 100
	}
	if stats.Duration > 0 {
		sessionsPerSecond = float64(stats.SessionsPlayed) / stats.Duration.Seconds()
	}

	logger.Named("loadtest").Info(ctx, "final statistics",
		logger.Int("sessionsPlayed", stats.SessionsPlayed),
		logger.Int("sessionsAccepted", stats.SessionsAccepted),
		logger.Int("sessionsFailed", stats.SessionsFailed),
		logger.Int("hitsLanded", stats.HitsLanded),
		logger.Int("hitsMissed", stats.HitsMissed),
		logger.Int("rankingsRetrieved", stats.RankingsRetrieved),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("hitRate", hitRate),
		logger.Float64("sessionsPerSecond", sessionsPerSecond))
}

// displayTopPerformers logs the best players of this run.
func displayTopPerformers(ctx context.Context, sorted []types.Entry, verbose bool) {
	n := min(len(sorted), topPerformers)
	if verbose {
		n = len(sorted)
	}
	log := logger.Named("loadtest")
	for _, e := range sorted[:n] {
		log.Info(ctx, "top performer",
			logger.Int("rank", e.Rank),
			logger.String("player", e.Player),
			logger.Int("score", e.Score),
			logger.Float64("accuracy", e.Accuracy),
			logger.String("track", e.TrackID))
	}
}
