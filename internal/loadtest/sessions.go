package loadtest

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/okian/vibeverse/internal/domain/model"
	"github.com/okian/vibeverse/pkg/logger"
)

// playerPrefix marks players created by a load test run.
const playerPrefix = "load-"

type startRequest struct {
	Player  string `json:"player"`
	TrackID string `json:"track_id"`
}

type submitResponse struct {
	Status string           `json:"status"`
	Result model.GameResult `json:"result"`
}

// generatePlayers returns n unique player names.
func generatePlayers(n int) []string {
	players := make([]string, n)
	for i := range players {
		players[i] = playerPrefix + uuid.NewString()[:8]
	}
	return players
}

// fetchTracks lists the playable tracks, optionally for one mood.
func fetchTracks(ctx context.Context, c *client, mood string) ([]model.Track, error) {
	path := "/tracks"
	if mood != "" {
		path += "?mood=" + url.QueryEscape(mood)
	}
	var tracks []model.Track
	if err := c.get(ctx, path, &tracks); err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("no tracks available for mood %q", mood)
	}
	return tracks, nil
}

// playSessions plays cfg.Sessions sessions one after another. The service
// runs a single game, so sessions cannot overlap. It returns every accepted
// result in submission order.
func playSessions(ctx context.Context, cfg *Config, c *client, players []string, tracks []model.Track, stats *Stats) ([]model.GameResult, error) {
	log := logger.Named("loadtest")
	log.Info(ctx, "playing sessions",
		logger.Int("sessions", cfg.Sessions),
		logger.Int("players", len(players)),
		logger.Int("tracks", len(tracks)))

	results := make([]model.GameResult, 0, cfg.Sessions)
	for i := 0; i < cfg.Sessions; i++ {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("context cancelled while playing sessions: %w", err)
		}
		player := players[i%len(players)]
		track := tracks[rand.IntN(len(tracks))]

		stats.SessionsPlayed++
		res, err := playSession(ctx, cfg, c, player, track.ID, stats)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return results, err
			}
			stats.SessionsFailed++
			log.Warn(ctx, "session failed",
				logger.String("player", player),
				logger.String("track", track.ID),
				logger.Error(err))
			continue
		}
		stats.SessionsAccepted++
		results = append(results, res)

		if cfg.Verbose {
			log.Info(ctx, "session accepted",
				logger.String("player", res.Player),
				logger.String("track", res.TrackID),
				logger.Int("score", res.Score),
				logger.Float64("accuracy", res.Accuracy))
		}
	}
	return results, nil
}

// playSession runs reset, start, a burst of hits, stop and submit.
func playSession(ctx context.Context, cfg *Config, c *client, player, trackID string, stats *Stats) (model.GameResult, error) {
	if err := c.post(ctx, "/game/reset", nil, http.StatusOK, nil); err != nil {
		return model.GameResult{}, err
	}
	if err := c.post(ctx, "/game/start", startRequest{Player: player, TrackID: trackID}, http.StatusOK, nil); err != nil {
		return model.GameResult{}, err
	}

	for j := 0; j < cfg.Hits; j++ {
		if err := sleep(ctx, jitter(cfg.HitInterval)); err != nil {
			return model.GameResult{}, err
		}
		var hit model.HitResult
		if err := c.post(ctx, "/game/hit", nil, http.StatusOK, &hit); err != nil {
			return model.GameResult{}, err
		}
		if hit.Hit {
			stats.HitsLanded++
		} else {
			stats.HitsMissed++
		}
	}

	if err := c.post(ctx, "/game/stop", nil, http.StatusOK, nil); err != nil {
		return model.GameResult{}, err
	}
	var ack submitResponse
	if err := c.post(ctx, "/game/submit", nil, http.StatusAccepted, &ack); err != nil {
		return model.GameResult{}, err
	}
	if ack.Result.Player != player {
		return model.GameResult{}, fmt.Errorf("submitted result belongs to %q, want %q", ack.Result.Player, player)
	}
	return ack.Result, nil
}

// bestScores folds results into the best score per player.
func bestScores(results []model.GameResult) map[string]int {
	best := make(map[string]int)
	for _, r := range results {
		if old, ok := best[r.Player]; !ok || r.Score > old {
			best[r.Player] = r.Score
		}
	}
	return best
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return rand.N(d) + 1
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
