package loadtest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/okian/vibeverse/internal/domain/types"
	"github.com/okian/vibeverse/pkg/logger"
)

// rankPollInterval spaces rank lookups while results are still being ranked.
const rankPollInterval = 50 * time.Millisecond

// retrieveRankings looks up the rank of every player concurrently. Results
// are ranked asynchronously, so each lookup retries until the player's best
// score shows up or settle passes.
func retrieveRankings(ctx context.Context, cfg *Config, c *client, best map[string]int, settle time.Duration, stats *Stats) (map[string]types.Entry, error) {
	log := logger.Named("loadtest")
	log.Info(ctx, "retrieving rankings", logger.Int("players", len(best)), logger.Int("workers", cfg.Workers))

	players := make(chan string, cfg.Workers*2)
	var (
		mu       sync.Mutex
		rankings = make(map[string]types.Entry, len(best))
		errs     []error
		wg       sync.WaitGroup
	)

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for player := range players {
				entry, err := awaitRank(ctx, c, player, best[player], settle)
				mu.Lock()
				if err != nil {
					errs = append(errs, fmt.Errorf("rank of %s: %w", player, err))
				} else {
					rankings[player] = entry
				}
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(players)
		for player := range best {
			select {
			case <-ctx.Done():
				return
			case players <- player:
			}
		}
	}()
	wg.Wait()

	stats.RankingsRetrieved = len(rankings)
	log.Info(ctx, "ranking retrieval completed",
		logger.Int("retrieved", len(rankings)),
		logger.Int("failed", len(errs)))

	if err := ctx.Err(); err != nil {
		return rankings, err
	}
	return rankings, errors.Join(errs...)
}

// awaitRank polls /rank until the entry carries want or settle elapses.
func awaitRank(ctx context.Context, c *client, player string, want int, settle time.Duration) (types.Entry, error) {
	deadline := time.Now().Add(settle)
	for {
		var entry types.Entry
		err := c.get(ctx, "/rank/"+url.PathEscape(player), &entry)
		var serr *StatusError
		switch {
		case err == nil && entry.Score == want:
			return entry, nil
		case err == nil:
			err = fmt.Errorf("score %d, want %d", entry.Score, want)
		case errors.As(err, &serr) && serr.Status == http.StatusNotFound:
		default:
			return types.Entry{}, err
		}
		if time.Now().After(deadline) {
			return types.Entry{}, err
		}
		if err := sleep(ctx, rankPollInterval); err != nil {
			return types.Entry{}, err
		}
	}
}

// getLeaderboard retrieves the top n entries.
func getLeaderboard(ctx context.Context, c *client, n int, stats *Stats) ([]types.Entry, error) {
	var board []types.Entry
	if err := c.get(ctx, fmt.Sprintf("/leaderboard?limit=%d", n), &board); err != nil {
		return nil, err
	}
	stats.LeaderboardEntries = len(board)
	logger.Named("loadtest").Info(ctx, "retrieved leaderboard", logger.Int("entries", len(board)))
	return board, nil
}
