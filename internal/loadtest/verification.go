package loadtest

import (
	"errors"
	"fmt"
	"sort"

	"github.com/okian/vibeverse/internal/domain/types"
)

// ErrVerification wraps every consistency failure found after a run.
var ErrVerification = errors.New("leaderboard verification failed")

// verifyLeaderboard checks the ordering and competition ranks of board.
// Scores descend, ties are ordered by player, and tied entries share the
// rank of the first of them.
func verifyLeaderboard(board []types.Entry) error {
	var errs []error
	for i, e := range board {
		if i == 0 {
			if e.Rank != 1 {
				errs = append(errs, fmt.Errorf("entry 0 (%s) has rank %d, want 1", e.Player, e.Rank))
			}
			continue
		}
		prev := board[i-1]
		switch {
		case e.Score > prev.Score:
			errs = append(errs, fmt.Errorf("entry %d (%s, %d) outscores entry %d (%s, %d)",
				i, e.Player, e.Score, i-1, prev.Player, prev.Score))
		case e.Score == prev.Score && e.Player <= prev.Player:
			errs = append(errs, fmt.Errorf("tied entries %d (%s) and %d (%s) are not ordered by player",
				i-1, prev.Player, i, e.Player))
		case e.Score == prev.Score && e.Rank != prev.Rank:
			errs = append(errs, fmt.Errorf("tied entry %d (%s) has rank %d, want %d", i, e.Player, e.Rank, prev.Rank))
		case e.Score < prev.Score && e.Rank != i+1:
			errs = append(errs, fmt.Errorf("entry %d (%s) has rank %d, want %d", i, e.Player, e.Rank, i+1))
		}
	}
	return errors.Join(errs...)
}

// verifyRankings cross-checks per-player ranks against the leaderboard.
// Players of this run that made the board must appear with the rank their
// /rank lookup reported, and ranks must agree with relative scores.
func verifyRankings(best map[string]int, rankings map[string]types.Entry, board []types.Entry) error {
	var errs []error
	for player, want := range best {
		e, ok := rankings[player]
		if !ok {
			errs = append(errs, fmt.Errorf("no rank for %s", player))
			continue
		}
		if e.Score != want {
			errs = append(errs, fmt.Errorf("%s ranked with score %d, want %d", player, e.Score, want))
		}
	}

	onBoard := make(map[string]types.Entry, len(board))
	for _, e := range board {
		onBoard[e.Player] = e
	}
	for player, ranked := range rankings {
		if e, ok := onBoard[player]; ok && e.Rank != ranked.Rank {
			errs = append(errs, fmt.Errorf("%s has rank %d on the leaderboard but %d by lookup", player, e.Rank, ranked.Rank))
		}
	}

	sorted := sortedRankings(rankings)
	for i := 1; i < len(sorted); i++ {
		a, b := sorted[i-1], sorted[i]
		if a.Score > b.Score && a.Rank >= b.Rank {
			errs = append(errs, fmt.Errorf("%s (%d) is not ranked above %s (%d)", a.Player, a.Score, b.Player, b.Score))
		}
		if a.Score == b.Score && a.Rank != b.Rank {
			errs = append(errs, fmt.Errorf("%s and %s share score %d but not rank", a.Player, b.Player, a.Score))
		}
	}
	return errors.Join(errs...)
}

// sortedRankings returns entries in leaderboard order.
func sortedRankings(rankings map[string]types.Entry) []types.Entry {
	out := make([]types.Entry, 0, len(rankings))
	for _, e := range rankings {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Player < out[j].Player
	})
	return out
}
