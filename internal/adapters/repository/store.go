// Package repository keeps each player's best game result, ranked.
package repository

import (
	"context"

	"github.com/okian/vibeverse/internal/domain/model"
	"github.com/okian/vibeverse/internal/domain/types"
)

// Entry represents a leaderboard row.
type Entry = types.Entry

// Store provides read/write access to the ranking state.
//
// Ordering is score desc, then player asc. Players with equal scores share
// a rank: rank is one plus the number of players with a strictly higher score.
type Store interface {
	// UpdateBest records r if it beats the player's current best.
	// Returns true if the store changed.
	UpdateBest(ctx context.Context, r model.GameResult) (bool, error)

	// Rank returns the current entry for a player.
	// Returns ErrNotFound if the player is unknown.
	Rank(ctx context.Context, player string) (Entry, error)

	// TopN returns the first n entries. Returns ErrInvalidLimit when n < 1.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of players on the leaderboard.
	Count(ctx context.Context) (int, error)

	// Close releases background resources.
	Close() error
}
