package repository

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/vibeverse/internal/domain/model"
	"github.com/okian/vibeverse/internal/domain/types"
	"github.com/okian/vibeverse/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// The BST comparator's "less" means ranks earlier, so in-order traversal
// yields the leaderboard from best to worst. Subtree sizes give ranks in
// O(log n) expected time.

type node struct {
	player string
	score  int
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID).
func less(aScore int, aID string, bScore int, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, player string, score int, prio uint64) *node {
	if n == nil {
		return &node{player: player, score: score, prio: prio, size: 1}
	}
	if less(score, player, n.score, n.player) {
		n.left = insert(n.left, player, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, player, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, player string, score int) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && player == n.player:
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, player, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, player, score)
		}
	case less(score, player, n.score, n.player):
		n.left = deleteNode(n.left, player, score)
	default:
		n.right = deleteNode(n.right, player, score)
	}
	fix(n)
	return n
}

// countHigher returns the number of nodes with a score strictly above score.
func countHigher(n *node, score int) int {
	count := 0
	for n != nil {
		if n.score > score {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit results in rank order.
func collectTopN(n *node, limit int, byPlayer map[string]model.GameResult, out *[]model.GameResult) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, byPlayer, out)
	if len(*out) < limit {
		*out = append(*out, byPlayer[n.player])
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, byPlayer, out)
	}
}

// rankPrefix turns an ordered prefix of the leaderboard into entries,
// giving tied scores the same rank.
func rankPrefix(results []model.GameResult) []Entry {
	out := make([]Entry, len(results))
	for i, r := range results {
		rank := i + 1
		if i > 0 && r.Score == results[i-1].Score {
			rank = out[i-1].Rank
		}
		out[i] = types.EntryFromResult(rank, r)
	}
	return out
}

// TreapStore is an in-memory Store.
type TreapStore struct {
	mu       sync.RWMutex
	root     *node
	byPlayer map[string]model.GameResult

	metricsUpdateInterval time.Duration
	wg                    sync.WaitGroup
	stopChan              chan struct{}
	stopOnce              sync.Once
}

// NewTreapStore constructs a treap store with configuration options. The
// metrics updater runs until ctx is done or Close is called.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byPlayer:              make(map[string]model.GameResult),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateLeaderboardPlayers(0)
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the metrics updater.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// UpdateBest implements Store.UpdateBest in O(log n) expected time.
func (s *TreapStore) UpdateBest(_ context.Context, r model.GameResult) (bool, error) {
	if r.Player == "" {
		return false, ErrInvalidEntry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byPlayer[r.Player]; ok {
		if r.Score <= old.Score {
			return false, nil
		}
		s.root = deleteNode(s.root, old.Player, old.Score)
	}
	s.byPlayer[r.Player] = r
	s.root = insert(s.root, r.Player, r.Score, rand.Uint64())
	return true, nil
}

// Rank returns the entry for a player in O(log n) expected time.
func (s *TreapStore) Rank(_ context.Context, player string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byPlayer[player]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return types.EntryFromResult(countHigher(s.root, r.Score)+1, r), nil
}

// TopN returns the top n entries.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.GameResult, 0, min(n, len(s.byPlayer)))
	collectTopN(s.root, n, s.byPlayer, &out)
	return rankPrefix(out), nil
}

// Count returns the number of players.
func (s *TreapStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byPlayer), nil
}

func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				n, _ := s.Count(ctx)
				metrics.UpdateLeaderboardPlayers(n)
			}
		}
	}()
}
