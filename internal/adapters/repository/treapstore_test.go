package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/okian/vibeverse/internal/domain/model"
)

func res(player string, score int) model.GameResult {
	return model.GameResult{
		SessionID: "s-" + player + fmt.Sprint(score),
		Player:    player,
		TrackID:   "hype_1",
		Score:     score,
		Accuracy:  90,
		MaxCombo:  score / 10,
	}
}

func mustUpdate(t *testing.T, s Store, r model.GameResult, want bool) {
	t.Helper()
	updated, err := s.UpdateBest(context.Background(), r)
	if err != nil {
		t.Fatalf("UpdateBest(%s, %d): unexpected error: %v", r.Player, r.Score, err)
	}
	if updated != want {
		t.Errorf("UpdateBest(%s, %d): expected updated=%v, got %v", r.Player, r.Score, want, updated)
	}
}

func mustCount(t *testing.T, s Store, want int) {
	t.Helper()
	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != want {
		t.Errorf("expected count %d, got %d", want, n)
	}
}

// storeContract exercises the behaviour every Store shares.
func storeContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		mustCount(t, s, 0)
		entries, err := s.TopN(ctx, 5)
		if err != nil {
			t.Fatalf("TopN: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("expected no entries, got %d", len(entries))
		}
		if _, err := s.Rank(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		for _, n := range []int{0, -1} {
			if _, err := s.TopN(ctx, n); !errors.Is(err, ErrInvalidLimit) {
				t.Errorf("TopN(%d): expected ErrInvalidLimit, got %v", n, err)
			}
		}
		if _, err := s.UpdateBest(ctx, model.GameResult{Score: 10}); !errors.Is(err, ErrInvalidEntry) {
			t.Errorf("expected ErrInvalidEntry, got %v", err)
		}
	})

	t.Run("best result wins", func(t *testing.T) {
		mustUpdate(t, s, res("ana", 500), true)
		mustUpdate(t, s, res("ana", 400), false)
		mustUpdate(t, s, res("ana", 500), false)
		mustUpdate(t, s, res("ana", 650), true)

		e, err := s.Rank(ctx, "ana")
		if err != nil {
			t.Fatalf("Rank: %v", err)
		}
		if e.Score != 650 || e.Rank != 1 || e.SessionID != "s-ana650" || e.TrackID != "hype_1" {
			t.Errorf("unexpected entry %+v", e)
		}
		mustCount(t, s, 1)
	})

	t.Run("ordering and ties", func(t *testing.T) {
		mustUpdate(t, s, res("cy", 300), true)
		mustUpdate(t, s, res("bo", 300), true)
		mustUpdate(t, s, res("di", 900), true)
		mustUpdate(t, s, res("ed", 100), true)

		entries, err := s.TopN(ctx, 10)
		if err != nil {
			t.Fatalf("TopN: %v", err)
		}
		wantPlayers := []string{"di", "ana", "bo", "cy", "ed"}
		wantRanks := []int{1, 2, 3, 3, 5}
		if len(entries) != len(wantPlayers) {
			t.Fatalf("expected %d entries, got %d", len(wantPlayers), len(entries))
		}
		for i, e := range entries {
			if e.Player != wantPlayers[i] || e.Rank != wantRanks[i] {
				t.Errorf("position %d: expected %s rank %d, got %s rank %d", i, wantPlayers[i], wantRanks[i], e.Player, e.Rank)
			}
		}

		top2, err := s.TopN(ctx, 2)
		if err != nil {
			t.Fatalf("TopN(2): %v", err)
		}
		if len(top2) != 2 || top2[1].Player != "ana" {
			t.Errorf("unexpected top 2: %+v", top2)
		}

		for player, rank := range map[string]int{"di": 1, "bo": 3, "cy": 3, "ed": 5} {
			e, err := s.Rank(ctx, player)
			if err != nil {
				t.Fatalf("Rank(%s): %v", player, err)
			}
			if e.Rank != rank {
				t.Errorf("Rank(%s): expected %d, got %d", player, rank, e.Rank)
			}
		}
		mustCount(t, s, 5)
	})
}

func TestTreapStore_Contract(t *testing.T) {
	store := NewTreapStore(context.Background())
	defer store.Close()
	storeContract(t, store)
}

func TestTreapStore_RankCorrectnessUnderStress(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	r := rand.New(rand.NewPCG(7, 11))
	best := map[string]int{}
	for range 5000 {
		player := fmt.Sprintf("p%03d", r.IntN(300))
		score := r.IntN(2000)
		want := score > best[player] || !contains(best, player)
		mustUpdate(t, store, res(player, score), want)
		if want {
			best[player] = score
		}
	}

	type row struct {
		player string
		score  int
	}
	rows := make([]row, 0, len(best))
	for p, s := range best {
		rows = append(rows, row{p, s})
	}
	sort.Slice(rows, func(i, j int) bool { return less(rows[i].score, rows[i].player, rows[j].score, rows[j].player) })

	entries, err := store.TopN(ctx, len(rows)+10)
	if err != nil {
		t.Fatalf("TopN: %v", err)
	}
	if len(entries) != len(rows) {
		t.Fatalf("expected %d entries, got %d", len(rows), len(entries))
	}
	for i, e := range entries {
		if e.Player != rows[i].player || e.Score != rows[i].score {
			t.Fatalf("position %d: expected %s/%d, got %s/%d", i, rows[i].player, rows[i].score, e.Player, e.Score)
		}
		ranked, err := store.Rank(ctx, e.Player)
		if err != nil {
			t.Fatalf("Rank(%s): %v", e.Player, err)
		}
		if ranked.Rank != e.Rank {
			t.Errorf("Rank(%s) = %d, TopN says %d", e.Player, ranked.Rank, e.Rank)
		}
	}
	if nsize(store.root) != len(rows) {
		t.Errorf("tree size %d, expected %d", nsize(store.root), len(rows))
	}
}

func contains(m map[string]int, k string) bool {
	_, ok := m[k]
	return ok
}

func TestTreapStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()
	goroutines, updates := 10, 100

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range updates {
				if _, err := store.UpdateBest(ctx, res(fmt.Sprintf("p%d_%d", id, j), 50+j)); err != nil {
					t.Errorf("goroutine %d: unexpected error: %v", id, err)
				}
				_, _ = store.TopN(ctx, 5)
			}
		}(i)
	}
	wg.Wait()

	mustCount(t, store, goroutines*updates)
	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("TopN: %v", err)
	}
	for i := 0; i < len(entries)-1; i++ {
		if entries[i].Score < entries[i+1].Score {
			t.Errorf("entries not in descending order: %d < %d", entries[i].Score, entries[i+1].Score)
		}
	}
}

func TestTreapStore_CloseBehavior(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx, WithMetricsUpdateInterval(time.Millisecond))
	mustUpdate(t, store, res("ana", 100), true)
	time.Sleep(5 * time.Millisecond)

	if err := store.Close(); err != nil {
		t.Errorf("Close returned error: %v", err)
	}
	mustUpdate(t, store, res("bo", 200), true)
	if e, err := store.Rank(ctx, "ana"); err != nil || e.Rank != 2 {
		t.Errorf("expected ana at rank 2 after close, got %+v, %v", e, err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close returned error: %v", err)
	}
}

func TestTreapStore_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewTreapStore(ctx, WithMetricsUpdateInterval(time.Millisecond))
	cancel()

	done := make(chan struct{})
	go func() {
		_ = store.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("metrics updater did not stop after cancellation")
	}
}
