package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
)

func seededStore(b *testing.B, players int) *TreapStore {
	b.Helper()
	ctx := context.Background()
	s := NewTreapStore(ctx)
	b.Cleanup(func() { _ = s.Close() })
	for i := range players {
		if _, err := s.UpdateBest(ctx, res(fmt.Sprintf("p%06d", i), rand.IntN(100_000))); err != nil {
			b.Fatal(err)
		}
	}
	return s
}

func BenchmarkTreapStore_UpdateBest(b *testing.B) {
	s := seededStore(b, 10_000)
	ctx := context.Background()
	b.ResetTimer()
	for i := range b.N {
		_, _ = s.UpdateBest(ctx, res(fmt.Sprintf("p%06d", i%20_000), rand.IntN(200_000)))
	}
}

func BenchmarkTreapStore_Rank(b *testing.B) {
	s := seededStore(b, 10_000)
	ctx := context.Background()
	b.ResetTimer()
	for i := range b.N {
		_, _ = s.Rank(ctx, fmt.Sprintf("p%06d", i%10_000))
	}
}

func BenchmarkTreapStore_TopN(b *testing.B) {
	s := seededStore(b, 10_000)
	ctx := context.Background()
	b.ResetTimer()
	for range b.N {
		_, _ = s.TopN(ctx, 100)
	}
}
