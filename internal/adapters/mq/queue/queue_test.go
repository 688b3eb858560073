package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/vibeverse/internal/domain/model"
)

func result(session, player string, score int) model.GameResult {
	return model.GameResult{SessionID: session, Player: player, TrackID: "chill_1", Score: score}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if !q.Enqueue(ctx, result("s1", "ana", 100)) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.SessionID != "s1" || got.Score != 100 {
		t.Errorf("expected s1 with 100, got %+v", got)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2), WithBufferSize(1))
	ctx := context.Background()

	if !q.Enqueue(ctx, result("s1", "ana", 1)) || !q.Enqueue(ctx, result("s2", "bo", 2)) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, result("s3", "cy", 3)) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, result("s1", "ana", 1)) {
		t.Error("expected enqueue to fail with a cancelled context")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	producers, perProducer := 10, 100

	var wg sync.WaitGroup
	for i := range producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range perProducer {
				r := result(fmt.Sprintf("s%d_%d", id, j), fmt.Sprintf("p%d", id), j)
				for !q.Enqueue(ctx, r) {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}

	consumed := make(chan string, producers*perProducer)
	var consumers sync.WaitGroup
	for range producers {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for r := range q.Dequeue(ctx) {
				consumed <- r.SessionID
			}
		}()
	}

	wg.Wait()
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	consumers.Wait()

	if n := len(consumed); n != producers*perProducer {
		t.Errorf("expected %d results, got %d", producers*perProducer, n)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, result("s1", "ana", 1)) || !q.Enqueue(ctx, result("s2", "bo", 2)) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, result("s3", "cy", 3)) {
		t.Error("expected enqueue to fail after closing")
	}

	drained := 0
	timeout := time.After(time.Second)
	out := q.Dequeue(ctx)
	for {
		select {
		case _, ok := <-out:
			if !ok {
				if drained != 2 {
					t.Errorf("expected 2 drained results, got %d", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained++
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}
