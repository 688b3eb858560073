package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

// Set VIBE_TEST_REDIS_ADDR to run against a live Redis (6.2 or newer).
func TestRedisStore_Contract(t *testing.T) {
	addr := os.Getenv("VIBE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("VIBE_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, addr, "", 0)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	prefix := fmt.Sprintf("vibeverse-test:%d", time.Now().UnixNano())
	store := NewRedisStore(client, WithKeyPrefix(prefix))
	defer func() {
		_ = client.Del(ctx, prefix+":scores", prefix+":meta").Err()
		_ = store.Close()
	}()

	storeContract(t, store)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := NewRedisClient(ctx, "127.0.0.1:1", "", 0); err == nil {
		t.Error("expected an error for an unreachable address")
	}
}
