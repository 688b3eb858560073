package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/vibeverse/internal/domain/model"
	"github.com/okian/vibeverse/internal/domain/types"
)

const defaultKeyPrefix = "vibeverse:leaderboard"

// Sorted-set members hold the negated score, so ascending order with the
// member name as tie-break matches the leaderboard order.
var updateBestScript = redis.NewScript(`
local cur = redis.call('ZSCORE', KEYS[1], ARGV[1])
if cur and tonumber(cur) <= tonumber(ARGV[2]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[1])
redis.call('HSET', KEYS[2], ARGV[1], ARGV[3])
return 1
`)

// RedisStore is a Store on a Redis sorted set plus a hash of best results.
type RedisStore struct {
	client    *redis.Client
	scoresKey string
	metaKey   string
}

// NewRedisClient connects to Redis and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// NewRedisStore creates a store on client. The store owns the client.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		scoresKey: defaultKeyPrefix + ":scores",
		metaKey:   defaultKeyPrefix + ":meta",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateBest atomically records r if it beats the stored best.
func (s *RedisStore) UpdateBest(ctx context.Context, r model.GameResult) (bool, error) {
	if r.Player == "" {
		return false, ErrInvalidEntry
	}
	meta, err := json.Marshal(r)
	if err != nil {
		return false, fmt.Errorf("encode result: %w", err)
	}
	changed, err := updateBestScript.Run(ctx, s.client,
		[]string{s.scoresKey, s.metaKey},
		r.Player, -r.Score, meta,
	).Int()
	if err != nil {
		return false, fmt.Errorf("update best for %s: %w", r.Player, err)
	}
	return changed == 1, nil
}

// Rank returns the entry for a player.
func (s *RedisStore) Rank(ctx context.Context, player string) (Entry, error) {
	stored, err := s.client.ZScore(ctx, s.scoresKey, player).Result()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("score of %s: %w", player, err)
	}
	higher, err := s.client.ZCount(ctx, s.scoresKey, "-inf", "("+strconv.FormatFloat(stored, 'f', -1, 64)).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("rank of %s: %w", player, err)
	}
	results, err := s.results(ctx, []redis.Z{{Score: stored, Member: player}})
	if err != nil {
		return Entry{}, err
	}
	return types.EntryFromResult(int(higher)+1, results[0]), nil
}

// TopN returns the top n entries.
func (s *RedisStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	zs, err := s.client.ZRangeWithScores(ctx, s.scoresKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("top %d: %w", n, err)
	}
	results, err := s.results(ctx, zs)
	if err != nil {
		return nil, err
	}
	return rankPrefix(results), nil
}

// Count returns the number of players.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, s.scoresKey).Result()
	if err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return int(n), nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// results joins sorted-set members with their stored best results. A
// missing or unreadable hash field degrades to player and score only.
func (s *RedisStore) results(ctx context.Context, zs []redis.Z) ([]model.GameResult, error) {
	if len(zs) == 0 {
		return nil, nil
	}
	players := make([]string, len(zs))
	for i, z := range zs {
		players[i] = fmt.Sprint(z.Member)
	}
	metas, err := s.client.HMGet(ctx, s.metaKey, players...).Result()
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}

	out := make([]model.GameResult, len(zs))
	for i, z := range zs {
		r := model.GameResult{Player: players[i]}
		if raw, ok := metas[i].(string); ok {
			_ = json.Unmarshal([]byte(raw), &r)
		}
		r.Player = players[i]
		r.Score = -int(z.Score)
		out[i] = r
	}
	return out, nil
}
