package repository

import "time"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// RedisOption applies a configuration option to the RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces the Redis keys of the leaderboard.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.scoresKey = prefix + ":scores"
			s.metaKey = prefix + ":meta"
		}
	}
}
