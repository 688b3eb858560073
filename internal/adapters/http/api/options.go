package api

import (
	"time"

	"github.com/okian/vibeverse/pkg/logger"
)

const (
	defaultMaxLimit     = 100
	defaultPushInterval = 250 * time.Millisecond
)

// Option configures a Server.
type Option func(*Server)

// WithMaxLeaderboardLimit caps GET /leaderboard?limit.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithAllowedOrigins sets the CORS and WebSocket origin allow-list. "*" allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithPushInterval sets the /ws snapshot period.
func WithPushInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.pushInterval = d
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
