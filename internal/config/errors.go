package config

import "errors"

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps failures reading dotenv, YAML or environment sources.
	ErrLoadConfig = errors.New("load config failed")
	// ErrUnknownBackend is joined with ErrInvalidConfig for an unsupported leaderboard_backend.
	ErrUnknownBackend = errors.New("unknown leaderboard backend")
)
