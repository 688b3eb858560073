// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Durations are stored as integer milliseconds and exposed through accessors.
// - Provide New(ctx) initializer to build a Config with defaults.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Leaderboard backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile enables rotated file logging in addition to stdout.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CORSAllowedOrigins lists origins the browser UI may call from.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// AudioEnabled opens the local output device. When false playback is always synthesized and silent.
	AudioEnabled bool `koanf:"audio_enabled"`

	// SampleRate of the output device in Hz.
	SampleRate int `koanf:"sample_rate"`

	// ReadyTimeoutMS bounds how long a real source may take to become playable.
	ReadyTimeoutMS int `koanf:"ready_timeout_ms"`

	// PlaybackTickMS is the position refresh interval of the playback controller.
	PlaybackTickMS int `koanf:"playback_tick_ms"`

	// DefaultVolume is the initial controller volume in [0,1].
	DefaultVolume float64 `koanf:"default_volume"`

	// FetchMaxBytes caps the size of a fetched audio source.
	FetchMaxBytes int64 `koanf:"fetch_max_bytes"`

	// GameTickMS, BeatStep, HitWindowStart/End and MissPenalty tune the rhythm game.
	GameTickMS     int     `koanf:"game_tick_ms"`
	BeatStep       float64 `koanf:"beat_step"`
	HitWindowStart float64 `koanf:"hit_window_start"`
	HitWindowEnd   float64 `koanf:"hit_window_end"`
	MissPenalty    float64 `koanf:"miss_penalty"`

	// EventQueueSize bounds the in-memory result queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of leaderboard workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the submitted-session cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// LeaderboardBackend selects the store: memory or redis.
	LeaderboardBackend string `koanf:"leaderboard_backend"`
	RedisAddr          string `koanf:"redis_addr"`
	RedisPassword      string `koanf:"redis_password"`
	RedisDB            int    `koanf:"redis_db"`

	// Minio* configure s3:// track sources. An empty endpoint disables them.
	MinioEndpoint  string `koanf:"minio_endpoint"`
	MinioAccessKey string `koanf:"minio_access_key"`
	MinioSecretKey string `koanf:"minio_secret_key"`
	MinioUseSSL    bool   `koanf:"minio_use_ssl"`

	// CatalogFile replaces the embedded track catalog when set.
	CatalogFile string `koanf:"catalog_file"`

	// WSPushIntervalMS is the snapshot push period of /ws.
	WSPushIntervalMS int `koanf:"ws_push_interval_ms"`

	// JournalMaxEntries caps the memory journal; the oldest memories are dropped.
	JournalMaxEntries int `koanf:"journal_max_entries"`

	// RemixDelayMS is the generation time of a remix, RemixMaxBytes caps an
	// uploaded recording and RemixMaxJobs caps the remembered jobs.
	RemixDelayMS  int   `koanf:"remix_delay_ms"`
	RemixMaxBytes int64 `koanf:"remix_max_bytes"`
	RemixMaxJobs  int   `koanf:"remix_max_jobs"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":8080",
		CORSAllowedOrigins:  []string{"*"},
		AudioEnabled:        true,
		SampleRate:          44100,
		ReadyTimeoutMS:      5000,
		PlaybackTickMS:      100,
		DefaultVolume:       0.8,
		FetchMaxBytes:       64 << 20,
		GameTickMS:          50,
		BeatStep:            2,
		HitWindowStart:      80,
		HitWindowEnd:        95,
		MissPenalty:         5,
		EventQueueSize:      10_000,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          100_000,
		MaxLeaderboardLimit: 100,
		LeaderboardBackend:  BackendMemory,
		RedisAddr:           "localhost:6379",
		MinioUseSSL:         true,
		WSPushIntervalMS:    250,
		JournalMaxEntries:   1_000,
		RemixDelayMS:        3000,
		RemixMaxBytes:       10 << 20,
		RemixMaxJobs:        100,
	}
}

// Validate checks value ranges. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample_rate must be positive", ErrInvalidConfig)
	case c.ReadyTimeoutMS <= 0, c.PlaybackTickMS <= 0, c.GameTickMS <= 0, c.WSPushIntervalMS <= 0:
		return fmt.Errorf("%w: intervals must be positive", ErrInvalidConfig)
	case c.DefaultVolume < 0 || c.DefaultVolume > 1:
		return fmt.Errorf("%w: default_volume must be within [0,1]", ErrInvalidConfig)
	case c.BeatStep <= 0:
		return fmt.Errorf("%w: beat_step must be positive", ErrInvalidConfig)
	case c.HitWindowStart < 0 || c.HitWindowEnd > 100 || c.HitWindowStart >= c.HitWindowEnd:
		return fmt.Errorf("%w: hit window must satisfy 0 <= start < end <= 100", ErrInvalidConfig)
	case c.EventQueueSize <= 0 || c.WorkerCount <= 0 || c.DedupeSize <= 0:
		return fmt.Errorf("%w: queue_size, worker_count and dedupe_size must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit <= 0:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.JournalMaxEntries <= 0 || c.RemixDelayMS <= 0 || c.RemixMaxBytes <= 0 || c.RemixMaxJobs <= 0:
		return fmt.Errorf("%w: journal and remix limits must be positive", ErrInvalidConfig)
	}
	switch c.LeaderboardBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr is required for the redis backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: %w %q", ErrInvalidConfig, ErrUnknownBackend, c.LeaderboardBackend)
	}
	return nil
}

// ReadyTimeout returns the readiness wait of the real playback backend.
func (c *Config) ReadyTimeout() time.Duration { return ms(c.ReadyTimeoutMS) }

// PlaybackTick returns the playback position refresh interval.
func (c *Config) PlaybackTick() time.Duration { return ms(c.PlaybackTickMS) }

// GameTick returns the rhythm game advance interval.
func (c *Config) GameTick() time.Duration { return ms(c.GameTickMS) }

// WSPushInterval returns the WebSocket snapshot period.
func (c *Config) WSPushInterval() time.Duration { return ms(c.WSPushIntervalMS) }

// RemixDelay returns the simulated remix generation time.
func (c *Config) RemixDelay() time.Duration { return ms(c.RemixDelayMS) }

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
