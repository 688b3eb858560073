package loadtest

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid load test config")

// Defaults for a load test run.
const (
	DefaultBaseURL     = "http://localhost:8080"
	DefaultSessions    = 20
	DefaultPlayers     = 5
	DefaultHits        = 8
	DefaultHitInterval = 150 * time.Millisecond
	DefaultTopN        = 10
	DefaultWorkers     = 4
	DefaultTimeout     = 10 * time.Second
	DefaultSettle      = 5 * time.Second
)

// Config holds configuration for a load test run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Sessions    int           // Number of game sessions to play
	Players     int           // Number of distinct players the sessions rotate through
	Hits        int           // Hits attempted per session
	HitInterval time.Duration // Upper bound of the random pause between hits
	Mood        string        // Only play tracks of this mood when set
	TopN        int           // Leaderboard entries to fetch
	Workers     int           // Concurrent rank lookups
	Timeout     time.Duration // HTTP request timeout
	Settle      time.Duration // How long ranks may lag behind accepted results
	OutputFile  string        // Accepted results are written here when set
	Verbose     bool
}

// DefaultConfig returns a Config filled with the defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Sessions:    DefaultSessions,
		Players:     DefaultPlayers,
		Hits:        DefaultHits,
		HitInterval: DefaultHitInterval,
		TopN:        DefaultTopN,
		Workers:     DefaultWorkers,
		Timeout:     DefaultTimeout,
		Settle:      DefaultSettle,
	}
}

// Validate reports the first unusable field.
func (c Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case c.Sessions < 1:
		return fmt.Errorf("%w: sessions must be positive, got %d", ErrInvalidConfig, c.Sessions)
	case c.Players < 1:
		return fmt.Errorf("%w: players must be positive, got %d", ErrInvalidConfig, c.Players)
	case c.Hits < 0:
		return fmt.Errorf("%w: hits must not be negative, got %d", ErrInvalidConfig, c.Hits)
	case c.HitInterval < 0:
		return fmt.Errorf("%w: hit interval must not be negative", ErrInvalidConfig)
	case c.TopN < 1:
		return fmt.Errorf("%w: top must be positive, got %d", ErrInvalidConfig, c.TopN)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	SessionsPlayed     int
	SessionsAccepted   int
	SessionsFailed     int
	HitsLanded         int
	HitsMissed         int
	RankingsRetrieved  int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
