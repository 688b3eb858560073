package model

import (
	"encoding/json"
	"time"
)

// GameState is the lifecycle state of a rhythm session.
type GameState string

// Game states.
const (
	GameIdle    GameState = "idle"
	GameRunning GameState = "running"
)

// BeatEvent is one target moving across the lane from 0 to 100.
type BeatEvent struct {
	ID       int64   `json:"id"`
	Position float64 `json:"position"`
	Hit      bool    `json:"hit"`
}

// GameSnapshot is the observable state of a rhythm session. Beats are in spawn order.
type GameSnapshot struct {
	SessionID string
	Player    string
	TrackID   string
	BPM       float64
	State     GameState
	Paused    bool
	Score     int
	Combo     int
	MaxCombo  int
	Accuracy  float64
	Elapsed   time.Duration
	Hits      int
	Misses    int
	Beats     []BeatEvent
}

// MarshalJSON renders elapsed time in seconds.
func (s GameSnapshot) MarshalJSON() ([]byte, error) {
	beats := s.Beats
	if beats == nil {
		beats = []BeatEvent{}
	}
	return json.Marshal(struct {
		SessionID string      `json:"session_id"`
		Player    string      `json:"player"`
		TrackID   string      `json:"track_id"`
		BPM       float64     `json:"bpm"`
		State     GameState   `json:"state"`
		Paused    bool        `json:"paused"`
		Score     int         `json:"score"`
		Combo     int         `json:"combo"`
		MaxCombo  int         `json:"max_combo"`
		Accuracy  float64     `json:"accuracy"`
		Elapsed   float64     `json:"elapsed"`
		Hits      int         `json:"hits"`
		Misses    int         `json:"misses"`
		Beats     []BeatEvent `json:"beats"`
	}{
		s.SessionID, s.Player, s.TrackID, s.BPM, s.State, s.Paused, s.Score, s.Combo, s.MaxCombo,
		s.Accuracy, s.Elapsed.Seconds(), s.Hits, s.Misses, beats,
	})
}

// HitResult is the outcome of one player input.
type HitResult struct {
	Hit         bool    `json:"hit"`
	BeatID      int64   `json:"beat_id,omitempty"`
	TimingError float64 `json:"timing_error"`
	Points      float64 `json:"points"`
	Score       int     `json:"score"`
	Combo       int     `json:"combo"`
	Accuracy    float64 `json:"accuracy"`
}

// GameResult is the final tally of a session, submitted to the leaderboard.
type GameResult struct {
	SessionID  string    `json:"session_id"`
	Player     string    `json:"player"`
	TrackID    string    `json:"track_id"`
	Score      int       `json:"score"`
	Accuracy   float64   `json:"accuracy"`
	MaxCombo   int       `json:"max_combo"`
	FinishedAt time.Time `json:"finished_at"`
}
