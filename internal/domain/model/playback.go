package model

import (
	"encoding/json"
	"time"
)

// Status is the transport state of the playback controller.
type Status string

// Playback statuses.
const (
	StatusStopped Status = "stopped"
	StatusLoading Status = "loading"
	StatusPlaying Status = "playing"
	StatusPaused  Status = "paused"
)

// Mode tells which backend produces sound.
type Mode string

// Playback modes.
const (
	ModeReal        Mode = "real"
	ModeSynthesized Mode = "synthesized"
)

// PlaybackSnapshot is the observable state of the playback controller.
type PlaybackSnapshot struct {
	Track    *Track
	Status   Status
	Mode     Mode
	Position time.Duration
	Duration time.Duration
	Volume   float64
}

// MarshalJSON renders position and duration in seconds.
func (s PlaybackSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Track    *Track  `json:"track"`
		Status   Status  `json:"status"`
		Mode     Mode    `json:"mode"`
		Position float64 `json:"position"`
		Duration float64 `json:"duration"`
		Volume   float64 `json:"volume"`
	}{s.Track, s.Status, s.Mode, s.Position.Seconds(), s.Duration.Seconds(), s.Volume})
}
