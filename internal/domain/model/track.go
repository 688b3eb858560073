// Package model contains domain models passed between layers.
package model

import "time"

// Track is one catalog entry. It is immutable once selected for playback.
type Track struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Artist string `json:"artist" yaml:"artist"`
	Album  string `json:"album" yaml:"album"`
	Genre  string `json:"genre" yaml:"genre"`
	Mood   string `json:"mood" yaml:"mood"`
	// URL locates the real audio source: http(s)://, s3://bucket/key, file:// or a path.
	URL   string `json:"url" yaml:"url"`
	Image string `json:"image,omitempty" yaml:"image"`
	// DurationSec is the nominal length in seconds.
	DurationSec int `json:"duration" yaml:"duration"`
	// BPM drives the rhythm game spawn cadence; 0 when unknown.
	BPM float64 `json:"bpm" yaml:"bpm"`
}

// NominalDuration returns the catalog length of the track.
func (t Track) NominalDuration() time.Duration {
	if t.DurationSec <= 0 {
		return 0
	}
	return time.Duration(t.DurationSec) * time.Second
}
