// Package synth holds the tone patterns of the synthesized playback backend.
//
// A track ID always maps to the same pattern, so the fallback of a given track
// sounds the same every time it is used.
package synth

import (
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Wave is an oscillator shape.
type Wave string

// Oscillator shapes.
const (
	Sine     Wave = "sine"
	Triangle Wave = "triangle"
	Square   Wave = "square"
	Sawtooth Wave = "sawtooth"
)

// ScaleLen is the number of pitches in every pattern.
const ScaleLen = 5

// Pattern is a repeating tone sequence.
type Pattern struct {
	Name  string
	Scale [ScaleLen]float64
	Wave  Wave
	// Tempo is the interval between tone onsets.
	Tempo time.Duration
	// Decay is how long each tone rings, independent of Tempo.
	Decay time.Duration
}

// Tone is one scheduled note.
type Tone struct {
	Frequency float64
	Wave      Wave
	Decay     time.Duration
	Gain      float64
}

var patterns = []Pattern{ //nolint:gochecknoglobals // fixed lookup table
	{Name: "pentatonic-drift", Scale: [ScaleLen]float64{261.63, 293.66, 329.63, 392.00, 440.00}, Wave: Sine, Tempo: 2000 * time.Millisecond, Decay: 800 * time.Millisecond},
	{Name: "minor-pulse", Scale: [ScaleLen]float64{220.00, 261.63, 293.66, 329.63, 392.00}, Wave: Triangle, Tempo: 1200 * time.Millisecond, Decay: 700 * time.Millisecond},
	{Name: "arcade-run", Scale: [ScaleLen]float64{523.25, 587.33, 659.25, 783.99, 880.00}, Wave: Square, Tempo: 300 * time.Millisecond, Decay: 500 * time.Millisecond},
	{Name: "low-saw", Scale: [ScaleLen]float64{110.00, 130.81, 146.83, 164.81, 196.00}, Wave: Sawtooth, Tempo: 600 * time.Millisecond, Decay: 600 * time.Millisecond},
	{Name: "dawn-bells", Scale: [ScaleLen]float64{392.00, 440.00, 493.88, 587.33, 659.25}, Wave: Sine, Tempo: 800 * time.Millisecond, Decay: 800 * time.Millisecond},
	{Name: "night-steps", Scale: [ScaleLen]float64{196.00, 233.08, 261.63, 293.66, 349.23}, Wave: Triangle, Tempo: 1500 * time.Millisecond, Decay: 600 * time.Millisecond},
}

// Patterns returns a copy of the pattern table.
func Patterns() []Pattern {
	out := make([]Pattern, len(patterns))
	copy(out, patterns)
	return out
}

// ForTrack selects the pattern of a track ID.
func ForTrack(trackID string) Pattern {
	return patterns[xxhash.Sum64String(trackID)%uint64(len(patterns))]
}

// Tone returns the step-th tone of the pattern, cycling through the scale.
func (p Pattern) Tone(step int, gain float64) Tone {
	idx := step % ScaleLen
	if idx < 0 {
		idx += ScaleLen
	}
	return Tone{Frequency: p.Scale[idx], Wave: p.Wave, Decay: p.Decay, Gain: gain}
}

// Oscillate returns the wave value in [-1,1] at phase, measured in cycles.
func Oscillate(w Wave, phase float64) float64 {
	_, frac := math.Modf(phase)
	if frac < 0 {
		frac++
	}
	switch w {
	case Square:
		if frac < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		return 2*frac - 1
	case Triangle:
		return 1 - 4*math.Abs(frac-0.5)
	default:
		return math.Sin(2 * math.Pi * frac)
	}
}
