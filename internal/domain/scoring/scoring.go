// Package scoring judges rhythm-game inputs against the timing window.
package scoring

import (
	"math"
)

// Default judging constants.
const (
	defaultWindowStart   = 80.0
	defaultWindowEnd     = 95.0
	defaultMaxPoints     = 100.0
	defaultMinPoints     = 10.0
	defaultPointsPerUnit = 10.0
	defaultMissPenalty   = 5.0
	accuracyPivot        = 50.0
	accuracyDivisor      = 10.0
	minAccuracy          = 0.0
	maxAccuracy          = 100.0
)

// Option applies a configuration option to the Judge.
type Option func(*Judge)

// WithWindow sets the hit window; the center becomes its midpoint.
func WithWindow(start, end float64) Option {
	return func(j *Judge) {
		if start >= 0 && end <= 100 && start < end {
			j.windowStart = start
			j.windowEnd = end
		}
	}
}

// WithMissPenalty sets the accuracy lost on a miss.
func WithMissPenalty(p float64) Option {
	return func(j *Judge) {
		if p >= 0 {
			j.missPenalty = p
		}
	}
}

// WithPoints sets the points of a perfect hit, the floor, and the loss per unit of timing error.
func WithPoints(maxPoints, minPoints, perUnit float64) Option {
	return func(j *Judge) {
		if maxPoints > 0 && minPoints >= 0 && minPoints <= maxPoints && perUnit >= 0 {
			j.maxPoints = maxPoints
			j.minPoints = minPoints
			j.pointsPerUnit = perUnit
		}
	}
}

// Judge computes points and accuracy for hits and misses. It is stateless and safe for concurrent use.
type Judge struct {
	windowStart   float64
	windowEnd     float64
	maxPoints     float64
	minPoints     float64
	pointsPerUnit float64
	missPenalty   float64
}

// NewJudge creates a judge with the reference window [80,95] and scoring rules.
func NewJudge(opts ...Option) *Judge {
	j := &Judge{
		windowStart:   defaultWindowStart,
		windowEnd:     defaultWindowEnd,
		maxPoints:     defaultMaxPoints,
		minPoints:     defaultMinPoints,
		pointsPerUnit: defaultPointsPerUnit,
		missPenalty:   defaultMissPenalty,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Window returns the inclusive hit window.
func (j *Judge) Window() (start, end float64) { return j.windowStart, j.windowEnd }

// Center returns the ideal hit position.
func (j *Judge) Center() float64 { return (j.windowStart + j.windowEnd) / 2 }

// InWindow reports whether a beat at pos can be hit.
func (j *Judge) InWindow(pos float64) bool {
	return pos >= j.windowStart && pos <= j.windowEnd
}

// Points returns the points for a hit at pos and its distance from the center.
func (j *Judge) Points(pos float64) (points, timingError float64) {
	timingError = math.Abs(j.Center() - pos)
	points = math.Max(j.maxPoints-timingError*j.pointsPerUnit, j.minPoints)
	return points, timingError
}

// AfterHit returns the accuracy after a hit worth points.
func (j *Judge) AfterHit(accuracy, points float64) float64 {
	return clamp(accuracy+(points-accuracyPivot)/accuracyDivisor, minAccuracy, maxAccuracy)
}

// AfterMiss returns the accuracy after an input with no beat in the window.
func (j *Judge) AfterMiss(accuracy float64) float64 {
	return clamp(accuracy-j.missPenalty, minAccuracy, maxAccuracy)
}

// Round converts points to the integer added to the score.
func Round(points float64) int {
	return int(math.Round(points))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
