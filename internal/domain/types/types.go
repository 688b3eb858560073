// Package types contains common types used across the application
package types

import "github.com/okian/vibeverse/internal/domain/model"

// Entry represents a leaderboard entry
type Entry struct {
	Rank      int     `json:"rank"`
	Player    string  `json:"player"`
	Score     int     `json:"score"`
	Accuracy  float64 `json:"accuracy"`
	MaxCombo  int     `json:"max_combo"`
	TrackID   string  `json:"track_id"`
	SessionID string  `json:"session_id"`
}

// EntryFromResult builds the entry for a player's best result at rank.
func EntryFromResult(rank int, r model.GameResult) Entry {
	return Entry{
		Rank:      rank,
		Player:    r.Player,
		Score:     r.Score,
		Accuracy:  r.Accuracy,
		MaxCombo:  r.MaxCombo,
		TrackID:   r.TrackID,
		SessionID: r.SessionID,
	}
}
