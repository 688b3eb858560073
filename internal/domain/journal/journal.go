// Package journal keeps personal memories tied to songs, newest first.
package journal

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/okian/vibeverse/internal/clock"
	"github.com/okian/vibeverse/pkg/logger"
)

// Emotion tags a memory.
type Emotion string

// Emotions a memory can carry.
const (
	Joy        Emotion = "joy"
	Love       Emotion = "love"
	Pride      Emotion = "pride"
	Nostalgia  Emotion = "nostalgia"
	Peace      Emotion = "peace"
	Excitement Emotion = "excitement"
)

// Emotions lists the accepted emotions in display order.
func Emotions() []Emotion {
	return []Emotion{Joy, Love, Pride, Nostalgia, Peace, Excitement}
}

// ParseEmotion validates e. An empty value means Joy.
func ParseEmotion(e string) (Emotion, error) {
	e = strings.ToLower(strings.TrimSpace(e))
	if e == "" {
		return Joy, nil
	}
	if !slices.Contains(Emotions(), Emotion(e)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmotion, e)
	}
	return Emotion(e), nil
}

// Field limits, in runes.
const (
	maxTitleLen = 120
	maxNameLen  = 200
	maxNoteLen  = 2_000
)

// Memory is one journal entry.
type Memory struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Song      string    `json:"song"`
	Artist    string    `json:"artist"`
	TrackID   string    `json:"track_id,omitempty"`
	Note      string    `json:"note"`
	Emotion   Emotion   `json:"emotion"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// Draft is the caller-supplied part of a memory.
type Draft struct {
	Title   string `json:"title"`
	Song    string `json:"song"`
	Artist  string `json:"artist"`
	TrackID string `json:"track_id,omitempty"`
	Note    string `json:"note"`
	Emotion string `json:"emotion"`
}

// Journal is safe for concurrent use.
type Journal struct {
	mu         sync.RWMutex
	entries    []Memory // newest first
	clk        clock.Clock
	maxEntries int
	log        logger.Logger
}

// New returns an empty journal.
func New(opts ...Option) *Journal {
	j := &Journal{
		clk:        clock.New(),
		maxEntries: DefaultMaxEntries,
		log:        logger.Named("journal"),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Add validates d and records it as the newest memory.
func (j *Journal) Add(ctx context.Context, d Draft) (Memory, error) {
	emotion, err := ParseEmotion(d.Emotion)
	if err != nil {
		return Memory{}, err
	}
	m := Memory{
		Title:   strings.TrimSpace(d.Title),
		Song:    strings.TrimSpace(d.Song),
		Artist:  strings.TrimSpace(d.Artist),
		TrackID: strings.TrimSpace(d.TrackID),
		Note:    strings.TrimSpace(d.Note),
		Emotion: emotion,
	}
	if err := validate(m); err != nil {
		return Memory{}, err
	}

	now := j.clk.Now().UTC()
	m.ID = uuid.NewString()
	m.CreatedAt = now
	m.Date = now.Format(time.DateOnly)

	j.mu.Lock()
	j.entries = slices.Insert(j.entries, 0, m)
	if len(j.entries) > j.maxEntries {
		j.entries = j.entries[:j.maxEntries]
	}
	j.mu.Unlock()

	j.log.Info(ctx, "memory added", logger.String("id", m.ID), logger.String("emotion", string(m.Emotion)))
	return m, nil
}

func validate(m Memory) error {
	switch {
	case m.Title == "" || m.Song == "" || m.Artist == "":
		return fmt.Errorf("%w: title, song and artist are required", ErrInvalidMemory)
	case utf8.RuneCountInString(m.Title) > maxTitleLen:
		return fmt.Errorf("%w: title longer than %d characters", ErrInvalidMemory, maxTitleLen)
	case utf8.RuneCountInString(m.Song) > maxNameLen, utf8.RuneCountInString(m.Artist) > maxNameLen:
		return fmt.Errorf("%w: song or artist longer than %d characters", ErrInvalidMemory, maxNameLen)
	case utf8.RuneCountInString(m.Note) > maxNoteLen:
		return fmt.Errorf("%w: note longer than %d characters", ErrInvalidMemory, maxNoteLen)
	}
	return nil
}

// List returns the memories newest first, only those tagged emotion when it
// is not empty.
func (j *Journal) List(emotion Emotion) []Memory {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Memory, 0, len(j.entries))
	for _, m := range j.entries {
		if emotion == "" || m.Emotion == emotion {
			out = append(out, m)
		}
	}
	return out
}

// Get returns one memory.
func (j *Journal) Get(id string) (Memory, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	for _, m := range j.entries {
		if m.ID == id {
			return m, nil
		}
	}
	return Memory{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Delete removes one memory.
func (j *Journal) Delete(ctx context.Context, id string) error {
	j.mu.Lock()
	i := slices.IndexFunc(j.entries, func(m Memory) bool { return m.ID == id })
	if i < 0 {
		j.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	j.entries = slices.Delete(j.entries, i, i+1)
	j.mu.Unlock()

	j.log.Info(ctx, "memory deleted", logger.String("id", id))
	return nil
}

// Len returns the number of memories.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}
