// Package catalog serves the fixed, hand-authored track list grouped by mood.
package catalog

import (
	_ "embed"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/okian/vibeverse/internal/domain/model"
)

//go:embed catalog.yaml
var builtin []byte

type document struct {
	Tracks []model.Track `yaml:"tracks"`
}

// Option applies a configuration option to the Catalog.
type Option func(*Catalog)

// WithRand sets the random source used by Random.
func WithRand(r *rand.Rand) Option {
	return func(c *Catalog) {
		if r != nil {
			c.rng = r
		}
	}
}

// Catalog is an immutable track list. Lookups are safe for concurrent use.
type Catalog struct {
	tracks []model.Track
	byID   map[string]int
	moods  []string

	mu  sync.Mutex
	rng *rand.Rand
}

// New returns the built-in catalog.
func New(opts ...Option) (*Catalog, error) {
	return Parse(builtin, opts...)
}

// Load reads a catalog file; an empty path yields the built-in catalog.
func Load(path string, opts ...Option) (*Catalog, error) {
	if path == "" {
		return New(opts...)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return Parse(data, opts...)
}

// Parse builds a catalog from YAML. Track IDs must be unique and every track needs a mood.
func Parse(data []byte, opts ...Option) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	if len(doc.Tracks) == 0 {
		return nil, fmt.Errorf("%w: no tracks", ErrInvalidCatalog)
	}

	c := &Catalog{
		tracks: doc.Tracks,
		byID:   make(map[string]int, len(doc.Tracks)),
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // shuffling, not security
	}
	seenMood := map[string]bool{}
	for i, t := range doc.Tracks {
		switch {
		case t.ID == "":
			return nil, fmt.Errorf("%w: track %d has no id", ErrInvalidCatalog, i)
		case t.Mood == "":
			return nil, fmt.Errorf("%w: track %s has no mood", ErrInvalidCatalog, t.ID)
		case math.IsNaN(t.BPM) || math.IsInf(t.BPM, 0):
			return nil, fmt.Errorf("%w: track %s has a non-finite bpm", ErrInvalidCatalog, t.ID)
		case t.DurationSec < 0 || t.BPM < 0:
			return nil, fmt.Errorf("%w: track %s has a negative duration or bpm", ErrInvalidCatalog, t.ID)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate track id %s", ErrInvalidCatalog, t.ID)
		}
		c.byID[t.ID] = i
		if !seenMood[t.Mood] {
			seenMood[t.Mood] = true
			c.moods = append(c.moods, t.Mood)
		}
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// All returns every track in catalog order.
func (c *Catalog) All() []model.Track {
	out := make([]model.Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}

// ByMood returns the tracks of one mood in catalog order. Unknown moods yield an empty list.
func (c *Catalog) ByMood(mood string) []model.Track {
	out := []model.Track{}
	for _, t := range c.tracks {
		if t.Mood == mood {
			out = append(out, t)
		}
	}
	return out
}

// ByID returns one track.
func (c *Catalog) ByID(id string) (model.Track, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.Track{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.tracks[i], nil
}

// Step returns the track delta places from id within id's mood playlist,
// wrapping around at either end.
func (c *Catalog) Step(id string, delta int) (model.Track, error) {
	cur, err := c.ByID(id)
	if err != nil {
		return model.Track{}, err
	}
	playlist := c.ByMood(cur.Mood)
	at := 0
	for i, t := range playlist {
		if t.ID == id {
			at = i
			break
		}
	}
	n := len(playlist)
	return playlist[((at+delta)%n+n)%n], nil
}

// Moods lists the moods in order of first appearance.
func (c *Catalog) Moods() []string {
	out := make([]string, len(c.moods))
	copy(out, c.moods)
	return out
}

// Random returns up to n distinct tracks in random order.
func (c *Catalog) Random(n int) []model.Track {
	if n <= 0 {
		return []model.Track{}
	}
	n = min(n, len(c.tracks))

	c.mu.Lock()
	perm := c.rng.Perm(len(c.tracks))
	c.mu.Unlock()

	out := make([]model.Track, n)
	for i := range n {
		out[i] = c.tracks[perm[i]]
	}
	return out
}

// Len returns the number of tracks.
func (c *Catalog) Len() int { return len(c.tracks) }
