package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// LeaderboardDependencies reads the ranked best results.
type LeaderboardDependencies interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, player string) (Entry, error)
}

// LeaderboardHandler serves the top-N list and single-player ranks.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a handler capping limit at maxLimit.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps, maxLimit: maxLimit}
}

// HandleTop handles GET /leaderboard?limit=N requests.
func (h *LeaderboardHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	n, err := h.limit(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleRank handles GET /rank/{player} requests.
func (h *LeaderboardHandler) HandleRank(w http.ResponseWriter, r *http.Request) {
	entry, err := h.deps.Rank(r.Context(), mux.Vars(r)["player"])
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// limit parses the required limit parameter within [1, maxLimit].
func (h *LeaderboardHandler) limit(r *http.Request) (int, error) {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	switch {
	case err != nil || n < 1:
		return 0, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest)
	case n > h.maxLimit:
		return 0, fmt.Errorf("%w: %d > %d", ErrLimitExceeded, n, h.maxLimit)
	}
	return n, nil
}
