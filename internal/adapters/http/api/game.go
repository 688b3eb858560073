package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/vibeverse/internal/domain/model"
)

// GameDependencies defines the interface for the rhythm game.
type GameDependencies interface {
	StartGame(ctx context.Context, player, trackID string) (model.GameSnapshot, error)
	PauseGame(ctx context.Context, paused bool) model.GameSnapshot
	StopGame(ctx context.Context) model.GameSnapshot
	Hit(ctx context.Context) (model.HitResult, error)
	ResetGame(ctx context.Context) model.GameSnapshot
	Game() model.GameSnapshot
	SubmitResult(ctx context.Context) (model.GameResult, error)
}

type startRequest struct {
	Player  string `json:"player"`
	TrackID string `json:"track_id"`
}

type pauseRequest struct {
	Paused *bool `json:"paused"`
}

type submitResponse struct {
	Status string           `json:"status"`
	Result model.GameResult `json:"result"`
}

// GameHandler handles rhythm game sessions.
type GameHandler struct {
	deps GameDependencies
}

// NewGameHandler creates a new game handler.
func NewGameHandler(deps GameDependencies) *GameHandler {
	return &GameHandler{deps: deps}
}

// HandleGet handles GET /game requests.
func (h *GameHandler) HandleGet(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Game())
}

// HandleStart handles POST /game/start requests.
func (h *GameHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	snap, err := h.deps.StartGame(r.Context(), req.Player, req.TrackID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandlePause handles POST /game/pause requests.
func (h *GameHandler) HandlePause(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if req.Paused == nil {
		writeFailure(w, fmt.Errorf("%w: missing paused", ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.PauseGame(r.Context(), *req.Paused))
}

// HandleStop handles POST /game/stop requests.
func (h *GameHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.StopGame(r.Context()))
}

// HandleHit handles POST /game/hit requests.
func (h *GameHandler) HandleHit(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Hit(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleReset handles POST /game/reset requests.
func (h *GameHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.ResetGame(r.Context()))
}

// HandleSubmit handles POST /game/submit requests. Accepted results are
// ranked asynchronously.
func (h *GameHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.SubmitResult(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, submitResponse{Status: "accepted", Result: res})
}
