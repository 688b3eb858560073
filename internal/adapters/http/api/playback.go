package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/vibeverse/internal/domain/model"
)

// PlaybackDependencies defines the interface for playback control.
type PlaybackDependencies interface {
	Play(ctx context.Context, trackID string) (model.PlaybackSnapshot, error)
	Pause(ctx context.Context) model.PlaybackSnapshot
	Resume(ctx context.Context) model.PlaybackSnapshot
	StopPlayback(ctx context.Context) model.PlaybackSnapshot
	Seek(ctx context.Context, seconds float64) model.PlaybackSnapshot
	SetVolume(ctx context.Context, v float64) model.PlaybackSnapshot
	Playback() model.PlaybackSnapshot
	Next(ctx context.Context) (model.PlaybackSnapshot, error)
	Previous(ctx context.Context) (model.PlaybackSnapshot, error)
}

type playRequest struct {
	TrackID string `json:"track_id"`
}

type seekRequest struct {
	Position *float64 `json:"position"`
}

type volumeRequest struct {
	Volume *float64 `json:"volume"`
}

// PlaybackHandler handles the playback transport.
type PlaybackHandler struct {
	deps PlaybackDependencies
}

// NewPlaybackHandler creates a new playback handler.
func NewPlaybackHandler(deps PlaybackDependencies) *PlaybackHandler {
	return &PlaybackHandler{deps: deps}
}

// HandleGet handles GET /playback requests.
func (h *PlaybackHandler) HandleGet(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Playback())
}

// HandlePlay handles POST /playback/play requests. Playback failures end in
// the synthesized mode, so only catalog lookups can fail.
func (h *PlaybackHandler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if strings.TrimSpace(req.TrackID) == "" {
		writeFailure(w, fmt.Errorf("%w: missing track_id", ErrBadRequest))
		return
	}
	snap, err := h.deps.Play(r.Context(), req.TrackID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandlePause handles POST /playback/pause requests.
func (h *PlaybackHandler) HandlePause(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Pause(r.Context()))
}

// HandleResume handles POST /playback/resume requests.
func (h *PlaybackHandler) HandleResume(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Resume(r.Context()))
}

// HandleStop handles POST /playback/stop requests.
func (h *PlaybackHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.StopPlayback(r.Context()))
}

// HandleSeek handles POST /playback/seek requests; position is in seconds.
func (h *PlaybackHandler) HandleSeek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if req.Position == nil {
		writeFailure(w, fmt.Errorf("%w: missing position", ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Seek(r.Context(), *req.Position))
}

// HandleNext handles POST /playback/next requests.
func (h *PlaybackHandler) HandleNext(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.deps.Next)
}

// HandlePrevious handles POST /playback/previous requests.
func (h *PlaybackHandler) HandlePrevious(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.deps.Previous)
}

func (h *PlaybackHandler) step(w http.ResponseWriter, r *http.Request, move func(context.Context) (model.PlaybackSnapshot, error)) {
	snap, err := move(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleVolume handles POST /playback/volume requests.
func (h *PlaybackHandler) HandleVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if req.Volume == nil {
		writeFailure(w, fmt.Errorf("%w: missing volume", ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.SetVolume(r.Context(), *req.Volume))
}
