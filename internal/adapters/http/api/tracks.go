package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/vibeverse/internal/domain/model"
)

// TrackDependencies defines the interface for catalog reads.
type TrackDependencies interface {
	Tracks(mood string) []model.Track
	Track(id string) (model.Track, error)
	Moods() []string
}

// TracksHandler serves the track catalog.
type TracksHandler struct {
	deps TrackDependencies
}

// NewTracksHandler creates a new tracks handler.
func NewTracksHandler(deps TrackDependencies) *TracksHandler {
	return &TracksHandler{deps: deps}
}

// HandleList handles GET /tracks?mood=m requests.
func (h *TracksHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tracks := h.deps.Tracks(r.URL.Query().Get("mood"))
	if tracks == nil {
		tracks = []model.Track{}
	}
	writeJSON(w, http.StatusOK, tracks)
}

// HandleGet handles GET /tracks/{id} requests.
func (h *TracksHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	t, err := h.deps.Track(mux.Vars(r)["id"])
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// HandleMoods handles GET /moods requests.
func (h *TracksHandler) HandleMoods(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Moods())
}
