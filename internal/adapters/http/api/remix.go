package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/vibeverse/internal/remix"
)

// Multipart framing allowed on top of the recording itself.
const multipartOverhead = 64 << 10

// RemixDependencies defines the interface for the remix lab.
type RemixDependencies interface {
	Genres() []remix.Genre
	SubmitRemix(ctx context.Context, genre string, recording []byte) (remix.Job, error)
	Remix(id string) (remix.Job, error)
	Remixes() []remix.Job
	RemixMaxBytes() int64
}

// RemixHandler serves the remix lab.
type RemixHandler struct {
	deps RemixDependencies
}

// NewRemixHandler creates a new remix handler.
func NewRemixHandler(deps RemixDependencies) *RemixHandler {
	return &RemixHandler{deps: deps}
}

// HandleGenres handles GET /remix/genres requests.
func (h *RemixHandler) HandleGenres(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Genres())
}

// HandleList handles GET /remix requests.
func (h *RemixHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Remixes())
}

// HandleGet handles GET /remix/{id} requests.
func (h *RemixHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	job, err := h.deps.Remix(mux.Vars(r)["id"])
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// HandleSubmit handles POST /remix multipart uploads carrying a genre field
// and a recording file. The job is accepted and finishes in the background.
func (h *RemixHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	limit := h.deps.RemixMaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, fmt.Errorf("%w: upload exceeds %d bytes", remix.ErrRecordingTooLarge, limit))
			return
		}
		writeFailure(w, fmt.Errorf("%w: invalid multipart body: %v", ErrBadRequest, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, _, err := r.FormFile("recording")
	if err != nil {
		writeFailure(w, fmt.Errorf("%w: missing recording file", ErrBadRequest))
		return
	}
	defer f.Close()
	recording, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		writeFailure(w, fmt.Errorf("%w: read recording: %v", ErrBadRequest, err))
		return
	}

	job, err := h.deps.SubmitRemix(r.Context(), r.FormValue("genre"), recording)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}
