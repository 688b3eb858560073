package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/vibeverse/internal/domain/journal"
)

// JournalDependencies defines the interface for the memory journal.
type JournalDependencies interface {
	Emotions() []journal.Emotion
	AddMemory(ctx context.Context, d journal.Draft) (journal.Memory, error)
	Memories(emotion string) ([]journal.Memory, error)
	Memory(id string) (journal.Memory, error)
	DeleteMemory(ctx context.Context, id string) error
}

// JournalHandler serves the memory journal.
type JournalHandler struct {
	deps JournalDependencies
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(deps JournalDependencies) *JournalHandler {
	return &JournalHandler{deps: deps}
}

// HandleList handles GET /memories?emotion=e requests.
func (h *JournalHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	memories, err := h.deps.Memories(r.URL.Query().Get("emotion"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, memories)
}

// HandleAdd handles POST /memories requests.
func (h *JournalHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var d journal.Draft
	if err := decodeJSON(w, r, &d); err != nil {
		writeFailure(w, err)
		return
	}
	m, err := h.deps.AddMemory(r.Context(), d)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// HandleGet handles GET /memories/{id} requests.
func (h *JournalHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	m, err := h.deps.Memory(mux.Vars(r)["id"])
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleDelete handles DELETE /memories/{id} requests.
func (h *JournalHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteMemory(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleEmotions handles GET /emotions requests.
func (h *JournalHandler) HandleEmotions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Emotions())
}
