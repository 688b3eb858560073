package api

import (
	"context"
	"net/http"

	service "github.com/okian/vibeverse/internal/app"
)

// StatsProvider exposes the service counters served by /stats.
type StatsProvider interface {
	GetStats(ctx context.Context) service.Stats
}

// statsResponse adds API-level counters to the service stats.
type statsResponse struct {
	service.Stats
	WSClients int64 `json:"ws_clients"`
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
	clients  func() int64
}

// NewStatsHandler creates a stats handler. clients reports the connected
// WebSocket subscribers and may be nil.
func NewStatsHandler(provider StatsProvider, clients func() int64) *StatsHandler {
	return &StatsHandler{provider: provider, clients: clients}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{Stats: h.provider.GetStats(r.Context())}
	if h.clients != nil {
		resp.WSClients = h.clients()
	}
	writeJSON(w, http.StatusOK, resp)
}
