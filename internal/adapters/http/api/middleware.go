package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/okian/vibeverse/pkg/logger"
	"github.com/okian/vibeverse/pkg/metrics"
)

// handle registers next for method and path, instrumented under endpoint.
func (s *Server) handle(r *mux.Router, method, path, endpoint string, next http.HandlerFunc) {
	r.HandleFunc(path, s.instrument(endpoint, next)).Methods(method)
}

// instrument records request count and latency per endpoint and logs
// server-side failures.
func (s *Server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, float64(elapsed.Milliseconds()))

		if rec.status >= http.StatusInternalServerError {
			s.logger.Error(r.Context(), "request failed",
				logger.String("endpoint", endpoint),
				logger.String("method", r.Method),
				logger.Int("status", rec.status),
				logger.Duration("elapsed", elapsed))
		}
	}
}

// statusRecorder captures the status written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
