package api

import (
	"errors"
	"net/http"

	"github.com/okian/vibeverse/internal/adapters/repository"
	service "github.com/okian/vibeverse/internal/app"
	"github.com/okian/vibeverse/internal/domain/catalog"
	"github.com/okian/vibeverse/internal/domain/journal"
	"github.com/okian/vibeverse/internal/remix"
	"github.com/okian/vibeverse/internal/rhythm"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrLimitExceeded = errors.New("limit exceeds the maximum")
)

// classify returns the HTTP status and error code for err.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrLimitExceeded):
		return http.StatusBadRequest, "limit_exceeded"
	case errors.Is(err, remix.ErrRecordingTooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidPlayer),
		errors.Is(err, rhythm.ErrInvalidTempo),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, journal.ErrInvalidMemory),
		errors.Is(err, journal.ErrInvalidEmotion),
		errors.Is(err, remix.ErrUnknownGenre),
		errors.Is(err, remix.ErrEmptyRecording):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, journal.ErrNotFound),
		errors.Is(err, remix.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrDuplicateResult):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, rhythm.ErrAlreadyRunning),
		errors.Is(err, rhythm.ErrSessionMismatch),
		errors.Is(err, rhythm.ErrSessionRunning),
		errors.Is(err, rhythm.ErrNotRunning),
		errors.Is(err, rhythm.ErrNoResult),
		errors.Is(err, service.ErrNoTrack):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, remix.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
