package rhythm

import "errors"

// Sentinel errors for game operations.
var (
	ErrInvalidTempo    = errors.New("track tempo must be positive")
	ErrAlreadyRunning  = errors.New("session already running")
	ErrNotRunning      = errors.New("session is not running")
	ErrSessionMismatch = errors.New("session belongs to another player or track; reset first")
	ErrSessionRunning  = errors.New("session still running")
	ErrNoResult        = errors.New("session has not been played")
)
