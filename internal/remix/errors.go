package remix

import "errors"

// Sentinel errors for remix jobs.
var (
	ErrUnknownGenre      = errors.New("unknown genre")
	ErrEmptyRecording    = errors.New("recording is empty")
	ErrRecordingTooLarge = errors.New("recording too large")
	ErrNotFound          = errors.New("remix not found")
	ErrClosed            = errors.New("remix lab closed")
)
