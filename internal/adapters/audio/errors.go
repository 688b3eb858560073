package audio

import "errors"

// Sentinel errors for the audio adapters.
var (
	ErrNoDevice          = errors.New("audio output disabled")
	ErrUnsupportedSource = errors.New("unsupported source locator")
	ErrNoObjectStore     = errors.New("object store not configured")
	ErrSourceTooLarge    = errors.New("source exceeds size limit")
	ErrFetchFailed       = errors.New("fetch source failed")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrDeviceNotReady    = errors.New("audio device not ready")
	ErrInvalidSampleRate = errors.New("invalid sample rate")
)
