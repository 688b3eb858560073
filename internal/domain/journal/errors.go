package journal

import "errors"

// Sentinel errors for journal operations.
var (
	ErrInvalidMemory  = errors.New("invalid memory")
	ErrInvalidEmotion = errors.New("unknown emotion")
	ErrNotFound       = errors.New("memory not found")
)
