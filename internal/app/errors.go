package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrInvalidPlayer   = errors.New("player name is required")
	ErrDuplicateResult = errors.New("result already submitted")
	ErrBackpressure    = errors.New("result queue is full")
	ErrNoTrack         = errors.New("no track loaded")
)
