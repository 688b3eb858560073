package catalog

import "errors"

// Sentinel errors for catalog lookups and loading.
var (
	ErrNotFound       = errors.New("track not found")
	ErrInvalidCatalog = errors.New("invalid catalog")
)
