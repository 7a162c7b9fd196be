package pipeline

import "errors"

var (
	// ErrFetch indicates the catalog could not be downloaded or decoded.
	// The run stops before touching the library.
	ErrFetch = errors.New("catalog unavailable")

	// ErrEmptyCatalog indicates the catalog held no usable entries.
	ErrEmptyCatalog = errors.New("catalog has no entries")
)
