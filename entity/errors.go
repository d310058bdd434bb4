package entity

import "errors"

// Store errors shared by the mongo and in-memory rosters.
var (
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate document")
	// ErrNotFound is returned by updates addressed to a missing document.
	// Lookups report a missing document as a nil result instead.
	ErrNotFound = errors.New("document not found")
)
