// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	// ErrNotFound reports a missing storage key or block position.
	ErrNotFound = errors.New("not found")
	// ErrConflict reports that the document changed underneath a long-running operation.
	ErrConflict = errors.New("conflict")
	// ErrInvalidFormat reports a payload that is not a list of pages of column lists.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrBusy reports a re-entrant auto-distribution request.
	ErrBusy = errors.New("busy")
)
