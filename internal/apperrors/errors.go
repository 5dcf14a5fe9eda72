// Package apperrors defines the sentinel errors shared across the
// deduplication engine so callers can classify failures with errors.Is.
package apperrors

import "errors"

var (
	// ErrNotFound indicates a candidate or product id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a decision was submitted against a candidate
	// that is no longer pending.
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates malformed input parameters (bad scan bounds,
	// missing merge target ids, and the like).
	ErrValidation = errors.New("validation failed")
)
