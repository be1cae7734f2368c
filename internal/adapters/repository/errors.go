package repository

import "errors"

// Sentinel kinds for persistence errors.
var (
	// ErrNotFound means no row exists for the requested key.
	ErrNotFound = errors.New("row not found")

	// ErrPersistence wraps database failures on the audit-log write path.
	// Callers treat it as best-effort: it is logged, never surfaced.
	ErrPersistence = errors.New("audit persistence failed")
)
