package model

import "errors"

// Sentinel kinds for prediction engine errors.
var (
	// ErrModelNotFound means the artifact path does not exist and no
	// artifact URL was configured (or the fetch failed).
	ErrModelNotFound = errors.New("model artifact not found")

	// ErrModelInvalid means the artifact file could not be decoded or
	// failed its sanity checks.
	ErrModelInvalid = errors.New("model artifact invalid")

	// ErrPositiveClassAbsent means the loaded artifact's class set does not
	// contain the positive label. Indicates an incompatible artifact.
	ErrPositiveClassAbsent = errors.New("positive class absent from artifact")
)
