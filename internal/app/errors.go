package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrNotStarted reports that an operation ran before Start.
	ErrNotStarted = errors.New("service not started")

	// ErrGenerationUnavailable reports that no AI model client is
	// configured for the requested generation.
	ErrGenerationUnavailable = errors.New("generation unavailable")
)
