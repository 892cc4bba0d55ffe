package gemini

import "errors"

// Sentinel kinds for generation errors.
var (
	// ErrMissingAPIKey reports that no API key was configured.
	ErrMissingAPIKey = errors.New("gemini api key is required")

	// ErrEmptyPrompt rejects generation with a blank prompt.
	ErrEmptyPrompt = errors.New("prompt must not be empty")

	// ErrNoImage reports that the model returned no image payload.
	ErrNoImage = errors.New("model returned no image")
)
