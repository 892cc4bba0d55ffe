// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers an optional YAML file and SPRITEGEN_ env vars on top.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// TopK bounds the number of training matches used per enhancement.
	TopK int `koanf:"top_k"`

	// Match score weights. They are normalized against each other by the
	// matcher; defaults follow the 0.5/0.35/0.15 split.
	CharacterWeight float64 `koanf:"character_weight"`
	StyleWeight     float64 `koanf:"style_weight"`
	PoseWeight      float64 `koanf:"pose_weight"`

	// ExcerptLimit bounds example prompt excerpts, in characters.
	ExcerptLimit int `koanf:"excerpt_limit"`

	// MaxExamplePrompts bounds the number of example excerpts appended.
	MaxExamplePrompts int `koanf:"max_example_prompts"`

	// HighRatingThreshold marks references treated as high quality.
	HighRatingThreshold int `koanf:"high_rating_threshold"`

	// SuggestionCap bounds quality analysis suggestions.
	SuggestionCap int `koanf:"suggestion_cap"`

	// StoreTimeoutMS bounds individual store queries, in milliseconds.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// GeminiAPIKey authenticates against the AI model. Usually set via
	// SPRITEGEN_GEMINI_API_KEY; generation is disabled when empty.
	GeminiAPIKey string `koanf:"gemini_api_key"`

	// TextModel and ImageModel name the AI models used for prompt
	// refinement and sprite rendering.
	TextModel  string `koanf:"text_model"`
	ImageModel string `koanf:"image_model"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		TopK:                3,
		CharacterWeight:     0.5,
		StyleWeight:         0.35,
		PoseWeight:          0.15,
		ExcerptLimit:        200,
		MaxExamplePrompts:   2,
		HighRatingThreshold: 4,
		SuggestionCap:       5,
		StoreTimeoutMS:      2000,
		TextModel:           "gemini-2.0-flash",
		ImageModel:          "imagen-3.0-generate-002",
	}
}
