package service

import (
	"time"

	"github.com/yetog/spritegen/internal/adapters/repository"
	"github.com/yetog/spritegen/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithGenerator wires the AI image generator.
func WithGenerator(g Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.generator = g
		}
	}
}

// WithTrainingStore injects a training reference store.
func WithTrainingStore(store repository.TrainingStore) Option {
	return func(s *Service) {
		if store != nil {
			s.training = store
		}
	}
}

// WithSpriteStore injects a sprite store.
func WithSpriteStore(store repository.SpriteStore) Option {
	return func(s *Service) {
		if store != nil {
			s.sprites = store
		}
	}
}

// WithPersonaStore injects a persona store.
func WithPersonaStore(store repository.PersonaStore) Option {
	return func(s *Service) {
		if store != nil {
			s.personas = store
		}
	}
}

// WithMatchWeights sets the character, style and pose score weights.
func WithMatchWeights(character, style, pose float64) Option {
	return func(s *Service) {
		if character > 0 && style >= 0 && pose >= 0 {
			s.characterWeight = character
			s.styleWeight = style
			s.poseWeight = pose
		}
	}
}

// WithTopK sets the number of matches kept per query.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithExcerptLimit bounds example prompt excerpts.
func WithExcerptLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.excerptLimit = limit
		}
	}
}

// WithMaxExamplePrompts bounds the number of example excerpts.
func WithMaxExamplePrompts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxExamples = n
		}
	}
}

// WithHighRatingThreshold sets the rating treated as high quality.
func WithHighRatingThreshold(rating int) Option {
	return func(s *Service) {
		if rating > 0 {
			s.highRating = rating
		}
	}
}

// WithSuggestionCap bounds quality suggestions.
func WithSuggestionCap(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.suggestionCap = limit
		}
	}
}

// WithQueryTimeout bounds individual store queries.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.queryTimeout = timeout
		}
	}
}
