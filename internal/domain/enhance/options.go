package enhance

import "github.com/yetog/spritegen/internal/domain/matching"

// Option applies a configuration option to the Enhancer.
type Option func(*Enhancer)

// WithMatcher sets the matcher used to rank training references.
func WithMatcher(m *matching.Matcher) Option {
	return func(e *Enhancer) {
		if m != nil {
			e.matcher = m
		}
	}
}

// WithExcerptLimit bounds the length of example prompt excerpts.
func WithExcerptLimit(limit int) Option {
	return func(e *Enhancer) {
		if limit > 0 {
			e.excerptLimit = limit
		}
	}
}

// WithMaxExamplePrompts sets how many example prompts are appended.
func WithMaxExamplePrompts(n int) Option {
	return func(e *Enhancer) {
		if n >= 0 {
			e.maxExamples = n
		}
	}
}
