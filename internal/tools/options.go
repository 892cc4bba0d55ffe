package tools

import "github.com/yetog/spritegen/pkg/logger"

// Option applies a configuration option to the Dispatcher.
type Option func(*Dispatcher)

// WithGenerator wires the image generator used by generate_sprite.
func WithGenerator(g Generator) Option {
	return func(d *Dispatcher) {
		if g != nil {
			d.generator = g
		}
	}
}

// WithPersonaSource wires the persona lookup used by persona_id
// parameters.
func WithPersonaSource(p PersonaSource) Option {
	return func(d *Dispatcher) {
		if p != nil {
			d.personas = p
		}
	}
}

// WithLogger overrides the default named logger.
func WithLogger(log logger.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}
