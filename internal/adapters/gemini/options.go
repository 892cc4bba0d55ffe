package gemini

import "github.com/yetog/spritegen/pkg/logger"

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTextModel overrides the prompt-refinement model.
func WithTextModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.textModel = model
		}
	}
}

// WithImageModel overrides the sprite-rendering model.
func WithImageModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.imageModel = model
		}
	}
}

// WithLogger overrides the default named logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}
