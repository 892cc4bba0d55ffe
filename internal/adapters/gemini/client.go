// Package gemini adapts the Google GenAI SDK to the text and image
// generation needs of the sprite service.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yetog/spritegen/pkg/logger"
	"github.com/yetog/spritegen/pkg/metrics"
)

const (
	defaultTextModel  = "gemini-2.0-flash"
	defaultImageModel = "imagen-3.0-generate-002"
)

// Client wraps a genai.Client with the two operations the service
// needs. One text model refines prompts, one image model renders
// sprites.
type Client struct {
	client     *genai.Client
	textModel  string
	imageModel string
	log        logger.Logger
}

// New creates a Gemini client. The API key is mandatory; model names
// fall back to sensible defaults when left empty.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		textModel:  defaultTextModel,
		imageModel: defaultImageModel,
		log:        logger.Get().Named("gemini"),
	}

	for _, opt := range opts {
		opt(c)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.client = client

	return c, nil
}

// Close releases the underlying SDK client. The genai SDK client has
// no Close of its own, so there is nothing to release.
func (c *Client) Close() error {
	return nil
}

// GenerateText sends a prompt to the text model and returns the reply.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, genai.Text(prompt), nil)
	metrics.ObserveGenerationLatency("text", float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordGenerationError("text")
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	c.log.Debug(ctx, "text generated",
		logger.String("model", c.textModel),
		logger.Int("chars", len(text)),
	)
	return text, nil
}

// GenerateImage renders a single image for the prompt and returns the
// raw image bytes.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateImages(ctx, c.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	metrics.ObserveGenerationLatency("image", float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordGenerationError("image")
		return nil, fmt.Errorf("generate images: %w", err)
	}

	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		metrics.RecordGenerationError("image")
		return nil, ErrNoImage
	}

	img := resp.GeneratedImages[0].Image.ImageBytes
	c.log.Debug(ctx, "image generated",
		logger.String("model", c.imageModel),
		logger.Int("bytes", len(img)),
	)
	return img, nil
}
