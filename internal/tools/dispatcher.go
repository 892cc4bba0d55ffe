package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yetog/spritegen/internal/domain/enhance"
	"github.com/yetog/spritegen/internal/domain/model"
	"github.com/yetog/spritegen/internal/domain/quality"
	"github.com/yetog/spritegen/internal/domain/recommend"
	"github.com/yetog/spritegen/pkg/logger"
	"github.com/yetog/spritegen/pkg/metrics"
)

// generationSuffix steers the image model toward sprite output. It is
// appended only to the prompt sent to the model, never to the enhanced
// prompt returned to the caller.
const generationSuffix = ", high quality sprite art, game character design"

// Invocation is one named tool call with its raw parameters.
type Invocation struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
}

// Envelope is the uniform response shape. Exactly one of Result and
// Error is set; Error marshals to null on success.
type Envelope struct {
	ToolName string  `json:"tool_name"`
	Result   any     `json:"result"`
	Error    *string `json:"error"`
}

// Enhancer builds prompts from generation requests and raw prompt text.
type Enhancer interface {
	Enhance(ctx context.Context, req model.GenerationRequest) (string, error)
	EnhancePrompt(ctx context.Context, prompt string) (string, error)
}

// Analyzer produces quality reports for stored sprites.
type Analyzer interface {
	Analyze(ctx context.Context, spriteID string) (quality.Report, error)
}

// Recommender ranks style tags for a character.
type Recommender interface {
	Recommend(ctx context.Context, character string) ([]recommend.Recommendation, error)
}

// Generator renders an image for a prompt.
type Generator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// PersonaSource looks up personas referenced by persona_id parameters.
type PersonaSource interface {
	PersonaByID(ctx context.Context, id string) (model.Persona, error)
}

// PersonaUsageRecorder is implemented by persona sources that track how
// often a persona drives generation.
type PersonaUsageRecorder interface {
	RecordPersonaUse(ctx context.Context, id string) error
}

// Dispatcher validates invocations against the schema table and routes
// them to the analysis components. It is stateless between calls and
// safe for concurrent use.
type Dispatcher struct {
	enhancer    Enhancer
	analyzer    Analyzer
	recommender Recommender
	generator   Generator
	personas    PersonaSource
	log         logger.Logger
}

// New creates a Dispatcher over the three analysis components. The
// image generator and persona source are optional collaborators wired
// through options.
func New(enhancer Enhancer, analyzer Analyzer, recommender Recommender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		enhancer:    enhancer,
		analyzer:    analyzer,
		recommender: recommender,
		log:         logger.Get().Named("tools"),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Dispatch validates the invocation and runs the named tool. Validation
// failures (unknown tool, missing or mistyped parameters) return an
// error and an empty envelope. Component failures never propagate; they
// are rendered into the envelope's error field.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) (Envelope, error) {
	spec, ok := specByName(inv.ToolName)
	if !ok {
		metrics.RecordToolInvocation(inv.ToolName, "rejected")
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownTool, inv.ToolName)
	}

	if err := validate(spec, inv.Parameters); err != nil {
		metrics.RecordToolInvocation(inv.ToolName, "rejected")
		return Envelope{}, err
	}

	start := time.Now()
	result, err := d.run(ctx, spec.Name, inv.Parameters)
	metrics.ObserveToolLatency(spec.Name, float64(time.Since(start).Milliseconds()))

	if err != nil {
		d.log.Warn(ctx, "tool failed",
			logger.String("tool", spec.Name),
			logger.Error(err),
		)
		metrics.RecordToolInvocation(spec.Name, "error")
		msg := err.Error()
		return Envelope{ToolName: spec.Name, Error: &msg}, nil
	}

	metrics.RecordToolInvocation(spec.Name, "ok")
	return Envelope{ToolName: spec.Name, Result: result}, nil
}

// validate checks the supplied parameters against the schema. Required
// parameters are checked in declaration order, then types, then unknown
// names in alphabetical order, so the first failure is deterministic.
// A required string that is blank after trimming counts as missing; it
// would otherwise reach the components as an empty value.
func validate(spec ToolSpec, params map[string]any) error {
	for _, p := range spec.Params {
		if !p.Required {
			continue
		}
		value, ok := params[p.Name]
		if !ok {
			return &MissingParameterError{Name: p.Name}
		}
		if s, isString := value.(string); isString && p.Type == TypeString && strings.TrimSpace(s) == "" {
			return &MissingParameterError{Name: p.Name}
		}
	}

	declared := make(map[string]Param, len(spec.Params))
	for _, p := range spec.Params {
		declared[p.Name] = p
	}

	unknown := make([]string, 0)
	for name := range params {
		if _, ok := declared[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	if len(unknown) > 0 {
		return &UnknownParameterError{Name: unknown[0]}
	}

	for _, p := range spec.Params {
		value, ok := params[p.Name]
		if !ok {
			continue
		}
		switch p.Type {
		case TypeString:
			if _, ok := value.(string); !ok {
				return &TypeMismatchError{Name: p.Name, Want: TypeString}
			}
		case TypeBoolean:
			if _, ok := value.(bool); !ok {
				return &TypeMismatchError{Name: p.Name, Want: TypeBoolean}
			}
		}
	}

	return nil
}

func (d *Dispatcher) run(ctx context.Context, tool string, params map[string]any) (any, error) {
	switch tool {
	case ToolGenerateSprite:
		return d.generateSprite(ctx, params)
	case ToolEnhancePrompt:
		return d.enhancePrompt(ctx, params)
	case ToolAnalyzeSpriteQuality:
		return d.analyzer.Analyze(ctx, stringParam(params, "sprite_id"))
	case ToolStyleRecommendations:
		return d.styleRecommendations(ctx, params)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTool, tool)
}

// GenerateSpriteResult is the generate_sprite payload. The sprite is
// not persisted here; saving rendered sprites is the caller's choice.
type GenerateSpriteResult struct {
	SpriteID       string `json:"sprite_id"`
	Character      string `json:"character"`
	Pose           string `json:"pose,omitempty"`
	Style          string `json:"style,omitempty"`
	EnhancedPrompt string `json:"enhanced_prompt"`
	ImageBase64    string `json:"image_base64"`
	PersonaApplied bool   `json:"persona_applied"`
}

func (d *Dispatcher) generateSprite(ctx context.Context, params map[string]any) (any, error) {
	req := model.GenerationRequest{
		Character: stringParam(params, "character"),
		Pose:      stringParam(params, "pose"),
		Style:     stringParam(params, "style"),
	}
	useTraining := boolParam(params, "use_training_data", true)

	var prompt string
	if useTraining {
		enhanced, err := d.enhancer.Enhance(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("enhance prompt: %w", err)
		}
		if enhanced != enhance.BasePrompt(req) {
			metrics.RecordPromptEnhancement()
		}
		prompt = enhanced
	} else {
		prompt = enhance.BasePrompt(req)
	}

	personaID := stringParam(params, "persona_id")
	prompt, personaApplied := d.applyPersona(ctx, prompt, personaID)
	if personaApplied {
		d.recordPersonaUse(ctx, personaID)
	}

	if d.generator == nil {
		return nil, fmt.Errorf("image generation unavailable")
	}
	image, err := d.generator.GenerateImage(ctx, prompt+generationSuffix)
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}

	return GenerateSpriteResult{
		SpriteID:       uuid.NewString(),
		Character:      req.Character,
		Pose:           req.Pose,
		Style:          req.Style,
		EnhancedPrompt: prompt,
		ImageBase64:    base64.StdEncoding.EncodeToString(image),
		PersonaApplied: personaApplied,
	}, nil
}

// EnhancePromptResult is the enhance_prompt payload.
type EnhancePromptResult struct {
	OriginalPrompt string   `json:"original_prompt"`
	EnhancedPrompt string   `json:"enhanced_prompt"`
	Improvements   []string `json:"improvements"`
}

func (d *Dispatcher) enhancePrompt(ctx context.Context, params map[string]any) (any, error) {
	original := stringParam(params, "prompt")

	prompt, personaApplied := d.applyPersona(ctx, original, stringParam(params, "persona_id"))

	enhanced, err := d.enhancer.EnhancePrompt(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("enhance prompt: %w", err)
	}

	improvements := make([]string, 0, 2)
	if enhanced != prompt {
		improvements = append(improvements, "Enhanced with training data")
		metrics.RecordPromptEnhancement()
	}
	if personaApplied {
		improvements = append(improvements, "Applied persona context")
	}

	return EnhancePromptResult{
		OriginalPrompt: original,
		EnhancedPrompt: enhanced,
		Improvements:   improvements,
	}, nil
}

// StyleRecommendationsResult is the get_style_recommendations payload.
type StyleRecommendationsResult struct {
	Character       string                     `json:"character"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
	PersonaStyles   []string                   `json:"persona_styles,omitempty"`
}

func (d *Dispatcher) styleRecommendations(ctx context.Context, params map[string]any) (any, error) {
	character := stringParam(params, "character")

	recs, err := d.recommender.Recommend(ctx, character)
	if err != nil {
		return nil, fmt.Errorf("recommend styles: %w", err)
	}

	result := StyleRecommendationsResult{
		Character:       character,
		Recommendations: recs,
	}

	if persona, ok := d.lookupPersona(ctx, stringParam(params, "persona_id")); ok && persona.IsActive {
		result.PersonaStyles = persona.StyleTags
	}

	return result, nil
}

// applyPersona prepends persona context when a persona_id resolves to
// an active persona. An absent or unknown persona never fails a tool.
func (d *Dispatcher) applyPersona(ctx context.Context, prompt, personaID string) (string, bool) {
	persona, ok := d.lookupPersona(ctx, personaID)
	if !ok {
		return prompt, false
	}
	applied := enhance.ApplyPersona(prompt, persona)
	return applied, applied != prompt
}

// recordPersonaUse bumps the persona usage counter when the source
// supports it. A failed update never fails the tool.
func (d *Dispatcher) recordPersonaUse(ctx context.Context, personaID string) {
	recorder, ok := d.personas.(PersonaUsageRecorder)
	if !ok {
		return
	}
	if err := recorder.RecordPersonaUse(ctx, personaID); err != nil {
		d.log.Warn(ctx, "persona usage update failed",
			logger.String("persona_id", personaID),
			logger.Error(err),
		)
	}
}

func (d *Dispatcher) lookupPersona(ctx context.Context, personaID string) (model.Persona, bool) {
	if strings.TrimSpace(personaID) == "" || d.personas == nil {
		return model.Persona{}, false
	}
	persona, err := d.personas.PersonaByID(ctx, personaID)
	if err != nil {
		d.log.Warn(ctx, "persona lookup failed",
			logger.String("persona_id", personaID),
			logger.Error(err),
		)
		return model.Persona{}, false
	}
	return persona, true
}

func stringParam(params map[string]any, name string) string {
	if value, ok := params[name].(string); ok {
		return value
	}
	return ""
}

func boolParam(params map[string]any, name string, fallback bool) bool {
	if value, ok := params[name].(bool); ok {
		return value
	}
	return fallback
}
