// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/yetog/spritegen/internal/adapters/repository"
	"github.com/yetog/spritegen/internal/domain/enhance"
	"github.com/yetog/spritegen/internal/domain/matching"
	"github.com/yetog/spritegen/internal/domain/model"
	"github.com/yetog/spritegen/internal/domain/quality"
	"github.com/yetog/spritegen/internal/domain/recommend"
	"github.com/yetog/spritegen/internal/tools"
	"github.com/yetog/spritegen/pkg/logger"
	"github.com/yetog/spritegen/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueryTimeout = 2 * time.Second
)

// Generator is the AI model client: one text model answers chat
// prompts, one image model renders sprites.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// Service implements the API dependencies for the sprite generation
// system.
type Service struct {
	mu sync.RWMutex

	// Core components
	training   repository.TrainingStore
	sprites    repository.SpriteStore
	personas   repository.PersonaStore
	generator  Generator
	enhancer   *enhance.Enhancer
	dispatcher *tools.Dispatcher

	// Configuration
	characterWeight float64
	styleWeight     float64
	poseWeight      float64
	topK            int
	excerptLimit    int
	maxExamples     int
	highRating      int
	suggestionCap   int
	queryTimeout    time.Duration

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queryTimeout: defaultQueryTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start wires the analysis components over the configured stores.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting sprite service...")

	if s.training == nil {
		store := repository.NewMemoryStore()
		s.training = store
		if s.sprites == nil {
			s.sprites = store
		}
		if s.personas == nil {
			s.personas = store
		}
	}
	if s.sprites == nil {
		s.sprites = repository.NewMemoryStore()
	}
	if s.personas == nil {
		s.personas = repository.NewMemoryStore()
	}

	matcherOpts := make([]matching.Option, 0, 2)
	if s.characterWeight > 0 || s.styleWeight > 0 || s.poseWeight > 0 {
		matcherOpts = append(matcherOpts, matching.WithWeights(s.characterWeight, s.styleWeight, s.poseWeight))
	}
	if s.topK > 0 {
		matcherOpts = append(matcherOpts, matching.WithTopK(s.topK))
	}
	matcher := matching.New(matcherOpts...)

	training := &timedTrainingSource{store: s.training, timeout: s.queryTimeout}
	spriteSource := &timedSpriteSource{store: s.sprites, timeout: s.queryTimeout}

	enhancerOpts := []enhance.Option{enhance.WithMatcher(matcher)}
	if s.excerptLimit > 0 {
		enhancerOpts = append(enhancerOpts, enhance.WithExcerptLimit(s.excerptLimit))
	}
	if s.maxExamples > 0 {
		enhancerOpts = append(enhancerOpts, enhance.WithMaxExamplePrompts(s.maxExamples))
	}
	enhancer := enhance.New(training, enhancerOpts...)
	s.enhancer = enhancer

	analyzerOpts := make([]quality.Option, 0, 2)
	if s.highRating > 0 {
		analyzerOpts = append(analyzerOpts, quality.WithHighRatingThreshold(s.highRating))
	}
	if s.suggestionCap > 0 {
		analyzerOpts = append(analyzerOpts, quality.WithSuggestionCap(s.suggestionCap))
	}
	analyzer := quality.New(spriteSource, training, analyzerOpts...)

	recommender := recommend.New(training)

	dispatcherOpts := []tools.Option{
		tools.WithPersonaSource(s.personas),
		tools.WithLogger(s.logger.Named("tools")),
	}
	if s.generator != nil {
		dispatcherOpts = append(dispatcherOpts, tools.WithGenerator(s.generator))
	}
	s.dispatcher = tools.New(enhancer, analyzer, recommender, dispatcherOpts...)

	s.started = true
	s.logger.Info(ctx, "sprite service started",
		logger.Int("topK", s.topK),
		logger.Any("queryTimeout", s.queryTimeout),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping sprite service...")

	if closer, ok := s.generator.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "sprite service stopped")
}

// Execute validates and runs a tool invocation.
func (s *Service) Execute(ctx context.Context, inv tools.Invocation) (tools.Envelope, error) {
	s.mu.RLock()
	dispatcher := s.dispatcher
	s.mu.RUnlock()

	if dispatcher == nil {
		return tools.Envelope{}, ErrNotStarted
	}
	return dispatcher.Dispatch(ctx, inv)
}

// Chat sends a prompt to the text model. With useTraining set, the
// prompt is first enriched from the training corpus; an enhancement
// failure falls back to the raw prompt rather than failing the chat.
func (s *Service) Chat(ctx context.Context, prompt string, useTraining bool) (string, error) {
	s.mu.RLock()
	enhancer := s.enhancer
	generator := s.generator
	started := s.started
	s.mu.RUnlock()

	if !started {
		return "", ErrNotStarted
	}
	if generator == nil {
		return "", fmt.Errorf("text model: %w", ErrGenerationUnavailable)
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("chat prompt must not be empty")
	}

	if useTraining && enhancer != nil {
		enhanced, err := enhancer.EnhancePrompt(ctx, prompt)
		switch {
		case err != nil:
			s.logger.Warn(ctx, "chat enhancement failed; using raw prompt", logger.Error(err))
		case enhanced != prompt:
			metrics.RecordPromptEnhancement()
			prompt = enhanced
		}
	}

	reply, err := generator.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate text: %w", err)
	}
	return reply, nil
}

// ToolCatalog returns the schemas of all recognized tools.
func (s *Service) ToolCatalog() []tools.ToolSpec {
	return tools.Catalog()
}

// SaveSprite persists a generated sprite. A rated sprite that carries
// a persona feeds the persona's average rating.
func (s *Service) SaveSprite(ctx context.Context, sprite model.Sprite) (model.Sprite, error) {
	saved, err := s.sprites.PutSprite(ctx, sprite)
	if err != nil {
		return model.Sprite{}, err
	}
	if saved.PersonaID != "" && saved.Rated() {
		s.refreshPersonaRating(ctx, saved.PersonaID)
	}
	return saved, nil
}

// Sprites returns all stored sprites, newest first.
func (s *Service) Sprites(ctx context.Context) ([]model.Sprite, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	sprites, err := s.sprites.ListSprites(ctx)
	return sprites, mapTimeout(err)
}

// RateSprite sets rating and feedback on a stored sprite and refreshes
// the rating of the persona that generated it, if any.
func (s *Service) RateSprite(ctx context.Context, id string, rating int, feedback string) (model.Sprite, error) {
	sprite, err := s.sprites.UpdateSpriteRating(ctx, id, rating, feedback)
	if err != nil {
		return model.Sprite{}, err
	}
	if sprite.PersonaID != "" {
		s.refreshPersonaRating(ctx, sprite.PersonaID)
	}
	return sprite, nil
}

// refreshPersonaRating recomputes a persona's average rating over the
// rated sprites it generated. The rating is derived data; a failure
// here never fails the sprite operation.
func (s *Service) refreshPersonaRating(ctx context.Context, personaID string) {
	sprites, err := s.sprites.ListSprites(ctx)
	if err != nil {
		s.logger.Warn(ctx, "persona rating refresh: listing sprites failed", logger.Error(err))
		return
	}

	sum, rated := 0, 0
	for _, sprite := range sprites {
		if sprite.PersonaID == personaID && sprite.Rated() {
			sum += sprite.Rating
			rated++
		}
	}
	if rated == 0 {
		return
	}

	persona, err := s.personas.PersonaByID(ctx, personaID)
	if err != nil {
		s.logger.Warn(ctx, "persona rating refresh: lookup failed",
			logger.String("persona_id", personaID),
			logger.Error(err))
		return
	}

	persona.AverageRating = math.Round(float64(sum)/float64(rated)*100) / 100
	if _, err := s.personas.PutPersona(ctx, persona); err != nil {
		s.logger.Warn(ctx, "persona rating refresh: save failed",
			logger.String("persona_id", personaID),
			logger.Error(err))
	}
}

// DeleteSprite removes a sprite.
func (s *Service) DeleteSprite(ctx context.Context, id string) error {
	return s.sprites.DeleteSprite(ctx, id)
}

// SpriteStats summarizes the sprite inventory.
type SpriteStats struct {
	Total         int     `json:"total_sprites"`
	Rated         int     `json:"rated_sprites"`
	AverageRating float64 `json:"average_rating"`
}

// SpriteStatistics computes inventory stats over stored sprites.
func (s *Service) SpriteStatistics(ctx context.Context) (SpriteStats, error) {
	sprites, err := s.Sprites(ctx)
	if err != nil {
		return SpriteStats{}, err
	}

	stats := SpriteStats{Total: len(sprites)}
	sum := 0
	for _, sprite := range sprites {
		if sprite.Rated() {
			stats.Rated++
			sum += sprite.Rating
		}
	}
	if stats.Rated > 0 {
		avg := float64(sum) / float64(stats.Rated)
		stats.AverageRating = math.Round(avg*100) / 100
	}
	return stats, nil
}

// AddTrainingReference ingests a curated reference image.
func (s *Service) AddTrainingReference(ctx context.Context, ref model.TrainingReference) (model.TrainingReference, error) {
	return s.training.AddReference(ctx, ref)
}

// TrainingData returns all training references, newest first.
func (s *Service) TrainingData(ctx context.Context) ([]model.TrainingReference, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	refs, err := s.training.All(ctx)
	return refs, mapTimeout(err)
}

// DeleteTrainingReference removes a reference.
func (s *Service) DeleteTrainingReference(ctx context.Context, id string) error {
	return s.training.DeleteReference(ctx, id)
}

// Personas returns all stored personas, newest first.
func (s *Service) Personas(ctx context.Context) ([]model.Persona, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	personas, err := s.personas.ListPersonas(ctx)
	return personas, mapTimeout(err)
}

// SavePersona persists a persona.
func (s *Service) SavePersona(ctx context.Context, persona model.Persona) (model.Persona, error) {
	return s.personas.PutPersona(ctx, persona)
}

// PersonaByID returns a stored persona.
func (s *Service) PersonaByID(ctx context.Context, id string) (model.Persona, error) {
	return s.personas.PersonaByID(ctx, id)
}

// UpdatePersona replaces the editable fields of an existing persona.
// Identity, timestamps and the derived usage and rating fields are
// preserved.
func (s *Service) UpdatePersona(ctx context.Context, id string, update model.Persona) (model.Persona, error) {
	persona, err := s.personas.PersonaByID(ctx, id)
	if err != nil {
		return model.Persona{}, err
	}

	persona.Name = update.Name
	persona.Description = update.Description
	persona.StyleTags = update.StyleTags
	persona.CharacterTags = update.CharacterTags
	persona.ExamplePrompts = update.ExamplePrompts
	persona.IsActive = update.IsActive

	return s.personas.PutPersona(ctx, persona)
}

// DeletePersona removes a persona.
func (s *Service) DeletePersona(ctx context.Context, id string) error {
	return s.personas.DeletePersona(ctx, id)
}

// TogglePersona flips a persona between active and inactive.
func (s *Service) TogglePersona(ctx context.Context, id string) (model.Persona, error) {
	persona, err := s.personas.PersonaByID(ctx, id)
	if err != nil {
		return model.Persona{}, err
	}
	persona.IsActive = !persona.IsActive
	return s.personas.PutPersona(ctx, persona)
}

// PersonaUsage names the most used persona in the statistics payload.
type PersonaUsage struct {
	Name       string `json:"name"`
	UsageCount int    `json:"usage_count"`
}

// PersonaStats summarizes the persona inventory.
type PersonaStats struct {
	Total        int           `json:"total"`
	Active       int           `json:"active"`
	Inactive     int           `json:"inactive"`
	MostUsed     *PersonaUsage `json:"most_used"`
	AverageUsage float64       `json:"average_usage"`
}

// PersonaStatistics computes inventory stats over stored personas. The
// most-used entry only considers personas that were actually used.
func (s *Service) PersonaStatistics(ctx context.Context) (PersonaStats, error) {
	personas, err := s.Personas(ctx)
	if err != nil {
		return PersonaStats{}, err
	}

	stats := PersonaStats{Total: len(personas)}
	usageSum := 0
	for _, persona := range personas {
		if persona.IsActive {
			stats.Active++
		}
		usageSum += persona.UsageCount
		if persona.UsageCount > 0 && (stats.MostUsed == nil || persona.UsageCount > stats.MostUsed.UsageCount) {
			stats.MostUsed = &PersonaUsage{Name: persona.Name, UsageCount: persona.UsageCount}
		}
	}
	stats.Inactive = stats.Total - stats.Active
	if stats.Total > 0 {
		stats.AverageUsage = math.Round(float64(usageSum)/float64(stats.Total)*100) / 100
	}
	return stats, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"query_timeout_ms": s.queryTimeout.Milliseconds(),
	}

	if !s.started {
		return stats
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	if refs, err := s.training.All(ctx); err == nil {
		stats["training_references"] = len(refs)
		metrics.UpdateTrainingReferences(len(refs))
	}
	if sprites, err := s.sprites.ListSprites(ctx); err == nil {
		stats["sprites"] = len(sprites)
		metrics.UpdateSpritesStored(len(sprites))
	}
	if personas, err := s.personas.ListPersonas(ctx); err == nil {
		stats["personas"] = len(personas)
		metrics.UpdatePersonasStored(len(personas))
	}

	return stats
}

// mapTimeout converts deadline errors into the retry-safe store timeout
// kind and counts them.
func mapTimeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrTimeout) {
		metrics.RecordStoreTimeout()
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		metrics.RecordStoreTimeout()
		return fmt.Errorf("%w: %v", repository.ErrTimeout, err)
	}
	return err
}

// timedTrainingSource bounds training queries with the service query
// timeout. It satisfies the training source contracts of the enhance,
// quality and recommend packages.
type timedTrainingSource struct {
	store   repository.TrainingStore
	timeout time.Duration
}

func (t *timedTrainingSource) All(ctx context.Context) ([]model.TrainingReference, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	refs, err := t.store.All(ctx)
	return refs, mapTimeout(err)
}

func (t *timedTrainingSource) QueryByCharacter(ctx context.Context, name string) ([]model.TrainingReference, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	refs, err := t.store.QueryByCharacter(ctx, name)
	return refs, mapTimeout(err)
}

// timedSpriteSource bounds sprite lookups with the service query
// timeout.
type timedSpriteSource struct {
	store   repository.SpriteStore
	timeout time.Duration
}

func (t *timedSpriteSource) SpriteByID(ctx context.Context, id string) (model.Sprite, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	sprite, err := t.store.SpriteByID(ctx, id)
	return sprite, mapTimeout(err)
}
