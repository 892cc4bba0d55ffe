package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/yetog/spritegen/internal/domain/model"
	"github.com/yetog/spritegen/pkg/metrics"
)

// MemoryStore implements TrainingStore, SpriteStore and PersonaStore on
// top of go-cache collections. Collections never expire; go-cache only
// provides the concurrent map underneath. All read results are sorted so
// queries stay deterministic for identical contents.
type MemoryStore struct {
	references *cache.Cache
	sprites    *cache.Cache
	personas   *cache.Cache
}

// NewMemoryStore creates an empty store, applying configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		references: cache.New(cache.NoExpiration, 0),
		sprites:    cache.New(cache.NoExpiration, 0),
		personas:   cache.New(cache.NoExpiration, 0),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// guard aborts a query when the caller's context is already done,
// translating a deadline into the retry-safe timeout kind.
func guard(ctx context.Context) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return fmt.Errorf("store query aborted: %w", err)
	}
}

// All returns every training reference, most recently uploaded first.
func (s *MemoryStore) All(ctx context.Context) ([]model.TrainingReference, error) {
	defer observeQuery(time.Now())
	if err := guard(ctx); err != nil {
		return nil, err
	}

	items := s.references.Items()
	refs := make([]model.TrainingReference, 0, len(items))
	for _, item := range items {
		if ref, ok := item.Object.(model.TrainingReference); ok {
			refs = append(refs, ref)
		}
	}
	sortReferences(refs)
	return refs, nil
}

// QueryByCharacter returns references whose character matches name
// case-insensitively. No data yields an empty slice, not an error.
func (s *MemoryStore) QueryByCharacter(ctx context.Context, name string) ([]model.TrainingReference, error) {
	defer observeQuery(time.Now())
	if err := guard(ctx); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	refs := make([]model.TrainingReference, 0)
	for _, item := range s.references.Items() {
		ref, ok := item.Object.(model.TrainingReference)
		if ok && strings.EqualFold(strings.TrimSpace(ref.Character), name) {
			refs = append(refs, ref)
		}
	}
	sortReferences(refs)
	return refs, nil
}

// AddReference stores a new training reference. The style-tag invariant
// is enforced here: a reference with no style tags cannot be matched and
// is rejected at ingestion.
func (s *MemoryStore) AddReference(ctx context.Context, ref model.TrainingReference) (model.TrainingReference, error) {
	if err := guard(ctx); err != nil {
		return model.TrainingReference{}, err
	}
	if len(ref.StyleTags) == 0 {
		return model.TrainingReference{}, ErrMissingStyleTags
	}
	if ref.Rating < 0 || ref.Rating > 5 {
		return model.TrainingReference{}, ErrInvalidRating
	}

	if ref.ID == "" {
		ref.ID = uuid.NewString()
	}
	if ref.UploadedAt.IsZero() {
		ref.UploadedAt = time.Now().UTC()
	}

	s.references.Set(ref.ID, ref, cache.NoExpiration)
	metrics.UpdateTrainingReferences(s.references.ItemCount())
	return ref, nil
}

// DeleteReference removes a reference by id.
func (s *MemoryStore) DeleteReference(ctx context.Context, id string) error {
	if err := guard(ctx); err != nil {
		return err
	}
	if _, ok := s.references.Get(id); !ok {
		return fmt.Errorf("reference %q: %w", id, ErrNotFound)
	}
	s.references.Delete(id)
	metrics.UpdateTrainingReferences(s.references.ItemCount())
	return nil
}

// SpriteByID returns the sprite with the given id.
func (s *MemoryStore) SpriteByID(ctx context.Context, id string) (model.Sprite, error) {
	defer observeQuery(time.Now())
	if err := guard(ctx); err != nil {
		return model.Sprite{}, err
	}

	obj, ok := s.sprites.Get(id)
	if !ok {
		return model.Sprite{}, fmt.Errorf("sprite %q: %w", id, ErrNotFound)
	}
	sprite, ok := obj.(model.Sprite)
	if !ok {
		return model.Sprite{}, fmt.Errorf("sprite %q: %w", id, ErrNotFound)
	}
	return sprite, nil
}

// PutSprite stores a sprite, assigning an id and creation time when absent.
func (s *MemoryStore) PutSprite(ctx context.Context, sprite model.Sprite) (model.Sprite, error) {
	if err := guard(ctx); err != nil {
		return model.Sprite{}, err
	}
	if sprite.Rating < 0 || sprite.Rating > 5 {
		return model.Sprite{}, ErrInvalidRating
	}

	if sprite.ID == "" {
		sprite.ID = uuid.NewString()
	}
	if sprite.CreatedAt.IsZero() {
		sprite.CreatedAt = time.Now().UTC()
	}

	s.sprites.Set(sprite.ID, sprite, cache.NoExpiration)
	metrics.UpdateSpritesStored(s.sprites.ItemCount())
	return sprite, nil
}

// ListSprites returns every sprite, most recently created first.
func (s *MemoryStore) ListSprites(ctx context.Context) ([]model.Sprite, error) {
	defer observeQuery(time.Now())
	if err := guard(ctx); err != nil {
		return nil, err
	}

	items := s.sprites.Items()
	sprites := make([]model.Sprite, 0, len(items))
	for _, item := range items {
		if sprite, ok := item.Object.(model.Sprite); ok {
			sprites = append(sprites, sprite)
		}
	}
	sort.SliceStable(sprites, func(i, j int) bool {
		if !sprites[i].CreatedAt.Equal(sprites[j].CreatedAt) {
			return sprites[i].CreatedAt.After(sprites[j].CreatedAt)
		}
		return sprites[i].ID < sprites[j].ID
	})
	return sprites, nil
}

// UpdateSpriteRating sets rating and feedback on an existing sprite.
func (s *MemoryStore) UpdateSpriteRating(ctx context.Context, id string, rating int, feedback string) (model.Sprite, error) {
	if err := guard(ctx); err != nil {
		return model.Sprite{}, err
	}
	if rating < 1 || rating > 5 {
		return model.Sprite{}, ErrInvalidRating
	}

	sprite, err := s.SpriteByID(ctx, id)
	if err != nil {
		return model.Sprite{}, err
	}
	sprite.Rating = rating
	sprite.Feedback = feedback
	sprite.UpdatedAt = time.Now().UTC()
	s.sprites.Set(sprite.ID, sprite, cache.NoExpiration)
	return sprite, nil
}

// DeleteSprite removes a sprite by id.
func (s *MemoryStore) DeleteSprite(ctx context.Context, id string) error {
	if err := guard(ctx); err != nil {
		return err
	}
	if _, ok := s.sprites.Get(id); !ok {
		return fmt.Errorf("sprite %q: %w", id, ErrNotFound)
	}
	s.sprites.Delete(id)
	metrics.UpdateSpritesStored(s.sprites.ItemCount())
	return nil
}

// PersonaByID returns the persona with the given id.
func (s *MemoryStore) PersonaByID(ctx context.Context, id string) (model.Persona, error) {
	defer observeQuery(time.Now())
	if err := guard(ctx); err != nil {
		return model.Persona{}, err
	}

	obj, ok := s.personas.Get(id)
	if !ok {
		return model.Persona{}, fmt.Errorf("persona %q: %w", id, ErrNotFound)
	}
	persona, ok := obj.(model.Persona)
	if !ok {
		return model.Persona{}, fmt.Errorf("persona %q: %w", id, ErrNotFound)
	}
	return persona, nil
}

// PutPersona stores a persona, assigning an id and timestamps when
// absent. Names are unique across personas, ignoring case.
func (s *MemoryStore) PutPersona(ctx context.Context, persona model.Persona) (model.Persona, error) {
	if err := guard(ctx); err != nil {
		return model.Persona{}, err
	}

	name := strings.TrimSpace(persona.Name)
	for _, item := range s.personas.Items() {
		other, ok := item.Object.(model.Persona)
		if ok && other.ID != persona.ID && strings.EqualFold(strings.TrimSpace(other.Name), name) {
			return model.Persona{}, fmt.Errorf("persona %q: %w", name, ErrDuplicateName)
		}
	}

	if persona.ID == "" {
		persona.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if persona.CreatedAt.IsZero() {
		persona.CreatedAt = now
	}
	persona.UpdatedAt = now

	s.personas.Set(persona.ID, persona, cache.NoExpiration)
	metrics.UpdatePersonasStored(s.personas.ItemCount())
	return persona, nil
}

// ListPersonas returns every persona, most recently created first.
func (s *MemoryStore) ListPersonas(ctx context.Context) ([]model.Persona, error) {
	defer observeQuery(time.Now())
	if err := guard(ctx); err != nil {
		return nil, err
	}

	items := s.personas.Items()
	personas := make([]model.Persona, 0, len(items))
	for _, item := range items {
		if persona, ok := item.Object.(model.Persona); ok {
			personas = append(personas, persona)
		}
	}
	sort.SliceStable(personas, func(i, j int) bool {
		if !personas[i].CreatedAt.Equal(personas[j].CreatedAt) {
			return personas[i].CreatedAt.After(personas[j].CreatedAt)
		}
		return personas[i].ID < personas[j].ID
	})
	return personas, nil
}

// DeletePersona removes a persona by id.
func (s *MemoryStore) DeletePersona(ctx context.Context, id string) error {
	if err := guard(ctx); err != nil {
		return err
	}
	if _, ok := s.personas.Get(id); !ok {
		return fmt.Errorf("persona %q: %w", id, ErrNotFound)
	}
	s.personas.Delete(id)
	metrics.UpdatePersonasStored(s.personas.ItemCount())
	return nil
}

// RecordPersonaUse increments the persona usage counter.
func (s *MemoryStore) RecordPersonaUse(ctx context.Context, id string) error {
	if err := guard(ctx); err != nil {
		return err
	}

	persona, err := s.PersonaByID(ctx, id)
	if err != nil {
		return err
	}
	persona.UsageCount++
	persona.UpdatedAt = time.Now().UTC()
	s.personas.Set(persona.ID, persona, cache.NoExpiration)
	return nil
}

// ReferenceCount returns the number of stored training references.
func (s *MemoryStore) ReferenceCount() int {
	return s.references.ItemCount()
}

// SpriteCount returns the number of stored sprites.
func (s *MemoryStore) SpriteCount() int {
	return s.sprites.ItemCount()
}

// PersonaCount returns the number of stored personas.
func (s *MemoryStore) PersonaCount() int {
	return s.personas.ItemCount()
}

func sortReferences(refs []model.TrainingReference) {
	sort.SliceStable(refs, func(i, j int) bool {
		if !refs[i].UploadedAt.Equal(refs[j].UploadedAt) {
			return refs[i].UploadedAt.After(refs[j].UploadedAt)
		}
		return refs[i].ID < refs[j].ID
	})
}

func observeQuery(start time.Time) {
	metrics.ObserveStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000.0)
}
