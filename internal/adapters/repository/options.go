package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/yetog/spritegen/internal/domain/model"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithSeedReferences preloads training references, useful for fixtures
// and the probe tool. Seeds bypass ingestion validation but still get
// ids and upload times assigned.
func WithSeedReferences(refs ...model.TrainingReference) Option {
	return func(s *MemoryStore) {
		for _, ref := range refs {
			if ref.ID == "" {
				ref.ID = uuid.NewString()
			}
			if ref.UploadedAt.IsZero() {
				ref.UploadedAt = time.Now().UTC()
			}
			s.references.Set(ref.ID, ref, cache.NoExpiration)
		}
	}
}

// WithSeedSprites preloads sprites.
func WithSeedSprites(sprites ...model.Sprite) Option {
	return func(s *MemoryStore) {
		for _, sprite := range sprites {
			if sprite.ID == "" {
				sprite.ID = uuid.NewString()
			}
			if sprite.CreatedAt.IsZero() {
				sprite.CreatedAt = time.Now().UTC()
			}
			s.sprites.Set(sprite.ID, sprite, cache.NoExpiration)
		}
	}
}

// WithSeedPersonas preloads personas.
func WithSeedPersonas(personas ...model.Persona) Option {
	return func(s *MemoryStore) {
		for _, persona := range personas {
			if persona.ID == "" {
				persona.ID = uuid.NewString()
			}
			if persona.CreatedAt.IsZero() {
				persona.CreatedAt = time.Now().UTC()
			}
			s.personas.Set(persona.ID, persona, cache.NoExpiration)
		}
	}
}
