// Package repository defines the document store interfaces and the
// in-memory implementation backing them.
package repository

import (
	"context"

	"github.com/yetog/spritegen/internal/domain/model"
)

// TrainingStore provides access to curated training references. Read
// queries return an empty slice, never an error, when no data exists.
type TrainingStore interface {
	// All returns every training reference, most recently uploaded first.
	All(ctx context.Context) ([]model.TrainingReference, error)

	// QueryByCharacter returns references whose character matches name
	// case-insensitively.
	QueryByCharacter(ctx context.Context, name string) ([]model.TrainingReference, error)

	// AddReference stores a new reference, assigning its id and upload
	// time. References without style tags are rejected.
	AddReference(ctx context.Context, ref model.TrainingReference) (model.TrainingReference, error)

	// DeleteReference removes a reference by id.
	DeleteReference(ctx context.Context, id string) error
}

// SpriteStore provides access to generated sprites.
type SpriteStore interface {
	// SpriteByID returns the sprite with the given id or ErrNotFound.
	SpriteByID(ctx context.Context, id string) (model.Sprite, error)

	// PutSprite stores a sprite, assigning an id when absent.
	PutSprite(ctx context.Context, s model.Sprite) (model.Sprite, error)

	// ListSprites returns every sprite, most recently created first.
	ListSprites(ctx context.Context) ([]model.Sprite, error)

	// UpdateSpriteRating sets rating and feedback on an existing sprite.
	UpdateSpriteRating(ctx context.Context, id string, rating int, feedback string) (model.Sprite, error)

	// DeleteSprite removes a sprite by id.
	DeleteSprite(ctx context.Context, id string) error
}

// PersonaStore provides access to saved personas.
type PersonaStore interface {
	// PersonaByID returns the persona with the given id or ErrNotFound.
	PersonaByID(ctx context.Context, id string) (model.Persona, error)

	// PutPersona stores a persona, assigning an id when absent. Persona
	// names are unique; a clash yields ErrDuplicateName.
	PutPersona(ctx context.Context, p model.Persona) (model.Persona, error)

	// ListPersonas returns every persona, most recently created first.
	ListPersonas(ctx context.Context) ([]model.Persona, error)

	// DeletePersona removes a persona by id.
	DeletePersona(ctx context.Context, id string) error

	// RecordPersonaUse increments the persona usage counter.
	RecordPersonaUse(ctx context.Context, id string) error
}
