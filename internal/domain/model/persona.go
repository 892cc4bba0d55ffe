package model

import "time"

// Persona captures a reusable visual identity that can be blended into
// generation prompts. Personas are optional: tools that accept a
// persona_id treat an unknown id as "no persona".
type Persona struct {
	ID             string
	Name           string
	Description    string
	StyleTags      []string
	CharacterTags  []string
	ExamplePrompts []string
	IsActive       bool
	UsageCount     int
	AverageRating  float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
