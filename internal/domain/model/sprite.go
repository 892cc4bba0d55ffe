package model

import "time"

// Sprite is a generated character sprite owned by the persistence layer.
// The core reads its fields to analyze quality against training data.
type Sprite struct {
	ID        string
	Character string
	Pose      string
	Style     string
	Image     []byte    // opaque image payload
	Rating    int       // 0 = unrated, 1-5 = rated
	Feedback  string    // optional free-form feedback
	PersonaID string    // optional persona the sprite was generated with
	CreatedAt time.Time
	UpdatedAt time.Time // zero until the sprite is first updated
}

// Rated reports whether the sprite has been rated by a user.
func (s Sprite) Rated() bool {
	return s.Rating > 0
}
