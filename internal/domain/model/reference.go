// Package model contains domain models passed between layers.
package model

import "time"

// TrainingReference is a curated, tagged example sprite used for
// retrieval and matching. It is immutable after creation; the core only
// reads it.
type TrainingReference struct {
	ID            string    // store-assigned identifier
	Character     string    // character name, e.g. "Mage"
	Pose          string    // optional pose description
	StyleTags     []string  // style descriptors; never empty for a valid reference
	CharacterTags []string  // character attributes; may be empty
	Prompt        string    // the generation prompt that produced the reference
	Rating        int       // 1-5, 0 when unset
	Image         []byte    // opaque image payload; not interpreted by the core
	UploadedAt    time.Time // ingestion timestamp
}

// Rated reports whether the reference carries an explicit rating.
func (r TrainingReference) Rated() bool {
	return r.Rating > 0
}

// GenerationRequest describes a single sprite generation target. It is
// constructed per call and never persisted.
type GenerationRequest struct {
	Character string // required, non-empty after trimming
	Pose      string // optional
	Style     string // optional
}
