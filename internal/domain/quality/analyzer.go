// Package quality derives advisory quality verdicts for generated sprites.
//
// Analysis is deterministic text generation from stored metadata: the
// sprite's own rating is compared to the average rating of training
// references sharing its character. No model call is made here.
package quality

import (
	"context"
	"fmt"
	"strings"

	"github.com/yetog/spritegen/internal/domain/matching"
	"github.com/yetog/spritegen/internal/domain/model"
)

// Verdict values returned by Analyze. InsufficientData is a normal
// outcome, never an error.
const (
	VerdictInsufficientData = "insufficient-data"
	VerdictUnrated          = "unrated"
	VerdictOnParOrBetter    = "on-par-or-better"
	VerdictBelowReference   = "below-reference-quality"
)

// Default analyzer configuration constants.
const (
	defaultHighRatingThreshold = 4 // references at or above this rating drive suggestions
	defaultSuggestionCap       = 5
)

const insufficientDataSuggestion = "Upload reference images for this character to enable quality analysis"

// SpriteSource looks up sprites by id. Implementations return a not-found
// error for unknown ids.
type SpriteSource interface {
	SpriteByID(ctx context.Context, id string) (model.Sprite, error)
}

// TrainingSource supplies references comparable to a sprite.
type TrainingSource interface {
	QueryByCharacter(ctx context.Context, name string) ([]model.TrainingReference, error)
}

// Report is the outcome of a quality analysis.
type Report struct {
	SpriteID         string   `json:"sprite_id"`
	Verdict          string   `json:"verdict"`
	SpriteRating     int      `json:"sprite_rating"`
	ReferenceAverage float64  `json:"reference_average"`
	ReferenceCount   int      `json:"reference_count"`
	Suggestions      []string `json:"suggestions"`
}

// Analyzer computes quality reports from sprite and training metadata.
type Analyzer struct {
	sprites       SpriteSource
	training      TrainingSource
	highRating    int
	suggestionCap int
}

// New creates an Analyzer over the given sources.
func New(sprites SpriteSource, training TrainingSource, opts ...Option) *Analyzer {
	a := &Analyzer{
		sprites:       sprites,
		training:      training,
		highRating:    defaultHighRatingThreshold,
		suggestionCap: defaultSuggestionCap,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Analyze looks up the sprite and produces a verdict with suggestions.
// Identical inputs always yield an identical report.
func (a *Analyzer) Analyze(ctx context.Context, spriteID string) (Report, error) {
	sprite, err := a.sprites.SpriteByID(ctx, spriteID)
	if err != nil {
		return Report{}, fmt.Errorf("looking up sprite %q: %w", spriteID, err)
	}

	refs, err := a.training.QueryByCharacter(ctx, sprite.Character)
	if err != nil {
		return Report{}, fmt.Errorf("loading references for %q: %w", sprite.Character, err)
	}

	report := Report{
		SpriteID:     sprite.ID,
		SpriteRating: sprite.Rating,
		Suggestions:  []string{},
	}

	if len(refs) == 0 {
		report.Verdict = VerdictInsufficientData
		report.Suggestions = []string{insufficientDataSuggestion}
		return report, nil
	}

	report.ReferenceCount = len(refs)
	report.ReferenceAverage = averageRating(refs)

	switch {
	case !sprite.Rated():
		report.Verdict = VerdictUnrated
		report.Suggestions = []string{"Rate this sprite to compare it against your reference set"}
	case float64(sprite.Rating) >= report.ReferenceAverage:
		report.Verdict = VerdictOnParOrBetter
	default:
		report.Verdict = VerdictBelowReference
		report.Suggestions = a.missingStyleTags(sprite, refs)
	}

	return report, nil
}

// averageRating treats unset ratings as 0, per the comparison rule.
func averageRating(refs []model.TrainingReference) float64 {
	total := 0
	for _, ref := range refs {
		total += ref.Rating
	}
	return float64(total) / float64(len(refs))
}

// missingStyleTags collects style tags from highly rated references that
// the sprite's own style string does not mention, preserving reference
// order and capping the list.
func (a *Analyzer) missingStyleTags(sprite model.Sprite, refs []model.TrainingReference) []string {
	spriteTokens := matching.Tokenize(sprite.Style)
	seen := make(map[string]struct{})
	suggestions := []string{}

	for _, ref := range refs {
		if ref.Rating < a.highRating {
			continue
		}
		for _, tag := range ref.StyleTags {
			if len(suggestions) == a.suggestionCap {
				return suggestions
			}
			key := strings.ToLower(strings.TrimSpace(tag))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			if tagMentioned(key, spriteTokens) {
				continue
			}
			suggestions = append(suggestions, tag)
		}
	}
	return suggestions
}

// tagMentioned reports whether every token of the tag already appears in
// the sprite's style string.
func tagMentioned(tag string, spriteTokens map[string]struct{}) bool {
	tagTokens := matching.Tokenize(tag)
	if len(tagTokens) == 0 {
		return false
	}
	for token := range tagTokens {
		if _, ok := spriteTokens[token]; !ok {
			return false
		}
	}
	return true
}
