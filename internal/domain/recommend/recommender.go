// Package recommend aggregates training references into ranked style tags.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/yetog/spritegen/internal/domain/matching"
	"github.com/yetog/spritegen/internal/domain/model"
)

// TrainingSource supplies the corpus the recommender aggregates over.
type TrainingSource interface {
	All(ctx context.Context) ([]model.TrainingReference, error)
}

// Recommendation is one ranked tag with its aggregate statistics.
type Recommendation struct {
	Tag       string  `json:"tag"`
	Count     int     `json:"count"`
	AvgRating float64 `json:"avg_rating"`
}

// Recommender proposes style and character tags for a character based on
// the training corpus. It is stateless and safe for concurrent use.
type Recommender struct {
	training TrainingSource
}

// New creates a Recommender over the given training source.
func New(training TrainingSource) *Recommender {
	return &Recommender{training: training}
}

// Recommend returns ranked tags for the character: primary key average
// rating descending, then occurrence count descending, then tag ascending
// so the order is fully deterministic. An empty result means no reference
// matched the character; that is not an error.
func (r *Recommender) Recommend(ctx context.Context, character string) ([]Recommendation, error) {
	refs, err := r.training.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading training references: %w", err)
	}

	filtered := filterByCharacter(character, refs)
	if len(filtered) == 0 {
		return []Recommendation{}, nil
	}

	type bucket struct {
		tag         string
		count       int
		ratingTotal int
	}
	buckets := make(map[string]*bucket)
	order := []string{}

	for _, ref := range filtered {
		// Each reference contributes to a tag at most once, even when the
		// tag appears in both tag sets.
		contributed := make(map[string]struct{})
		for _, tag := range append(append([]string{}, ref.StyleTags...), ref.CharacterTags...) {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			if _, done := contributed[key]; done {
				continue
			}
			contributed[key] = struct{}{}

			b, ok := buckets[key]
			if !ok {
				b = &bucket{tag: tag}
				buckets[key] = b
				order = append(order, key)
			}
			b.count++
			b.ratingTotal += ref.Rating
		}
	}

	recs := make([]Recommendation, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		recs = append(recs, Recommendation{
			Tag:       b.tag,
			Count:     b.count,
			AvgRating: float64(b.ratingTotal) / float64(b.count),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.AvgRating != b.AvgRating {
			return a.AvgRating > b.AvgRating
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return strings.ToLower(a.Tag) < strings.ToLower(b.Tag)
	})

	return recs, nil
}

// filterByCharacter keeps references whose character matches exactly
// (case-insensitive); when nothing matches exactly it falls back to token
// overlap, mirroring the matcher's character rule.
func filterByCharacter(character string, refs []model.TrainingReference) []model.TrainingReference {
	character = strings.TrimSpace(character)
	if character == "" {
		return nil
	}

	exact := make([]model.TrainingReference, 0, len(refs))
	for _, ref := range refs {
		if strings.EqualFold(strings.TrimSpace(ref.Character), character) {
			exact = append(exact, ref)
		}
	}
	if len(exact) > 0 {
		return exact
	}

	var fuzzy []model.TrainingReference
	for _, ref := range refs {
		if matching.TokenOverlap(character, ref.Character) > 0 {
			fuzzy = append(fuzzy, ref)
		}
	}
	return fuzzy
}
