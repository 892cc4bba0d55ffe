// Package matching scores training references against a generation target.
//
// All scoring is a pure function of its inputs: lowercase word tokens,
// Jaccard similarity, and a weighted blend of character, style and pose
// partial scores. No store or network concern leaks into this package so
// the normalization rules stay unit-testable on their own.
package matching

import (
	"sort"
	"strings"
	"unicode"

	"github.com/yetog/spritegen/internal/domain/model"
)

// Default matcher configuration constants. The weights are deliberate
// defaults, not fixed law; they are overridable through options and config.
const (
	defaultCharacterWeight = 0.5
	defaultStyleWeight     = 0.35
	defaultPoseWeight      = 0.15
	defaultTopK            = 3

	// neutralPoseScore applies when either side omits the pose. Pose is
	// optional and must not veto an otherwise good match.
	neutralPoseScore = 0.5
)

// Match pairs a training reference with its similarity score in [0,1].
// Matches are transient; they are never persisted.
type Match struct {
	Reference model.TrainingReference
	Score     float64
}

// Matcher computes similarity between a generation target and training
// references. It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	characterWeight float64
	styleWeight     float64
	poseWeight      float64
	topK            int
}

// New creates a Matcher with configuration options.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		characterWeight: defaultCharacterWeight,
		styleWeight:     defaultStyleWeight,
		poseWeight:      defaultPoseWeight,
		topK:            defaultTopK,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// TopK returns the configured number of matches kept by TopMatches.
func (m *Matcher) TopK() int {
	return m.topK
}

// Score computes the combined similarity score for a single reference.
// The result is always within [0,1].
func (m *Matcher) Score(target model.GenerationRequest, ref model.TrainingReference) float64 {
	character := CharacterScore(target.Character, ref.Character)
	style := styleScore(target.Style, ref.StyleTags)
	pose := poseScore(target.Pose, ref.Pose)

	score := m.characterWeight*character + m.styleWeight*style + m.poseWeight*pose
	return clamp01(score)
}

// TopMatches scores every reference against the target and returns up to
// topK matches with score > 0, best first. Ties are broken by rating,
// then upload recency, then id for full determinism. An empty result is
// a normal outcome, not a failure.
func (m *Matcher) TopMatches(target model.GenerationRequest, refs []model.TrainingReference) []Match {
	matches := make([]Match, 0, len(refs))
	for _, ref := range refs {
		if score := m.Score(target, ref); score > 0 {
			matches = append(matches, Match{Reference: ref, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Reference.Rating != b.Reference.Rating {
			return a.Reference.Rating > b.Reference.Rating
		}
		if !a.Reference.UploadedAt.Equal(b.Reference.UploadedAt) {
			return a.Reference.UploadedAt.After(b.Reference.UploadedAt)
		}
		return a.Reference.ID < b.Reference.ID
	})

	if len(matches) > m.topK {
		matches = matches[:m.topK]
	}
	return matches
}

// CharacterScore compares two character names: 1.0 on a case-insensitive
// exact match, otherwise the Jaccard similarity of their token sets, and
// 0 when either side is empty.
func CharacterScore(target, candidate string) float64 {
	target = strings.TrimSpace(target)
	candidate = strings.TrimSpace(candidate)
	if target == "" || candidate == "" {
		return 0
	}
	if strings.EqualFold(target, candidate) {
		return 1.0
	}
	return jaccard(Tokenize(target), Tokenize(candidate))
}

// styleScore compares the target's free-text style against a reference's
// style tags. A target without a style contributes nothing.
func styleScore(style string, tags []string) float64 {
	targetTokens := Tokenize(style)
	if len(targetTokens) == 0 {
		return 0
	}
	tagTokens := make(tokenSet)
	for _, tag := range tags {
		for token := range Tokenize(tag) {
			tagTokens[token] = struct{}{}
		}
	}
	return jaccard(targetTokens, tagTokens)
}

// poseScore compares poses. Both present and equal (or sharing any token)
// scores 1.0; a missing pose on either side is neutral.
func poseScore(target, candidate string) float64 {
	target = strings.TrimSpace(target)
	candidate = strings.TrimSpace(candidate)
	if target == "" || candidate == "" {
		return neutralPoseScore
	}
	if strings.EqualFold(target, candidate) {
		return 1.0
	}
	if overlap(Tokenize(target), Tokenize(candidate)) > 0 {
		return 1.0
	}
	return 0
}

// tokenSet is a set of lowercase word tokens.
type tokenSet map[string]struct{}

// Tokenize splits s into a set of lowercase tokens on non-alphanumeric
// boundaries.
func Tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(tokenSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// TokenOverlap reports how many tokens two strings share after
// normalization. Exposed for callers that only need a yes/no overlap rule.
func TokenOverlap(a, b string) int {
	return overlap(Tokenize(a), Tokenize(b))
}

func overlap(a, b tokenSet) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for token := range a {
		if _, ok := b[token]; ok {
			n++
		}
	}
	return n
}

func jaccard(a, b tokenSet) float64 {
	union := len(a) + len(b)
	inter := overlap(a, b)
	union -= inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
