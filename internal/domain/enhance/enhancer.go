// Package enhance builds enriched generation prompts from training data.
//
// Enhancement is additive: with no training data the deterministic base
// prompt comes back unchanged. Re-enhancing an already enhanced prompt may
// append more clauses, so callers must pass the original raw request.
package enhance

import (
	"context"
	"fmt"
	"strings"

	"github.com/yetog/spritegen/internal/domain/matching"
	"github.com/yetog/spritegen/internal/domain/model"
)

// Default enhancer configuration constants.
const (
	defaultExcerptLimit       = 200 // max characters kept from an example prompt
	defaultMaxExamplePrompts  = 2
	qualityDirective          = "high quality sprite art"
)

// TrainingSource supplies the training corpus the enhancer matches
// against. Implementations must return an empty slice, not an error, when
// no data exists.
type TrainingSource interface {
	All(ctx context.Context) ([]model.TrainingReference, error)
}

// Enhancer turns generation requests into training-data-aware prompts.
type Enhancer struct {
	training    TrainingSource
	matcher     *matching.Matcher
	excerptLimit int
	maxExamples  int
}

// New creates an Enhancer backed by the given training source.
func New(training TrainingSource, opts ...Option) *Enhancer {
	e := &Enhancer{
		training:     training,
		matcher:      matching.New(),
		excerptLimit: defaultExcerptLimit,
		maxExamples:  defaultMaxExamplePrompts,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// BasePrompt renders the deterministic prompt for a request before any
// training data is considered.
func BasePrompt(req model.GenerationRequest) string {
	var b strings.Builder
	b.WriteString("a sprite of ")
	b.WriteString(strings.TrimSpace(req.Character))
	if pose := strings.TrimSpace(req.Pose); pose != "" {
		b.WriteString(", in ")
		b.WriteString(pose)
		b.WriteString(" pose")
	}
	if style := strings.TrimSpace(req.Style); style != "" {
		b.WriteString(", ")
		b.WriteString(style)
		b.WriteString(" style")
	}
	return b.String()
}

// Enhance builds the base prompt for req and appends a clause derived
// from the best-matching training references. It never degrades: with no
// matches the base prompt is returned as-is.
func (e *Enhancer) Enhance(ctx context.Context, req model.GenerationRequest) (string, error) {
	base := BasePrompt(req)

	refs, err := e.training.All(ctx)
	if err != nil {
		return "", fmt.Errorf("loading training references: %w", err)
	}

	matches := e.matcher.TopMatches(req, refs)
	if len(matches) == 0 {
		return base, nil
	}
	return base + e.trainingClause(matches), nil
}

// EnhancePrompt enriches a raw, free-form prompt. The prompt text itself
// is the match target: its tokens are compared against reference
// characters and tags, which keeps the operation meaningful without a
// structured request.
func (e *Enhancer) EnhancePrompt(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)

	refs, err := e.training.All(ctx)
	if err != nil {
		return "", fmt.Errorf("loading training references: %w", err)
	}

	target := model.GenerationRequest{Character: prompt, Style: prompt}
	matches := e.matcher.TopMatches(target, refs)
	if len(matches) == 0 {
		return prompt, nil
	}
	return prompt + e.trainingClause(matches), nil
}

// trainingClause renders the deterministic suffix for a non-empty match
// list: the deduplicated union of style and character tags in match-rank
// order, a fixed quality directive, and up to maxExamples example prompt
// excerpts from the highest-scoring matches.
func (e *Enhancer) trainingClause(matches []matching.Match) string {
	tags := collectTags(matches)

	var b strings.Builder
	if len(tags) > 0 {
		b.WriteString(", ")
		b.WriteString(strings.Join(tags, ", "))
	}
	b.WriteString(", ")
	b.WriteString(qualityDirective)

	excerpts := e.exampleExcerpts(matches)
	if len(excerpts) > 0 {
		b.WriteString(". Inspired by: ")
		b.WriteString(strings.Join(excerpts, "; "))
	}
	return b.String()
}

// collectTags walks matches best-first and gathers style tags then
// character tags, keeping first-seen spelling and dropping duplicates
// case-insensitively.
func collectTags(matches []matching.Match) []string {
	seen := make(map[string]struct{})
	var tags []string
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
	}
	for _, m := range matches {
		for _, tag := range m.Reference.StyleTags {
			add(tag)
		}
		for _, tag := range m.Reference.CharacterTags {
			add(tag)
		}
	}
	return tags
}

// exampleExcerpts returns quoted, length-bounded prompt excerpts from the
// best matches that carry a prompt.
func (e *Enhancer) exampleExcerpts(matches []matching.Match) []string {
	var excerpts []string
	for _, m := range matches {
		if len(excerpts) == e.maxExamples {
			break
		}
		prompt := strings.TrimSpace(m.Reference.Prompt)
		if prompt == "" {
			continue
		}
		excerpts = append(excerpts, `"`+truncate(prompt, e.excerptLimit)+`"`)
	}
	return excerpts
}

// truncate bounds s to limit runes to avoid runaway prompt size.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
