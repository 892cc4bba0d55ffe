package probe

import (
	"context"
	"fmt"

	"github.com/yetog/spritegen/pkg/logger"
)

// requiredTools maps each tool to the parameter it cannot run without.
var requiredTools = map[string]string{ //nolint:gochecknoglobals // static catalog expectations
	"generate_sprite":           "character",
	"enhance_prompt":            "prompt",
	"analyze_sprite_quality":    "sprite_id",
	"get_style_recommendations": "character",
}

// verifyCatalog checks that every tool is advertised with its required
// parameter.
func verifyCatalog(listing toolsResponse) error {
	byName := make(map[string]toolListing, len(listing.Tools))
	for _, tool := range listing.Tools {
		byName[tool.Name] = tool
	}

	for name, required := range requiredTools {
		tool, ok := byName[name]
		if !ok {
			return fmt.Errorf("tool %s missing from catalog", name)
		}
		param, ok := tool.Parameters[required]
		if !ok {
			return fmt.Errorf("tool %s missing parameter %s", name, required)
		}
		if !param.Required {
			return fmt.Errorf("tool %s parameter %s not marked required", name, required)
		}
	}

	if len(listing.Tools) != len(requiredTools) {
		return fmt.Errorf("expected %d tools, catalog lists %d", len(requiredTools), len(listing.Tools))
	}
	return nil
}

// verifyResults checks tool output consistency across the run.
func verifyResults(ctx context.Context, results *runResults, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "verifying results")

	if stats.ToolFailures > 0 {
		return fmt.Errorf("%d tool invocations failed", stats.ToolFailures)
	}

	if err := verifyDeterminism(results); err != nil {
		return err
	}
	log.Info(ctx, "enhancement determinism verified")

	if err := verifyRecommendations(results); err != nil {
		return err
	}
	log.Info(ctx, "recommendation ordering verified")

	if results.quality == nil {
		return fmt.Errorf("no quality report produced")
	}
	if results.quality.Verdict == "" {
		return fmt.Errorf("quality report missing verdict")
	}
	log.Info(ctx, "quality analysis verified", logger.String("verdict", results.quality.Verdict))

	log.Info(ctx, "result verification completed")
	return nil
}

// verifyDeterminism requires every enhancement round of a character to
// produce the same prompt. Identical inputs against unchanged training
// data must not drift.
func verifyDeterminism(results *runResults) error {
	if len(results.enhancements) == 0 {
		return fmt.Errorf("no enhancements to verify")
	}

	for character, runs := range results.enhancements {
		if len(runs) == 0 {
			return fmt.Errorf("no enhancement results for %s", character)
		}

		first := runs[0]
		if first.EnhancedPrompt == "" {
			return fmt.Errorf("empty enhanced prompt for %s", character)
		}

		for i, run := range runs[1:] {
			if run.EnhancedPrompt != first.EnhancedPrompt {
				return fmt.Errorf("enhancement drift for %s: round %d produced a different prompt", character, i+1)
			}
			if run.OriginalPrompt != first.OriginalPrompt {
				return fmt.Errorf("original prompt mismatch for %s", character)
			}
		}
	}
	return nil
}

// verifyRecommendations checks descending average rating order, count
// descending then tag ascending on ties, and that seeded tags surface
// for their character.
func verifyRecommendations(results *runResults) error {
	if len(results.recommendations) == 0 {
		return fmt.Errorf("no recommendations to verify")
	}

	for character, result := range results.recommendations {
		entries := result.Recommendations
		if len(entries) == 0 {
			return fmt.Errorf("no style recommendations for %s", character)
		}

		for i := 1; i < len(entries); i++ {
			prev, cur := entries[i-1], entries[i]
			if cur.AvgRating > prev.AvgRating {
				return fmt.Errorf("recommendations for %s not sorted by rating: %s before %s", character, prev.Tag, cur.Tag)
			}
			if cur.AvgRating == prev.AvgRating && cur.Count > prev.Count {
				return fmt.Errorf("recommendations for %s not sorted by count: %s before %s", character, prev.Tag, cur.Tag)
			}
			if cur.AvgRating == prev.AvgRating && cur.Count == prev.Count && cur.Tag < prev.Tag {
				return fmt.Errorf("recommendations for %s not tie-broken by tag: %s before %s", character, prev.Tag, cur.Tag)
			}
		}
	}

	// The 16-bit Knight fixture carries the only five star rating, so it
	// must lead.
	if knight, ok := results.recommendations["Knight"]; ok {
		if knight.Recommendations[0].Tag != "16-bit" {
			return fmt.Errorf("expected 16-bit to lead Knight recommendations, got %s", knight.Recommendations[0].Tag)
		}
	}
	return nil
}
