package probe

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/yetog/spritegen/pkg/logger"
)

// fixtureImage is a 1x1 placeholder payload; stores only require a
// non-empty image.
var fixtureImage = base64.StdEncoding.EncodeToString([]byte{0x89, 0x50, 0x4e, 0x47}) //nolint:gochecknoglobals // shared fixture payload

// Fixtures returns the training references seeded before the tool runs.
// Characters repeat style tags so the recommendation ordering check has
// deterministic counts to assert against.
func Fixtures() []Fixture {
	return []Fixture{
		{
			Character: "Knight",
			Pose:      "standing",
			StyleTags: []string{"pixel", "16-bit"},
			Prompt:    "a pixel knight standing guard with a tower shield",
			Rating:    5,
		},
		{
			Character: "Knight",
			Pose:      "attacking",
			StyleTags: []string{"pixel"},
			Prompt:    "a pixel knight mid swing, sparks on the blade",
			Rating:    4,
		},
		{
			Character: "Mage",
			Pose:      "casting",
			StyleTags: []string{"hand-drawn", "painterly"},
			Prompt:    "a hand-drawn mage casting a rune circle",
			Rating:    4,
		},
		{
			Character: "Rogue",
			Pose:      "crouching",
			StyleTags: []string{"pixel", "noir"},
			Prompt:    "a pixel rogue crouching in long shadows",
			Rating:    3,
		},
	}
}

// seedFixtures uploads the fixture references and returns the stored
// IDs for later cleanup.
func seedFixtures(ctx context.Context, client *HTTPClient, config *Config, stats *Stats) ([]string, error) {
	log := logger.Get()
	fixtures := Fixtures()
	log.Info(ctx, "seeding training references", logger.Int("count", len(fixtures)))

	ids := make([]string, 0, len(fixtures))
	for _, fixture := range fixtures {
		body := map[string]any{
			"character":    fixture.Character,
			"pose":         fixture.Pose,
			"style_tags":   fixture.StyleTags,
			"prompt":       fixture.Prompt,
			"rating":       fixture.Rating,
			"image_base64": fixtureImage,
		}

		var stored storedReference
		if err := client.postJSON(ctx, config.BaseURL+"/training-data", body, &stored, http.StatusCreated); err != nil {
			return ids, fmt.Errorf("failed to seed reference for %s: %w", fixture.Character, err)
		}
		ids = append(ids, stored.ID)

		if config.Verbose {
			log.Debug(ctx, "seeded reference",
				logger.String("id", stored.ID),
				logger.String("character", fixture.Character))
		}
	}

	stats.FixturesSeeded = len(ids)
	return ids, nil
}

// seedSprite stores one sprite so analyze_sprite_quality has a target.
func seedSprite(ctx context.Context, client *HTTPClient, config *Config) (string, error) {
	body := map[string]any{
		"character":    "Knight",
		"pose":         "standing",
		"style":        "pixel",
		"rating":       4,
		"image_base64": fixtureImage,
	}

	var stored storedSprite
	if err := client.postJSON(ctx, config.BaseURL+"/sprites", body, &stored, http.StatusCreated); err != nil {
		return "", fmt.Errorf("failed to seed sprite: %w", err)
	}
	return stored.ID, nil
}

// cleanupFixtures deletes the seeded references and sprite. Failures
// are logged and skipped so one stale row does not fail the probe.
func cleanupFixtures(ctx context.Context, client *HTTPClient, config *Config, referenceIDs []string, spriteID string) {
	log := logger.Get()

	for _, id := range referenceIDs {
		resp, err := client.Delete(ctx, config.BaseURL+"/training-data/"+id)
		if err != nil {
			log.Warn(ctx, "failed to delete reference", logger.String("id", id), logger.Error(err))
			continue
		}
		_, _ = readResponseBody(resp)
	}

	if spriteID != "" {
		resp, err := client.Delete(ctx, config.BaseURL+"/sprites/"+spriteID)
		if err != nil {
			log.Warn(ctx, "failed to delete sprite", logger.String("id", spriteID), logger.Error(err))
			return
		}
		_, _ = readResponseBody(resp)
	}

	log.Info(ctx, "cleaned up seeded fixtures", logger.Int("references", len(referenceIDs)))
}
