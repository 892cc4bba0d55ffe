package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yetog/spritegen/pkg/logger"
)

// generationUnavailable matches the envelope error returned when no
// image generator is wired. The probe treats it as a skip, not a
// failure, so runs against keyless instances still pass.
const generationUnavailable = "image generation unavailable"

// runResults collects tool responses across concurrent invocations.
type runResults struct {
	mu              sync.Mutex
	enhancements    map[string][]enhanceResult
	recommendations map[string]recommendationsResult
	quality         *qualityReport
}

// Run executes the complete probe.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}
	log := logger.Get()

	log.Info(ctx, "starting spritegen probe",
		logger.String("baseURL", config.BaseURL),
		logger.Int("rounds", config.Rounds),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Bool("cleanup", config.Cleanup))

	client := newHTTPClient(config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Verify the advertised tool catalog
	if err := checkToolCatalog(ctx, client, config); err != nil {
		return fmt.Errorf("tool catalog check failed: %w", err)
	}

	// Step 3: Seed training references and one sprite
	referenceIDs, err := seedFixtures(ctx, client, config, stats)
	if err != nil {
		return fmt.Errorf("fixture seeding failed: %w", err)
	}

	spriteID, err := seedSprite(ctx, client, config)
	if err != nil {
		return fmt.Errorf("sprite seeding failed: %w", err)
	}

	if config.Cleanup {
		defer cleanupFixtures(context.WithoutCancel(ctx), client, config, referenceIDs, spriteID)
	}

	// Step 4: Invoke the tools concurrently
	results, err := runTools(ctx, client, config, spriteID, stats)
	if err != nil {
		return fmt.Errorf("tool invocation failed: %w", err)
	}

	// Step 5: Verify results
	if err := verifyResults(ctx, results, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(ctx, stats)

	log.Info(ctx, "probe completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, config *Config) error {
	log := logger.Get()
	log.Info(ctx, "checking service health")

	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return fmt.Errorf("failed to read health response: %w", err)
	}

	// Accept any 200 response as healthy (the endpoint serves Prometheus metrics)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	log.Info(ctx, "service is healthy")
	return nil
}

// checkToolCatalog verifies all four tools are advertised with their
// required parameters.
func checkToolCatalog(ctx context.Context, client *HTTPClient, config *Config) error {
	var listing toolsResponse
	if err := client.getJSON(ctx, config.BaseURL+"/mcp/tools", &listing); err != nil {
		return err
	}
	return verifyCatalog(listing)
}

// runTools drives every tool against the seeded fixtures. Enhancement
// runs multiple rounds per character so determinism can be checked.
func runTools(ctx context.Context, client *HTTPClient, config *Config, spriteID string, stats *Stats) (*runResults, error) {
	log := logger.Get()

	results := &runResults{
		enhancements:    make(map[string][]enhanceResult),
		recommendations: make(map[string]recommendationsResult),
	}

	characters := make([]string, 0, len(Fixtures()))
	seen := make(map[string]bool)
	for _, fixture := range Fixtures() {
		if !seen[fixture.Character] {
			seen[fixture.Character] = true
			characters = append(characters, fixture.Character)
		}
	}

	log.Info(ctx, "invoking tools",
		logger.Int("characters", len(characters)),
		logger.Int("rounds", config.Rounds))

	var calls, failures int64
	countCall := func(env envelope) {
		results.mu.Lock()
		defer results.mu.Unlock()
		calls++
		if env.Error != nil && *env.Error != generationUnavailable {
			failures++
			log.Warn(ctx, "tool returned error",
				logger.String("tool", env.ToolName),
				logger.String("error", *env.Error))
		}
	}

	workers := config.Workers
	if workers <= 0 {
		workers = 1
	}
	rounds := config.Rounds
	if rounds <= 0 {
		rounds = 1
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	// Enhancement rounds per character.
	for _, character := range characters {
		prompt := fmt.Sprintf("a %s sprite in the house style", character)
		for round := 0; round < rounds; round++ {
			group.Go(func() error {
				env, err := client.execute(gctx, config.BaseURL, "enhance_prompt", map[string]any{
					"prompt": prompt,
				})
				if err != nil {
					return err
				}
				countCall(env)
				if env.Error != nil {
					return nil
				}

				var result enhanceResult
				if err := unmarshalResult(env, &result); err != nil {
					return err
				}
				results.mu.Lock()
				results.enhancements[character] = append(results.enhancements[character], result)
				results.mu.Unlock()
				return nil
			})
		}
	}

	// One recommendation call per character.
	for _, character := range characters {
		group.Go(func() error {
			env, err := client.execute(gctx, config.BaseURL, "get_style_recommendations", map[string]any{
				"character": character,
			})
			if err != nil {
				return err
			}
			countCall(env)
			if env.Error != nil {
				return nil
			}

			var result recommendationsResult
			if err := unmarshalResult(env, &result); err != nil {
				return err
			}
			results.mu.Lock()
			results.recommendations[character] = result
			results.mu.Unlock()
			return nil
		})
	}

	// One quality analysis against the seeded sprite.
	group.Go(func() error {
		env, err := client.execute(gctx, config.BaseURL, "analyze_sprite_quality", map[string]any{
			"sprite_id": spriteID,
		})
		if err != nil {
			return err
		}
		countCall(env)
		if env.Error != nil {
			return nil
		}

		var report qualityReport
		if err := unmarshalResult(env, &report); err != nil {
			return err
		}
		results.mu.Lock()
		results.quality = &report
		results.mu.Unlock()
		return nil
	})

	// One generation attempt. Keyless instances answer with a
	// generation-unavailable envelope, which counts as a skip.
	group.Go(func() error {
		env, err := client.execute(gctx, config.BaseURL, "generate_sprite", map[string]any{
			"character": "Knight",
			"pose":      "standing",
			"style":     "pixel",
		})
		if err != nil {
			return err
		}
		countCall(env)
		if env.Error != nil && *env.Error == generationUnavailable {
			results.mu.Lock()
			stats.GenerationSkipped = true
			results.mu.Unlock()
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	results.mu.Lock()
	stats.ToolCalls = int(calls)
	stats.ToolFailures = int(failures)
	for _, runs := range results.enhancements {
		stats.EnhancementsRun += len(runs)
	}
	stats.Recommendations = len(results.recommendations)
	if results.quality != nil {
		stats.QualityReports = 1
	}
	results.mu.Unlock()

	return results, nil
}

// unmarshalResult decodes the envelope result payload.
func unmarshalResult(env envelope, out interface{}) error {
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("failed to parse %s result: %w", env.ToolName, err)
	}
	return nil
}

// displayFinalStats logs the final probe statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "final statistics",
		logger.Int("fixturesSeeded", stats.FixturesSeeded),
		logger.Int("toolCalls", stats.ToolCalls),
		logger.Int("toolFailures", stats.ToolFailures),
		logger.Int("enhancementsRun", stats.EnhancementsRun),
		logger.Int("recommendations", stats.Recommendations),
		logger.Int("qualityReports", stats.QualityReports),
		logger.Bool("generationSkipped", stats.GenerationSkipped),
		logger.String("duration", stats.Duration.String()))
}
