package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/yetog/spritegen/internal/adapters/repository"
	service "github.com/yetog/spritegen/internal/app"
	"github.com/yetog/spritegen/internal/domain/model"
	"github.com/yetog/spritegen/internal/domain/quality"
	"github.com/yetog/spritegen/internal/tools"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeGenerator struct {
	prompt     string
	textPrompt string
}

func (f *fakeGenerator) GenerateImage(_ context.Context, prompt string) ([]byte, error) {
	f.prompt = prompt
	return []byte("sprite-bytes"), nil
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.textPrompt = prompt
	return "reply to: " + prompt, nil
}

// slowTrainingStore blocks until the caller's deadline fires.
type slowTrainingStore struct{}

func (s *slowTrainingStore) All(ctx context.Context) ([]model.TrainingReference, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *slowTrainingStore) QueryByCharacter(ctx context.Context, _ string) ([]model.TrainingReference, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *slowTrainingStore) AddReference(_ context.Context, ref model.TrainingReference) (model.TrainingReference, error) {
	return ref, nil
}

func (s *slowTrainingStore) DeleteReference(_ context.Context, _ string) error {
	return nil
}

func startedService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("failed to start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service seeded with Knight references", t, func() {
		store := repository.NewMemoryStore(repository.WithSeedReferences(
			model.TrainingReference{
				ID:        "r1",
				Character: "Knight",
				Pose:      "idle",
				StyleTags: []string{"pixel", "16-bit"},
				Prompt:    "a pixel knight standing guard",
				Rating:    5,
			},
		))
		gen := &fakeGenerator{}
		svc := startedService(t,
			service.WithTrainingStore(store),
			service.WithSpriteStore(store),
			service.WithPersonaStore(store),
			service.WithGenerator(gen),
		)

		Convey("When executing generate_sprite", func() {
			env, err := svc.Execute(ctx, tools.Invocation{
				ToolName:   "generate_sprite",
				Parameters: map[string]any{"character": "Knight", "pose": "idle"},
			})
			So(err, ShouldBeNil)
			So(env.Error, ShouldBeNil)

			result, ok := env.Result.(tools.GenerateSpriteResult)
			So(ok, ShouldBeTrue)

			Convey("Then the prompt carries training tags and an image comes back", func() {
				So(result.EnhancedPrompt, ShouldContainSubstring, "a sprite of Knight")
				So(result.EnhancedPrompt, ShouldContainSubstring, "pixel")
				So(result.ImageBase64, ShouldNotBeEmpty)
				So(result.SpriteID, ShouldNotBeEmpty)
			})
		})

		Convey("When executing enhance_prompt twice", func() {
			inv := tools.Invocation{
				ToolName:   "enhance_prompt",
				Parameters: map[string]any{"prompt": "a brave Knight"},
			}
			first, err := svc.Execute(ctx, inv)
			So(err, ShouldBeNil)
			second, err := svc.Execute(ctx, inv)
			So(err, ShouldBeNil)

			Convey("Then enhancement is deterministic", func() {
				a, ok := first.Result.(tools.EnhancePromptResult)
				So(ok, ShouldBeTrue)
				b, ok := second.Result.(tools.EnhancePromptResult)
				So(ok, ShouldBeTrue)
				So(a.EnhancedPrompt, ShouldEqual, b.EnhancedPrompt)
				So(a.OriginalPrompt, ShouldEqual, "a brave Knight")
			})
		})

		Convey("When analyzing a stored sprite", func() {
			sprite, err := store.PutSprite(ctx, model.Sprite{Character: "Knight", Rating: 5})
			So(err, ShouldBeNil)

			env, err := svc.Execute(ctx, tools.Invocation{
				ToolName:   "analyze_sprite_quality",
				Parameters: map[string]any{"sprite_id": sprite.ID},
			})
			So(err, ShouldBeNil)
			So(env.Error, ShouldBeNil)

			report, ok := env.Result.(quality.Report)
			So(ok, ShouldBeTrue)

			Convey("Then the sprite rates on par with the references", func() {
				So(report.Verdict, ShouldEqual, quality.VerdictOnParOrBetter)
			})
		})

		Convey("When analyzing an unknown sprite", func() {
			env, err := svc.Execute(ctx, tools.Invocation{
				ToolName:   "analyze_sprite_quality",
				Parameters: map[string]any{"sprite_id": "missing"},
			})

			Convey("Then the failure is rendered into the envelope", func() {
				So(err, ShouldBeNil)
				So(env.Error, ShouldNotBeNil)
				So(*env.Error, ShouldContainSubstring, "not found")
			})
		})

		Convey("When requesting style recommendations", func() {
			env, err := svc.Execute(ctx, tools.Invocation{
				ToolName:   "get_style_recommendations",
				Parameters: map[string]any{"character": "Knight"},
			})
			So(err, ShouldBeNil)
			So(env.Error, ShouldBeNil)

			result, ok := env.Result.(tools.StyleRecommendationsResult)
			So(ok, ShouldBeTrue)

			Convey("Then the reference tags are ranked", func() {
				So(len(result.Recommendations), ShouldEqual, 2)
				So(result.Recommendations[0].Tag, ShouldEqual, "16-bit")
				So(result.Recommendations[1].Tag, ShouldEqual, "pixel")
			})
		})

		Convey("When invoking an unknown tool", func() {
			_, err := svc.Execute(ctx, tools.Invocation{ToolName: "repaint"})

			Convey("Then validation fails before any component runs", func() {
				So(err, ShouldWrap, tools.ErrUnknownTool)
			})
		})
	})
}

func TestChat(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a text model and Knight references", t, func() {
		store := repository.NewMemoryStore(repository.WithSeedReferences(
			model.TrainingReference{
				ID:        "r1",
				Character: "Knight",
				StyleTags: []string{"pixel", "16-bit"},
				Prompt:    "a pixel knight standing guard",
				Rating:    5,
			},
		))
		gen := &fakeGenerator{}
		svc := startedService(t,
			service.WithTrainingStore(store),
			service.WithGenerator(gen),
		)

		Convey("When chatting with training data enabled", func() {
			out, err := svc.Chat(ctx, "a brave Knight", true)
			So(err, ShouldBeNil)

			Convey("Then the model sees the enriched prompt", func() {
				So(gen.textPrompt, ShouldStartWith, "a brave Knight")
				So(gen.textPrompt, ShouldContainSubstring, "pixel")
				So(out, ShouldStartWith, "reply to:")
			})
		})

		Convey("When chatting with training data disabled", func() {
			_, err := svc.Chat(ctx, "a brave Knight", false)
			So(err, ShouldBeNil)

			Convey("Then the raw prompt goes through unchanged", func() {
				So(gen.textPrompt, ShouldEqual, "a brave Knight")
			})
		})

		Convey("When the prompt is blank", func() {
			_, err := svc.Chat(ctx, "   ", true)

			Convey("Then the chat is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a service with enrichment backed by a failing store", t, func() {
		gen := &fakeGenerator{}
		svc := startedService(t,
			service.WithTrainingStore(&slowTrainingStore{}),
			service.WithGenerator(gen),
			service.WithQueryTimeout(10*time.Millisecond),
		)

		Convey("When chatting with training data enabled", func() {
			out, err := svc.Chat(ctx, "a brave Knight", true)

			Convey("Then the raw prompt still reaches the model", func() {
				So(err, ShouldBeNil)
				So(gen.textPrompt, ShouldEqual, "a brave Knight")
				So(out, ShouldStartWith, "reply to:")
			})
		})
	})

	Convey("Given a service without a model client", t, func() {
		svc := startedService(t)

		Convey("When chatting", func() {
			_, err := svc.Chat(ctx, "hello", false)

			Convey("Then the unavailable kind surfaces", func() {
				So(err, ShouldWrap, service.ErrGenerationUnavailable)
			})
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("When chatting", func() {
			_, err := svc.Chat(ctx, "hello", false)

			Convey("Then the not-started kind surfaces", func() {
				So(err, ShouldWrap, service.ErrNotStarted)
			})
		})
	})
}

func TestQueryTimeout(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service over a store that never answers", t, func() {
		svc := startedService(t,
			service.WithTrainingStore(&slowTrainingStore{}),
			service.WithQueryTimeout(20*time.Millisecond),
		)

		Convey("When listing training data", func() {
			_, err := svc.TrainingData(ctx)

			Convey("Then the timeout kind surfaces", func() {
				So(err, ShouldWrap, repository.ErrTimeout)
			})
		})

		Convey("When a tool depends on the slow store", func() {
			env, err := svc.Execute(ctx, tools.Invocation{
				ToolName:   "enhance_prompt",
				Parameters: map[string]any{"prompt": "a knight"},
			})

			Convey("Then the timeout is caught into the envelope", func() {
				So(err, ShouldBeNil)
				So(env.Error, ShouldNotBeNil)
				So(*env.Error, ShouldContainSubstring, "timed out")
			})
		})
	})
}

func TestStoreOperations(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service with default stores", t, func() {
		svc := startedService(t)

		Convey("When saving and rating a sprite", func() {
			sprite, err := svc.SaveSprite(ctx, model.Sprite{Character: "Mage"})
			So(err, ShouldBeNil)

			rated, err := svc.RateSprite(ctx, sprite.ID, 4, "good silhouette")
			So(err, ShouldBeNil)
			So(rated.Rating, ShouldEqual, 4)

			Convey("Then statistics reflect the rating", func() {
				stats, err := svc.SpriteStatistics(ctx)
				So(err, ShouldBeNil)
				So(stats.Total, ShouldEqual, 1)
				So(stats.Rated, ShouldEqual, 1)
				So(stats.AverageRating, ShouldEqual, 4.0)
			})
		})

		Convey("When ingesting training data without style tags", func() {
			_, err := svc.AddTrainingReference(ctx, model.TrainingReference{Character: "Mage"})

			Convey("Then the invariant rejects it", func() {
				So(err, ShouldWrap, repository.ErrMissingStyleTags)
			})
		})

		Convey("When saving a persona", func() {
			persona, err := svc.SavePersona(ctx, model.Persona{Name: "Retro", IsActive: true})
			So(err, ShouldBeNil)
			So(persona.ID, ShouldNotBeEmpty)

			personas, err := svc.Personas(ctx)
			So(err, ShouldBeNil)
			So(len(personas), ShouldEqual, 1)
		})

		Convey("When rating a sprite generated under a persona", func() {
			persona, err := svc.SavePersona(ctx, model.Persona{Name: "Retro", IsActive: true})
			So(err, ShouldBeNil)

			sprite, err := svc.SaveSprite(ctx, model.Sprite{Character: "Mage", PersonaID: persona.ID})
			So(err, ShouldBeNil)

			_, err = svc.RateSprite(ctx, sprite.ID, 5, "")
			So(err, ShouldBeNil)

			_, err = svc.SaveSprite(ctx, model.Sprite{Character: "Mage", PersonaID: persona.ID, Rating: 4})
			So(err, ShouldBeNil)

			Convey("Then the persona average follows its rated sprites", func() {
				got, err := svc.PersonaByID(ctx, persona.ID)
				So(err, ShouldBeNil)
				So(got.AverageRating, ShouldEqual, 4.5)
			})
		})

		Convey("When fetching service stats", func() {
			stats := svc.GetStats()

			Convey("Then inventory counters are present", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats, ShouldContainKey, "sprites")
				So(stats, ShouldContainKey, "training_references")
				So(stats, ShouldContainKey, "personas")
			})
		})
	})
}

func TestPersonaLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service with one persona", t, func() {
		svc := startedService(t)
		persona, err := svc.SavePersona(ctx, model.Persona{
			Name:      "Retro Console",
			StyleTags: []string{"16-bit"},
			IsActive:  true,
		})
		So(err, ShouldBeNil)

		Convey("When updating its editable fields", func() {
			updated, err := svc.UpdatePersona(ctx, persona.ID, model.Persona{
				Name:        "Retro Console",
				Description: "chunky pixels",
				StyleTags:   []string{"16-bit", "pixel"},
				IsActive:    false,
			})
			So(err, ShouldBeNil)

			Convey("Then identity and derived fields survive the update", func() {
				So(updated.ID, ShouldEqual, persona.ID)
				So(updated.Description, ShouldEqual, "chunky pixels")
				So(updated.IsActive, ShouldBeFalse)
				So(updated.CreatedAt.Equal(persona.CreatedAt), ShouldBeTrue)
				So(updated.UsageCount, ShouldEqual, persona.UsageCount)
			})
		})

		Convey("When toggling it twice", func() {
			once, err := svc.TogglePersona(ctx, persona.ID)
			So(err, ShouldBeNil)
			twice, err := svc.TogglePersona(ctx, persona.ID)
			So(err, ShouldBeNil)

			Convey("Then the active flag flips each time", func() {
				So(once.IsActive, ShouldBeFalse)
				So(twice.IsActive, ShouldBeTrue)
			})
		})

		Convey("When deleting it", func() {
			So(svc.DeletePersona(ctx, persona.ID), ShouldBeNil)

			Convey("Then it can no longer be fetched", func() {
				_, err := svc.PersonaByID(ctx, persona.ID)
				So(err, ShouldWrap, repository.ErrNotFound)
			})
		})

		Convey("When generating a sprite under the persona", func() {
			gen := &fakeGenerator{}
			store := repository.NewMemoryStore()
			seeded, err := store.PutPersona(ctx, model.Persona{Name: "Painterly", IsActive: true})
			So(err, ShouldBeNil)

			withGen := startedService(t,
				service.WithTrainingStore(store),
				service.WithSpriteStore(store),
				service.WithPersonaStore(store),
				service.WithGenerator(gen),
			)
			_, err = withGen.Execute(ctx, tools.Invocation{
				ToolName: "generate_sprite",
				Parameters: map[string]any{
					"character":  "Mage",
					"persona_id": seeded.ID,
				},
			})
			So(err, ShouldBeNil)

			Convey("Then the persona usage counter advances", func() {
				got, err := withGen.PersonaByID(ctx, seeded.ID)
				So(err, ShouldBeNil)
				So(got.UsageCount, ShouldEqual, 1)
			})
		})

		Convey("When computing persona statistics", func() {
			_, err := svc.SavePersona(ctx, model.Persona{Name: "Noir", IsActive: false})
			So(err, ShouldBeNil)

			stats, err := svc.PersonaStatistics(ctx)
			So(err, ShouldBeNil)

			Convey("Then counts split by active flag", func() {
				So(stats.Total, ShouldEqual, 2)
				So(stats.Active, ShouldEqual, 1)
				So(stats.Inactive, ShouldEqual, 1)
				So(stats.MostUsed, ShouldBeNil)
				So(stats.AverageUsage, ShouldEqual, 0.0)
			})
		})
	})
}
