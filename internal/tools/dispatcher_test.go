package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/yetog/spritegen/internal/domain/model"
	"github.com/yetog/spritegen/internal/domain/quality"
	"github.com/yetog/spritegen/internal/domain/recommend"
	"github.com/yetog/spritegen/internal/tools"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeEnhancer struct {
	enhanced string
	err      error
}

func (f *fakeEnhancer) Enhance(_ context.Context, req model.GenerationRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.enhanced != "" {
		return f.enhanced, nil
	}
	return "a sprite of " + req.Character, nil
}

func (f *fakeEnhancer) EnhancePrompt(_ context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.enhanced != "" {
		return f.enhanced, nil
	}
	return prompt, nil
}

type fakeAnalyzer struct {
	report quality.Report
	err    error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, spriteID string) (quality.Report, error) {
	if f.err != nil {
		return quality.Report{}, f.err
	}
	report := f.report
	report.SpriteID = spriteID
	return report, nil
}

type fakeRecommender struct {
	recs []recommend.Recommendation
	err  error
}

func (f *fakeRecommender) Recommend(_ context.Context, _ string) ([]recommend.Recommendation, error) {
	return f.recs, f.err
}

type fakeGenerator struct {
	image  []byte
	err    error
	prompt string
}

func (f *fakeGenerator) GenerateImage(_ context.Context, prompt string) ([]byte, error) {
	f.prompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return f.image, nil
}

type fakePersonas struct {
	persona model.Persona
	err     error
	used    []string
}

func (f *fakePersonas) PersonaByID(_ context.Context, _ string) (model.Persona, error) {
	return f.persona, f.err
}

func (f *fakePersonas) RecordPersonaUse(_ context.Context, id string) error {
	f.used = append(f.used, id)
	return nil
}

func newDispatcher(gen *fakeGenerator) *tools.Dispatcher {
	return tools.New(
		&fakeEnhancer{},
		&fakeAnalyzer{},
		&fakeRecommender{},
		tools.WithGenerator(gen),
	)
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	d := newDispatcher(&fakeGenerator{image: []byte("png")})

	Convey("Given an unknown tool name", t, func() {
		_, err := d.Dispatch(ctx, tools.Invocation{ToolName: "paint_sprite"})

		Convey("Then the unknown-tool kind surfaces", func() {
			So(err, ShouldWrap, tools.ErrUnknownTool)
		})
	})

	Convey("Given enhance_prompt with empty parameters", t, func() {
		_, err := d.Dispatch(ctx, tools.Invocation{
			ToolName:   "enhance_prompt",
			Parameters: map[string]any{},
		})

		Convey("Then the prompt parameter is reported missing", func() {
			var missing *tools.MissingParameterError
			So(errors.As(err, &missing), ShouldBeTrue)
			So(missing.Name, ShouldEqual, "prompt")
		})
	})

	Convey("Given generate_sprite with a blank character", t, func() {
		gen := &fakeGenerator{image: []byte("png")}
		blank := newDispatcher(gen)
		_, err := blank.Dispatch(ctx, tools.Invocation{
			ToolName: "generate_sprite",
			Parameters: map[string]any{
				"character": "   ",
			},
		})

		Convey("Then the character parameter is reported missing", func() {
			var missing *tools.MissingParameterError
			So(errors.As(err, &missing), ShouldBeTrue)
			So(missing.Name, ShouldEqual, "character")
		})

		Convey("And the image model is never invoked", func() {
			So(gen.prompt, ShouldBeEmpty)
		})
	})

	Convey("Given enhance_prompt with a whitespace-only prompt", t, func() {
		_, err := d.Dispatch(ctx, tools.Invocation{
			ToolName:   "enhance_prompt",
			Parameters: map[string]any{"prompt": "\t \n"},
		})

		Convey("Then the prompt parameter is reported missing", func() {
			var missing *tools.MissingParameterError
			So(errors.As(err, &missing), ShouldBeTrue)
			So(missing.Name, ShouldEqual, "prompt")
		})
	})

	Convey("Given a mistyped parameter", t, func() {
		_, err := d.Dispatch(ctx, tools.Invocation{
			ToolName: "generate_sprite",
			Parameters: map[string]any{
				"character":         "Knight",
				"use_training_data": "yes",
			},
		})

		Convey("Then the type mismatch names the parameter", func() {
			var mismatch *tools.TypeMismatchError
			So(errors.As(err, &mismatch), ShouldBeTrue)
			So(mismatch.Name, ShouldEqual, "use_training_data")
		})
	})

	Convey("Given a parameter the schema does not declare", t, func() {
		_, err := d.Dispatch(ctx, tools.Invocation{
			ToolName: "analyze_sprite_quality",
			Parameters: map[string]any{
				"sprite_id": "abc",
				"verbose":   true,
			},
		})

		Convey("Then the unknown parameter is rejected", func() {
			var unknown *tools.UnknownParameterError
			So(errors.As(err, &unknown), ShouldBeTrue)
			So(unknown.Name, ShouldEqual, "verbose")
		})
	})
}

func TestGenerateSprite(t *testing.T) {
	ctx := context.Background()

	Convey("Given a working generator", t, func() {
		gen := &fakeGenerator{image: []byte{1, 2, 3}}
		d := newDispatcher(gen)

		Convey("When generating a sprite", func() {
			env, err := d.Dispatch(ctx, tools.Invocation{
				ToolName: "generate_sprite",
				Parameters: map[string]any{
					"character": "Knight",
					"pose":      "idle",
				},
			})
			So(err, ShouldBeNil)

			Convey("Then the envelope carries the result with no error", func() {
				So(env.ToolName, ShouldEqual, "generate_sprite")
				So(env.Error, ShouldBeNil)

				result, ok := env.Result.(tools.GenerateSpriteResult)
				So(ok, ShouldBeTrue)
				So(result.SpriteID, ShouldNotBeEmpty)
				So(result.EnhancedPrompt, ShouldEqual, "a sprite of Knight")
				So(result.ImageBase64, ShouldEqual, "AQID")
			})

			Convey("And the model prompt carries the sprite-art suffix", func() {
				So(gen.prompt, ShouldEndWith, ", high quality sprite art, game character design")
			})
		})

		Convey("When the generator fails", func() {
			gen.err = errors.New("model unavailable")
			env, err := d.Dispatch(ctx, tools.Invocation{
				ToolName:   "generate_sprite",
				Parameters: map[string]any{"character": "Knight"},
			})

			Convey("Then the failure is caught into the envelope", func() {
				So(err, ShouldBeNil)
				So(env.Result, ShouldBeNil)
				So(env.Error, ShouldNotBeNil)
				So(*env.Error, ShouldContainSubstring, "model unavailable")
			})
		})
	})

	Convey("Given a generator and an active persona", t, func() {
		personas := &fakePersonas{persona: model.Persona{
			Name:     "Retro Console",
			IsActive: true,
		}}
		d := tools.New(
			&fakeEnhancer{},
			&fakeAnalyzer{},
			&fakeRecommender{},
			tools.WithGenerator(&fakeGenerator{image: []byte("png")}),
			tools.WithPersonaSource(personas),
		)

		Convey("When generating with a persona_id", func() {
			env, err := d.Dispatch(ctx, tools.Invocation{
				ToolName: "generate_sprite",
				Parameters: map[string]any{
					"character":  "Knight",
					"persona_id": "p1",
				},
			})
			So(err, ShouldBeNil)
			So(env.Error, ShouldBeNil)

			Convey("Then persona usage is recorded once", func() {
				So(personas.used, ShouldResemble, []string{"p1"})
			})
		})

		Convey("When the persona lookup fails", func() {
			personas.err = errors.New("not found")
			env, err := d.Dispatch(ctx, tools.Invocation{
				ToolName: "generate_sprite",
				Parameters: map[string]any{
					"character":  "Knight",
					"persona_id": "missing",
				},
			})
			So(err, ShouldBeNil)
			So(env.Error, ShouldBeNil)

			Convey("Then no usage is recorded", func() {
				So(personas.used, ShouldBeEmpty)
			})
		})
	})

	Convey("Given an envelope marshalled to JSON", t, func() {
		d := newDispatcher(&fakeGenerator{image: []byte("x")})
		env, err := d.Dispatch(ctx, tools.Invocation{
			ToolName:   "generate_sprite",
			Parameters: map[string]any{"character": "Mage"},
		})
		So(err, ShouldBeNil)

		raw, err := json.Marshal(env)
		So(err, ShouldBeNil)

		Convey("Then the error field marshals to null", func() {
			So(string(raw), ShouldContainSubstring, `"error":null`)
			So(string(raw), ShouldContainSubstring, `"tool_name":"generate_sprite"`)
		})
	})
}

func TestEnhancePromptTool(t *testing.T) {
	ctx := context.Background()

	Convey("Given a dispatcher with an active persona", t, func() {
		d := tools.New(
			&fakeEnhancer{},
			&fakeAnalyzer{},
			&fakeRecommender{},
			tools.WithPersonaSource(&fakePersonas{persona: model.Persona{
				Name:        "Retro Console",
				Description: "16-bit era sprites",
				IsActive:    true,
			}}),
		)

		Convey("When enhancing with a persona_id", func() {
			env, err := d.Dispatch(ctx, tools.Invocation{
				ToolName: "enhance_prompt",
				Parameters: map[string]any{
					"prompt":     "a knight",
					"persona_id": "p1",
				},
			})
			So(err, ShouldBeNil)
			So(env.Error, ShouldBeNil)

			result, ok := env.Result.(tools.EnhancePromptResult)
			So(ok, ShouldBeTrue)

			Convey("Then the original prompt is preserved and persona noted", func() {
				So(result.OriginalPrompt, ShouldEqual, "a knight")
				So(result.EnhancedPrompt, ShouldContainSubstring, "Retro Console")
				So(result.Improvements, ShouldContain, "Applied persona context")
			})
		})

		Convey("When the persona lookup fails", func() {
			broken := tools.New(
				&fakeEnhancer{},
				&fakeAnalyzer{},
				&fakeRecommender{},
				tools.WithPersonaSource(&fakePersonas{err: errors.New("not found")}),
			)
			env, err := broken.Dispatch(ctx, tools.Invocation{
				ToolName: "enhance_prompt",
				Parameters: map[string]any{
					"prompt":     "a knight",
					"persona_id": "missing",
				},
			})

			Convey("Then the tool still succeeds without the persona", func() {
				So(err, ShouldBeNil)
				So(env.Error, ShouldBeNil)
				result, ok := env.Result.(tools.EnhancePromptResult)
				So(ok, ShouldBeTrue)
				So(result.EnhancedPrompt, ShouldEqual, "a knight")
			})
		})
	})
}

func TestAnalyzeAndRecommendTools(t *testing.T) {
	ctx := context.Background()

	Convey("Given a failing analyzer", t, func() {
		d := tools.New(
			&fakeEnhancer{},
			&fakeAnalyzer{err: errors.New("sprite \"abc\": record not found")},
			&fakeRecommender{},
		)

		Convey("When analyzing an unknown sprite", func() {
			env, err := d.Dispatch(ctx, tools.Invocation{
				ToolName:   "analyze_sprite_quality",
				Parameters: map[string]any{"sprite_id": "abc"},
			})

			Convey("Then the failure lands in the envelope, not the error return", func() {
				So(err, ShouldBeNil)
				So(env.Result, ShouldBeNil)
				So(env.Error, ShouldNotBeNil)
				So(*env.Error, ShouldContainSubstring, "not found")
			})
		})
	})

	Convey("Given a recommender with results", t, func() {
		d := tools.New(
			&fakeEnhancer{},
			&fakeAnalyzer{},
			&fakeRecommender{recs: []recommend.Recommendation{
				{Tag: "pixel", Count: 2, AvgRating: 4.5},
			}},
		)

		Convey("When requesting recommendations", func() {
			env, err := d.Dispatch(ctx, tools.Invocation{
				ToolName:   "get_style_recommendations",
				Parameters: map[string]any{"character": "Knight"},
			})
			So(err, ShouldBeNil)
			So(env.Error, ShouldBeNil)

			result, ok := env.Result.(tools.StyleRecommendationsResult)
			So(ok, ShouldBeTrue)

			Convey("Then the ranked tags come back", func() {
				So(result.Character, ShouldEqual, "Knight")
				So(len(result.Recommendations), ShouldEqual, 1)
				So(result.Recommendations[0].Tag, ShouldEqual, "pixel")
			})
		})
	})
}

func TestCatalog(t *testing.T) {
	Convey("Given the tool catalog", t, func() {
		catalog := tools.Catalog()

		Convey("Then all four tools are listed", func() {
			So(len(catalog), ShouldEqual, 4)
			names := make([]string, 0, len(catalog))
			for _, spec := range catalog {
				names = append(names, spec.Name)
			}
			So(names, ShouldContain, "generate_sprite")
			So(names, ShouldContain, "enhance_prompt")
			So(names, ShouldContain, "analyze_sprite_quality")
			So(names, ShouldContain, "get_style_recommendations")
		})

		Convey("And generate_sprite requires only the character", func() {
			for _, spec := range catalog {
				if spec.Name != "generate_sprite" {
					continue
				}
				for _, p := range spec.Params {
					So(p.Required, ShouldEqual, p.Name == "character")
				}
			}
		})
	})
}
