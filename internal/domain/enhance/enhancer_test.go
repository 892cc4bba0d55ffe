package enhance_test

import (
	"context"
	"strings"
	"testing"

	"github.com/yetog/spritegen/internal/domain/enhance"
	"github.com/yetog/spritegen/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// staticTraining serves a fixed reference slice, standing in for the
// external training store.
type staticTraining struct {
	refs []model.TrainingReference
}

func (s *staticTraining) All(_ context.Context) ([]model.TrainingReference, error) {
	return s.refs, nil
}

func TestBasePrompt(t *testing.T) {
	Convey("Given generation requests with optional fields", t, func() {
		Convey("When only the character is set", func() {
			got := enhance.BasePrompt(model.GenerationRequest{Character: "Mage"})
			So(got, ShouldEqual, "a sprite of Mage")
		})

		Convey("When pose and style are set", func() {
			got := enhance.BasePrompt(model.GenerationRequest{Character: "Mage", Pose: "casting", Style: "anime"})
			So(got, ShouldEqual, "a sprite of Mage, in casting pose, anime style")
		})

		Convey("When fields carry stray whitespace", func() {
			got := enhance.BasePrompt(model.GenerationRequest{Character: "  Mage ", Pose: " casting "})
			So(got, ShouldEqual, "a sprite of Mage, in casting pose")
		})
	})
}

func TestEnhance(t *testing.T) {
	ctx := context.Background()

	Convey("Given an enhancer with no training data", t, func() {
		e := enhance.New(&staticTraining{})

		Convey("When enhancing a request", func() {
			got, err := e.Enhance(ctx, model.GenerationRequest{Character: "Mage", Style: "anime"})

			Convey("Then exactly the base prompt comes back", func() {
				So(err, ShouldBeNil)
				So(got, ShouldEqual, "a sprite of Mage, anime style")
			})
		})
	})

	Convey("Given an enhancer with matching references", t, func() {
		refs := []model.TrainingReference{
			{
				ID:            "r1",
				Character:     "Mage",
				StyleTags:     []string{"anime", "fire"},
				CharacterTags: []string{"robed"},
				Prompt:        "a fierce mage hurling fire",
				Rating:        5,
			},
			{
				ID:        "r2",
				Character: "Mage",
				StyleTags: []string{"anime", "ice"},
				Rating:    3,
			},
		}
		e := enhance.New(&staticTraining{refs: refs})

		Convey("When enhancing a matching request", func() {
			got, err := e.Enhance(ctx, model.GenerationRequest{Character: "Mage", Style: "anime"})
			So(err, ShouldBeNil)

			Convey("Then the base prompt is preserved as a prefix", func() {
				So(got, ShouldStartWith, "a sprite of Mage, anime style")
			})

			Convey("And tags appear deduplicated in match-rank order", func() {
				So(got, ShouldContainSubstring, "anime, fire, robed, ice")
				So(strings.Count(got, "anime"), ShouldEqual, 2) // base style + one clause mention
			})

			Convey("And the example prompt is quoted in the clause", func() {
				So(got, ShouldContainSubstring, `Inspired by: "a fierce mage hurling fire"`)
			})
		})

		Convey("When enhancing the same request twice", func() {
			first, err1 := e.Enhance(ctx, model.GenerationRequest{Character: "Mage", Style: "anime"})
			second, err2 := e.Enhance(ctx, model.GenerationRequest{Character: "Mage", Style: "anime"})

			Convey("Then the output is byte-identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first, ShouldEqual, second)
			})
		})
	})

	Convey("Given a reference with an oversized prompt", t, func() {
		long := strings.Repeat("x", 500)
		e := enhance.New(&staticTraining{refs: []model.TrainingReference{
			{ID: "r1", Character: "Mage", StyleTags: []string{"anime"}, Prompt: long, Rating: 5},
		}}, enhance.WithExcerptLimit(50))

		Convey("When enhancing", func() {
			got, err := e.Enhance(ctx, model.GenerationRequest{Character: "Mage"})
			So(err, ShouldBeNil)

			Convey("Then the excerpt is bounded", func() {
				So(got, ShouldContainSubstring, strings.Repeat("x", 50)+"...")
				So(got, ShouldNotContainSubstring, strings.Repeat("x", 51))
			})
		})
	})
}

func TestEnhancePrompt(t *testing.T) {
	ctx := context.Background()

	Convey("Given an enhancer over tagged references", t, func() {
		e := enhance.New(&staticTraining{refs: []model.TrainingReference{
			{ID: "r1", Character: "fire mage", StyleTags: []string{"pixel"}, Rating: 4},
		}})

		Convey("When the raw prompt shares tokens with a reference", func() {
			got, err := e.EnhancePrompt(ctx, "a mage casting spells")
			So(err, ShouldBeNil)

			Convey("Then the clause is appended to the raw prompt", func() {
				So(got, ShouldStartWith, "a mage casting spells, pixel")
			})
		})

		Convey("When the training corpus is empty", func() {
			empty := enhance.New(&staticTraining{})
			got, err := empty.EnhancePrompt(ctx, "a lonely robot")
			So(err, ShouldBeNil)

			Convey("Then the prompt is returned unchanged", func() {
				So(got, ShouldEqual, "a lonely robot")
			})
		})
	})
}

func TestApplyPersona(t *testing.T) {
	Convey("Given an active persona", t, func() {
		p := model.Persona{
			Name:           "Ember",
			Description:    "a fiery art direction",
			StyleTags:      []string{"anime", "fire"},
			CharacterTags:  []string{"fierce"},
			ExamplePrompts: []string{"glowing embers everywhere"},
			IsActive:       true,
		}

		Convey("When applied to a prompt", func() {
			got := enhance.ApplyPersona("a sprite of Mage", p)

			Convey("Then the persona clause leads and the prompt trails", func() {
				So(got, ShouldStartWith, "Based on the 'Ember' persona: a fiery art direction")
				So(got, ShouldContainSubstring, "Style elements: anime, fire")
				So(got, ShouldContainSubstring, "Character traits: fierce")
				So(got, ShouldContainSubstring, "Example style: glowing embers everywhere")
				So(got, ShouldEndWith, "a sprite of Mage")
			})
		})
	})

	Convey("Given an inactive persona", t, func() {
		p := model.Persona{Name: "Ember", IsActive: false}

		Convey("When applied to a prompt", func() {
			Convey("Then the prompt is untouched", func() {
				So(enhance.ApplyPersona("a sprite of Mage", p), ShouldEqual, "a sprite of Mage")
			})
		})
	})
}
