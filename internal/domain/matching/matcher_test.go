package matching_test

import (
	"testing"
	"time"

	"github.com/yetog/spritegen/internal/domain/matching"
	"github.com/yetog/spritegen/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMatcherScore(t *testing.T) {
	Convey("Given a matcher with default weights", t, func() {
		m := matching.New()

		Convey("When the reference matches character, pose and style exactly", func() {
			target := model.GenerationRequest{Character: "Mage", Pose: "casting", Style: "anime fire"}
			ref := model.TrainingReference{
				Character: "mage",
				Pose:      "Casting",
				StyleTags: []string{"anime", "fire"},
			}

			Convey("Then the combined score is 1.0", func() {
				So(m.Score(target, ref), ShouldEqual, 1.0)
			})
		})

		Convey("When scoring arbitrary references", func() {
			target := model.GenerationRequest{Character: "Fire Mage", Pose: "idle", Style: "pixel"}
			refs := []model.TrainingReference{
				{Character: "Mage", StyleTags: []string{"anime"}},
				{Character: "Fire Golem", Pose: "attacking", StyleTags: []string{"pixel", "retro"}},
				{Character: "Knight", Pose: "idle", StyleTags: []string{"painterly"}},
			}

			Convey("Then every score stays within [0,1]", func() {
				for _, ref := range refs {
					score := m.Score(target, ref)
					So(score, ShouldBeGreaterThanOrEqualTo, 0)
					So(score, ShouldBeLessThanOrEqualTo, 1)
				}
			})
		})

		Convey("When the target supplies no style", func() {
			target := model.GenerationRequest{Character: "Mage"}
			ref := model.TrainingReference{Character: "Mage", StyleTags: []string{"anime"}}

			Convey("Then only character and the neutral pose contribute", func() {
				// 0.5*1.0 + 0.35*0 + 0.15*0.5
				So(m.Score(target, ref), ShouldAlmostEqual, 0.575)
			})
		})

		Convey("When either character is empty", func() {
			target := model.GenerationRequest{Character: "Mage"}
			ref := model.TrainingReference{StyleTags: []string{"anime"}}

			Convey("Then the character partial score is zero", func() {
				So(matching.CharacterScore(target.Character, ref.Character), ShouldEqual, 0)
			})
		})

		Convey("When poses are present but disjoint", func() {
			target := model.GenerationRequest{Character: "Mage", Pose: "running"}
			ref := model.TrainingReference{Character: "Mage", Pose: "sitting", StyleTags: []string{"anime"}}

			Convey("Then the pose partial contributes nothing", func() {
				// 0.5*1.0 only; style absent on the target
				So(m.Score(target, ref), ShouldAlmostEqual, 0.5)
			})
		})
	})
}

func TestMatcherTopMatches(t *testing.T) {
	Convey("Given a set of references for the same character", t, func() {
		m := matching.New(matching.WithTopK(2))
		now := time.Now()
		target := model.GenerationRequest{Character: "Mage", Style: "anime"}
		refs := []model.TrainingReference{
			{ID: "a", Character: "Mage", StyleTags: []string{"anime"}, Rating: 3, UploadedAt: now.Add(-2 * time.Hour)},
			{ID: "b", Character: "Mage", StyleTags: []string{"anime"}, Rating: 5, UploadedAt: now.Add(-3 * time.Hour)},
			{ID: "c", Character: "Mage", StyleTags: []string{"anime"}, Rating: 5, UploadedAt: now.Add(-1 * time.Hour)},
			{ID: "d", Character: "Knight", StyleTags: []string{"sketch"}},
		}

		Convey("When requesting top matches", func() {
			matches := m.TopMatches(target, refs)

			Convey("Then only topK results come back", func() {
				So(len(matches), ShouldEqual, 2)
			})

			Convey("And equal scores are broken by rating then recency", func() {
				So(matches[0].Reference.ID, ShouldEqual, "c")
				So(matches[1].Reference.ID, ShouldEqual, "b")
			})
		})

		Convey("When no reference scores above zero", func() {
			matches := m.TopMatches(model.GenerationRequest{Character: "Slime", Pose: "running"}, []model.TrainingReference{
				{Character: "Knight", Pose: "sitting", StyleTags: []string{"anime"}},
			})

			Convey("Then the result is empty rather than an error", func() {
				So(matches, ShouldBeEmpty)
			})
		})
	})
}

func TestTokenize(t *testing.T) {
	Convey("Given mixed-case text with punctuation", t, func() {
		tokens := matching.Tokenize("Fire-Mage, casting_spell!")

		Convey("Then tokens are lowercased and split on non-alphanumerics", func() {
			So(tokens, ShouldContainKey, "fire")
			So(tokens, ShouldContainKey, "mage")
			So(tokens, ShouldContainKey, "casting")
			So(tokens, ShouldContainKey, "spell")
			So(len(tokens), ShouldEqual, 4)
		})
	})
}
