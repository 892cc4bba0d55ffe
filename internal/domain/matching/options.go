// Package matching scores training references against a generation target.
package matching

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithWeights sets the character, style and pose weights for the combined
// score. Non-positive values leave the corresponding default in place.
func WithWeights(character, style, pose float64) Option {
	return func(m *Matcher) {
		if character > 0 {
			m.characterWeight = character
		}
		if style > 0 {
			m.styleWeight = style
		}
		if pose > 0 {
			m.poseWeight = pose
		}
	}
}

// WithTopK sets how many matches TopMatches keeps.
func WithTopK(k int) Option {
	return func(m *Matcher) {
		if k > 0 {
			m.topK = k
		}
	}
}
