package enhance

import (
	"strings"

	"github.com/yetog/spritegen/internal/domain/model"
)

// ApplyPersona prefixes prompt with a deterministic clause describing the
// persona's identity, style elements and character traits. Inactive
// personas contribute nothing so disabling one immediately stops it from
// shaping new generations.
func ApplyPersona(prompt string, p model.Persona) string {
	if !p.IsActive {
		return prompt
	}

	parts := []string{
		"Based on the '" + strings.TrimSpace(p.Name) + "' persona: " + strings.TrimSpace(p.Description),
	}
	if len(p.StyleTags) > 0 {
		parts = append(parts, "Style elements: "+strings.Join(p.StyleTags, ", "))
	}
	if len(p.CharacterTags) > 0 {
		parts = append(parts, "Character traits: "+strings.Join(p.CharacterTags, ", "))
	}
	if len(p.ExamplePrompts) > 0 {
		parts = append(parts, "Example style: "+p.ExamplePrompts[0])
	}
	parts = append(parts, prompt)

	return strings.Join(parts, ". ")
}
