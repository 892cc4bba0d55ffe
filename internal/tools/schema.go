// Package tools validates and routes named tool invocations to the
// analysis components, wrapping every outcome in a uniform envelope.
package tools

// Recognized tool names.
const (
	ToolGenerateSprite       = "generate_sprite"
	ToolEnhancePrompt        = "enhance_prompt"
	ToolAnalyzeSpriteQuality = "analyze_sprite_quality"
	ToolStyleRecommendations = "get_style_recommendations"
)

// ParamType is the declared type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeBoolean ParamType = "boolean"
)

// Param describes one parameter of a tool schema.
type Param struct {
	Name     string    `json:"name"`
	Type     ParamType `json:"type"`
	Required bool      `json:"required"`
}

// ToolSpec is the fixed schema of one tool. Parameters are validated
// against it before any component logic runs.
type ToolSpec struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"parameters"`
}

// Catalog returns the schemas of all recognized tools in a stable order.
func Catalog() []ToolSpec {
	return []ToolSpec{
		{
			Name:        ToolGenerateSprite,
			Description: "Generate a character sprite with specific parameters",
			Params: []Param{
				{Name: "character", Type: TypeString, Required: true},
				{Name: "pose", Type: TypeString},
				{Name: "style", Type: TypeString},
				{Name: "persona_id", Type: TypeString},
				{Name: "use_training_data", Type: TypeBoolean},
			},
		},
		{
			Name:        ToolEnhancePrompt,
			Description: "Enhance a sprite generation prompt using training data",
			Params: []Param{
				{Name: "prompt", Type: TypeString, Required: true},
				{Name: "persona_id", Type: TypeString},
			},
		},
		{
			Name:        ToolAnalyzeSpriteQuality,
			Description: "Analyze sprite quality and suggest improvements",
			Params: []Param{
				{Name: "sprite_id", Type: TypeString, Required: true},
			},
		},
		{
			Name:        ToolStyleRecommendations,
			Description: "Get style recommendations based on character type",
			Params: []Param{
				{Name: "character", Type: TypeString, Required: true},
				{Name: "persona_id", Type: TypeString},
			},
		},
	}
}

func specByName(name string) (ToolSpec, bool) {
	for _, spec := range Catalog() {
		if spec.Name == name {
			return spec, true
		}
	}
	return ToolSpec{}, false
}
