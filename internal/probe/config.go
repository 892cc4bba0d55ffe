// Package probe is a smoke tool that exercises a running spritegen
// instance over HTTP. It seeds training references, invokes every tool,
// and verifies that enhancement is deterministic and recommendations
// come back ordered.
package probe

import (
	"encoding/json"
	"time"
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL string        // Base URL of the service
	Rounds  int           // Invocations per tool per fixture
	Workers int           // Concurrent request limit
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Enable verbose logging
	Cleanup bool          // Delete seeded references on completion
}

// Fixture is one training reference seeded before the tool runs.
type Fixture struct {
	Character string   `json:"character"`
	Pose      string   `json:"pose"`
	StyleTags []string `json:"style_tags"`
	Prompt    string   `json:"prompt"`
	Rating    int      `json:"rating"`
}

// invocation mirrors the POST /mcp/execute request body.
type invocation struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
}

// envelope mirrors the tool execution response. Result stays raw so
// each check can decode the payload it expects.
type envelope struct {
	ToolName string          `json:"tool_name"`
	Result   json.RawMessage `json:"result"`
	Error    *string         `json:"error"`
}

// enhanceResult mirrors the enhance_prompt payload.
type enhanceResult struct {
	OriginalPrompt string   `json:"original_prompt"`
	EnhancedPrompt string   `json:"enhanced_prompt"`
	Improvements   []string `json:"improvements"`
}

// recommendationEntry mirrors one style recommendation.
type recommendationEntry struct {
	Tag       string  `json:"tag"`
	Count     int     `json:"count"`
	AvgRating float64 `json:"avg_rating"`
}

// recommendationsResult mirrors the get_style_recommendations payload.
type recommendationsResult struct {
	Character       string                `json:"character"`
	Recommendations []recommendationEntry `json:"recommendations"`
}

// qualityReport mirrors the analyze_sprite_quality payload.
type qualityReport struct {
	SpriteID         string   `json:"sprite_id"`
	Verdict          string   `json:"verdict"`
	ReferenceAverage float64  `json:"reference_average"`
	ReferenceCount   int      `json:"reference_count"`
	Suggestions      []string `json:"suggestions"`
}

// storedReference mirrors the POST /training-data response.
type storedReference struct {
	ID        string `json:"id"`
	Character string `json:"character"`
}

// storedSprite mirrors the POST /sprites response.
type storedSprite struct {
	ID        string `json:"id"`
	Character string `json:"character"`
}

// toolListing mirrors one entry of GET /mcp/tools.
type toolListing struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Parameters  map[string]parameterSpec `json:"parameters"`
}

type parameterSpec struct {
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

type toolsResponse struct {
	Tools []toolListing `json:"tools"`
}

// Stats holds probe statistics.
type Stats struct {
	FixturesSeeded    int
	ToolCalls         int
	ToolFailures      int
	EnhancementsRun   int
	Recommendations   int
	QualityReports    int
	GenerationSkipped bool
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
