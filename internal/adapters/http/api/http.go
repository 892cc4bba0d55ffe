// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yetog/spritegen/internal/adapters/repository"
	service "github.com/yetog/spritegen/internal/app"
	"github.com/yetog/spritegen/internal/domain/model"
	"github.com/yetog/spritegen/internal/tools"
)

// Dependencies required by HTTP handlers. Using an interface bundle
// keeps the handler layer loosely coupled to implementations in other
// packages.
type Dependencies interface {
	// Tool dispatch surface.
	Execute(ctx context.Context, inv tools.Invocation) (tools.Envelope, error)
	ToolCatalog() []tools.ToolSpec

	// Sprite persistence.
	SaveSprite(ctx context.Context, sprite model.Sprite) (model.Sprite, error)
	Sprites(ctx context.Context) ([]model.Sprite, error)
	RateSprite(ctx context.Context, id string, rating int, feedback string) (model.Sprite, error)
	DeleteSprite(ctx context.Context, id string) error
	SpriteStatistics(ctx context.Context) (service.SpriteStats, error)

	// Training data ingestion.
	AddTrainingReference(ctx context.Context, ref model.TrainingReference) (model.TrainingReference, error)
	TrainingData(ctx context.Context) ([]model.TrainingReference, error)
	DeleteTrainingReference(ctx context.Context, id string) error

	// Personas.
	Personas(ctx context.Context) ([]model.Persona, error)
	SavePersona(ctx context.Context, persona model.Persona) (model.Persona, error)
	PersonaByID(ctx context.Context, id string) (model.Persona, error)
	UpdatePersona(ctx context.Context, id string, persona model.Persona) (model.Persona, error)
	DeletePersona(ctx context.Context, id string) error
	TogglePersona(ctx context.Context, id string) (model.Persona, error)
	PersonaStatistics(ctx context.Context) (service.PersonaStats, error)

	// Conversational text model.
	Chat(ctx context.Context, prompt string, useTraining bool) (string, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	mcpHandler      *MCPHandler
	spritesHandler  *SpritesHandler
	trainingHandler *TrainingHandler
	personasHandler *PersonasHandler
	chatHandler     *ChatHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		mcpHandler:      NewMCPHandler(deps),
		spritesHandler:  NewSpritesHandler(deps),
		trainingHandler: NewTrainingHandler(deps),
		personasHandler: NewPersonasHandler(deps),
		chatHandler:     NewChatHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/mcp/execute", MetricsMiddleware(s.mcpHandler.HandleExecute, "mcp_execute"))
	mux.HandleFunc("/mcp/tools", MetricsMiddleware(s.mcpHandler.HandleTools, "mcp_tools"))
	mux.HandleFunc("/sprites/stats", MetricsMiddleware(s.spritesHandler.HandleStats, "sprite_stats"))
	mux.HandleFunc("/sprites/", MetricsMiddleware(s.spritesHandler.HandleSpriteByID, "sprite"))
	mux.HandleFunc("/sprites", MetricsMiddleware(s.spritesHandler.HandleSprites, "sprites"))
	mux.HandleFunc("/training-data/", MetricsMiddleware(s.trainingHandler.HandleReferenceByID, "training_reference"))
	mux.HandleFunc("/training-data", MetricsMiddleware(s.trainingHandler.HandleTrainingData, "training_data"))
	mux.HandleFunc("/personas/stats", MetricsMiddleware(s.personasHandler.HandleStats, "persona_stats"))
	mux.HandleFunc("/personas/", MetricsMiddleware(s.personasHandler.HandlePersonaByID, "persona"))
	mux.HandleFunc("/personas", MetricsMiddleware(s.personasHandler.HandlePersonas, "personas"))
	mux.HandleFunc("/chat", MetricsMiddleware(s.chatHandler.HandleChat, "chat"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeStoreError translates store error kinds to HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "timeout", err)
	case errors.Is(err, repository.ErrMissingStyleTags), errors.Is(err, repository.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrDuplicateName):
		writeError(w, http.StatusConflict, "conflict", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
