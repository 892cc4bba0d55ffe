// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	service "github.com/yetog/spritegen/internal/app"
	"github.com/yetog/spritegen/internal/domain/model"
)

// PersonaDependencies defines the interface for persona persistence.
type PersonaDependencies interface {
	Personas(ctx context.Context) ([]model.Persona, error)
	SavePersona(ctx context.Context, persona model.Persona) (model.Persona, error)
	PersonaByID(ctx context.Context, id string) (model.Persona, error)
	UpdatePersona(ctx context.Context, id string, persona model.Persona) (model.Persona, error)
	DeletePersona(ctx context.Context, id string) error
	TogglePersona(ctx context.Context, id string) (model.Persona, error)
	PersonaStatistics(ctx context.Context) (service.PersonaStats, error)
}

// PersonasHandler handles persona requests.
type PersonasHandler struct {
	deps PersonaDependencies
}

// NewPersonasHandler creates a new personas handler.
func NewPersonasHandler(deps PersonaDependencies) *PersonasHandler {
	return &PersonasHandler{deps: deps}
}

// personaRequest mirrors the wire shape for POST /personas.
type personaRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	StyleTags      []string `json:"style_tags"`
	CharacterTags  []string `json:"character_tags"`
	ExamplePrompts []string `json:"example_prompts"`
	IsActive       *bool    `json:"is_active"`
}

func (p personaRequest) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("missing name")
	}
	return nil
}

// personaResponse mirrors the wire shape of a stored persona.
type personaResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	StyleTags      []string  `json:"style_tags,omitempty"`
	CharacterTags  []string  `json:"character_tags,omitempty"`
	ExamplePrompts []string  `json:"example_prompts,omitempty"`
	IsActive       bool      `json:"is_active"`
	UsageCount     int       `json:"usage_count"`
	AverageRating  float64   `json:"average_rating"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toPersonaResponse(p model.Persona) personaResponse {
	return personaResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		StyleTags:      p.StyleTags,
		CharacterTags:  p.CharacterTags,
		ExamplePrompts: p.ExamplePrompts,
		IsActive:       p.IsActive,
		UsageCount:     p.UsageCount,
		AverageRating:  p.AverageRating,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// HandlePersonas handles POST and GET /personas requests.
func (h *PersonasHandler) HandlePersonas(w http.ResponseWriter, r *http.Request) {
	const op = "api.personas"
	switch r.Method {
	case http.MethodPost:
		var req personaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}

		active := true
		if req.IsActive != nil {
			active = *req.IsActive
		}
		persona, err := h.deps.SavePersona(r.Context(), model.Persona{
			Name:           req.Name,
			Description:    req.Description,
			StyleTags:      req.StyleTags,
			CharacterTags:  req.CharacterTags,
			ExamplePrompts: req.ExamplePrompts,
			IsActive:       active,
		})
		if err != nil {
			writeStoreError(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusCreated, toPersonaResponse(persona))

	case http.MethodGet:
		personas, err := h.deps.Personas(r.Context())
		if err != nil {
			writeStoreError(w, Wrap(op, err))
			return
		}
		responses := make([]personaResponse, 0, len(personas))
		for _, persona := range personas {
			responses = append(responses, toPersonaResponse(persona))
		}
		writeJSON(w, http.StatusOK, responses)

	default:
		http.NotFound(w, r)
	}
}

// HandlePersonaByID handles GET, PUT and DELETE /personas/{id} requests
// plus PUT /personas/{id}/toggle.
func (h *PersonasHandler) HandlePersonaByID(w http.ResponseWriter, r *http.Request) {
	const op = "api.persona"
	id := strings.TrimPrefix(r.URL.Path, "/personas/")

	if toggled := strings.TrimSuffix(id, "/toggle"); toggled != id {
		if r.Method != http.MethodPut {
			http.NotFound(w, r)
			return
		}
		if toggled == "" || strings.Contains(toggled, "/") {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		persona, err := h.deps.TogglePersona(r.Context(), toggled)
		if err != nil {
			writeStoreError(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, toPersonaResponse(persona))
		return
	}

	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch r.Method {
	case http.MethodGet:
		persona, err := h.deps.PersonaByID(r.Context(), id)
		if err != nil {
			writeStoreError(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, toPersonaResponse(persona))

	case http.MethodPut:
		var req personaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}

		active := true
		if req.IsActive != nil {
			active = *req.IsActive
		}
		persona, err := h.deps.UpdatePersona(r.Context(), id, model.Persona{
			Name:           req.Name,
			Description:    req.Description,
			StyleTags:      req.StyleTags,
			CharacterTags:  req.CharacterTags,
			ExamplePrompts: req.ExamplePrompts,
			IsActive:       active,
		})
		if err != nil {
			writeStoreError(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, toPersonaResponse(persona))

	case http.MethodDelete:
		if err := h.deps.DeletePersona(r.Context(), id); err != nil {
			writeStoreError(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})

	default:
		http.NotFound(w, r)
	}
}

// HandleStats handles GET /personas/stats requests.
func (h *PersonasHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.persona_stats"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats, err := h.deps.PersonaStatistics(r.Context())
	if err != nil {
		writeStoreError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
