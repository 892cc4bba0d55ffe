// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	service "github.com/yetog/spritegen/internal/app"
	"github.com/yetog/spritegen/internal/domain/model"
)

// SpriteDependencies defines the interface for sprite persistence.
type SpriteDependencies interface {
	SaveSprite(ctx context.Context, sprite model.Sprite) (model.Sprite, error)
	Sprites(ctx context.Context) ([]model.Sprite, error)
	RateSprite(ctx context.Context, id string, rating int, feedback string) (model.Sprite, error)
	DeleteSprite(ctx context.Context, id string) error
	SpriteStatistics(ctx context.Context) (service.SpriteStats, error)
}

// SpritesHandler handles sprite CRUD requests.
type SpritesHandler struct {
	deps SpriteDependencies
}

// NewSpritesHandler creates a new sprites handler.
func NewSpritesHandler(deps SpriteDependencies) *SpritesHandler {
	return &SpritesHandler{deps: deps}
}

// spriteRequest mirrors the wire shape for POST /sprites.
type spriteRequest struct {
	ID          string `json:"id"`
	Character   string `json:"character"`
	Pose        string `json:"pose"`
	Style       string `json:"style"`
	ImageBase64 string `json:"image_base64"`
	Rating      int    `json:"rating"`
	PersonaID   string `json:"persona_id"`
}

func (s spriteRequest) validate() error {
	switch {
	case strings.TrimSpace(s.Character) == "":
		return errors.New("missing character")
	case strings.TrimSpace(s.ImageBase64) == "":
		return errors.New("missing image_base64")
	}
	if _, err := base64.StdEncoding.DecodeString(s.ImageBase64); err != nil {
		return errors.New("invalid image_base64; must be standard base64")
	}
	return nil
}

// spriteResponse mirrors the wire shape of a stored sprite. The image
// payload is omitted from listings to keep them small.
type spriteResponse struct {
	ID        string    `json:"id"`
	Character string    `json:"character"`
	Pose      string    `json:"pose,omitempty"`
	Style     string    `json:"style,omitempty"`
	Rating    int       `json:"rating"`
	Feedback  string    `json:"feedback,omitempty"`
	PersonaID string    `json:"persona_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

func toSpriteResponse(s model.Sprite) spriteResponse {
	return spriteResponse{
		ID:        s.ID,
		Character: s.Character,
		Pose:      s.Pose,
		Style:     s.Style,
		Rating:    s.Rating,
		Feedback:  s.Feedback,
		PersonaID: s.PersonaID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// HandleSprites handles POST and GET /sprites requests.
func (h *SpritesHandler) HandleSprites(w http.ResponseWriter, r *http.Request) {
	const op = "api.sprites"
	switch r.Method {
	case http.MethodPost:
		var req spriteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}

		image, _ := base64.StdEncoding.DecodeString(req.ImageBase64)
		sprite, err := h.deps.SaveSprite(r.Context(), model.Sprite{
			ID:        req.ID,
			Character: req.Character,
			Pose:      req.Pose,
			Style:     req.Style,
			Image:     image,
			Rating:    req.Rating,
			PersonaID: req.PersonaID,
		})
		if err != nil {
			writeStoreError(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusCreated, toSpriteResponse(sprite))

	case http.MethodGet:
		sprites, err := h.deps.Sprites(r.Context())
		if err != nil {
			writeStoreError(w, Wrap(op, err))
			return
		}
		responses := make([]spriteResponse, 0, len(sprites))
		for _, sprite := range sprites {
			responses = append(responses, toSpriteResponse(sprite))
		}
		writeJSON(w, http.StatusOK, responses)

	default:
		http.NotFound(w, r)
	}
}

// ratingRequest mirrors the wire shape for PUT /sprites/{id}.
type ratingRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// HandleSpriteByID handles PUT and DELETE /sprites/{id} requests.
func (h *SpritesHandler) HandleSpriteByID(w http.ResponseWriter, r *http.Request) {
	const op = "api.sprite"
	id := strings.TrimPrefix(r.URL.Path, "/sprites/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req ratingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		sprite, err := h.deps.RateSprite(r.Context(), id, req.Rating, req.Feedback)
		if err != nil {
			writeStoreError(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, toSpriteResponse(sprite))

	case http.MethodDelete:
		if err := h.deps.DeleteSprite(r.Context(), id); err != nil {
			writeStoreError(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})

	default:
		http.NotFound(w, r)
	}
}

// HandleStats handles GET /sprites/stats requests.
func (h *SpritesHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.sprite_stats"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats, err := h.deps.SpriteStatistics(r.Context())
	if err != nil {
		writeStoreError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
