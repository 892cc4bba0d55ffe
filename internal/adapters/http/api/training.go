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

	"github.com/yetog/spritegen/internal/domain/model"
)

// TrainingDependencies defines the interface for training data
// ingestion.
type TrainingDependencies interface {
	AddTrainingReference(ctx context.Context, ref model.TrainingReference) (model.TrainingReference, error)
	TrainingData(ctx context.Context) ([]model.TrainingReference, error)
	DeleteTrainingReference(ctx context.Context, id string) error
}

// TrainingHandler handles training data requests.
type TrainingHandler struct {
	deps TrainingDependencies
}

// NewTrainingHandler creates a new training data handler.
func NewTrainingHandler(deps TrainingDependencies) *TrainingHandler {
	return &TrainingHandler{deps: deps}
}

// trainingRequest mirrors the wire shape for POST /training-data.
type trainingRequest struct {
	Character     string   `json:"character"`
	Pose          string   `json:"pose"`
	StyleTags     []string `json:"style_tags"`
	CharacterTags []string `json:"character_tags"`
	Prompt        string   `json:"prompt"`
	Rating        int      `json:"rating"`
	ImageBase64   string   `json:"image_base64"`
}

func (t trainingRequest) validate() error {
	switch {
	case strings.TrimSpace(t.Character) == "":
		return errors.New("missing character")
	case strings.TrimSpace(t.ImageBase64) == "":
		return errors.New("missing image_base64")
	case len(t.StyleTags) == 0:
		return errors.New("missing style_tags")
	}
	if _, err := base64.StdEncoding.DecodeString(t.ImageBase64); err != nil {
		return errors.New("invalid image_base64; must be standard base64")
	}
	return nil
}

// trainingResponse mirrors the wire shape of a stored reference.
type trainingResponse struct {
	ID            string    `json:"id"`
	Character     string    `json:"character"`
	Pose          string    `json:"pose,omitempty"`
	StyleTags     []string  `json:"style_tags"`
	CharacterTags []string  `json:"character_tags,omitempty"`
	Prompt        string    `json:"prompt,omitempty"`
	Rating        int       `json:"rating"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

func toTrainingResponse(ref model.TrainingReference) trainingResponse {
	return trainingResponse{
		ID:            ref.ID,
		Character:     ref.Character,
		Pose:          ref.Pose,
		StyleTags:     ref.StyleTags,
		CharacterTags: ref.CharacterTags,
		Prompt:        ref.Prompt,
		Rating:        ref.Rating,
		UploadedAt:    ref.UploadedAt,
	}
}

// HandleTrainingData handles POST and GET /training-data requests.
func (h *TrainingHandler) HandleTrainingData(w http.ResponseWriter, r *http.Request) {
	const op = "api.training_data"
	switch r.Method {
	case http.MethodPost:
		var req trainingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}

		image, _ := base64.StdEncoding.DecodeString(req.ImageBase64)
		ref, err := h.deps.AddTrainingReference(r.Context(), model.TrainingReference{
			Character:     req.Character,
			Pose:          req.Pose,
			StyleTags:     req.StyleTags,
			CharacterTags: req.CharacterTags,
			Prompt:        req.Prompt,
			Rating:        req.Rating,
			Image:         image,
		})
		if err != nil {
			writeStoreError(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusCreated, toTrainingResponse(ref))

	case http.MethodGet:
		refs, err := h.deps.TrainingData(r.Context())
		if err != nil {
			writeStoreError(w, Wrap(op, err))
			return
		}
		responses := make([]trainingResponse, 0, len(refs))
		for _, ref := range refs {
			responses = append(responses, toTrainingResponse(ref))
		}
		writeJSON(w, http.StatusOK, responses)

	default:
		http.NotFound(w, r)
	}
}

// HandleReferenceByID handles DELETE /training-data/{id} requests.
func (h *TrainingHandler) HandleReferenceByID(w http.ResponseWriter, r *http.Request) {
	const op = "api.training_reference"
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/training-data/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	if err := h.deps.DeleteTrainingReference(r.Context(), id); err != nil {
		writeStoreError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}
