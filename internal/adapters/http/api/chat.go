// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/yetog/spritegen/internal/adapters/repository"
	service "github.com/yetog/spritegen/internal/app"
)

// ChatDependencies defines the interface for the conversational text
// model surface.
type ChatDependencies interface {
	Chat(ctx context.Context, prompt string, useTraining bool) (string, error)
}

// ChatHandler handles chat requests.
type ChatHandler struct {
	deps ChatDependencies
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(deps ChatDependencies) *ChatHandler {
	return &ChatHandler{deps: deps}
}

// chatRequest mirrors the wire shape for POST /chat.
type chatRequest struct {
	Prompt          string `json:"prompt"`
	UseTrainingData bool   `json:"use_training_data"`
}

// chatResponse mirrors the wire shape of a chat reply.
type chatResponse struct {
	Output string `json:"output"`
}

// HandleChat handles POST /chat requests.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	const op = "api.chat"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing prompt")))
		return
	}

	output, err := h.deps.Chat(r.Context(), req.Prompt, req.UseTrainingData)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGenerationUnavailable), errors.Is(err, service.ErrNotStarted):
			writeError(w, http.StatusServiceUnavailable, "unavailable", Wrap(op, err))
		case errors.Is(err, repository.ErrTimeout):
			writeError(w, http.StatusGatewayTimeout, "timeout", Wrap(op, err))
		default:
			writeError(w, http.StatusBadGateway, "upstream_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Output: output})
}
