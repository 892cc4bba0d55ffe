// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yetog/spritegen/internal/tools"
)

// MCPDependencies defines the interface for tool dispatch.
type MCPDependencies interface {
	Execute(ctx context.Context, inv tools.Invocation) (tools.Envelope, error)
	ToolCatalog() []tools.ToolSpec
}

// MCPHandler handles tool invocation requests.
type MCPHandler struct {
	deps MCPDependencies
}

// NewMCPHandler creates a new MCP handler.
func NewMCPHandler(deps MCPDependencies) *MCPHandler {
	return &MCPHandler{deps: deps}
}

// HandleExecute handles POST /mcp/execute requests. Validation failures
// map to 400; component failures come back inside a 200 envelope.
func (h *MCPHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	const op = "api.mcp_execute"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var inv tools.Invocation
	if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	env, err := h.deps.Execute(r.Context(), inv)
	if err != nil {
		writeError(w, http.StatusBadRequest, invocationErrorCode(err), Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// invocationErrorCode distinguishes the validation failure kinds in the
// response body.
func invocationErrorCode(err error) string {
	var (
		missing  *tools.MissingParameterError
		mismatch *tools.TypeMismatchError
		unknown  *tools.UnknownParameterError
	)
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		return "unknown_tool"
	case errors.As(err, &missing):
		return "missing_parameter"
	case errors.As(err, &mismatch):
		return "type_mismatch"
	case errors.As(err, &unknown):
		return "unknown_parameter"
	default:
		return "bad_request"
	}
}

// toolParam mirrors the wire shape of a schema parameter.
type toolParam struct {
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// toolListing mirrors the wire shape of one tool schema.
type toolListing struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  map[string]toolParam `json:"parameters"`
}

type toolsResponse struct {
	Tools []toolListing `json:"tools"`
}

// HandleTools handles GET /mcp/tools requests.
func (h *MCPHandler) HandleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	catalog := h.deps.ToolCatalog()
	listings := make([]toolListing, 0, len(catalog))
	for _, spec := range catalog {
		params := make(map[string]toolParam, len(spec.Params))
		for _, p := range spec.Params {
			params[p.Name] = toolParam{Type: string(p.Type), Required: p.Required}
		}
		listings = append(listings, toolListing{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  params,
		})
	}
	writeJSON(w, http.StatusOK, toolsResponse{Tools: listings})
}
