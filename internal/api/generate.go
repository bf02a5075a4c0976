package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/c2h-ai/internal/completion"
	"github.com/ashureev/c2h-ai/internal/domain"
	"github.com/ashureev/c2h-ai/internal/markdown"
	"github.com/ashureev/c2h-ai/internal/prompt"
)

// GenerateHandler turns the generation form into teaching material.
type GenerateHandler struct {
	*Handler
}

// NewGenerateHandler creates a new generate handler.
func NewGenerateHandler(base *Handler) *GenerateHandler {
	return &GenerateHandler{Handler: base}
}

// RegisterRoutes registers generation routes.
func (h *GenerateHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/generate", h.Generate)
}

type generateRequest struct {
	ToolID     string `json:"tool_id"`
	ApproachID string `json:"approach_id"`
	domain.PromptDetails
}

type generateResponse struct {
	Content string `json:"content"`
	HTML    string `json:"html"`
}

// Generate handles POST /api/generate.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tool, ok := h.catalog.Tool(req.ToolID)
	if !ok || tool.IsChat() {
		Error(w, http.StatusBadRequest, "unknown tool")
		return
	}
	approach := h.catalog.DefaultApproach()
	if req.ApproachID != "" {
		if approach, ok = h.catalog.Approach(req.ApproachID); !ok {
			Error(w, http.StatusBadRequest, "unknown approach")
			return
		}
	}
	if !req.Validate() {
		Error(w, http.StatusBadRequest, domain.ErrMissingDetails)
		return
	}

	content, err := h.ai.Generate(r.Context(), prompt.Compose(req.PromptDetails, tool, approach), prompt.SystemInstruction)
	if err != nil {
		var genErr *completion.GenerationError
		switch {
		case completion.IsConfigurationError(err):
			Error(w, http.StatusServiceUnavailable, err.Error())
		case errors.As(err, &genErr):
			Error(w, http.StatusBadGateway, genErr.Error())
		default:
			slog.Error("Unexpected generation failure", "error", err)
			Error(w, http.StatusInternalServerError, "generation failed")
		}
		return
	}

	slog.Info("Content generated", "tool", tool.ID, "approach", approach.ID, "length", len(content))
	JSON(w, http.StatusOK, generateResponse{
		Content: content,
		HTML:    markdown.ToHTML(content),
	})
}
