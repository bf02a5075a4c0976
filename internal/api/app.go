package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/c2h-ai/internal/domain"
)

// AppHandler serves the view's bootstrap data.
type AppHandler struct {
	*Handler
}

// NewAppHandler creates a new app handler.
func NewAppHandler(base *Handler) *AppHandler {
	return &AppHandler{Handler: base}
}

// RegisterRoutes registers app routes.
func (h *AppHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/config", h.GetConfig)
		r.Get("/catalog", h.GetCatalog)
	})
}

type configResponse struct {
	AIEnabled bool   `json:"ai_enabled"`
	Error     string `json:"error,omitempty"`
}

// GetConfig reports whether the AI features are usable.
func (h *AppHandler) GetConfig(w http.ResponseWriter, _ *http.Request) {
	resp := configResponse{AIEnabled: h.ai.Enabled()}
	if err := h.ai.Err(); err != nil {
		resp.Error = err.Error()
	}
	JSON(w, http.StatusOK, resp)
}

type catalogResponse struct {
	Tools           []domain.Tool     `json:"tools"`
	Approaches      []domain.Approach `json:"approaches"`
	DefaultTool     string            `json:"default_tool"`
	DefaultApproach string            `json:"default_approach"`
}

// GetCatalog returns the tools and teaching approaches.
func (h *AppHandler) GetCatalog(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, catalogResponse{
		Tools:           h.catalog.Tools,
		Approaches:      h.catalog.Approaches,
		DefaultTool:     h.catalog.DefaultTool().ID,
		DefaultApproach: h.catalog.DefaultApproach().ID,
	})
}
