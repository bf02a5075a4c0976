package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const defaultHealthCheckTimeout = 5 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	*Handler
	storage Pinger
	timeout time.Duration
}

// NewHealthHandler creates a health handler that checks the blob store and
// reports the AI configuration.
func NewHealthHandler(base *Handler, storage Pinger) *HealthHandler {
	return &HealthHandler{Handler: base, storage: storage, timeout: defaultHealthCheckTimeout}
}

// RegisterRoutes registers the health check route.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/health", h.Health)
}

// Health returns the health status of the API and its dependencies.
// A disabled AI backend degrades the report but not the status code.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checks := map[string]string{"api": "ok", "database": "ok", "ai": "ok"}
	status := "healthy"
	statusCode := http.StatusOK

	if err := h.storage.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		checks["database"] = "unreachable"
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}
	if !h.ai.Enabled() {
		checks["ai"] = "disabled"
		status = "degraded"
	}

	JSON(w, statusCode, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
