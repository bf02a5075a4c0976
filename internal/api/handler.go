// Package api provides HTTP handlers for the C2H AI API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ashureev/c2h-ai/internal/catalog"
	"github.com/ashureev/c2h-ai/internal/chat"
	"github.com/ashureev/c2h-ai/internal/completion"
	"github.com/ashureev/c2h-ai/internal/identity"
	"github.com/ashureev/c2h-ai/internal/session"
)

// maxRequestBodySize bounds JSON request bodies (1MB).
const maxRequestBodySize = 1 << 20

var errUnknownDevice = errors.New("missing device identity")

// Handler provides common handler dependencies.
type Handler struct {
	catalog  *catalog.Catalog
	ai       *completion.Client
	sessions *session.Registry
	chat     *chat.Reconciler
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(cat *catalog.Catalog, ai *completion.Client, sessions *session.Registry, reconciler *chat.Reconciler) *Handler {
	return &Handler{
		catalog:  cat,
		ai:       ai,
		sessions: sessions,
		chat:     reconciler,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// store returns the chat session store of the requesting device.
func (h *Handler) store(r *http.Request) (*session.Store, error) {
	owner := identity.DeviceIDFromContext(r.Context())
	if owner == "" {
		return nil, errUnknownDevice
	}
	return h.sessions.Store(r.Context(), owner)
}

// storeOrError is store for handlers. It writes the error response and
// reports false when the device's history is unavailable.
func (h *Handler) storeOrError(w http.ResponseWriter, r *http.Request) (*session.Store, bool) {
	s, err := h.store(r)
	switch {
	case err == nil:
		return s, true
	case errors.Is(err, errUnknownDevice):
		Error(w, http.StatusUnauthorized, "unauthorized")
	default:
		slog.Error("Chat history unavailable", "error", err)
		Error(w, http.StatusServiceUnavailable, "chat history is temporarily unavailable")
	}
	return nil, false
}
