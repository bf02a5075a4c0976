package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ashureev/c2h-ai/internal/chat"
	"github.com/ashureev/c2h-ai/internal/completion"
	"github.com/ashureev/c2h-ai/internal/domain"
	"github.com/ashureev/c2h-ai/internal/markdown"
	"github.com/ashureev/c2h-ai/internal/session"
)

// SessionHandler manages the device's chat sessions and streams replies.
type SessionHandler struct {
	*Handler
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(base *Handler) *SessionHandler {
	return &SessionHandler{Handler: base}
}

// RegisterRoutes registers session routes.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/active", h.SetActive)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/messages", h.SendMessage)
	})
}

type sessionSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	MessageCount int    `json:"message_count"`
}

type sessionListResponse struct {
	Sessions []sessionSummary `json:"sessions"`
	ActiveID string           `json:"active_id"`
}

type messageView struct {
	ID   string      `json:"id,omitempty"`
	Role domain.Role `json:"role"`
	Text string      `json:"text"`
	HTML string      `json:"html,omitempty"`
}

type sessionView struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Messages []messageView `json:"messages"`
}

func newMessageView(m domain.ChatMessage) messageView {
	text := m.Text()
	return messageView{ID: m.ID, Role: m.Role, Text: text, HTML: markdown.ToHTML(text)}
}

func newSessionView(s *domain.ChatSession) sessionView {
	v := sessionView{ID: s.ID, Title: s.Title, Messages: make([]messageView, len(s.Messages))}
	for i, m := range s.Messages {
		v.Messages[i] = newMessageView(m)
	}
	return v
}

// List handles GET /api/sessions.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := h.storeOrError(w, r)
	if !ok {
		return
	}
	sessions := s.Sessions()
	resp := sessionListResponse{
		Sessions: make([]sessionSummary, len(sessions)),
		ActiveID: s.ActiveID(),
	}
	for i, sess := range sessions {
		resp.Sessions[i] = sessionSummary{ID: sess.ID, Title: sess.Title, MessageCount: len(sess.Messages)}
	}
	JSON(w, http.StatusOK, resp)
}

// Create handles POST /api/sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, ok := h.storeOrError(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusCreated, newSessionView(s.Create()))
}

// SetActive handles PUT /api/sessions/active.
func (h *SessionHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	s, ok := h.storeOrError(w, r)
	if !ok {
		return
	}
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !s.SwitchActive(req.ID) {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Get handles GET /api/sessions/{id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.storeOrError(w, r)
	if !ok {
		return
	}
	sess, ok := s.Session(chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	JSON(w, http.StatusOK, newSessionView(sess))
}

// Delete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := h.storeOrError(w, r)
	if !ok {
		return
	}
	if !s.Delete(chi.URLParam(r, "id")) {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"active_id": s.ActiveID()})
}

// SendMessage handles POST /api/sessions/{id}/messages. The reply is
// streamed as SSE "message" events carrying the growing transcript entry,
// followed by "done" or "error".
func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.storeOrError(w, r)
	if !ok {
		return
	}
	sessionID := chi.URLParam(r, "id")

	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.ai.Err(); err != nil {
		Error(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	slog.Info("Chat message request",
		"owner", s.Owner(),
		"session_id", sessionID,
		"message_length", len(req.Message),
		"request_id", chiMiddleware.GetReqID(r.Context()),
	)

	started := false
	writeFailed := false
	onUpdate := func(m domain.ChatMessage) {
		if writeFailed {
			return
		}
		if !started {
			started = true
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
		}
		data, err := json.Marshal(newMessageView(m))
		if err != nil {
			slog.Warn("failed to marshal chat message", "error", err)
			return
		}
		if err := writeSSE(w, "message", string(data)); err != nil {
			slog.Warn("failed to write SSE message event", "error", err)
			writeFailed = true
			return
		}
		flusher.Flush()
	}

	err := h.chat.Send(r.Context(), s, sessionID, req.Message, onUpdate)
	if !started {
		status, msg := chatErrorStatus(err)
		Error(w, status, msg)
		return
	}
	if writeFailed {
		return
	}

	if err != nil {
		data, _ := json.Marshal(map[string]string{"error": err.Error()})
		if writeErr := writeSSE(w, "error", string(data)); writeErr != nil {
			slog.Warn("failed to write SSE error event", "error", writeErr)
			return
		}
		flusher.Flush()
		return
	}

	data, _ := json.Marshal(map[string]string{"session_id": sessionID})
	if err := writeSSE(w, "done", string(data)); err != nil {
		slog.Warn("failed to write SSE done event", "error", err)
		return
	}
	flusher.Flush()
}

// chatErrorStatus maps a send error raised before streaming began.
func chatErrorStatus(err error) (int, string) {
	var sendErr *completion.ChatSendError
	switch {
	case err == nil:
		return http.StatusInternalServerError, "chat produced no output"
	case errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, chat.ErrSendInProgress):
		return http.StatusConflict, err.Error()
	case completion.IsConfigurationError(err):
		return http.StatusServiceUnavailable, err.Error()
	case errors.As(err, &sendErr):
		return http.StatusBadGateway, sendErr.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func writeSSE(w io.Writer, event, data string) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
