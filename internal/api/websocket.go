package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/ashureev/c2h-ai/internal/domain"
)

// ChatSocketHandler streams chat replies over a WebSocket.
type ChatSocketHandler struct {
	*Handler
	allowedOrigin string
	isDev         bool
}

// NewChatSocketHandler creates a new chat socket handler.
func NewChatSocketHandler(base *Handler, allowedOrigin string, isDev bool) *ChatSocketHandler {
	return &ChatSocketHandler{Handler: base, allowedOrigin: allowedOrigin, isDev: isDev}
}

// RegisterRoutes registers the socket route.
func (h *ChatSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/chat", h.ServeHTTP)
}

// wsMessage is a client frame.
type wsMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// wsEvent is a server frame.
type wsEvent struct {
	Type    string       `json:"type"`
	Message *messageView `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// ServeHTTP upgrades GET /ws/chat?session_id= and relays chat turns.
func (h *ChatSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s, ok := h.storeOrError(w, r)
	if !ok {
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if _, ok := s.Session(sessionID); !ok {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "owner", s.Owner())
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "chat ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "owner", s.Owner())
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	reconciler := h.chat.WithChannel("chat_ws")
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "owner", s.Owner())
			} else {
				slog.Warn("WebSocket read error", "error", err, "owner", s.Owner())
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := h.writeJSON(ctx, ws, wsEvent{Type: "error", Error: "invalid message"}); err != nil {
				return
			}
			continue
		}

		switch msg.Type {
		case "ping":
			if err := h.writeJSON(ctx, ws, wsEvent{Type: "pong"}); err != nil {
				slog.Debug("Failed to send pong", "error", err)
				return
			}
		case "message":
			if err := h.ai.Err(); err != nil {
				if err := h.writeJSON(ctx, ws, wsEvent{Type: "error", Error: err.Error()}); err != nil {
					return
				}
				continue
			}
			sendErr := reconciler.Send(ctx, s, sessionID, msg.Message, func(m domain.ChatMessage) {
				v := newMessageView(m)
				if err := h.writeJSON(ctx, ws, wsEvent{Type: "message", Message: &v}); err != nil {
					slog.Debug("Failed to send chat update", "error", err)
					cancel()
				}
			})
			if ctx.Err() != nil {
				return
			}
			done := wsEvent{Type: "done"}
			if sendErr != nil {
				done = wsEvent{Type: "error", Error: sendErr.Error()}
			}
			if err := h.writeJSON(ctx, ws, done); err != nil {
				return
			}
		}
	}
}

func (h *ChatSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" || origin == h.allowedOrigin {
		return true
	}
	if host := r.Host; host != "" && (origin == "http://"+host || origin == "https://"+host) {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *ChatSocketHandler) writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
