// Package chat turns a streamed model reply into transcript updates.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/c2h-ai/internal/domain"
	"github.com/ashureev/c2h-ai/internal/session"
)

// ApologyText is appended to the transcript when a reply stream fails.
const ApologyText = "Sorry, I encountered an error. Please try again."

var (
	// ErrEmptyMessage is returned for blank chat input.
	ErrEmptyMessage = errors.New("message is required")
	// ErrSendInProgress is returned when the session is already streaming a reply.
	ErrSendInProgress = errors.New("a reply is already streaming for this session")
)

// Reconciler drives one chat turn: it records the user message, streams
// the reply into a single placeholder entry and records failures.
type Reconciler struct {
	convLog ConversationLogger
	logger  *slog.Logger
	channel string
	locks   *sendLocks
}

// sendLocks marks sessions with a reply in flight.
type sendLocks struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewReconciler creates a reconciler. convLog may be nil.
func NewReconciler(convLog ConversationLogger, logger *slog.Logger) *Reconciler {
	if convLog == nil {
		convLog = noopConversationLogger{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		convLog: convLog,
		logger:  logger,
		channel: "chat_http",
		locks:   &sendLocks{inflight: make(map[string]struct{})},
	}
}

// WithChannel returns a reconciler sharing r's state that tags its
// conversation log events with channel.
func (r *Reconciler) WithChannel(channel string) *Reconciler {
	return &Reconciler{
		convLog: r.convLog,
		logger:  r.logger,
		channel: channel,
		locks:   r.locks,
	}
}

// Send records text as a user turn in the session and streams the reply.
// onUpdate, when set, receives every transcript entry as it is written.
// Stream failures keep the partial reply, append an apology entry and
// return the *completion.ChatSendError.
func (r *Reconciler) Send(ctx context.Context, s *session.Store, sessionID, text string, onUpdate func(domain.ChatMessage)) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if onUpdate == nil {
		onUpdate = func(domain.ChatMessage) {}
	}
	conv, ok := s.Conversation(sessionID)
	if !ok {
		return session.ErrSessionNotFound
	}

	release, ok := r.locks.acquire(s.Owner() + ":" + sessionID)
	if !ok {
		return ErrSendInProgress
	}
	defer release()

	record := func(msg domain.ChatMessage) error {
		if err := s.AppendOrReplace(sessionID, msg); err != nil {
			return err
		}
		onUpdate(msg)
		return nil
	}

	if err := record(domain.NewTextMessage("user-"+uuid.NewString(), domain.RoleUser, text)); err != nil {
		return err
	}
	r.logEvent(s.Owner(), sessionID, "outbound", "chat_user_message", text, nil)

	modelID := "model-" + uuid.NewString()
	if err := record(domain.NewTextMessage(modelID, domain.RoleModel, "")); err != nil {
		return err
	}

	var reply strings.Builder
	chunks := 0
	var streamErr error
	for chunk, err := range conv.Send(ctx, text) {
		if err != nil {
			streamErr = err
			break
		}
		chunks++
		reply.WriteString(chunk)
		if err := record(domain.NewTextMessage(modelID, domain.RoleModel, reply.String())); err != nil {
			return err
		}
	}

	meta := map[string]any{
		"stream_chunks": chunks,
		"partial":       streamErr != nil,
	}
	if streamErr != nil {
		meta["stream_error"] = streamErr.Error()
	}
	r.logEvent(s.Owner(), sessionID, "inbound", "chat_assistant_message", reply.String(), meta)

	if streamErr == nil {
		return nil
	}

	// A client that went away gets no apology; its partial reply stays.
	if ctx.Err() != nil {
		r.logger.Info("chat stream cancelled", "owner", s.Owner(), "session_id", sessionID)
		return ctx.Err()
	}

	r.logger.Error("chat stream failed", "owner", s.Owner(), "session_id", sessionID, "error", streamErr)
	if err := record(domain.NewTextMessage("error-"+uuid.NewString(), domain.RoleModel, ApologyText)); err != nil {
		r.logger.Warn("failed to record chat apology", "session_id", sessionID, "error", err)
	}
	return streamErr
}

func (l *sendLocks) acquire(key string) (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.inflight[key]; busy {
		return nil, false
	}
	l.inflight[key] = struct{}{}
	return func() {
		l.mu.Lock()
		delete(l.inflight, key)
		l.mu.Unlock()
	}, true
}

func (r *Reconciler) logEvent(owner, sessionID, direction, eventType, content string, meta map[string]any) {
	r.convLog.Log(ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		UserID:     owner,
		SessionID:  sessionID,
		Channel:    r.channel,
		Direction:  direction,
		EventType:  eventType,
		ContentRaw: content,
		Content:    cleanForReadability(content),
		Meta:       meta,
	})
}
