package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/c2h-ai/internal/completion"
	"github.com/ashureev/c2h-ai/internal/completion/testutil"
	"github.com/ashureev/c2h-ai/internal/domain"
	"github.com/ashureev/c2h-ai/internal/session"
	"github.com/ashureev/c2h-ai/internal/store"
)

type recordingLogger struct {
	mu     sync.Mutex
	events []ConversationLogEvent
}

func (l *recordingLogger) Log(e ConversationLogEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *recordingLogger) Close() error { return nil }

func newStore(t *testing.T, mock *testutil.MockBackend) (*session.Store, string) {
	t.Helper()
	titles := &sync.WaitGroup{}
	s, err := session.Open(context.Background(), "device-1", store.NewMemory(), completion.NewWithBackend(mock), session.Options{Titles: titles})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		titles.Wait()
		s.Close()
	})
	return s, s.Create().ID
}

func TestSendStreamsIntoOneModelEntry(t *testing.T) {
	mock := &testutil.MockBackend{Chunks: []string{"Hel", "lo"}, Responses: []string{"Greeting"}}
	s, id := newStore(t, mock)
	convLog := &recordingLogger{}
	r := NewReconciler(convLog, nil)

	var updates []domain.ChatMessage
	if err := r.Send(context.Background(), s, id, "Hi", func(m domain.ChatMessage) {
		updates = append(updates, m)
	}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	sess, _ := s.Session(id)
	if len(sess.Messages) != 2 {
		t.Fatalf("expected user and model entries, got %+v", sess.Messages)
	}
	user, model := sess.Messages[0], sess.Messages[1]
	if user.Role != domain.RoleUser || user.Text() != "Hi" || !strings.HasPrefix(user.ID, "user-") {
		t.Fatalf("unexpected user entry %+v", user)
	}
	if model.Role != domain.RoleModel || model.Text() != "Hello" || !strings.HasPrefix(model.ID, "model-") {
		t.Fatalf("unexpected model entry %+v", model)
	}

	var modelTexts []string
	for _, u := range updates {
		if u.ID == model.ID {
			modelTexts = append(modelTexts, u.Text())
		}
	}
	if strings.Join(modelTexts, "|") != "|Hel|Hello" {
		t.Fatalf("model updates = %q", modelTexts)
	}
	for i := 1; i < len(modelTexts); i++ {
		if !strings.HasPrefix(modelTexts[i], modelTexts[i-1]) {
			t.Fatalf("reply text must only grow: %q", modelTexts)
		}
	}

	if len(convLog.events) != 2 || convLog.events[1].ContentRaw != "Hello" {
		t.Fatalf("conversation log = %+v", convLog.events)
	}
}

func TestSendFailureKeepsPartialAndApologizes(t *testing.T) {
	mock := &testutil.MockBackend{Chunks: []string{"Part"}, StreamErr: errors.New("connection reset")}
	s, id := newStore(t, mock)
	r := NewReconciler(nil, nil)

	err := r.Send(context.Background(), s, id, "Hi", nil)
	var sendErr *completion.ChatSendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("expected ChatSendError, got %v", err)
	}

	sess, _ := s.Session(id)
	if len(sess.Messages) != 3 {
		t.Fatalf("expected user, partial reply and apology, got %+v", sess.Messages)
	}
	if sess.Messages[1].Text() != "Part" {
		t.Fatalf("partial reply = %q", sess.Messages[1].Text())
	}
	apology := sess.Messages[2]
	if apology.Text() != ApologyText || apology.Role != domain.RoleModel || !strings.HasPrefix(apology.ID, "error-") {
		t.Fatalf("unexpected apology %+v", apology)
	}
}

func TestSendRejectsConcurrentSendToSameSession(t *testing.T) {
	gate := make(chan struct{})
	mock := &testutil.MockBackend{Chunks: []string{"ok"}, StreamGate: gate}
	s, id := newStore(t, mock)
	r := NewReconciler(nil, nil)

	firstDone := make(chan error, 1)
	go func() { firstDone <- r.Send(context.Background(), s, id, "first", nil) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		sess, _ := s.Session(id)
		if len(sess.Messages) == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first send never started streaming")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := r.WithChannel("chat_ws").Send(context.Background(), s, id, "second", nil); !errors.Is(err, ErrSendInProgress) {
		t.Fatalf("expected ErrSendInProgress, got %v", err)
	}

	other := s.Create()
	go func() { <-time.After(10 * time.Millisecond); close(gate) }()
	if err := r.Send(context.Background(), s, other.ID, "elsewhere", nil); err != nil {
		t.Fatalf("send to another session failed: %v", err)
	}
	if err := <-firstDone; err != nil {
		t.Fatalf("first send failed: %v", err)
	}

	sess, _ := s.Session(id)
	if len(sess.Messages) != 2 || sess.Messages[1].Text() != "ok" {
		t.Fatalf("rejected send must not touch the transcript: %+v", sess.Messages)
	}
}

func TestSendCancelledKeepsPartialWithoutApology(t *testing.T) {
	mock := &testutil.MockBackend{StreamGate: make(chan struct{})}
	s, id := newStore(t, mock)
	r := NewReconciler(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { <-time.After(10 * time.Millisecond); cancel() }()

	if err := r.Send(ctx, s, id, "Hi", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	sess, _ := s.Session(id)
	if len(sess.Messages) != 2 {
		t.Fatalf("expected user entry and empty placeholder, got %+v", sess.Messages)
	}
}

func TestSendValidation(t *testing.T) {
	s, id := newStore(t, &testutil.MockBackend{})
	r := NewReconciler(nil, nil)

	if err := r.Send(context.Background(), s, id, "   ", nil); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if err := r.Send(context.Background(), s, "missing", "hi", nil); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	sess, _ := s.Session(id)
	if len(sess.Messages) != 0 {
		t.Fatal("rejected sends must not touch the transcript")
	}
}
