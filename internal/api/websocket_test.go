//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/ashureev/c2h-ai/internal/completion"
	"github.com/ashureev/c2h-ai/internal/completion/testutil"
)

func TestChatSocketStreamsReply(t *testing.T) {
	env := newTestEnv(t, completion.NewWithBackend(&testutil.MockBackend{Chunks: []string{"Hi ", "there"}}))
	sess := env.store(t).Create()

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat?session_id=" + sess.ID
	ws, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer func() { _ = ws.Close(websocket.StatusNormalClosure, "") }()

	send := func(v wsMessage) {
		data, _ := json.Marshal(v)
		if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	read := func() wsEvent {
		_, data, err := ws.Read(ctx)
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		var ev wsEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("bad frame %q: %v", data, err)
		}
		return ev
	}

	send(wsMessage{Type: "ping"})
	if ev := read(); ev.Type != "pong" {
		t.Fatalf("expected pong, got %+v", ev)
	}

	send(wsMessage{Type: "message", Message: "Hello"})
	var last *messageView
	for {
		ev := read()
		if ev.Type == "done" {
			break
		}
		if ev.Type != "message" || ev.Message == nil {
			t.Fatalf("unexpected frame %+v", ev)
		}
		last = ev.Message
	}
	if last == nil || last.Text != "Hi there" || last.HTML != "<p>Hi there</p>" {
		t.Fatalf("last update = %+v", last)
	}
}

func TestChatSocketUnknownSession(t *testing.T) {
	env := newTestEnv(t, completion.NewWithBackend(&testutil.MockBackend{}))
	rr := env.do(t, http.MethodGet, "/ws/chat?session_id=missing", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}
