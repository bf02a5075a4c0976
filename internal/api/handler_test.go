//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/c2h-ai/internal/catalog"
	"github.com/ashureev/c2h-ai/internal/chat"
	"github.com/ashureev/c2h-ai/internal/completion"
	"github.com/ashureev/c2h-ai/internal/completion/testutil"
	"github.com/ashureev/c2h-ai/internal/identity"
	"github.com/ashureev/c2h-ai/internal/session"
	"github.com/ashureev/c2h-ai/internal/store"
)

const testDevice = "dev_0123456789abcdef0123456789abcdef"

type testEnv struct {
	router   chi.Router
	registry *session.Registry
}

func newTestEnv(t *testing.T, ai *completion.Client) *testEnv {
	t.Helper()
	return newTestEnvWithBlobs(t, ai, store.NewMemory())
}

func newTestEnvWithBlobs(t *testing.T, ai *completion.Client, blobs store.BlobStore) *testEnv {
	t.Helper()
	reg := session.NewRegistry(blobs, ai, nil, nil)
	t.Cleanup(func() { reg.Close(context.Background()) })

	base := NewHandler(catalog.Default(), ai, reg, chat.NewReconciler(nil, nil))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(identity.WithDeviceID(r.Context(), testDevice)))
		})
	})
	NewAppHandler(base).RegisterRoutes(r)
	NewGenerateHandler(base).RegisterRoutes(r)
	NewSessionHandler(base).RegisterRoutes(r)
	NewChatSocketHandler(base, "", true).RegisterRoutes(r)

	return &testEnv{router: r, registry: reg}
}

func (e *testEnv) store(t *testing.T) *session.Store {
	t.Helper()
	s, err := e.registry.Store(context.Background(), testDevice)
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	return s
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestConfigWithoutCredential(t *testing.T) {
	env := newTestEnv(t, completion.New(completion.Config{}))

	rr := env.do(t, http.MethodGet, "/api/config", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var got configResponse
	decode(t, rr, &got)
	if got.AIEnabled || got.Error == "" {
		t.Fatalf("expected disabled AI with an error, got %+v", got)
	}

	// The catalog still loads and the session list still works.
	if rr := env.do(t, http.MethodGet, "/api/catalog", nil); rr.Code != http.StatusOK {
		t.Fatalf("catalog status = %d", rr.Code)
	}
	if rr := env.do(t, http.MethodGet, "/api/sessions", nil); rr.Code != http.StatusOK {
		t.Fatalf("sessions status = %d", rr.Code)
	}
}

func TestConfigEnabled(t *testing.T) {
	env := newTestEnv(t, completion.NewWithBackend(&testutil.MockBackend{}))

	var got configResponse
	decode(t, env.do(t, http.MethodGet, "/api/config", nil), &got)
	if !got.AIEnabled || got.Error != "" {
		t.Fatalf("unexpected config %+v", got)
	}
}

func TestCatalog(t *testing.T) {
	env := newTestEnv(t, completion.NewWithBackend(&testutil.MockBackend{}))

	var got catalogResponse
	decode(t, env.do(t, http.MethodGet, "/api/catalog", nil), &got)
	if len(got.Tools) != 6 || len(got.Approaches) != 8 {
		t.Fatalf("got %d tools and %d approaches", len(got.Tools), len(got.Approaches))
	}
	if got.DefaultTool == "" || got.DefaultApproach == "" {
		t.Fatalf("missing defaults %+v", got)
	}
}
