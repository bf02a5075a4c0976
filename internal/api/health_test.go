package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ashureev/c2h-ai/internal/completion"
	"github.com/ashureev/c2h-ai/internal/completion/testutil"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		ai         *completion.Client
		storageErr error
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "all ok",
			ai:         completion.NewWithBackend(&testutil.MockBackend{}),
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
			wantChecks: map[string]string{"api": "ok", "database": "ok", "ai": "ok"},
		},
		{
			name:       "ai disabled",
			ai:         completion.New(completion.Config{}),
			wantCode:   http.StatusOK,
			wantStatus: "degraded",
			wantChecks: map[string]string{"api": "ok", "database": "ok", "ai": "disabled"},
		},
		{
			name:       "database down",
			ai:         completion.NewWithBackend(&testutil.MockBackend{}),
			storageErr: errors.New("disk gone"),
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			wantChecks: map[string]string{"api": "ok", "database": "unreachable", "ai": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(NewHandler(nil, tt.ai, nil, nil), fakePinger{err: tt.storageErr})

			rr := httptest.NewRecorder()
			h.Health(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			var body healthBody
			decode(t, rr, &body)
			if body.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", body.Status, tt.wantStatus)
			}
			for k, want := range tt.wantChecks {
				if body.Checks[k] != want {
					t.Errorf("checks[%s] = %q, want %q", k, body.Checks[k], want)
				}
			}
		})
	}
}
