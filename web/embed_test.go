package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSPAHandler(t *testing.T) {
	h := SPAHandler()

	tests := []struct {
		name        string
		path        string
		wantCode    int
		wantContain string
	}{
		{name: "root serves index", path: "/", wantCode: http.StatusOK, wantContain: "C2H AI"},
		{name: "static asset", path: "/app.js", wantCode: http.StatusOK, wantContain: "/api/sessions"},
		{name: "chat bubbles use server html", path: "/app.js", wantCode: http.StatusOK, wantContain: "el.innerHTML = msg.html"},
		{name: "client route falls back", path: "/chat/anything", wantCode: http.StatusOK, wantContain: "<html"},
		{name: "unknown api path", path: "/api/nope", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if tt.wantContain != "" && !strings.Contains(rr.Body.String(), tt.wantContain) {
				t.Errorf("body does not contain %q", tt.wantContain)
			}
		})
	}
}
