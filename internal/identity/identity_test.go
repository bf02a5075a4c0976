package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func serve(t *testing.T, req *http.Request) (string, *http.Cookie) {
	t.Helper()
	var seen string
	h := Middleware(true)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = DeviceIDFromContext(r.Context())
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	for _, c := range rr.Result().Cookies() {
		if c.Name == DeviceCookieName {
			return seen, c
		}
	}
	t.Fatal("expected device cookie to be set")
	return "", nil
}

func TestMiddlewareAssignsDeviceID(t *testing.T) {
	id, cookie := serve(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if !isValidDeviceID(id) {
		t.Fatalf("invalid device id %q", id)
	}
	if cookie.Value != id || !cookie.HttpOnly || cookie.Secure {
		t.Fatalf("unexpected cookie %+v", cookie)
	}
}

func TestMiddlewareKeepsValidCookie(t *testing.T) {
	existing := generateDeviceID()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: existing})

	id, _ := serve(t, req)
	if id != existing {
		t.Fatalf("device id = %q, want %q", id, existing)
	}
}

func TestMiddlewareReplacesForgedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: "../../etc"})

	id, _ := serve(t, req)
	if id == "../../etc" || !isValidDeviceID(id) {
		t.Fatalf("forged cookie accepted: %q", id)
	}
}
