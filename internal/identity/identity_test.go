package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveWithIdentity(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var seen string
	h := Middleware(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = OwnerIDFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func TestMiddlewareIssuesCookie(t *testing.T) {
	rec, owner := serveWithIdentity(t, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	if !isValidAnonID(owner) {
		t.Fatalf("owner id %q does not look like an anonymous id", owner)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != AnonCookieName || cookies[0].Value != owner {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}
	if cookies[0].Secure {
		t.Error("cookie should not be Secure in development")
	}
}

func TestMiddlewareReusesValidCookie(t *testing.T) {
	const existing = "anon_0123456789abcdef0123456789abcdef"
	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: existing})

	_, owner := serveWithIdentity(t, req)
	if owner != existing {
		t.Fatalf("owner = %q, want %q", owner, existing)
	}
}

func TestMiddlewareReplacesForgedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: "../../etc/passwd"})

	_, owner := serveWithIdentity(t, req)
	if owner == "../../etc/passwd" || !isValidAnonID(owner) {
		t.Fatalf("forged cookie was accepted: %q", owner)
	}
}

func TestOwnerIDFromEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := OwnerIDFromContext(req.Context()); got != "" {
		t.Fatalf("OwnerIDFromContext = %q, want empty", got)
	}
}
