package httpapi

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"luxepos/internal/market"
	"luxepos/internal/service"
	"luxepos/internal/session"
	"luxepos/internal/store/memory"
)

func TestViewsRedirectSignedOutVisitorsToLogin(t *testing.T) {
	env := newTestAPI(t)

	for _, path := range []string{"/news", "/inventory", "/inventory/edit/3", "/invoice/create?type=pawn", "/sales"} {
		rec := env.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
			t.Fatalf("%s: expected redirect to /login, got %d %q", path, rec.Code, rec.Header().Get("Location"))
		}
	}

	rec := env.do(t, http.MethodGet, "/login", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/login: expected 200, got %d", rec.Code)
	}
}

func TestViewsForSignedInUser(t *testing.T) {
	env := newTestAPI(t)
	env.login(t)

	rec := env.do(t, http.MethodGet, "/login", "", nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/news" {
		t.Fatalf("/login: expected redirect to /news, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = env.do(t, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/news" {
		t.Fatalf("/: expected redirect to /news, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = env.do(t, http.MethodGet, "/invoice/create?type=pawn", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var view map[string]any
	decodeBody(t, rec, &view)
	if view["view"] != "/invoice/create" || view["type"] != "pawn" || view["authenticated"] != true {
		t.Fatalf("unexpected view %v", view)
	}
}

func TestViewsServeStaticIndex(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>luxe</html>"), 0o600); err != nil {
		t.Fatalf("write index: %v", err)
	}

	log, _ := test.NewNullLogger()
	svc := service.New(memory.NewSeeded(), market.NewStaticFeed(), log)
	guard := session.NewGuard(session.MockAuthenticator{}, session.NewMemoryStore(), log)
	api := New(svc, guard, NewTokenIssuer("", time.Hour), Options{StaticDir: dir, Logger: log})

	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "luxe") {
		t.Fatalf("expected index.html, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	env := newTestAPI(t)
	rec := env.do(t, http.MethodGet, "/healthz", "", nil)

	for header, want := range map[string]string{
		"X-Content-Type-Options":      "nosniff",
		"X-Frame-Options":             "DENY",
		"Access-Control-Allow-Origin": "*",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Fatalf("%s: expected %q, got %q", header, want, got)
		}
	}
}

func TestPreflightShortCircuits(t *testing.T) {
	env := newTestAPI(t)
	rec := env.do(t, http.MethodOptions, "/api/v1/products", "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	env := newTestAPI(t)
	body := `{"email":"` + strings.Repeat("a", 2<<20) + `","password":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUnknownFieldsRejected(t *testing.T) {
	env := newTestAPI(t)
	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "admin",
		"password": "admin123",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUnknownAPIRouteIsJSON404(t *testing.T) {
	env := newTestAPI(t)
	rec := env.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json error, got %q", ct)
	}
}

func TestAttemptLimiterForgetsIdleClients(t *testing.T) {
	limiter := newAttemptLimiter(2, time.Minute)
	current := time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	for _, key := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		if !limiter.Allow(key) {
			t.Fatalf("first attempt from %s should pass", key)
		}
	}
	if !limiter.Allow("10.0.0.1") || limiter.Allow("10.0.0.1") {
		t.Fatalf("expected the third attempt inside the window to be refused")
	}

	current = current.Add(2 * time.Minute)
	if !limiter.Allow("10.0.0.9") {
		t.Fatalf("new client should pass")
	}
	if len(limiter.entries) != 1 {
		t.Fatalf("expected idle clients to be evicted, %d keys left", len(limiter.entries))
	}
	if !limiter.Allow("10.0.0.1") {
		t.Fatalf("window has passed, client should be allowed again")
	}
}
