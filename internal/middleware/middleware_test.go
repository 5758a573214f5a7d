package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gameforge.gg/platform/pkg/logger"
)

func quietLogger() *logger.Logger {
	return logger.NewWithOutput(io.Discard, logger.ERROR)
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestClientAuth(t *testing.T) {
	auth := NewAuthenticator("admin-secret", "client-secret", time.Hour)
	token, err := auth.IssueClientToken("7", "a@example.com")
	if err != nil {
		t.Fatalf("IssueClientToken: %v", err)
	}

	var seen *ClientClaims
	h := auth.ClientAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetClientFromContext(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/client/services", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || seen == nil {
		t.Fatalf("status %d, claims %v", rec.Code, seen)
	}
	if seen.ClientID != "7" || seen.Email != "a@example.com" {
		t.Fatalf("unexpected claims: %+v", seen)
	}
}

func TestSessionsAreNotInterchangeable(t *testing.T) {
	auth := NewAuthenticator("admin-secret", "client-secret", time.Hour)
	adminToken, _ := auth.IssueAdminToken(1, "ops@gameforge.gg", RoleAdmin)
	clientToken, _ := auth.IssueClientToken("7", "a@example.com")

	cases := []struct {
		name  string
		mw    func(http.Handler) http.Handler
		token string
	}{
		{"admin token on client route", auth.ClientAuth, adminToken},
		{"client token on admin route", auth.AdminAuth, clientToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			rec := httptest.NewRecorder()
			tc.mw(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("got %d", rec.Code)
			}
		})
	}
}

func TestAdminAuthRejects(t *testing.T) {
	auth := NewAuthenticator("admin-secret", "client-secret", time.Hour)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 1, Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	expiredToken, _ := expired.SignedString([]byte("admin-secret"))

	for name, header := range map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"expired":        "Bearer " + expiredToken,
		"garbage":        "Bearer not.a.token",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		auth.AdminAuth(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: got %d", name, rec.Code)
		}
	}
}

func TestRequireRole(t *testing.T) {
	auth := NewAuthenticator("admin-secret", "client-secret", time.Hour)
	token, _ := auth.IssueAdminToken(2, "support@gameforge.gg", "support")

	h := auth.AdminAuth(RequireRole(RoleAdmin)(http.HandlerFunc(okHandler)))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("got %d", rec.Code)
	}
}

type failingCounter struct{ calls int }

func (f *failingCounter) CheckRateLimit(context.Context, string, int, time.Duration) (bool, int, error) {
	f.calls++
	return true, 0, errors.New("redis down")
}

func TestRateLimiterFallsBackToLocalLimiter(t *testing.T) {
	counter := &failingCounter{}
	rl := NewRateLimiter(counter, 2, time.Minute, quietLogger())
	h := rl.Middleware(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.RemoteAddr = "198.51.100.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") == "" {
			t.Fatal("missing Retry-After")
		}
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes: %v", codes)
	}
	if counter.calls != 3 {
		t.Fatalf("shared counter should be tried first, called %d times", counter.calls)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.5" {
		t.Fatalf("got %q", got)
	}
	req.Header.Del("X-Forwarded-For")
	if got := clientIP(req); got != "10.0.0.1" {
		t.Fatalf("got %q", got)
	}
}

func TestRequestLoggerSetsID(t *testing.T) {
	var fromCtx string
	h := RequestLogger(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	id := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil || id != fromCtx {
		t.Fatalf("generated id %q, context %q", id, fromCtx)
	}

	inbound := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, inbound)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) != inbound {
		t.Fatal("well-formed inbound id should be kept")
	}
}
