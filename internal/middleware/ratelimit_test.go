package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/quota"
)

type stubLimiter struct {
	decision *quota.Decision
	err      error
}

func (s *stubLimiter) Allow(ctx context.Context, ownerID string) (*quota.Decision, error) {
	return s.decision, s.err
}

func serveRateLimited(t *testing.T, limiter RateLimitDecider, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var called bool
	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", nil)
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), userIDKey, userID))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK && !called {
		t.Fatal("next handler not reached despite 200")
	}
	if rec.Code != http.StatusOK && called {
		t.Fatal("next handler reached despite rejection")
	}
	return rec
}

func TestRateLimitAllowsAndSetsHeaders(t *testing.T) {
	reset := time.Now().Add(30 * time.Minute)
	rec := serveRateLimited(t, &stubLimiter{decision: &quota.Decision{
		Allowed: true, Limit: 10, Remaining: 3, ResetAt: reset,
	}}, "u1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "10" {
		t.Fatalf("limit header = %q", rec.Header().Get("X-RateLimit-Limit"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "3" {
		t.Fatalf("remaining header = %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimitRejectsWithResetAt(t *testing.T) {
	reset := time.Now().Add(10 * time.Minute)
	rec := serveRateLimited(t, &stubLimiter{decision: &quota.Decision{
		Allowed: false, Limit: 5, ResetAt: reset,
	}}, "u1")

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After header missing")
	}

	var body struct {
		Error struct {
			Code    string  `json:"code"`
			Limit   float64 `json:"limit"`
			ResetAt string  `json:"reset_at"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "rate_limited" {
		t.Fatalf("error code = %q, want rate_limited", body.Error.Code)
	}
	if body.Error.Limit != 5 {
		t.Fatalf("limit in body = %v, want 5", body.Error.Limit)
	}
	if body.Error.ResetAt == "" {
		t.Fatal("reset_at missing from body")
	}
}

func TestRateLimitBypassOmitsHeaders(t *testing.T) {
	rec := serveRateLimited(t, &stubLimiter{decision: &quota.Decision{Allowed: true, Bypassed: true}}, "u1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "" {
		t.Fatal("bypass should not advertise a limit")
	}
}

func TestRateLimitErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown user", domain.ErrNotFound, http.StatusNotFound},
		{"store down", errors.New("connection refused"), http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serveRateLimited(t, &stubLimiter{err: tc.err}, "u1")
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestRateLimitRequiresIdentity(t *testing.T) {
	rec := serveRateLimited(t, &stubLimiter{decision: &quota.Decision{Allowed: true}}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
