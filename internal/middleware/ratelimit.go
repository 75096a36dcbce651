package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/quota"
)

// RateLimitDecider is the slice of the quota limiter this wrapper needs.
type RateLimitDecider interface {
	Allow(ctx context.Context, ownerID string) (*quota.Decision, error)
}

// RateLimit gates paid endpoints behind the per-user rolling-window limit.
// It must run after Identity. Rejections carry the plan limit and the
// window's reset time so clients can back off instead of hammering.
func RateLimit(limiter RateLimitDecider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFromContext(r.Context())
			if userID == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing user identity", nil)
				return
			}

			decision, err := limiter.Allow(r.Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					writeJSONError(w, http.StatusNotFound, "not_found", "unknown user", nil)
					return
				}
				// Store trouble is transient: callers should retry, not
				// treat it as "limit reached".
				writeJSONError(w, http.StatusServiceUnavailable, "unavailable", "rate limit check failed, retry later", nil)
				return
			}

			if !decision.Bypassed {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
			}

			if !decision.Allowed {
				retryAfter := int(time.Until(decision.ResetAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeJSONError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded", map[string]any{
					"limit":    decision.Limit,
					"reset_at": decision.ResetAt.UTC().Format(time.RFC3339),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
