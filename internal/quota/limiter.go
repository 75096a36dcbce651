// Package quota enforces the two distinct admission controls: the rolling
// window rate limiter and the billing-period usage meter. Both lean on
// store-level atomic conditional updates so concurrent requests, including
// requests served by other processes, cannot double-count.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
)

// PlanLimits resolves a plan to its rolling-window request limit.
// A limit of zero means the plan is not rate limited.
type PlanLimits func(plan string) int

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed   bool
	Bypassed  bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter applies the per-user rolling-window rate limit.
type Limiter struct {
	users   domain.UserRepository
	windows domain.RateWindowRepository
	limits  PlanLimits
	window  time.Duration
}

// NewLimiter constructs a limiter over the given stores.
func NewLimiter(users domain.UserRepository, windows domain.RateWindowRepository, limits PlanLimits, window time.Duration) *Limiter {
	return &Limiter{users: users, windows: windows, limits: limits, window: window}
}

// Allow decides whether ownerID may perform one more limited request now,
// recording the request when it is allowed.
//
// The fast path is a single conditional increment against the active window.
// When that matches no row the user either has no active window (start one,
// count 1) or is at the limit (reject with the window's reset time). The
// start statement is itself conditional on the window being stale or absent,
// so two first-time requests racing each other produce one window, not two:
// the loser of the race falls back to the increment on the next iteration.
func (l *Limiter) Allow(ctx context.Context, ownerID string) (*Decision, error) {
	user, err := l.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("rate limit lookup: %w", err)
	}
	if user.Unlimited() {
		return &Decision{Allowed: true, Bypassed: true}, nil
	}
	limit := l.limits(string(user.Plan))
	if limit <= 0 {
		return &Decision{Allowed: true, Bypassed: true}, nil
	}

	for attempt := 0; attempt < 2; attempt++ {
		w, err := l.windows.Increment(ctx, ownerID, l.window, limit)
		if err == nil {
			return l.allowed(w, limit), nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}

		w, err = l.windows.Start(ctx, ownerID, l.window)
		if err == nil {
			return l.allowed(w, limit), nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		// An active window exists but would not increment: at limit, or a
		// concurrent request created it between our two statements. Retry
		// once; a second miss means genuinely at limit.
	}

	w, err := l.windows.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &Decision{
		Allowed: false,
		Limit:   limit,
		ResetAt: w.ResetAt(l.window),
	}, nil
}

func (l *Limiter) allowed(w *domain.RateWindow, limit int) *Decision {
	remaining := limit - w.RequestCount
	if remaining < 0 {
		remaining = 0
	}
	return &Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   w.ResetAt(l.window),
	}
}

// Window exposes the configured rolling-window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}
