package domain

import (
	"context"
	"time"
)

// JobRepository defines persistence for job entities.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, jobID string) (*Job, error)
	// MarkInProgress transitions pending -> in_progress; ErrInvalidState if
	// the row is in any other state.
	MarkInProgress(ctx context.Context, jobID string) error
	// Complete transitions in_progress -> completed and stamps completed_at.
	Complete(ctx context.Context, jobID string, resultJSON []byte) error
	// Fail transitions in_progress -> failed with the error message.
	Fail(ctx context.Context, jobID string, errMsg string) error
	// ResetForRetry transitions failed -> pending, clearing error and
	// completion fields. ErrInvalidState unless the row is failed.
	ResetForRetry(ctx context.Context, jobID string) error
	// ListUnfinished returns pending and in_progress job ids in creation order.
	ListUnfinished(ctx context.Context) ([]string, error)
	// ResetInProgress forces all in_progress rows back to pending and
	// returns how many were reset. Only valid before the worker starts.
	ResetInProgress(ctx context.Context) (int64, error)
}

// UsageRepository persists billing-period quota counters.
type UsageRepository interface {
	// Claim atomically increments current_usage if below the limit,
	// returning the updated row. ErrQuotaExceeded when at limit,
	// ErrNotFound when no counter exists for the user.
	Claim(ctx context.Context, ownerID string) (*Usage, error)
	Get(ctx context.Context, ownerID string) (*Usage, error)
	// Upsert installs or overwrites the counter row, used by plan seeding.
	Upsert(ctx context.Context, usage *Usage) error
}

// RateWindowRepository persists rolling-window counters. All mutation is
// atomic conditional update; callers never read-then-write.
type RateWindowRepository interface {
	// Increment bumps the active window for the user if it is under limit.
	// Returns ErrNotFound when no active under-limit window matched.
	Increment(ctx context.Context, ownerID string, window time.Duration, limit int) (*RateWindow, error)
	// Start creates the user's window, or resets a stale one in place.
	// Returns ErrNotFound when an active window already exists (the caller
	// is racing a concurrent request or the window is at limit).
	Start(ctx context.Context, ownerID string, window time.Duration) (*RateWindow, error)
	Get(ctx context.Context, ownerID string) (*RateWindow, error)
}

// UserRepository defines access to external-identity-backed user records.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	Upsert(ctx context.Context, user *User) (*User, error)
}

// UsageEventRepository records per-attempt analytics events.
type UsageEventRepository interface {
	Insert(ctx context.Context, event *UsageEvent) error
	Summary(ctx context.Context) (*StatsSummary, error)
}
