package domain

import "time"

// UnlimitedUsage is the sentinel limit meaning the counter never rejects.
const UnlimitedUsage = -1

// Usage is the billing-period quota counter for one user. It is distinct
// from the short rolling-window rate limiter: usage only ever moves via the
// atomic claim primitive and is reset by the billing cycle, not by time
// passing here.
type Usage struct {
	OwnerID      string
	CurrentUsage int
	UsageLimit   int
	UpdatedAt    time.Time
}

// Unlimited reports whether the limit is the "no cap" sentinel.
func (u Usage) Unlimited() bool {
	return u.UsageLimit < 0
}

// AtLimit reports whether a further claim would be rejected.
func (u Usage) AtLimit() bool {
	return !u.Unlimited() && u.CurrentUsage >= u.UsageLimit
}

// Percentage returns consumed quota as 0..100, or 0 for unlimited plans.
func (u Usage) Percentage() int {
	if u.Unlimited() || u.UsageLimit == 0 {
		return 0
	}
	pct := u.CurrentUsage * 100 / u.UsageLimit
	if pct > 100 {
		pct = 100
	}
	return pct
}

// RateWindow is the rolling-window counter for one user. At most one row
// exists per user (user id is the primary key); a stale window is reset in
// place rather than inserted alongside.
type RateWindow struct {
	OwnerID      string
	WindowStart  time.Time
	RequestCount int
}

// ResetAt returns when the window stops limiting, given the window length.
func (w RateWindow) ResetAt(window time.Duration) time.Time {
	return w.WindowStart.Add(window)
}
