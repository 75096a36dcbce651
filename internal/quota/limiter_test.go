package quota

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
)

func planLimits(free, pro int) PlanLimits {
	return func(plan string) int {
		switch plan {
		case "pro":
			return pro
		case "enterprise":
			return 0
		default:
			return free
		}
	}
}

func newTestLimiter(windows *fakeWindowRepo, plan domain.UserPlan, limit int) *Limiter {
	users := &fakeUserRepo{users: map[string]*domain.User{
		"u1": {ID: "u1", Plan: plan},
	}}
	return NewLimiter(users, windows, planLimits(limit, limit*6), time.Hour)
}

func TestLimiterFirstRequestCreatesWindow(t *testing.T) {
	windows := newFakeWindowRepo()
	l := newTestLimiter(windows, domain.UserPlanFree, 10)

	d, err := l.Allow(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Allow returned error: %v", err)
	}
	if !d.Allowed {
		t.Fatal("first request should be allowed")
	}
	if d.Remaining != 9 {
		t.Fatalf("Remaining = %d, want 9", d.Remaining)
	}
	if windows.rowCount() != 1 {
		t.Fatalf("window rows = %d, want 1", windows.rowCount())
	}
}

func TestLimiterConcurrentFirstRequests(t *testing.T) {
	const n = 8
	windows := newFakeWindowRepo()
	l := newTestLimiter(windows, domain.UserPlanFree, 100)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Allow(context.Background(), "u1")
			if err == nil && !d.Allowed {
				err = domain.ErrRateLimited
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Allow failed: %v", err)
		}
	}
	if windows.rowCount() != 1 {
		t.Fatalf("window rows = %d, want exactly 1", windows.rowCount())
	}
	w, err := windows.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if w.RequestCount != n {
		t.Fatalf("RequestCount = %d, want %d", w.RequestCount, n)
	}
}

func TestLimiterRejectsAtLimitWithResetAt(t *testing.T) {
	windows := newFakeWindowRepo()
	l := newTestLimiter(windows, domain.UserPlanFree, 2)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, "u1")
		if err != nil || !d.Allowed {
			t.Fatalf("request %d should pass: allowed=%v err=%v", i, d != nil && d.Allowed, err)
		}
	}

	d, err := l.Allow(ctx, "u1")
	if err != nil {
		t.Fatalf("Allow returned error: %v", err)
	}
	if d.Allowed {
		t.Fatal("third request should be rejected")
	}
	if d.Limit != 2 {
		t.Fatalf("Limit = %d, want 2", d.Limit)
	}
	w, _ := windows.Get(ctx, "u1")
	if !d.ResetAt.Equal(w.WindowStart.Add(time.Hour)) {
		t.Fatalf("ResetAt = %v, want windowStart+1h (%v)", d.ResetAt, w.WindowStart.Add(time.Hour))
	}
	// Rejection must not consume window budget.
	if w.RequestCount != 2 {
		t.Fatalf("RequestCount = %d, want 2", w.RequestCount)
	}
}

func TestLimiterStaleWindowResetsInPlace(t *testing.T) {
	windows := newFakeWindowRepo()
	windows.windows["u1"] = &domain.RateWindow{
		OwnerID:      "u1",
		WindowStart:  time.Now().Add(-2 * time.Hour),
		RequestCount: 99,
	}
	l := newTestLimiter(windows, domain.UserPlanFree, 10)

	d, err := l.Allow(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Allow returned error: %v", err)
	}
	if !d.Allowed {
		t.Fatal("request against a stale window should be allowed")
	}
	if d.Remaining != 9 {
		t.Fatalf("Remaining = %d, want 9", d.Remaining)
	}
	if windows.rowCount() != 1 {
		t.Fatalf("window rows = %d, want 1", windows.rowCount())
	}
}

func TestLimiterEnterpriseBypassesWindow(t *testing.T) {
	windows := newFakeWindowRepo()
	l := newTestLimiter(windows, domain.UserPlanEnterprise, 10)

	d, err := l.Allow(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Allow returned error: %v", err)
	}
	if !d.Allowed || !d.Bypassed {
		t.Fatalf("enterprise decision = %+v, want allowed bypass", d)
	}
	if windows.rowCount() != 0 {
		t.Fatalf("bypass must not create a window, got %d rows", windows.rowCount())
	}
}

func TestLimiterUnknownUser(t *testing.T) {
	l := newTestLimiter(newFakeWindowRepo(), domain.UserPlanFree, 10)

	if _, err := l.Allow(context.Background(), "missing"); err == nil {
		t.Fatal("Allow should fail for an unknown user")
	}
}
