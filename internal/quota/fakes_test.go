package quota

import (
	"context"
	"sync"
	"time"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
)

// The fakes mirror the store's conditional-update semantics under a mutex,
// which is what the real statements guarantee at the row level.

type fakeUsageRepo struct {
	mu       sync.Mutex
	counters map[string]*domain.Usage
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{counters: make(map[string]*domain.Usage)}
}

func (r *fakeUsageRepo) Claim(ctx context.Context, ownerID string) (*domain.Usage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.counters[ownerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if u.AtLimit() {
		copy := *u
		return &copy, domain.ErrQuotaExceeded
	}
	u.CurrentUsage++
	u.UpdatedAt = time.Now()
	copy := *u
	return &copy, nil
}

func (r *fakeUsageRepo) Get(ctx context.Context, ownerID string) (*domain.Usage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.counters[ownerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (r *fakeUsageRepo) Upsert(ctx context.Context, usage *domain.Usage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *usage
	r.counters[usage.OwnerID] = &copy
	return nil
}

type fakeWindowRepo struct {
	mu      sync.Mutex
	windows map[string]*domain.RateWindow
}

func newFakeWindowRepo() *fakeWindowRepo {
	return &fakeWindowRepo{windows: make(map[string]*domain.RateWindow)}
}

func (r *fakeWindowRepo) Increment(ctx context.Context, ownerID string, window time.Duration, limit int) (*domain.RateWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[ownerID]
	if !ok || time.Since(w.WindowStart) >= window || w.RequestCount >= limit {
		return nil, domain.ErrNotFound
	}
	w.RequestCount++
	copy := *w
	return &copy, nil
}

func (r *fakeWindowRepo) Start(ctx context.Context, ownerID string, window time.Duration) (*domain.RateWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.windows[ownerID]; ok && time.Since(w.WindowStart) < window {
		return nil, domain.ErrNotFound
	}
	w := &domain.RateWindow{OwnerID: ownerID, WindowStart: time.Now(), RequestCount: 1}
	r.windows[ownerID] = w
	copy := *w
	return &copy, nil
}

func (r *fakeWindowRepo) Get(ctx context.Context, ownerID string) (*domain.RateWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[ownerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copy := *w
	return &copy, nil
}

func (r *fakeWindowRepo) rowCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.windows)
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) Upsert(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.users[user.ID] = user
	return user, nil
}
