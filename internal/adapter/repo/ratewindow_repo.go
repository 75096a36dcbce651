package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/infra"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/sqlinline"
)

// RateWindowRepositoryPG implements domain.RateWindowRepository on PostgreSQL.
// owner_id is the table's primary key, so the insert-or-reset statement can
// never produce two windows for one user regardless of concurrency.
type RateWindowRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewRateWindowRepository creates a new rate window repository.
func NewRateWindowRepository(sql infra.SQLExecutor) *RateWindowRepositoryPG {
	return &RateWindowRepositoryPG{sql: sql}
}

// Increment bumps the user's active window if it is under the limit.
func (r *RateWindowRepositoryPG) Increment(ctx context.Context, ownerID string, window time.Duration, limit int) (*domain.RateWindow, error) {
	w := domain.RateWindow{OwnerID: ownerID}
	row := r.sql.QueryRow(ctx, sqlinline.QIncrementRateWindow, ownerID, intervalArg(window), limit)
	if err := row.Scan(&w.WindowStart, &w.RequestCount); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// Start creates the user's window or resets a stale one in place.
func (r *RateWindowRepositoryPG) Start(ctx context.Context, ownerID string, window time.Duration) (*domain.RateWindow, error) {
	w := domain.RateWindow{OwnerID: ownerID}
	row := r.sql.QueryRow(ctx, sqlinline.QStartRateWindow, ownerID, intervalArg(window))
	if err := row.Scan(&w.WindowStart, &w.RequestCount); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// Get fetches the user's window row, active or stale.
func (r *RateWindowRepositoryPG) Get(ctx context.Context, ownerID string) (*domain.RateWindow, error) {
	w := domain.RateWindow{OwnerID: ownerID}
	row := r.sql.QueryRow(ctx, sqlinline.QSelectRateWindow, ownerID)
	if err := row.Scan(&w.WindowStart, &w.RequestCount); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func intervalArg(d time.Duration) string {
	return fmt.Sprintf("%d seconds", int64(d.Seconds()))
}

var _ domain.RateWindowRepository = (*RateWindowRepositoryPG)(nil)
