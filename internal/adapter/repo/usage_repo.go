package repo

import (
	"context"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/infra"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/sqlinline"
)

// UsageRepositoryPG implements domain.UsageRepository on PostgreSQL.
type UsageRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUsageRepository creates a new usage counter repository.
func NewUsageRepository(sql infra.SQLExecutor) *UsageRepositoryPG {
	return &UsageRepositoryPG{sql: sql}
}

// Claim atomically increments current_usage if it is below the limit. The
// guard lives inside the update statement, so two concurrent claims against
// the last unit of quota resolve to exactly one success at the store.
func (r *UsageRepositoryPG) Claim(ctx context.Context, ownerID string) (*domain.Usage, error) {
	usage := domain.Usage{OwnerID: ownerID}
	row := r.sql.QueryRow(ctx, sqlinline.QClaimUsage, ownerID)
	if err := row.Scan(&usage.CurrentUsage, &usage.UsageLimit, &usage.UpdatedAt); err != nil {
		if !infra.IsNoRows(err) {
			return nil, err
		}
		// Zero rows: either no counter exists or the user is at limit.
		existing, getErr := r.Get(ctx, ownerID)
		if getErr != nil {
			return nil, getErr
		}
		return existing, domain.ErrQuotaExceeded
	}
	return &usage, nil
}

// Get fetches the counter without mutating it.
func (r *UsageRepositoryPG) Get(ctx context.Context, ownerID string) (*domain.Usage, error) {
	usage := domain.Usage{OwnerID: ownerID}
	row := r.sql.QueryRow(ctx, sqlinline.QSelectUsage, ownerID)
	if err := row.Scan(&usage.CurrentUsage, &usage.UsageLimit, &usage.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &usage, nil
}

// Upsert installs or overwrites the counter row.
func (r *UsageRepositoryPG) Upsert(ctx context.Context, usage *domain.Usage) error {
	row := r.sql.QueryRow(ctx, sqlinline.QUpsertUsage, usage.OwnerID, usage.CurrentUsage, usage.UsageLimit)
	return row.Scan(&usage.CurrentUsage, &usage.UsageLimit, &usage.UpdatedAt)
}

var _ domain.UsageRepository = (*UsageRepositoryPG)(nil)
