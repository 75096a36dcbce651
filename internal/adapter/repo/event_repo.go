package repo

import (
	"context"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/infra"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/sqlinline"
)

// UsageEventRepositoryPG implements domain.UsageEventRepository on PostgreSQL.
type UsageEventRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUsageEventRepository creates a new usage event repository.
func NewUsageEventRepository(sql infra.SQLExecutor) *UsageEventRepositoryPG {
	return &UsageEventRepositoryPG{sql: sql}
}

// Insert appends one analytics event.
func (r *UsageEventRepositoryPG) Insert(ctx context.Context, event *domain.UsageEvent) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertUsageEvent,
		event.OwnerID,
		event.JobID,
		event.EventType,
		event.Success,
		event.LatencyMS,
	)
	return err
}

// Summary aggregates usage events for the stats endpoint.
func (r *UsageEventRepositoryPG) Summary(ctx context.Context) (*domain.StatsSummary, error) {
	var s domain.StatsSummary
	row := r.sql.QueryRow(ctx, sqlinline.QStatsSummary)
	if err := row.Scan(
		&s.TotalUsers,
		&s.JobsQueued,
		&s.JobsCompleted,
		&s.JobsFailed,
		&s.InlineStreams,
		&s.QueuedLast24h,
		&s.SuccessLast24h,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

var _ domain.UsageEventRepository = (*UsageEventRepositoryPG)(nil)
