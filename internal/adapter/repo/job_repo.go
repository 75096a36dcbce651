package repo

import (
	"context"
	"fmt"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/infra"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository on PostgreSQL. Every state
// transition is a guarded single-statement update so a row can never skip a
// step of the pending -> in_progress -> terminal machine, no matter how many
// callers race.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// Create inserts a new job record in pending state.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertJob, job.ID, job.OwnerID, job.Kind, job.Prompt)
	if err := row.Scan(&job.CreatedAt); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	job.Status = domain.JobStatusPending
	return nil
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectJobByID, jobID)
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.OwnerID,
		&job.Kind,
		&job.Prompt,
		&job.Status,
		&job.ResultJSON,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.CompletedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// MarkInProgress transitions pending -> in_progress.
func (r *JobRepositoryPG) MarkInProgress(ctx context.Context, jobID string) error {
	return r.transition(ctx, sqlinline.QMarkJobInProgress, jobID)
}

// Complete transitions in_progress -> completed with the opaque result.
func (r *JobRepositoryPG) Complete(ctx context.Context, jobID string, resultJSON []byte) error {
	return r.transition(ctx, sqlinline.QCompleteJob, jobID, nullableBytes(resultJSON))
}

// Fail transitions in_progress -> failed with the error message.
func (r *JobRepositoryPG) Fail(ctx context.Context, jobID string, errMsg string) error {
	return r.transition(ctx, sqlinline.QFailJob, jobID, errMsg)
}

// ResetForRetry transitions failed -> pending, clearing error and completion.
func (r *JobRepositoryPG) ResetForRetry(ctx context.Context, jobID string) error {
	return r.transition(ctx, sqlinline.QResetJobForRetry, jobID)
}

func (r *JobRepositoryPG) transition(ctx context.Context, query string, jobID string, args ...any) error {
	tag, err := r.sql.Exec(ctx, query, append([]any{jobID}, args...)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from one in the wrong state.
		if _, getErr := r.GetByID(ctx, jobID); getErr != nil {
			return getErr
		}
		return domain.ErrInvalidState
	}
	return nil
}

// ListUnfinished returns pending and in_progress job ids in creation order.
func (r *JobRepositoryPG) ListUnfinished(ctx context.Context) ([]string, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectUnfinishedJobs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ResetInProgress forces all in_progress rows back to pending.
func (r *JobRepositoryPG) ResetInProgress(ctx context.Context) (int64, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QResetInProgressJobs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
