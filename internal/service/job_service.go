// Package service coordinates job persistence, quota claims, and queue
// dispatch. Ordering is deliberate throughout: quota is claimed before any
// row exists, and rows are persisted before their ids enter the queue, so a
// store outage can never leave a queued id without a backing record.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/infra"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/queue"
)

// MaxPromptLen bounds inbound prompts; anything larger is rejected before
// any state mutation.
const MaxPromptLen = 32 << 10

// UsageClaimer is the slice of the quota meter the job service needs.
type UsageClaimer interface {
	Claim(ctx context.Context, ownerID string) (*domain.Usage, error)
}

// JobService owns the createJob/retryJob/rehydrate lifecycle.
type JobService struct {
	jobs   domain.JobRepository
	queue  queue.Queue
	meter  UsageClaimer
	events domain.UsageEventRepository
	logger infra.Logger
}

// NewJobService wires the service's collaborators.
func NewJobService(jobs domain.JobRepository, q queue.Queue, meter UsageClaimer, events domain.UsageEventRepository, logger infra.Logger) *JobService {
	return &JobService{jobs: jobs, queue: q, meter: meter, events: events, logger: logger}
}

// CreateJob validates the request, claims one unit of quota, persists the
// pending job, and enqueues its id. It returns as soon as the job is queued;
// processing happens on the worker. The claimed quota is not refunded if the
// job later fails.
func (s *JobService) CreateJob(ctx context.Context, ownerID string, kind domain.JobKind, prompt string) (*domain.Job, *domain.Usage, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" || len(prompt) > MaxPromptLen {
		return nil, nil, domain.ErrInvalidPrompt
	}
	if kind == "" {
		kind = domain.JobKindCode
	}
	if !domain.ValidKind(kind) {
		return nil, nil, domain.ErrInvalidKind
	}

	usage, err := s.meter.Claim(ctx, ownerID)
	if err != nil {
		return nil, usage, err
	}

	job := &domain.Job{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Kind:    kind,
		Prompt:  prompt,
		Status:  domain.JobStatusPending,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, usage, fmt.Errorf("create job: %w", err)
	}
	s.queue.Enqueue(job.ID)
	s.recordEvent(ctx, ownerID, job.ID, domain.UsageEventJobQueued, true)

	return job, usage, nil
}

// GetJob fetches the full job record.
func (s *JobService) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.jobs.GetByID(ctx, jobID)
}

// RetryJob re-queues a failed job. Only the failed state is retryable; any
// other state returns domain.ErrInvalidState without mutating the row. Retry
// does not claim quota again: the original attempt already paid for it.
func (s *JobService) RetryJob(ctx context.Context, jobID string) (*domain.Job, error) {
	if err := s.jobs.ResetForRetry(ctx, jobID); err != nil {
		return nil, err
	}
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	s.queue.Enqueue(job.ID)
	return job, nil
}

// Rehydrate restores queued work from the store after a restart: every
// in_progress row is forced back to pending (no worker survived the
// restart), then all unfinished ids are enqueued in creation order. Must run
// before the HTTP server starts accepting new jobs so rehydrated work keeps
// its place at the head of the queue.
func (s *JobService) Rehydrate(ctx context.Context) (int, error) {
	reset, err := s.jobs.ResetInProgress(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset in_progress jobs: %w", err)
	}
	if reset > 0 {
		s.logger.Info().Int64("count", reset).Msg("rehydrate: reset interrupted jobs to pending")
	}

	ids, err := s.jobs.ListUnfinished(ctx)
	if err != nil {
		return 0, fmt.Errorf("list unfinished jobs: %w", err)
	}
	for _, id := range ids {
		s.queue.Enqueue(id)
	}
	return len(ids), nil
}

func (s *JobService) recordEvent(ctx context.Context, ownerID, jobID string, eventType domain.UsageEventType, success bool) {
	if s.events == nil {
		return
	}
	event := &domain.UsageEvent{OwnerID: ownerID, JobID: jobID, EventType: eventType, Success: success}
	if err := s.events.Insert(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("record usage event failed")
	}
}
