// Package worker drains the in-process job queue with a single logical
// worker. Jobs are processed strictly in queue order; a failing job records
// its error and the loop moves on to the next id.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/infra"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/providers/genai"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/queue"
)

// Processor pulls job ids off the queue and runs them through the generator.
// Exactly one Run loop may be active per process; the loop's lifetime is
// bound to its context rather than to a mutable "is processing" flag.
type Processor struct {
	queue     queue.Queue
	jobs      domain.JobRepository
	generator genai.Generator
	hub       *Hub
	events    domain.UsageEventRepository
	logger    infra.Logger
}

// NewProcessor wires the processor's collaborators. hub and events may be
// nil when streaming or analytics are not needed (tests, CLIs).
func NewProcessor(q queue.Queue, jobs domain.JobRepository, generator genai.Generator, hub *Hub, events domain.UsageEventRepository, logger infra.Logger) *Processor {
	return &Processor{queue: q, jobs: jobs, generator: generator, hub: hub, events: events, logger: logger}
}

// Run drains the queue until the context is cancelled. It only ever returns
// the context's error: job-level failures are recorded on the job row.
func (p *Processor) Run(ctx context.Context) error {
	p.logger.Info().Msg("worker: started")
	for {
		jobID, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Info().Msg("worker: stopped")
			return err
		}
		p.process(ctx, jobID)
	}
}

func (p *Processor) process(ctx context.Context, jobID string) {
	started := time.Now()

	job, err := p.jobs.GetByID(ctx, jobID)
	if err != nil {
		// The store is the source of truth; an id with no row is a stale
		// dispatch hint and is dropped.
		p.logger.Warn().Err(err).Str("job_id", jobID).Msg("worker: queued id has no job row")
		return
	}
	if err := p.jobs.MarkInProgress(ctx, jobID); err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			p.logger.Warn().Str("job_id", jobID).Str("status", string(job.Status)).Msg("worker: job not pending, skipping")
			return
		}
		p.logger.Error().Err(err).Str("job_id", jobID).Msg("worker: mark in_progress failed")
		return
	}

	p.logger.Info().Str("job_id", jobID).Str("kind", string(job.Kind)).Msg("worker: picked job")
	p.publish(Event{JobID: jobID, Type: EventProgress, Message: "processing started", Progress: 0})

	result, genErr := p.generator.Generate(ctx, genai.Request{
		Kind:      job.Kind,
		Prompt:    job.Prompt,
		OwnerID:   job.OwnerID,
		RequestID: jobID,
	}, func(progress genai.Progress) {
		p.publish(Event{JobID: jobID, Type: EventProgress, Message: progress.Message, Progress: progress.Percent})
	})

	latency := int(time.Since(started).Milliseconds())
	if genErr != nil {
		p.logger.Error().Err(genErr).Str("job_id", jobID).Msg("worker: job failed")
		if err := p.jobs.Fail(ctx, jobID, genErr.Error()); err != nil {
			p.logger.Error().Err(err).Str("job_id", jobID).Msg("worker: record failure failed")
		}
		p.publish(Event{JobID: jobID, Type: EventError, Error: genErr.Error()})
		p.recordEvent(ctx, job, domain.UsageEventJobFailed, false, latency)
		return
	}

	if err := p.jobs.Complete(ctx, jobID, result); err != nil {
		p.logger.Error().Err(err).Str("job_id", jobID).Msg("worker: record completion failed")
		p.publish(Event{JobID: jobID, Type: EventError, Error: "failed to persist result"})
		return
	}
	p.publish(Event{JobID: jobID, Type: EventComplete, Result: result, Progress: 100})
	p.recordEvent(ctx, job, domain.UsageEventJobCompleted, true, latency)
	p.logger.Info().Str("job_id", jobID).Int("latency_ms", latency).Msg("worker: job completed")
}

func (p *Processor) publish(event Event) {
	if p.hub != nil {
		p.hub.Publish(event)
	}
}

func (p *Processor) recordEvent(ctx context.Context, job *domain.Job, eventType domain.UsageEventType, success bool, latencyMS int) {
	if p.events == nil {
		return
	}
	event := &domain.UsageEvent{
		OwnerID:   job.OwnerID,
		JobID:     job.ID,
		EventType: eventType,
		Success:   success,
		LatencyMS: latencyMS,
	}
	if err := p.events.Insert(ctx, event); err != nil {
		p.logger.Warn().Err(err).Str("job_id", job.ID).Msg("worker: record usage event failed")
	}
}
