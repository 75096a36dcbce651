package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/providers/genai"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/queue"
)

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
}

func newMemJobRepo(jobs ...*domain.Job) *memJobRepo {
	r := &memJobRepo{jobs: make(map[string]*domain.Job)}
	for _, job := range jobs {
		r.jobs[job.ID] = job
	}
	return r
}

func (r *memJobRepo) Create(ctx context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	return nil
}

func (r *memJobRepo) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copy := *job
	return &copy, nil
}

func (r *memJobRepo) MarkInProgress(ctx context.Context, jobID string) error {
	return r.transition(jobID, domain.JobStatusPending, domain.JobStatusInProgress)
}

func (r *memJobRepo) Complete(ctx context.Context, jobID string, resultJSON []byte) error {
	if err := r.transition(jobID, domain.JobStatusInProgress, domain.JobStatusCompleted); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[jobID].ResultJSON = resultJSON
	now := time.Now()
	r.jobs[jobID].CompletedAt = &now
	return nil
}

func (r *memJobRepo) Fail(ctx context.Context, jobID string, errMsg string) error {
	if err := r.transition(jobID, domain.JobStatusInProgress, domain.JobStatusFailed); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[jobID].ErrorMessage = errMsg
	now := time.Now()
	r.jobs[jobID].CompletedAt = &now
	return nil
}

func (r *memJobRepo) ResetForRetry(ctx context.Context, jobID string) error {
	return r.transition(jobID, domain.JobStatusFailed, domain.JobStatusPending)
}

func (r *memJobRepo) transition(jobID string, from, to domain.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status != from {
		return domain.ErrInvalidState
	}
	job.Status = to
	return nil
}

func (r *memJobRepo) ListUnfinished(ctx context.Context) ([]string, error) { return nil, nil }

func (r *memJobRepo) ResetInProgress(ctx context.Context) (int64, error) { return 0, nil }

func (r *memJobRepo) status(jobID string) domain.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[jobID].Status
}

func (r *memJobRepo) allTerminal(ids ...string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if !r.jobs[id].Status.Terminal() {
			return false
		}
	}
	return true
}

type scriptedGenerator struct {
	mu       sync.Mutex
	order    []string
	failures map[string]error
}

func (g *scriptedGenerator) Generate(ctx context.Context, req genai.Request, onProgress func(genai.Progress)) (json.RawMessage, error) {
	g.mu.Lock()
	g.order = append(g.order, req.RequestID)
	g.mu.Unlock()
	if onProgress != nil {
		onProgress(genai.Progress{Message: "calling model", Percent: 50})
	}
	if err := g.failures[req.RequestID]; err != nil {
		return nil, err
	}
	return json.RawMessage(fmt.Sprintf(`{"job":%q}`, req.RequestID)), nil
}

func (g *scriptedGenerator) seen() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.order...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestProcessorFIFOEvenWhenFirstJobFails(t *testing.T) {
	repo := newMemJobRepo(
		&domain.Job{ID: "j0", OwnerID: "u1", Kind: domain.JobKindCode, Status: domain.JobStatusPending},
		&domain.Job{ID: "j1", OwnerID: "u1", Kind: domain.JobKindCode, Status: domain.JobStatusPending},
		&domain.Job{ID: "j2", OwnerID: "u1", Kind: domain.JobKindCode, Status: domain.JobStatusPending},
	)
	gen := &scriptedGenerator{failures: map[string]error{"j0": errors.New("model exploded")}}
	q := queue.NewMemory()
	for _, id := range []string{"j0", "j1", "j2"} {
		q.Enqueue(id)
	}

	p := NewProcessor(q, repo, gen, nil, nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return repo.allTerminal("j0", "j1", "j2") })
	cancel()
	<-done

	want := []string{"j0", "j1", "j2"}
	got := gen.seen()
	if len(got) != len(want) {
		t.Fatalf("processed %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("processing order = %v, want %v", got, want)
		}
	}

	if repo.status("j0") != domain.JobStatusFailed {
		t.Fatalf("j0 status = %q, want failed", repo.status("j0"))
	}
	job, _ := repo.GetByID(context.Background(), "j0")
	if job.ErrorMessage != "model exploded" {
		t.Fatalf("j0 error = %q", job.ErrorMessage)
	}
	if job.CompletedAt == nil {
		t.Fatal("failed job should have completed_at set")
	}
	for _, id := range []string{"j1", "j2"} {
		if repo.status(id) != domain.JobStatusCompleted {
			t.Fatalf("%s status = %q, want completed", id, repo.status(id))
		}
	}
}

func TestProcessorPublishesTerminalEvent(t *testing.T) {
	repo := newMemJobRepo(
		&domain.Job{ID: "j1", OwnerID: "u1", Kind: domain.JobKindCode, Status: domain.JobStatusPending},
	)
	gen := &scriptedGenerator{}
	hub := NewHub()
	q := queue.NewMemory()

	ch, cancelWatch := hub.Watch("j1")
	defer cancelWatch()

	p := NewProcessor(q, repo, gen, hub, nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	q.Enqueue("j1")

	var terminal *Event
	for event := range ch {
		if event.Terminal() {
			copy := event
			terminal = &copy
		}
	}
	cancel()
	<-done

	if terminal == nil {
		t.Fatal("no terminal event observed")
	}
	if terminal.Type != EventComplete || terminal.Progress != 100 {
		t.Fatalf("terminal event = %+v, want complete at 100", terminal)
	}
}

func TestProcessorDropsStaleQueueIDs(t *testing.T) {
	repo := newMemJobRepo(
		&domain.Job{ID: "real", OwnerID: "u1", Kind: domain.JobKindCode, Status: domain.JobStatusPending},
	)
	gen := &scriptedGenerator{}
	q := queue.NewMemory()
	q.Enqueue("ghost")
	q.Enqueue("real")

	p := NewProcessor(q, repo, gen, nil, nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return repo.allTerminal("real") })
	cancel()
	<-done

	got := gen.seen()
	if len(got) != 1 || got[0] != "real" {
		t.Fatalf("generator saw %v, want only the real job", got)
	}
}
