package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/infra"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/middleware"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/providers/genai"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/worker"
)

// JobManager is the slice of the job service the handlers need.
type JobManager interface {
	CreateJob(ctx context.Context, ownerID string, kind domain.JobKind, prompt string) (*domain.Job, *domain.Usage, error)
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
	RetryJob(ctx context.Context, jobID string) (*domain.Job, error)
}

// UsageMeter exposes quota claim and check.
type UsageMeter interface {
	Claim(ctx context.Context, ownerID string) (*domain.Usage, error)
	Check(ctx context.Context, ownerID string) (*domain.Usage, error)
}

// JobWatcher subscribes to live job progress.
type JobWatcher interface {
	Watch(jobID string) (<-chan worker.Event, func())
}

// App is the handler container; all route methods hang off it.
type App struct {
	Jobs      JobManager
	Meter     UsageMeter
	Watcher   JobWatcher
	Generator genai.Generator
	Stats     domain.UsageEventRepository
	Logger    infra.Logger

	// QueueLen reports the worker queue depth for the health endpoint.
	QueueLen func() int

	// StreamPollInterval bounds how stale the queued-job stream can get
	// when hub events are missed (e.g. watcher attached mid-job).
	StreamPollInterval time.Duration
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{"error": map[string]any{"code": errCode, "message": message}})
}

// domainError maps sentinel errors onto the wire taxonomy. The code field
// is the discriminator clients branch on (upgrade prompt for quota errors,
// form feedback for validation, and so on).
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPrompt):
		a.error(w, http.StatusBadRequest, "validation", "prompt is required and must be reasonably sized")
	case errors.Is(err, domain.ErrInvalidKind):
		a.error(w, http.StatusBadRequest, "validation", "kind must be one of: code, image")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrQuotaExceeded):
		a.error(w, http.StatusForbidden, "quota_exceeded", "usage limit reached for the current billing period")
	case errors.Is(err, domain.ErrInvalidState):
		a.error(w, http.StatusConflict, "invalid_state", "operation not valid in the job's current state")
	default:
		a.Logger.Error().Err(err).Msg("handler: internal error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
