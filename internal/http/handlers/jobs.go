package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
)

type createJobRequest struct {
	Kind   string `json:"kind"`
	Prompt string `json:"prompt"`
}

type usageDTO struct {
	CurrentUsage int  `json:"current_usage"`
	UsageLimit   int  `json:"usage_limit"`
	IsAtLimit    bool `json:"is_at_limit"`
	Percentage   int  `json:"percentage"`
}

func usageToDTO(u *domain.Usage) *usageDTO {
	if u == nil {
		return nil
	}
	return &usageDTO{
		CurrentUsage: u.CurrentUsage,
		UsageLimit:   u.UsageLimit,
		IsAtLimit:    u.AtLimit(),
		Percentage:   u.Percentage(),
	}
}

type jobDTO struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"owner_id"`
	Kind         string          `json:"kind"`
	Prompt       string          `json:"prompt"`
	Status       string          `json:"status"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

func jobToDTO(job *domain.Job) jobDTO {
	return jobDTO{
		ID:           job.ID,
		OwnerID:      job.OwnerID,
		Kind:         string(job.Kind),
		Prompt:       job.Prompt,
		Status:       string(job.Status),
		Result:       json.RawMessage(job.ResultJSON),
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		CompletedAt:  job.CompletedAt,
	}
}

// JobsCreate accepts a generation request, claims quota, and queues the job.
// The response returns immediately; processing happens on the worker.
func (a *App) JobsCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "validation", "invalid payload")
		return
	}

	job, usage, err := a.Jobs.CreateJob(r.Context(), userID, domain.JobKind(req.Kind), req.Prompt)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]any{
		"job_id": job.ID,
		"status": job.Status,
		"usage":  usageToDTO(usage),
	})
}

// JobStatus returns the full job record.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadOwnedJob(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, jobToDTO(job))
}

// JobRetry re-queues a failed job; any other state is a conflict.
func (a *App) JobRetry(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadOwnedJob(w, r)
	if !ok {
		return
	}
	retried, err := a.Jobs.RetryJob(r.Context(), job.ID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"job_id": retried.ID,
		"status": retried.Status,
	})
}

// loadOwnedJob fetches the job in the URL and enforces ownership. A foreign
// job reads as not found rather than forbidden, to avoid leaking ids.
func (a *App) loadOwnedJob(w http.ResponseWriter, r *http.Request) (*domain.Job, bool) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return nil, false
	}
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "validation", "job_id required")
		return nil, false
	}
	job, err := a.Jobs.GetJob(r.Context(), jobID)
	if err != nil {
		a.domainError(w, err)
		return nil, false
	}
	if job.OwnerID != userID {
		a.error(w, http.StatusNotFound, "not_found", "not found")
		return nil, false
	}
	return job, true
}
