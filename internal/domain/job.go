package domain

import "time"

// JobKind enumerates supported generation job categories.
type JobKind string

const (
	JobKindCode  JobKind = "code"
	JobKindImage JobKind = "image"
)

// ValidKind reports whether the kind is one the generation providers understand.
func ValidKind(k JobKind) bool {
	switch k {
	case JobKindCode, JobKindImage:
		return true
	}
	return false
}

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further processing
// short of an explicit retry.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job encapsulates one unit of generation work. The persisted row is the
// source of truth for existence and state; membership in the in-memory
// queue is a dispatch hint only and is rebuilt on restart.
type Job struct {
	ID           string
	OwnerID      string
	Kind         JobKind
	Prompt       string
	Status       JobStatus
	ResultJSON   []byte
	ErrorMessage string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}
