package domain

import "time"

// UsageEventType enumerates recorded analytics events.
type UsageEventType string

const (
	UsageEventJobQueued    UsageEventType = "job_queued"
	UsageEventJobCompleted UsageEventType = "job_completed"
	UsageEventJobFailed    UsageEventType = "job_failed"
	UsageEventInlineStream UsageEventType = "inline_stream"
)

// UsageEvent is an append-only analytics record for one generation attempt.
type UsageEvent struct {
	ID        string
	OwnerID   string
	JobID     string
	EventType UsageEventType
	Success   bool
	LatencyMS int
	CreatedAt time.Time
}

// StatsSummary aggregates usage events for the stats endpoint.
type StatsSummary struct {
	TotalUsers     int64
	JobsQueued     int64
	JobsCompleted  int64
	JobsFailed     int64
	InlineStreams  int64
	QueuedLast24h  int64
	SuccessLast24h int64
}
