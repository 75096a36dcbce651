package handlers

import "net/http"

type statsDTO struct {
	TotalUsers     int64 `json:"total_users"`
	JobsQueued     int64 `json:"jobs_queued"`
	JobsCompleted  int64 `json:"jobs_completed"`
	JobsFailed     int64 `json:"jobs_failed"`
	InlineStreams  int64 `json:"inline_streams"`
	QueuedLast24h  int64 `json:"queued_last_24h"`
	SuccessLast24h int64 `json:"success_last_24h"`
}

func (a *App) StatsGet(w http.ResponseWriter, r *http.Request) {
	summary, err := a.Stats.Summary(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("stats summary failed")
		a.error(w, http.StatusInternalServerError, "internal", "stats unavailable")
		return
	}
	a.json(w, http.StatusOK, statsDTO{
		TotalUsers:     summary.TotalUsers,
		JobsQueued:     summary.JobsQueued,
		JobsCompleted:  summary.JobsCompleted,
		JobsFailed:     summary.JobsFailed,
		InlineStreams:  summary.InlineStreams,
		QueuedLast24h:  summary.QueuedLast24h,
		SuccessLast24h: summary.SuccessLast24h,
	})
}
