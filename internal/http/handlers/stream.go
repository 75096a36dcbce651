package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/worker"
)

// eventWriter emits newline-delimited JSON event records over a held-open
// response. Once a write fails (client gone) it swallows all further writes;
// the background job is unaffected by the connection's lifetime.
type eventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	enc     *json.Encoder
	failed  bool
}

func newEventWriter(w http.ResponseWriter) (*eventWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	return &eventWriter{w: w, flusher: flusher, enc: json.NewEncoder(w)}, true
}

// write sends one event; it reports whether the client is still listening.
func (ew *eventWriter) write(event worker.Event) bool {
	if ew.failed {
		return false
	}
	if err := ew.enc.Encode(event); err != nil {
		ew.failed = true
		return false
	}
	ew.flusher.Flush()
	return true
}

// JobStream attaches a live progress view to a queued job. Hub events carry
// fine-grained progress while the job runs; the store poll covers watchers
// that attach after events were published and jobs finishing on another
// signal. The stream always ends with exactly one terminal event.
func (a *App) JobStream(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadOwnedJob(w, r)
	if !ok {
		return
	}

	// Subscribe before re-reading status so no event can slip between the
	// check and the watch.
	events, cancelWatch := a.Watcher.Watch(job.ID)
	defer cancelWatch()

	ew, ok := newEventWriter(w)
	if !ok {
		a.error(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	if job.Status.Terminal() {
		ew.write(terminalEventFor(job))
		return
	}
	ew.write(worker.Event{Type: worker.EventProgress, Message: "job " + string(job.Status), Progress: 0})

	pollInterval := a.StreamPollInterval
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			// Client went away; the worker keeps processing regardless.
			return
		case event, open := <-events:
			if !open {
				// Hub closed after a terminal event we may have missed;
				// the store has the authoritative outcome.
				a.streamFinalFromStore(r, ew, job.ID)
				return
			}
			if !ew.write(event) {
				return
			}
			if event.Terminal() {
				return
			}
		case <-ticker.C:
			current, err := a.Jobs.GetJob(r.Context(), job.ID)
			if err != nil {
				ew.write(worker.Event{Type: worker.EventError, Error: "job state unavailable"})
				return
			}
			if current.Status.Terminal() {
				ew.write(terminalEventFor(current))
				return
			}
		}
	}
}

func (a *App) streamFinalFromStore(r *http.Request, ew *eventWriter, jobID string) {
	current, err := a.Jobs.GetJob(r.Context(), jobID)
	if err != nil {
		ew.write(worker.Event{Type: worker.EventError, Error: "job state unavailable"})
		return
	}
	ew.write(terminalEventFor(current))
}

func terminalEventFor(job *domain.Job) worker.Event {
	if job.Status == domain.JobStatusCompleted {
		return worker.Event{Type: worker.EventComplete, Result: json.RawMessage(job.ResultJSON), Progress: 100}
	}
	msg := job.ErrorMessage
	if msg == "" {
		msg = "generation failed"
	}
	return worker.Event{Type: worker.EventError, Error: msg}
}
