package worker

import (
	"encoding/json"
	"sync"
)

// EventType discriminates progress stream events.
type EventType string

const (
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one progress report for a job. Exactly one terminal event
// (complete xor error) ends each job's stream.
type Event struct {
	JobID    string          `json:"-"`
	Type     EventType       `json:"type"`
	Message  string          `json:"message,omitempty"`
	Progress int             `json:"progress"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

const watcherBuffer = 16

// Hub fans job progress out to streaming watchers. Publishing never blocks
// the processor: a watcher that cannot keep up loses intermediate progress
// events, which is acceptable because the persisted job row carries the
// authoritative terminal state.
type Hub struct {
	mu       sync.Mutex
	watchers map[string][]chan Event
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{watchers: make(map[string][]chan Event)}
}

// Watch subscribes to a job's events. The returned channel is closed after
// a terminal event, or when cancel is called. cancel is idempotent.
func (h *Hub) Watch(jobID string) (<-chan Event, func()) {
	ch := make(chan Event, watcherBuffer)

	h.mu.Lock()
	h.watchers[jobID] = append(h.watchers[jobID], ch)
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			chans := h.watchers[jobID]
			for i, c := range chans {
				if c == ch {
					h.watchers[jobID] = append(chans[:i], chans[i+1:]...)
					close(ch)
					break
				}
			}
			if len(h.watchers[jobID]) == 0 {
				delete(h.watchers, jobID)
			}
		})
	}
	return ch, cancel
}

// Publish delivers the event to every watcher of its job. Terminal events
// close the job's channels and drop its watcher list.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	chans := h.watchers[event.JobID]
	for _, ch := range chans {
		select {
		case ch <- event:
		default:
		}
	}
	if event.Terminal() {
		for _, ch := range chans {
			close(ch)
		}
		delete(h.watchers, event.JobID)
	}
}
