package worker

import (
	"testing"
	"time"
)

func TestHubDeliversAndClosesOnTerminal(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Watch("j1")
	defer cancel()

	hub.Publish(Event{JobID: "j1", Type: EventProgress, Message: "working", Progress: 40})
	hub.Publish(Event{JobID: "j1", Type: EventComplete, Progress: 100})

	var events []Event
	for event := range ch {
		events = append(events, event)
	}
	if len(events) != 2 {
		t.Fatalf("received %d events, want 2", len(events))
	}
	if events[0].Type != EventProgress || events[1].Type != EventComplete {
		t.Fatalf("event order = %v, %v", events[0].Type, events[1].Type)
	}
}

func TestHubIgnoresOtherJobs(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Watch("j1")
	defer cancel()

	hub.Publish(Event{JobID: "j2", Type: EventProgress, Progress: 10})

	select {
	case event := <-ch:
		t.Fatalf("received event for another job: %+v", event)
	case <-time.After(10 * time.Millisecond):
	}
}

func TestHubCancelIsIdempotentAndSafeAfterTerminal(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Watch("j1")

	hub.Publish(Event{JobID: "j1", Type: EventError, Error: "boom"})
	// Terminal publish already closed the channel; cancel must not panic.
	cancel()
	cancel()
}

func TestHubSlowWatcherDoesNotBlockPublish(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Watch("j1")
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < watcherBuffer*4; i++ {
			hub.Publish(Event{JobID: "j1", Type: EventProgress, Progress: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow watcher")
	}
}
