// Package queue provides the in-process dispatch queue for generation jobs.
// The queue holds ids only; the persisted job table remains the source of
// truth and the queue contents are rebuilt from it on restart.
package queue

import (
	"context"
	"sync"
)

// Queue is the port the job service enqueues into and the worker drains.
type Queue interface {
	Enqueue(jobID string)
	// Dequeue blocks until an id is available or the context is done.
	Dequeue(ctx context.Context) (string, error)
	Len() int
}

// Memory is a FIFO queue guarded by a mutex, with a signal channel to wake
// a blocked consumer. It is unbounded: admission control happens at the
// quota layer, not here.
type Memory struct {
	mu     sync.Mutex
	ids    []string
	signal chan struct{}
}

// NewMemory creates an empty in-memory queue.
func NewMemory() *Memory {
	return &Memory{signal: make(chan struct{}, 1)}
}

// Enqueue appends the id and wakes the consumer if it is blocked.
func (q *Memory) Enqueue(jobID string) {
	q.mu.Lock()
	q.ids = append(q.ids, jobID)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Dequeue pops the head of the queue, blocking while it is empty.
func (q *Memory) Dequeue(ctx context.Context) (string, error) {
	for {
		q.mu.Lock()
		if len(q.ids) > 0 {
			id := q.ids[0]
			q.ids = q.ids[1:]
			q.mu.Unlock()
			return id, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-q.signal:
		}
	}
}

// Len reports how many ids are waiting.
func (q *Memory) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

var _ Queue = (*Memory)(nil)
