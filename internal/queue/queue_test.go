package queue

import (
	"context"
	"testing"
	"time"
)

func TestMemoryFIFO(t *testing.T) {
	q := NewMemory()
	q.Enqueue("a")
	q.Enqueue("b")
	q.Enqueue("c")

	ctx := context.Background()
	for _, want := range []string{"a", "b", "c"} {
		got, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("Dequeue returned error: %v", err)
		}
		if got != want {
			t.Fatalf("Dequeue = %q, want %q", got, want)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("Len = %d, want 0", q.Len())
	}
}

func TestMemoryDequeueBlocksUntilEnqueue(t *testing.T) {
	q := NewMemory()

	got := make(chan string, 1)
	go func() {
		id, err := q.Dequeue(context.Background())
		if err != nil {
			t.Errorf("Dequeue returned error: %v", err)
		}
		got <- id
	}()

	select {
	case id := <-got:
		t.Fatalf("Dequeue returned %q before anything was enqueued", id)
	case <-time.After(20 * time.Millisecond):
	}

	q.Enqueue("j1")

	select {
	case id := <-got:
		if id != "j1" {
			t.Fatalf("Dequeue = %q, want %q", id, "j1")
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not wake after Enqueue")
	}
}

func TestMemoryDequeueHonorsContext(t *testing.T) {
	q := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.Dequeue(ctx); err == nil {
		t.Fatal("Dequeue should fail once the context is cancelled")
	}
}

func TestMemoryManyProducersSingleConsumer(t *testing.T) {
	q := NewMemory()
	const n = 50
	for i := 0; i < n; i++ {
		go q.Enqueue("id")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := 0; i < n; i++ {
		if _, err := q.Dequeue(ctx); err != nil {
			t.Fatalf("Dequeue %d returned error: %v", i, err)
		}
	}
}
