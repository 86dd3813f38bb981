// Package queue provides the bounded in-process FIFO queue feeding the
// episode ingestion workers. Admission never blocks the producer; the queue
// rejects new tasks once it is at capacity.
package queue

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/namastexlabs/automagik-agents-sub001/internal/domain/episode"
)

var (
	// ErrFull is returned by TryEnqueue when the queue is at capacity.
	ErrFull = errors.New("episode queue is full")
	// ErrClosed is returned by TryEnqueue once the queue has been closed.
	ErrClosed = errors.New("episode queue is closed")
)

// Task wraps one pending episode write. Attempt and LastError are mutated
// only by the worker that currently owns the task.
type Task struct {
	ID          string
	Payload     episode.Episode
	SubmittedAt time.Time
	Attempt     int
	LastError   string
}

// NewTask builds a task for the given episode with a fresh ID.
func NewTask(ep episode.Episode) *Task {
	return &Task{
		ID:          uuid.NewString(),
		Payload:     ep,
		SubmittedAt: time.Now(),
	}
}

// Bounded is a fixed-capacity FIFO queue of episode write tasks, shared by
// one or more producers and a pool of consuming workers. TryEnqueue never
// blocks; Dequeue blocks until a task arrives or the queue is closed.
type Bounded struct {
	tasks chan *Task

	mu      sync.Mutex
	pending []time.Time // enqueue times of resident tasks, oldest first
	closed  bool
}

// NewBounded creates a queue holding at most capacity tasks.
func NewBounded(capacity int) *Bounded {
	if capacity <= 0 {
		capacity = 1
	}
	return &Bounded{
		tasks:   make(chan *Task, capacity),
		pending: make([]time.Time, 0, capacity),
	}
}

// TryEnqueue admits the task if a slot is free. It never blocks: a full
// queue returns ErrFull immediately and a closed queue returns ErrClosed.
func (q *Bounded) TryEnqueue(t *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	select {
	case q.tasks <- t:
		q.pending = append(q.pending, time.Now())
		return nil
	default:
		return ErrFull
	}
}

// Dequeue blocks until a task is available. ok is false once the queue has
// been closed and fully drained.
func (q *Bounded) Dequeue() (*Task, bool) {
	t, ok := <-q.tasks
	if ok {
		q.popPendingAge()
	}
	return t, ok
}

// TryDequeue removes a task without blocking; ok is false when the queue is
// currently empty or closed and drained.
func (q *Bounded) TryDequeue() (*Task, bool) {
	select {
	case t, ok := <-q.tasks:
		if !ok {
			return nil, false
		}
		q.popPendingAge()
		return t, true
	default:
		return nil, false
	}
}

// Close stops admissions. Tasks already resident remain dequeueable; once
// they are drained, Dequeue reports ok=false. Safe to call more than once.
func (q *Bounded) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.tasks)
}

// Depth returns the number of resident tasks.
func (q *Bounded) Depth() int {
	return len(q.tasks)
}

// Capacity returns the fixed capacity the queue was built with.
func (q *Bounded) Capacity() int {
	return cap(q.tasks)
}

// OldestPendingAge returns how long the longest-waiting resident task has
// been queued, or zero when the queue is empty. A retried task's wait
// restarts when it is resubmitted.
func (q *Bounded) OldestPendingAge() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return 0
	}
	return time.Since(q.pending[0])
}

func (q *Bounded) popPendingAge() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) > 0 {
		q.pending = q.pending[1:]
	}
}
