package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/metrics"
	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/queue"
)

// Worker processes one episode write at a time from the shared queue.
// Parallelism comes from the pool running several workers; the worker itself
// has no internal concurrency, which caps load on the slow store at the
// pool's worker count.
type Worker struct {
	id   int
	pool *Pool
	log  zerolog.Logger
}

func newWorker(id int, pool *Pool) *Worker {
	return &Worker{
		id:   id,
		pool: pool,
		log:  pool.log.With().Int("worker_id", id).Str("component", "ingest-worker").Logger(),
	}
}

// run loops dequeue -> execute -> classify until the queue is closed and
// drained. ready is called once, immediately before the first dequeue, so
// the pool can report running only when every worker is consuming.
func (w *Worker) run(ctx context.Context, ready func()) {
	w.log.Debug().Msg("worker started")
	ready()

	for {
		task, ok := w.pool.queue.Dequeue()
		if !ok {
			w.log.Debug().Msg("queue closed, worker exiting")
			return
		}
		w.process(ctx, task)
	}
}

// process executes one attempt and routes the outcome. Attempt failures
// never escape this method: a worker must outlive any single task, or the
// pool's effective concurrency would silently shrink.
func (w *Worker) process(ctx context.Context, task *queue.Task) {
	w.pool.markInFlight(task)

	start := time.Now()
	err := w.executeOnce(ctx, task)
	elapsed := time.Since(start)

	if err == nil {
		metrics.ObserveWriteAttempt("succeeded", elapsed.Seconds())
		w.pool.markSucceeded(task)
		return
	}
	metrics.ObserveWriteAttempt("failed", elapsed.Seconds())

	task.Attempt++
	task.LastError = err.Error()
	w.log.Warn().
		Str("task_id", task.ID).
		Int("attempt", task.Attempt).
		Dur("attempt_duration", elapsed).
		Err(err).
		Msg("episode write attempt failed")

	if !w.pool.policy.ShouldRetry(task.Attempt) {
		w.pool.markTerminalFailure(task, err)
		return
	}

	// Back off before resubmitting. Only this worker sleeps; the rest of
	// the pool keeps draining the queue.
	w.backoff(ctx, task.Attempt)

	if requeueErr := w.pool.requeue(task); requeueErr != nil {
		w.pool.markTerminalFailure(task, fmt.Errorf("requeue rejected: %w", requeueErr))
	}
}

// executeOnce runs a single bounded write attempt. The write call is opaque:
// if it ignores cancellation the worker abandons waiting past the deadline
// and treats the attempt as failed, accepting that the store may still
// complete the write later. Panics inside the call become attempt errors.
func (w *Worker) executeOnce(ctx context.Context, task *queue.Task) error {
	attemptCtx, cancel := context.WithTimeout(ctx, w.pool.writeTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("episode write panicked: %v", r)
			}
		}()
		done <- w.pool.writer.WriteEpisode(attemptCtx, task.Payload)
	}()

	select {
	case err := <-done:
		return err
	case <-attemptCtx.Done():
		return attemptCtx.Err()
	}
}

// backoff sleeps for the policy delay, cut short when the pool begins
// draining or the context is cancelled.
func (w *Worker) backoff(ctx context.Context, attempt int) {
	delay := w.pool.policy.CalculateDelay(attempt)
	if delay <= 0 {
		return
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-w.pool.drainCh:
	case <-ctx.Done():
	}
}
