// Package worker runs the background ingestion pipeline: a fixed pool of
// workers draining the bounded episode queue into the knowledge-graph store.
// Writes into that store are slow (tens of seconds under load), so the pool
// is the only component allowed to wait on it; producers get an immediate
// accept-or-reject answer and never block.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/namastexlabs/automagik-agents-sub001/internal/domain/episode"
	"github.com/namastexlabs/automagik-agents-sub001/internal/domain/retry"
	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/deadletter"
	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/metrics"
	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/queue"
)

// State describes the pool lifecycle. Transitions run strictly forward:
// stopped -> starting -> running -> draining -> stopped_gracefully.
// A pool is single-use; restarting requires a fresh instance.
type State string

const (
	StateStopped           State = "stopped"
	StateStarting          State = "starting"
	StateRunning           State = "running"
	StateDraining          State = "draining"
	StateStoppedGracefully State = "stopped_gracefully"
)

var (
	// ErrNotRunning is returned by Enqueue before the pool has started.
	ErrNotRunning = errors.New("ingestion pool is not running")
	// ErrShuttingDown is returned by Enqueue once draining has begun.
	ErrShuttingDown = errors.New("ingestion pool is shutting down")
	// ErrQueueFull is returned by Enqueue when the queue is at capacity.
	ErrQueueFull = queue.ErrFull
	// ErrNotRestartable is returned by Start on a pool that already drained.
	ErrNotRestartable = errors.New("ingestion pool cannot be restarted")
)

// Config contains ingestion pool configuration.
type Config struct {
	QueueCapacity int
	WorkerCount   int
	WriteTimeout  time.Duration
	RetryPolicy   retry.Policy
}

// Pool owns the bounded queue and the workers draining it. It is the
// process-wide ingestion pipeline: constructed once at startup, injected
// into request handlers, stopped once at shutdown.
type Pool struct {
	queue        *queue.Bounded
	writer       episode.Writer
	recorder     deadletter.Recorder
	policy       retry.Policy
	workerCount  int
	writeTimeout time.Duration
	log          zerolog.Logger

	mu         sync.Mutex
	state      State
	inFlight   map[string]*queue.Task
	droppedIDs map[string]struct{}
	workers    []*Worker
	drainCh    chan struct{}

	wg sync.WaitGroup

	enqueued  atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	retried   atomic.Int64
	rejected  atomic.Int64
	dropped   atomic.Int64
}

// NewPool creates a stopped pool. The recorder may be nil; terminal failures
// are then only logged and counted.
func NewPool(writer episode.Writer, recorder deadletter.Recorder, cfg Config, log zerolog.Logger) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}

	return &Pool{
		queue:        queue.NewBounded(cfg.QueueCapacity),
		writer:       writer,
		recorder:     recorder,
		policy:       cfg.RetryPolicy,
		workerCount:  cfg.WorkerCount,
		writeTimeout: cfg.WriteTimeout,
		log:          log.With().Str("component", "ingest-pool").Logger(),
		state:        StateStopped,
		inFlight:     make(map[string]*queue.Task),
		droppedIDs:   make(map[string]struct{}),
		drainCh:      make(chan struct{}),
	}
}

// Start spawns the workers and blocks until every worker has entered its
// dequeue loop, so a nil return guarantees enqueues are admissible. Calling
// Start on a pool that is already starting or running is a no-op. The
// context is the parent for every write attempt; cancelling it aborts
// in-flight writes, so pass a context that outlives graceful drain.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	switch p.state {
	case StateStarting, StateRunning:
		p.mu.Unlock()
		return nil
	case StateDraining, StateStoppedGracefully:
		p.mu.Unlock()
		return ErrNotRestartable
	}
	p.state = StateStarting
	p.log.Info().Int("worker_count", p.workerCount).Int("queue_capacity", p.queue.Capacity()).Msg("starting ingestion pool")

	var ready sync.WaitGroup
	p.workers = make([]*Worker, p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		w := newWorker(i+1, p)
		p.workers[i] = w

		ready.Add(1)
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.run(ctx, ready.Done)
		}(w)
	}
	p.mu.Unlock()

	ready.Wait()

	p.mu.Lock()
	if p.state == StateStarting {
		p.state = StateRunning
	}
	p.mu.Unlock()

	p.log.Info().Msg("ingestion pool started")
	return nil
}

// Enqueue admits one episode for background ingestion. It returns in
// microseconds regardless of downstream store health: either the task ID of
// the accepted write or ErrQueueFull, ErrNotRunning or ErrShuttingDown.
func (p *Pool) Enqueue(ep episode.Episode) (string, error) {
	p.mu.Lock()
	state := p.state
	p.mu.Unlock()

	switch state {
	case StateRunning:
	case StateDraining, StateStoppedGracefully:
		p.reject()
		return "", ErrShuttingDown
	default:
		p.reject()
		return "", ErrNotRunning
	}

	task := queue.NewTask(ep)
	if err := p.queue.TryEnqueue(task); err != nil {
		p.reject()
		if errors.Is(err, queue.ErrClosed) {
			return "", ErrShuttingDown
		}
		return "", ErrQueueFull
	}

	p.enqueued.Add(1)
	return task.ID, nil
}

// Stop drains the pool: admissions stop immediately, resident and in-flight
// tasks get up to drainTimeout to finish, then whatever remains is counted
// and logged as dropped on shutdown. Stop is idempotent; a second call while
// draining or already stopped returns immediately.
func (p *Pool) Stop(drainTimeout time.Duration) {
	p.mu.Lock()
	switch p.state {
	case StateDraining, StateStoppedGracefully:
		p.mu.Unlock()
		return
	}
	prev := p.state
	p.state = StateDraining
	close(p.drainCh)
	p.mu.Unlock()

	p.log.Info().Dur("drain_timeout", drainTimeout).Msg("draining ingestion pool")
	p.queue.Close()

	if prev == StateStopped {
		// Never started: nothing to wait for.
		p.finishStop()
		return
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info().Msg("all workers drained gracefully")
	case <-time.After(drainTimeout):
		p.forceDrain()
	}

	p.finishStop()
}

// Snapshot returns a consistent view of pool health. Queue depth and
// in-flight count are sampled under one lock so observers never see an
// impossible pair.
func (p *Pool) Snapshot() Snapshot {
	p.mu.Lock()
	state := p.state
	inFlight := len(p.inFlight)
	depth := p.queue.Depth()
	p.mu.Unlock()

	return Snapshot{
		State:             state,
		QueueDepth:        depth,
		QueueCapacity:     p.queue.Capacity(),
		InFlight:          inFlight,
		Enqueued:          p.enqueued.Load(),
		Succeeded:         p.succeeded.Load(),
		Failed:            p.failed.Load(),
		Retried:           p.retried.Load(),
		Rejected:          p.rejected.Load(),
		DroppedOnShutdown: p.dropped.Load(),
		OldestPendingAge:  p.queue.OldestPendingAge(),
	}
}

// Snapshot aggregates queue depth, worker status and counters for the
// health endpoint.
type Snapshot struct {
	State             State         `json:"state"`
	QueueDepth        int           `json:"queue_depth"`
	QueueCapacity     int           `json:"queue_capacity"`
	InFlight          int           `json:"in_flight"`
	Enqueued          int64         `json:"enqueued"`
	Succeeded         int64         `json:"succeeded"`
	Failed            int64         `json:"failed"`
	Retried           int64         `json:"retried"`
	Rejected          int64         `json:"rejected"`
	DroppedOnShutdown int64         `json:"dropped_on_shutdown"`
	OldestPendingAge  time.Duration `json:"oldest_pending_age_ns"`
}

func (p *Pool) reject() {
	p.rejected.Add(1)
	metrics.RecordEpisodeWrite("rejected")
}

func (p *Pool) markInFlight(task *queue.Task) {
	p.mu.Lock()
	p.inFlight[task.ID] = task
	p.mu.Unlock()
}

// unregister removes the task from the in-flight set and reports whether it
// was already counted as dropped on shutdown. The drop mark is consumed so a
// task reaches exactly one terminal counter.
func (p *Pool) unregister(task *queue.Task) (dropped bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, task.ID)
	if _, ok := p.droppedIDs[task.ID]; ok {
		delete(p.droppedIDs, task.ID)
		return true
	}
	return false
}

func (p *Pool) markSucceeded(task *queue.Task) {
	if p.unregister(task) {
		p.log.Debug().Str("task_id", task.ID).Msg("write resolved after shutdown drop")
		return
	}
	p.succeeded.Add(1)
	metrics.RecordEpisodeWrite("succeeded")
	p.log.Debug().
		Str("task_id", task.ID).
		Int("attempt", task.Attempt).
		Dur("elapsed", time.Since(task.SubmittedAt)).
		Msg("episode written")
}

// requeue resubmits a retried task at the back of the queue. Backpressure
// wins over retry persistence: a full or closed queue fails the requeue.
func (p *Pool) requeue(task *queue.Task) error {
	if err := p.queue.TryEnqueue(task); err != nil {
		return err
	}
	p.unregister(task)
	p.retried.Add(1)
	metrics.RecordEpisodeWrite("retried")
	return nil
}

// markTerminalFailure records a task that exhausted its retry budget. The
// failure never propagates to the producer; it is logged, counted and handed
// to the dead-letter recorder.
func (p *Pool) markTerminalFailure(task *queue.Task, cause error) {
	if p.unregister(task) {
		p.log.Debug().Str("task_id", task.ID).Err(cause).Msg("write resolved after shutdown drop")
		return
	}
	p.failed.Add(1)
	metrics.RecordEpisodeWrite("failed")

	p.log.Error().
		Str("task_id", task.ID).
		Str("user_id", task.Payload.UserID).
		Str("session_id", task.Payload.SessionID).
		Int("attempt", task.Attempt).
		Str("last_error", task.LastError).
		Dur("elapsed", time.Since(task.SubmittedAt)).
		Err(cause).
		Msg("episode write permanently failed")

	if p.recorder == nil {
		return
	}

	payload, err := json.Marshal(task.Payload)
	if err != nil {
		p.log.Error().Err(err).Str("task_id", task.ID).Msg("marshal dead letter payload")
		payload = nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rec := deadletter.Record{
		ID:          task.ID,
		UserID:      task.Payload.UserID,
		SessionID:   task.Payload.SessionID,
		AgentID:     task.Payload.AgentID,
		Payload:     datatypes.JSON(payload),
		Attempts:    task.Attempt,
		LastError:   task.LastError,
		SubmittedAt: task.SubmittedAt,
		FailedAt:    time.Now(),
	}
	if err := p.recorder.Record(ctx, rec); err != nil {
		p.log.Error().Err(err).Str("task_id", task.ID).Msg("record dead letter")
	}
}

// forceDrain runs when the drain timeout elapses with work outstanding. It
// steals the remaining queued tasks (their workers are stuck on slow writes
// and will exit once their current attempt resolves) and counts them, plus
// everything still in flight, as dropped on shutdown.
func (p *Pool) forceDrain() {
	droppedNow := 0
	for {
		task, ok := p.queue.TryDequeue()
		if !ok {
			break
		}
		droppedNow++
		p.dropped.Add(1)
		metrics.RecordEpisodeWrite("dropped")
		p.log.Warn().
			Str("task_id", task.ID).
			Int("attempt", task.Attempt).
			Msg("queued task dropped on shutdown")
	}

	// Mark abandoned in-flight tasks before counting them: their workers
	// are still blocked on a write, and when that attempt resolves the
	// terminal bookkeeping must see the task as already dropped.
	p.mu.Lock()
	remaining := make([]string, 0, len(p.inFlight))
	for id := range p.inFlight {
		remaining = append(remaining, id)
		p.droppedIDs[id] = struct{}{}
	}
	p.mu.Unlock()

	for _, id := range remaining {
		droppedNow++
		p.dropped.Add(1)
		metrics.RecordEpisodeWrite("dropped")
		p.log.Warn().Str("task_id", id).Msg("in-flight task dropped on shutdown")
	}

	p.log.Warn().Int("dropped", droppedNow).Msg("drain timeout elapsed with work outstanding")
}

func (p *Pool) finishStop() {
	p.mu.Lock()
	p.state = StateStoppedGracefully
	p.mu.Unlock()
	p.log.Info().Int64("dropped_on_shutdown", p.dropped.Load()).Msg("ingestion pool stopped")
}
