package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/metrics"
)

// Reporter periodically mirrors the pool snapshot into the Prometheus
// gauges so scrapes see queue depth, in-flight count and oldest pending age
// without touching the pool's lock on every request.
type Reporter struct {
	pool     *Pool
	interval time.Duration
	log      zerolog.Logger
}

// NewReporter creates a reporter for the given pool.
func NewReporter(pool *Pool, interval time.Duration, log zerolog.Logger) *Reporter {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Reporter{
		pool:     pool,
		interval: interval,
		log:      log.With().Str("component", "ingest-reporter").Logger(),
	}
}

// Run publishes gauges until the context is cancelled. It publishes once
// more on exit so the final drain state is visible.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.publish()
	for {
		select {
		case <-ctx.Done():
			r.publish()
			r.log.Debug().Msg("metrics reporter stopped")
			return
		case <-ticker.C:
			r.publish()
		}
	}
}

func (r *Reporter) publish() {
	snap := r.pool.Snapshot()
	metrics.SetQueueGauges(snap.QueueDepth, snap.InFlight, snap.OldestPendingAge.Seconds())
}
