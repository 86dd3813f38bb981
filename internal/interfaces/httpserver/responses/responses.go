package responses

import (
	"time"

	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/deadletter"
	"github.com/namastexlabs/automagik-agents-sub001/internal/worker"
)

// ErrorResponse is the common error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// EnqueueResponse acknowledges an accepted episode submission.
type EnqueueResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// IngestHealthResponse reports the queue subsystem state and counters.
type IngestHealthResponse struct {
	State              string  `json:"state"`
	QueueDepth         int     `json:"queue_depth"`
	QueueCapacity      int     `json:"queue_capacity"`
	InFlight           int     `json:"in_flight"`
	Enqueued           int64   `json:"enqueued"`
	Succeeded          int64   `json:"succeeded"`
	Failed             int64   `json:"failed"`
	Retried            int64   `json:"retried"`
	Rejected           int64   `json:"rejected"`
	DroppedOnShutdown  int64   `json:"dropped_on_shutdown"`
	OldestPendingAgeMs float64 `json:"oldest_pending_age_ms"`
}

// FromSnapshot builds an IngestHealthResponse from a pool snapshot.
func FromSnapshot(s worker.Snapshot) IngestHealthResponse {
	return IngestHealthResponse{
		State:              string(s.State),
		QueueDepth:         s.QueueDepth,
		QueueCapacity:      s.QueueCapacity,
		InFlight:           s.InFlight,
		Enqueued:           s.Enqueued,
		Succeeded:          s.Succeeded,
		Failed:             s.Failed,
		Retried:            s.Retried,
		Rejected:           s.Rejected,
		DroppedOnShutdown:  s.DroppedOnShutdown,
		OldestPendingAgeMs: float64(s.OldestPendingAge) / float64(time.Millisecond),
	}
}

// DeadLetterResponse is one dead-lettered episode.
type DeadLetterResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	SessionID   string    `json:"session_id"`
	AgentID     string    `json:"agent_id"`
	Payload     string    `json:"payload"`
	Attempts    int       `json:"attempts"`
	LastError   string    `json:"last_error"`
	SubmittedAt time.Time `json:"submitted_at"`
	FailedAt    time.Time `json:"failed_at"`
}

// DeadLetterListResponse wraps a page of dead letters.
type DeadLetterListResponse struct {
	DeadLetters []DeadLetterResponse `json:"dead_letters"`
	Count       int                  `json:"count"`
}

// FromDeadLetters maps stored records to their response shape.
func FromDeadLetters(records []deadletter.Record) DeadLetterListResponse {
	out := make([]DeadLetterResponse, 0, len(records))
	for _, r := range records {
		out = append(out, DeadLetterResponse{
			ID:          r.ID,
			UserID:      r.UserID,
			SessionID:   r.SessionID,
			AgentID:     r.AgentID,
			Payload:     string(r.Payload),
			Attempts:    r.Attempts,
			LastError:   r.LastError,
			SubmittedAt: r.SubmittedAt,
			FailedAt:    r.FailedAt,
		})
	}
	return DeadLetterListResponse{DeadLetters: out, Count: len(out)}
}
