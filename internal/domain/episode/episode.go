// Package episode defines the conversational episode payload persisted to
// the knowledge-graph store and the writer contract the ingestion pipeline
// depends on.
package episode

import (
	"context"
	"time"
)

// Episode is one recorded unit of conversational context (user input, agent
// output and correlation metadata) destined for the knowledge-graph store.
// The ingestion pipeline treats the payload as opaque.
type Episode struct {
	UserID      string            `json:"user_id"`
	SessionID   string            `json:"session_id"`
	AgentID     string            `json:"agent_id"`
	UserInput   string            `json:"user_input"`
	AgentOutput string            `json:"agent_output"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// Writer persists episodes to the knowledge-graph store. Implementations are
// expected to be slow and fallible; each call is bounded by the context
// deadline supplied by the caller.
type Writer interface {
	WriteEpisode(ctx context.Context, ep Episode) error
}

// WriterFunc adapts a plain function to the Writer interface.
type WriterFunc func(ctx context.Context, ep Episode) error

// WriteEpisode invokes the wrapped function.
func (f WriterFunc) WriteEpisode(ctx context.Context, ep Episode) error {
	return f(ctx, ep)
}
