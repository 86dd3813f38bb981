package requests

import (
	"time"

	"github.com/namastexlabs/automagik-agents-sub001/internal/domain/episode"
)

// EnqueueEpisodeRequest is the payload for submitting an episode for
// asynchronous ingestion.
type EnqueueEpisodeRequest struct {
	UserID      string            `json:"user_id" binding:"required"`
	SessionID   string            `json:"session_id"`
	AgentID     string            `json:"agent_id"`
	UserInput   string            `json:"user_input" binding:"required"`
	AgentOutput string            `json:"agent_output" binding:"required"`
	Metadata    map[string]string `json:"metadata"`
	OccurredAt  *time.Time        `json:"occurred_at"`
}

// ToDomain converts the request into a domain episode. A missing
// occurred_at defaults to the submission time.
func (r *EnqueueEpisodeRequest) ToDomain() episode.Episode {
	occurredAt := time.Now().UTC()
	if r.OccurredAt != nil {
		occurredAt = r.OccurredAt.UTC()
	}

	return episode.Episode{
		UserID:      r.UserID,
		SessionID:   r.SessionID,
		AgentID:     r.AgentID,
		UserInput:   r.UserInput,
		AgentOutput: r.AgentOutput,
		Metadata:    r.Metadata,
		OccurredAt:  occurredAt,
	}
}
