// Package graphiti implements the episode writer against the Graphiti
// knowledge-graph service. Writes are slow by nature (the service runs
// entity extraction on every message), which is exactly why the ingestion
// pipeline exists in front of this client.
package graphiti

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/namastexlabs/automagik-agents-sub001/internal/domain/episode"
)

// Client talks to a Graphiti server over HTTP.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

// NewClient creates a Graphiti client. No transport-level retries are
// configured: the ingestion pool owns the retry policy.
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(0)
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}

	return &Client{
		http: client,
		log:  log.With().Str("component", "graphiti-client").Logger(),
	}
}

type message struct {
	Content   string    `json:"content"`
	RoleType  string    `json:"role_type"`
	Role      string    `json:"role,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type addMessagesRequest struct {
	GroupID  string    `json:"group_id"`
	Messages []message `json:"messages"`
}

// WriteEpisode records one conversational turn as a pair of messages in the
// session's graph group. The call is bounded by the caller's context; it
// returns an error for any non-2xx response.
func (c *Client) WriteEpisode(ctx context.Context, ep episode.Episode) error {
	occurredAt := ep.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	body := addMessagesRequest{
		GroupID: groupID(ep),
		Messages: []message{
			{Content: ep.UserInput, RoleType: "user", Role: ep.UserID, Timestamp: occurredAt},
			{Content: ep.AgentOutput, RoleType: "assistant", Role: ep.AgentID, Timestamp: occurredAt},
		},
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("graphiti request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("graphiti returned status %d: %s", resp.StatusCode(), resp.String())
	}

	c.log.Debug().
		Str("group_id", body.GroupID).
		Int("status", resp.StatusCode()).
		Dur("latency", time.Since(start)).
		Msg("episode written to graph")
	return nil
}

// groupID scopes graph episodes per session, falling back to the user when
// the producer did not supply a session.
func groupID(ep episode.Episode) string {
	if ep.SessionID != "" {
		return ep.SessionID
	}
	return ep.UserID
}
