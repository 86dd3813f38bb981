package handlers

import (
	"github.com/rs/zerolog"

	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/deadletter"
	"github.com/namastexlabs/automagik-agents-sub001/internal/worker"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Episode *EpisodeHandler
	Ingest  *IngestHandler
}

// NewProvider constructs the handler provider around the ingestion pool.
func NewProvider(pool *worker.Pool, recorder deadletter.Recorder, log zerolog.Logger) *Provider {
	return &Provider{
		Episode: NewEpisodeHandler(pool, log),
		Ingest:  NewIngestHandler(pool, recorder, log),
	}
}
