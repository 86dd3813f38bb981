package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/deadletter"
	"github.com/namastexlabs/automagik-agents-sub001/internal/interfaces/httpserver/responses"
	"github.com/namastexlabs/automagik-agents-sub001/internal/worker"
)

// HealthSource exposes a point-in-time view of the ingestion pool.
type HealthSource interface {
	Snapshot() worker.Snapshot
}

// IngestHandler serves operational endpoints for the ingestion subsystem.
type IngestHandler struct {
	pool     HealthSource
	recorder deadletter.Recorder
	log      zerolog.Logger
}

// NewIngestHandler creates a new IngestHandler. recorder may be nil when
// dead-letter persistence is disabled.
func NewIngestHandler(pool HealthSource, recorder deadletter.Recorder, log zerolog.Logger) *IngestHandler {
	return &IngestHandler{
		pool:     pool,
		recorder: recorder,
		log:      log.With().Str("handler", "ingest").Logger(),
	}
}

// Health returns the current ingestion snapshot: lifecycle state, queue
// occupancy and cumulative counters.
func (h *IngestHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, responses.FromSnapshot(h.pool.Snapshot()))
}

// DeadLetters lists the most recent terminally failed episodes.
func (h *IngestHandler) DeadLetters(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "invalid_request",
			Message: "limit must be a positive integer",
		})
		return
	}

	if h.recorder == nil {
		c.JSON(http.StatusOK, responses.FromDeadLetters(nil))
		return
	}

	records, err := h.recorder.List(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("list dead letters failed")
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "internal_error",
			Message: "failed to list dead letters",
		})
		return
	}

	c.JSON(http.StatusOK, responses.FromDeadLetters(records))
}
