package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/namastexlabs/automagik-agents-sub001/internal/domain/episode"
	"github.com/namastexlabs/automagik-agents-sub001/internal/interfaces/httpserver/middlewares"
	"github.com/namastexlabs/automagik-agents-sub001/internal/interfaces/httpserver/requests"
	"github.com/namastexlabs/automagik-agents-sub001/internal/interfaces/httpserver/responses"
	"github.com/namastexlabs/automagik-agents-sub001/internal/worker"
)

// EpisodeEnqueuer admits episodes into the asynchronous ingestion queue.
type EpisodeEnqueuer interface {
	Enqueue(ep episode.Episode) (string, error)
}

// EpisodeHandler handles episode submission endpoints.
type EpisodeHandler struct {
	pool EpisodeEnqueuer
	log  zerolog.Logger
}

// NewEpisodeHandler creates a new EpisodeHandler.
func NewEpisodeHandler(pool EpisodeEnqueuer, log zerolog.Logger) *EpisodeHandler {
	return &EpisodeHandler{
		pool: pool,
		log:  log.With().Str("handler", "episode").Logger(),
	}
}

// Enqueue accepts an episode for asynchronous ingestion. The episode is
// queued and written to the knowledge graph in the background; the response
// acknowledges admission only, not persistence.
func (h *EpisodeHandler) Enqueue(c *gin.Context) {
	var req requests.EnqueueEpisodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	taskID, err := h.pool.Enqueue(req.ToDomain())
	if err != nil {
		h.handleEnqueueError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, responses.EnqueueResponse{
		TaskID: taskID,
		Status: "accepted",
	})
}

func (h *EpisodeHandler) handleEnqueueError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, worker.ErrQueueFull):
		c.JSON(http.StatusTooManyRequests, responses.ErrorResponse{
			Error:   "queue_full",
			Message: "ingestion queue is at capacity, retry later",
		})
	case errors.Is(err, worker.ErrShuttingDown), errors.Is(err, worker.ErrNotRunning):
		c.JSON(http.StatusServiceUnavailable, responses.ErrorResponse{
			Error:   "unavailable",
			Message: "ingestion is not accepting episodes",
		})
	default:
		h.log.Error().
			Err(err).
			Str("request_id", middlewares.GetRequestID(c)).
			Msg("enqueue episode failed")
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "internal_error",
			Message: "failed to enqueue episode",
		})
	}
}
