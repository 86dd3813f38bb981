package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namastexlabs/automagik-agents-sub001/internal/domain/episode"
	"github.com/namastexlabs/automagik-agents-sub001/internal/interfaces/httpserver/responses"
	"github.com/namastexlabs/automagik-agents-sub001/internal/worker"
)

type mockEnqueuer struct {
	enqueueFunc func(ep episode.Episode) (string, error)
	got         []episode.Episode
}

func (m *mockEnqueuer) Enqueue(ep episode.Episode) (string, error) {
	m.got = append(m.got, ep)
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ep)
	}
	return "task-1", nil
}

func newEpisodeRouter(pool EpisodeEnqueuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewEpisodeHandler(pool, zerolog.Nop())
	engine := gin.New()
	engine.POST("/v1/episodes", handler.Enqueue)
	return engine
}

func postEpisode(t *testing.T, engine *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/episodes", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func validBody() map[string]any {
	return map[string]any{
		"user_id":      "user-1",
		"session_id":   "sess-1",
		"agent_id":     "agent-1",
		"user_input":   "what is the capital of France?",
		"agent_output": "Paris.",
		"metadata":     map[string]string{"channel": "cli"},
	}
}

func TestEpisodeHandler_EnqueueAccepted(t *testing.T) {
	pool := &mockEnqueuer{}
	rec := postEpisode(t, newEpisodeRouter(pool), validBody())

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp responses.EnqueueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "task-1", resp.TaskID)
	assert.Equal(t, "accepted", resp.Status)

	require.Len(t, pool.got, 1)
	assert.Equal(t, "user-1", pool.got[0].UserID)
	assert.Equal(t, "Paris.", pool.got[0].AgentOutput)
	assert.False(t, pool.got[0].OccurredAt.IsZero())
}

func TestEpisodeHandler_EnqueueMissingFields(t *testing.T) {
	pool := &mockEnqueuer{}
	body := validBody()
	delete(body, "user_input")

	rec := postEpisode(t, newEpisodeRouter(pool), body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, pool.got)
}

func TestEpisodeHandler_EnqueueErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "queue full maps to 429",
			err:        worker.ErrQueueFull,
			wantStatus: http.StatusTooManyRequests,
			wantError:  "queue_full",
		},
		{
			name:       "shutting down maps to 503",
			err:        worker.ErrShuttingDown,
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "unavailable",
		},
		{
			name:       "not running maps to 503",
			err:        worker.ErrNotRunning,
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "unavailable",
		},
		{
			name:       "unknown error maps to 500",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := &mockEnqueuer{
				enqueueFunc: func(episode.Episode) (string, error) {
					return "", tt.err
				},
			}

			rec := postEpisode(t, newEpisodeRouter(pool), validBody())

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp responses.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp.Error)
		})
	}
}
