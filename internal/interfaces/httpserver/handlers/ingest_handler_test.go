package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/deadletter"
	"github.com/namastexlabs/automagik-agents-sub001/internal/interfaces/httpserver/responses"
	"github.com/namastexlabs/automagik-agents-sub001/internal/worker"
)

type mockHealthSource struct {
	snapshot worker.Snapshot
}

func (m *mockHealthSource) Snapshot() worker.Snapshot {
	return m.snapshot
}

func newIngestRouter(pool HealthSource, recorder deadletter.Recorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewIngestHandler(pool, recorder, zerolog.Nop())
	engine := gin.New()
	engine.GET("/v1/ingest/health", handler.Health)
	engine.GET("/v1/ingest/dead-letters", handler.DeadLetters)
	return engine
}

func TestIngestHandler_Health(t *testing.T) {
	pool := &mockHealthSource{snapshot: worker.Snapshot{
		State:            worker.StateRunning,
		QueueDepth:       7,
		QueueCapacity:    100,
		InFlight:         3,
		Enqueued:         42,
		Succeeded:        30,
		Failed:           2,
		Retried:          5,
		OldestPendingAge: 1500 * time.Millisecond,
	}}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/ingest/health", nil)
	newIngestRouter(pool, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp responses.IngestHealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(worker.StateRunning), resp.State)
	assert.Equal(t, 7, resp.QueueDepth)
	assert.Equal(t, 100, resp.QueueCapacity)
	assert.Equal(t, 3, resp.InFlight)
	assert.Equal(t, int64(42), resp.Enqueued)
	assert.InDelta(t, 1500, resp.OldestPendingAgeMs, 0.01)
}

func TestIngestHandler_DeadLetters(t *testing.T) {
	store := deadletter.NewInMemoryStore()
	require.NoError(t, store.Record(context.Background(), deadletter.Record{
		ID:        "dl-1",
		UserID:    "user-1",
		Payload:   []byte(`{"user_input":"hi"}`),
		Attempts:  3,
		LastError: "graphiti unavailable",
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/ingest/dead-letters", nil)
	newIngestRouter(&mockHealthSource{}, store).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp responses.DeadLetterListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "dl-1", resp.DeadLetters[0].ID)
	assert.Equal(t, 3, resp.DeadLetters[0].Attempts)
	assert.Equal(t, "graphiti unavailable", resp.DeadLetters[0].LastError)
}

func TestIngestHandler_DeadLettersNoRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/ingest/dead-letters", nil)
	newIngestRouter(&mockHealthSource{}, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp responses.DeadLetterListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}

func TestIngestHandler_DeadLettersInvalidLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/ingest/dead-letters?limit=zero", nil)
	newIngestRouter(&mockHealthSource{}, deadletter.NewInMemoryStore()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
