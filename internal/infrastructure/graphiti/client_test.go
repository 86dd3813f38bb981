package graphiti_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/namastexlabs/automagik-agents-sub001/internal/domain/episode"
	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/graphiti"
)

func testEpisode() episode.Episode {
	return episode.Episode{
		UserID:      "user-42",
		SessionID:   "session-7",
		AgentID:     "simple",
		UserInput:   "what is graphiti?",
		AgentOutput: "a temporal knowledge graph",
		OccurredAt:  time.Now(),
	}
}

func TestClient_WriteEpisode(t *testing.T) {
	var got struct {
		GroupID  string `json:"group_id"`
		Messages []struct {
			Content  string `json:"content"`
			RoleType string `json:"role_type"`
			Role     string `json:"role"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/messages" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("Authorization = %q, want bearer token", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := graphiti.NewClient(srv.URL, "secret", zerolog.Nop())
	if err := client.WriteEpisode(context.Background(), testEpisode()); err != nil {
		t.Fatalf("WriteEpisode returned error: %v", err)
	}

	if got.GroupID != "session-7" {
		t.Errorf("group_id = %q, want session-7", got.GroupID)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(got.Messages))
	}
	if got.Messages[0].RoleType != "user" || got.Messages[0].Content != "what is graphiti?" {
		t.Errorf("first message = %+v, want the user turn", got.Messages[0])
	}
	if got.Messages[1].RoleType != "assistant" || got.Messages[1].Role != "simple" {
		t.Errorf("second message = %+v, want the assistant turn", got.Messages[1])
	}
}

func TestClient_WriteEpisodeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "graph unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := graphiti.NewClient(srv.URL, "", zerolog.Nop())
	if err := client.WriteEpisode(context.Background(), testEpisode()); err == nil {
		t.Fatal("WriteEpisode returned nil error for a 503 response")
	}
}

func TestClient_WriteEpisodeHonorsContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := graphiti.NewClient(srv.URL, "", zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := client.WriteEpisode(ctx, testEpisode())
	if err == nil {
		t.Fatal("WriteEpisode returned nil error past its deadline")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("WriteEpisode took %v, want prompt return at the deadline", elapsed)
	}
}

func TestClient_GroupFallsBackToUser(t *testing.T) {
	var gotGroup string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			GroupID string `json:"group_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotGroup = body.GroupID
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := graphiti.NewClient(srv.URL, "", zerolog.Nop())
	ep := testEpisode()
	ep.SessionID = ""
	if err := client.WriteEpisode(context.Background(), ep); err != nil {
		t.Fatalf("WriteEpisode returned error: %v", err)
	}
	if gotGroup != ep.UserID {
		t.Errorf("group_id = %q, want fallback to user %q", gotGroup, ep.UserID)
	}
}
