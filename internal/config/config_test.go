package config_test

import (
	"testing"
	"time"

	"github.com/namastexlabs/automagik-agents-sub001/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.QueueCapacity != 1000 {
		t.Errorf("QueueCapacity = %d, want 1000", cfg.QueueCapacity)
	}
	if cfg.WorkerCount != 10 {
		t.Errorf("WorkerCount = %d, want 10", cfg.WorkerCount)
	}
	if cfg.WriteTimeout != 30*time.Second {
		t.Errorf("WriteTimeout = %v, want 30s", cfg.WriteTimeout)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.DeadLetterStore != "memory" {
		t.Errorf("DeadLetterStore = %q, want memory", cfg.DeadLetterStore)
	}
	if cfg.Addr() != ":8881" {
		t.Errorf("Addr = %q, want :8881", cfg.Addr())
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("EPISODE_QUEUE_CAPACITY", "50")
	t.Setenv("EPISODE_WORKER_COUNT", "4")
	t.Setenv("EPISODE_WRITE_TIMEOUT", "5s")
	t.Setenv("EPISODE_DRAIN_TIMEOUT", "2s")
	t.Setenv("DEAD_LETTER_STORE", "postgres")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.QueueCapacity != 50 {
		t.Errorf("QueueCapacity = %d, want 50", cfg.QueueCapacity)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("WorkerCount = %d, want 4", cfg.WorkerCount)
	}
	if cfg.WriteTimeout != 5*time.Second {
		t.Errorf("WriteTimeout = %v, want 5s", cfg.WriteTimeout)
	}
	if cfg.DrainTimeout != 2*time.Second {
		t.Errorf("DrainTimeout = %v, want 2s", cfg.DrainTimeout)
	}
	if cfg.DeadLetterStore != "postgres" {
		t.Errorf("DeadLetterStore = %q, want postgres", cfg.DeadLetterStore)
	}
}

func TestLoad_InvalidValuesFallBackOrFail(t *testing.T) {
	t.Setenv("EPISODE_WORKER_COUNT", "-3")
	t.Setenv("EPISODE_MAX_ATTEMPTS", "0")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.WorkerCount != 10 {
		t.Errorf("WorkerCount = %d, want default 10 for non-positive input", cfg.WorkerCount)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want default 3 for non-positive input", cfg.MaxAttempts)
	}

	t.Setenv("DEAD_LETTER_STORE", "cassandra")
	if _, err := config.Load(); err == nil {
		t.Error("Load accepted an unknown dead letter store")
	}
}
