// Package retry defines retry policies and backoff strategies for failed
// episode writes.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Policy defines a retry strategy for episode write attempts.
type Policy struct {
	MaxAttempts     int           `json:"max_attempts"`
	InitialDelay    time.Duration `json:"initial_delay"`
	MaxDelay        time.Duration `json:"max_delay"`
	BackoffStrategy BackoffType   `json:"backoff_strategy"`
	JitterFactor    float64       `json:"jitter_factor"` // 0.0-1.0
}

// BackoffType identifies the backoff strategy.
type BackoffType string

const (
	BackoffFixed       BackoffType = "fixed"       // Same delay each time
	BackoffLinear      BackoffType = "linear"      // Delay increases linearly
	BackoffExponential BackoffType = "exponential" // Delay doubles each time
)

// DefaultJitterFactor randomizes delays by +/-25% to de-synchronize workers
// retrying after a shared outage.
const DefaultJitterFactor = 0.25

// DefaultPolicy returns the policy used for knowledge-graph writes. Linear
// backoff is deliberate: the store is already slow under load, so retries
// must spread out without parking a worker for minutes.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialDelay:    1 * time.Second,
		MaxDelay:        30 * time.Second,
		BackoffStrategy: BackoffLinear,
		JitterFactor:    DefaultJitterFactor,
	}
}

// ShouldRetry reports whether a task that has already been attempted
// `attempts` times has retry budget left.
func (p *Policy) ShouldRetry(attempts int) bool {
	return attempts < p.MaxAttempts
}

// CalculateDelay calculates the backoff delay before the given retry
// (1-based: attempt 1 is the first retry).
func (p *Policy) CalculateDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	var delay time.Duration

	switch p.BackoffStrategy {
	case BackoffFixed:
		delay = p.InitialDelay
	case BackoffLinear:
		delay = p.InitialDelay * time.Duration(attempt)
	case BackoffExponential:
		delay = p.InitialDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	default:
		delay = p.InitialDelay
	}

	// Apply max delay cap
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	// Apply jitter
	if p.JitterFactor > 0 {
		jitter := float64(delay) * p.JitterFactor * (rand.Float64()*2 - 1) // -jitter to +jitter
		delay = time.Duration(float64(delay) + jitter)
		if delay < 0 {
			delay = 0
		}
	}

	return delay
}
