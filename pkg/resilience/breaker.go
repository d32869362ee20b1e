package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/maesd-ai/maesd/pkg/errors"
)

// BreakerState is the circuit breaker state.
type BreakerState string

const (
	StateClosed   BreakerState = "closed"
	StateOpen     BreakerState = "open"
	StateHalfOpen BreakerState = "half-open"
)

// BreakerConfig configures a circuit breaker guarding an external service,
// typically one of the public REST endpoints.
type BreakerConfig struct {
	Name             string
	FailureThreshold int           // failures before opening, default 5
	SuccessThreshold int           // half-open successes before closing, default 2
	CoolOff          time.Duration // open duration before probing, default 30s
}

// Breaker blocks calls to a failing dependency until it recovers.
type Breaker struct {
	cfg          BreakerConfig
	mu           sync.Mutex
	state        BreakerState
	failures     int
	successes    int
	lastFailTime time.Time
}

// NewBreaker creates a circuit breaker with defaults applied.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold < 1 {
		cfg.SuccessThreshold = 2
	}
	if cfg.CoolOff == 0 {
		cfg.CoolOff = 30 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "breaker"
	}
	return &Breaker{cfg: cfg, state: StateClosed}
}

// Call runs fn when the circuit allows it and tracks the outcome. An open
// circuit rejects with a recoverable CodeToolFailure so the caller's retry
// can wait it out.
func (b *Breaker) Call(ctx context.Context, fn func() error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && time.Since(b.lastFailTime) > b.cfg.CoolOff {
		b.state = StateHalfOpen
		b.failures = 0
		b.successes = 0
	}
	if b.state == StateOpen {
		return errors.New(errors.CodeToolFailure, "circuit breaker open", nil).
			WithContext("breaker", b.cfg.Name).
			WithRecoverable(true)
	}

	err := fn()
	if err != nil {
		b.failures++
		b.lastFailTime = time.Now()
		if b.state == StateHalfOpen || b.failures >= b.cfg.FailureThreshold {
			b.state = StateOpen
			b.failures = 0
			b.successes = 0
		}
		return err
	}

	switch b.state {
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.state = StateClosed
			b.failures = 0
			b.successes = 0
		}
	case StateClosed:
		b.failures = 0
	}
	return nil
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}
