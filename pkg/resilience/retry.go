// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

// Package resilience provides retry, timeout and circuit breaker wrappers
// for the flaky edges of the pipeline: LLM calls, public REST services, and
// long-running tool subprocesses.
package resilience

import (
	"context"
	stderrors "errors"
	"math"
	"math/rand"
	"time"

	"github.com/maesd-ai/maesd/pkg/errors"
)

// RetryConfig controls retry behavior with exponential backoff.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// IsRecoverable decides whether an error is worth retrying. Nil means
	// the MAESDError Recoverable flag decides, and unknown errors retry.
	IsRecoverable func(error) bool

	// Jitter between 0 and 1; 0.1 means ±10%.
	Jitter float64
}

// DefaultRetryConfig suits LLM and REST calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		Multiplier:    2.0,
		Jitter:        0.1,
		IsRecoverable: recoverableDefault,
	}
}

// PromptRetryConfig matches the two-attempt fixed-wait policy used around
// structured prompt calls, where a malformed completion usually fixes
// itself on resend.
func PromptRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   2,
		InitialDelay:  time.Second,
		MaxDelay:      time.Second,
		Multiplier:    1.0,
		IsRecoverable: recoverableDefault,
	}
}

// WithMaxAttempts returns a copy with MaxAttempts set.
func (rc RetryConfig) WithMaxAttempts(n int) RetryConfig {
	rc.MaxAttempts = n
	return rc
}

// WithIsRecoverable returns a copy with IsRecoverable set.
func (rc RetryConfig) WithIsRecoverable(fn func(error) bool) RetryConfig {
	rc.IsRecoverable = fn
	return rc
}

// Do executes fn with retries, returning the last error when all attempts
// fail.
func (rc RetryConfig) Do(ctx context.Context, fn func() error) error {
	if rc.MaxAttempts < 1 {
		rc.MaxAttempts = 1
	}
	if rc.IsRecoverable == nil {
		rc.IsRecoverable = recoverableDefault
	}

	var lastErr error
	for attempt := 0; attempt < rc.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.New(errors.CodeTimeout, "context canceled during retry", ctx.Err()).
					WithContext("attempt", attempt).
					WithContext("max_attempts", rc.MaxAttempts)
			case <-time.After(rc.backoff(attempt)):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !rc.IsRecoverable(err) {
			return err
		}
	}
	return lastErr
}

// DoWithResult executes fn with retries and returns its result.
func DoWithResult[T any](ctx context.Context, rc RetryConfig, fn func() (T, error)) (T, error) {
	var result T
	err := rc.Do(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

func (rc RetryConfig) backoff(attempt int) time.Duration {
	multiplier := rc.Multiplier
	if multiplier == 0 {
		multiplier = 2.0
	}
	delay := time.Duration(float64(rc.InitialDelay) * math.Pow(multiplier, float64(attempt)))
	if rc.MaxDelay > 0 && delay > rc.MaxDelay {
		delay = rc.MaxDelay
	}
	if rc.Jitter > 0 {
		spread := delay.Seconds() * rc.Jitter
		delay += time.Duration(2 * spread * (rand.Float64() - 0.5) * float64(time.Second))
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}

func recoverableDefault(err error) bool {
	if err == nil {
		return false
	}
	var me *errors.MAESDError
	if stderrors.As(err, &me) {
		return me.Recoverable
	}
	return true
}
