// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"

	"github.com/maesd-ai/maesd/pkg/resilience"
)

// guard pairs retry with a circuit breaker for calls to a public REST
// service. The breaker stops a dead endpoint from eating three timeouts
// per lookup once it has failed often enough.
type guard struct {
	retry   resilience.RetryConfig
	breaker *resilience.Breaker
}

func newGuard(name string) guard {
	return guard{
		retry:   resilience.DefaultRetryConfig(),
		breaker: resilience.NewBreaker(resilience.BreakerConfig{Name: name}),
	}
}

// call runs fn through the breaker. A zero-value guard, as on a client
// built from a struct literal, passes through unchanged.
func (g guard) call(ctx context.Context, fn func() error) error {
	if g.breaker == nil {
		return fn()
	}
	return g.breaker.Call(ctx, fn)
}

// do retries fn with the breaker applied on every attempt.
func (g guard) do(ctx context.Context, fn func() error) error {
	return g.retry.Do(ctx, func() error { return g.call(ctx, fn) })
}
