// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maesd-ai/maesd/pkg/resilience"
)

func fastRetry(attempts int) resilience.RetryConfig {
	return resilience.DefaultRetryConfig().
		WithMaxAttempts(attempts)
}

func TestQuickGOTermRetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(quickGOTermJSON))
	}))
	defer srv.Close()

	c := NewQuickGOClient()
	c.BaseURL = srv.URL

	term, err := c.Term(context.Background(), "GO:0016787")
	if err != nil {
		t.Fatalf("lookup should succeed on retry: %v", err)
	}
	if term.ID != "GO:0016787" {
		t.Errorf("unexpected term: %+v", term)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

func TestQuickGOBreakerStopsHammeringDeadService(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewQuickGOClient()
	c.BaseURL = srv.URL
	c.guard = guard{
		retry: fastRetry(1),
		breaker: resilience.NewBreaker(resilience.BreakerConfig{
			Name:             "quickgo",
			FailureThreshold: 2,
			CoolOff:          time.Minute,
		}),
	}

	for i := 0; i < 2; i++ {
		if _, err := c.Term(context.Background(), "GO:0016787"); err == nil {
			t.Fatal("expected error from failing service")
		}
	}
	if c.guard.breaker.State() != resilience.StateOpen {
		t.Fatalf("breaker should be open, got %s", c.guard.breaker.State())
	}

	_, err := c.Term(context.Background(), "GO:0016787")
	if err == nil || !strings.Contains(err.Error(), "circuit breaker open") {
		t.Errorf("open breaker should reject the call, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("open breaker must not reach the service, saw %d requests", got)
	}
}

func TestInterProSearchRetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"results":[{"metadata":{"accession":"IPR000001","name":"Kringle","type":"domain"}}]}`))
	}))
	defer srv.Close()

	c := NewInterProClient()
	c.Endpoint = srv.URL

	hits, err := c.Search(context.Background(), "kringle")
	if err != nil {
		t.Fatalf("search should succeed on retry: %v", err)
	}
	if len(hits) != 1 || hits[0].Accession != "IPR000001" {
		t.Errorf("unexpected hits: %+v", hits)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

func TestZeroValueGuardRunsOnce(t *testing.T) {
	var g guard
	calls := 0
	err := g.do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}
