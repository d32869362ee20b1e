// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

// Package memory provides the memory backends agents record their steps
// into: an in-process store for a single run, sqlite for long-term history,
// and a vector store for semantic recall over past designs.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// StepRecord is one pipeline step as the agents store it.
type StepRecord struct {
	RunID     string    `json:"run_id,omitempty"`
	Role      string    `json:"role"`
	Action    string    `json:"action"`
	Input     string    `json:"input,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// recordFrom coerces the loosely-typed data agents pass to Store.
func recordFrom(data any) (StepRecord, bool) {
	switch v := data.(type) {
	case StepRecord:
		return v, true
	case map[string]any:
		rec := StepRecord{}
		if s, ok := v["run_id"].(string); ok {
			rec.RunID = s
		}
		if s, ok := v["role"].(string); ok {
			rec.Role = s
		}
		if s, ok := v["action"].(string); ok {
			rec.Action = s
		}
		if s, ok := v["input"].(string); ok {
			rec.Input = s
		}
		if s, ok := v["content"].(string); ok {
			rec.Content = s
		}
		return rec, rec.Content != "" || rec.Action != ""
	default:
		return StepRecord{}, false
	}
}

// InMemory keeps the records of the current run. Retrieve matches a string
// query against role, action and content.
type InMemory struct {
	mu      sync.RWMutex
	records []StepRecord
}

// NewInMemory creates an empty run memory.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// Store implements core.Memory.
func (m *InMemory) Store(_ context.Context, data any) error {
	rec, ok := recordFrom(data)
	if !ok {
		return fmt.Errorf("unsupported memory record type %T", data)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()
	return nil
}

// Retrieve implements core.Memory. A nil or empty query returns everything.
func (m *InMemory) Retrieve(_ context.Context, query any) (any, error) {
	q, _ := query.(string)
	q = strings.ToLower(q)

	m.mu.RLock()
	defer m.mu.RUnlock()
	if q == "" {
		out := make([]StepRecord, len(m.records))
		copy(out, m.records)
		return out, nil
	}
	var out []StepRecord
	for _, rec := range m.records {
		if strings.Contains(strings.ToLower(rec.Role), q) ||
			strings.Contains(strings.ToLower(rec.Action), q) ||
			strings.Contains(strings.ToLower(rec.Content), q) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Records returns a copy of everything stored so far.
func (m *InMemory) Records() []StepRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]StepRecord, len(m.records))
	copy(out, m.records)
	return out
}
