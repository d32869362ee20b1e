// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"path/filepath"
	"testing"
)

func TestInMemoryStoreAndRetrieve(t *testing.T) {
	m := NewInMemory()
	ctx := context.Background()

	err := m.Store(ctx, StepRecord{RunID: "run-1", Role: "IntentAnalyser", Action: "IntentAnalysis", Content: "intent list"})
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}
	// agents store loosely-typed maps
	err = m.Store(ctx, map[string]any{
		"role": "GOECValidator", "action": "GOECSearch", "content": "validated annotations",
	})
	if err != nil {
		t.Fatalf("map store failed: %v", err)
	}

	out, err := m.Retrieve(ctx, "")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	all := out.([]StepRecord)
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	if all[0].CreatedAt.IsZero() {
		t.Error("timestamp not backfilled")
	}

	out, err = m.Retrieve(ctx, "goec")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	matched := out.([]StepRecord)
	if len(matched) != 1 || matched[0].Role != "GOECValidator" {
		t.Errorf("query match wrong: %+v", matched)
	}
}

func TestInMemoryRejectsUnknownType(t *testing.T) {
	m := NewInMemory()
	if err := m.Store(context.Background(), 42); err == nil {
		t.Error("expected error for unsupported record type")
	}
}

func TestSQLiteStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steps.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	records := []StepRecord{
		{RunID: "run-1", Role: "IntentAnalyser", Action: "IntentAnalysis", Content: "first"},
		{RunID: "run-1", Role: "GOECValidator", Action: "GOECSearch", Content: "second"},
		{RunID: "run-2", Role: "IntentAnalyser", Action: "IntentAnalysis", Content: "other run"},
	}
	for _, rec := range records {
		if err := s.Store(ctx, rec); err != nil {
			t.Fatalf("store failed: %v", err)
		}
	}

	history, err := s.RunHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 steps for run-1, got %d", len(history))
	}
	if history[0].Content != "first" || history[1].Content != "second" {
		t.Errorf("history out of order: %+v", history)
	}

	out, err := s.Retrieve(ctx, "run-2")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	byRun := out.([]StepRecord)
	if len(byRun) != 1 || byRun[0].Content != "other run" {
		t.Errorf("run filter wrong: %+v", byRun)
	}

	out, err = s.Retrieve(ctx, "")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if recent := out.([]StepRecord); len(recent) != 3 {
		t.Errorf("expected 3 recent records, got %d", len(recent))
	}
}

func TestTeeFansOutAndClosesBackends(t *testing.T) {
	primary := NewInMemory()
	secondary := NewInMemory()
	path := filepath.Join(t.TempDir(), "steps.db")
	sqlite, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}

	tee := NewTee(primary, secondary, sqlite)
	ctx := context.Background()
	rec := StepRecord{RunID: "run-1", Role: "IntentAnalyser", Action: "IntentAnalysis", Content: "step"}
	if err := tee.Store(ctx, rec); err != nil {
		t.Fatalf("tee store failed: %v", err)
	}

	if len(primary.Records()) != 1 || len(secondary.Records()) != 1 {
		t.Error("record not fanned out to every in-process backend")
	}
	history, err := sqlite.RunHistory(ctx, "run-1")
	if err != nil || len(history) != 1 {
		t.Errorf("record not fanned out to sqlite: %v, %d", err, len(history))
	}

	out, err := tee.Retrieve(ctx, "")
	if err != nil {
		t.Fatalf("tee retrieve failed: %v", err)
	}
	if len(out.([]StepRecord)) != 1 {
		t.Error("retrieve should read the primary")
	}

	if err := tee.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}
}
