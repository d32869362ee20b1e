// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/maesd-ai/maesd/pkg/core"
	"github.com/maesd-ai/maesd/pkg/memory"
)

type suffixAction struct {
	name string
	err  error
}

func (s suffixAction) Name() string { return s.name }

func (s suffixAction) Run(_ context.Context, instruction string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return instruction + "+" + s.name, nil
}

func TestNewRequiresID(t *testing.T) {
	if _, err := New("", WithActions(suffixAction{name: "a"})); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestNewRequiresActionsOrHandler(t *testing.T) {
	_, err := New("bare")
	if !errors.Is(err, ErrNoActions) {
		t.Errorf("expected ErrNoActions, got %v", err)
	}
}

func TestRunChainsActions(t *testing.T) {
	a, err := New("analyser",
		WithManifest(core.RoleManifest{Name: "IntentAnalyser"}),
		WithActions(suffixAction{name: "first"}, suffixAction{name: "second"}),
	)
	if err != nil {
		t.Fatal(err)
	}

	out, err := a.Run(context.Background(), "input")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out != "input+first+second" {
		t.Errorf("chain not threaded: %v", out)
	}
	if a.Role() != "IntentAnalyser" {
		t.Errorf("unexpected role: %q", a.Role())
	}
}

func TestRunChainActionFailure(t *testing.T) {
	a, err := New("analyser", WithActions(
		suffixAction{name: "ok"},
		suffixAction{name: "broken", err: fmt.Errorf("backend down")},
	))
	if err != nil {
		t.Fatal(err)
	}
	_, err = a.Run(context.Background(), "input")
	if err == nil {
		t.Fatal("expected chain failure")
	}
	if got := err.Error(); got != "agent analyser: action broken: backend down" {
		t.Errorf("unexpected error: %q", got)
	}
}

func TestRunRejectsNonStringChainInput(t *testing.T) {
	a, err := New("analyser", WithActions(suffixAction{name: "a"}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Run(context.Background(), 42); err == nil {
		t.Error("expected error for non-string chain input")
	}
}

func TestRunRecordsStepsInMemory(t *testing.T) {
	mem := memory.NewInMemory()
	a, err := New("analyser",
		WithManifest(core.RoleManifest{Name: "IntentAnalyser"}),
		WithActions(suffixAction{name: "first"}, suffixAction{name: "second"}),
		WithMemory(mem),
	)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Run(context.Background(), "input"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	records := mem.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 step records, got %d", len(records))
	}
	if records[0].Action != "first" || records[1].Action != "second" {
		t.Errorf("step order wrong: %+v", records)
	}
	if records[0].Role != "IntentAnalyser" || records[0].Content != "input+first" {
		t.Errorf("step content wrong: %+v", records[0])
	}
	if records[0].RunID == "" || records[0].RunID != records[1].RunID {
		t.Errorf("steps not tagged with one run id: %q, %q", records[0].RunID, records[1].RunID)
	}
}

func TestRunStepsRetrievableByRunID(t *testing.T) {
	store, err := memory.NewSQLiteStore(filepath.Join(t.TempDir(), "steps.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	a, err := New("analyser",
		WithManifest(core.RoleManifest{Name: "IntentAnalyser"}),
		WithActions(suffixAction{name: "first"}),
		WithMemory(store),
	)
	if err != nil {
		t.Fatal(err)
	}

	ctx := core.WithRunID(context.Background(), "run-test-1")
	if _, err := a.Run(ctx, "input"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	history, err := store.RunHistory(context.Background(), "run-test-1")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 step for the run, got %d", len(history))
	}
	if history[0].RunID != "run-test-1" || history[0].Content != "input+first" {
		t.Errorf("stored step wrong: %+v", history[0])
	}
}

func TestWithHandlerBypassesChain(t *testing.T) {
	a, err := New("custom", WithHandler(func(_ context.Context, input any) (any, error) {
		return map[string]any{"echo": input}, nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	out, err := a.Run(context.Background(), 42)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	m, ok := out.(map[string]any)
	if !ok || m["echo"] != 42 {
		t.Errorf("handler output not passed through: %v", out)
	}
}

func TestRunAssignsRunID(t *testing.T) {
	a, err := New("custom", WithHandler(func(ctx context.Context, _ any) (any, error) {
		id, _ := core.RunID(ctx)
		return id, nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	out, err := a.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out == "" {
		t.Error("run id not assigned to context")
	}
}
