// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent implements the role runner: an agent executes its manifest's
// action chain, feeding each action's output into the next.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/maesd-ai/maesd/pkg/core"
)

// Handler executes the agent's behavior. The default handler chains the
// configured actions; WithHandler replaces it entirely.
type Handler func(ctx context.Context, input any) (any, error)

// Agent runs a role from the role bank.
type Agent struct {
	id       string
	manifest core.RoleManifest
	actions  []core.Action
	memory   core.Memory
	handler  Handler
}

var ErrNoActions = errors.New("agent has no actions and no handler")

// Option configures an Agent instance.
type Option func(*Agent) error

// New creates a new Agent with a required id and options.
func New(id string, opts ...Option) (*Agent, error) {
	a := &Agent{id: id}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.id == "" {
		return nil, errors.New("agent id is required")
	}
	if a.handler == nil && len(a.actions) == 0 {
		return nil, ErrNoActions
	}
	return a, nil
}

// WithManifest sets the role manifest.
func WithManifest(m core.RoleManifest) Option {
	return func(a *Agent) error {
		a.manifest = m
		return nil
	}
}

// WithActions sets the ordered action chain.
func WithActions(actions ...core.Action) Option {
	return func(a *Agent) error {
		a.actions = append([]core.Action(nil), actions...)
		return nil
	}
}

// WithMemory attaches a memory backend to the agent.
func WithMemory(memory core.Memory) Option {
	return func(a *Agent) error {
		a.memory = memory
		return nil
	}
}

// WithHandler replaces the default chain handler.
func WithHandler(handler Handler) Option {
	return func(a *Agent) error {
		a.handler = handler
		return nil
	}
}

// ID returns the agent identifier.
func (a *Agent) ID() string { return a.id }

// Role returns the manifest role name.
func (a *Agent) Role() string { return a.manifest.Name }

// Manifest returns the role manifest.
func (a *Agent) Manifest() core.RoleManifest { return a.manifest }

// Memory returns the attached memory backend, if any.
func (a *Agent) Memory() core.Memory { return a.memory }

// Run executes the agent. With a custom handler the input passes through
// unchanged; otherwise the input must be a string instruction for the first
// action in the chain.
func (a *Agent) Run(ctx context.Context, input any) (any, error) {
	if a.memory != nil {
		ctx = core.WithMemory(ctx, a.memory)
	}
	ctx, _ = core.EnsureRunID(ctx)

	if a.handler != nil {
		return a.handler(ctx, input)
	}

	instruction, ok := input.(string)
	if !ok {
		return nil, fmt.Errorf("agent %s: chain input must be a string, got %T", a.id, input)
	}
	return a.runChain(ctx, instruction)
}

func (a *Agent) runChain(ctx context.Context, instruction string) (string, error) {
	runID, _ := core.RunID(ctx)
	out := instruction
	for _, act := range a.actions {
		res, err := act.Run(ctx, out)
		if err != nil {
			return "", fmt.Errorf("agent %s: action %s: %w", a.id, act.Name(), err)
		}
		if a.memory != nil {
			_ = a.memory.Store(ctx, map[string]any{
				"run_id":  runID,
				"role":    a.manifest.Name,
				"action":  act.Name(),
				"input":   out,
				"content": res,
			})
		}
		out = res
	}
	return out, nil
}

var _ core.Agent = (*Agent)(nil)
