// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

// Package tools implements the external capabilities the pipeline
// orchestrates: ontology and enzyme lookups, domain search, and the
// structure design/folding runners.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/maesd-ai/maesd/pkg/core"
	"github.com/maesd-ai/maesd/pkg/errors"
)

// Func adapts a plain function to core.Tool.
type Func struct {
	name        string
	description string
	fn          func(ctx context.Context, input any) (any, error)
}

// NewFunc creates a function-backed tool.
func NewFunc(name, description string, fn func(ctx context.Context, input any) (any, error)) *Func {
	return &Func{name: name, description: description, fn: fn}
}

func (f *Func) Name() string        { return f.name }
func (f *Func) Description() string { return f.description }

func (f *Func) Call(ctx context.Context, input any) (any, error) {
	return f.fn(ctx, input)
}

var _ core.Tool = (*Func)(nil)

// Registry is a named collection of tools shared by roles and the MCP
// surface.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]core.Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]core.Tool)}
}

// Register adds a tool, rejecting duplicate names.
func (r *Registry) Register(t core.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("tool %q already registered", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (core.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "unknown tool", nil).
			WithContext("tool", name)
	}
	return t, nil
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered tools in name order.
func (r *Registry) All() []core.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]core.Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}
