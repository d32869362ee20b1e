// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package core

import "context"

// RoleManifest describes a role from the role bank: its persona and the
// ordered action names it executes.
type RoleManifest struct {
	Name        string
	Profile     string
	Goal        string
	Constraints string
	Actions     []string
}

// SystemPrompt renders the persona preamble shared by every action the role
// runs.
func (m RoleManifest) SystemPrompt() string {
	s := "You are " + m.Name + ", " + m.Profile + "."
	if m.Goal != "" {
		s += " Your goal is: " + m.Goal + "."
	}
	if m.Constraints != "" {
		s += " Constraints: " + m.Constraints + "."
	}
	return s
}

// Action is a single step from the action bank. It receives the previous
// step's output as instruction and produces content for the next.
type Action interface {
	Name() string
	Run(ctx context.Context, instruction string) (string, error)
}

// Tool is a concrete external capability: a REST lookup, a subprocess run,
// a docker invocation.
type Tool interface {
	Name() string
	Description() string
	Call(ctx context.Context, input any) (any, error)
}

// Memory stores and retrieves contextual data for agents.
type Memory interface {
	Store(ctx context.Context, data any) error
	Retrieve(ctx context.Context, query any) (any, error)
}

// Agent is the minimal executable unit of the pipeline.
type Agent interface {
	ID() string
	Role() string
	Memory() Memory
	Run(ctx context.Context, input any) (any, error)
}
