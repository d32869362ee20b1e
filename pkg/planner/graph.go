// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

// Package planner executes the design pipeline: a deterministic graph of
// role and tool steps, plus the evolutionary design/fold/screen loop.
package planner

import (
	"fmt"
	"os"

	yamlv3 "gopkg.in/yaml.v3"
)

// Graph is a deterministic execution graph.
type Graph struct {
	ID    string          `json:"id" yaml:"id"`
	Start string          `json:"start" yaml:"start"`
	Nodes map[string]Node `json:"nodes" yaml:"nodes"`
	Edges []Edge          `json:"edges" yaml:"edges"`
}

// Node is one step. Type selects the handler: "role" runs an agent from the
// role bank, "tool" calls a registered tool, "design_loop" runs the
// evolutionary rounds.
type Node struct {
	ID       string            `json:"id" yaml:"id"`
	Type     string            `json:"type" yaml:"type"`
	Role     string            `json:"role,omitempty" yaml:"role,omitempty"`
	Tool     string            `json:"tool,omitempty" yaml:"tool,omitempty"`
	Input    any               `json:"input,omitempty" yaml:"input,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Edge is a transition between nodes.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Validate ensures the graph is well-formed for execution.
func (g *Graph) Validate() error {
	if g == nil {
		return fmt.Errorf("graph is nil")
	}
	if len(g.Nodes) == 0 {
		return fmt.Errorf("graph has no nodes")
	}

	for id, node := range g.Nodes {
		if node.ID == "" {
			node.ID = id
			g.Nodes[id] = node
		}
		if node.Type == "" {
			return fmt.Errorf("node %q missing type", node.ID)
		}
	}

	for _, edge := range g.Edges {
		if edge.From == "" || edge.To == "" {
			return fmt.Errorf("edge must include from/to")
		}
		if _, ok := g.Nodes[edge.From]; !ok {
			return fmt.Errorf("edge from %q not found", edge.From)
		}
		if _, ok := g.Nodes[edge.To]; !ok {
			return fmt.Errorf("edge to %q not found", edge.To)
		}
	}
	return nil
}

// Order returns the nodes in execution order. It mirrors the executor's
// walk from the start node without running any handlers, so callers can
// show a plan before committing to a run.
func (g *Graph) Order() ([]Node, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	startID, err := resolveStartNode(g)
	if err != nil {
		return nil, err
	}
	adjacency := buildAdjacency(g)

	var order []Node
	visited := make(map[string]bool)
	currentID := startID
	for currentID != "" {
		if visited[currentID] {
			return nil, fmt.Errorf("cycle detected at node %q", currentID)
		}
		visited[currentID] = true
		order = append(order, g.Nodes[currentID])

		next := adjacency[currentID]
		if len(next) == 0 {
			break
		}
		if len(next) > 1 {
			return nil, fmt.Errorf("node %q has multiple outgoing edges", currentID)
		}
		currentID = next[0]
	}
	return order, nil
}

// LoadGraph reads a graph definition from a YAML file.
func LoadGraph(path string) (*Graph, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph %s: %w", path, err)
	}
	return ParseGraph(raw)
}

// ParseGraph decodes a YAML graph definition.
func ParseGraph(raw []byte) (*Graph, error) {
	var g Graph
	if err := yamlv3.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("parse graph: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}
