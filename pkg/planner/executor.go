package planner

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/maesd-ai/maesd/pkg/governance"
)

// Handler executes a node and can update state.
type Handler func(ctx context.Context, node Node, state *State) (any, error)

// State holds outputs produced during graph execution. Roles tracks string
// outputs keyed by role name so later nodes can see every specialist result.
type State struct {
	Last    any
	Outputs map[string]any
	Roles   map[string]string
}

// NewState creates an initialized execution state.
func NewState() *State {
	return &State{Outputs: make(map[string]any), Roles: make(map[string]string)}
}

// RecordRole notes a role's string output.
func (s *State) RecordRole(role string, output any) {
	text, ok := output.(string)
	if !ok || role == "" {
		return
	}
	if s.Roles == nil {
		s.Roles = make(map[string]string)
	}
	s.Roles[role] = text
}

// LastString returns the last output when it is a string.
func (s *State) LastString() string {
	out, _ := s.Last.(string)
	return out
}

// Executor runs a graph using handlers keyed by node type. When a policy
// engine is set, every node is evaluated before it runs.
type Executor struct {
	Handlers map[string]Handler
	Policy   governance.PolicyEngine
	tracer   trace.Tracer
}

// NewExecutor creates an executor with the provided handlers.
func NewExecutor(handlers map[string]Handler) *Executor {
	return &Executor{
		Handlers: handlers,
		tracer:   otel.Tracer("maesd/planner"),
	}
}

// Execute runs the graph from its start node and returns the final state.
func (e *Executor) Execute(ctx context.Context, graph *Graph, state *State) (*State, error) {
	if graph == nil {
		return nil, fmt.Errorf("graph is nil")
	}
	if err := graph.Validate(); err != nil {
		return nil, err
	}
	if state == nil {
		state = NewState()
	}

	startID, err := resolveStartNode(graph)
	if err != nil {
		return nil, err
	}
	adjacency := buildAdjacency(graph)

	visited := make(map[string]bool)
	currentID := startID
	for currentID != "" {
		if visited[currentID] {
			return nil, fmt.Errorf("cycle detected at node %q", currentID)
		}
		visited[currentID] = true

		node := graph.Nodes[currentID]
		handler := e.Handlers[node.Type]
		if handler == nil {
			return nil, fmt.Errorf("no handler for node type %q", node.Type)
		}

		if err := e.checkPolicy(ctx, node); err != nil {
			return nil, err
		}

		nodeCtx, span := e.tracer.Start(ctx, "Pipeline.Node",
			trace.WithAttributes(
				attribute.String("node.id", node.ID),
				attribute.String("node.type", node.Type),
			),
		)
		output, err := handler(nodeCtx, node, state)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return nil, fmt.Errorf("node %q failed: %w", node.ID, err)
		}
		span.End()
		state.Outputs[node.ID] = output
		state.Last = output

		next := adjacency[currentID]
		if len(next) == 0 {
			break
		}
		if len(next) > 1 {
			return nil, fmt.Errorf("node %q has multiple outgoing edges", currentID)
		}
		currentID = next[0]
	}

	return state, nil
}

func (e *Executor) checkPolicy(ctx context.Context, node Node) error {
	if e.Policy == nil {
		return nil
	}
	var checks []governance.Action
	switch node.Type {
	case "tool":
		checks = []governance.Action{{Type: governance.ActionTool, Name: node.Tool}}
	case "role":
		// role nodes spend LLM tokens, so both gates apply
		checks = []governance.Action{
			{Type: governance.ActionRole, Name: node.Role},
			{Type: governance.ActionLLM, Name: node.Role},
		}
	default:
		checks = []governance.Action{{Type: governance.ActionRole, Name: node.Role}}
	}
	for _, action := range checks {
		decision := e.Policy.Evaluate(ctx, action)
		if decision.IsDenied() {
			return fmt.Errorf("node %q denied by policy %s: %s", node.ID, decision.RuleID, decision.Reason)
		}
		if decision.IsPending() {
			return fmt.Errorf("node %q requires approval (%s)", node.ID, decision.Reason)
		}
	}
	return nil
}

func resolveStartNode(graph *Graph) (string, error) {
	if graph.Start != "" {
		if _, ok := graph.Nodes[graph.Start]; !ok {
			return "", fmt.Errorf("start node %q not found", graph.Start)
		}
		return graph.Start, nil
	}

	incoming := make(map[string]int)
	for id := range graph.Nodes {
		incoming[id] = 0
	}
	for _, edge := range graph.Edges {
		incoming[edge.To]++
	}

	var candidates []string
	for id, count := range incoming {
		if count == 0 {
			candidates = append(candidates, id)
		}
	}
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return "", fmt.Errorf("no start node found")
	default:
		return "", fmt.Errorf("multiple start nodes found")
	}
}

func buildAdjacency(graph *Graph) map[string][]string {
	adj := make(map[string][]string, len(graph.Nodes))
	for id := range graph.Nodes {
		adj[id] = nil
	}
	for _, edge := range graph.Edges {
		adj[edge.From] = append(adj[edge.From], edge.To)
	}
	return adj
}
