package planner

import (
	"context"
	"fmt"

	"github.com/maesd-ai/maesd/pkg/actions"
)

// Handlers builds the executor handler table backed by this pipeline: "role"
// nodes run agents from the role bank, "tool" nodes call the registry,
// "design_loop" nodes run the evolutionary rounds.
func (p *Pipeline) Handlers() map[string]Handler {
	return map[string]Handler{
		"role":        p.roleHandler,
		"tool":        p.toolHandler,
		"design_loop": p.loopHandler,
	}
}

func (p *Pipeline) roleHandler(ctx context.Context, node Node, state *State) (any, error) {
	role, ok := p.Roles[node.Role]
	if !ok {
		return nil, fmt.Errorf("role %q not in role bank", node.Role)
	}
	input := node.Input
	if input == nil {
		input = state.LastString()
	}
	out, err := role.Run(actions.WithRoleOutputs(ctx, roleOutputsFrom(state.Roles)), input)
	if err != nil {
		return nil, err
	}
	state.RecordRole(node.Role, out)
	return out, nil
}

func (p *Pipeline) toolHandler(ctx context.Context, node Node, state *State) (any, error) {
	if p.Registry == nil {
		return nil, fmt.Errorf("no tool registry configured")
	}
	tool, err := p.Registry.Get(node.Tool)
	if err != nil {
		return nil, err
	}
	input := node.Input
	if input == nil {
		input = state.Last
	}
	return tool.Call(ctx, input)
}

func (p *Pipeline) loopHandler(ctx context.Context, _ Node, state *State) (any, error) {
	result := &Result{Report: state.LastString()}
	if p.TemplatePDB == "" {
		return nil, fmt.Errorf("design_loop node requires a template backbone")
	}
	if p.MPNN == nil {
		return nil, fmt.Errorf("design_loop node requires a ProteinMPNN runner")
	}
	if err := p.runDesignLoop(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ExecuteGraph runs a graph definition with this pipeline's handlers. The
// input string seeds the execution state.
func (p *Pipeline) ExecuteGraph(ctx context.Context, graph *Graph, input string) (*State, error) {
	exec := NewExecutor(p.Handlers())
	exec.Policy = p.Policy
	state := NewState()
	state.Last = input
	return exec.Execute(ctx, graph, state)
}

// DefaultGraph is the built-in pipeline: the analysis roles in their natural
// order, then the design loop when a backbone is available.
func DefaultGraph(withDesign bool) *Graph {
	g := &Graph{
		ID:    "maesd-default",
		Start: "intent",
		Nodes: map[string]Node{
			"intent":    {ID: "intent", Type: "role", Role: "IntentAnalyser"},
			"validate":  {ID: "validate", Type: "role", Role: "GOECValidator"},
			"analyse":   {ID: "analyse", Type: "role", Role: "ProAnalyser"},
			"domains":   {ID: "domains", Type: "role", Role: "DomainSearcher"},
			"integrate": {ID: "integrate", Type: "role", Role: "ReportIntegrator"},
		},
		Edges: []Edge{
			{From: "intent", To: "validate"},
			{From: "validate", To: "analyse"},
			{From: "analyse", To: "domains"},
			{From: "domains", To: "integrate"},
		},
	}
	if withDesign {
		g.Nodes["design"] = Node{ID: "design", Type: "design_loop"}
		g.Edges = append(g.Edges, Edge{From: "integrate", To: "design"})
	}
	return g
}
