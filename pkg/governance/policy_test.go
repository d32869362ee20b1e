package governance

import (
	"context"
	"testing"

	"github.com/maesd-ai/maesd/pkg/llm"
)

func TestRuleSetFirstMatchWins(t *testing.T) {
	rs := NewRuleSet([]Rule{
		{ID: "deny-fold", Effect: "deny", Type: ActionTool, Name: "alphafold", Reason: "gpu offline"},
		{ID: "allow-all-tools", Effect: "allow", Type: ActionTool},
	})

	d := rs.Evaluate(context.Background(), Action{Type: ActionTool, Name: "alphafold"})
	if !d.IsDenied() || d.RuleID != "deny-fold" {
		t.Errorf("expected deny by deny-fold, got %+v", d)
	}

	d = rs.Evaluate(context.Background(), Action{Type: ActionTool, Name: "quickgo_term"})
	if !d.IsAllowed() || d.RuleID != "allow-all-tools" {
		t.Errorf("expected allow by allow-all-tools, got %+v", d)
	}
}

func TestRuleSetGlobMatch(t *testing.T) {
	rs := NewRuleSet([]Rule{
		{ID: "pend-design", Effect: "pending", Type: ActionTool, Name: "protein*"},
	})

	d := rs.Evaluate(context.Background(), Action{Type: ActionTool, Name: "proteinmpnn"})
	if !d.IsPending() {
		t.Errorf("glob should match proteinmpnn: %+v", d)
	}
	d = rs.Evaluate(context.Background(), Action{Type: ActionTool, Name: "alphafold"})
	if !d.IsAllowed() {
		t.Errorf("non-matching tool should fall to default allow: %+v", d)
	}
}

func TestRuleSetTypeFilter(t *testing.T) {
	rs := NewRuleSet([]Rule{
		{ID: "deny-roles", Effect: "deny", Type: ActionRole},
	})
	d := rs.Evaluate(context.Background(), Action{Type: ActionTool, Name: "anything"})
	if !d.IsAllowed() {
		t.Errorf("tool action should not match a role rule: %+v", d)
	}
}

func TestRuleSetDefaultAllow(t *testing.T) {
	rs := NewRuleSet(nil)
	if d := rs.Evaluate(context.Background(), Action{Type: ActionLLM, Name: "chat"}); !d.IsAllowed() {
		t.Errorf("empty rule set should default to allow: %+v", d)
	}
}

func TestBudgetPolicyDeniesLLMWhenExhausted(t *testing.T) {
	tracker := llm.NewCostTracker(0.01)
	tracker.Charge("gpt-4", llm.Usage{PromptTokens: 1000, CompletionTokens: 1000})
	policy := NewBudgetPolicy(tracker, nil)

	d := policy.Evaluate(context.Background(), Action{Type: ActionLLM, Name: "chat"})
	if !d.IsDenied() || d.RuleID != "budget" {
		t.Errorf("expected budget denial, got %+v", d)
	}

	// tools are not billed per-call; they pass through
	d = policy.Evaluate(context.Background(), Action{Type: ActionTool, Name: "quickgo_term"})
	if !d.IsAllowed() {
		t.Errorf("non-LLM action should pass through: %+v", d)
	}
}

func TestBudgetPolicyAllowsUnderBudget(t *testing.T) {
	tracker := llm.NewCostTracker(10)
	policy := NewBudgetPolicy(tracker, NewRuleSet([]Rule{
		{ID: "deny-chat", Effect: "deny", Type: ActionLLM, Name: "banned"},
	}))

	d := policy.Evaluate(context.Background(), Action{Type: ActionLLM, Name: "chat"})
	if !d.IsAllowed() {
		t.Errorf("under budget should defer to inner engine: %+v", d)
	}
	d = policy.Evaluate(context.Background(), Action{Type: ActionLLM, Name: "banned"})
	if !d.IsDenied() || d.RuleID != "deny-chat" {
		t.Errorf("inner rules still apply under budget: %+v", d)
	}
}
