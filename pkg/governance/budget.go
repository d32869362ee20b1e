package governance

import (
	"context"
	"fmt"

	"github.com/maesd-ai/maesd/pkg/llm"
)

// BudgetPolicy denies LLM actions once the shared cost tracker reports the
// MAX_BUDGET ceiling reached. Non-LLM actions pass through to the inner
// engine.
type BudgetPolicy struct {
	Tracker *llm.CostTracker
	Inner   PolicyEngine
}

// NewBudgetPolicy wraps inner with budget enforcement. A nil inner defaults
// to allow.
func NewBudgetPolicy(tracker *llm.CostTracker, inner PolicyEngine) *BudgetPolicy {
	if inner == nil {
		inner = NewRuleSet(nil)
	}
	return &BudgetPolicy{Tracker: tracker, Inner: inner}
}

// Evaluate implements PolicyEngine.
func (b *BudgetPolicy) Evaluate(ctx context.Context, action Action) Decision {
	if action.Type == ActionLLM && b.Tracker != nil {
		if err := b.Tracker.CheckBudget(); err != nil {
			return Decision{
				Status: DecisionDeny,
				RuleID: "budget",
				Reason: fmt.Sprintf("max budget reached (total %.4f USD)", b.Tracker.Total()),
			}
		}
	}
	return b.Inner.Evaluate(ctx, action)
}

var _ PolicyEngine = (*BudgetPolicy)(nil)
