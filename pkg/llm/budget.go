package llm

import (
	"context"
	"sync"

	"github.com/maesd-ai/maesd/pkg/errors"
)

// Pricing holds per-1K-token USD rates for a model.
type Pricing struct {
	PromptPer1K     float64
	CompletionPer1K float64
}

// defaultPricing covers the models the pipeline is normally configured with.
// Unknown models fall back to the most expensive known rate so the budget
// guard errs on the safe side.
var defaultPricing = map[string]Pricing{
	"gpt-4":         {PromptPer1K: 0.03, CompletionPer1K: 0.06},
	"gpt-4o":        {PromptPer1K: 0.0025, CompletionPer1K: 0.01},
	"gpt-4o-mini":   {PromptPer1K: 0.00015, CompletionPer1K: 0.0006},
	"deepseek-chat": {PromptPer1K: 0.00027, CompletionPer1K: 0.0011},
	"claude-sonnet-4-5": {
		PromptPer1K: 0.003, CompletionPer1K: 0.015,
	},
}

var fallbackPricing = Pricing{PromptPer1K: 0.03, CompletionPer1K: 0.06}

// CostTracker accumulates LLM spend across the whole run and enforces the
// MAX_BUDGET ceiling. It is shared by every provider decorator in the
// pipeline.
type CostTracker struct {
	mu        sync.Mutex
	maxBudget float64 // USD; 0 disables the ceiling
	total     float64
	pricing   map[string]Pricing
}

// NewCostTracker creates a tracker with the given USD ceiling.
func NewCostTracker(maxBudget float64) *CostTracker {
	return &CostTracker{maxBudget: maxBudget, pricing: defaultPricing}
}

// SetPricing overrides the rate table for a model.
func (ct *CostTracker) SetPricing(model string, p Pricing) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if ct.pricing == nil {
		ct.pricing = map[string]Pricing{}
	}
	ct.pricing[model] = p
}

// Charge records usage for a completed call and returns the cost of that
// call. The run total keeps growing even past the ceiling; enforcement
// happens before the next call in CheckBudget.
func (ct *CostTracker) Charge(model string, usage Usage) float64 {
	rate, ok := ct.pricingFor(model)
	if !ok {
		rate = fallbackPricing
	}
	cost := float64(usage.PromptTokens)/1000*rate.PromptPer1K +
		float64(usage.CompletionTokens)/1000*rate.CompletionPer1K

	ct.mu.Lock()
	ct.total += cost
	ct.mu.Unlock()
	return cost
}

func (ct *CostTracker) pricingFor(model string) (Pricing, bool) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	rate, ok := ct.pricing[model]
	return rate, ok
}

// Total returns the accumulated spend in USD.
func (ct *CostTracker) Total() float64 {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.total
}

// CheckBudget returns a BUDGET_EXCEEDED error when the ceiling is reached.
func (ct *CostTracker) CheckBudget() error {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if ct.maxBudget > 0 && ct.total >= ct.maxBudget {
		return errors.New(errors.CodeBudgetExceeded, "max budget reached", nil).
			WithContext("total_usd", ct.total).
			WithContext("max_budget_usd", ct.maxBudget).
			WithRecoverable(false)
	}
	return nil
}

// BudgetedProvider wraps a Provider and refuses calls once the shared
// CostTracker reports the ceiling reached.
type BudgetedProvider struct {
	next     Provider
	tracker  *CostTracker
	provider string
	model    string
	onUsage  func(ctx context.Context, provider, model string, tokens int, costUSD float64)
}

// NewBudgetedProvider decorates next with budget accounting. onUsage may be
// nil; when set it receives per-call usage (used for metrics).
func NewBudgetedProvider(next Provider, tracker *CostTracker, providerName, model string,
	onUsage func(ctx context.Context, provider, model string, tokens int, costUSD float64)) *BudgetedProvider {
	return &BudgetedProvider{
		next:     next,
		tracker:  tracker,
		provider: providerName,
		model:    model,
		onUsage:  onUsage,
	}
}

// Chat implements Provider.
func (bp *BudgetedProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := bp.tracker.CheckBudget(); err != nil {
		return nil, err
	}
	resp, err := bp.next.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	model := req.Model
	if model == "" {
		model = bp.model
	}
	cost := bp.tracker.Charge(model, resp.Usage)
	if bp.onUsage != nil {
		bp.onUsage(ctx, bp.provider, model, resp.Usage.TotalTokens, cost)
	}
	return resp, nil
}

var _ Provider = (*BudgetedProvider)(nil)
