// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

// Package governance gates what the pipeline is allowed to do: which tools
// may run, and whether the run may keep spending against its budget.
package governance

import (
	"context"
	"path"
	"strings"
)

// ActionType describes the kind of action being evaluated.
type ActionType string

const (
	ActionTool ActionType = "tool"
	ActionRole ActionType = "role"
	ActionLLM  ActionType = "llm"
)

// Action is a decision target.
type Action struct {
	Type     ActionType
	Name     string
	Metadata map[string]string
}

// DecisionStatus captures the policy outcome.
type DecisionStatus string

const (
	DecisionAllow   DecisionStatus = "allow"
	DecisionDeny    DecisionStatus = "deny"
	DecisionPending DecisionStatus = "pending"
)

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Status DecisionStatus
	Reason string
	RuleID string
}

// IsAllowed reports whether the action may proceed.
func (d Decision) IsAllowed() bool { return d.Status == DecisionAllow }

// IsDenied reports whether the action is forbidden.
func (d Decision) IsDenied() bool { return d.Status == DecisionDeny }

// IsPending reports whether the action needs approval.
func (d Decision) IsPending() bool { return d.Status == DecisionPending }

// PolicyEngine evaluates actions.
type PolicyEngine interface {
	Evaluate(ctx context.Context, action Action) Decision
}

// Rule is a single policy rule. Name is a glob over action names.
type Rule struct {
	ID     string
	Effect string // allow, deny, pending
	Type   ActionType
	Name   string
	Reason string
}

// RuleSet evaluates rules in order; the first match wins, default allow.
type RuleSet struct {
	Rules   []Rule
	Default Decision
}

// NewRuleSet creates a rule set with a default allow decision.
func NewRuleSet(rules []Rule) *RuleSet {
	return &RuleSet{
		Rules:   append([]Rule(nil), rules...),
		Default: Decision{Status: DecisionAllow},
	}
}

// Evaluate implements PolicyEngine.
func (r *RuleSet) Evaluate(_ context.Context, action Action) Decision {
	for _, rule := range r.Rules {
		if rule.Type != "" && rule.Type != action.Type {
			continue
		}
		if rule.Name != "" && !matchPattern(rule.Name, action.Name) {
			continue
		}
		decision := Decision{Reason: rule.Reason, RuleID: rule.ID}
		switch strings.ToLower(rule.Effect) {
		case "deny":
			decision.Status = DecisionDeny
		case "pending":
			decision.Status = DecisionPending
		default:
			decision.Status = DecisionAllow
		}
		return decision
	}
	return r.Default
}

func matchPattern(pattern, value string) bool {
	if pattern == "" {
		return true
	}
	if ok, err := path.Match(pattern, value); err == nil && ok {
		return true
	}
	return pattern == value
}

var _ PolicyEngine = (*RuleSet)(nil)
