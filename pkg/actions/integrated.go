package actions

import (
	"context"

	"github.com/maesd-ai/maesd/pkg/llm"
)

const integratedTemplate = `
-----
# System
You are an expert biological systems analyst. Your task is to integrate and analyze inputs from multiple specialized agents to produce comprehensive protein design recommendations.

# Input Sources
1. GO/EC Validator: {goec_validator_output}
2. Intent Analyzer: {intent_analyser_output}
3. Protein Property Analyzer: {pro_analysiser_output}
4. Terminology Translator: {term_translator_output}

# Requirements
1. Cross-validate all inputs for consistency and accuracy.
2. Identify any discrepancies between different agent outputs.
3. Resolve conflicts by determining the most reliable source, consulting domain knowledge, and flagging unresolved issues for human review.
4. Generate unified recommendations incorporating validated GO/EC terms, design intent specifications, protein property analyses, and standardized terminology.

# Steps
1. Compare GO/EC validation results with the intent analysis.
2. Verify the property analysis aligns with the validated terms.
3. Resolve conflicts through priority rules: validated terms over unverified terms, domain consensus over individual annotations.
4. Generate a final output containing the unified validated terms, a conflict resolution report, a design implementation plan, and open questions requiring further research.

# Output Format
{format_example}

# Attention:
1. Maintain traceability to all source inputs.
2. Document all conflict resolution decisions.
3. Provide scientific justification for recommendations.
-----
`

const integratedExample = `
-----
## Integrated Analysis Report
{
    "validated_components": {
        "go_terms": ["GO:0016787"],
        "ec_numbers": ["EC 3.1.1.74"]
    },
    "conflict_resolution": "How discrepancies were resolved.",
    "design_plan": "The unified design recommendation.",
    "open_questions": ["Anything requiring further research."]
}
-----
`

// SectionIntegratedReport is the section title of the merged result.
const SectionIntegratedReport = "Integrated Analysis Report"

// RoleOutputs carries the per-role results the integration step merges.
type RoleOutputs struct {
	GOECValidator  string
	IntentAnalyser string
	ProAnalysiser  string
	TermTranslator string
}

// fillFrom fills empty slots from other; slots already set win.
func (o RoleOutputs) fillFrom(other RoleOutputs) RoleOutputs {
	if o.GOECValidator == "" {
		o.GOECValidator = other.GOECValidator
	}
	if o.IntentAnalyser == "" {
		o.IntentAnalyser = other.IntentAnalyser
	}
	if o.ProAnalysiser == "" {
		o.ProAnalysiser = other.ProAnalysiser
	}
	if o.TermTranslator == "" {
		o.TermTranslator = other.TermTranslator
	}
	return o
}

type roleOutputsKey struct{}

// WithRoleOutputs attaches the role outputs collected so far, so the
// integration step sees every specialist result, not just the chained
// previous output.
func WithRoleOutputs(ctx context.Context, outputs RoleOutputs) context.Context {
	return context.WithValue(ctx, roleOutputsKey{}, outputs)
}

// RoleOutputsFromContext returns the attached role outputs, if any.
func RoleOutputsFromContext(ctx context.Context) (RoleOutputs, bool) {
	out, ok := ctx.Value(roleOutputsKey{}).(RoleOutputs)
	return out, ok
}

// IntegratedAnalysis merges the outputs of the specialist roles into one
// design recommendation.
type IntegratedAnalysis struct {
	Base
	Outputs RoleOutputs
}

// NewIntegratedAnalysis creates the action.
func NewIntegratedAnalysis(provider llm.Provider, prefix string) *IntegratedAnalysis {
	return &IntegratedAnalysis{Base: NewBase("IntegratedAnalysis", provider, prefix)}
}

// Run implements core.Action. Explicit Outputs win, then outputs carried on
// the context, then the instruction fills the analysis slot.
func (a *IntegratedAnalysis) Run(ctx context.Context, instruction string) (string, error) {
	outputs := a.Outputs
	if fromCtx, ok := RoleOutputsFromContext(ctx); ok {
		outputs = outputs.fillFrom(fromCtx)
	}
	if outputs.ProAnalysiser == "" {
		outputs.ProAnalysiser = instruction
	}
	prompt := render(integratedTemplate, map[string]string{
		"goec_validator_output":  outputs.GOECValidator,
		"intent_analyser_output": outputs.IntentAnalyser,
		"pro_analysiser_output":  outputs.ProAnalysiser,
		"term_translator_output": outputs.TermTranslator,
		"format_example":         integratedExample,
	})
	content, _, err := a.askSection(ctx, prompt, SectionIntegratedReport)
	if err != nil {
		return "", err
	}
	return content, nil
}
