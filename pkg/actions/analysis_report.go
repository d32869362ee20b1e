package actions

import (
	"context"

	"github.com/maesd-ai/maesd/pkg/llm"
)

const analysisReportTemplate = `
-----
# System
You are a professional expert in protein design and biological term validation. Your goal is to analyze the input intent list, identify mismatched terms, and provide appropriate actions based on the analysis.

# Input
{content}

# Requirements
1. Analyze each intent in the input to identify mismatched terms.
2. If there are mismatched terms: re-query related terms for each mismatched term, validate the replacements, and update the intent list with the validated terms.
3. If there are no mismatched terms, generate a detailed design suggestion based on the intent and annotations.

# Steps
1. Read the input intent list carefully. An annotation with "match": "N" is a mismatched term.
2. When mismatches exist, propose replacement GO/EC numbers from your knowledge, and output the updated intent list with the replacements marked for validation.
3. When no mismatches exist, generate a professional, complete design suggestion aligned with the initial design intent.

# Format example
Your final output should ALWAYS be in the following format:
{format_example}

# Attention:
1. Ensure the analysis is accurate and thorough.
2. Use professional terminology and knowledge in protein design.
3. Output format carefully referenced "Format example".
-----
`

const analysisReportExample = `
-----
## Intent List
{
    "intent": "intent_1",
    "annotations": [
        {
            "number": "GO:0016787",
            "match": "Y"
        }
    ],
    "design suggestion": "A professional and complete design description combining the intent and validated terms."
}
-----
`

// AnalysisReport resolves mismatched terms or, when the intent survived
// validation intact, produces the final design suggestion the design tools
// run from.
type AnalysisReport struct {
	Base
}

// NewAnalysisReport creates the action.
func NewAnalysisReport(provider llm.Provider, prefix string) *AnalysisReport {
	return &AnalysisReport{Base: NewBase("AnalysisReport", provider, prefix)}
}

// Run implements core.Action.
func (a *AnalysisReport) Run(ctx context.Context, instruction string) (string, error) {
	prompt := render(analysisReportTemplate, map[string]string{
		"content":        instruction,
		"format_example": analysisReportExample,
	})
	content, _, err := a.askSection(ctx, prompt, SectionIntentList)
	if err != nil {
		return "", err
	}
	return content, nil
}
