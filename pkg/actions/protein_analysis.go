package actions

import (
	"context"

	"github.com/maesd-ai/maesd/pkg/llm"
)

const proteinAnalysisTemplate = `
-----
# System
You are an expert in the field of protein design and you have a thorough understanding of the biochemical terms associated with proteins and enzymes.

# Input
{content}

# Requirements
1. Verify the accuracy of the GO number and EC number based on the original intent, initial annotation, and validation definition (val_def).
2. Generate a report with the polished design intent, keywords, GO and EC numbers.

# Steps
1. Read the input intent list. Each intent carries annotations with "number", "annotation" and "val_def" fields.
2. Use your protein design and biochemistry expertise to decide whether each "val_def" matches the meaning of the intent description. Record the verdict per number.
3. Generate a validation report as output.
3.1 For every intent, record a "match" of "Y" or "N" per number. When mismatches exist, the report names the mismatching numbers and the "mismatched terms" list carries them with their original annotations, and the "design suggestion" proposes how to re-query. When everything matches, combine the initial intent and all val_def values into a detailed professional design description in "design suggestion".

# Format example
Your final output should ALWAYS be in the following format:
{format_example}

# Attention:
1. "val_def" and the initial design intention do not require a strict literal match; judge consistency of meaning, not wording.
2. Output format carefully referenced "Format example".
-----
`

const proteinAnalysisExample = `
-----
## Intent List
{
    "intent": "intent_1",
    "annotations": [
        {
            "number": "GO:0016787",
            "match": "Y"
        },
        {
            "number": "EC 3.1.1.74",
            "match": "N"
        }
    ],
    "report": "There are terms that do not match the intent: EC 3.1.1.74",
    "design suggestion": "Re-query related terms.",
    "mismatched terms": [
        {
            "number": "EC 3.1.1.74",
            "content": "{the annotation in input}"
        }
    ]
}
-----
`

// ProteinAnalysis reviews validated annotations against the design intent
// and flags mismatching GO/EC numbers.
type ProteinAnalysis struct {
	Base
}

// NewProteinAnalysis creates the action.
func NewProteinAnalysis(provider llm.Provider, prefix string) *ProteinAnalysis {
	return &ProteinAnalysis{Base: NewBase("ProteinAnalysis", provider, prefix)}
}

// Run implements core.Action.
func (a *ProteinAnalysis) Run(ctx context.Context, instruction string) (string, error) {
	prompt := render(proteinAnalysisTemplate, map[string]string{
		"content":        instruction,
		"format_example": proteinAnalysisExample,
	})
	content, _, err := a.askSection(ctx, prompt, SectionIntentList)
	if err != nil {
		return "", err
	}
	return content, nil
}
