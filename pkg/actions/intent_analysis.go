package actions

import (
	"context"

	"github.com/maesd-ai/maesd/pkg/llm"
)

const intentAnalysisTemplate = `
-----
# System
You are a professional protein design intent analysis expert and your goal is to analyze the intent of input text according to the following steps.

# User input
{content}

# Requirements:
1. Analyze the given text about protein design to understand its core intent.
2. Use divergent thinking to extract multiple potential focus areas based on the core intent.

# Step
By following these steps, you will be able to parse the intent of any protein design text:
1. Read, analyze, and understand this text carefully. Summarize its core ideas or intentions, call it the core intent.
2. Understand, analyze, and break down the possible design goals of this text from a professional perspective, for example optimization of thermal stability, activity in acidic/alkaline/high salt environments, realization of specific functions, or reaction efficiency.
2.1 Convert different angles into possible design intentions and keep three or fewer intentions that are closest to the original text.
2.2 Transform colloquial content into specialized biological terms.
3. Denote the complete design intention texts as intent_1, intent_2 and intent_3, with their biological terms.
3.1 Output each intent and its terms as a JSON blob with a "name" key (e.g. intent_1), a "description" key (the content of the intent), and a "terms" key (comma-separated biological terms). Each JSON blob contains exactly one design intent:
{
    "name": "Intent Number",
    "description": "Intent Content",
    "terms": "term_1,term_2,term_3"
}
3.2 Intents and terms must correspond strictly; terms absent from the intent content are not allowed.

# Format example
Your final output should ALWAYS be in the following format:
{format_example}

# Suggestions
{suggestions}

# Attention:
1. Ensure the analysis captures the core intent accurately.
2. Maintain divergent thinking to explore various possible focus areas.
3. Use '##' to SPLIT SECTIONS, not '#'. Output format carefully referenced "Format example".
-----
`

const intentListExample = `
---
## Intent List

JSON BLOB 1,
JSON BLOB 2,
JSON BLOB 3

---
`

// SectionIntentList is the section title the intent-bearing actions emit.
const SectionIntentList = "Intent List"

// IntentAnalysis extracts up to three candidate design intents with their
// biological terms from free-form user input.
type IntentAnalysis struct {
	Base
	Suggestions string
}

// NewIntentAnalysis creates the action.
func NewIntentAnalysis(provider llm.Provider, prefix string) *IntentAnalysis {
	return &IntentAnalysis{Base: NewBase("IntentAnalysis", provider, prefix)}
}

// Run implements core.Action. The returned content keeps the full sectioned
// completion so downstream actions can re-parse it.
func (a *IntentAnalysis) Run(ctx context.Context, instruction string) (string, error) {
	prompt := render(intentAnalysisTemplate, map[string]string{
		"content":        instruction,
		"format_example": intentListExample,
		"suggestions":    a.Suggestions,
	})
	content, _, err := a.askSection(ctx, prompt, SectionIntentList)
	if err != nil {
		return "", err
	}
	return content, nil
}

// ParseIntents pulls the intent blobs out of a completion.
func ParseIntents(content string) []Intent {
	section, err := Section(content, SectionIntentList)
	if err != nil {
		section = content
	}
	return DecodeJSONObjects[Intent](section)
}
