package actions

import (
	"context"

	"github.com/maesd-ai/maesd/pkg/llm"
)

const translateTermsTemplate = `
-----
# System
You are a professional expert in Gene Ontology (GO) and Enzyme Commission (EC) Number knowledge. Your goal is to analyze the input text and map the provided biological terms to relevant GO or EC numbers, ensuring the output is organized by intent and includes accurate annotations.

# Input
{content}

# Requirements
1. Analyze the given text to understand its core intent and the associated biological terms.
2. Map each biological term to relevant GO or EC numbers based on their biological or enzymatic functions.
3. Provide concise and accurate annotations for each GO or EC number.
4. Group the results by intent and maintain clear distinctions between different intents.

# Steps
1. Identify the core intent and the associated biological terms.
2. For each intent, map the biological terms to relevant GO or EC numbers and annotate each one.
3. Output the results in JSON format, one JSON blob per intent. Each blob has an "intent" key (the intent number) and an "annotations" key holding objects with a "number" key (GO or EC number) and an "annotation" key (the explanation). GO numbers start with "GO:", EC numbers start with "EC ". Example:
{
    "intent": "intent_1",
    "annotations": [
        {
            "number": "GO:0016787",
            "annotation": "Hydrolase activity; involved in the hydrolysis of plastic polymers."
        },
        {
            "number": "EC 3.1.1.74",
            "annotation": "Poly(ethylene terephthalate) hydrolase (PETase); catalyzes the degradation of PET plastic."
        }
    ]
}

# Format example
Your final output should ALWAYS be in the following format:
{format_example}

# Suggestions
{suggestions}

# Attention:
1. Map terms only to relevant GO or EC numbers and keep intents separated.
2. Use '##' to SPLIT SECTIONS, not '#'. Output format carefully referenced "Format example".
-----
`

// TranslateTerms maps the biological terms of each intent onto annotated GO
// and EC numbers.
type TranslateTerms struct {
	Base
	Suggestions string
}

// NewTranslateTerms creates the action.
func NewTranslateTerms(provider llm.Provider, prefix string) *TranslateTerms {
	return &TranslateTerms{Base: NewBase("TranslateTerms", provider, prefix)}
}

// Run implements core.Action.
func (a *TranslateTerms) Run(ctx context.Context, instruction string) (string, error) {
	prompt := render(translateTermsTemplate, map[string]string{
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

// ParseIntentAnnotations pulls the annotated intent blobs out of a
// completion.
func ParseIntentAnnotations(content string) []IntentAnnotations {
	section, err := Section(content, SectionIntentList)
	if err != nil {
		section = content
	}
	return DecodeJSONObjects[IntentAnnotations](section)
}
