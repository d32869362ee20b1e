package actions

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/maesd-ai/maesd/pkg/errors"
	"github.com/maesd-ai/maesd/pkg/llm"
	"github.com/maesd-ai/maesd/pkg/tools"
)

const goecSearchTemplate = `
-----
# System
You are an expert at organizing EC numbers and GO numbers so they can be verified against their authoritative databases.

# Input
{content}

# Requirements
1. Read the JSON list of intents and their annotations.
2. Keep the "intent", "number" and "annotation" fields exactly as given.
3. GO numbers start with "GO:"; EC numbers start with "EC ". Do not confuse the two.
4. Output one JSON blob per intent with an "intent" key and an "annotations" key, where each annotation keeps its "number" and "annotation" fields.

# Format example
Your final output should ALWAYS be in the following format:
{format_example}

# Attention:
1. Do not invent or drop annotations.
2. Output format carefully referenced "Format example".
-----
`

// GOECSearch validates the GO and EC numbers of each intent against QuickGO
// and ExPASy. The model only normalizes the structure; the val_def fields
// come from the live databases, not from the model.
type GOECSearch struct {
	Base
	QuickGO *tools.QuickGOClient
	Enzyme  *tools.EnzymeClient
}

// NewGOECSearch creates the action with its database clients.
func NewGOECSearch(provider llm.Provider, prefix string, quickgo *tools.QuickGOClient, enzyme *tools.EnzymeClient) *GOECSearch {
	return &GOECSearch{
		Base:    NewBase("GOECSearch", provider, prefix),
		QuickGO: quickgo,
		Enzyme:  enzyme,
	}
}

// Run implements core.Action. The output is the '## Intent List' section
// rebuilt from the validated annotations.
func (a *GOECSearch) Run(ctx context.Context, instruction string) (string, error) {
	prompt := render(goecSearchTemplate, map[string]string{
		"content":        instruction,
		"format_example": intentListExample,
	})
	_, section, err := a.askSection(ctx, prompt, SectionIntentList)
	if err != nil {
		return "", err
	}

	intents := DecodeJSONObjects[IntentAnnotations](section)
	if len(intents) == 0 {
		return "", errors.New(errors.CodeParseError, "no intent annotations in completion", nil).
			WithRecoverable(true)
	}

	for i := range intents {
		for j := range intents[i].Annotations {
			ann := &intents[i].Annotations[j]
			switch {
			case strings.HasPrefix(ann.Number, "GO:"):
				ann.ValDef = a.goDefinition(ctx, ann.Number)
			case strings.HasPrefix(ann.Number, "EC "), tools.ValidateEC(ann.Number):
				ann.ValDef = a.ecAcceptedName(ctx, ann.Number)
			}
		}
	}

	return renderIntentList(intents)
}

// goDefinition resolves a GO identifier to its definition, empty on
// lookup failure so one dead term does not sink the round.
func (a *GOECSearch) goDefinition(ctx context.Context, goID string) string {
	term, err := a.QuickGO.Term(ctx, goID)
	if err != nil {
		a.logger.WarnContext(ctx, "GO lookup failed", "go_id", goID, "error", err)
		return ""
	}
	return term.Definition
}

func (a *GOECSearch) ecAcceptedName(ctx context.Context, ec string) string {
	info, err := a.Enzyme.Info(ctx, ec)
	if err != nil {
		a.logger.WarnContext(ctx, "EC lookup failed", "ec", ec, "error", err)
		return ""
	}
	if info.AcceptedName != "" && info.AcceptedName != "N/A" {
		return info.AcceptedName
	}
	return info.Definition
}

// renderIntentList serializes validated intents back into the sectioned
// format the downstream actions consume.
func renderIntentList(intents []IntentAnnotations) (string, error) {
	var sb strings.Builder
	sb.WriteString("## " + SectionIntentList + "\n")
	for i, intent := range intents {
		blob, err := json.MarshalIndent(intent, "", "    ")
		if err != nil {
			return "", errors.New(errors.CodeInternal, "intent serialization failed", err)
		}
		sb.Write(blob)
		if i < len(intents)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
