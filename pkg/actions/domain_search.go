package actions

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/maesd-ai/maesd/pkg/llm"
	"github.com/maesd-ai/maesd/pkg/tools"
)

const domainSearchTemplate = `
-----
# System
You are an expert at identifying protein domains from natural language descriptions.

# Input
{content}

# Requirements
1. Analyze the natural language description to identify potential protein domains.
2. Extract domain candidates using standard nomenclature (e.g. "Trypsin", "EGF-like").
3. Output the candidates so they can be verified against InterPro.

# Format example
Your final output should ALWAYS be in the following format:
{format_example}

# Attention:
1. Ensure domain names match standard nomenclature.
2. Output format carefully referenced "Format example".
-----
`

const domainSearchExample = `
-----
## Domain Candidates
Trypsin, EGF-like, Kringle
-----
`

// SectionDomainCandidates is the section title the domain extraction emits.
const SectionDomainCandidates = "Domain Candidates"

// SectionDomainReport is the section title of the validated result.
const SectionDomainReport = "Domain Analysis Report"

// DomainSearch extracts domain candidates from the design description and
// verifies each against InterPro.
type DomainSearch struct {
	Base
	InterPro *tools.InterProClient
}

// NewDomainSearch creates the action with its InterPro client.
func NewDomainSearch(provider llm.Provider, prefix string, interpro *tools.InterProClient) *DomainSearch {
	return &DomainSearch{
		Base:     NewBase("DomainSearch", provider, prefix),
		InterPro: interpro,
	}
}

// Run implements core.Action. The output is a '## Domain Analysis Report'
// section listing the validated hits per candidate.
func (a *DomainSearch) Run(ctx context.Context, instruction string) (string, error) {
	prompt := render(domainSearchTemplate, map[string]string{
		"content":        instruction,
		"format_example": domainSearchExample,
	})
	_, section, err := a.askSection(ctx, prompt, SectionDomainCandidates)
	if err != nil {
		return "", err
	}

	type validated struct {
		Candidate string           `json:"candidate"`
		Hits      []tools.DomainHit `json:"hits,omitempty"`
		Error     string           `json:"error,omitempty"`
	}

	var results []validated
	for _, candidate := range strings.Split(section, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		v := validated{Candidate: candidate}
		hits, err := a.InterPro.Search(ctx, candidate)
		if err != nil {
			a.logger.WarnContext(ctx, "interpro lookup failed", "candidate", candidate, "error", err)
			v.Error = err.Error()
		} else {
			if len(hits) > 3 {
				hits = hits[:3]
			}
			v.Hits = hits
		}
		results = append(results, v)
	}

	blob, err := json.MarshalIndent(results, "", "    ")
	if err != nil {
		return "", err
	}
	return "## " + SectionDomainReport + "\n" + string(blob) + "\n", nil
}
