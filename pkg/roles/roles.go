// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

// Package roles assembles the role bank: each role is an agent wired with
// its persona and the action chain it executes.
package roles

import (
	"github.com/maesd-ai/maesd/pkg/actions"
	"github.com/maesd-ai/maesd/pkg/agent"
	"github.com/maesd-ai/maesd/pkg/core"
	"github.com/maesd-ai/maesd/pkg/llm"
	"github.com/maesd-ai/maesd/pkg/tools"
)

// Deps carries the shared dependencies the roles draw on.
type Deps struct {
	Provider llm.Provider
	QuickGO  *tools.QuickGOClient
	Enzyme   *tools.EnzymeClient
	InterPro *tools.InterProClient
	Memory   core.Memory
}

// NewIntentAnalyser analyzes the user's request into candidate design
// intents and translates their biological terms to GO/EC numbers.
func NewIntentAnalyser(d Deps) (*agent.Agent, error) {
	manifest := core.RoleManifest{
		Name:    "IntentAnalyser",
		Profile: "Intent Analysis Expert",
		Goal:    "Analyze user intent and translate to biological terms",
		Actions: []string{"IntentAnalysis", "TranslateTerms"},
	}
	prefix := manifest.SystemPrompt()
	return agent.New("intent-analyser",
		agent.WithManifest(manifest),
		agent.WithMemory(d.Memory),
		agent.WithActions(
			actions.NewIntentAnalysis(d.Provider, prefix),
			actions.NewTranslateTerms(d.Provider, prefix),
		),
	)
}

// NewGOECValidator validates GO and EC numbers against QuickGO and ExPASy.
func NewGOECValidator(d Deps) (*agent.Agent, error) {
	manifest := core.RoleManifest{
		Name:    "GOECValidator",
		Profile: "GO/EC Validation Expert",
		Goal:    "Validate GO and EC terms against their authoritative databases",
		Actions: []string{"GOECSearch"},
	}
	return agent.New("goec-validator",
		agent.WithManifest(manifest),
		agent.WithMemory(d.Memory),
		agent.WithActions(
			actions.NewGOECSearch(d.Provider, manifest.SystemPrompt(), d.QuickGO, d.Enzyme),
		),
	)
}

// NewProAnalysiser reviews validated annotations against the design intent
// and resolves mismatches into a final design suggestion.
func NewProAnalysiser(d Deps) (*agent.Agent, error) {
	manifest := core.RoleManifest{
		Name:    "ProAnalyser",
		Profile: "Protein Design Analyst",
		Goal:    "Analyze protein design intents and generate validation reports",
		Actions: []string{"ProteinAnalysis", "AnalysisReport"},
	}
	prefix := manifest.SystemPrompt()
	return agent.New("pro-analyser",
		agent.WithManifest(manifest),
		agent.WithMemory(d.Memory),
		agent.WithActions(
			actions.NewProteinAnalysis(d.Provider, prefix),
			actions.NewAnalysisReport(d.Provider, prefix),
		),
	)
}

// NewDomainSearcher extracts domain candidates and verifies them against
// InterPro.
func NewDomainSearcher(d Deps) (*agent.Agent, error) {
	manifest := core.RoleManifest{
		Name:    "DomainSearcher",
		Profile: "Protein Domain Expert",
		Goal:    "Identify and verify protein domains referenced by the design",
		Actions: []string{"DomainSearch"},
	}
	return agent.New("domain-searcher",
		agent.WithManifest(manifest),
		agent.WithMemory(d.Memory),
		agent.WithActions(
			actions.NewDomainSearch(d.Provider, manifest.SystemPrompt(), d.InterPro),
		),
	)
}

// NewReportIntegrator merges the specialist role outputs into the final
// design recommendation.
func NewReportIntegrator(d Deps, outputs actions.RoleOutputs) (*agent.Agent, error) {
	manifest := core.RoleManifest{
		Name:    "ReportIntegrator",
		Profile: "Biological Systems Analyst",
		Goal:    "Integrate specialist analyses into one design recommendation",
		Actions: []string{"IntegratedAnalysis"},
	}
	integrated := actions.NewIntegratedAnalysis(d.Provider, manifest.SystemPrompt())
	integrated.Outputs = outputs
	return agent.New("report-integrator",
		agent.WithManifest(manifest),
		agent.WithMemory(d.Memory),
		agent.WithActions(integrated),
	)
}
