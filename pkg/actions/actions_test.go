// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package actions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maesd-ai/maesd/pkg/llm"
	"github.com/maesd-ai/maesd/pkg/tools"
)

const intentCompletion = `## Intent List

{
    "name": "intent_1",
    "description": "Design a PET-degrading enzyme",
    "terms": "PET hydrolase,thermal stability"
},
{
    "name": "intent_2",
    "description": "Improve catalytic efficiency",
    "terms": "catalytic efficiency"
}
`

func TestIntentAnalysisRun(t *testing.T) {
	provider := &llm.MockProvider{Response: intentCompletion}
	action := NewIntentAnalysis(provider, "You are an analyst.")

	content, err := action.Run(context.Background(), "make an enzyme that eats plastic")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	intents := ParseIntents(content)
	if len(intents) != 2 {
		t.Fatalf("expected 2 intents, got %d", len(intents))
	}
	if intents[0].Name != "intent_1" || !strings.Contains(intents[0].Terms, "PET hydrolase") {
		t.Errorf("unexpected first intent: %+v", intents[0])
	}
}

func TestIntentAnalysisRetriesMalformedCompletion(t *testing.T) {
	provider := &llm.ScriptedProvider{Responses: []string{
		"the model ignored the format entirely",
		intentCompletion,
	}}
	action := NewIntentAnalysis(provider, "")

	content, err := action.Run(context.Background(), "input")
	if err != nil {
		t.Fatalf("run failed after retry: %v", err)
	}
	if provider.Calls() != 2 {
		t.Errorf("expected 2 provider calls, got %d", provider.Calls())
	}
	if len(ParseIntents(content)) != 2 {
		t.Error("retried completion not used")
	}
}

func TestIntentAnalysisFailsWhenFormatNeverFollowed(t *testing.T) {
	provider := &llm.MockProvider{Response: "still no sections"}
	action := NewIntentAnalysis(provider, "")
	if _, err := action.Run(context.Background(), "input"); err == nil {
		t.Error("expected error when completion never includes the section")
	}
}

const goecCompletion = `## Intent List

{
    "intent": "Design a PET-degrading enzyme",
    "annotations": [
        {"number": "GO:0016787", "annotation": "hydrolase activity"},
        {"number": "EC 3.1.1.101", "annotation": "PET hydrolase"}
    ]
}
`

func TestGOECSearchValidatesAgainstDatabases(t *testing.T) {
	quickgoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"id":"GO:0016787","name":"hydrolase activity",
			"definition":{"text":"Catalysis of hydrolysis."}}]}`))
	}))
	defer quickgoSrv.Close()

	expasySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><table class="type-1">
			<tr><th>Accepted Name</th><td>poly(ethylene terephthalate) hydrolase</td></tr>
			</table></body></html>`))
	}))
	defer expasySrv.Close()

	quickgo := tools.NewQuickGOClient()
	quickgo.BaseURL = quickgoSrv.URL
	enzyme := tools.NewEnzymeClient()
	enzyme.ExPASyBase = expasySrv.URL

	provider := &llm.MockProvider{Response: goecCompletion}
	action := NewGOECSearch(provider, "", quickgo, enzyme)

	out, err := action.Run(context.Background(), "annotated intents")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	validated := DecodeJSONObjects[IntentAnnotations](out)
	if len(validated) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(validated))
	}
	anns := validated[0].Annotations
	if len(anns) != 2 {
		t.Fatalf("expected 2 annotations, got %d", len(anns))
	}
	if anns[0].ValDef != "Catalysis of hydrolysis." {
		t.Errorf("GO val_def not filled from QuickGO: %q", anns[0].ValDef)
	}
	if anns[1].ValDef != "poly(ethylene terephthalate) hydrolase" {
		t.Errorf("EC val_def not filled from ExPASy: %q", anns[1].ValDef)
	}
}

func TestGOECSearchToleratesLookupFailures(t *testing.T) {
	downSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer downSrv.Close()

	quickgo := tools.NewQuickGOClient()
	quickgo.BaseURL = downSrv.URL
	enzyme := tools.NewEnzymeClient()
	enzyme.ExPASyBase = downSrv.URL

	provider := &llm.MockProvider{Response: goecCompletion}
	action := NewGOECSearch(provider, "", quickgo, enzyme)

	out, err := action.Run(context.Background(), "annotated intents")
	if err != nil {
		t.Fatalf("dead databases should not fail the action: %v", err)
	}
	validated := DecodeJSONObjects[IntentAnnotations](out)
	if len(validated) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(validated))
	}
	for _, ann := range validated[0].Annotations {
		if ann.ValDef != "" {
			t.Errorf("val_def should stay empty on lookup failure: %+v", ann)
		}
	}
}

func TestIntegratedAnalysisMergesContextOutputs(t *testing.T) {
	var prompt string
	provider := &llm.MockProvider{ChatFunc: func(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
		prompt = req.Messages[len(req.Messages)-1].Content
		return &llm.ChatResponse{Content: "## Integrated Analysis Report\n\n{\"design_plan\": \"unified plan\"}\n"}, nil
	}}
	action := NewIntegratedAnalysis(provider, "")

	ctx := WithRoleOutputs(context.Background(), RoleOutputs{
		GOECValidator:  "validated annotations",
		IntentAnalyser: "intent list",
		ProAnalysiser:  "property analysis",
		TermTranslator: "translated terms",
	})
	out, err := action.Run(ctx, "chained output")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, slot := range []string{"validated annotations", "intent list", "property analysis", "translated terms"} {
		if !strings.Contains(prompt, slot) {
			t.Errorf("prompt missing role output %q", slot)
		}
	}
	if !strings.Contains(out, "unified plan") {
		t.Errorf("unexpected report: %q", out)
	}
}

func TestIntegratedAnalysisExplicitOutputsWin(t *testing.T) {
	var prompt string
	provider := &llm.MockProvider{ChatFunc: func(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
		prompt = req.Messages[len(req.Messages)-1].Content
		return &llm.ChatResponse{Content: "## Integrated Analysis Report\n\nok\n"}, nil
	}}
	action := NewIntegratedAnalysis(provider, "")
	action.Outputs = RoleOutputs{GOECValidator: "pinned validation"}

	ctx := WithRoleOutputs(context.Background(), RoleOutputs{
		GOECValidator:  "context validation",
		IntentAnalyser: "context intents",
	})
	if _, err := action.Run(ctx, "chained output"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(prompt, "pinned validation") || strings.Contains(prompt, "context validation") {
		t.Error("explicit output should win over the context value")
	}
	if !strings.Contains(prompt, "context intents") {
		t.Error("context should fill slots left empty")
	}
}

func TestHasMismatch(t *testing.T) {
	ia := IntentAnnotations{Annotations: []Annotation{{Number: "GO:1", Match: "Y"}}}
	if ia.HasMismatch() {
		t.Error("all-Y should not report mismatch")
	}
	ia.Annotations = append(ia.Annotations, Annotation{Number: "GO:2", Match: "N"})
	if !ia.HasMismatch() {
		t.Error("N match should report mismatch")
	}
}

func TestRender(t *testing.T) {
	out := render("a {x} and {y}", map[string]string{"x": "one", "y": "two"})
	if out != "a one and two" {
		t.Errorf("unexpected render: %q", out)
	}
}
