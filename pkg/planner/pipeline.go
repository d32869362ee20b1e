// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/maesd-ai/maesd/pkg/actions"
	"github.com/maesd-ai/maesd/pkg/core"
	"github.com/maesd-ai/maesd/pkg/errors"
	"github.com/maesd-ai/maesd/pkg/fasta"
	"github.com/maesd-ai/maesd/pkg/governance"
	"github.com/maesd-ai/maesd/pkg/screen"
	"github.com/maesd-ai/maesd/pkg/telemetry"
	"github.com/maesd-ai/maesd/pkg/tools"
)

// LoopConfig parameterizes the evolutionary design loop.
type LoopConfig struct {
	MaxRounds   int     // default 3
	NumSeqs     int     // sequences per design round, default 10
	Temperature float64 // initial sampling temperature, default 0.1
	// TargetSMR stops the loop early once a design reaches it (0 disables).
	TargetSMR float64
	// ScreenResID is the residue whose microenvironment is compared.
	ScreenResID int
	// ScreenRadius in Ångström; 0 uses the screening default.
	ScreenRadius float64
}

// Candidate is one designed sequence with its evaluation.
type Candidate struct {
	Record   fasta.Record   `json:"record"`
	Round    int            `json:"round"`
	ModelPDB string         `json:"model_pdb,omitempty"`
	Screen   *screen.Result `json:"screen,omitempty"`
}

// Result is the outcome of a full pipeline run.
type Result struct {
	RunID      string      `json:"run_id"`
	Report     string      `json:"report"`
	Candidates []Candidate `json:"candidates,omitempty"`
	Best       *Candidate  `json:"best,omitempty"`
	Rounds     int         `json:"rounds"`
}

// Pipeline wires the role bank, the design tools and the screening into the
// full analyze-design-fold-screen flow.
type Pipeline struct {
	Roles     map[string]core.Agent
	Registry  *tools.Registry
	MPNN      *tools.ProteinMPNNRunner
	AlphaFold *tools.AlphaFoldRunner
	Loop      LoopConfig
	Policy    governance.PolicyEngine
	Metrics   *telemetry.PipelineMetrics
	Logger    *slog.Logger

	// TemplatePDB is the natural backbone designs start from and are
	// screened against. Empty skips the design loop; the run is
	// analysis-only.
	TemplatePDB string
	WorkDir     string
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p *Pipeline) loop() LoopConfig {
	lc := p.Loop
	if lc.MaxRounds <= 0 {
		lc.MaxRounds = 3
	}
	if lc.NumSeqs <= 0 {
		lc.NumSeqs = 10
	}
	if lc.Temperature <= 0 {
		lc.Temperature = 0.1
	}
	return lc
}

// Run executes the analysis roles in order and, when a template backbone is
// configured, the evolutionary design loop.
func (p *Pipeline) Run(ctx context.Context, input string) (*Result, error) {
	ctx, runID := core.EnsureRunID(ctx)
	log := p.logger()
	log.InfoContext(ctx, "pipeline run starting", "run_id", runID)

	report, err := p.runAnalysis(ctx, input)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: runID, Report: report}
	if p.TemplatePDB == "" {
		log.InfoContext(ctx, "no template backbone configured, analysis-only run", "run_id", runID)
		return result, nil
	}

	if err := p.runDesignLoop(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// analysis chain: intent extraction, GO/EC validation, design review,
// integration. Roles missing from the bank are skipped so partial
// deployments still produce a report.
var analysisOrder = []string{"IntentAnalyser", "GOECValidator", "ProAnalyser", "DomainSearcher", "ReportIntegrator"}

func (p *Pipeline) runAnalysis(ctx context.Context, input string) (string, error) {
	content := input
	collected := make(map[string]string)
	for _, name := range analysisOrder {
		role, ok := p.Roles[name]
		if !ok {
			continue
		}
		if err := p.checkRolePolicy(ctx, name); err != nil {
			return "", err
		}
		out, err := role.Run(actions.WithRoleOutputs(ctx, roleOutputsFrom(collected)), content)
		if err != nil {
			return "", fmt.Errorf("role %s: %w", name, err)
		}
		s, ok := out.(string)
		if !ok {
			return "", fmt.Errorf("role %s returned %T, want string", name, out)
		}
		collected[name] = s
		content = s
	}
	if content == input {
		return "", errors.New(errors.CodeInternal, "no analysis roles configured", nil)
	}
	return content, nil
}

// checkRolePolicy gates a role run; roles spend LLM tokens, so the LLM gate
// applies alongside the role gate.
func (p *Pipeline) checkRolePolicy(ctx context.Context, name string) error {
	if p.Policy == nil {
		return nil
	}
	for _, action := range []governance.Action{
		{Type: governance.ActionRole, Name: name},
		{Type: governance.ActionLLM, Name: name},
	} {
		decision := p.Policy.Evaluate(ctx, action)
		if decision.IsDenied() {
			return fmt.Errorf("role %s denied by policy %s: %s", name, decision.RuleID, decision.Reason)
		}
		if decision.IsPending() {
			return fmt.Errorf("role %s requires approval (%s)", name, decision.Reason)
		}
	}
	return nil
}

// roleOutputsFrom maps collected role results onto the integration slots.
// Term translation runs inside the intent role's chain, so its slot carries
// that role's final output.
func roleOutputsFrom(collected map[string]string) actions.RoleOutputs {
	return actions.RoleOutputs{
		IntentAnalyser: collected["IntentAnalyser"],
		GOECValidator:  collected["GOECValidator"],
		ProAnalysiser:  collected["ProAnalyser"],
		TermTranslator: collected["IntentAnalyser"],
	}
}

func (p *Pipeline) runDesignLoop(ctx context.Context, result *Result) error {
	lc := p.loop()
	log := p.logger()

	temperature := lc.Temperature
	for round := 1; round <= lc.MaxRounds; round++ {
		p.Metrics.RecordRound(ctx, round)
		log.InfoContext(ctx, "design round starting",
			"round", round, "temperature", temperature, "num_seqs", lc.NumSeqs)

		candidates, err := p.designRound(ctx, round, temperature, lc)
		if err != nil {
			return err
		}
		result.Candidates = append(result.Candidates, candidates...)
		result.Rounds = round

		for i := range candidates {
			c := &candidates[i]
			if result.Best == nil || betterCandidate(c, result.Best) {
				best := *c
				result.Best = &best
			}
		}
		if result.Best != nil && lc.TargetSMR > 0 &&
			result.Best.Screen != nil && result.Best.Screen.SMR >= lc.TargetSMR {
			log.InfoContext(ctx, "target SMR reached, stopping early",
				"round", round, "smr", result.Best.Screen.SMR)
			break
		}

		// Widen the sampling distribution each round so later rounds
		// explore further from the template.
		temperature *= 2
	}
	return nil
}

func (p *Pipeline) designRound(ctx context.Context, round int, temperature float64, lc LoopConfig) ([]Candidate, error) {
	outDir := ""
	if p.WorkDir != "" {
		outDir = filepath.Join(p.WorkDir, fmt.Sprintf("round_%d", round))
	}

	start := time.Now()
	records, err := p.MPNN.Design(ctx, tools.DesignRequest{
		PDBPath:     p.TemplatePDB,
		NumSeqs:     lc.NumSeqs,
		Temperature: temperature,
		OutputDir:   outDir,
	})
	p.Metrics.RecordToolRun(ctx, "proteinmpnn", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, rec := range tools.Designs(records) {
		annotateRound(&rec, round, temperature)
		c := Candidate{Record: rec, Round: round}
		p.evaluate(ctx, &c)
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return nil, errors.New(errors.CodeToolFailure, "design round produced no candidates", nil).
			WithContext("round", round)
	}
	return candidates, nil
}

// evaluate folds a candidate and screens it against the template. Fold or
// screen failures degrade the candidate instead of aborting the round.
func (p *Pipeline) evaluate(ctx context.Context, c *Candidate) {
	log := p.logger()
	if p.AlphaFold == nil {
		return
	}

	foldDir := ""
	if p.WorkDir != "" {
		sample := c.Record.Meta["sample"]
		foldDir = filepath.Join(p.WorkDir, fmt.Sprintf("fold_r%d_s%s", c.Round, sample))
	}

	start := time.Now()
	pdbPath, err := p.AlphaFold.Predict(ctx, c.Record.Sequence, foldDir)
	p.Metrics.RecordToolRun(ctx, "alphafold", time.Since(start), err)
	if err != nil {
		log.WarnContext(ctx, "fold failed, candidate kept unscreened",
			"round", c.Round, "error", err)
		return
	}
	c.ModelPDB = pdbPath

	if p.Loop.ScreenResID == 0 {
		return
	}
	res, err := screen.Compare(pdbPath, p.TemplatePDB, p.Loop.ScreenResID, p.Loop.ScreenRadius)
	if err != nil {
		log.WarnContext(ctx, "screen failed", "round", c.Round, "error", err)
		return
	}
	c.Screen = res
	c.Record.Meta["smr"] = strconv.FormatFloat(res.SMR, 'f', 4, 64)
}

// betterCandidate prefers higher SMR, then lower design score. Unscreened
// candidates lose to screened ones.
func betterCandidate(a, b *Candidate) bool {
	switch {
	case a.Screen != nil && b.Screen == nil:
		return true
	case a.Screen == nil && b.Screen != nil:
		return false
	case a.Screen != nil && b.Screen != nil && a.Screen.SMR != b.Screen.SMR:
		return a.Screen.SMR > b.Screen.SMR
	default:
		return a.Record.Score() < b.Record.Score()
	}
}

func annotateRound(rec *fasta.Record, round int, temperature float64) {
	if rec.Meta == nil {
		rec.Meta = make(map[string]string)
	}
	rec.Meta["loop"] = strconv.Itoa(round)
	rec.Meta["model_name"] = "proteinmpnn"
	if _, ok := rec.Meta["T"]; !ok {
		rec.Meta["T"] = strconv.FormatFloat(temperature, 'g', -1, 64)
	}
}

// WriteOutput renders the run result as an annotated FASTA file. The best
// candidate leads, the rest follow in round order.
func (r *Result) WriteOutput(path string) error {
	var records []fasta.Record
	if r.Best != nil {
		best := r.Best.Record
		if best.ID == "" {
			best.ID = "best"
		}
		records = append(records, best)
	}
	for _, c := range r.Candidates {
		if r.Best != nil && c.Record.ID == r.Best.Record.ID &&
			c.Record.Meta["sample"] == r.Best.Record.Meta["sample"] &&
			c.Round == r.Best.Round {
			continue
		}
		records = append(records, c.Record)
	}
	if len(records) == 0 {
		return errors.New(errors.CodeInternal, "run produced no sequence records", nil)
	}
	return fasta.WriteFile(path, records)
}
