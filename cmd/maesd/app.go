// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/maesd-ai/maesd/pkg/actions"
	"github.com/maesd-ai/maesd/pkg/config"
	"github.com/maesd-ai/maesd/pkg/core"
	"github.com/maesd-ai/maesd/pkg/governance"
	"github.com/maesd-ai/maesd/pkg/llm"
	"github.com/maesd-ai/maesd/pkg/memory"
	"github.com/maesd-ai/maesd/pkg/memory/qdrant"
	"github.com/maesd-ai/maesd/pkg/planner"
	"github.com/maesd-ai/maesd/pkg/roles"
	"github.com/maesd-ai/maesd/pkg/telemetry"
	"github.com/maesd-ai/maesd/pkg/tools"
	"github.com/maesd-ai/maesd/providers/anthropic"
	"github.com/maesd-ai/maesd/providers/deepseek"
	"github.com/maesd-ai/maesd/providers/openai"
)

const embeddingVectorSize = 1536 // text-embedding-3-small

// app holds everything a command needs once the config is loaded.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider llm.Provider
	tracker  *llm.CostTracker
	metrics  *telemetry.PipelineMetrics
	registry *tools.Registry
	memory   core.Memory
	roles    map[string]core.Agent
}

// newApp assembles the provider chain, the tool registry, the memory stack
// and the role bank from configuration.
func newApp(cfg *config.Config) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format),
	}

	metrics, err := telemetry.NewPipelineMetrics()
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	a.metrics = metrics

	provider, err := a.buildProvider()
	if err != nil {
		return nil, err
	}
	a.provider = provider

	mem, err := a.buildMemory()
	if err != nil {
		return nil, err
	}
	a.memory = mem

	a.registry = a.buildRegistry()

	bank, err := a.buildRoles()
	if err != nil {
		return nil, err
	}
	a.roles = bank
	return a, nil
}

// buildProvider picks the base provider from the configured credentials and
// decorates it with rate limiting and budget accounting.
func (a *app) buildProvider() (llm.Provider, error) {
	cfg := a.cfg
	var base llm.Provider
	var name, model string

	switch cfg.DefaultProvider() {
	case "openai":
		opts := []openai.Option{
			openai.WithAPIKey(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.OpenAIAPIModel),
			openai.WithMaxTokens(cfg.MaxTokens),
		}
		if cfg.OpenAIAPIBase != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIAPIBase))
		}
		base = openai.New(opts...)
		name, model = "openai", cfg.OpenAIAPIModel
	case "deepseek":
		base = deepseek.New(deepseek.Config{
			APIKey:    cfg.DeepSeekAPIKey,
			BaseURL:   cfg.DeepSeekAPIBase,
			Model:     cfg.DeepSeekModel,
			MaxTokens: cfg.MaxTokens,
		})
		name, model = "deepseek", cfg.DeepSeekModel
	case "anthropic":
		base = anthropic.New(
			anthropic.WithAPIKey(cfg.AnthropicAPIKey),
			anthropic.WithMaxTokens(cfg.MaxTokens),
		)
		name, model = "anthropic", "claude"
	default:
		return nil, fmt.Errorf("no LLM credentials configured; set OPENAI_API_KEY, DEEPSEEK_API_KEY or ANTHROPIC_API_KEY")
	}

	a.tracker = llm.NewCostTracker(cfg.MaxBudget)
	budgeted := llm.NewBudgetedProvider(base, a.tracker, name, model, a.metrics.RecordUsage)
	return llm.NewRateLimitedProvider(budgeted, cfg.RPM), nil
}

// buildMemory wires the run memory: always the in-process store, plus SQLite
// and the Qdrant semantic index when long-term memory is enabled.
func (a *app) buildMemory() (core.Memory, error) {
	primary := memory.NewInMemory()
	if !a.cfg.LongTermMemory {
		return primary, nil
	}

	var extra []core.Memory
	if path := a.cfg.Memory.SQLitePath; path != "" {
		store, err := memory.NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite memory: %w", err)
		}
		extra = append(extra, store)
	}
	if addr := a.cfg.Memory.QdrantAddr; addr != "" && a.cfg.OpenAIAPIKey != "" {
		store, err := qdrant.New(addr)
		if err != nil {
			a.logger.Warn("qdrant unavailable, semantic memory disabled", "addr", addr, "error", err)
		} else {
			embedder := memory.NewOpenAIEmbedder(a.cfg.OpenAIAPIKey, a.cfg.Memory.EmbedderModel)
			extra = append(extra, memory.NewSemantic(store, embedder, a.cfg.Memory.Collection, embeddingVectorSize))
		}
	}
	if len(extra) == 0 {
		return primary, nil
	}
	return memory.NewTee(primary, extra...), nil
}

func (a *app) buildRegistry() *tools.Registry {
	reg := tools.NewRegistry()

	quickgo := tools.NewQuickGOClient()
	for _, t := range tools.QuickGOTools(quickgo) {
		_ = reg.Register(t)
	}
	enzyme := tools.NewEnzymeClient()
	for _, t := range tools.EnzymeTools(enzyme) {
		_ = reg.Register(t)
	}
	_ = reg.Register(tools.InterProTool(tools.NewInterProClient()))
	_ = reg.Register(tools.ScreenTool())

	tc := a.cfg.Tools
	if tc.ProteinMPNNScript != "" {
		_ = reg.Register(tools.ProteinMPNNTool(&tools.ProteinMPNNRunner{
			Script:  tc.ProteinMPNNScript,
			UseGPU:  tc.UseGPU,
			Timeout: tc.RunTimeout,
			Logger:  a.logger,
		}))
	}
	if tc.ProGen2Script != "" {
		_ = reg.Register(tools.ProGen2Tool(&tools.ProGen2Runner{
			Script:  tc.ProGen2Script,
			Timeout: tc.RunTimeout,
			Logger:  a.logger,
		}))
	}
	if tc.AlphaFoldDataDir != "" {
		_ = reg.Register(tools.AlphaFoldTool(&tools.AlphaFoldRunner{
			Image:   tc.AlphaFoldImage,
			DataDir: tc.AlphaFoldDataDir,
			UseGPU:  tc.UseGPU,
			Timeout: tc.RunTimeout,
			Logger:  a.logger,
		}))
	}
	return reg
}

func (a *app) buildRoles() (map[string]core.Agent, error) {
	deps := roles.Deps{
		Provider: a.provider,
		QuickGO:  tools.NewQuickGOClient(),
		Enzyme:   tools.NewEnzymeClient(),
		InterPro: tools.NewInterProClient(),
		Memory:   a.memory,
	}

	bank := make(map[string]core.Agent)
	builders := map[string]func(roles.Deps) (core.Agent, error){
		"IntentAnalyser": func(d roles.Deps) (core.Agent, error) { return roles.NewIntentAnalyser(d) },
		"GOECValidator":  func(d roles.Deps) (core.Agent, error) { return roles.NewGOECValidator(d) },
		"ProAnalyser":    func(d roles.Deps) (core.Agent, error) { return roles.NewProAnalysiser(d) },
		"DomainSearcher": func(d roles.Deps) (core.Agent, error) { return roles.NewDomainSearcher(d) },
		"ReportIntegrator": func(d roles.Deps) (core.Agent, error) {
			return roles.NewReportIntegrator(d, actions.RoleOutputs{})
		},
	}
	for name, build := range builders {
		role, err := build(deps)
		if err != nil {
			return nil, fmt.Errorf("build role %s: %w", name, err)
		}
		bank[name] = role
	}
	return bank, nil
}

// buildPipeline configures the design pipeline for one run.
func (a *app) buildPipeline(templatePDB string, resID int) *planner.Pipeline {
	tc := a.cfg.Tools
	p := &planner.Pipeline{
		Roles:    a.roles,
		Registry: a.registry,
		Policy:   governance.NewBudgetPolicy(a.tracker, nil),
		Loop: planner.LoopConfig{
			MaxRounds:   a.cfg.Pipeline.MaxRounds,
			NumSeqs:     a.cfg.Pipeline.NumSeqs,
			Temperature: a.cfg.Pipeline.Temperature,
			ScreenResID: resID,
		},
		Metrics:     a.metrics,
		Logger:      a.logger,
		TemplatePDB: templatePDB,
		WorkDir:     tc.WorkDir,
	}
	if templatePDB != "" {
		p.MPNN = &tools.ProteinMPNNRunner{
			Script:  tc.ProteinMPNNScript,
			UseGPU:  tc.UseGPU,
			Timeout: tc.RunTimeout,
			Logger:  a.logger,
		}
		if tc.AlphaFoldDataDir != "" {
			p.AlphaFold = &tools.AlphaFoldRunner{
				Image:   tc.AlphaFoldImage,
				DataDir: tc.AlphaFoldDataDir,
				UseGPU:  tc.UseGPU,
				Timeout: tc.RunTimeout,
				Logger:  a.logger,
			}
		}
	}
	return p
}

func (a *app) close(ctx context.Context) {
	if closer, ok := a.memory.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.logger.WarnContext(ctx, "memory close failed", "error", err)
		}
	}
}
