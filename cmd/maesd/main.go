// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/maesd-ai/maesd/pkg/config"
	maesdmcp "github.com/maesd-ai/maesd/pkg/mcp"
	"github.com/maesd-ai/maesd/pkg/planner"
	"github.com/maesd-ai/maesd/pkg/telemetry"
)

var version = "dev"

// DefaultConfigPath is used when neither --config nor MAESD_CONFIG names a
// file and it exists relative to the working directory.
const DefaultConfigPath = "config/config.yaml"

type globalFlags struct {
	ConfigPath string
	Sets       []string
	JSON       bool
	Help       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(err)
	}
	if global.Help || len(args) == 0 {
		printUsage()
		return
	}

	cfg, err := config.Load(resolveConfigPath(global.ConfigPath), global.Sets)
	if err != nil {
		fatal(err)
	}

	switch args[0] {
	case "run":
		runPipeline(ctx, global, cfg, args[1:])
	case "validate":
		runValidate(global, cfg)
	case "tools":
		runTools(ctx, global, cfg, args[1:])
	case "mcp":
		runMCPServe(global, cfg, args[1:])
	case "version":
		fmt.Println(version)
	case "help":
		printUsage()
	default:
		fatal(fmt.Errorf("unknown command %q", args[0]))
	}
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	var flags globalFlags
	flags.ConfigPath = getenv("MAESD_CONFIG", "")

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return flags, args[i+1:], nil
		}
		if !strings.HasPrefix(arg, "-") {
			return flags, args[i:], nil
		}
		switch {
		case arg == "-h" || arg == "--help":
			flags.Help = true
			return flags, nil, nil
		case arg == "--json":
			flags.JSON = true
		case arg == "--config":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --config")
			}
			flags.ConfigPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			flags.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--set":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --set")
			}
			flags.Sets = append(flags.Sets, args[i+1])
			i++
		case strings.HasPrefix(arg, "--set="):
			flags.Sets = append(flags.Sets, strings.TrimPrefix(arg, "--set="))
		default:
			return flags, nil, fmt.Errorf("unknown global flag %q", arg)
		}
	}
	return flags, nil, nil
}

// resolveConfigPath falls back to DefaultConfigPath when no config was
// named and the default file exists.
func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return DefaultConfigPath
	}
	return ""
}

func runPipeline(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	cmd := flag.NewFlagSet("run", flag.ContinueOnError)
	input := cmd.String("input", "", "Design request in natural language")
	output := cmd.String("output", "", "Write designed sequences to this FASTA file")
	template := cmd.String("template", "", "Natural backbone PDB to design against")
	resID := cmd.Int("resid", 0, "Residue whose microenvironment is screened")
	var pipelinePath string
	cmd.StringVar(&pipelinePath, "pipeline", "", "Custom pipeline graph YAML")
	cmd.StringVar(&pipelinePath, "graph", "", "Alias for --pipeline")
	dryRun := cmd.Bool("dry-run", false, "Print the resolved plan without running anything")
	timeout := cmd.Duration("timeout", 0, "Overall run timeout (0 = none)")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}

	var graph *planner.Graph
	if pipelinePath != "" {
		var err error
		graph, err = planner.LoadGraph(pipelinePath)
		if err != nil {
			fatal(err)
		}
	}

	if *dryRun {
		if graph == nil {
			graph = planner.DefaultGraph(*template != "")
		}
		if err := printPlan(os.Stdout, global, cfg, graph); err != nil {
			fatal(err)
		}
		return
	}
	if strings.TrimSpace(*input) == "" {
		fatal(errors.New("missing --input"))
	}

	shutdown, err := telemetry.Init("maesd", version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		fatal(err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(sctx)
	}()

	a, err := newApp(cfg)
	if err != nil {
		fatal(err)
	}
	defer a.close(ctx)

	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	pipeline := a.buildPipeline(*template, *resID)

	var result *planner.Result
	if graph != nil {
		state, err := pipeline.ExecuteGraph(ctx, graph, *input)
		if err != nil {
			fatal(err)
		}
		result = resultFromState(state)
	} else {
		result, err = pipeline.Run(ctx, *input)
		if err != nil {
			fatal(err)
		}
	}

	a.logger.InfoContext(ctx, "run finished",
		"run_id", result.RunID, "rounds", result.Rounds,
		"candidates", len(result.Candidates), "spend_usd", a.tracker.Total())

	if *output != "" && len(result.Candidates) > 0 {
		if err := result.WriteOutput(*output); err != nil {
			fatal(err)
		}
		fmt.Fprintf(os.Stderr, "wrote %d sequences to %s\n", len(result.Candidates), *output)
	}

	if global.JSON {
		printJSON(result)
		return
	}
	fmt.Println(result.Report)
	if result.Best != nil {
		fmt.Printf("\nbest design: %s", result.Best.Record.ID)
		if result.Best.Screen != nil {
			fmt.Printf(" (SMR %.4f, round %d)", result.Best.Screen.SMR, result.Best.Round)
		}
		fmt.Println()
	}
}

// printPlan lists the nodes a run would execute and the loop settings,
// without building the provider chain or touching any tool.
func printPlan(w io.Writer, global globalFlags, cfg *config.Config, graph *planner.Graph) error {
	order, err := graph.Order()
	if err != nil {
		return err
	}
	if global.JSON {
		payload, err := json.MarshalIndent(map[string]any{
			"graph":       graph.ID,
			"nodes":       order,
			"max_rounds":  cfg.Pipeline.MaxRounds,
			"num_seqs":    cfg.Pipeline.NumSeqs,
			"temperature": cfg.Pipeline.Temperature,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(payload))
		return nil
	}

	fmt.Fprintf(w, "graph: %s\n", graph.ID)
	writer := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "STEP\tNODE\tTYPE\tTARGET")
	for i, node := range order {
		target := node.Role
		if node.Type == "tool" {
			target = node.Tool
		}
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\n", i+1, node.ID, node.Type, target)
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "design loop: max_rounds=%d num_seqs=%d temperature=%g\n",
		cfg.Pipeline.MaxRounds, cfg.Pipeline.NumSeqs, cfg.Pipeline.Temperature)
	return nil
}

// resultFromState maps a graph execution back to the run result shape. The
// design_loop node output wins when present; otherwise the last string output
// is the report.
func resultFromState(state *planner.State) *planner.Result {
	for _, out := range state.Outputs {
		if result, ok := out.(*planner.Result); ok {
			return result
		}
	}
	return &planner.Result{Report: state.LastString()}
}

func runValidate(global globalFlags, cfg *config.Config) {
	// config.Load already validated; report what the run would use.
	summary := map[string]any{
		"provider":         cfg.DefaultProvider(),
		"max_budget":       cfg.MaxBudget,
		"rpm":              cfg.RPM,
		"max_tokens":       cfg.MaxTokens,
		"long_term_memory": cfg.LongTermMemory,
		"max_rounds":       cfg.Pipeline.MaxRounds,
	}
	if global.JSON {
		printJSON(summary)
		return
	}
	if cfg.DefaultProvider() == "" {
		fmt.Println("config ok (no LLM credentials configured)")
		return
	}
	fmt.Printf("config ok: provider=%s budget=%.2fUSD rpm=%d rounds=%d\n",
		cfg.DefaultProvider(), cfg.MaxBudget, cfg.RPM, cfg.Pipeline.MaxRounds)
}

func runTools(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	if len(args) == 0 {
		fatal(errors.New("usage: maesd tools <list|run>"))
	}
	a, err := newApp(cfg)
	if err != nil {
		fatal(err)
	}
	defer a.close(ctx)

	switch args[0] {
	case "list":
		names := a.registry.Names()
		sort.Strings(names)
		if global.JSON {
			printJSON(names)
			return
		}
		writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(writer, "TOOL\tDESCRIPTION")
		for _, name := range names {
			tool, err := a.registry.Get(name)
			if err != nil {
				continue
			}
			fmt.Fprintf(writer, "%s\t%s\n", name, tool.Description())
		}
		_ = writer.Flush()
	case "run":
		if len(args) < 2 {
			fatal(errors.New("usage: maesd tools run <name> [input]"))
		}
		tool, err := a.registry.Get(args[1])
		if err != nil {
			fatal(err)
		}
		var input any
		if len(args) > 2 {
			raw := strings.Join(args[2:], " ")
			var decoded map[string]any
			if json.Unmarshal([]byte(raw), &decoded) == nil {
				input = decoded
			} else {
				input = raw
			}
		}
		out, err := tool.Call(ctx, input)
		if err != nil {
			fatal(err)
		}
		switch v := out.(type) {
		case string:
			fmt.Println(v)
		default:
			printJSON(v)
		}
	default:
		fatal(fmt.Errorf("unknown tools command %q", args[0]))
	}
}

func runMCPServe(_ globalFlags, cfg *config.Config, args []string) {
	if len(args) == 0 || args[0] != "serve" {
		fatal(errors.New("usage: maesd mcp serve"))
	}
	a, err := newApp(cfg)
	if err != nil {
		fatal(err)
	}
	srv := maesdmcp.NewServer("maesd", version, a.registry)
	if err := srv.ServeStdio(); err != nil {
		fatal(err)
	}
}

func printJSON(value any) {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(payload))
}

func printUsage() {
	fmt.Println(`MAESD - multi-agent protein sequence design

Usage:
  maesd [global flags] <command> [args]

Global flags:
  --config <path>      Path to config.yaml (default config/config.yaml when present)
  --set key=value      Override config (repeatable)
  --json               JSON output

Commands:
  run --input "<design request>" [--output <fasta>] [--template <pdb>]
      [--resid N] [--pipeline <yaml>] [--dry-run] [--timeout <dur>]
  validate
  tools list
  tools run <name> [input]
  mcp serve
  version`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
