package tools

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/maesd-ai/maesd/pkg/errors"
	"github.com/maesd-ai/maesd/pkg/fasta"
	"github.com/maesd-ai/maesd/pkg/resilience"
)

// ProGen2Runner samples de-novo sequences from a ProGen2 checkpoint through
// a python sampling script. Used when no backbone exists yet and the
// pipeline needs candidate sequences from a functional prompt.
type ProGen2Runner struct {
	Python  string        // interpreter, default "python"
	Script  string        // sampling script path
	Model   string        // checkpoint name, default "hugohrban/progen2-small"
	Timeout time.Duration // per-run limit, 0 = none
	Logger  *slog.Logger
}

// SampleRequest parameterizes one sampling run.
type SampleRequest struct {
	Prompt      string  // seed residues, e.g. "1MEVVIVTGMSGAGK"
	NumSamples  int     // default 10
	MaxLength   int     // default 256
	Temperature float64 // default 0.8
}

// Sample runs the script and returns the generated sequences.
func (r *ProGen2Runner) Sample(ctx context.Context, req SampleRequest) ([]fasta.Record, error) {
	if r.Script == "" {
		return nil, errors.New(errors.CodeInvalidInput, "progen2 script path not configured", nil)
	}
	if req.Prompt == "" {
		return nil, errors.New(errors.CodeInvalidInput, "progen2 prompt is required", nil)
	}
	numSamples := req.NumSamples
	if numSamples <= 0 {
		numSamples = 10
	}
	maxLength := req.MaxLength
	if maxLength <= 0 {
		maxLength = 256
	}
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = 0.8
	}
	model := r.Model
	if model == "" {
		model = "hugohrban/progen2-small"
	}
	python := r.Python
	if python == "" {
		python = "python"
	}

	outDir, err := os.MkdirTemp("", "progen2_")
	if err != nil {
		return nil, errors.New(errors.CodeInternal, "cannot create output dir", err)
	}
	outFile := filepath.Join(outDir, "samples.fa")

	args := []string{
		r.Script,
		"--model", model,
		"--prompt", req.Prompt,
		"--num_samples", strconv.Itoa(numSamples),
		"--max_length", strconv.Itoa(maxLength),
		"--temperature", strconv.FormatFloat(temperature, 'g', -1, 64),
		"--output", outFile,
	}

	log := r.logger()
	log.InfoContext(ctx, "running progen2", "model", model, "num_samples", numSamples)

	start := time.Now()
	err = resilience.WithTimeout(ctx, r.Timeout, func(ctx context.Context) error {
		cmd := exec.CommandContext(ctx, python, args...)
		output, err := cmd.CombinedOutput()
		if err != nil {
			return errors.New(errors.CodeToolFailure, "progen2 run failed", err).
				WithContext("output", truncate(string(output), 2000)).
				WithRecoverable(true)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "progen2 finished", "elapsed", time.Since(start))

	records, err := fasta.ParseFile(outFile)
	if err != nil {
		return nil, errors.New(errors.CodeToolFailure, "progen2 output missing", err).
			WithContext("out_file", outFile)
	}
	return records, nil
}

func (r *ProGen2Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// ProGen2Tool exposes the runner through the tool registry.
func ProGen2Tool(r *ProGen2Runner) *Func {
	return NewFunc("progen2_sample", "Sample de-novo protein sequences from a ProGen2 checkpoint",
		func(ctx context.Context, input any) (any, error) {
			params, ok := input.(map[string]any)
			if !ok {
				if s, ok := input.(string); ok {
					return r.Sample(ctx, SampleRequest{Prompt: s})
				}
				return nil, errors.New(errors.CodeInvalidInput, "expected prompt or parameter map", nil)
			}
			req := SampleRequest{}
			if s, ok := params["prompt"].(string); ok {
				req.Prompt = s
			}
			if n, ok := params["num_samples"].(float64); ok {
				req.NumSamples = int(n)
			}
			if t, ok := params["temperature"].(float64); ok {
				req.Temperature = t
			}
			return r.Sample(ctx, req)
		})
}
