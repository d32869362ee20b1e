// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/maesd-ai/maesd/pkg/errors"
	"github.com/maesd-ai/maesd/pkg/fasta"
	"github.com/maesd-ai/maesd/pkg/resilience"
)

// DefaultAlphaFoldImage is the published AlphaFold2 container.
const DefaultAlphaFoldImage = "ghcr.io/deepmind/alphafold"

// AlphaFoldRunner folds a sequence by running the AlphaFold2 container via
// docker. The genetic databases must be mounted from DataDir.
type AlphaFoldRunner struct {
	Image           string // default DefaultAlphaFoldImage
	DataDir         string // host path of the AlphaFold databases
	UseGPU          bool
	ModelPreset     string        // monomer, monomer_casp14, monomer_ptm, multimer
	DBPreset        string        // full_dbs, reduced_dbs
	MaxTemplateDate string        // YYYY-MM-DD
	Timeout         time.Duration // per-run limit, 0 = none
	Logger          *slog.Logger
}

// Predict validates the sequence, writes it as target.fasta under outDir,
// runs the container, and returns the path of the top-ranked unrelaxed
// model.
func (r *AlphaFoldRunner) Predict(ctx context.Context, sequence, outDir string) (string, error) {
	seq, err := fasta.ValidateProtein(sequence)
	if err != nil {
		return "", err
	}
	if outDir == "" {
		outDir = "af2_results"
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", errors.New(errors.CodeInternal, "cannot create output dir", err).
			WithContext("dir", outDir)
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return "", errors.New(errors.CodeInternal, "cannot resolve output dir", err)
	}

	fastaPath := filepath.Join(absOut, "target.fasta")
	if err := fasta.WriteFile(fastaPath, []fasta.Record{{ID: "target", Sequence: seq}}); err != nil {
		return "", err
	}

	image := r.Image
	if image == "" {
		image = DefaultAlphaFoldImage
	}
	modelPreset := r.ModelPreset
	if modelPreset == "" {
		modelPreset = "monomer"
	}
	dbPreset := r.DBPreset
	if dbPreset == "" {
		dbPreset = "full_dbs"
	}
	maxTemplateDate := r.MaxTemplateDate
	if maxTemplateDate == "" {
		maxTemplateDate = "2020-05-14"
	}
	gpus := "none"
	if r.UseGPU {
		gpus = "all"
	}

	args := []string{
		"run",
		"--gpus", gpus,
		"-v", absOut + ":/data",
		"-v", r.DataDir + ":/alphafold/data",
		image,
		"--fasta_paths=/data/target.fasta",
		"--output_dir=/data",
		"--model_preset=" + modelPreset,
		"--max_template_date=" + maxTemplateDate,
		"--db_preset=" + dbPreset,
		"--data_dir=/alphafold/data",
	}

	log := r.logger()
	log.InfoContext(ctx, "running alphafold2", "length", len(seq), "preset", modelPreset)

	start := time.Now()
	err = resilience.WithTimeout(ctx, r.Timeout, func(ctx context.Context) error {
		cmd := exec.CommandContext(ctx, "docker", args...)
		output, err := cmd.CombinedOutput()
		if err != nil {
			return errors.New(errors.CodeToolFailure, "alphafold run failed", err).
				WithContext("output", truncate(string(output), 2000)).
				WithRecoverable(true)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	log.InfoContext(ctx, "alphafold2 finished", "elapsed", time.Since(start))

	pdbPath, err := findRankedModel(absOut)
	if err != nil {
		return "", err
	}
	return pdbPath, nil
}

// findRankedModel locates the rank-1 unrelaxed model. Depending on the
// container version it lands either directly in the output dir or in a
// per-target subdirectory.
func findRankedModel(outDir string) (string, error) {
	for _, dir := range []string{outDir, filepath.Join(outDir, "target")} {
		matches, _ := filepath.Glob(filepath.Join(dir, "*unrelaxed_rank_1*.pdb"))
		if len(matches) > 0 {
			return matches[0], nil
		}
		matches, _ = filepath.Glob(filepath.Join(dir, "unrelaxed_model_1*.pdb"))
		if len(matches) > 0 {
			return matches[0], nil
		}
	}
	return "", errors.New(errors.CodeToolFailure, "no predicted model found", nil).
		WithContext("dir", outDir)
}

func (r *AlphaFoldRunner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// AlphaFoldTool exposes the runner through the tool registry.
func AlphaFoldTool(r *AlphaFoldRunner) *Func {
	return NewFunc("alphafold_predict", "Fold a protein sequence with AlphaFold2 and return the model PDB path",
		func(ctx context.Context, input any) (any, error) {
			params, ok := input.(map[string]any)
			if !ok {
				if s, ok := input.(string); ok {
					return r.Predict(ctx, s, "")
				}
				return nil, errors.New(errors.CodeInvalidInput, "expected sequence or parameter map", nil)
			}
			seq, _ := params["sequence"].(string)
			outDir, _ := params["output_dir"].(string)
			return r.Predict(ctx, seq, outDir)
		})
}
