// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/maesd-ai/maesd/pkg/errors"
	"github.com/maesd-ai/maesd/pkg/fasta"
	"github.com/maesd-ai/maesd/pkg/resilience"
)

// ProteinMPNNRunner drives the protein_mpnn_run.py inverse-folding script as
// a subprocess. The script designs sequences for a fixed backbone and writes
// annotated FASTA output under <out>/seqs/.
type ProteinMPNNRunner struct {
	Python  string        // interpreter, default "python"
	Script  string        // path to protein_mpnn_run.py
	UseGPU  bool
	Timeout time.Duration // per-run limit, 0 = none
	Logger  *slog.Logger
}

// DesignRequest parameterizes one ProteinMPNN invocation.
type DesignRequest struct {
	PDBPath     string
	NumSeqs     int     // sequences per target, default 10
	Temperature float64 // sampling temperature, default 0.1
	OutputDir   string  // default: fresh temp dir
}

// Design runs the script and parses the designed sequences. The first
// returned record is the native sequence the tool echoes back; the designs
// follow with score/global_score/sample annotations in their headers.
func (r *ProteinMPNNRunner) Design(ctx context.Context, req DesignRequest) ([]fasta.Record, error) {
	if r.Script == "" {
		return nil, errors.New(errors.CodeInvalidInput, "proteinmpnn script path not configured", nil)
	}
	if filepath.Ext(req.PDBPath) != ".pdb" {
		return nil, errors.New(errors.CodeInvalidInput, "input file must have .pdb extension", nil).
			WithContext("path", req.PDBPath)
	}
	if _, err := os.Stat(req.PDBPath); err != nil {
		return nil, errors.New(errors.CodeNotFound, "pdb file not found", err).
			WithContext("path", req.PDBPath)
	}

	numSeqs := req.NumSeqs
	if numSeqs <= 0 {
		numSeqs = 10
	}
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = 0.1
	}
	outDir := req.OutputDir
	if outDir == "" {
		var err error
		outDir, err = os.MkdirTemp("", "proteinmpnn_")
		if err != nil {
			return nil, errors.New(errors.CodeInternal, "cannot create output dir", err)
		}
	} else if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.New(errors.CodeInternal, "cannot create output dir", err).
			WithContext("dir", outDir)
	}

	python := r.Python
	if python == "" {
		python = "python"
	}
	device := "cpu"
	if r.UseGPU {
		device = "cuda:0"
	}

	args := []string{
		r.Script,
		"--pdb_path", req.PDBPath,
		"--out_folder", outDir,
		"--num_seq_per_target", strconv.Itoa(numSeqs),
		"--sampling_temp", strconv.FormatFloat(temperature, 'g', -1, 64),
		"--batch_size", "1",
		"--device", device,
	}

	log := r.logger()
	log.InfoContext(ctx, "running proteinmpnn",
		"pdb", filepath.Base(req.PDBPath), "num_seqs", numSeqs, "temperature", temperature)

	start := time.Now()
	err := resilience.WithTimeout(ctx, r.Timeout, func(ctx context.Context) error {
		cmd := exec.CommandContext(ctx, python, args...)
		output, err := cmd.CombinedOutput()
		if err != nil {
			return errors.New(errors.CodeToolFailure, "proteinmpnn run failed", err).
				WithContext("output", truncate(string(output), 2000)).
				WithRecoverable(true)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "proteinmpnn finished", "elapsed", time.Since(start))

	stem := strings.TrimSuffix(filepath.Base(req.PDBPath), ".pdb")
	seqFile := filepath.Join(outDir, "seqs", stem+".fa")
	records, err := fasta.ParseFile(seqFile)
	if err != nil {
		return nil, errors.New(errors.CodeToolFailure, "proteinmpnn output missing", err).
			WithContext("seq_file", seqFile)
	}
	if len(records) == 0 {
		return nil, errors.New(errors.CodeToolFailure, "proteinmpnn produced no sequences", nil).
			WithContext("seq_file", seqFile)
	}
	mergeScores(outDir, stem, records)
	return records, nil
}

// mergeScores overlays scores/<stem>.json onto the parsed records when the
// script wrote one. Score entries pair positionally with the FASTA records
// and win over any header annotations.
func mergeScores(outDir, stem string, records []fasta.Record) {
	raw, err := os.ReadFile(filepath.Join(outDir, "scores", stem+".json"))
	if err != nil {
		return
	}
	var scores []struct {
		Score       *float64 `json:"score"`
		GlobalScore *float64 `json:"global_score"`
	}
	if json.Unmarshal(raw, &scores) != nil {
		return
	}
	for i := range records {
		if i >= len(scores) {
			break
		}
		if records[i].Meta == nil {
			records[i].Meta = make(map[string]string)
		}
		if s := scores[i].Score; s != nil {
			records[i].Meta["score"] = strconv.FormatFloat(*s, 'g', -1, 64)
		}
		if g := scores[i].GlobalScore; g != nil {
			records[i].Meta["global_score"] = strconv.FormatFloat(*g, 'g', -1, 64)
		}
	}
}

// Designs drops the leading native-sequence record when present.
func Designs(records []fasta.Record) []fasta.Record {
	if len(records) > 1 {
		if _, hasSample := records[0].Meta["sample"]; !hasSample {
			return records[1:]
		}
	}
	return records
}

func (r *ProteinMPNNRunner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// ProteinMPNNTool exposes the runner through the tool registry.
func ProteinMPNNTool(r *ProteinMPNNRunner) *Func {
	return NewFunc("proteinmpnn_design", "Design sequences for a PDB backbone with ProteinMPNN",
		func(ctx context.Context, input any) (any, error) {
			params, ok := input.(map[string]any)
			if !ok {
				return nil, errors.New(errors.CodeInvalidInput, "expected parameter map", nil)
			}
			req := DesignRequest{}
			if s, ok := params["pdb_path"].(string); ok {
				req.PDBPath = s
			}
			if n, ok := params["num_seqs"].(float64); ok {
				req.NumSeqs = int(n)
			}
			if t, ok := params["temperature"].(float64); ok {
				req.Temperature = t
			}
			return r.Design(ctx, req)
		})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s... (%d bytes truncated)", s[:n], len(s)-n)
}
