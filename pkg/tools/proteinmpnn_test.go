// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maesd-ai/maesd/pkg/errors"
	"github.com/maesd-ai/maesd/pkg/fasta"
)

func writeScores(t *testing.T, outDir, stem, content string) {
	t.Helper()
	dir := filepath.Join(outDir, "scores")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, stem+".json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestMergeScoresOverlaysRecords(t *testing.T) {
	outDir := t.TempDir()
	writeScores(t, outDir, "backbone", `[
		{"score": 1.2, "global_score": 1.5},
		{"score": 0.8}
	]`)

	records := []fasta.Record{
		{ID: "native", Meta: map[string]string{"score": "9.9"}},
		{ID: "sample_1"},
		{ID: "sample_2", Meta: map[string]string{"score": "0.3"}},
	}
	mergeScores(outDir, "backbone", records)

	if records[0].Meta["score"] != "1.2" || records[0].Meta["global_score"] != "1.5" {
		t.Errorf("scores file should win over header annotations: %v", records[0].Meta)
	}
	if records[1].Meta["score"] != "0.8" {
		t.Errorf("second record score not overlaid: %v", records[1].Meta)
	}
	if _, ok := records[1].Meta["global_score"]; ok {
		t.Error("missing global_score must not be written")
	}
	// more records than score entries: extras keep their header values
	if records[2].Meta["score"] != "0.3" {
		t.Errorf("unpaired record modified: %v", records[2].Meta)
	}
}

func TestMergeScoresToleratesMissingOrBrokenFile(t *testing.T) {
	records := []fasta.Record{{ID: "sample_1", Meta: map[string]string{"score": "0.5"}}}

	mergeScores(t.TempDir(), "backbone", records)
	if records[0].Meta["score"] != "0.5" {
		t.Error("missing scores file must leave records untouched")
	}

	outDir := t.TempDir()
	writeScores(t, outDir, "backbone", `{"not": "an array"}`)
	mergeScores(outDir, "backbone", records)
	if records[0].Meta["score"] != "0.5" {
		t.Error("malformed scores file must leave records untouched")
	}
}

func TestDesignTimesOutOnStuckScript(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "slow.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nsleep 10\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	pdb := filepath.Join(dir, "backbone.pdb")
	if err := os.WriteFile(pdb, []byte("ATOM\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &ProteinMPNNRunner{
		Python:  "sh",
		Script:  script,
		Timeout: 50 * time.Millisecond,
	}
	_, err := r.Design(context.Background(), DesignRequest{PDBPath: pdb, OutputDir: dir})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	me := errors.AsMAESDError(err)
	if me.Code != errors.CodeTimeout {
		t.Errorf("expected timeout code, got %s", me.Code)
	}
	if !me.Recoverable {
		t.Error("timeout should be recoverable")
	}
}

func TestDesignsDropsNativeRecord(t *testing.T) {
	records := []fasta.Record{
		{ID: "native", Meta: map[string]string{"score": "1.0"}},
		{ID: "design", Meta: map[string]string{"sample": "1"}},
	}
	designs := Designs(records)
	if len(designs) != 1 || designs[0].Meta["sample"] != "1" {
		t.Errorf("native record not dropped: %+v", designs)
	}

	// all-design input passes through unchanged
	all := []fasta.Record{
		{ID: "a", Meta: map[string]string{"sample": "1"}},
		{ID: "b", Meta: map[string]string{"sample": "2"}},
	}
	if got := Designs(all); len(got) != 2 {
		t.Errorf("design-only input truncated: %d", len(got))
	}
}
