package planner

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/maesd-ai/maesd/pkg/fasta"
	"github.com/maesd-ai/maesd/pkg/screen"
)

func screened(smr, score float64) *Candidate {
	return &Candidate{
		Record: fasta.Record{Meta: map[string]string{"score": strconv.FormatFloat(score, 'g', -1, 64)}},
		Screen: &screen.Result{SMR: smr},
	}
}

func TestBetterCandidate(t *testing.T) {
	unscreened := &Candidate{Record: fasta.Record{Meta: map[string]string{"score": "0.5"}}}

	if !betterCandidate(screened(0.8, 1.0), unscreened) {
		t.Error("screened should beat unscreened")
	}
	if betterCandidate(unscreened, screened(0.1, 1.0)) {
		t.Error("unscreened should lose to screened")
	}
	if !betterCandidate(screened(0.9, 1.0), screened(0.5, 0.1)) {
		t.Error("higher SMR should win regardless of score")
	}

	a := &Candidate{Record: fasta.Record{Meta: map[string]string{"score": "0.2"}}, Screen: &screen.Result{SMR: 0.5}}
	b := &Candidate{Record: fasta.Record{Meta: map[string]string{"score": "0.7"}}, Screen: &screen.Result{SMR: 0.5}}
	if !betterCandidate(a, b) {
		t.Error("equal SMR should break ties by lower design score")
	}
}

func TestAnnotateRound(t *testing.T) {
	rec := fasta.Record{ID: "sample_1"}
	annotateRound(&rec, 2, 0.2)
	if rec.Meta["loop"] != "2" || rec.Meta["model_name"] != "proteinmpnn" {
		t.Errorf("round annotations missing: %v", rec.Meta)
	}
	if rec.Meta["T"] != "0.2" {
		t.Errorf("temperature not recorded: %q", rec.Meta["T"])
	}

	// an existing T from the design tool wins
	rec2 := fasta.Record{Meta: map[string]string{"T": "0.1"}}
	annotateRound(&rec2, 1, 0.4)
	if rec2.Meta["T"] != "0.1" {
		t.Errorf("tool-reported temperature overwritten: %q", rec2.Meta["T"])
	}
}

func TestLoopConfigDefaults(t *testing.T) {
	p := &Pipeline{}
	lc := p.loop()
	if lc.MaxRounds != 3 || lc.NumSeqs != 10 || lc.Temperature != 0.1 {
		t.Errorf("unexpected defaults: %+v", lc)
	}

	p.Loop = LoopConfig{MaxRounds: 5, NumSeqs: 2, Temperature: 0.3}
	lc = p.loop()
	if lc.MaxRounds != 5 || lc.NumSeqs != 2 || lc.Temperature != 0.3 {
		t.Errorf("explicit values overridden: %+v", lc)
	}
}

func TestWriteOutputBestFirst(t *testing.T) {
	best := Candidate{
		Record: fasta.Record{ID: "design", Sequence: "MKTAYIAKQR",
			Meta: map[string]string{"sample": "2", "smr": "0.9"}},
		Round:  2,
		Screen: &screen.Result{SMR: 0.9},
	}
	other := Candidate{
		Record: fasta.Record{ID: "design", Sequence: "MKTAYIAKQA",
			Meta: map[string]string{"sample": "1"}},
		Round: 1,
	}
	res := &Result{
		RunID:      "run-1",
		Candidates: []Candidate{other, best},
		Best:       &best,
		Rounds:     2,
	}

	path := filepath.Join(t.TempDir(), "out.fa")
	if err := res.WriteOutput(path); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	records, err := fasta.ParseFile(path)
	if err != nil {
		t.Fatalf("parse back failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Meta["smr"] != "0.9" {
		t.Errorf("best candidate not first: %+v", records[0])
	}
	if records[1].Meta["sample"] != "1" {
		t.Errorf("remaining candidate missing: %+v", records[1])
	}
}

func TestWriteOutputEmptyRun(t *testing.T) {
	res := &Result{RunID: "run-1"}
	path := filepath.Join(t.TempDir(), "out.fa")
	if err := res.WriteOutput(path); err == nil {
		t.Error("expected error for run without candidates")
	}
	if _, err := os.Stat(path); err == nil {
		t.Error("no file should be written for an empty run")
	}
}
