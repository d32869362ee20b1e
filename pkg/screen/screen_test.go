// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package screen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testAtom struct {
	name    string
	resName string
	resID   int
	x, y, z float64
}

func writePDB(t *testing.T, atoms []testAtom) string {
	t.Helper()
	var b strings.Builder
	for i, a := range atoms {
		fmt.Fprintf(&b, "ATOM  %5d %-4s %3s A%4d    %8.3f%8.3f%8.3f\n",
			i+1, a.name, a.resName, a.resID, a.x, a.y, a.z)
	}
	b.WriteString("END\n")
	path := filepath.Join(t.TempDir(), "model.pdb")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPDB(t *testing.T) {
	path := writePDB(t, []testAtom{
		{"N", "LYS", 1, 0, 0, 0},
		{"CA", "LYS", 1, 1.5, 0, 0},
		{"CA", "ALA", 2, 5, 0, 0},
	})
	s, err := LoadPDB(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(s.Atoms) != 3 {
		t.Fatalf("expected 3 atoms, got %d", len(s.Atoms))
	}
	if s.Atoms[1].Name != "CA" || s.Atoms[1].ResName != "LYS" || s.Atoms[1].ResID != 1 {
		t.Errorf("unexpected atom: %+v", s.Atoms[1])
	}
	if s.Atoms[1].X != 1.5 {
		t.Errorf("expected x=1.5, got %v", s.Atoms[1].X)
	}

	seq, nums := s.Sequence()
	if seq != "KA" {
		t.Errorf("expected sequence KA, got %q", seq)
	}
	if len(nums) != 2 || nums[0] != 1 || nums[1] != 2 {
		t.Errorf("unexpected residue numbers: %v", nums)
	}
}

func TestLoadPDBRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdb")
	if err := os.WriteFile(path, []byte("HEADER empty\nEND\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPDB(path); err == nil {
		t.Error("expected error for file without ATOM records")
	}
}

func TestAlignGlobalIdentical(t *testing.T) {
	a, b := AlignGlobal("MKTAYIAKQR", "MKTAYIAKQR")
	if a != b || a != "MKTAYIAKQR" {
		t.Errorf("identity alignment changed sequences: %q vs %q", a, b)
	}
}

func TestAlignGlobalGap(t *testing.T) {
	a, b := AlignGlobal("MKTAYIAKQR", "MKTAYAKQR")
	if len(a) != len(b) {
		t.Fatalf("aligned lengths differ: %d vs %d", len(a), len(b))
	}
	if !strings.Contains(b, "-") {
		t.Errorf("expected a gap in the shorter sequence: %q / %q", a, b)
	}
	if strings.Count(b, "-") != 1 {
		t.Errorf("expected a single gap with affine penalties, got %q", b)
	}
}

func TestMapResidues(t *testing.T) {
	// design numbering starts at 1, natural at 100; natural lacks one residue
	mapping := MapResidues(
		"MKTAY", []int{1, 2, 3, 4, 5},
		"MKAY", []int{100, 101, 102, 103},
	)
	if mapping[1] != 100 || mapping[2] != 101 {
		t.Errorf("prefix mapping wrong: %v", mapping)
	}
	if mapping[4] != 102 || mapping[5] != 103 {
		t.Errorf("suffix mapping wrong: %v", mapping)
	}
	if _, ok := mapping[3]; ok {
		t.Errorf("gapped residue should be unmapped: %v", mapping)
	}
}

// microenvironment fixture: LYS NZ next to ASP OD1 gives one salt bridge and
// one hydrogen bond around the central alanine.
func interactingAtoms() []testAtom {
	return []testAtom{
		{"CA", "LYS", 1, 0, 0, 0},
		{"NZ", "LYS", 1, 2, 0, 0},
		{"CA", "ALA", 2, 3, 0, 0},
		{"CA", "ASP", 3, 6, 0, 0},
		{"OD1", "ASP", 3, 2, 3, 0},
	}
}

// quietAtoms keeps the same chain but pulls OD1 out of bonding range.
func quietAtoms() []testAtom {
	atoms := interactingAtoms()
	atoms[4].x, atoms[4].y = 3, -5
	return atoms
}

func TestCompareIdenticalStructures(t *testing.T) {
	natural := writePDB(t, interactingAtoms())
	design := writePDB(t, interactingAtoms())

	res, err := Compare(design, natural, 2, 0)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if res.Radius != DefaultRadius {
		t.Errorf("expected default radius, got %v", res.Radius)
	}
	if res.NaturalResID != 2 {
		t.Errorf("expected natural residue 2, got %d", res.NaturalResID)
	}
	if res.Natural.SaltBridges != 1 || res.Natural.HBonds != 1 {
		t.Errorf("unexpected natural counts: %+v", res.Natural)
	}
	if res.SMR != 1.0 {
		t.Errorf("identical structures should score 1.0, got %v", res.SMR)
	}
}

func TestCompareLostInteractions(t *testing.T) {
	natural := writePDB(t, interactingAtoms())
	design := writePDB(t, quietAtoms())

	res, err := Compare(design, natural, 2, 0)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if res.Design.Total != 0 {
		t.Errorf("expected no design interactions, got %+v", res.Design)
	}
	if res.SMR != 0 {
		t.Errorf("expected SMR 0, got %v", res.SMR)
	}
}

func TestCompareZeroNaturalTotal(t *testing.T) {
	// natural has nothing to match against: SMR is 0 by definition, even
	// though the design has interactions
	natural := writePDB(t, quietAtoms())
	design := writePDB(t, interactingAtoms())

	res, err := Compare(design, natural, 2, 0)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if res.Natural.Total != 0 {
		t.Fatalf("fixture broken, natural total = %d", res.Natural.Total)
	}
	if res.SMR != 0 {
		t.Errorf("expected SMR 0 for empty template, got %v", res.SMR)
	}
}

func TestCompareUnmappableResidue(t *testing.T) {
	natural := writePDB(t, interactingAtoms())
	design := writePDB(t, interactingAtoms())
	if _, err := Compare(design, natural, 99, 0); err == nil {
		t.Error("expected error for residue outside the chain")
	}
}
