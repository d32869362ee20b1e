// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

// Package screen scores designed structures against a natural template by
// comparing the interaction counts inside a residue microenvironment. The
// headline number is the SMR: the design/natural interaction ratio capped
// at 1.0.
package screen

import (
	"bufio"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/maesd-ai/maesd/pkg/errors"
)

// Atom is a single ATOM record from a PDB file.
type Atom struct {
	Serial  int
	Name    string
	ResName string
	Chain   string
	ResID   int
	X, Y, Z float64
}

// Pos returns the atom coordinates.
func (a Atom) Pos() [3]float64 { return [3]float64{a.X, a.Y, a.Z} }

// Structure is a parsed PDB model.
type Structure struct {
	Atoms []Atom
}

var threeToOne = map[string]byte{
	"ALA": 'A', "ARG": 'R', "ASN": 'N', "ASP": 'D', "CYS": 'C',
	"GLN": 'Q', "GLU": 'E', "GLY": 'G', "HIS": 'H', "ILE": 'I',
	"LEU": 'L', "LYS": 'K', "MET": 'M', "PHE": 'F', "PRO": 'P',
	"SER": 'S', "THR": 'T', "TRP": 'W', "TYR": 'Y', "VAL": 'V',
}

// LoadPDB parses ATOM records from a PDB file. HETATM and everything else
// is skipped; only the first model of multi-model files is read.
func LoadPDB(path string) (*Structure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "cannot open pdb file", err).
			WithContext("path", path)
	}
	defer f.Close()

	s := &Structure{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "ENDMDL") {
			break
		}
		if !strings.HasPrefix(line, "ATOM") || len(line) < 54 {
			continue
		}
		atom, err := parseAtomLine(line)
		if err != nil {
			return nil, errors.New(errors.CodeParseError, "malformed ATOM record", err).
				WithContext("path", path).
				WithContext("line", line)
		}
		s.Atoms = append(s.Atoms, atom)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(errors.CodeInternal, "pdb read failed", err).WithContext("path", path)
	}
	if len(s.Atoms) == 0 {
		return nil, errors.New(errors.CodeParseError, "no ATOM records in pdb file", nil).
			WithContext("path", path)
	}
	return s, nil
}

// PDB is a fixed-column format; field positions follow the wwPDB spec.
func parseAtomLine(line string) (Atom, error) {
	serial, err := strconv.Atoi(strings.TrimSpace(line[6:11]))
	if err != nil {
		return Atom{}, err
	}
	resID, err := strconv.Atoi(strings.TrimSpace(line[22:26]))
	if err != nil {
		return Atom{}, err
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(line[30:38]), 64)
	if err != nil {
		return Atom{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(line[38:46]), 64)
	if err != nil {
		return Atom{}, err
	}
	z, err := strconv.ParseFloat(strings.TrimSpace(line[46:54]), 64)
	if err != nil {
		return Atom{}, err
	}
	return Atom{
		Serial:  serial,
		Name:    strings.TrimSpace(line[12:16]),
		ResName: strings.TrimSpace(line[17:20]),
		Chain:   strings.TrimSpace(line[21:22]),
		ResID:   resID,
		X:       x,
		Y:       y,
		Z:       z,
	}, nil
}

// Sequence returns the one-letter chain sequence and the parallel residue
// numbers, in file order. Non-standard residues map to X.
func (s *Structure) Sequence() (string, []int) {
	var seq strings.Builder
	var nums []int
	seen := -1 << 31
	for _, a := range s.Atoms {
		if a.ResID == seen {
			continue
		}
		seen = a.ResID
		code, ok := threeToOne[a.ResName]
		if !ok {
			code = 'X'
		}
		seq.WriteByte(code)
		nums = append(nums, a.ResID)
	}
	return seq.String(), nums
}

// CAPosition returns the alpha-carbon coordinates of a residue.
func (s *Structure) CAPosition(resID int) ([3]float64, error) {
	for _, a := range s.Atoms {
		if a.ResID == resID && a.Name == "CA" {
			return a.Pos(), nil
		}
	}
	return [3]float64{}, errors.New(errors.CodeNotFound, "residue has no CA atom", nil).
		WithContext("resid", resID)
}

// Within returns the atoms inside radius of center.
func (s *Structure) Within(center [3]float64, radius float64) []Atom {
	var out []Atom
	for _, a := range s.Atoms {
		if dist(a.Pos(), center) <= radius {
			out = append(out, a)
		}
	}
	return out
}

func dist(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
