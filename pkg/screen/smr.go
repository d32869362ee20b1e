// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package screen

import (
	"strings"

	"github.com/maesd-ai/maesd/pkg/errors"
)

// DefaultRadius is the microenvironment radius in Ångström.
const DefaultRadius = 8.0

// Interactions holds per-structure interaction counts inside the
// microenvironment.
type Interactions struct {
	HBonds      int `json:"hbonds"`
	Hydrophobic int `json:"hydrophobic"`
	SaltBridges int `json:"salt_bridges"`
	Total       int `json:"total"`
}

// Result is the outcome of a microenvironment comparison.
type Result struct {
	DesignResID  int          `json:"design_resid"`
	NaturalResID int          `json:"natural_resid"`
	Design       Interactions `json:"design"`
	Natural      Interactions `json:"natural"`
	SMR          float64      `json:"smr"`
	Radius       float64      `json:"radius"`
}

// Compare maps designResID onto the natural template via global alignment,
// counts hydrogen bonds, hydrophobic contacts and salt bridges within radius
// of both alpha carbons, and scores SMR = min(design_total/natural_total, 1).
// A template with zero interactions scores 0.
func Compare(designPDB, naturalPDB string, designResID int, radius float64) (*Result, error) {
	if radius <= 0 {
		radius = DefaultRadius
	}

	design, err := LoadPDB(designPDB)
	if err != nil {
		return nil, err
	}
	natural, err := LoadPDB(naturalPDB)
	if err != nil {
		return nil, err
	}

	dSeq, dNums := design.Sequence()
	nSeq, nNums := natural.Sequence()
	mapping := MapResidues(dSeq, dNums, nSeq, nNums)
	naturalResID, ok := mapping[designResID]
	if !ok {
		return nil, errors.New(errors.CodeInvalidInput,
			"design residue cannot be mapped onto the natural template", nil).
			WithContext("design_resid", designResID)
	}

	dCenter, err := design.CAPosition(designResID)
	if err != nil {
		return nil, err
	}
	nCenter, err := natural.CAPosition(naturalResID)
	if err != nil {
		return nil, err
	}

	dCounts := countInteractions(design.Within(dCenter, radius))
	nCounts := countInteractions(natural.Within(nCenter, radius))

	smr := 0.0
	if nCounts.Total > 0 {
		smr = float64(dCounts.Total) / float64(nCounts.Total)
		if smr > 1.0 {
			smr = 1.0
		}
	}

	return &Result{
		DesignResID:  designResID,
		NaturalResID: naturalResID,
		Design:       dCounts,
		Natural:      nCounts,
		SMR:          smr,
		Radius:       radius,
	}, nil
}

func countInteractions(env []Atom) Interactions {
	c := Interactions{
		HBonds:      countHBonds(env),
		Hydrophobic: countHydrophobic(env),
		SaltBridges: countSaltBridges(env),
	}
	c.Total = c.HBonds + c.Hydrophobic + c.SaltBridges
	return c
}

// countHBonds counts donor/acceptor pairs within 3.5 Å. Predicted models
// usually carry no hydrogens, so the geometric angle criterion is dropped
// and the donor-acceptor distance alone decides.
func countHBonds(env []Atom) int {
	var donors, acceptors []Atom
	for _, a := range env {
		if isHBondDonor(a) {
			donors = append(donors, a)
		}
		if isHBondAcceptor(a) {
			acceptors = append(acceptors, a)
		}
	}
	count := 0
	for _, d := range donors {
		for _, acc := range acceptors {
			if d.ResID == acc.ResID {
				continue
			}
			if dist(d.Pos(), acc.Pos()) <= 3.5 {
				count++
			}
		}
	}
	return count
}

func isHBondDonor(a Atom) bool {
	switch a.Name {
	case "NE2", "ND1", "NH1", "NH2", "NZ", "N":
		return true
	}
	return false
}

func isHBondAcceptor(a Atom) bool {
	switch a.Name {
	case "O", "OE1", "OE2", "OD1", "OD2":
		return true
	}
	return false
}

// countHydrophobic counts sidechain-carbon pairs within 4.0 Å. CA and CB
// are excluded so the backbone does not dominate the count.
func countHydrophobic(env []Atom) int {
	var carbons []Atom
	for _, a := range env {
		if isSidechainCarbon(a) {
			carbons = append(carbons, a)
		}
	}
	count := 0
	for i := 0; i < len(carbons); i++ {
		for j := i + 1; j < len(carbons); j++ {
			if dist(carbons[i].Pos(), carbons[j].Pos()) <= 4.0 {
				count++
			}
		}
	}
	return count
}

func isSidechainCarbon(a Atom) bool {
	if a.Name == "CA" || a.Name == "CB" {
		return false
	}
	if !strings.HasPrefix(a.Name, "C") {
		return false
	}
	switch {
	case a.Name == "C",
		strings.HasPrefix(a.Name, "CD"),
		strings.HasPrefix(a.Name, "CE"),
		strings.HasPrefix(a.Name, "CG"):
		return true
	}
	return false
}

// countSaltBridges pairs basic nitrogens (ARG NH*, LYS NZ) with acidic
// oxygens (ASP OD*, GLU OE*) in the 2.5-4.0 Å window.
func countSaltBridges(env []Atom) int {
	var pos, neg []Atom
	for _, a := range env {
		switch {
		case a.ResName == "ARG" && strings.HasPrefix(a.Name, "NH"):
			pos = append(pos, a)
		case a.ResName == "LYS" && a.Name == "NZ":
			pos = append(pos, a)
		case a.ResName == "ASP" && strings.HasPrefix(a.Name, "OD"):
			neg = append(neg, a)
		case a.ResName == "GLU" && strings.HasPrefix(a.Name, "OE"):
			neg = append(neg, a)
		}
	}
	count := 0
	for _, p := range pos {
		for _, n := range neg {
			d := dist(p.Pos(), n.Pos())
			if d >= 2.5 && d <= 4.0 {
				count++
			}
		}
	}
	return count
}
