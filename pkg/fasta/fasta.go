// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

// Package fasta reads and writes FASTA files, including the annotated
// headers design tools emit: comma-separated key=value pairs after the
// record name (score, global_score, designed_chains, sample, ...).
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/maesd-ai/maesd/pkg/errors"
)

// ProteinAlphabet is the canonical 20 amino acid one-letter codes.
const ProteinAlphabet = "ACDEFGHIKLMNPQRSTVWY"

// Record is a single FASTA entry. Meta holds the key=value annotations from
// the header; keys keep their original spelling (T, sample, score, ...).
type Record struct {
	ID       string
	Sequence string
	Meta     map[string]string
}

// Float returns a metadata value parsed as float64.
func (r Record) Float(key string) (float64, bool) {
	v, ok := r.Meta[key]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int returns a metadata value parsed as int.
func (r Record) Int(key string) (int, bool) {
	v, ok := r.Meta[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Score returns the per-residue design score, NaN-safe default 0.
func (r Record) Score() float64 {
	f, _ := r.Float("score")
	return f
}

// GlobalScore returns the whole-chain design score.
func (r Record) GlobalScore() float64 {
	f, _ := r.Float("global_score")
	return f
}

// Parse reads FASTA records from r.
func Parse(r io.Reader) ([]Record, error) {
	var records []Record
	var current *Record
	var seq strings.Builder

	flush := func() {
		if current != nil {
			current.Sequence = seq.String()
			records = append(records, *current)
			seq.Reset()
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			flush()
			id, meta := parseHeader(line[1:])
			current = &Record{ID: id, Meta: meta}
			continue
		}
		if current == nil {
			return nil, errors.New(errors.CodeParseError, "sequence data before first header", nil).
				WithContext("line", line)
		}
		seq.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(errors.CodeInternal, "fasta read failed", err)
	}
	flush()
	return records, nil
}

// ParseFile reads FASTA records from a file.
func ParseFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.CodeNotFound, "cannot open fasta file", err).
			WithContext("path", path)
	}
	defer f.Close()
	return Parse(f)
}

// parseHeader splits a header into the record id and its key=value
// annotations. The first comma-separated token without '=' becomes the id;
// everything with '=' lands in the metadata map.
func parseHeader(header string) (string, map[string]string) {
	meta := make(map[string]string)
	id := ""
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if k, v, ok := strings.Cut(part, "="); ok {
			meta[strings.TrimSpace(k)] = strings.TrimSpace(v)
			continue
		}
		if id == "" {
			id = part
		}
	}
	return id, meta
}

// Write renders records to w, wrapping sequences at 80 columns. Metadata
// keys are emitted in sorted order for stable output.
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		header := rec.ID
		keys := make([]string, 0, len(rec.Meta))
		for k := range rec.Meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if header != "" {
				header += ", "
			}
			header += k + "=" + rec.Meta[k]
		}
		if _, err := fmt.Fprintf(bw, ">%s\n", header); err != nil {
			return err
		}
		for i := 0; i < len(rec.Sequence); i += 80 {
			end := i + 80
			if end > len(rec.Sequence) {
				end = len(rec.Sequence)
			}
			if _, err := fmt.Fprintln(bw, rec.Sequence[i:end]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteFile renders records to a file.
func WriteFile(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.New(errors.CodeInternal, "cannot create fasta file", err).
			WithContext("path", path)
	}
	defer f.Close()
	return Write(f, records)
}

// ValidateProtein checks a sequence against the canonical alphabet and the
// 10-residue minimum folding tools require. The sequence is upper-cased
// before checking.
func ValidateProtein(sequence string) (string, error) {
	seq := strings.ToUpper(strings.TrimSpace(sequence))
	if len(seq) < 10 {
		return "", errors.New(errors.CodeInvalidInput, "sequence must be at least 10 amino acids", nil).
			WithContext("length", len(seq))
	}
	for i := 0; i < len(seq); i++ {
		if !strings.ContainsRune(ProteinAlphabet, rune(seq[i])) {
			return "", errors.New(errors.CodeInvalidInput, "sequence contains invalid amino acid", nil).
				WithContext("position", i).
				WithContext("char", string(seq[i]))
		}
	}
	return seq, nil
}
