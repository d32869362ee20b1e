// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maesd-ai/maesd/pkg/errors"
)

func TestNormalizeEC(t *testing.T) {
	cases := map[string]string{
		"EC 3.1.1.101": "3.1.1.101",
		"ec 3.1.1.101": "3.1.1.101",
		"3.1.1.101":    "3.1.1.101",
		" EC3.1.-.- ":  "3.1.-.-",
	}
	for in, want := range cases {
		if got := NormalizeEC(in); got != want {
			t.Errorf("NormalizeEC(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateEC(t *testing.T) {
	valid := []string{"3.1.1.101", "EC 1.1.1.1", "3.1.-.-", "3.x.x.x", "3.1.1.-"}
	for _, ec := range valid {
		if !ValidateEC(ec) {
			t.Errorf("ValidateEC(%q) = false, want true", ec)
		}
	}
	invalid := []string{
		"3.1.1",     // too few levels
		"3.1.1.1.1", // too many levels
		"3.-.1.-",   // wildcard must cascade
		"3.x.1.x",
		"a.b.c.d",
		"",
	}
	for _, ec := range invalid {
		if ValidateEC(ec) {
			t.Errorf("ValidateEC(%q) = true, want false", ec)
		}
	}
}

const expasyEntryPage = `<html><body>
<table class="type-1">
<tr><th>Accepted Name</th><td>poly(ethylene terephthalate) hydrolase</td></tr>
<tr><th>Alternative Name(s)</th><td><strong>PETase</strong><strong>PET hydrolase</strong></td></tr>
<tr><th>Reaction catalysed</th><td><ul class="ca"><li>Hydrolyzes PET to MHET</li></ul></td></tr>
<tr><th>Comment(s)</th><td><ul class="cc"><li>Found in Ideonella sakaiensis</li></ul></td></tr>
</table>
</body></html>`

func TestEnzymeInfoEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/3.1.1.101" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(expasyEntryPage))
	}))
	defer srv.Close()

	c := NewEnzymeClient()
	c.ExPASyBase = srv.URL

	info, err := c.Info(context.Background(), "EC 3.1.1.101")
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if info.AcceptedName != "poly(ethylene terephthalate) hydrolase" {
		t.Errorf("unexpected accepted name: %q", info.AcceptedName)
	}
	if len(info.AlternativeNames) != 2 || info.AlternativeNames[0] != "PETase" {
		t.Errorf("unexpected alternative names: %v", info.AlternativeNames)
	}
	if len(info.Reactions) != 1 || info.Reactions[0] != "Hydrolyzes PET to MHET" {
		t.Errorf("unexpected reactions: %v", info.Reactions)
	}
	if len(info.Comments) != 1 {
		t.Errorf("unexpected comments: %v", info.Comments)
	}
}

func TestEnzymeInfoClass(t *testing.T) {
	page := `<html><body><a href="3.1.-.-">3.1.-.-</a>: Acting on ester bonds</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	c := NewEnzymeClient()
	c.ExPASyBase = srv.URL

	info, err := c.Info(context.Background(), "3.1.-.-")
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if info.Definition != "Acting on ester bonds" {
		t.Errorf("unexpected class definition: %q", info.Definition)
	}
}

func TestEnzymeInfoNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>No such enzyme</body></html>"))
	}))
	defer srv.Close()

	c := NewEnzymeClient()
	c.ExPASyBase = srv.URL

	_, err := c.Info(context.Background(), "9.9.9.9")
	if err == nil {
		t.Fatal("expected not-found error")
	}
	if me := errors.AsMAESDError(err); me.Code != errors.CodeNotFound {
		t.Errorf("expected not-found code, got %s", me.Code)
	}
}

func TestEnzymeInfoRejectsMalformedEC(t *testing.T) {
	c := NewEnzymeClient()
	if _, err := c.Info(context.Background(), "not an ec"); err == nil {
		t.Error("expected error for malformed EC")
	}
}

func TestSearchByAnnotation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/find/enzyme/cutinase" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte("ec:3.1.1.74\tcutinase\nec:3.1.1.101\tpoly(ethylene terephthalate) hydrolase\n"))
	}))
	defer srv.Close()

	c := NewEnzymeClient()
	c.KEGGBase = srv.URL

	results, err := c.SearchByAnnotation(context.Background(), "cutinase")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ECNumber != "3.1.1.74" || results[0].Description != "cutinase" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
}

func TestEnzymeServerErrorIsRecoverable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewEnzymeClient()
	c.ExPASyBase = srv.URL

	_, err := c.Info(context.Background(), "3.1.1.101")
	if err == nil {
		t.Fatal("expected error")
	}
	if me := errors.AsMAESDError(err); !me.Recoverable {
		t.Error("5xx should be recoverable")
	}
}
