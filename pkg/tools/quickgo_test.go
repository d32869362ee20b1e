// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maesd-ai/maesd/pkg/errors"
)

const quickGOTermJSON = `{
  "results": [
    {
      "id": "GO:0016787",
      "name": "hydrolase activity",
      "aspect": "molecular_function",
      "definition": {"text": "Catalysis of the hydrolysis of various bonds."},
      "synonyms": [{"name": "hydrolase"}]
    }
  ]
}`

func TestQuickGOTerm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ontology/go/terms/GO:0016787" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(quickGOTermJSON))
	}))
	defer srv.Close()

	c := NewQuickGOClient()
	c.BaseURL = srv.URL

	term, err := c.Term(context.Background(), "GO:0016787")
	if err != nil {
		t.Fatalf("term lookup failed: %v", err)
	}
	if term.ID != "GO:0016787" || term.Name != "hydrolase activity" {
		t.Errorf("unexpected term: %+v", term)
	}
	if term.Definition != "Catalysis of the hydrolysis of various bonds." {
		t.Errorf("unexpected definition: %q", term.Definition)
	}
	if len(term.Synonyms) != 1 || term.Synonyms[0] != "hydrolase" {
		t.Errorf("unexpected synonyms: %v", term.Synonyms)
	}
}

func TestQuickGOTermNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	c := NewQuickGOClient()
	c.BaseURL = srv.URL

	_, err := c.Term(context.Background(), "GO:9999999")
	if err == nil {
		t.Fatal("expected not-found error")
	}
	if me := errors.AsMAESDError(err); me.Code != errors.CodeNotFound {
		t.Errorf("expected not-found code, got %s", me.Code)
	}
}

func TestQuickGOSearchByDefinition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		if !strings.HasPrefix(query, "definition:") {
			t.Errorf("expected definition-scoped query, got %q", query)
		}
		if r.URL.Query().Get("limit") != "3" {
			t.Errorf("expected limit 3, got %q", r.URL.Query().Get("limit"))
		}
		w.Write([]byte(quickGOTermJSON))
	}))
	defer srv.Close()

	c := NewQuickGOClient()
	c.BaseURL = srv.URL

	terms, err := c.SearchByDefinition(context.Background(), "hydrolysis of ester bonds", 3)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(terms) != 1 || terms[0].ID != "GO:0016787" {
		t.Errorf("unexpected results: %+v", terms)
	}
}

func TestQuickGOServerErrorIsRecoverable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewQuickGOClient()
	c.BaseURL = srv.URL

	_, err := c.Term(context.Background(), "GO:0016787")
	if err == nil {
		t.Fatal("expected error")
	}
	if me := errors.AsMAESDError(err); !me.Recoverable {
		t.Error("5xx should be recoverable")
	}
}
