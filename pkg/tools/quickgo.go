package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/maesd-ai/maesd/pkg/errors"
)

// DefaultQuickGOBase is the EBI QuickGO service root.
const DefaultQuickGOBase = "https://www.ebi.ac.uk/QuickGO/services"

// GOTerm is a Gene Ontology term as returned by QuickGO.
type GOTerm struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Definition string   `json:"definition"`
	Ontology   string   `json:"ontology,omitempty"`
	Synonyms   []string `json:"synonyms,omitempty"`
}

// QuickGOClient queries the QuickGO REST API.
type QuickGOClient struct {
	BaseURL string
	HTTP    *http.Client

	guard guard
}

// NewQuickGOClient creates a client against the public EBI endpoint.
func NewQuickGOClient() *QuickGOClient {
	return &QuickGOClient{
		BaseURL: DefaultQuickGOBase,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		guard:   newGuard("quickgo"),
	}
}

type quickGOTermPayload struct {
	Results []struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Aspect     string `json:"aspect"`
		Definition struct {
			Text string `json:"text"`
		} `json:"definition"`
		Synonyms []struct {
			Name string `json:"name"`
		} `json:"synonyms"`
	} `json:"results"`
}

// Term fetches the definition of a GO identifier (e.g. GO:0016787).
func (c *QuickGOClient) Term(ctx context.Context, goID string) (*GOTerm, error) {
	endpoint := fmt.Sprintf("%s/ontology/go/terms/%s", c.BaseURL, url.PathEscape(goID))
	var payload quickGOTermPayload
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, errors.New(errors.CodeNotFound, "GO term not found", nil).
			WithContext("go_id", goID)
	}
	term := payload.Results[0]
	out := &GOTerm{
		ID:         term.ID,
		Name:       term.Name,
		Definition: term.Definition.Text,
		Ontology:   term.Aspect,
	}
	for _, syn := range term.Synonyms {
		if syn.Name != "" {
			out.Synonyms = append(out.Synonyms, syn.Name)
		}
	}
	return out, nil
}

// SearchByDefinition performs a fuzzy search over term definitions.
func (c *QuickGOClient) SearchByDefinition(ctx context.Context, query string, maxResults int) ([]GOTerm, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	params := url.Values{}
	params.Set("query", fmt.Sprintf("definition:%q", query))
	params.Set("limit", fmt.Sprint(maxResults))
	params.Set("page", "1")
	endpoint := fmt.Sprintf("%s/ontology/go/search?%s", c.BaseURL, params.Encode())

	var payload quickGOTermPayload
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	terms := make([]GOTerm, 0, len(payload.Results))
	for _, term := range payload.Results {
		terms = append(terms, GOTerm{
			ID:         term.ID,
			Name:       term.Name,
			Definition: term.Definition.Text,
		})
	}
	return terms, nil
}

// getJSON fetches endpoint with retry and the shared breaker. Non-200
// responses below 500 and decode failures are not retried.
func (c *QuickGOClient) getJSON(ctx context.Context, endpoint string, out any) error {
	return c.guard.do(ctx, func() error {
		return c.fetchJSON(ctx, endpoint, out)
	})
}

func (c *QuickGOClient) fetchJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.New(errors.CodeInternal, "quickgo request build failed", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return errors.New(errors.CodeToolFailure, "quickgo request failed", err).
			WithRecoverable(true)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.CodeToolFailure, "quickgo returned non-200", nil).
			WithContext("status", resp.StatusCode).
			WithContext("url", endpoint).
			WithRecoverable(resp.StatusCode >= 500)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.New(errors.CodeParseError, "quickgo response decode failed", err)
	}
	return nil
}

// QuickGOTools exposes the client through the tool registry.
func QuickGOTools(c *QuickGOClient) []*Func {
	return []*Func{
		NewFunc("go_term", "Look up a Gene Ontology term definition by GO identifier",
			func(ctx context.Context, input any) (any, error) {
				id, err := stringInput(input, "id")
				if err != nil {
					return nil, err
				}
				return c.Term(ctx, id)
			}),
		NewFunc("go_search", "Fuzzy-search Gene Ontology terms by definition text",
			func(ctx context.Context, input any) (any, error) {
				q, err := stringInput(input, "query")
				if err != nil {
					return nil, err
				}
				return c.SearchByDefinition(ctx, q, 5)
			}),
	}
}

// stringInput accepts either a bare string or a map carrying the named key.
func stringInput(input any, key string) (string, error) {
	switch v := input.(type) {
	case string:
		return v, nil
	case map[string]any:
		if s, ok := v[key].(string); ok {
			return s, nil
		}
	}
	return "", errors.New(errors.CodeInvalidInput, "expected string input", nil).
		WithContext("key", key)
}
