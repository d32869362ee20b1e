package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/maesd-ai/maesd/pkg/errors"
	"github.com/maesd-ai/maesd/pkg/resilience"
)

// DefaultInterProEndpoint is the InterPro full-text search API.
const DefaultInterProEndpoint = "https://www.ebi.ac.uk/interpro/api/search/text"

// DomainHit is one normalized InterPro search result.
type DomainHit struct {
	Accession   string   `json:"accession"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	GOTerms     []string `json:"go_terms,omitempty"`
	Score       float64  `json:"score,omitempty"`
}

// InterProClient searches InterPro entries by free text.
type InterProClient struct {
	Endpoint string
	HTTP     *http.Client

	guard guard
}

// NewInterProClient creates a client against the public EBI endpoint.
func NewInterProClient() *InterProClient {
	return &InterProClient{
		Endpoint: DefaultInterProEndpoint,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
		guard:    newGuard("interpro"),
	}
}

type interProPayload struct {
	Results []struct {
		Metadata struct {
			Accession   string `json:"accession"`
			Name        string `json:"name"`
			Type        string `json:"type"`
			Description string `json:"description"`
			GOTerms     []struct {
				Identifier string `json:"identifier"`
			} `json:"go_terms"`
		} `json:"metadata"`
		ExtraFields struct {
			Score float64 `json:"score"`
		} `json:"extra_fields"`
	} `json:"results"`
}

// Search runs a text query and returns normalized hits, retrying server
// errors through the client's breaker.
func (c *InterProClient) Search(ctx context.Context, query string) ([]DomainHit, error) {
	return resilience.DoWithResult(ctx, c.guard.retry, func() ([]DomainHit, error) {
		var hits []DomainHit
		err := c.guard.call(ctx, func() error {
			var searchErr error
			hits, searchErr = c.search(ctx, query)
			return searchErr
		})
		return hits, err
	})
}

func (c *InterProClient) search(ctx context.Context, query string) ([]DomainHit, error) {
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, errors.New(errors.CodeInternal, "interpro query encode failed", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.New(errors.CodeInternal, "interpro request build failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.New(errors.CodeToolFailure, "interpro request failed", err).
			WithRecoverable(true)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.CodeToolFailure, "interpro returned non-200", nil).
			WithContext("status", resp.StatusCode).
			WithRecoverable(resp.StatusCode >= 500)
	}

	var payload interProPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.New(errors.CodeParseError, "interpro response decode failed", err)
	}

	hits := make([]DomainHit, 0, len(payload.Results))
	for _, item := range payload.Results {
		hit := DomainHit{
			Accession:   item.Metadata.Accession,
			Name:        item.Metadata.Name,
			Type:        item.Metadata.Type,
			Description: item.Metadata.Description,
			Score:       item.ExtraFields.Score,
		}
		for _, gt := range item.Metadata.GOTerms {
			if gt.Identifier != "" {
				hit.GOTerms = append(hit.GOTerms, gt.Identifier)
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// InterProTool exposes the client through the tool registry.
func InterProTool(c *InterProClient) *Func {
	return NewFunc("domain_search", "Full-text search of InterPro domain and family entries",
		func(ctx context.Context, input any) (any, error) {
			q, err := stringInput(input, "query")
			if err != nil {
				return nil, err
			}
			return c.Search(ctx, q)
		})
}
