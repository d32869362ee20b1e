package tools

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/maesd-ai/maesd/pkg/errors"
)

const (
	// DefaultExPASyBase serves per-EC enzyme pages.
	DefaultExPASyBase = "https://enzyme.expasy.org/EC"
	// DefaultKEGGBase serves the flat-file enzyme search.
	DefaultKEGGBase = "https://rest.kegg.jp"
)

var (
	ecPrefixRe = regexp.MustCompile(`(?i)^\s*EC\s*`)
	ecFormatRe = regexp.MustCompile(`^([\dx-]+\.){3}[\dx-]+$`)
	ecPartRe   = regexp.MustCompile(`^[\dx-]+$`)
)

// NormalizeEC strips the EC/ec prefix and surrounding whitespace from an
// enzyme classification number.
func NormalizeEC(ec string) string {
	return strings.TrimSpace(ecPrefixRe.ReplaceAllString(ec, ""))
}

// ValidateEC reports whether ec is a well-formed EC number. Wildcards (x or
// -) are allowed, but once a level is wildcarded every deeper level must be
// wildcarded too: 3.1.-.- is valid, 3.-.1.- is not.
func ValidateEC(ec string) bool {
	clean := NormalizeEC(ec)
	if !ecFormatRe.MatchString(clean) {
		return false
	}
	parts := strings.Split(clean, ".")
	for i, part := range parts {
		if !ecPartRe.MatchString(part) {
			return false
		}
		if part == "x" || part == "-" {
			for _, rest := range parts[i+1:] {
				if rest != "x" && rest != "-" {
					return false
				}
			}
			break
		}
	}
	return true
}

// ECInfo describes an enzyme class or a concrete enzyme entry.
type ECInfo struct {
	ECNumber         string   `json:"ec_number"`
	Definition       string   `json:"definition,omitempty"`
	AcceptedName     string   `json:"accepted_name,omitempty"`
	AlternativeNames []string `json:"alternative_names,omitempty"`
	Reactions        []string `json:"reactions,omitempty"`
	Comments         []string `json:"comments,omitempty"`
}

// ECResult is one hit from the KEGG enzyme search.
type ECResult struct {
	ECNumber    string `json:"ec_number"`
	Description string `json:"description"`
}

// EnzymeClient resolves EC numbers against ExPASy and searches KEGG by
// annotation text.
type EnzymeClient struct {
	ExPASyBase string
	KEGGBase   string
	HTTP       *http.Client

	// separate breakers: an ExPASy outage must not block KEGG searches
	expasyGuard guard
	keggGuard   guard
}

// NewEnzymeClient creates a client against the public endpoints.
func NewEnzymeClient() *EnzymeClient {
	return &EnzymeClient{
		ExPASyBase:  DefaultExPASyBase,
		KEGGBase:    DefaultKEGGBase,
		HTTP:        &http.Client{Timeout: 15 * time.Second},
		expasyGuard: newGuard("expasy"),
		keggGuard:   newGuard("kegg"),
	}
}

// Info fetches and scrapes the ExPASy page for an EC number. Wildcard
// numbers resolve to the classification definition; concrete numbers
// resolve to the full entry.
func (c *EnzymeClient) Info(ctx context.Context, ec string) (*ECInfo, error) {
	ec = NormalizeEC(ec)
	if !ValidateEC(ec) {
		return nil, errors.New(errors.CodeInvalidInput, "malformed EC number", nil).
			WithContext("ec", ec)
	}

	endpoint := fmt.Sprintf("%s/%s", c.ExPASyBase, url.PathEscape(ec))
	var doc *goquery.Document
	err := c.expasyGuard.do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return errors.New(errors.CodeInternal, "expasy request build failed", err)
		}
		req.Header.Set("User-Agent", "maesd/1.0")

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return errors.New(errors.CodeToolFailure, "expasy request failed", err).
				WithRecoverable(true)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return errors.New(errors.CodeToolFailure, "expasy returned non-200", nil).
				WithContext("status", resp.StatusCode).
				WithRecoverable(resp.StatusCode >= 500)
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return errors.New(errors.CodeParseError, "expasy page parse failed", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if strings.Contains(doc.Text(), "No such enzyme") {
		return nil, errors.New(errors.CodeNotFound, "EC number does not exist", nil).
			WithContext("ec", ec)
	}

	if strings.Contains(ec, "-") || strings.Contains(ec, "x") {
		return c.scrapeClass(doc, ec)
	}
	return c.scrapeEntry(doc, ec)
}

// scrapeClass extracts a classification-level definition: the text that
// follows the anchor linking the EC number itself.
func (c *EnzymeClient) scrapeClass(doc *goquery.Document, ec string) (*ECInfo, error) {
	var definition string
	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if href != ec {
			return true
		}
		if node := sel.Get(0); node != nil && node.NextSibling != nil {
			definition = strings.TrimSpace(strings.TrimPrefix(
				strings.TrimSpace(node.NextSibling.Data), ":"))
		}
		return false
	})
	if definition == "" {
		return nil, errors.New(errors.CodeNotFound, "classification definition not found", nil).
			WithContext("ec", ec)
	}
	return &ECInfo{ECNumber: ec, Definition: definition}, nil
}

func (c *EnzymeClient) scrapeEntry(doc *goquery.Document, ec string) (*ECInfo, error) {
	info := &ECInfo{ECNumber: ec, AcceptedName: "N/A"}

	table := doc.Find("table.type-1").First()
	table.Find("th").Each(func(_ int, th *goquery.Selection) {
		td := th.NextFiltered("td")
		if td.Length() == 0 {
			td = th.Parent().Find("td").First()
		}
		text := strings.TrimSpace(th.Text())
		switch text {
		case "Accepted Name":
			info.AcceptedName = squashSpace(td.Text())
		case "Alternative Name(s)":
			td.Find("strong").Each(func(_ int, s *goquery.Selection) {
				if name := strings.TrimSpace(s.Text()); name != "" {
					info.AlternativeNames = append(info.AlternativeNames, name)
				}
			})
		case "Reaction catalysed":
			if ul := td.Find("ul.ca"); ul.Length() > 0 {
				ul.Find("li").Each(func(_ int, li *goquery.Selection) {
					info.Reactions = append(info.Reactions, squashSpace(li.Text()))
				})
			} else {
				info.Reactions = append(info.Reactions, squashSpace(td.Text()))
			}
		case "Comment(s)":
			if ul := td.Find("ul.cc"); ul.Length() > 0 {
				ul.Find("li").Each(func(_ int, li *goquery.Selection) {
					info.Comments = append(info.Comments, squashSpace(li.Text()))
				})
			} else {
				info.Comments = append(info.Comments, squashSpace(td.Text()))
			}
		}
	})

	return info, nil
}

// SearchByAnnotation queries the KEGG enzyme database by free-text keyword.
func (c *EnzymeClient) SearchByAnnotation(ctx context.Context, keyword string) ([]ECResult, error) {
	endpoint := fmt.Sprintf("%s/find/enzyme/%s", c.KEGGBase, url.PathEscape(keyword))
	var results []ECResult
	err := c.keggGuard.do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return errors.New(errors.CodeInternal, "kegg request build failed", err)
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return errors.New(errors.CodeToolFailure, "kegg request failed", err).
				WithRecoverable(true)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return errors.New(errors.CodeToolFailure, "kegg returned non-200", nil).
				WithContext("status", resp.StatusCode).
				WithRecoverable(resp.StatusCode >= 500)
		}

		results = results[:0]
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			id, desc, ok := strings.Cut(line, "\t")
			if !ok {
				continue
			}
			results = append(results, ECResult{
				ECNumber:    strings.TrimSpace(strings.TrimPrefix(id, "ec:")),
				Description: strings.TrimSpace(desc),
			})
		}
		if err := scanner.Err(); err != nil {
			return errors.New(errors.CodeParseError, "kegg response read failed", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// EnzymeTools exposes the client through the tool registry.
func EnzymeTools(c *EnzymeClient) []*Func {
	return []*Func{
		NewFunc("ec_info", "Resolve an EC number to its ExPASy enzyme entry or class definition",
			func(ctx context.Context, input any) (any, error) {
				ec, err := stringInput(input, "ec")
				if err != nil {
					return nil, err
				}
				return c.Info(ctx, ec)
			}),
		NewFunc("ec_search", "Search KEGG enzyme annotations by keyword",
			func(ctx context.Context, input any) (any, error) {
				q, err := stringInput(input, "query")
				if err != nil {
					return nil, err
				}
				return c.SearchByAnnotation(ctx, q)
			}),
	}
}

var squashRe = regexp.MustCompile(`\s+`)

func squashSpace(s string) string {
	return strings.TrimSpace(squashRe.ReplaceAllString(s, " "))
}
