// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/paper-search/internal/httputil"
	"github.com/pdiddy/paper-search/pkg/types"
)

// crossrefAPIBase is the Crossref works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

// CrossrefBackend queries the Crossref REST API.
type CrossrefBackend struct {
	Client  *http.Client
	Limiter *httputil.Limiter
}

// Name returns the backend identifier.
func (b *CrossrefBackend) Name() string { return "crossref" }

// Search queries the Crossref API and returns standardized records.
func (b *CrossrefBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.Paper, error) {
	q := joinQueryTerms(query)
	if q == "" {
		return nil, fmt.Errorf("empty Crossref query")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	params := url.Values{
		"query": {q},
		"rows":  {fmt.Sprintf("%d", maxResults)},
	}

	var filters []string
	if !query.DateFrom.IsZero() {
		filters = append(filters, "from-pub-date:"+query.DateFrom.Format("2006-01-02"))
	}
	if !query.DateTo.IsZero() {
		filters = append(filters, "until-pub-date:"+query.DateTo.Format("2006-01-02"))
	}
	if len(filters) > 0 {
		params.Set("filter", strings.Join(filters, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crossrefAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	if err := b.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Crossref API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Crossref API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing Crossref response: %w", err)
	}

	var papers []types.Paper
	for _, item := range cr.Message.Items {
		p := types.Paper{
			PaperID:   item.DOI,
			Title:     firstOf(item.Title),
			Abstract:  stripJATS(item.Abstract),
			DOI:       item.DOI,
			URL:       item.URL,
			Source:    "crossref",
			Citations: item.IsReferencedByCount,
		}

		for _, a := range item.Author {
			switch {
			case a.Given != "" && a.Family != "":
				p.Authors = append(p.Authors, a.Given+" "+a.Family)
			case a.Family != "":
				p.Authors = append(p.Authors, a.Family)
			case a.Name != "":
				p.Authors = append(p.Authors, a.Name)
			}
		}

		p.Categories = append(p.Categories, item.Subject...)

		if journal := firstOf(item.ContainerTitle); journal != "" {
			p.Extra = map[string]any{"journal": journal, "type": item.Type}
		} else if item.Type != "" {
			p.Extra = map[string]any{"type": item.Type}
		}

		p.PublishedDate = crossrefDate(item.Published.DateParts)
		if p.PublishedDate.IsZero() {
			p.PublishedDate = crossrefDate(item.Created.DateParts)
		}

		papers = append(papers, p)
	}
	return papers, nil
}

// jatsTagPattern matches the JATS XML tags Crossref embeds in abstracts.
var jatsTagPattern = regexp.MustCompile(`</?jats:[^>]*>|</?[a-z]+:?[a-z]*>`)

// stripJATS removes JATS markup from a Crossref abstract and collapses
// the remaining whitespace.
func stripJATS(s string) string {
	if s == "" {
		return ""
	}
	s = jatsTagPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// crossrefDate converts a Crossref date-parts array ([[year, month, day]])
// to a time. Missing parts default to 1.
func crossrefDate(parts [][]int) time.Time {
	if len(parts) == 0 || len(parts[0]) == 0 || parts[0][0] == 0 {
		return time.Time{}
	}
	p := parts[0]
	month, day := 1, 1
	if len(p) > 1 && p[1] >= 1 && p[1] <= 12 {
		month = p[1]
	}
	if len(p) > 2 && p[2] >= 1 && p[2] <= 31 {
		day = p[2]
	}
	return time.Date(p[0], time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func firstOf(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

// Crossref REST API JSON structures.
type crossrefResponse struct {
	Message crossrefMessage `json:"message"`
}

type crossrefMessage struct {
	TotalResults int            `json:"total-results"`
	Items        []crossrefItem `json:"items"`
}

type crossrefItem struct {
	DOI                 string           `json:"DOI"`
	Title               []string         `json:"title"`
	Abstract            string           `json:"abstract"`
	URL                 string           `json:"URL"`
	Type                string           `json:"type"`
	Subject             []string         `json:"subject"`
	ContainerTitle      []string         `json:"container-title"`
	IsReferencedByCount int              `json:"is-referenced-by-count"`
	Author              []crossrefAuthor `json:"author"`
	Published           crossrefDateF    `json:"published"`
	Created             crossrefDateF    `json:"created"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

type crossrefDateF struct {
	DateParts [][]int `json:"date-parts"`
}
