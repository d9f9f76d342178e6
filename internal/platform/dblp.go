// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paper-search/internal/httputil"
	"github.com/pdiddy/paper-search/pkg/types"
)

// dblpSearchBase is the DBLP publication search endpoint. Declared as a
// var so tests can substitute an httptest server.
var dblpSearchBase = "https://dblp.org/search/publ/api"

// DBLPBackend queries the DBLP computer science bibliography.
type DBLPBackend struct {
	Client  *http.Client
	Limiter *httputil.Limiter
}

// Name returns the backend identifier.
func (b *DBLPBackend) Name() string { return "dblp" }

// Search queries the DBLP API and returns standardized records.
func (b *DBLPBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.Paper, error) {
	q := joinQueryTerms(query)
	if q == "" {
		return nil, fmt.Errorf("empty DBLP query")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}
	if maxResults > 1000 {
		maxResults = 1000
	}

	params := url.Values{
		"q":      {q},
		"h":      {strconv.Itoa(maxResults)},
		"format": {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dblpSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	if err := b.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("DBLP API request: %w", err)
	}
	defer resp.Body.Close()

	// DBLP answers 204 when the query matches nothing.
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DBLP API returned HTTP %d", resp.StatusCode)
	}

	var dr dblpResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("parsing DBLP response: %w", err)
	}

	var papers []types.Paper
	for _, hit := range dr.Result.Hits.Hits {
		info := hit.Info
		if info.Title == "" {
			continue
		}

		p := types.Paper{
			PaperID: info.Key,
			Title:   strings.TrimSuffix(info.Title, "."),
			URL:     "https://dblp.org/rec/" + info.Key + ".html",
			Source:  "dblp",
		}

		// The ee field often carries a DOI link.
		if strings.Contains(info.EE, "doi.org/") {
			p.DOI = info.EE[strings.Index(info.EE, "doi.org/")+len("doi.org/"):]
		}

		for _, a := range info.Authors.List {
			if a != "" {
				p.Authors = append(p.Authors, a)
			}
		}
		if info.Venue != "" {
			p.Categories = append(p.Categories, info.Venue)
		}

		extra := map[string]any{"dblp_key": info.Key}
		if info.Type != "" {
			extra["type"] = info.Type
		}
		if info.Venue != "" {
			extra["venue"] = info.Venue
		}
		if info.Pages != "" {
			extra["pages"] = info.Pages
		}
		p.Extra = extra

		if year, convErr := strconv.Atoi(info.Year); convErr == nil && year > 0 {
			p.PublishedDate = time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		}

		papers = append(papers, p)
	}
	return papers, nil
}

// DBLP search API JSON structures. The authors field is irregular: a
// single author arrives as an object, several as an array, and each
// author may be a bare string or an object with a "text" field.
type dblpResponse struct {
	Result dblpResult `json:"result"`
}

type dblpResult struct {
	Hits dblpHits `json:"hits"`
}

type dblpHits struct {
	Total string    `json:"@total"`
	Hits  []dblpHit `json:"hit"`
}

type dblpHit struct {
	Info dblpInfo `json:"info"`
}

type dblpInfo struct {
	Key     string      `json:"key"`
	Title   string      `json:"title"`
	Venue   string      `json:"venue"`
	Year    string      `json:"year"`
	Type    string      `json:"type"`
	Pages   string      `json:"pages"`
	EE      string      `json:"ee"`
	Authors dblpAuthors `json:"authors"`
}

type dblpAuthors struct {
	List []string
}

// UnmarshalJSON normalizes DBLP's flexible author encoding into a plain
// list of names.
func (a *dblpAuthors) UnmarshalJSON(data []byte) error {
	var wrapper struct {
		Author json.RawMessage `json:"author"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	if len(wrapper.Author) == 0 {
		return nil
	}

	var entries []json.RawMessage
	if wrapper.Author[0] == '[' {
		if err := json.Unmarshal(wrapper.Author, &entries); err != nil {
			return err
		}
	} else {
		entries = []json.RawMessage{wrapper.Author}
	}

	for _, entry := range entries {
		var name string
		if err := json.Unmarshal(entry, &name); err == nil {
			a.List = append(a.List, name)
			continue
		}
		var obj struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(entry, &obj); err != nil {
			return err
		}
		if obj.Text != "" {
			a.List = append(a.List, obj.Text)
		}
	}
	return nil
}
