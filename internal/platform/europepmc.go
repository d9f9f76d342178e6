// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/paper-search/internal/httputil"
	"github.com/pdiddy/paper-search/pkg/types"
)

// europePMCSearchBase is the Europe PMC REST search endpoint. Declared as
// a var so tests can substitute an httptest server.
var europePMCSearchBase = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"

// EuropePMCBackend queries the Europe PMC REST API, which covers PubMed
// abstracts, PMC full-text articles, and preprints.
type EuropePMCBackend struct {
	Client  *http.Client
	Limiter *httputil.Limiter
}

// Name returns the backend identifier.
func (b *EuropePMCBackend) Name() string { return "europe_pmc" }

// Search queries Europe PMC and returns standardized records.
func (b *EuropePMCBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.Paper, error) {
	q := joinQueryTerms(query)
	if q == "" {
		return nil, fmt.Errorf("empty Europe PMC query")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}
	if maxResults > 1000 {
		maxResults = 1000
	}

	if !query.DateFrom.IsZero() || !query.DateTo.IsZero() {
		from := "1900-01-01"
		to := "3000-12-31"
		if !query.DateFrom.IsZero() {
			from = query.DateFrom.Format("2006-01-02")
		}
		if !query.DateTo.IsZero() {
			to = query.DateTo.Format("2006-01-02")
		}
		q = fmt.Sprintf("(%s) AND FIRST_PDATE:[%s TO %s]", q, from, to)
	}

	params := url.Values{
		"query":      {q},
		"resultType": {"core"},
		"format":     {"json"},
		"pageSize":   {fmt.Sprintf("%d", maxResults)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, europePMCSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	if err := b.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Europe PMC API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Europe PMC API returned HTTP %d", resp.StatusCode)
	}

	var er europePMCResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing Europe PMC response: %w", err)
	}

	var papers []types.Paper
	for _, item := range er.ResultList.Results {
		papers = append(papers, parseEuropePMCResult(item))
	}
	return papers, nil
}

func parseEuropePMCResult(item europePMCResult) types.Paper {
	paperID := item.PMCID
	if paperID == "" {
		paperID = item.PMID
	}
	if paperID == "" {
		paperID = item.DOI
	}
	if paperID == "" {
		paperID = item.ID
	}

	p := types.Paper{
		PaperID:   paperID,
		Title:     item.Title,
		Abstract:  item.AbstractText,
		DOI:       item.DOI,
		Source:    "europe_pmc",
		Citations: item.CitedByCount,
	}

	switch {
	case item.PMCID != "":
		p.URL = "https://europepmc.org/article/PMC/" + item.PMCID
		p.PDFURL = "https://europepmc.org/articles/" + item.PMCID + "?pdf=render"
	case item.PMID != "":
		p.URL = "https://europepmc.org/abstract/MED/" + item.PMID
	case item.DOI != "":
		p.URL = "https://doi.org/" + item.DOI
	}

	for _, a := range item.AuthorList.Authors {
		if a.FullName != "" {
			p.Authors = append(p.Authors, a.FullName)
		}
	}

	for _, kws := range item.KeywordList.Keywords {
		if kws != "" {
			p.Keywords = append(p.Keywords, kws)
		}
	}

	extra := map[string]any{}
	if item.JournalInfo.Journal.Title != "" {
		extra["journal"] = item.JournalInfo.Journal.Title
	}
	if item.PMID != "" {
		extra["pubmed_id"] = item.PMID
	}
	if len(extra) > 0 {
		p.Extra = extra
	}

	if item.FirstPublicationDate != "" {
		if t, err := time.Parse("2006-01-02", item.FirstPublicationDate); err == nil {
			p.PublishedDate = t
		}
	}

	return p
}

// Europe PMC REST API JSON structures.
type europePMCResponse struct {
	HitCount   int                 `json:"hitCount"`
	ResultList europePMCResultList `json:"resultList"`
}

type europePMCResultList struct {
	Results []europePMCResult `json:"result"`
}

type europePMCResult struct {
	ID                   string                `json:"id"`
	PMID                 string                `json:"pmid"`
	PMCID                string                `json:"pmcid"`
	DOI                  string                `json:"doi"`
	Title                string                `json:"title"`
	AbstractText         string                `json:"abstractText"`
	FirstPublicationDate string                `json:"firstPublicationDate"`
	CitedByCount         int                   `json:"citedByCount"`
	AuthorList           europePMCAuthorList   `json:"authorList"`
	KeywordList          europePMCKeywordList  `json:"keywordList"`
	JournalInfo          europePMCJournalInfo  `json:"journalInfo"`
}

type europePMCAuthorList struct {
	Authors []europePMCAuthor `json:"author"`
}

type europePMCAuthor struct {
	FullName string `json:"fullName"`
}

type europePMCKeywordList struct {
	Keywords []string `json:"keyword"`
}

type europePMCJournalInfo struct {
	Journal europePMCJournal `json:"journal"`
}

type europePMCJournal struct {
	Title string `json:"title"`
}
