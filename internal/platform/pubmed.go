// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package platform

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paper-search/internal/httputil"
	"github.com/pdiddy/paper-search/pkg/types"
)

// PubMed E-utilities endpoints. Declared as vars so tests can substitute
// an httptest server.
var (
	pubmedSearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedFetchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

// PubMedBackend queries PubMed through the NCBI E-utilities: esearch for
// matching PMIDs, then efetch for the article records.
type PubMedBackend struct {
	Client  *http.Client
	Limiter *httputil.Limiter
}

// Name returns the backend identifier.
func (b *PubMedBackend) Name() string { return "pubmed" }

// Search queries PubMed and returns standardized records.
func (b *PubMedBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.Paper, error) {
	q := joinQueryTerms(query)
	if q == "" {
		return nil, fmt.Errorf("empty PubMed query")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	ids, err := b.searchIDs(ctx, q, maxResults, cfg)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return b.fetchArticles(ctx, ids, cfg)
}

func (b *PubMedBackend) searchIDs(ctx context.Context, q string, maxResults int, cfg types.SearchConfig) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {q},
		"retmax":  {strconv.Itoa(maxResults)},
		"retmode": {"xml"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pubmedSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	if err := b.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("PubMed esearch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PubMed esearch returned HTTP %d", resp.StatusCode)
	}

	var sr pubmedSearchResult
	if err := xml.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing PubMed esearch response: %w", err)
	}
	return sr.IDs, nil
}

func (b *PubMedBackend) fetchArticles(ctx context.Context, ids []string, cfg types.SearchConfig) ([]types.Paper, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pubmedFetchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	if err := b.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("PubMed efetch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PubMed efetch returned HTTP %d", resp.StatusCode)
	}

	var set pubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("parsing PubMed efetch response: %w", err)
	}

	var papers []types.Paper
	for _, a := range set.Articles {
		papers = append(papers, parsePubmedArticle(a))
	}
	return papers, nil
}

func parsePubmedArticle(a pubmedArticle) types.Paper {
	p := types.Paper{
		PaperID:  a.PMID,
		Title:    strings.TrimSpace(a.Article.Title),
		Abstract: strings.TrimSpace(strings.Join(a.Article.Abstract.Text, " ")),
		URL:      "https://pubmed.ncbi.nlm.nih.gov/" + a.PMID + "/",
		Source:   "pubmed",
	}

	for _, au := range a.Article.Authors {
		switch {
		case au.LastName != "" && au.ForeName != "":
			p.Authors = append(p.Authors, au.ForeName+" "+au.LastName)
		case au.LastName != "":
			p.Authors = append(p.Authors, au.LastName)
		case au.CollectiveName != "":
			p.Authors = append(p.Authors, au.CollectiveName)
		}
	}

	for _, id := range a.ArticleIDs {
		if id.Type == "doi" {
			p.DOI = id.Value
		}
	}

	for _, kw := range a.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			p.Keywords = append(p.Keywords, kw)
		}
	}

	if a.Article.Journal.Title != "" {
		p.Extra = map[string]any{"journal": a.Article.Journal.Title}
	}

	p.PublishedDate = parsePubmedDate(a.Article.Journal.PubDate)
	return p
}

// pubmedMonths maps the month spellings PubMed uses to month numbers.
var pubmedMonths = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// parsePubmedDate converts a PubDate element to a time. PubMed dates are
// frequently partial; a missing month or day defaults to 1 and a missing
// year yields the zero time.
func parsePubmedDate(d pubmedPubDate) time.Time {
	year, err := strconv.Atoi(d.Year)
	if err != nil || year == 0 {
		return time.Time{}
	}

	month := time.January
	if m, err := strconv.Atoi(d.Month); err == nil && m >= 1 && m <= 12 {
		month = time.Month(m)
	} else if m, ok := pubmedMonths[strings.ToLower(d.Month)]; ok {
		month = m
	}

	day := 1
	if v, err := strconv.Atoi(d.Day); err == nil && v >= 1 && v <= 31 {
		day = v
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// PubMed E-utilities XML structures.
type pubmedSearchResult struct {
	XMLName xml.Name `xml:"eSearchResult"`
	IDs     []string `xml:"IdList>Id"`
}

type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID       string             `xml:"MedlineCitation>PMID"`
	Article    pubmedArticleData  `xml:"MedlineCitation>Article"`
	Keywords   []string           `xml:"MedlineCitation>KeywordList>Keyword"`
	ArticleIDs []pubmedArticleID  `xml:"PubmedData>ArticleIdList>ArticleId"`
}

type pubmedArticleData struct {
	Title    string          `xml:"ArticleTitle"`
	Abstract pubmedAbstract  `xml:"Abstract"`
	Authors  []pubmedAuthor  `xml:"AuthorList>Author"`
	Journal  pubmedJournal   `xml:"Journal"`
}

type pubmedAbstract struct {
	Text []string `xml:"AbstractText"`
}

type pubmedAuthor struct {
	LastName       string `xml:"LastName"`
	ForeName       string `xml:"ForeName"`
	CollectiveName string `xml:"CollectiveName"`
}

type pubmedJournal struct {
	Title   string        `xml:"Title"`
	PubDate pubmedPubDate `xml:"JournalIssue>PubDate"`
}

type pubmedPubDate struct {
	Year  string `xml:"Year"`
	Month string `xml:"Month"`
	Day   string `xml:"Day"`
}

type pubmedArticleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}
