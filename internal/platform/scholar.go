// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pdiddy/paper-search/internal/httputil"
	"github.com/pdiddy/paper-search/pkg/types"
)

// scholarSearchBase is the Google Scholar results page. Declared as a var
// so tests can substitute an httptest server.
var scholarSearchBase = "https://scholar.google.com/scholar"

// ScholarBackend scrapes Google Scholar result pages. Scholar has no API,
// so this backend is best-effort: a layout change or a rate-limit
// challenge page degrades to an error that the aggregator reports as a
// warning.
type ScholarBackend struct {
	Client  *http.Client
	Limiter *httputil.Limiter
}

// Name returns the backend identifier.
func (b *ScholarBackend) Name() string { return "scholar" }

// Search scrapes a Google Scholar results page and returns standardized
// records.
func (b *ScholarBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.Paper, error) {
	q := joinQueryTerms(query)
	if q == "" {
		return nil, fmt.Errorf("empty Scholar query")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	params := url.Values{
		"q":  {q},
		"hl": {"en"},
	}
	if !query.DateFrom.IsZero() {
		params.Set("as_ylo", strconv.Itoa(query.DateFrom.Year()))
	}
	if !query.DateTo.IsZero() {
		params.Set("as_yhi", strconv.Itoa(query.DateTo.Year()))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scholarSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	if err := b.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Scholar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Scholar returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing Scholar HTML: %w", err)
	}

	if doc.Find("#gs_captcha_f").Length() > 0 {
		return nil, fmt.Errorf("Scholar served a CAPTCHA challenge")
	}

	var papers []types.Paper
	doc.Find(".gs_ri").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(papers) >= maxResults {
			return false
		}
		p, ok := parseScholarResult(s)
		if ok {
			papers = append(papers, p)
		}
		return true
	})
	return papers, nil
}

// scholarYearPattern finds a plausible publication year in the byline.
var scholarYearPattern = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)

// scholarCitedPattern extracts the count from a "Cited by N" link.
var scholarCitedPattern = regexp.MustCompile(`Cited by (\d+)`)

// parseScholarResult extracts one record from a .gs_ri result block.
func parseScholarResult(s *goquery.Selection) (types.Paper, bool) {
	titleLink := s.Find("h3.gs_rt a").First()
	title := strings.TrimSpace(titleLink.Text())
	if title == "" {
		// Citation-only entries render the title without a link.
		title = strings.TrimSpace(s.Find("h3.gs_rt").Text())
		title = strings.TrimSpace(strings.TrimPrefix(title, "[CITATION][C]"))
	}
	if title == "" {
		return types.Paper{}, false
	}

	href, _ := titleLink.Attr("href")

	p := types.Paper{
		Title:    title,
		Abstract: strings.TrimSpace(s.Find(".gs_rs").Text()),
		URL:      href,
		Source:   "scholar",
	}
	if href != "" {
		p.PaperID = href
	}

	// The .gs_a byline reads "A Author, B Author - Venue, 2021 - domain".
	byline := strings.TrimSpace(s.Find(".gs_a").Text())
	if byline != "" {
		authorPart := byline
		if idx := strings.Index(byline, " - "); idx >= 0 {
			authorPart = byline[:idx]
		}
		for _, name := range strings.Split(authorPart, ",") {
			name = strings.TrimSpace(strings.TrimSuffix(name, "…"))
			if name != "" {
				p.Authors = append(p.Authors, name)
			}
		}
		if m := scholarYearPattern.FindString(byline); m != "" {
			if year, err := strconv.Atoi(m); err == nil {
				p.PublishedDate = time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
			}
		}
	}

	s.Find(".gs_fl a").Each(func(_ int, a *goquery.Selection) {
		if m := scholarCitedPattern.FindStringSubmatch(a.Text()); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				p.Citations = n
			}
		}
	})

	if pdfLink := s.Parent().Find(".gs_or_ggsm a").First(); pdfLink.Length() > 0 {
		if pdfHref, ok := pdfLink.Attr("href"); ok {
			p.PDFURL = pdfHref
		}
	}

	return p, true
}
