// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const pubmedSearchFixture = `<?xml version="1.0"?>
<eSearchResult>
  <Count>2</Count>
  <IdList>
    <Id>31452104</Id>
    <Id>28987654</Id>
  </IdList>
</eSearchResult>`

const pubmedFetchFixture = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>31452104</PMID>
      <Article>
        <Journal>
          <JournalIssue><PubDate><Year>2019</Year><Month>Aug</Month><Day>15</Day></PubDate></JournalIssue>
          <Title>Nature Medicine</Title>
        </Journal>
        <ArticleTitle>CRISPR screens in cancer models.</ArticleTitle>
        <Abstract>
          <AbstractText>Genome-wide screens reveal dependencies.</AbstractText>
        </Abstract>
        <AuthorList>
          <Author><LastName>Doench</LastName><ForeName>John</ForeName></Author>
          <Author><CollectiveName>The Screen Consortium</CollectiveName></Author>
        </AuthorList>
      </Article>
      <KeywordList><Keyword>CRISPR</Keyword><Keyword> cancer </Keyword></KeywordList>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList>
        <ArticleId IdType="pubmed">31452104</ArticleId>
        <ArticleId IdType="doi">10.1038/s41591-019-0001-1</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
</PubmedArticleSet>`

func TestPubMedSearchTwoPhase(t *testing.T) {
	var searchCalls, fetchCalls int

	searchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		searchCalls++
		if got := r.URL.Query().Get("db"); got != "pubmed" {
			t.Errorf("esearch db = %q", got)
		}
		if got := r.URL.Query().Get("term"); got != "crispr screening" {
			t.Errorf("esearch term = %q", got)
		}
		fmt.Fprint(w, pubmedSearchFixture)
	}))
	defer searchSrv.Close()

	fetchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetchCalls++
		if got := r.URL.Query().Get("id"); got != "31452104,28987654" {
			t.Errorf("efetch id = %q", got)
		}
		fmt.Fprint(w, pubmedFetchFixture)
	}))
	defer fetchSrv.Close()

	oldSearch, oldFetch := pubmedSearchBase, pubmedFetchBase
	pubmedSearchBase, pubmedFetchBase = searchSrv.URL, fetchSrv.URL
	defer func() { pubmedSearchBase, pubmedFetchBase = oldSearch, oldFetch }()

	b := &PubMedBackend{Client: searchSrv.Client()}
	papers, err := b.Search(context.Background(), Query{FreeText: "crispr screening"}, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if searchCalls != 1 || fetchCalls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", searchCalls, fetchCalls)
	}
	if len(papers) != 1 {
		t.Fatalf("len(papers) = %d, want 1", len(papers))
	}

	p := papers[0]
	if p.PaperID != "31452104" {
		t.Errorf("PaperID = %q", p.PaperID)
	}
	if p.Title != "CRISPR screens in cancer models." {
		t.Errorf("Title = %q", p.Title)
	}
	if p.DOI != "10.1038/s41591-019-0001-1" {
		t.Errorf("DOI = %q", p.DOI)
	}
	if len(p.Authors) != 2 || p.Authors[0] != "John Doench" || p.Authors[1] != "The Screen Consortium" {
		t.Errorf("Authors = %v", p.Authors)
	}
	if len(p.Keywords) != 2 || p.Keywords[1] != "cancer" {
		t.Errorf("Keywords = %v", p.Keywords)
	}
	if p.URL != "https://pubmed.ncbi.nlm.nih.gov/31452104/" {
		t.Errorf("URL = %q", p.URL)
	}
	if got := p.Extra["journal"]; got != "Nature Medicine" {
		t.Errorf("Extra[journal] = %v", got)
	}
	want := time.Date(2019, time.August, 15, 0, 0, 0, 0, time.UTC)
	if !p.PublishedDate.Equal(want) {
		t.Errorf("PublishedDate = %v, want %v", p.PublishedDate, want)
	}
}

func TestPubMedSearchNoHits(t *testing.T) {
	searchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<eSearchResult><Count>0</Count><IdList></IdList></eSearchResult>`)
	}))
	defer searchSrv.Close()

	old := pubmedSearchBase
	pubmedSearchBase = searchSrv.URL
	defer func() { pubmedSearchBase = old }()

	b := &PubMedBackend{Client: searchSrv.Client()}
	papers, err := b.Search(context.Background(), Query{FreeText: "nothing"}, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(papers) != 0 {
		t.Errorf("len(papers) = %d, want 0", len(papers))
	}
}

func TestParsePubmedDate(t *testing.T) {
	tests := []struct {
		name string
		in   pubmedPubDate
		want time.Time
	}{
		{"full numeric", pubmedPubDate{Year: "2020", Month: "3", Day: "14"}, time.Date(2020, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"month name", pubmedPubDate{Year: "2019", Month: "Aug"}, time.Date(2019, 8, 1, 0, 0, 0, 0, time.UTC)},
		{"year only", pubmedPubDate{Year: "2018"}, time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"no year", pubmedPubDate{Month: "Jan"}, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parsePubmedDate(tt.in); !got.Equal(tt.want) {
				t.Errorf("parsePubmedDate() = %v, want %v", got, tt.want)
			}
		})
	}
}
