// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

// --- Author decoding ---

func TestDBLPAuthorsUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			"array of objects",
			`{"author": [{"@pid": "v/Vaswani", "text": "Ashish Vaswani"}, {"@pid": "s/Shazeer", "text": "Noam Shazeer"}]}`,
			[]string{"Ashish Vaswani", "Noam Shazeer"},
		},
		{
			"single object",
			`{"author": {"@pid": "v/Vaswani", "text": "Ashish Vaswani"}}`,
			[]string{"Ashish Vaswani"},
		},
		{
			"array of strings",
			`{"author": ["Ashish Vaswani", "Noam Shazeer"]}`,
			[]string{"Ashish Vaswani", "Noam Shazeer"},
		},
		{
			"single string",
			`{"author": "Ashish Vaswani"}`,
			[]string{"Ashish Vaswani"},
		},
		{"missing field", `{}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a dblpAuthors
			if err := json.Unmarshal([]byte(tt.in), &a); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if !reflect.DeepEqual(a.List, tt.want) {
				t.Errorf("List = %v, want %v", a.List, tt.want)
			}
		})
	}
}

// --- Response parsing ---

const dblpFixture = `{
  "result": {
    "hits": {
      "@total": "1",
      "hit": [{
        "info": {
          "key": "conf/nips/VaswaniSPUJGKP17",
          "title": "Attention is All you Need.",
          "venue": "NeurIPS",
          "year": "2017",
          "type": "Conference and Workshop Papers",
          "pages": "5998-6008",
          "ee": "https://doi.org/10.5555/3295222.3295349",
          "authors": {"author": [{"@pid": "v", "text": "Ashish Vaswani"}]}
        }
      }]
    }
  }
}`

func TestDBLPSearchParsesResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("format param = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, dblpFixture)
	}))
	defer ts.Close()

	old := dblpSearchBase
	dblpSearchBase = ts.URL
	defer func() { dblpSearchBase = old }()

	b := &DBLPBackend{Client: ts.Client()}
	papers, err := b.Search(context.Background(), Query{FreeText: "attention"}, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("len(papers) = %d, want 1", len(papers))
	}

	p := papers[0]
	if p.PaperID != "conf/nips/VaswaniSPUJGKP17" {
		t.Errorf("PaperID = %q", p.PaperID)
	}
	// Trailing period is stripped.
	if p.Title != "Attention is All you Need" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.DOI != "10.5555/3295222.3295349" {
		t.Errorf("DOI = %q", p.DOI)
	}
	if p.URL != "https://dblp.org/rec/conf/nips/VaswaniSPUJGKP17.html" {
		t.Errorf("URL = %q", p.URL)
	}
	if len(p.Authors) != 1 || p.Authors[0] != "Ashish Vaswani" {
		t.Errorf("Authors = %v", p.Authors)
	}
	if got := p.Extra["venue"]; got != "NeurIPS" {
		t.Errorf("Extra[venue] = %v", got)
	}
	if p.PublishedDate.Year() != 2017 {
		t.Errorf("PublishedDate = %v", p.PublishedDate)
	}
	if p.Source != "dblp" {
		t.Errorf("Source = %q", p.Source)
	}
}

func TestDBLPSearchNoContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	old := dblpSearchBase
	dblpSearchBase = ts.URL
	defer func() { dblpSearchBase = old }()

	b := &DBLPBackend{Client: ts.Client()}
	papers, err := b.Search(context.Background(), Query{FreeText: "nothing"}, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(papers) != 0 {
		t.Errorf("len(papers) = %d, want 0", len(papers))
	}
}
