package dedup

import (
	"reflect"
	"testing"
	"time"

	"github.com/pdiddy/paper-search/pkg/types"
)

func TestMergeGroupFieldPolicy(t *testing.T) {
	early := time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2019, 11, 20, 0, 0, 0, 0, time.UTC)

	group := []types.Paper{
		{
			PaperID:       "2301.07041",
			Title:         "Attention Mechanisms",
			Authors:       []string{"A. Smith"},
			Abstract:      "Short.",
			PublishedDate: late,
			URL:           "https://arxiv.org/abs/2301.07041",
			PDFURL:        "https://arxiv.org/pdf/2301.07041",
			Source:        "arxiv",
			Categories:    []string{"cs.LG"},
			Citations:     10,
			References:    []string{"ref-a", "ref-b"},
			Extra:         map[string]any{"comment": "v2", "license": "cc-by"},
		},
		{
			PaperID:       "W1234",
			Title:         "Attention Mechanisms: A Survey",
			Authors:       []string{"Alice Smith", "Bob Jones"},
			Abstract:      "A much longer abstract with detail.",
			DOI:           "10.1/attn",
			PublishedDate: early,
			URL:           "https://openalex.org/W1234",
			Source:        "openalex",
			Categories:    []string{"cs.LG", "cs.CL"},
			Keywords:      []string{"attention"},
			Citations:     42,
			References:    []string{"ref-b", "ref-c"},
			Extra:         map[string]any{"comment": "indexed", "venue": "TMLR"},
		},
	}

	m := MergeGroup(group)

	if m.PaperID != "2301.07041" {
		t.Errorf("PaperID = %q, want first member's", m.PaperID)
	}
	if m.Title != "Attention Mechanisms: A Survey" {
		t.Errorf("Title = %q, want the longer one", m.Title)
	}
	if !reflect.DeepEqual(m.Authors, []string{"Alice Smith", "Bob Jones"}) {
		t.Errorf("Authors = %v, want the longer list", m.Authors)
	}
	if m.Abstract != "A much longer abstract with detail." {
		t.Errorf("Abstract = %q, want the longer one", m.Abstract)
	}
	if m.DOI != "10.1/attn" {
		t.Errorf("DOI = %q, want first non-empty", m.DOI)
	}
	if !m.PublishedDate.Equal(early) {
		t.Errorf("PublishedDate = %v, want the earliest", m.PublishedDate)
	}
	// "arxiv" sorts before "openalex", so its URLs win.
	if m.URL != "https://arxiv.org/abs/2301.07041" {
		t.Errorf("URL = %q, want the alphabetically-first source's", m.URL)
	}
	if m.PDFURL != "https://arxiv.org/pdf/2301.07041" {
		t.Errorf("PDFURL = %q, want the only non-empty one", m.PDFURL)
	}
	if m.Source != "arxiv,openalex" {
		t.Errorf("Source = %q, want sorted composite", m.Source)
	}
	if !reflect.DeepEqual(m.Categories, []string{"cs.LG", "cs.CL"}) {
		t.Errorf("Categories = %v, want order-stable union", m.Categories)
	}
	if !reflect.DeepEqual(m.Keywords, []string{"attention"}) {
		t.Errorf("Keywords = %v", m.Keywords)
	}
	if m.Citations != 42 {
		t.Errorf("Citations = %d, want max", m.Citations)
	}
	if !reflect.DeepEqual(m.References, []string{"ref-a", "ref-b", "ref-c"}) {
		t.Errorf("References = %v, want de-duplicated concatenation", m.References)
	}
	wantExtra := map[string]any{"comment": "v2", "license": "cc-by", "venue": "TMLR"}
	if !reflect.DeepEqual(m.Extra, wantExtra) {
		t.Errorf("Extra = %v, want %v (earliest wins collisions)", m.Extra, wantExtra)
	}
}

func TestMergeGroupTitleTieBreaksEarliest(t *testing.T) {
	group := []types.Paper{
		{Title: "Foo", Source: "arxiv"},
		{Title: "Bar", Source: "pubmed"},
	}
	if m := MergeGroup(group); m.Title != "Foo" {
		t.Errorf("Title = %q, want earliest on equal length", m.Title)
	}
}

func TestMergeGroupSingletonIdentity(t *testing.T) {
	p := types.Paper{
		PaperID: "only",
		Title:   "Lone Paper",
		Source:  "dblp",
		Extra:   map[string]any{"venue": "ICML"},
	}

	m := MergeGroup([]types.Paper{p})
	if !reflect.DeepEqual(m, p) {
		t.Errorf("singleton merge = %+v, want identical record", m)
	}
	if m.Source != "dblp" {
		t.Errorf("Source = %q, singleton must keep its single value", m.Source)
	}
}

func TestMergeGroupEmptyGroup(t *testing.T) {
	if m := MergeGroup(nil); !reflect.DeepEqual(m, types.Paper{}) {
		t.Errorf("MergeGroup(nil) = %+v, want zero record", m)
	}
}

func TestMergeGroupDoesNotMutateInput(t *testing.T) {
	group := []types.Paper{
		{Title: "A", Source: "arxiv", Categories: []string{"cs.LG"}, Extra: map[string]any{"k": "v1"}},
		{Title: "A Longer Title", Source: "pubmed", Categories: []string{"q-bio"}, Extra: map[string]any{"k": "v2"}},
	}
	before0 := group[0]
	beforeCats := append([]string(nil), group[0].Categories...)

	m := MergeGroup(group)
	m.Categories = append(m.Categories, "tampered")
	m.Extra["tampered"] = true

	if group[0].Source != before0.Source || group[0].Title != before0.Title {
		t.Errorf("input record changed: %+v", group[0])
	}
	if !reflect.DeepEqual(group[0].Categories, beforeCats) {
		t.Errorf("input categories changed: %v", group[0].Categories)
	}
	if _, ok := group[0].Extra["tampered"]; ok {
		t.Error("input extra map shared with merged output")
	}
}
