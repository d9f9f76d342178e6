// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-search/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()

	store, err := NewStore(types.LibraryConfig{Dir: dir, MaxResults: 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, dir
}

func samplePapers() []types.Paper {
	return []types.Paper{
		{
			PaperID:       "1706.03762",
			Title:         "Attention Is All You Need",
			Authors:       []string{"Ashish Vaswani", "Noam Shazeer"},
			Abstract:      "The dominant sequence transduction models are based on recurrent networks.",
			DOI:           "10.48550/arxiv.1706.03762",
			PublishedDate: time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC),
			URL:           "https://arxiv.org/abs/1706.03762",
			Source:        "arxiv,semantic_scholar",
			Keywords:      []string{"transformers", "attention"},
			Citations:     90000,
			Extra:         map[string]any{"comment": "NeurIPS 2017"},
		},
		{
			PaperID:  "W2741809807",
			Title:    "Deep Residual Learning for Image Recognition",
			Authors:  []string{"Kaiming He"},
			Abstract: "Deeper neural networks are more difficult to train.",
			Source:   "openalex",
		},
	}
}

// --- Save ---

func TestSaveAndCount(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	summary, err := store.Save(ctx, samplePapers())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if summary.Added != 2 || summary.Updated != 0 || summary.Skipped != 0 {
		t.Errorf("summary = %+v, want 2 added", summary)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestSaveUpsertsExisting(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	papers := samplePapers()
	if _, err := store.Save(ctx, papers); err != nil {
		t.Fatalf("Save: %v", err)
	}

	papers[0].Citations = 95000
	summary, err := store.Save(ctx, papers[:1])
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if summary.Updated != 1 || summary.Added != 0 {
		t.Errorf("summary = %+v, want 1 updated", summary)
	}

	got, err := store.Query(ctx, QueryOptions{Query: "attention"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	if got[0].Citations != 95000 {
		t.Errorf("Citations = %d, want updated value 95000", got[0].Citations)
	}

	n, _ := store.Count(ctx)
	if n != 2 {
		t.Errorf("Count = %d, want 2 after upsert", n)
	}
}

func TestSaveSkipsUnidentifiableRecords(t *testing.T) {
	store, _ := testStore(t)

	summary, err := store.Save(context.Background(), []types.Paper{
		{Abstract: "no id, no title, no doi"},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if summary.Skipped != 1 || summary.Added != 0 {
		t.Errorf("summary = %+v, want 1 skipped", summary)
	}
}

func TestSaveFallsBackToDOIKey(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, []types.Paper{{DOI: "10.1/abc", Title: "Untracked"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Query(ctx, QueryOptions{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	// Missing paper_id falls back to the DOI as storage key.
	if got[0].PaperID != "10.1/abc" {
		t.Errorf("PaperID = %q, want DOI fallback", got[0].PaperID)
	}
}

// --- Query ---

func TestQueryFullText(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, samplePapers()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Query(ctx, QueryOptions{Query: "transduction"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}

	p := got[0]
	if p.PaperID != "1706.03762" {
		t.Errorf("PaperID = %q", p.PaperID)
	}
	if len(p.Authors) != 2 || p.Authors[0] != "Ashish Vaswani" {
		t.Errorf("Authors = %v", p.Authors)
	}
	if len(p.Keywords) != 2 {
		t.Errorf("Keywords = %v", p.Keywords)
	}
	if p.Extra["comment"] != "NeurIPS 2017" {
		t.Errorf("Extra = %v", p.Extra)
	}
	if p.PublishedDate.Year() != 2017 {
		t.Errorf("PublishedDate = %v", p.PublishedDate)
	}
}

func TestQueryMatchesAuthors(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, samplePapers()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Query(ctx, QueryOptions{Query: "Kaiming"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].PaperID != "W2741809807" {
		t.Errorf("got = %+v, want the He paper", got)
	}
}

func TestQuerySourceFilter(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, samplePapers()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Composite source fields match on substring.
	got, err := store.Query(ctx, QueryOptions{Source: "semantic_scholar"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].PaperID != "1706.03762" {
		t.Errorf("got = %+v, want only the composite-source paper", got)
	}
}

func TestQueryEmptyListsAll(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, samplePapers()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Query(ctx, QueryOptions{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len(got) = %d, want 2", len(got))
	}
}

func TestQueryMaxResults(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, samplePapers()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Query(ctx, QueryOptions{MaxResults: 1})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len(got) = %d, want 1", len(got))
	}
}

// --- Remove ---

func TestRemove(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, samplePapers()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	removed, err := store.Remove(ctx, "1706.03762")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Error("Remove = false, want true")
	}

	removed, err = store.Remove(ctx, "absent")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed {
		t.Error("Remove = true for absent paper")
	}

	n, _ := store.Count(ctx)
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}

	// Deleted papers drop out of the full-text index too.
	got, err := store.Query(ctx, QueryOptions{Query: "attention"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len(got) = %d, want 0 after delete", len(got))
	}
}

// --- Export ---

func TestExportYAML(t *testing.T) {
	store, dir := testStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, samplePapers()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.ExportYAML(ctx, QueryOptions{}); err != nil {
		t.Fatalf("ExportYAML: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "library.yaml"))
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}

	var papers []types.Paper
	if err := yaml.Unmarshal(data, &papers); err != nil {
		t.Fatalf("export is not valid YAML: %v", err)
	}
	if len(papers) != 2 {
		t.Errorf("len(papers) = %d, want 2", len(papers))
	}
}

func TestExportJSON(t *testing.T) {
	store, dir := testStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, samplePapers()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.ExportJSON(ctx, QueryOptions{}); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "library.json"))
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}

	var papers []types.Paper
	if err := json.Unmarshal(data, &papers); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(papers) != 2 {
		t.Errorf("len(papers) = %d, want 2", len(papers))
	}
}

// --- Store lifecycle ---

func TestNewStoreRequiresDir(t *testing.T) {
	if _, err := NewStore(types.LibraryConfig{}); err == nil {
		t.Fatal("expected error for empty library dir")
	}
}

func TestStoreReopens(t *testing.T) {
	dir := t.TempDir()
	cfg := types.LibraryConfig{Dir: dir}

	store, err := NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(context.Background(), samplePapers()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	store.Close()

	reopened, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer reopened.Close()

	n, err := reopened.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2 after reopen", n)
	}
}
