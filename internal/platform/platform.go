// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package platform queries academic search APIs and aggregates their
// results into one standardized, deduplicated record set. Each platform
// (arXiv, PubMed, Semantic Scholar, ...) implements the Backend interface;
// the aggregator fans a query out to all enabled backends concurrently,
// concatenates their records, and hands the combined list to the dedup
// engine. Backends are thin HTTP clients: all identity and merge logic
// lives in internal/dedup.
package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pdiddy/paper-search/internal/dedup"
	"github.com/pdiddy/paper-search/internal/httputil"
	"github.com/pdiddy/paper-search/pkg/types"
)

// Backend searches a single academic platform. Implementations must be
// safe for concurrent use; the aggregator calls them from separate
// goroutines.
type Backend interface {
	Name() string
	Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.Paper, error)
}

// Query holds the search parameters shared by all backends.
type Query struct {
	FreeText string
	Author   string
	Keywords []string
	DateFrom time.Time
	DateTo   time.Time
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return q.FreeText == "" && q.Author == "" && len(q.Keywords) == 0
}

// SearchOutput holds the aggregated records and dedup statistics.
type SearchOutput struct {
	// Papers are the merged records, one per duplicate group, ordered by
	// each group's earliest position in the concatenated backend results.
	Papers []types.Paper

	// DupsRemoved counts records absorbed into merges.
	DupsRemoved int

	// Duplicates is the diagnostic grouping produced before merging.
	Duplicates []dedup.DuplicateGroup

	// BackendErrors lists per-platform failures that did not abort the search.
	BackendErrors []string
}

// Search fans the query out to all backends concurrently, concatenates
// results in backend registration order, and deduplicates. A failing
// backend degrades to a warning on w; only an empty query or an empty
// backend list is an error. The concatenation order is fixed by the
// backends slice, not by response arrival, so the same query against the
// same responses always yields the same output order.
func Search(ctx context.Context, query Query, backends []Backend, cfg types.SearchConfig, w io.Writer) (SearchOutput, error) {
	if query.IsEmpty() {
		return SearchOutput{}, fmt.Errorf("query is empty: provide search terms, an author, or keywords")
	}
	if len(backends) == 0 {
		return SearchOutput{}, fmt.Errorf("no search backends configured")
	}

	results := make([][]types.Paper, len(backends))
	errs := make([]error, len(backends))

	var wg sync.WaitGroup
	for i, b := range backends {
		wg.Add(1)
		go func(i int, b Backend) {
			defer wg.Done()
			results[i], errs[i] = b.Search(ctx, query, cfg)
		}(i, b)
	}
	wg.Wait()

	var all []types.Paper
	var backendErrors []string
	for i, b := range backends {
		if errs[i] != nil {
			msg := fmt.Sprintf("%s: %v", b.Name(), errs[i])
			backendErrors = append(backendErrors, msg)
			fmt.Fprintf(w, "warning: backend %s failed: %v\n", b.Name(), errs[i])
			continue
		}
		all = append(all, results[i]...)
	}

	deduped := dedup.Deduplicate(all)

	return SearchOutput{
		Papers:        deduped,
		DupsRemoved:   len(all) - len(deduped),
		Duplicates:    dedup.FindDuplicates(all),
		BackendErrors: backendErrors,
	}, nil
}

// All returns every available backend honoring the config's platform
// switches, in a fixed order that determines result concatenation.
func All(cfg types.SearchConfig) []Backend {
	client := &http.Client{Timeout: cfg.Timeout}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 3
	}

	candidates := []Backend{
		&ArxivBackend{Client: client, Limiter: httputil.NewLimiter(rps)},
		&PubMedBackend{Client: client, Limiter: httputil.NewLimiter(rps)},
		&SemanticScholarBackend{Client: client, Limiter: httputil.NewLimiter(rps), APIKey: cfg.SemanticScholarAPIKey},
		&OpenAlexBackend{Client: client, Limiter: httputil.NewLimiter(rps), Email: cfg.OpenAlexEmail},
		&CrossrefBackend{Client: client, Limiter: httputil.NewLimiter(rps)},
		&EuropePMCBackend{Client: client, Limiter: httputil.NewLimiter(rps)},
		&DBLPBackend{Client: client, Limiter: httputil.NewLimiter(rps)},
		&ScholarBackend{Client: client, Limiter: httputil.NewLimiter(rps)},
	}

	var enabled []Backend
	for _, b := range candidates {
		if cfg.Enabled(b.Name()) {
			enabled = append(enabled, b)
		}
	}
	return enabled
}
