// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"sort"
	"strings"

	"github.com/pdiddy/paper-search/pkg/types"
)

// MergeGroup collapses a group of duplicate records into one representative.
// Every field follows a deterministic completeness rule so re-running the
// merge on the same group always yields the same record. A singleton group
// merges to its only member unchanged; in particular its source stays a
// single platform name, not a one-element composite.
func MergeGroup(group []types.Paper) types.Paper {
	if len(group) == 0 {
		return types.Paper{}
	}
	if len(group) == 1 {
		return group[0]
	}

	merged := types.Paper{
		PaperID:   group[0].PaperID,
		Title:     longestString(group, func(p types.Paper) string { return p.Title }),
		Authors:   longestList(group, func(p types.Paper) []string { return p.Authors }),
		Abstract:  longestString(group, func(p types.Paper) string { return p.Abstract }),
		DOI:       firstNonEmpty(group, func(p types.Paper) string { return p.DOI }),
		PDFURL:    preferredURL(group, func(p types.Paper) string { return p.PDFURL }),
		URL:       preferredURL(group, func(p types.Paper) string { return p.URL }),
		Source:    compositeSource(group),
		Citations: maxCitations(group),
	}

	for _, p := range group {
		if !p.PublishedDate.IsZero() &&
			(merged.PublishedDate.IsZero() || p.PublishedDate.Before(merged.PublishedDate)) {
			merged.PublishedDate = p.PublishedDate
		}
	}

	merged.Categories = unionLists(group, func(p types.Paper) []string { return p.Categories })
	merged.Keywords = unionLists(group, func(p types.Paper) []string { return p.Keywords })
	merged.References = unionLists(group, func(p types.Paper) []string { return p.References })
	merged.Extra = mergeExtra(group)

	return merged
}

// longestString picks the longest non-empty value; ties go to the earliest
// record. Longer titles and abstracts are assumed more complete (subtitles,
// untruncated text).
func longestString(group []types.Paper, get func(types.Paper) string) string {
	best := ""
	for _, p := range group {
		if v := get(p); len(v) > len(best) {
			best = v
		}
	}
	return best
}

// longestList picks the longest list; ties go to the earliest record.
func longestList(group []types.Paper, get func(types.Paper) []string) []string {
	var best []string
	for _, p := range group {
		if v := get(p); len(v) > len(best) {
			best = v
		}
	}
	if best == nil {
		return nil
	}
	out := make([]string, len(best))
	copy(out, best)
	return out
}

func firstNonEmpty(group []types.Paper, get func(types.Paper) string) string {
	for _, p := range group {
		if v := get(p); v != "" {
			return v
		}
	}
	return ""
}

// preferredURL picks among non-empty values the one whose owning record's
// source sorts first alphabetically, ties broken by group order. Re-runs
// over permuted input then still converge on the same URL.
func preferredURL(group []types.Paper, get func(types.Paper) string) string {
	best := ""
	bestSource := ""
	for _, p := range group {
		v := get(p)
		if v == "" {
			continue
		}
		if best == "" || p.Source < bestSource {
			best = v
			bestSource = p.Source
		}
	}
	return best
}

// compositeSource joins the sorted set of distinct member sources, keeping
// provenance truthful for the merged record.
func compositeSource(group []types.Paper) string {
	seen := make(map[string]bool)
	var sources []string
	for _, p := range group {
		if p.Source != "" && !seen[p.Source] {
			seen[p.Source] = true
			sources = append(sources, p.Source)
		}
	}
	sort.Strings(sources)
	return strings.Join(sources, ",")
}

// maxCitations treats per-source citation counts as independently measured
// and keeps the most informed figure.
func maxCitations(group []types.Paper) int {
	max := 0
	for _, p := range group {
		if p.Citations > max {
			max = p.Citations
		}
	}
	return max
}

// unionLists concatenates member lists in group order, dropping repeats
// while preserving each source's internal order.
func unionLists(group []types.Paper, get func(types.Paper) []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range group {
		for _, v := range get(p) {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// mergeExtra shallow-merges the open metadata maps. On key collision the
// earliest record wins; non-colliding keys from every member are retained.
func mergeExtra(group []types.Paper) map[string]any {
	var out map[string]any
	for _, p := range group {
		for k, v := range p.Extra {
			if out == nil {
				out = make(map[string]any)
			}
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
	return out
}
