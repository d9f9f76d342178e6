// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"fmt"

	"github.com/pdiddy/paper-search/pkg/types"
)

// Deduplicate returns one merged record per duplicate group, in order of
// each group's earliest input position. The input slice is never modified;
// an empty input yields an empty output. Records carrying no identity
// information at all pass through unchanged as singletons.
func Deduplicate(papers []types.Paper) []types.Paper {
	if len(papers) == 0 {
		return nil
	}

	groups := Group(papers)
	out := make([]types.Paper, 0, len(groups))
	for _, idxs := range groups {
		group := make([]types.Paper, len(idxs))
		for i, idx := range idxs {
			group[i] = papers[idx]
		}
		out = append(out, MergeGroup(group))
	}
	return out
}

// DuplicateGroup describes one set of records judged to be the same paper,
// for diagnostic inspection before (or instead of) merging.
type DuplicateGroup struct {
	// Indices are the records' positions in the input slice, ascending.
	Indices []int `json:"indices" yaml:"indices"`

	// Papers are the unmerged member records, in input order.
	Papers []types.Paper `json:"papers" yaml:"papers"`

	// Rules lists the matching signals that connected the members,
	// strongest first.
	Rules []Rule `json:"-" yaml:"-"`

	// RuleNames mirrors Rules in serializable form.
	RuleNames []string `json:"rules" yaml:"rules"`
}

// FindDuplicates reports every group of two or more records that refer to
// the same paper, without merging or modifying anything. Singletons are
// omitted: a paper found by only one platform is not a duplicate.
func FindDuplicates(papers []types.Paper) []DuplicateGroup {
	keys := make([]KeyBundle, len(papers))
	for i, p := range papers {
		keys[i] = Normalize(p)
	}

	var report []DuplicateGroup
	for _, idxs := range groupByKeys(keys) {
		if len(idxs) < 2 {
			continue
		}
		g := DuplicateGroup{Indices: idxs}
		for _, idx := range idxs {
			g.Papers = append(g.Papers, papers[idx])
		}
		g.Rules = connectingRules(keys, idxs)
		for _, r := range g.Rules {
			g.RuleNames = append(g.RuleNames, r.String())
		}
		report = append(report, g)
	}
	return report
}

// connectingRules returns the signals under which at least two group
// members share a non-empty key, strongest first.
func connectingRules(keys []KeyBundle, idxs []int) []Rule {
	var rules []Rule
	for _, rule := range []struct {
		r    Rule
		pick func(KeyBundle) string
	}{
		{RuleDOI, func(k KeyBundle) string { return k.DOI }},
		{RuleTitle, func(k KeyBundle) string { return k.Title }},
		{RuleAuthorYear, func(k KeyBundle) string { return k.AuthorYear }},
	} {
		seen := make(map[string]bool)
		for _, idx := range idxs {
			v := rule.pick(keys[idx])
			if v == "" {
				continue
			}
			if seen[v] {
				rules = append(rules, rule.r)
				break
			}
			seen[v] = true
		}
	}
	return rules
}

// MergeDuplicatePapers merges a known duplicate group directly, without
// re-running grouping. Callers typically pass a group obtained from
// FindDuplicates. A single-record group is returned unchanged.
func MergeDuplicatePapers(group []types.Paper) (types.Paper, error) {
	if len(group) == 0 {
		return types.Paper{}, fmt.Errorf("cannot merge an empty group")
	}
	return MergeGroup(group), nil
}
