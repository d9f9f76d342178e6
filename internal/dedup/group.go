// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import "github.com/pdiddy/paper-search/pkg/types"

// unionFind is a disjoint-set structure over record indices with path
// compression and union by rank, giving near-constant-time operations.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range u.parent {
		u.parent[i] = i
	}
	return u
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}

// Group partitions records into duplicate-equivalence groups: every pair
// inside a group is connected by a chain of positive Match decisions, and
// no pair across groups is. Each group lists original indices in input
// order; groups are emitted in order of their smallest member index.
//
// Instead of comparing all pairs (quadratic in the result count, which
// reaches several hundred records when a dozen platforms answer one
// query), records sharing any non-empty key are bucketed per key type and
// unioned within each bucket. Two records with an equal doi key are
// exactly the records rule 1 would judge duplicates, and likewise for the
// title and author-year buckets, so the bucket unions reproduce the
// pairwise decisions in linear time.
func Group(papers []types.Paper) [][]int {
	keys := make([]KeyBundle, len(papers))
	for i, p := range papers {
		keys[i] = Normalize(p)
	}
	return groupByKeys(keys)
}

func groupByKeys(keys []KeyBundle) [][]int {
	u := newUnionFind(len(keys))

	for _, pick := range []func(KeyBundle) string{
		func(k KeyBundle) string { return k.DOI },
		func(k KeyBundle) string { return k.Title },
		func(k KeyBundle) string { return k.AuthorYear },
	} {
		buckets := make(map[string]int) // key value → first index seen
		for i, k := range keys {
			v := pick(k)
			if v == "" {
				continue
			}
			if first, ok := buckets[v]; ok {
				u.union(first, i)
			} else {
				buckets[v] = i
			}
		}
	}

	// Scanning indices in order makes each group's first-seen index its
	// smallest, which yields the required emission order for free.
	byRoot := make(map[int]int) // root → position in groups
	var groups [][]int
	for i := range keys {
		root := u.find(i)
		pos, ok := byRoot[root]
		if !ok {
			pos = len(groups)
			byRoot[root] = pos
			groups = append(groups, nil)
		}
		groups[pos] = append(groups[pos], i)
	}
	return groups
}
