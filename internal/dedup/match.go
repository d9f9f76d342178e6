// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

// Rule identifies which matching signal judged two records duplicates.
type Rule int

const (
	// RuleNone means no signal fired; the records are distinct.
	RuleNone Rule = iota

	// RuleDOI is an exact match on normalized DOI, the strongest signal.
	RuleDOI

	// RuleTitle is an exact match on normalized title.
	RuleTitle

	// RuleAuthorYear is a match on first-author surname plus publication
	// year. The weakest signal: two distinct papers by the same first
	// author in the same year will be grouped. That risk is accepted;
	// the alternative (ignoring the signal) leaves far more real
	// duplicates unmerged.
	RuleAuthorYear
)

// String returns the rule name used in diagnostic reports.
func (r Rule) String() string {
	switch r {
	case RuleDOI:
		return "doi"
	case RuleTitle:
		return "title"
	case RuleAuthorYear:
		return "author_year"
	default:
		return "none"
	}
}

// Match decides whether two normalized records refer to the same paper.
// Rules are evaluated in strict priority order and the first that fires
// decides. Empty keys never match: absence of information must not
// produce a false positive. The overall bias is toward under-merging,
// since a wrong merge silently destroys a record.
func Match(a, b KeyBundle) (Rule, bool) {
	if a.DOI != "" && a.DOI == b.DOI {
		return RuleDOI, true
	}
	if a.Title != "" && a.Title == b.Title {
		return RuleTitle, true
	}
	if a.AuthorYear != "" && a.AuthorYear == b.AuthorYear {
		return RuleAuthorYear, true
	}
	return RuleNone, false
}
