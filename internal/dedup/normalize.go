// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup identifies and merges duplicate paper records aggregated
// from multiple academic platforms. The same paper commonly appears in
// several sources with inconsistent metadata; this package decides which
// records refer to the same work (DOI, then normalized title, then first
// author plus year), groups them transitively, and collapses each group
// into a single representative record without losing metadata.
package dedup

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/paper-search/pkg/types"
)

// KeyBundle holds the canonical comparison keys derived from one record.
// An empty key means the record carries no usable information for that
// signal; empty keys never match each other.
type KeyBundle struct {
	DOI        string
	Title      string
	AuthorYear string
}

// Normalize derives the comparison keys for a record. Pure function of the
// input; the record itself is not modified.
func Normalize(p types.Paper) KeyBundle {
	return KeyBundle{
		DOI:        NormalizeDOI(p.DOI),
		Title:      NormalizeTitle(p.Title),
		AuthorYear: authorYearKey(p.Authors, p.Year()),
	}
}

// doiPrefixes are the URL and scheme prefixes sources attach to a bare DOI.
var doiPrefixes = []string{"https://doi.org/", "http://doi.org/", "doi:", "doi.org/"}

// NormalizeDOI lower-cases a DOI, removes whitespace and any leading URL
// prefix, and strips trailing slashes. Returns "" for an empty DOI.
func NormalizeDOI(doi string) string {
	doi = strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(doi, prefix) {
			doi = doi[len(prefix):]
			break
		}
	}
	doi = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, doi)
	return strings.TrimRight(doi, "/")
}

// NormalizeTitle returns a canonical form of the title: Unicode-normalized
// (NFKC), lower-cased, punctuation replaced by spaces, and whitespace
// collapsed. Returns "" for an empty title.
func NormalizeTitle(title string) string {
	title = strings.ToLower(norm.NFKC.String(title))
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// authorYearKey combines the first author's surname with the publication
// year. Either missing piece makes the whole key empty: a surname without
// a year (or vice versa) is too weak a signal to match on.
func authorYearKey(authors []string, year int) string {
	if len(authors) == 0 || year == 0 {
		return ""
	}
	surname := firstAuthorSurname(authors[0])
	if surname == "" {
		return ""
	}
	return surname + strconv.Itoa(year)
}

// firstAuthorSurname extracts the surname token from a display name,
// case-folded with non-letters removed. Handles both "Smith, J." (surname
// before the comma) and "John Smith" (surname last).
func firstAuthorSurname(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	if idx := strings.Index(name, ","); idx >= 0 {
		name = name[:idx]
	} else if idx := strings.LastIndex(name, " "); idx >= 0 {
		name = name[idx+1:]
	}

	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
