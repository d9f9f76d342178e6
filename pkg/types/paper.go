// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-search pipeline.
package types

import "time"

// Paper is the standardized bibliographic record produced by every platform
// backend. Fields are inconsistently populated across sources: only Source is
// guaranteed, and Title may differ in casing and punctuation for the same
// underlying work. The wire shape (JSON/YAML field names) is shared with
// query files and the library store.
type Paper struct {
	// PaperID is the source-assigned identifier (arXiv ID, PMID, DBLP key).
	// Not globally unique across sources. A record needs at least one of
	// PaperID, Title, DOI, or URL to count as a paper record at all.
	PaperID string `json:"paper_id" yaml:"paper_id" validate:"required_without_all=Title DOI URL"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists display names in source order, first author first.
	// Formatting is not consistent across sources ("Smith, J." vs "John Smith").
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract or summary; may be empty.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// DOI is the digital object identifier; the most reliable identity key
	// when present. May carry a URL prefix depending on the source.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// PublishedDate is the publication or preprint date. A zero value means
	// the source reported no date.
	PublishedDate time.Time `json:"published_date,omitempty" yaml:"published_date,omitempty"`

	// PDFURL is a direct link to the PDF, when the source exposes one.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// URL is the landing page for the paper.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Source identifies the origin platform (e.g. "arxiv", "pubmed").
	// After merging duplicates the value is a comma-joined sorted set of
	// all contributing platforms; provenance is never overwritten.
	Source string `json:"source" yaml:"source"`

	// Categories holds subject classifications (e.g. arXiv categories).
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// Keywords holds author- or indexer-assigned keywords.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// Citations is the citation count, 0 when unknown.
	Citations int `json:"citations" yaml:"citations" validate:"min=0"`

	// References lists identifiers of cited works, when the source provides them.
	References []string `json:"references,omitempty" yaml:"references,omitempty"`

	// Extra carries source-specific fields that have no standardized slot
	// (venue, publication type, open-access status). Consumers must tolerate
	// unknown keys; merging never drops entries.
	Extra map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Year returns the four-digit publication year, or 0 when the date is absent.
func (p Paper) Year() int {
	if p.PublishedDate.IsZero() {
		return 0
	}
	return p.PublishedDate.Year()
}
