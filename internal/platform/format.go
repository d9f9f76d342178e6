// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package platform

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// FormatTable writes merged records as a human-readable table to w.
func FormatTable(out SearchOutput, w io.Writer) {
	if len(out.Papers) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Year", "Cites", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, p := range out.Papers {
		title := p.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		authors := formatAuthors(p.Authors)
		year := ""
		if !p.PublishedDate.IsZero() {
			year = fmt.Sprintf("%d", p.PublishedDate.Year())
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-6d  %s\n",
			i+1, title, authors, year, p.Citations, p.Source)
	}

	fmt.Fprintf(w, "\n%d results", len(out.Papers))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates merged)", out.DupsRemoved)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes merged records as indented JSON to w.
func FormatJSON(out SearchOutput, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Papers)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
