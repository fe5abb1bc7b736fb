// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-radar/pkg/types"
)

// criticalTextLimit bounds review text in the text rendering.
const criticalTextLimit = 100

// Render writes the report in the requested format: "text", "json", or
// "yaml".
func Render(w io.Writer, r types.SummaryReport, format string) error {
	switch format {
	case "", "text":
		FormatText(w, r)
		return nil
	case "json":
		return FormatJSON(w, r)
	case "yaml":
		return FormatYAML(w, r)
	default:
		return fmt.Errorf("unsupported format %q: use text, json, or yaml", format)
	}
}

// FormatText writes a human-readable rendering of the report.
func FormatText(w io.Writer, r types.SummaryReport) {
	fmt.Fprintf(w, "Review summary, last %d days\n", r.WindowDays)
	fmt.Fprintf(w, "Generated %s\n", r.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))
	fmt.Fprintln(w, strings.Repeat("-", 60))

	fmt.Fprintf(w, "Total reviews:   %d\n", r.TotalReviews)
	fmt.Fprintf(w, "Average rating:  %.2f\n", r.AverageRating)
	fmt.Fprintf(w, "Insight backend: %s\n", r.BackendUsed)

	fmt.Fprintf(w, "\nRatings\n")
	for rating := 5; rating >= 1; rating-- {
		fmt.Fprintf(w, "  %d stars   %d\n", rating, r.RatingCounts[rating])
	}

	fmt.Fprintf(w, "\nSentiment\n")
	for _, cat := range []types.SentimentCategory{
		types.SentimentPositive, types.SentimentNeutral, types.SentimentNegative,
	} {
		fmt.Fprintf(w, "  %-9s %d\n", cat, r.SentimentCounts[cat])
	}

	if len(r.SourceCounts) > 0 {
		fmt.Fprintf(w, "\nSources\n")
		sources := make([]string, 0, len(r.SourceCounts))
		for src := range r.SourceCounts {
			sources = append(sources, string(src))
		}
		sort.Strings(sources)
		for _, src := range sources {
			fmt.Fprintf(w, "  %-12s %d\n", src, r.SourceCounts[types.Source(src)])
		}
	}

	if len(r.Themes) > 0 {
		fmt.Fprintf(w, "\nTop themes\n")
		for _, th := range r.Themes {
			fmt.Fprintf(w, "  %-30s %d\n", th.Label, th.Count)
		}
	}

	if len(r.Keywords) > 0 {
		parts := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			parts = append(parts, fmt.Sprintf("%s (%d)", kw.Phrase, kw.Count))
		}
		fmt.Fprintf(w, "\nKeywords: %s\n", strings.Join(parts, ", "))
	}

	if len(r.ActionIdeas) > 0 {
		fmt.Fprintf(w, "\nAction ideas\n")
		for i, action := range r.ActionIdeas {
			fmt.Fprintf(w, "  %d. %s\n", i+1, action)
		}
	}

	if len(r.Quotes) > 0 {
		fmt.Fprintf(w, "\nQuotes\n")
		for _, q := range r.Quotes {
			fmt.Fprintf(w, "  %q\n", q)
		}
	}

	if len(r.CriticalReviews) > 0 {
		fmt.Fprintf(w, "\nRecent critical reviews\n")
		for _, cr := range r.CriticalReviews {
			fmt.Fprintf(w, "  - [%d*] %s: %s\n",
				cr.Rating, cr.Timestamp.UTC().Format("2006-01-02"), ellipsize(cr.Text, criticalTextLimit))
		}
	}
}

// FormatJSON writes the report as indented JSON.
func FormatJSON(w io.Writer, r types.SummaryReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// FormatYAML writes the report as YAML.
func FormatYAML(w io.Writer, r types.SummaryReport) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ellipsize shortens s to at most limit runes, marking the cut.
func ellipsize(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
