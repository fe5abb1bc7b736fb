// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report assembles the summary report from a merged corpus and
// renders it as text, JSON, or YAML.
package report

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/pdiddy/review-radar/internal/insight"
	"github.com/pdiddy/review-radar/internal/scrub"
	"github.com/pdiddy/review-radar/pkg/types"
)

// criticalReviewLimit is how many critical reviews the report lists.
const criticalReviewLimit = 5

// Assembler builds a SummaryReport from the merged, sentiment-annotated
// corpus.
type Assembler struct {
	Cfg     types.Config
	Insight *insight.Generator

	// Now returns the current time. Tests pin it.
	Now func() time.Time
}

// Assemble computes the report. An empty corpus produces the fixed
// empty report without invoking the insight generator at all.
func (a *Assembler) Assemble(ctx context.Context, corpus []types.CanonicalReview) types.SummaryReport {
	generatedAt := a.now()
	if len(corpus) == 0 {
		return types.EmptyReport(generatedAt, a.Cfg.Collect.WindowDays)
	}

	ratingSum := 0
	ratingCounts := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	sentimentCounts := map[types.SentimentCategory]int{
		types.SentimentPositive: 0,
		types.SentimentNeutral:  0,
		types.SentimentNegative: 0,
	}
	sourceCounts := make(map[types.Source]int)
	texts := make([]string, 0, len(corpus))
	for _, r := range corpus {
		ratingSum += r.Rating
		ratingCounts[r.Rating]++
		sentimentCounts[r.SentimentCategory]++
		sourceCounts[r.Source]++
		texts = append(texts, r.Text)
	}

	insights := a.Insight.Derive(ctx, corpus)

	return types.SummaryReport{
		GeneratedAt:     generatedAt,
		WindowDays:      a.Cfg.Collect.WindowDays,
		TotalReviews:    len(corpus),
		AverageRating:   round2(float64(ratingSum) / float64(len(corpus))),
		RatingCounts:    ratingCounts,
		SentimentCounts: sentimentCounts,
		SourceCounts:    sourceCounts,
		Themes:          insights.Themes,
		Keywords:        insight.Keywords(texts, a.Cfg.Insight.KeywordTopK),
		ActionIdeas:     insights.ActionIdeas,
		Quotes:          insights.Quotes,
		CriticalReviews: criticalReviews(corpus),
		BackendUsed:     insights.BackendUsed,
	}
}

// criticalReviews selects the newest low-rated or negative reviews,
// scrubbed for reporting.
func criticalReviews(corpus []types.CanonicalReview) []types.CriticalReview {
	var critical []types.CanonicalReview
	for _, r := range corpus {
		if r.IsCritical() {
			critical = append(critical, r)
		}
	}
	sort.SliceStable(critical, func(i, j int) bool {
		return critical[i].Timestamp.After(critical[j].Timestamp)
	})
	if len(critical) > criticalReviewLimit {
		critical = critical[:criticalReviewLimit]
	}

	out := make([]types.CriticalReview, 0, len(critical))
	for _, r := range critical {
		out = append(out, types.CriticalReview{
			Timestamp: r.Timestamp,
			Rating:    r.Rating,
			Text:      scrub.Text(r.Text),
		})
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (a *Assembler) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}
