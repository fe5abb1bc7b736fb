// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CriticalReview is one entry in the report's critical list: a recent
// low-rated or negative review, with contact details scrubbed.
type CriticalReview struct {
	// Timestamp is when the review was posted.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Rating is the star rating, 1..5.
	Rating int `json:"rating" yaml:"rating"`

	// Text is the scrubbed review body.
	Text string `json:"text" yaml:"text"`
}

// SummaryReport is the assembled output of one pipeline run.
type SummaryReport struct {
	// GeneratedAt is when the report was assembled.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	// WindowDays is the collection window the corpus was drawn from.
	WindowDays int `json:"window_days" yaml:"window_days"`

	// TotalReviews is the size of the merged corpus.
	TotalReviews int `json:"total_reviews" yaml:"total_reviews"`

	// AverageRating is the mean star rating, rounded to two decimals.
	// Zero when the corpus is empty.
	AverageRating float64 `json:"average_rating" yaml:"average_rating"`

	// RatingCounts maps each star rating 1..5 to the number of reviews
	// carrying it.
	RatingCounts map[int]int `json:"rating_counts" yaml:"rating_counts"`

	// SentimentCounts maps each polarity band to its review count.
	SentimentCounts map[SentimentCategory]int `json:"sentiment_counts" yaml:"sentiment_counts"`

	// SourceCounts maps each storefront to its review count.
	SourceCounts map[Source]int `json:"source_counts" yaml:"source_counts"`

	// Themes are the top recurring topics.
	Themes []Theme `json:"themes" yaml:"themes"`

	// Keywords are the top frequent terms, always derived
	// deterministically regardless of the insight backend.
	Keywords []Keyword `json:"keywords" yaml:"keywords"`

	// ActionIdeas are suggested follow-ups for the development team.
	ActionIdeas []string `json:"action_ideas" yaml:"action_ideas"`

	// Quotes are representative review excerpts.
	Quotes []string `json:"quotes" yaml:"quotes"`

	// CriticalReviews are up to five recent low-rated or negative
	// reviews, newest first.
	CriticalReviews []CriticalReview `json:"critical_reviews" yaml:"critical_reviews"`

	// BackendUsed names the insight backend that served, "deterministic"
	// when every insight came from the fallback path, or "none" for an
	// empty report.
	BackendUsed string `json:"backend_used" yaml:"backend_used"`
}

// EmptyReport returns the fixed report produced when the merged corpus
// has no reviews. No insight generation runs in that case.
func EmptyReport(generatedAt time.Time, windowDays int) SummaryReport {
	return SummaryReport{
		GeneratedAt:     generatedAt,
		WindowDays:      windowDays,
		TotalReviews:    0,
		AverageRating:   0,
		RatingCounts:    map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		SentimentCounts: map[SentimentCategory]int{SentimentPositive: 0, SentimentNeutral: 0, SentimentNegative: 0},
		SourceCounts:    map[Source]int{},
		Themes:          []Theme{},
		Keywords:        []Keyword{},
		ActionIdeas:     []string{},
		Quotes:          []string{},
		CriticalReviews: []CriticalReview{},
		BackendUsed:     "none",
	}
}
