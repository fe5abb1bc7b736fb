// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/review-radar/internal/insight"
	"github.com/pdiddy/review-radar/internal/logging"
	"github.com/pdiddy/review-radar/pkg/types"
)

var reportNow = time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)

// stubBackend returns a canned response for every prompt.
type stubBackend struct {
	response string
	calls    int
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Generate(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.response, nil
}

func testAssembler(backend insight.Backend) *Assembler {
	cfg := types.DefaultConfig()
	return &Assembler{
		Cfg: cfg,
		Insight: &insight.Generator{
			Cfg:     cfg.Insight,
			Backend: backend,
			Log:     logging.Nop(),
		},
		Now: func() time.Time { return reportNow },
	}
}

func annotated(rating int, category types.SentimentCategory, text string, age time.Duration) types.CanonicalReview {
	return types.CanonicalReview{
		ID:                fmt.Sprintf("%d-%s-%s", rating, category, text),
		Source:            types.SourceGooglePlay,
		Rating:            rating,
		Text:              text,
		Timestamp:         reportNow.Add(-age),
		SentimentCategory: category,
	}
}

// --- empty corpus contract ---

func TestAssembleEmptyCorpus(t *testing.T) {
	// A nil insight generator proves no sub-generator runs for an empty
	// corpus; Assemble would panic if it tried.
	a := &Assembler{
		Cfg: types.DefaultConfig(),
		Now: func() time.Time { return reportNow },
	}

	rep := a.Assemble(context.Background(), nil)

	if rep.TotalReviews != 0 || rep.AverageRating != 0 {
		t.Errorf("Assemble(nil) totals = %d/%.2f, want zeros", rep.TotalReviews, rep.AverageRating)
	}
	for rating := 1; rating <= 5; rating++ {
		if rep.RatingCounts[rating] != 0 {
			t.Errorf("Assemble(nil) RatingCounts[%d] = %d", rating, rep.RatingCounts[rating])
		}
	}
	if len(rep.Themes) != 0 || len(rep.Keywords) != 0 || len(rep.ActionIdeas) != 0 ||
		len(rep.Quotes) != 0 || len(rep.CriticalReviews) != 0 {
		t.Errorf("Assemble(nil) has non-empty insight sections: %+v", rep)
	}
	if rep.BackendUsed != "none" {
		t.Errorf("Assemble(nil) BackendUsed = %q, want %q", rep.BackendUsed, "none")
	}
	if rep.GeneratedAt != reportNow || rep.WindowDays != 7 {
		t.Errorf("Assemble(nil) stamp = %v/%d days", rep.GeneratedAt, rep.WindowDays)
	}
}

// --- distributions ---

func TestAssembleDistributions(t *testing.T) {
	ratings := []int{5, 4, 3, 2, 1, 5, 4, 3, 2, 1}
	categories := []types.SentimentCategory{
		types.SentimentPositive, types.SentimentPositive,
		types.SentimentNeutral, types.SentimentNegative, types.SentimentNegative,
		types.SentimentPositive, types.SentimentPositive,
		types.SentimentNeutral, types.SentimentNegative, types.SentimentNegative,
	}
	corpus := make([]types.CanonicalReview, 0, len(ratings))
	for i := range ratings {
		corpus = append(corpus, annotated(ratings[i], categories[i],
			fmt.Sprintf("review body %d", i), time.Duration(i)*time.Hour))
	}

	rep := testAssembler(nil).Assemble(context.Background(), corpus)

	if rep.TotalReviews != 10 {
		t.Errorf("Assemble() TotalReviews = %d, want 10", rep.TotalReviews)
	}
	if rep.AverageRating != 3.0 {
		t.Errorf("Assemble() AverageRating = %.2f, want 3.00", rep.AverageRating)
	}
	wantSentiment := map[types.SentimentCategory]int{
		types.SentimentPositive: 4,
		types.SentimentNeutral:  2,
		types.SentimentNegative: 4,
	}
	for cat, want := range wantSentiment {
		if rep.SentimentCounts[cat] != want {
			t.Errorf("Assemble() SentimentCounts[%s] = %d, want %d", cat, rep.SentimentCounts[cat], want)
		}
	}
	for rating := 1; rating <= 5; rating++ {
		if rep.RatingCounts[rating] != 2 {
			t.Errorf("Assemble() RatingCounts[%d] = %d, want 2", rating, rep.RatingCounts[rating])
		}
	}
	if rep.SourceCounts[types.SourceGooglePlay] != 10 {
		t.Errorf("Assemble() SourceCounts = %v", rep.SourceCounts)
	}
}

func TestAssembleRoundsAverageRating(t *testing.T) {
	corpus := []types.CanonicalReview{
		annotated(5, types.SentimentPositive, "great", time.Hour),
		annotated(4, types.SentimentPositive, "good", 2*time.Hour),
		annotated(4, types.SentimentPositive, "fine", 3*time.Hour),
	}

	rep := testAssembler(nil).Assemble(context.Background(), corpus)

	if rep.AverageRating != 4.33 {
		t.Errorf("Assemble() AverageRating = %v, want 4.33", rep.AverageRating)
	}
}

// --- keywords stay deterministic ---

func TestAssembleKeywordsIgnoreBackend(t *testing.T) {
	backend := &stubBackend{response: `[{"theme": "invented by backend", "count": 99}]`}
	corpus := []types.CanonicalReview{
		annotated(2, types.SentimentNegative, "checkout crashes constantly", time.Hour),
		annotated(2, types.SentimentNegative, "checkout crashes on launch", 2*time.Hour),
	}

	rep := testAssembler(backend).Assemble(context.Background(), corpus)

	if backend.calls == 0 {
		t.Fatal("Assemble() never reached the insight backend")
	}
	if len(rep.Keywords) == 0 {
		t.Fatal("Assemble() produced no keywords")
	}
	for _, kw := range rep.Keywords {
		if strings.Contains(kw.Phrase, "invented by backend") {
			t.Errorf("Assemble() keyword %q came from the backend", kw.Phrase)
		}
	}
	if rep.Keywords[0].Phrase != "checkout" {
		t.Errorf("Assemble() Keywords[0] = %q, want the most frequent term", rep.Keywords[0].Phrase)
	}
	// Themes, by contrast, may come from the backend.
	if len(rep.Themes) != 1 || rep.Themes[0].Label != "invented by backend" {
		t.Errorf("Assemble() Themes = %v, want the backend theme", rep.Themes)
	}
}

// --- critical reviews ---

func TestAssembleCriticalReviews(t *testing.T) {
	corpus := []types.CanonicalReview{
		annotated(5, types.SentimentPositive, "not critical", time.Hour),
		annotated(1, types.SentimentNegative, "newest critical", 2*time.Hour),
		annotated(2, types.SentimentNeutral, "low rating counts", 3*time.Hour),
		annotated(4, types.SentimentNegative, "negative counts", 4*time.Hour),
		annotated(1, types.SentimentNegative, "older critical", 5*time.Hour),
		annotated(1, types.SentimentNegative, "third oldest", 6*time.Hour),
		annotated(2, types.SentimentNegative, "second oldest", 7*time.Hour),
		annotated(1, types.SentimentNegative, "oldest critical", 8*time.Hour),
	}

	rep := testAssembler(nil).Assemble(context.Background(), corpus)

	if len(rep.CriticalReviews) != 5 {
		t.Fatalf("Assemble() kept %d critical reviews, want 5", len(rep.CriticalReviews))
	}
	if rep.CriticalReviews[0].Text != "newest critical" {
		t.Errorf("Assemble() CriticalReviews[0] = %q, want newest first", rep.CriticalReviews[0].Text)
	}
	for _, cr := range rep.CriticalReviews {
		if cr.Text == "not critical" {
			t.Error("Assemble() included a positive high-rated review in the critical list")
		}
		if cr.Text == "oldest critical" {
			t.Error("Assemble() kept more than the 5 newest critical reviews")
		}
	}
}

func TestAssembleScrubsCriticalText(t *testing.T) {
	corpus := []types.CanonicalReview{
		annotated(1, types.SentimentNegative, "refund me at angry@example.com now", time.Hour),
	}

	rep := testAssembler(nil).Assemble(context.Background(), corpus)

	if len(rep.CriticalReviews) != 1 {
		t.Fatalf("Assemble() CriticalReviews = %v", rep.CriticalReviews)
	}
	if strings.Contains(rep.CriticalReviews[0].Text, "angry@example.com") {
		t.Errorf("Assemble() leaked an email: %q", rep.CriticalReviews[0].Text)
	}
	if !strings.Contains(rep.CriticalReviews[0].Text, "[EMAIL]") {
		t.Errorf("Assemble() missing the scrub placeholder: %q", rep.CriticalReviews[0].Text)
	}
}
