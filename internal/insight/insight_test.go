// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package insight

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/review-radar/internal/logging"
	"github.com/pdiddy/review-radar/pkg/types"
)

// --- mock backend ---

type mockBackend struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Generate(_ context.Context, prompt string) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func testInsightConfig() types.InsightConfig {
	return types.InsightConfig{
		Backend:          "gemini",
		ThemeSampleCap:   20,
		ActionSampleCap:  10,
		QuoteSampleCap:   10,
		ThemeTopK:        5,
		KeywordTopK:      10,
		QuoteCount:       3,
		PromptTextBudget: 200,
	}
}

func testGenerator(backend Backend) *Generator {
	return &Generator{
		Cfg:     testInsightConfig(),
		Backend: backend,
		Log:     logging.Nop(),
	}
}

func review(text string, category types.SentimentCategory) types.CanonicalReview {
	return types.CanonicalReview{
		ID:                text,
		Source:            types.SourceGooglePlay,
		Rating:            3,
		Text:              text,
		Timestamp:         time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
		SentimentCategory: category,
	}
}

func corpusOf(n int, category types.SentimentCategory) []types.CanonicalReview {
	out := make([]types.CanonicalReview, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, review(fmt.Sprintf("review number %d", i+1), category))
	}
	return out
}

// --- theme extraction ---

func TestExtractThemesScalesSampleCounts(t *testing.T) {
	backend := &mockBackend{response: `[{"theme": "crashes", "count": 5}]`}
	g := testGenerator(backend)
	corpus := corpusOf(200, types.SentimentNeutral)

	themes := g.ExtractThemes(context.Background(), corpus)

	if backend.calls != 1 {
		t.Fatalf("ExtractThemes() made %d backend calls, want exactly 1", backend.calls)
	}
	if len(themes) != 1 || themes[0].Label != "crashes" {
		t.Fatalf("ExtractThemes() = %v, want one theme %q", themes, "crashes")
	}
	// 200 reviews, sample of 20: a count of 5 in the sample scales to 50.
	if themes[0].Count != 50 {
		t.Errorf("ExtractThemes() count = %d, want 50", themes[0].Count)
	}
}

func TestExtractThemesFallsBackOnBackendError(t *testing.T) {
	backend := &mockBackend{err: fmt.Errorf("backend unavailable")}
	g := testGenerator(backend)
	corpus := []types.CanonicalReview{
		review("The app crashes on login", types.SentimentNegative),
		review("App crashes after the update", types.SentimentNegative),
	}

	themes := g.ExtractThemes(context.Background(), corpus)

	if backend.calls != 1 {
		t.Errorf("ExtractThemes() made %d backend calls, want 1 attempt before falling back", backend.calls)
	}
	if len(themes) == 0 {
		t.Fatal("ExtractThemes() returned nothing from the fallback path")
	}
	if themes[0].Label != "crashes" && themes[0].Label != "app crashes" {
		t.Errorf("ExtractThemes() top fallback theme = %q", themes[0].Label)
	}
}

func TestExtractThemesFallsBackOnEmptyResult(t *testing.T) {
	backend := &mockBackend{response: `[]`}
	g := testGenerator(backend)
	corpus := []types.CanonicalReview{
		review("Checkout keeps failing for me", types.SentimentNegative),
	}

	themes := g.ExtractThemes(context.Background(), corpus)
	if len(themes) == 0 {
		t.Error("ExtractThemes() returned nothing after an empty backend result")
	}
}

func TestExtractThemesFallsBackOnProseResponse(t *testing.T) {
	backend := &mockBackend{response: `I could not find any themes worth reporting.`}
	g := testGenerator(backend)
	corpus := []types.CanonicalReview{
		review("Delivery was quick and painless", types.SentimentPositive),
	}

	themes := g.ExtractThemes(context.Background(), corpus)
	if len(themes) == 0 {
		t.Error("ExtractThemes() returned nothing after an unparseable backend response")
	}
}

func TestExtractThemesWithoutBackend(t *testing.T) {
	g := testGenerator(nil)
	corpus := []types.CanonicalReview{
		review("The app crashes on login", types.SentimentNegative),
		review("App crashes after the update", types.SentimentNegative),
	}

	themes := g.ExtractThemes(context.Background(), corpus)
	if len(themes) == 0 {
		t.Error("ExtractThemes() without a backend returned nothing")
	}
}

func TestExtractThemesEmptyCorpus(t *testing.T) {
	backend := &mockBackend{response: `[{"theme": "ghost", "count": 1}]`}
	g := testGenerator(backend)

	themes := g.ExtractThemes(context.Background(), nil)
	if len(themes) != 0 {
		t.Errorf("ExtractThemes(nil) = %v, want empty", themes)
	}
	if backend.calls != 0 {
		t.Errorf("ExtractThemes(nil) made %d backend calls, want 0", backend.calls)
	}
}

func TestExtractThemesSamplesNewestReviews(t *testing.T) {
	backend := &mockBackend{response: `[{"theme": "anything", "count": 1}]`}
	g := testGenerator(backend)
	corpus := corpusOf(30, types.SentimentNeutral)

	g.ExtractThemes(context.Background(), corpus)

	if len(backend.prompts) != 1 {
		t.Fatalf("ExtractThemes() captured %d prompts, want 1", len(backend.prompts))
	}
	prompt := backend.prompts[0]
	if !strings.Contains(prompt, "review number 1\n") {
		t.Error("ExtractThemes() prompt is missing the first sampled review")
	}
	if strings.Contains(prompt, "review number 21") {
		t.Error("ExtractThemes() prompt includes reviews beyond the sample cap")
	}
}

func TestPromptTruncatesReviewText(t *testing.T) {
	backend := &mockBackend{response: `[{"theme": "anything", "count": 1}]`}
	g := testGenerator(backend)
	g.Cfg.PromptTextBudget = 10
	long := "aaaaaaaaaabbbbbbbbbb"
	corpus := []types.CanonicalReview{review(long, types.SentimentNeutral)}

	g.ExtractThemes(context.Background(), corpus)

	prompt := backend.prompts[0]
	if strings.Contains(prompt, long) {
		t.Error("prompt contains the untruncated review text")
	}
	if !strings.Contains(prompt, "aaaaaaaaaa") {
		t.Error("prompt is missing the truncated review prefix")
	}
}

// --- action ideas ---

func TestGenerateActionIdeasNoNegativeReviews(t *testing.T) {
	backend := &mockBackend{response: `["should never be called"]`}
	g := testGenerator(backend)
	corpus := corpusOf(10, types.SentimentPositive)

	actions := g.GenerateActionIdeas(context.Background(), corpus)

	if backend.calls != 0 {
		t.Errorf("GenerateActionIdeas() made %d backend calls with no negative reviews, want 0", backend.calls)
	}
	want := []string{
		"Monitor for new feedback",
		"Engage with positive reviewers",
		"Maintain current performance",
	}
	if len(actions) != len(want) {
		t.Fatalf("GenerateActionIdeas() = %v, want the fixed default list", actions)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Errorf("GenerateActionIdeas()[%d] = %q, want %q", i, actions[i], want[i])
		}
	}
}

func TestGenerateActionIdeasUsesOnlyNegativeReviews(t *testing.T) {
	backend := &mockBackend{response: `["Fix the checkout crash"]`}
	g := testGenerator(backend)
	corpus := []types.CanonicalReview{
		review("Absolutely love this thing", types.SentimentPositive),
		review("Checkout crashes every time", types.SentimentNegative),
	}

	actions := g.GenerateActionIdeas(context.Background(), corpus)

	if len(actions) != 1 || actions[0] != "Fix the checkout crash" {
		t.Fatalf("GenerateActionIdeas() = %v", actions)
	}
	prompt := backend.prompts[0]
	if strings.Contains(prompt, "Absolutely love this thing") {
		t.Error("GenerateActionIdeas() prompt includes a positive review")
	}
	if !strings.Contains(prompt, "Checkout crashes every time") {
		t.Error("GenerateActionIdeas() prompt is missing the negative review")
	}
}

func TestGenerateActionIdeasDeterministicInvestigates(t *testing.T) {
	g := testGenerator(nil)
	corpus := []types.CanonicalReview{
		review("Payment failed again today", types.SentimentNegative),
		review("payment failed twice this week", types.SentimentNegative),
	}

	actions := g.GenerateActionIdeas(context.Background(), corpus)

	if len(actions) == 0 || len(actions) > 3 {
		t.Fatalf("GenerateActionIdeas() = %v, want 1..3 actions", actions)
	}
	for _, a := range actions {
		if !strings.HasPrefix(a, "Investigate issues related to '") {
			t.Errorf("GenerateActionIdeas() action %q is not an investigation", a)
		}
	}
	if actions[0] != "Investigate issues related to 'payment'" {
		t.Errorf("GenerateActionIdeas()[0] = %q, want the most frequent complaint first", actions[0])
	}
}

func TestGenerateActionIdeasCapsBackendList(t *testing.T) {
	backend := &mockBackend{response: `["one", "two", "three", "four", "five"]`}
	g := testGenerator(backend)
	corpus := []types.CanonicalReview{review("terrible", types.SentimentNegative)}

	actions := g.GenerateActionIdeas(context.Background(), corpus)
	if len(actions) != 3 {
		t.Errorf("GenerateActionIdeas() kept %d actions, want at most 3", len(actions))
	}
}

// --- quote selection ---

func TestSelectQuotesScrubsBackendQuotes(t *testing.T) {
	backend := &mockBackend{response: `["Contact me at jane@example.com about this"]`}
	g := testGenerator(backend)
	corpus := []types.CanonicalReview{review("anything", types.SentimentNeutral)}

	quotes := g.SelectQuotes(context.Background(), corpus)

	if len(quotes) != 1 {
		t.Fatalf("SelectQuotes() = %v, want 1 quote", quotes)
	}
	if strings.Contains(quotes[0], "jane@example.com") {
		t.Errorf("SelectQuotes() leaked an email address: %q", quotes[0])
	}
	if !strings.Contains(quotes[0], "[EMAIL]") {
		t.Errorf("SelectQuotes() did not insert the email placeholder: %q", quotes[0])
	}
}

func TestSelectQuotesFallbackScrubs(t *testing.T) {
	g := testGenerator(nil)
	corpus := []types.CanonicalReview{
		review("Call me on 555-123-4567 if you want details", types.SentimentNegative),
	}

	quotes := g.SelectQuotes(context.Background(), corpus)

	if len(quotes) != 1 {
		t.Fatalf("SelectQuotes() = %v, want 1 quote", quotes)
	}
	if !strings.Contains(quotes[0], "[PHONE]") {
		t.Errorf("SelectQuotes() fallback did not scrub the phone number: %q", quotes[0])
	}
}

func TestSelectQuotesFallbackPicksMostHelpful(t *testing.T) {
	g := testGenerator(nil)
	mk := func(text string, votes int) types.CanonicalReview {
		r := review(text, types.SentimentNeutral)
		r.VoteCount = votes
		return r
	}
	corpus := []types.CanonicalReview{
		mk("barely noticed", 0),
		mk("everyone agrees with this", 12),
		mk("some agree", 4),
		mk("a few agree", 2),
	}

	quotes := g.SelectQuotes(context.Background(), corpus)

	want := []string{"everyone agrees with this", "some agree", "a few agree"}
	if len(quotes) != len(want) {
		t.Fatalf("SelectQuotes() = %v, want %v", quotes, want)
	}
	for i := range want {
		if quotes[i] != want[i] {
			t.Errorf("SelectQuotes()[%d] = %q, want %q", i, quotes[i], want[i])
		}
	}
}

func TestSelectQuotesEmptyCorpus(t *testing.T) {
	backend := &mockBackend{response: `["ghost quote"]`}
	g := testGenerator(backend)

	quotes := g.SelectQuotes(context.Background(), nil)
	if len(quotes) != 0 {
		t.Errorf("SelectQuotes(nil) = %v, want empty", quotes)
	}
	if backend.calls != 0 {
		t.Errorf("SelectQuotes(nil) made %d backend calls, want 0", backend.calls)
	}
}

// --- Derive ---

func TestDeriveReportsBackendWhenAnyStageServed(t *testing.T) {
	backend := &mockBackend{response: `[{"theme": "speed", "count": 2}]`}
	g := testGenerator(backend)
	corpus := []types.CanonicalReview{
		review("so fast now", types.SentimentPositive),
		review("really快speedy", types.SentimentPositive),
	}

	result := g.Derive(context.Background(), corpus)

	if result.BackendUsed != "mock" {
		t.Errorf("Derive() BackendUsed = %q, want %q", result.BackendUsed, "mock")
	}
	if len(result.Themes) == 0 || len(result.ActionIdeas) == 0 || len(result.Quotes) == 0 {
		t.Errorf("Derive() left a section empty: %+v", result)
	}
}

func TestDeriveReportsDeterministicWithoutBackend(t *testing.T) {
	g := testGenerator(nil)
	corpus := []types.CanonicalReview{
		review("The app crashes on login", types.SentimentNegative),
	}

	result := g.Derive(context.Background(), corpus)

	if result.BackendUsed != DeterministicBackendName {
		t.Errorf("Derive() BackendUsed = %q, want %q", result.BackendUsed, DeterministicBackendName)
	}
}

func TestDeriveNeverFails(t *testing.T) {
	// A backend that always errors plus an empty corpus is the worst
	// case; Derive still returns a usable result.
	backend := &mockBackend{err: fmt.Errorf("permanently down")}
	g := testGenerator(backend)

	result := g.Derive(context.Background(), nil)

	if result.Themes == nil || result.Quotes == nil {
		t.Error("Derive() returned nil sections for an empty corpus")
	}
	if len(result.ActionIdeas) != 3 {
		t.Errorf("Derive() ActionIdeas = %v, want the 3-item default", result.ActionIdeas)
	}
	if result.BackendUsed != DeterministicBackendName {
		t.Errorf("Derive() BackendUsed = %q, want %q", result.BackendUsed, DeterministicBackendName)
	}
}
