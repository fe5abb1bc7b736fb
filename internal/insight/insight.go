// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package insight derives themes, action ideas, and representative
// quotes from a review corpus. Each operation runs a two-stage
// protocol: a single generative-backend call when a backend is
// configured, then a deterministic frequency-based fallback whenever
// the backend is absent, fails, or returns nothing usable. Operations
// never return errors; the worst outcome is a generic default.
package insight

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/pdiddy/review-radar/internal/metrics"
	"github.com/pdiddy/review-radar/internal/scrub"
	"github.com/pdiddy/review-radar/pkg/types"
)

// DeterministicBackendName labels results produced without a backend.
const DeterministicBackendName = "deterministic"

// maintenanceActions is returned when there are no negative reviews to
// act on.
var maintenanceActions = []string{
	"Monitor for new feedback",
	"Engage with positive reviewers",
	"Maintain current performance",
}

// diagnosticActions is returned when negative reviews exist but no
// concrete complaint phrase stands out.
var diagnosticActions = []string{
	"Review recent negative feedback for specific bugs",
	"Improve response time to critical reviews",
	"Check app stability",
}

// actionKeywordCount is how many complaint phrases seed investigation
// actions in the deterministic path.
const actionKeywordCount = 3

// maxActionIdeas caps the action list in both stages.
const maxActionIdeas = 3

// Backend abstracts the generative API so tests can supply a mock. A
// call is made at most once per operation; errors and empty responses
// make the operation fall back, never fail.
type Backend interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Generator produces insight artifacts from a merged corpus. A nil
// Backend disables the primary stage entirely.
type Generator struct {
	Cfg     types.InsightConfig
	Backend Backend
	Log     *slog.Logger
	Metrics *metrics.Metrics
}

// Derive runs all three operations and records which stage served. The
// report's backend label is the backend name if any operation's primary
// stage produced its result, otherwise the deterministic label.
func (g *Generator) Derive(ctx context.Context, corpus []types.CanonicalReview) types.InsightResult {
	themes, themesPrimary := g.themes(ctx, corpus)
	actions, actionsPrimary := g.actionIdeas(ctx, corpus)
	quotes, quotesPrimary := g.quotes(ctx, corpus)

	used := DeterministicBackendName
	if themesPrimary || actionsPrimary || quotesPrimary {
		used = g.Backend.Name()
	}
	return types.InsightResult{
		Themes:      themes,
		ActionIdeas: actions,
		Quotes:      quotes,
		BackendUsed: used,
	}
}

// ExtractThemes returns the top recurring themes with approximate
// corpus-wide counts.
func (g *Generator) ExtractThemes(ctx context.Context, corpus []types.CanonicalReview) []types.Theme {
	themes, _ := g.themes(ctx, corpus)
	return themes
}

// GenerateActionIdeas returns follow-up actions derived from the
// negative-sentiment subset of the corpus.
func (g *Generator) GenerateActionIdeas(ctx context.Context, corpus []types.CanonicalReview) []string {
	actions, _ := g.actionIdeas(ctx, corpus)
	return actions
}

// SelectQuotes returns representative review quotes, scrubbed of PII.
func (g *Generator) SelectQuotes(ctx context.Context, corpus []types.CanonicalReview) []string {
	quotes, _ := g.quotes(ctx, corpus)
	return quotes
}

func (g *Generator) themes(ctx context.Context, corpus []types.CanonicalReview) ([]types.Theme, bool) {
	if len(corpus) == 0 {
		return []types.Theme{}, false
	}
	if g.Backend != nil {
		themes, err := g.backendThemes(ctx, corpus)
		if err != nil {
			g.fallBack(ctx, "extract_themes", err)
		} else if len(themes) > 0 {
			return themes, true
		}
	}
	return fallbackThemes(reviewTexts(corpus), g.Cfg.ThemeTopK), false
}

func (g *Generator) backendThemes(ctx context.Context, corpus []types.CanonicalReview) ([]types.Theme, error) {
	sample := g.sampleTexts(corpus, g.Cfg.ThemeSampleCap)
	prompt, err := renderPrompt(themePromptTmpl, promptData{TopK: g.Cfg.ThemeTopK, Reviews: sample})
	if err != nil {
		return nil, err
	}

	raw, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var decoded []backendTheme
	if err := decodeFirstJSON(raw, &decoded); err != nil {
		return nil, &types.ParseError{Source: g.Backend.Name(), Err: err}
	}

	// The backend saw only the sample; scale counts up to corpus size.
	scale := float64(len(corpus)) / float64(len(sample))
	out := make([]types.Theme, 0, len(decoded))
	for _, t := range decoded {
		if t.Theme == "" {
			continue
		}
		out = append(out, types.Theme{
			Label: t.Theme,
			Count: int(math.Round(float64(t.Count) * scale)),
		})
	}
	if len(out) > g.Cfg.ThemeTopK {
		out = out[:g.Cfg.ThemeTopK]
	}
	return out, nil
}

func (g *Generator) actionIdeas(ctx context.Context, corpus []types.CanonicalReview) ([]string, bool) {
	negative := negativeSubset(corpus)
	if len(negative) == 0 {
		return append([]string(nil), maintenanceActions...), false
	}
	if g.Backend != nil {
		actions, err := g.backendActions(ctx, negative)
		if err != nil {
			g.fallBack(ctx, "generate_action_ideas", err)
		} else if len(actions) > 0 {
			return actions, true
		}
	}

	complaints := Keywords(reviewTexts(negative), actionKeywordCount)
	actions := make([]string, 0, len(complaints))
	for _, kw := range complaints {
		actions = append(actions, fmt.Sprintf("Investigate issues related to '%s'", kw.Phrase))
	}
	if len(actions) == 0 {
		actions = append([]string(nil), diagnosticActions...)
	}
	if len(actions) > maxActionIdeas {
		actions = actions[:maxActionIdeas]
	}
	return actions, false
}

func (g *Generator) backendActions(ctx context.Context, negative []types.CanonicalReview) ([]string, error) {
	sample := g.sampleTexts(negative, g.Cfg.ActionSampleCap)
	prompt, err := renderPrompt(actionPromptTmpl, promptData{Count: maxActionIdeas, Reviews: sample})
	if err != nil {
		return nil, err
	}

	raw, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var decoded []string
	if err := decodeFirstJSON(raw, &decoded); err != nil {
		return nil, &types.ParseError{Source: g.Backend.Name(), Err: err}
	}

	actions := make([]string, 0, len(decoded))
	for _, a := range decoded {
		if a == "" {
			continue
		}
		actions = append(actions, a)
	}
	if len(actions) > maxActionIdeas {
		actions = actions[:maxActionIdeas]
	}
	return actions, nil
}

func (g *Generator) quotes(ctx context.Context, corpus []types.CanonicalReview) ([]string, bool) {
	if len(corpus) == 0 {
		return []string{}, false
	}
	if g.Backend != nil {
		quotes, err := g.backendQuotes(ctx, corpus)
		if err != nil {
			g.fallBack(ctx, "select_quotes", err)
		} else if len(quotes) > 0 {
			return quotes, true
		}
	}
	return fallbackQuotes(corpus, g.Cfg.QuoteCount), false
}

func (g *Generator) backendQuotes(ctx context.Context, corpus []types.CanonicalReview) ([]string, error) {
	sample := g.sampleTexts(corpus, g.Cfg.QuoteSampleCap)
	prompt, err := renderPrompt(quotePromptTmpl, promptData{Count: g.Cfg.QuoteCount, Reviews: sample})
	if err != nil {
		return nil, err
	}

	raw, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var decoded []string
	if err := decodeFirstJSON(raw, &decoded); err != nil {
		return nil, &types.ParseError{Source: g.Backend.Name(), Err: err}
	}

	// Quotes pass through the scrubber in both stages.
	quotes := make([]string, 0, len(decoded))
	for _, q := range decoded {
		if q == "" {
			continue
		}
		quotes = append(quotes, scrub.Text(q))
	}
	if len(quotes) > g.Cfg.QuoteCount {
		quotes = quotes[:g.Cfg.QuoteCount]
	}
	return quotes, nil
}

// generate issues the single backend call for one operation and counts
// its outcome.
func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	raw, err := g.Backend.Generate(ctx, prompt)
	if err != nil {
		g.Metrics.IncInsightCall(g.Backend.Name(), types.ErrorLabel(err))
		return "", err
	}
	g.Metrics.IncInsightCall(g.Backend.Name(), "success")
	return raw, nil
}

// fallBack logs a recoverable primary-stage failure. The operation
// continues on the deterministic path.
func (g *Generator) fallBack(ctx context.Context, op string, err error) {
	g.logger().WarnContext(ctx, "insight backend stage failed, using deterministic fallback",
		slog.String("operation", op),
		slog.String("backend", g.Backend.Name()),
		slog.Any("error", err))
}

// sampleTexts takes the newest sampleCap review texts, each truncated
// to the prompt budget. The corpus arrives newest first from the merge
// step.
func (g *Generator) sampleTexts(corpus []types.CanonicalReview, sampleCap int) []string {
	if sampleCap <= 0 || sampleCap > len(corpus) {
		sampleCap = len(corpus)
	}
	out := make([]string, 0, sampleCap)
	for _, r := range corpus[:sampleCap] {
		out = append(out, truncateText(r.Text, g.Cfg.PromptTextBudget))
	}
	return out
}

// truncateText bounds a review's contribution to a prompt. Budget is in
// runes so multi-byte text is never split mid-character.
func truncateText(s string, budget int) string {
	if budget <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	return string(runes[:budget])
}

func reviewTexts(corpus []types.CanonicalReview) []string {
	out := make([]string, 0, len(corpus))
	for _, r := range corpus {
		out = append(out, r.Text)
	}
	return out
}

func negativeSubset(corpus []types.CanonicalReview) []types.CanonicalReview {
	var out []types.CanonicalReview
	for _, r := range corpus {
		if r.SentimentCategory == types.SentimentNegative {
			out = append(out, r)
		}
	}
	return out
}

func (g *Generator) logger() *slog.Logger {
	if g.Log != nil {
		return g.Log
	}
	return slog.Default()
}

// backendTheme is one element of the backend's theme response.
type backendTheme struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}
