// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Theme is a recurring topic extracted from review text, with the
// number of reviews it was observed in. Counts produced from a sampled
// subset are scaled back to the full corpus size.
type Theme struct {
	// Label is the theme phrase.
	Label string `json:"label" yaml:"label"`

	// Count is the estimated number of reviews mentioning the theme.
	Count int `json:"count" yaml:"count"`
}

// Keyword is a frequent term or bigram from the corpus with its raw
// occurrence count. Keywords are always derived deterministically.
type Keyword struct {
	// Phrase is the term or two-word phrase.
	Phrase string `json:"phrase" yaml:"phrase"`

	// Count is the number of reviews the phrase occurs in.
	Count int `json:"count" yaml:"count"`
}

// InsightResult carries the generated insight artifacts for one run.
type InsightResult struct {
	// Themes are the top recurring topics, most frequent first.
	Themes []Theme `json:"themes" yaml:"themes"`

	// ActionIdeas are suggested follow-ups derived from the negative
	// subset of the corpus. Never empty for a nonempty corpus.
	ActionIdeas []string `json:"action_ideas" yaml:"action_ideas"`

	// Quotes are representative review excerpts with contact details
	// scrubbed.
	Quotes []string `json:"quotes" yaml:"quotes"`

	// BackendUsed names the insight backend that produced the themes,
	// ideas and quotes, or "deterministic" when only the fallback path
	// ran.
	BackendUsed string `json:"backend_used" yaml:"backend_used"`
}
