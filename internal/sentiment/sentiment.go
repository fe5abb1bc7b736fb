// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sentiment assigns polarity scores and bands to review text.
package sentiment

import (
	"github.com/grassmudhorses/vader-go/lexicon"
	"github.com/grassmudhorses/vader-go/sentitext"

	"github.com/pdiddy/review-radar/pkg/types"
)

// Band thresholds for the compound score. Scores strictly above
// positiveThreshold are positive, strictly below negativeThreshold are
// negative. The bounds themselves fall in the neutral band.
const (
	positiveThreshold = 0.1
	negativeThreshold = -0.1
)

// Scorer assigns a polarity score in [-1, 1] to a piece of text.
type Scorer interface {
	Score(text string) float64
}

// VADER scores text with the VADER sentiment lexicon. The zero value
// is ready to use and safe for concurrent callers.
type VADER struct{}

// Score returns the compound polarity of text. Empty text scores 0.
func (VADER) Score(text string) float64 {
	if text == "" {
		return 0
	}
	parsed := sentitext.Parse(text, lexicon.DefaultLexicon)
	return sentitext.PolarityScore(parsed).Compound
}

// Categorize maps a compound score to its polarity band.
func Categorize(score float64) types.SentimentCategory {
	switch {
	case score > positiveThreshold:
		return types.SentimentPositive
	case score < negativeThreshold:
		return types.SentimentNegative
	default:
		return types.SentimentNeutral
	}
}

// Annotate scores every review in place, filling SentimentScore and
// SentimentCategory from the review text.
func Annotate(reviews []types.CanonicalReview, scorer Scorer) {
	for i := range reviews {
		score := scorer.Score(reviews[i].Text)
		reviews[i].SentimentScore = score
		reviews[i].SentimentCategory = Categorize(score)
	}
}
