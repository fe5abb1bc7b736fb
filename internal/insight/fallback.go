// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package insight

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/review-radar/internal/scrub"
	"github.com/pdiddy/review-radar/pkg/types"
)

// nonWordPattern matches everything stripped before tokenizing review
// text: anything that is not a letter, digit, or whitespace.
var nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// stopwords are excluded from phrase candidates.
var stopwords = makeStopwords(`a about above after again all also am an and any are as at
	be because been being both but by can did do does doing down during
	each few for from further get got had has have having he her here
	hers him his how i if in into is it its just me more most my no nor
	not now of off on once only or other our out over own so some such
	than that the their them then there these they this those through to
	too under until up very was we were what when where which while who
	why will with would you your dont im ive isnt wasnt cant wont`)

func makeStopwords(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}

// phraseCount is one candidate phrase and how many times it appeared.
type phraseCount struct {
	phrase string
	count  int
}

// countPhrases tallies candidate phrases across the texts: single words
// longer than two characters plus adjacent-word pairs, with stopwords
// excluded. The result is ordered by descending count, ties broken by
// first appearance, so repeated runs over the same input produce the
// same order.
func countPhrases(texts []string) []phraseCount {
	counts := make(map[string]int)
	var order []string
	bump := func(phrase string) {
		if counts[phrase] == 0 {
			order = append(order, phrase)
		}
		counts[phrase]++
	}

	for _, text := range texts {
		cleaned := strings.ToLower(nonWordPattern.ReplaceAllString(text, ""))
		words := strings.Fields(cleaned)
		for i, word := range words {
			if _, stop := stopwords[word]; stop {
				continue
			}
			if utf8.RuneCountInString(word) > 2 {
				bump(word)
			}
			if i+1 < len(words) {
				if next := words[i+1]; !isStopword(next) {
					bump(word + " " + next)
				}
			}
		}
	}

	out := make([]phraseCount, 0, len(order))
	for _, phrase := range order {
		out = append(out, phraseCount{phrase: phrase, count: counts[phrase]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].count > out[j].count
	})
	return out
}

func isStopword(word string) bool {
	_, stop := stopwords[word]
	return stop
}

// Keywords returns the topK most frequent candidate phrases across the
// texts. This is always computed deterministically, never by a backend.
func Keywords(texts []string, topK int) []types.Keyword {
	phrases := countPhrases(texts)
	out := make([]types.Keyword, 0, topK)
	for _, pc := range phrases {
		if len(out) >= topK {
			break
		}
		out = append(out, types.Keyword{Phrase: pc.phrase, Count: pc.count})
	}
	return out
}

// fallbackThemes derives themes from phrase frequencies alone. A phrase
// qualifies as a theme when it spans multiple words or is longer than
// four characters, which filters out near-trivial single tokens.
func fallbackThemes(texts []string, topK int) []types.Theme {
	phrases := countPhrases(texts)
	out := make([]types.Theme, 0, topK)
	for _, pc := range phrases {
		if len(out) >= topK {
			break
		}
		if !strings.Contains(pc.phrase, " ") && utf8.RuneCountInString(pc.phrase) <= 4 {
			continue
		}
		out = append(out, types.Theme{Label: pc.phrase, Count: pc.count})
	}
	return out
}

// fallbackQuotes picks quotes without a backend: the most helpful
// reviews by vote count, newest first among ties, scrubbed of PII.
func fallbackQuotes(corpus []types.CanonicalReview, count int) []string {
	picked := make([]types.CanonicalReview, len(corpus))
	copy(picked, corpus)
	sort.SliceStable(picked, func(i, j int) bool {
		if picked[i].VoteCount != picked[j].VoteCount {
			return picked[i].VoteCount > picked[j].VoteCount
		}
		return picked[i].Timestamp.After(picked[j].Timestamp)
	})
	if len(picked) > count {
		picked = picked[:count]
	}
	out := make([]string, 0, len(picked))
	for _, r := range picked {
		out = append(out, scrub.Text(r.Text))
	}
	return out
}
