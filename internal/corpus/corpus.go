// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus normalizes raw provider records and merges them into
// one deduplicated, capped, newest-first review corpus. Merging is
// commutative and idempotent on identity: the same batches in any
// order, or repeated, produce the same final id set.
package corpus

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/pdiddy/review-radar/pkg/types"
)

// fingerprintTextBytes is how much review text feeds the derived
// identity key when a provider supplies no stable id.
const fingerprintTextBytes = 20

// MergeStats counts what happened to the input records.
type MergeStats struct {
	// Input is the total raw records across all batches.
	Input int

	// Dropped counts records discarded for missing required fields.
	Dropped int

	// Duplicates counts records discarded because their identity key
	// was already present.
	Duplicates int

	// Merged is the corpus size after dedup, before the cap.
	Merged int

	// Truncated counts records cut by the global cap.
	Truncated int
}

// Merge normalizes and deduplicates all batches into one corpus sorted
// newest first, truncated to globalCap. Identity ties in timestamp are
// broken by ascending id so the cut is reproducible. The first record
// seen for an identity wins; later copies are dropped.
func Merge(batches [][]types.RawReviewRecord, globalCap int, log *slog.Logger) ([]types.CanonicalReview, MergeStats) {
	if log == nil {
		log = slog.Default()
	}

	stats := MergeStats{}
	seen := make(map[string]struct{})
	var corpus []types.CanonicalReview

	for _, batch := range batches {
		for _, raw := range batch {
			stats.Input++

			review, err := normalize(raw)
			if err != nil {
				stats.Dropped++
				log.Warn("dropping malformed review record",
					slog.String("source", string(raw.Source)),
					slog.String("id", raw.ID),
					slog.Any("error", err))
				continue
			}

			if _, dup := seen[review.ID]; dup {
				stats.Duplicates++
				continue
			}
			seen[review.ID] = struct{}{}
			corpus = append(corpus, review)
		}
	}
	stats.Merged = len(corpus)

	sort.Slice(corpus, func(i, j int) bool {
		if !corpus[i].Timestamp.Equal(corpus[j].Timestamp) {
			return corpus[i].Timestamp.After(corpus[j].Timestamp)
		}
		return corpus[i].ID < corpus[j].ID
	})

	if globalCap > 0 && len(corpus) > globalCap {
		stats.Truncated = len(corpus) - globalCap
		corpus = corpus[:globalCap]
	}

	return corpus, stats
}

// normalize maps a raw provider record onto the canonical schema. A
// record without a usable rating, text, or timestamp is rejected.
func normalize(raw types.RawReviewRecord) (types.CanonicalReview, error) {
	if raw.Rating < 1 || raw.Rating > 5 {
		return types.CanonicalReview{}, fmt.Errorf("rating %d outside 1..5", raw.Rating)
	}
	if raw.Text == "" {
		return types.CanonicalReview{}, fmt.Errorf("empty review text")
	}
	if raw.Timestamp.IsZero() {
		return types.CanonicalReview{}, fmt.Errorf("missing timestamp")
	}

	review := types.CanonicalReview{
		ID:             raw.ID,
		Source:         raw.Source,
		Rating:         raw.Rating,
		Text:           raw.Text,
		Title:          raw.Title,
		Author:         raw.Author,
		Timestamp:      raw.Timestamp.UTC(),
		AppVersion:     raw.AppVersion,
		DeveloperReply: raw.ReplyText,
		VoteCount:      raw.VoteCount,
	}
	if !raw.ReplyTimestamp.IsZero() {
		review.ReplyTimestamp = raw.ReplyTimestamp.UTC()
	}
	if review.ID == "" {
		review.ID = fingerprint(raw)
	}
	return review, nil
}

// fingerprint derives a stable identity key for records without a
// provider id: the md5 of author, RFC 3339 timestamp, and the leading
// bytes of the text, concatenated.
func fingerprint(raw types.RawReviewRecord) string {
	text := raw.Text
	if len(text) > fingerprintTextBytes {
		text = text[:fingerprintTextBytes]
	}
	sum := md5.Sum([]byte(raw.Author + raw.Timestamp.UTC().Format(time.RFC3339) + text))
	return hex.EncodeToString(sum[:])
}
