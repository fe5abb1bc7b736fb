// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/review-radar/pkg/types"
)

// QueryOptions filters stored-review retrieval. The zero value matches
// everything in the latest run.
type QueryOptions struct {
	// Text is a full-text query against review text. When set, results
	// come back ranked by relevance instead of recency.
	Text string
	// Rating restricts results to one star rating (1..5, 0 = any).
	Rating int
	// Sentiment restricts results to one sentiment category.
	Sentiment types.SentimentCategory
	// Source restricts results to one provider.
	Source types.Source
	// RunID selects a specific run. Zero means the latest run.
	RunID int64
	// MaxResults caps the result count (0 = default).
	MaxResults int
}

// IsEmpty reports whether no query or filter is set.
func (q QueryOptions) IsEmpty() bool {
	return q.Text == "" && q.Rating == 0 && q.Sentiment == "" && q.Source == "" && q.RunID == 0
}

// StoredReview is a review as persisted, tagged with the run it
// belongs to.
type StoredReview struct {
	types.CanonicalReview `yaml:",inline"`

	RunID int64 `json:"run_id" yaml:"run_id"`
}

// Retrieve queries stored reviews. A full-text query uses the FTS
// index and orders by relevance; otherwise results are newest first.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]StoredReview, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	useFTS := opts.Text != ""

	var query strings.Builder
	var args []any

	query.WriteString(`SELECT r.run_id, r.id, r.source, r.rating, r.title, r.text, r.author,
		r.posted_at, r.app_version, r.developer_reply, r.reply_at, r.vote_count,
		r.sentiment_score, r.sentiment`)
	if useFTS {
		query.WriteString(` FROM reviews_fts JOIN reviews r ON r.rowid = reviews_fts.rowid`)
		query.WriteString(` WHERE reviews_fts MATCH ?`)
		args = append(args, opts.Text)
	} else {
		query.WriteString(` FROM reviews r WHERE 1=1`)
	}

	if opts.RunID > 0 {
		query.WriteString(` AND r.run_id = ?`)
		args = append(args, opts.RunID)
	} else {
		query.WriteString(` AND r.run_id = (SELECT MAX(id) FROM runs)`)
	}
	if opts.Rating > 0 {
		query.WriteString(` AND r.rating = ?`)
		args = append(args, opts.Rating)
	}
	if opts.Sentiment != "" {
		query.WriteString(` AND r.sentiment = ?`)
		args = append(args, string(opts.Sentiment))
	}
	if opts.Source != "" {
		query.WriteString(` AND r.source = ?`)
		args = append(args, string(opts.Source))
	}

	if useFTS {
		query.WriteString(` ORDER BY reviews_fts.rank`)
	} else {
		query.WriteString(` ORDER BY r.posted_at DESC`)
	}
	query.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying reviews: %w", err)
	}
	defer rows.Close()

	var results []StoredReview
	for rows.Next() {
		var (
			sr             StoredReview
			source         string
			title          sql.NullString
			author         sql.NullString
			postedAt       string
			appVersion     sql.NullString
			developerReply sql.NullString
			replyAt        sql.NullString
			sentiment      sql.NullString
		)
		err := rows.Scan(&sr.RunID, &sr.ID, &source, &sr.Rating, &title, &sr.Text, &author,
			&postedAt, &appVersion, &developerReply, &replyAt, &sr.VoteCount,
			&sr.SentimentScore, &sentiment)
		if err != nil {
			return nil, fmt.Errorf("scanning review row: %w", err)
		}
		sr.Source = types.Source(source)
		sr.Title = title.String
		sr.Author = author.String
		sr.AppVersion = appVersion.String
		sr.DeveloperReply = developerReply.String
		sr.SentimentCategory = types.SentimentCategory(sentiment.String)
		sr.Timestamp, _ = time.Parse(time.RFC3339Nano, postedAt)
		if replyAt.Valid {
			sr.ReplyTimestamp, _ = time.Parse(time.RFC3339Nano, replyAt.String)
		}
		results = append(results, sr)
	}
	return results, rows.Err()
}
