// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data shapes shared across the review
// pipeline: raw and canonical review records, insight artifacts, the
// summary report, and configuration.
package types

import "time"

// Source identifies the storefront a review came from.
type Source string

const (
	SourceGooglePlay Source = "google_play"
	SourceAppStore   Source = "app_store"
)

// SentimentCategory is the polarity band a review falls into.
type SentimentCategory string

const (
	SentimentPositive SentimentCategory = "positive"
	SentimentNeutral  SentimentCategory = "neutral"
	SentimentNegative SentimentCategory = "negative"
)

// RawReviewRecord is the provider-shaped record returned by one page
// pull. It is transient: normalization consumes it immediately and the
// merged corpus carries CanonicalReview instead.
type RawReviewRecord struct {
	// ID is the provider-assigned review identifier. May be empty;
	// normalization derives a fingerprint in that case.
	ID string

	// Source is the storefront the record was pulled from.
	Source Source

	// Rating is the star rating, 1..5. Zero means the provider omitted it.
	Rating int

	// Text is the review body.
	Text string

	// Title is the review headline, if the storefront has one.
	Title string

	// Author is the display name of the reviewer.
	Author string

	// Timestamp is when the review was posted.
	Timestamp time.Time

	// AppVersion is the app version the review was written against.
	AppVersion string

	// ReplyText is the developer reply body, if any.
	ReplyText string

	// ReplyTimestamp is when the developer reply was posted.
	ReplyTimestamp time.Time

	// VoteCount is the number of helpfulness votes.
	VoteCount int
}

// CanonicalReview is the normalized, provider-agnostic review record.
// IDs are unique across the merged corpus of a run, and every record
// surviving the windowing step has Timestamp inside the cutoff window.
type CanonicalReview struct {
	// ID is the identity key: the provider id, or a derived fingerprint
	// when the provider supplied none.
	ID string `json:"id" yaml:"id"`

	// Source is the storefront the review came from.
	Source Source `json:"source" yaml:"source"`

	// Rating is the star rating, 1..5.
	Rating int `json:"rating" yaml:"rating"`

	// Text is the review body.
	Text string `json:"text" yaml:"text"`

	// Title is the review headline, if any.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Author is the display name of the reviewer.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// Timestamp is when the review was posted.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// AppVersion is the app version the review was written against.
	AppVersion string `json:"app_version,omitempty" yaml:"app_version,omitempty"`

	// DeveloperReply is the developer reply body, if any.
	DeveloperReply string `json:"developer_reply,omitempty" yaml:"developer_reply,omitempty"`

	// ReplyTimestamp is when the developer reply was posted. Zero when
	// there is no reply.
	ReplyTimestamp time.Time `json:"reply_timestamp,omitzero" yaml:"reply_timestamp,omitempty"`

	// VoteCount is the number of helpfulness votes.
	VoteCount int `json:"vote_count" yaml:"vote_count"`

	// SentimentScore is the polarity score in [-1, 1], assigned by the
	// classifier after merge.
	SentimentScore float64 `json:"sentiment_score" yaml:"sentiment_score"`

	// SentimentCategory is the polarity band derived from the score.
	SentimentCategory SentimentCategory `json:"sentiment_category,omitempty" yaml:"sentiment_category,omitempty"`
}

// IsCritical reports whether the review belongs in the report's
// critical list: two stars or fewer, or negative sentiment.
func (r CanonicalReview) IsCritical() bool {
	return r.Rating <= 2 || r.SentimentCategory == SentimentNegative
}
