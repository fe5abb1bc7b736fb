// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider implements the storefront adapters that pull raw
// review pages from Google Play and the Apple App Store.
package provider

import (
	"context"

	"github.com/pdiddy/review-radar/pkg/types"
)

// Page is the result of one pull: the raw records in provider order
// plus the cursor for the next page. An empty NextCursor means the
// stream is exhausted.
type Page struct {
	Records    []types.RawReviewRecord
	NextCursor string
}

// Adapter pulls review pages from one storefront. Implementations keep
// no paging state of their own; the cursor carries everything between
// calls, so a pull can be resumed or repeated.
type Adapter interface {
	// Name returns the adapter identifier used in logs and metrics.
	Name() string

	// Source returns the storefront this adapter pulls from.
	Source() types.Source

	// SupportsRatingFilter reports whether Pull can restrict a stream
	// to a single star rating. Adapters without the ability are pulled
	// as one unfiltered stream instead of five.
	SupportsRatingFilter() bool

	// Pull fetches one page, newest reviews first. cursor is "" for
	// the first page. ratingFilter is 1..5, or 0 for no filter.
	// pageSize is the requested record count; providers may return
	// fewer, and a short page does not mean the stream is exhausted.
	Pull(ctx context.Context, cursor string, ratingFilter, pageSize int) (Page, error)
}
