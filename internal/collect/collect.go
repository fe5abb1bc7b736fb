// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect drives windowed, stratified review collection. For
// each provider it pages through one newest-first stream per rating
// value (or a single unfiltered stream when the provider cannot filter
// by rating), keeping only records inside the cutoff window, until a
// stop condition holds.
package collect

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pdiddy/review-radar/internal/metrics"
	"github.com/pdiddy/review-radar/internal/provider"
	"github.com/pdiddy/review-radar/pkg/types"
)

// absoluteMaxPages bounds pages per bucket no matter how the caps are
// configured, so a provider handing out endless cursors cannot stall a
// run.
const absoluteMaxPages = 500

// StopReason records why a bucket's pagination ended.
type StopReason string

const (
	// StopExhausted means the provider returned no continuation cursor.
	StopExhausted StopReason = "exhausted"

	// StopBucketCap means the bucket collected its configured cap.
	StopBucketCap StopReason = "bucket_cap"

	// StopStalePage means an entire page fell outside the window.
	StopStalePage StopReason = "stale_page"

	// StopPageCeiling means the per-bucket page ceiling was reached.
	StopPageCeiling StopReason = "page_ceiling"

	// StopTransport means a page pull failed; collected records from
	// earlier pages are kept.
	StopTransport StopReason = "transport_error"
)

// PageEvent describes one page pull. Events are diagnostic only.
type PageEvent struct {
	Provider     string
	RatingFilter int
	Page         int
	Records      int
	Kept         int
	HasRecent    bool
}

// BucketResult is the outcome of draining one (provider, rating)
// stream.
type BucketResult struct {
	Provider     string
	Source       types.Source
	RatingFilter int
	Records      []types.RawReviewRecord
	Pages        int
	Events       []PageEvent
	StopReason   StopReason
	Err          error
}

// FetchSummary aggregates all bucket results of a run.
type FetchSummary struct {
	Buckets []BucketResult
	Cutoff  time.Time
}

// TotalRecords returns the number of in-window records collected
// across all buckets.
func (s FetchSummary) TotalRecords() int {
	n := 0
	for _, b := range s.Buckets {
		n += len(b.Records)
	}
	return n
}

// HasFailures reports whether any bucket ended on a transport error.
func (s FetchSummary) HasFailures() bool {
	for _, b := range s.Buckets {
		if b.Err != nil {
			return true
		}
	}
	return false
}

// Batches returns the per-bucket record slices in collection order,
// shaped for the merge step.
func (s FetchSummary) Batches() [][]types.RawReviewRecord {
	out := make([][]types.RawReviewRecord, 0, len(s.Buckets))
	for _, b := range s.Buckets {
		out = append(out, b.Records)
	}
	return out
}

// Collector pulls review pages bucket by bucket. Buckets run strictly
// sequentially with a fixed delay between page pulls, respecting
// per-provider rate limits.
type Collector struct {
	Cfg      types.CollectConfig
	Log      *slog.Logger
	Metrics  *metrics.Metrics
	Progress io.Writer

	// Now is the clock used to derive the cutoff. Tests pin it; nil
	// means time.Now.
	Now func() time.Time
}

// Cutoff returns the start of the collection window.
func (c *Collector) Cutoff() time.Time {
	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}
	return now.Add(-time.Duration(c.Cfg.WindowDays) * 24 * time.Hour)
}

// FetchAll drains every bucket of every adapter in order and returns
// the combined summary. A failed bucket never aborts its siblings.
func (c *Collector) FetchAll(ctx context.Context, adapters []provider.Adapter) FetchSummary {
	cutoff := c.Cutoff()
	summary := FetchSummary{Cutoff: cutoff}

	for _, adapter := range adapters {
		for _, rating := range ratingBuckets(adapter) {
			result := c.FetchBucket(ctx, adapter, rating, cutoff)
			summary.Buckets = append(summary.Buckets, result)

			c.progressf("%s rating=%d: %d records in %d pages (%s)\n",
				result.Provider, result.RatingFilter, len(result.Records), result.Pages, result.StopReason)
		}
	}
	return summary
}

// FetchBucket drains one stream. Only records with a timestamp at or
// after cutoff are collected; stale records inside a mixed page are
// skipped without ending the stream. Stop conditions are checked after
// each page in a fixed order: exhausted cursor, bucket cap, fully
// stale page, page ceiling.
func (c *Collector) FetchBucket(ctx context.Context, adapter provider.Adapter, ratingFilter int, cutoff time.Time) BucketResult {
	result := BucketResult{
		Provider:     adapter.Name(),
		Source:       adapter.Source(),
		RatingFilter: ratingFilter,
	}

	maxPages := (c.Cfg.BucketCap + c.Cfg.PageSize - 1) / c.Cfg.PageSize
	if maxPages > absoluteMaxPages {
		maxPages = absoluteMaxPages
	}

	cursor := ""
	for {
		// Ask only for what the cap still allows, so the final page
		// lands exactly on the bucket cap.
		request := c.Cfg.PageSize
		if remaining := c.Cfg.BucketCap - len(result.Records); remaining < request {
			request = remaining
		}

		start := time.Now()
		page, err := adapter.Pull(ctx, cursor, ratingFilter, request)
		c.Metrics.ObservePageDuration(time.Since(start))
		c.Metrics.IncPage(adapter.Name())
		result.Pages++

		if err != nil {
			result.StopReason = StopTransport
			result.Err = err
			c.Metrics.IncFetchError(adapter.Name(), types.ErrorLabel(err))
			c.logger().Warn("page pull failed, keeping partial bucket",
				slog.String("provider", adapter.Name()),
				slog.Int("rating", ratingFilter),
				slog.Int("page", result.Pages),
				slog.Int("collected", len(result.Records)),
				slog.Any("error", err))
			return result
		}

		// Scan the whole page: providers do not guarantee strict
		// chronological order within a page, so a stale record may be
		// followed by fresh ones.
		kept := 0
		for _, rec := range page.Records {
			if !rec.Timestamp.Before(cutoff) {
				result.Records = append(result.Records, rec)
				kept++
			}
		}
		hasRecent := kept > 0
		c.Metrics.AddReviews(adapter.Name(), kept)

		event := PageEvent{
			Provider:     adapter.Name(),
			RatingFilter: ratingFilter,
			Page:         result.Pages,
			Records:      len(page.Records),
			Kept:         kept,
			HasRecent:    hasRecent,
		}
		result.Events = append(result.Events, event)
		c.emitPageEvent(event)

		switch {
		case page.NextCursor == "":
			result.StopReason = StopExhausted
			return result
		case len(result.Records) >= c.Cfg.BucketCap:
			result.StopReason = StopBucketCap
			return result
		case !hasRecent:
			result.StopReason = StopStalePage
			return result
		case result.Pages >= maxPages:
			result.StopReason = StopPageCeiling
			return result
		}

		cursor = page.NextCursor

		if c.Cfg.PageDelay > 0 {
			select {
			case <-ctx.Done():
				result.StopReason = StopTransport
				result.Err = ctx.Err()
				return result
			case <-time.After(c.Cfg.PageDelay):
			}
		}
	}
}

func (c *Collector) logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}

func (c *Collector) emitPageEvent(ev PageEvent) {
	c.logger().Debug("page pulled",
		slog.String("provider", ev.Provider),
		slog.Int("rating", ev.RatingFilter),
		slog.Int("page", ev.Page),
		slog.Int("records", ev.Records),
		slog.Int("kept", ev.Kept),
		slog.Bool("has_recent", ev.HasRecent))
}

func (c *Collector) progressf(format string, args ...any) {
	if c.Progress == nil {
		return
	}
	fmt.Fprintf(c.Progress, format, args...)
}

// ratingBuckets returns the stream set for an adapter: one stream per
// star rating when the provider can filter, otherwise a single
// unfiltered stream.
func ratingBuckets(adapter provider.Adapter) []int {
	if adapter.SupportsRatingFilter() {
		return []int{1, 2, 3, 4, 5}
	}
	return []int{0}
}
