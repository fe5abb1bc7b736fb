// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pdiddy/review-radar/internal/httputil"
	"github.com/pdiddy/review-radar/pkg/types"
)

// appStoreAPIBase is the iTunes host serving the customer review RSS
// feed. Declared as a var so tests can substitute an httptest server.
var appStoreAPIBase = "https://itunes.apple.com"

// rssMaxPages is the deepest page the feed serves. Requests beyond it
// return errors or repeat content, so the stream ends there.
const rssMaxPages = 10

// AppStore pulls review pages from the public iTunes customer review
// RSS feed. The feed serves fixed-size pages numbered 1 through 10,
// newest first, and cannot filter by star rating, so the collector
// drains it as a single stream.
type AppStore struct {
	Client *http.Client
	Cfg    types.AppStoreConfig
}

// Name returns the adapter identifier.
func (a *AppStore) Name() string { return "app_store" }

// Source returns the storefront constant.
func (a *AppStore) Source() types.Source { return types.SourceAppStore }

// SupportsRatingFilter reports that the RSS feed cannot restrict a
// stream to one star rating.
func (a *AppStore) SupportsRatingFilter() bool { return false }

// Pull fetches one feed page. The cursor is the page number; an empty
// cursor means page 1. ratingFilter and pageSize are accepted for
// interface compatibility but the feed ignores both: pages have a
// fixed server-side size.
func (a *AppStore) Pull(ctx context.Context, cursor string, ratingFilter, pageSize int) (Page, error) {
	page := 1
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return Page{}, &types.ParseError{Source: "app_store", Err: fmt.Errorf("bad cursor %q: %w", cursor, err)}
		}
		page = n
	}
	if page > rssMaxPages {
		return Page{}, nil
	}

	reqURL := fmt.Sprintf("%s/%s/rss/customerreviews/page=%d/id=%s/sortby=mostrecent/json",
		appStoreAPIBase, a.Cfg.Country, page, a.Cfg.AppID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Page{}, &types.TransportError{Provider: "app_store", Op: "pull page", Err: err}
	}
	req.Header.Set("User-Agent", a.Cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return Page{}, &types.TransportError{Provider: "app_store", Op: "pull page", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, &types.TransportError{
			Provider: "app_store",
			Op:       "pull page",
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("unexpected status"),
		}
	}

	var feed rssFeedDocument
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return Page{}, &types.ParseError{Source: "app_store", Err: fmt.Errorf("decoding feed: %w", err)}
	}

	records := make([]types.RawReviewRecord, 0, len(feed.Feed.Entry))
	for _, entry := range feed.Feed.Entry {
		// The feed prepends an app metadata entry that has no rating.
		if entry.Rating.Label == "" {
			continue
		}
		records = append(records, entry.toRecord())
	}

	next := ""
	if len(records) > 0 && page < rssMaxPages {
		next = strconv.Itoa(page + 1)
	}
	return Page{Records: records, NextCursor: next}, nil
}

// toRecord maps one feed entry onto a raw record. The feed wraps every
// value in a label object and carries no developer replies.
func (e rssEntry) toRecord() types.RawReviewRecord {
	rec := types.RawReviewRecord{
		Source: types.SourceAppStore,
		ID:     e.ID.Label,
		Author: e.Author.Name.Label,
		Title:  e.Title.Label,
		Text:   e.Content.Label,
	}
	if n, err := strconv.Atoi(e.Rating.Label); err == nil {
		rec.Rating = n
	}
	if t, err := time.Parse(time.RFC3339, e.Updated.Label); err == nil {
		rec.Timestamp = t.UTC()
	}
	rec.AppVersion = e.Version.Label
	if n, err := strconv.Atoi(e.VoteCount.Label); err == nil {
		rec.VoteCount = n
	}
	return rec
}

// iTunes RSS JSON structures.
type rssFeedDocument struct {
	Feed rssFeed `json:"feed"`
}

type rssFeed struct {
	Entry rssEntries `json:"entry"`
}

// rssEntries tolerates the feed's single-entry quirk: a page with one
// review serializes entry as an object rather than a one-element array.
type rssEntries []rssEntry

func (e *rssEntries) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*e = nil
		return nil
	}
	if trimmed[0] == '[' {
		var list []rssEntry
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*e = list
		return nil
	}
	var single rssEntry
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return err
	}
	*e = rssEntries{single}
	return nil
}

type rssEntry struct {
	ID        rssLabel  `json:"id"`
	Author    rssAuthor `json:"author"`
	Updated   rssLabel  `json:"updated"`
	Rating    rssLabel  `json:"im:rating"`
	Version   rssLabel  `json:"im:version"`
	Title     rssLabel  `json:"title"`
	Content   rssLabel  `json:"content"`
	VoteCount rssLabel  `json:"im:voteCount"`
}

type rssAuthor struct {
	Name rssLabel `json:"name"`
}

type rssLabel struct {
	Label string `json:"label"`
}
