// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/review-radar/internal/httputil"
	"github.com/pdiddy/review-radar/pkg/types"
)

// playAPIBase is the Play Store batchexecute endpoint. Declared as a
// var so tests can substitute an httptest server.
var playAPIBase = "https://play.google.com/_/PlayStoreUi/data/batchexecute"

const (
	// playRPCID is the batchexecute RPC that serves review pages.
	playRPCID = "UsvDTd"

	// playSortNewest orders review pages newest first.
	playSortNewest = 2

	// playMaxPageSize is the largest batch the endpoint honors. Larger
	// requests are silently truncated server-side, so clamp up front.
	playMaxPageSize = 199
)

// GooglePlay pulls review pages through the Play Store web app's
// batchexecute RPC. The endpoint is unofficial: requests carry an
// envelope of nested JSON arrays and responses come back the same way,
// preceded by an anti-JSON guard line.
type GooglePlay struct {
	Client *http.Client
	Cfg    types.GooglePlayConfig
}

// Name returns the adapter identifier.
func (g *GooglePlay) Name() string { return "google_play" }

// Source returns the storefront constant.
func (g *GooglePlay) Source() types.Source { return types.SourceGooglePlay }

// SupportsRatingFilter reports that Play pulls can be restricted to a
// single star rating, enabling one stream per rating.
func (g *GooglePlay) SupportsRatingFilter() bool { return true }

// Pull fetches one page of reviews, newest first. An empty cursor
// starts the stream; the returned cursor resumes it.
func (g *GooglePlay) Pull(ctx context.Context, cursor string, ratingFilter, pageSize int) (Page, error) {
	if pageSize <= 0 || pageSize > playMaxPageSize {
		pageSize = playMaxPageSize
	}

	form, err := buildPlayForm(g.Cfg.AppID, cursor, ratingFilter, pageSize)
	if err != nil {
		return Page{}, &types.ParseError{Source: "google_play", Err: fmt.Errorf("building request payload: %w", err)}
	}

	params := url.Values{
		"hl": {g.Cfg.Language},
		"gl": {g.Cfg.Country},
	}
	reqURL := playAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form))
	if err != nil {
		return Page{}, &types.TransportError{Provider: "google_play", Op: "pull page", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")
	req.Header.Set("User-Agent", g.Cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, g.Client, req, 0)
	if err != nil {
		return Page{}, &types.TransportError{Provider: "google_play", Op: "pull page", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, &types.TransportError{
			Provider: "google_play",
			Op:       "pull page",
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("unexpected status"),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Page{}, &types.TransportError{Provider: "google_play", Op: "read page body", Err: err}
	}

	return parsePlayResponse(body)
}

// buildPlayForm assembles the form body for one review page request.
// The criteria travel as a JSON string nested inside the outer
// envelope, so the inner document is marshaled first and embedded as
// text.
func buildPlayForm(appID, cursor string, ratingFilter, pageSize int) (string, error) {
	var token any
	if cursor != "" {
		token = cursor
	}
	var score any
	if ratingFilter > 0 {
		score = ratingFilter
	}

	criteria := []any{
		nil,
		nil,
		[]any{2, playSortNewest, []any{pageSize, nil, token}, nil, []any{nil, score}},
		[]any{appID, 7},
	}
	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return "", err
	}

	envelope := []any{[]any{[]any{playRPCID, string(criteriaJSON), nil, "generic"}}}
	envelopeJSON, err := json.Marshal(envelope)
	if err != nil {
		return "", err
	}

	form := url.Values{"f.req": {string(envelopeJSON)}}
	return form.Encode(), nil
}

// parsePlayResponse unwraps a batchexecute response down to the review
// elements and the continuation token. The body opens with a guard
// line before the JSON document; everything before the first bracket
// is discarded.
func parsePlayResponse(body []byte) (Page, error) {
	start := bytes.IndexByte(body, '[')
	if start < 0 {
		return Page{}, &types.ParseError{Source: "google_play", Err: fmt.Errorf("no JSON document in response")}
	}

	var outer []json.RawMessage
	if err := json.Unmarshal(body[start:], &outer); err != nil {
		return Page{}, &types.ParseError{Source: "google_play", Err: fmt.Errorf("decoding envelope: %w", err)}
	}
	if len(outer) == 0 {
		return Page{}, &types.ParseError{Source: "google_play", Err: fmt.Errorf("empty envelope")}
	}

	var first []json.RawMessage
	if err := json.Unmarshal(outer[0], &first); err != nil {
		return Page{}, &types.ParseError{Source: "google_play", Err: fmt.Errorf("decoding envelope frame: %w", err)}
	}
	if len(first) < 3 {
		return Page{}, &types.ParseError{Source: "google_play", Err: fmt.Errorf("envelope frame too short")}
	}

	// The payload is a JSON document embedded as a string. A null or
	// empty payload means the stream is exhausted.
	var payloadText string
	if err := json.Unmarshal(first[2], &payloadText); err != nil || payloadText == "" {
		return Page{}, nil
	}

	var payload []json.RawMessage
	if err := json.Unmarshal([]byte(payloadText), &payload); err != nil {
		return Page{}, &types.ParseError{Source: "google_play", Err: fmt.Errorf("decoding review payload: %w", err)}
	}
	if len(payload) == 0 {
		return Page{}, nil
	}

	reviewsRaw := arrayAt(payload, 0)
	records := make([]types.RawReviewRecord, 0, len(reviewsRaw))
	for _, raw := range reviewsRaw {
		if rec, ok := parsePlayReview(raw); ok {
			records = append(records, rec)
		}
	}

	return Page{Records: records, NextCursor: playContinuationToken(payload)}, nil
}

// parsePlayReview maps one positional review element onto a raw
// record. Fields the element omits stay at their zero values and are
// handled downstream.
func parsePlayReview(raw json.RawMessage) (types.RawReviewRecord, bool) {
	var el []json.RawMessage
	if err := json.Unmarshal(raw, &el); err != nil || len(el) == 0 {
		return types.RawReviewRecord{}, false
	}

	rec := types.RawReviewRecord{Source: types.SourceGooglePlay}
	rec.ID = stringAt(el, 0)
	if user := arrayAt(el, 1); user != nil {
		rec.Author = stringAt(user, 0)
	}
	rec.Rating = intAt(el, 2)
	rec.Text = stringAt(el, 4)
	if ts := arrayAt(el, 5); ts != nil {
		if sec := int64At(ts, 0); sec > 0 {
			rec.Timestamp = time.Unix(sec, 0).UTC()
		}
	}
	rec.VoteCount = intAt(el, 6)
	if reply := arrayAt(el, 7); reply != nil {
		rec.ReplyText = stringAt(reply, 1)
		if replyTS := arrayAt(reply, 2); replyTS != nil {
			if sec := int64At(replyTS, 0); sec > 0 {
				rec.ReplyTimestamp = time.Unix(sec, 0).UTC()
			}
		}
	}
	rec.AppVersion = stringAt(el, 10)
	return rec, true
}

// playContinuationToken digs the next-page token out of the payload
// tail. Responses place it in the last or second-to-last element
// depending on the criteria, so both are probed.
func playContinuationToken(payload []json.RawMessage) string {
	for i := len(payload) - 1; i >= 0 && i >= len(payload)-2; i-- {
		var tail []json.RawMessage
		if err := json.Unmarshal(payload[i], &tail); err != nil || len(tail) == 0 {
			continue
		}
		var token string
		if err := json.Unmarshal(tail[len(tail)-1], &token); err == nil && token != "" {
			return token
		}
	}
	return ""
}

// Positional element helpers. batchexecute documents are heterogeneous
// arrays, so fields are addressed by index and decoded best-effort.

func arrayAt(el []json.RawMessage, i int) []json.RawMessage {
	if i < 0 || i >= len(el) {
		return nil
	}
	var out []json.RawMessage
	if err := json.Unmarshal(el[i], &out); err != nil {
		return nil
	}
	return out
}

func stringAt(el []json.RawMessage, i int) string {
	if i < 0 || i >= len(el) {
		return ""
	}
	var s string
	json.Unmarshal(el[i], &s)
	return s
}

func intAt(el []json.RawMessage, i int) int {
	if i < 0 || i >= len(el) {
		return 0
	}
	var n int
	json.Unmarshal(el[i], &n)
	return n
}

func int64At(el []json.RawMessage, i int) int64 {
	if i < 0 || i >= len(el) {
		return 0
	}
	var n int64
	json.Unmarshal(el[i], &n)
	return n
}
