// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/review-radar/internal/httputil"
	"github.com/pdiddy/review-radar/pkg/types"
)

// AppLookup is the result of resolving a bundle identifier through the
// iTunes lookup endpoint.
type AppLookup struct {
	ID       string
	Name     string
	BundleID string
}

// Lookup resolves a bundle identifier to the numeric App Store id and
// app name. The review feed only accepts the numeric id, so configs
// that carry a bundle id resolve it once before collection starts.
func Lookup(ctx context.Context, client *http.Client, cfg types.AppStoreConfig) (AppLookup, error) {
	params := url.Values{
		"bundleId": {cfg.BundleID},
		"country":  {cfg.Country},
	}
	reqURL := appStoreAPIBase + "/lookup?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return AppLookup{}, &types.TransportError{Provider: "app_store", Op: "lookup app id", Err: err}
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return AppLookup{}, &types.TransportError{Provider: "app_store", Op: "lookup app id", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return AppLookup{}, &types.TransportError{
			Provider: "app_store",
			Op:       "lookup app id",
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("unexpected status"),
		}
	}

	var lr lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return AppLookup{}, &types.ParseError{Source: "app_store", Err: fmt.Errorf("decoding lookup response: %w", err)}
	}
	if lr.ResultCount == 0 || len(lr.Results) == 0 {
		return AppLookup{}, fmt.Errorf("no app found for bundle %q in country %q", cfg.BundleID, cfg.Country)
	}

	first := lr.Results[0]
	return AppLookup{
		ID:       strconv.FormatInt(first.TrackID, 10),
		Name:     first.TrackName,
		BundleID: first.BundleID,
	}, nil
}

// ResolveAppID resolves a bundle identifier to the numeric App Store
// id alone.
func ResolveAppID(ctx context.Context, client *http.Client, cfg types.AppStoreConfig) (string, error) {
	app, err := Lookup(ctx, client, cfg)
	if err != nil {
		return "", err
	}
	return app.ID, nil
}

// iTunes lookup JSON structures.
type lookupResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []lookupResult `json:"results"`
}

type lookupResult struct {
	TrackID   int64  `json:"trackId"`
	TrackName string `json:"trackName"`
	BundleID  string `json:"bundleId"`
}
