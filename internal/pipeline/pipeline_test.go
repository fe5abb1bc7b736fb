// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/review-radar/internal/insight"
	"github.com/pdiddy/review-radar/internal/logging"
	"github.com/pdiddy/review-radar/internal/provider"
	"github.com/pdiddy/review-radar/internal/store"
	"github.com/pdiddy/review-radar/pkg/types"
)

var runTime = time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)

// fakeAdapter serves one canned page per rating bucket.
type fakeAdapter struct {
	name    string
	source  types.Source
	filter  bool
	records map[int][]types.RawReviewRecord
	pullErr error
	pulls   int
}

func (f *fakeAdapter) Name() string               { return f.name }
func (f *fakeAdapter) Source() types.Source       { return f.source }
func (f *fakeAdapter) SupportsRatingFilter() bool { return f.filter }

func (f *fakeAdapter) Pull(_ context.Context, _ string, ratingFilter, _ int) (provider.Page, error) {
	f.pulls++
	if f.pullErr != nil {
		return provider.Page{}, f.pullErr
	}
	return provider.Page{Records: f.records[ratingFilter]}, nil
}

type mockBackend struct {
	response string
	calls    int
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Generate(context.Context, string) (string, error) {
	m.calls++
	return m.response, nil
}

func testConfig(t *testing.T) types.Config {
	t.Helper()
	cfg := types.DefaultConfig()
	cfg.Providers.GooglePlay.Enabled = true
	cfg.Providers.GooglePlay.AppID = "com.example.app"
	cfg.Collect.PageDelay = 0
	cfg.Insight.Backend = ""
	cfg.Store.Path = filepath.Join(t.TempDir(), "test.db")
	return cfg
}

func record(id string, rating int, text string) types.RawReviewRecord {
	return types.RawReviewRecord{
		ID:        id,
		Source:    types.SourceGooglePlay,
		Rating:    rating,
		Text:      text,
		Author:    "Tester",
		Timestamp: runTime.Add(-time.Duration(rating) * time.Hour),
	}
}

func playAdapter() *fakeAdapter {
	return &fakeAdapter{
		name:   "google_play",
		source: types.SourceGooglePlay,
		filter: true,
		records: map[int][]types.RawReviewRecord{
			1: {record("r1", 1, "App crashes on startup, terrible experience")},
			2: {record("r2", 2, "Checkout is broken and support never answers")},
			3: {record("r3", 3, "Average app, some crashes now and then")},
			4: {record("r4", 4, "Pretty good overall, minor bugs")},
			5: {record("r5", 5, "Love it, works great"), record("r4", 4, "Pretty good overall, minor bugs")},
		},
	}
}

func testPipeline(t *testing.T, cfg types.Config) (*Pipeline, *store.Store) {
	t.Helper()
	st, err := store.Open(cfg.Store)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return &Pipeline{
		Cfg:      cfg,
		Adapters: []provider.Adapter{playAdapter()},
		Store:    st,
		Log:      logging.Nop(),
		Now:      func() time.Time { return runTime },
	}, st
}

func TestExecuteEndToEnd(t *testing.T) {
	p, st := testPipeline(t, testConfig(t))

	result, err := p.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// Five distinct reviews; r4 appears in two buckets and dedups.
	if result.Report.TotalReviews != 5 {
		t.Errorf("TotalReviews = %d, want 5", result.Report.TotalReviews)
	}
	if result.Merge.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", result.Merge.Duplicates)
	}
	if result.Report.BackendUsed != insight.DeterministicBackendName {
		t.Errorf("BackendUsed = %q, want deterministic", result.Report.BackendUsed)
	}
	if result.Report.SourceCounts[types.SourceGooglePlay] != 5 {
		t.Errorf("SourceCounts = %v", result.Report.SourceCounts)
	}

	// Every review lands in a sentiment band.
	total := 0
	for _, n := range result.Report.SentimentCounts {
		total += n
	}
	if total != 5 {
		t.Errorf("sentiment counts cover %d reviews, want 5", total)
	}

	// The run is persisted and readable back.
	if result.RunID != 1 {
		t.Errorf("RunID = %d, want 1", result.RunID)
	}
	rep, runID, err := st.LatestReport(context.Background())
	if err != nil {
		t.Fatalf("LatestReport: %v", err)
	}
	if runID != result.RunID {
		t.Errorf("stored run = %d, want %d", runID, result.RunID)
	}
	if rep.TotalReviews != 5 {
		t.Errorf("stored TotalReviews = %d, want 5", rep.TotalReviews)
	}
	stored, err := st.Retrieve(context.Background(), store.QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 5 {
		t.Errorf("stored %d reviews, want 5", len(stored))
	}
}

func TestExecuteAnnotatesSentiment(t *testing.T) {
	p, _ := testPipeline(t, testConfig(t))

	result, err := p.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	categories := map[string]types.SentimentCategory{}
	for _, r := range result.Reviews {
		categories[r.ID] = r.SentimentCategory
	}
	if categories["r5"] != types.SentimentPositive {
		t.Errorf("r5 sentiment = %q, want positive", categories["r5"])
	}
	if categories["r1"] != types.SentimentNegative {
		t.Errorf("r1 sentiment = %q, want negative", categories["r1"])
	}
}

func TestExecuteUsesConfiguredBackend(t *testing.T) {
	cfg := testConfig(t)
	p, _ := testPipeline(t, cfg)
	backend := &mockBackend{response: `[{"theme": "crashes", "count": 2}]`}
	p.Backend = backend

	result, err := p.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Report.BackendUsed != "mock" {
		t.Errorf("BackendUsed = %q, want mock", result.Report.BackendUsed)
	}
	if backend.calls == 0 {
		t.Error("backend never called")
	}
}

func TestExecuteInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Providers.GooglePlay.Enabled = false

	p := &Pipeline{Cfg: cfg, Log: logging.Nop()}
	_, err := p.Execute(context.Background())
	if err == nil {
		t.Fatal("want error for config without providers")
	}
	var cfgErr *types.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("error type = %T, want *types.ConfigError", err)
	}
}

func TestExecuteProviderFailureKeepsRun(t *testing.T) {
	p, _ := testPipeline(t, testConfig(t))
	p.Adapters = []provider.Adapter{
		&fakeAdapter{name: "google_play", source: types.SourceGooglePlay, filter: true, pullErr: errors.New("boom")},
	}

	result, err := p.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Fetch.HasFailures() {
		t.Error("fetch summary should record failures")
	}
	if result.Report.TotalReviews != 0 {
		t.Errorf("TotalReviews = %d, want 0", result.Report.TotalReviews)
	}
	if result.Report.BackendUsed != "none" {
		t.Errorf("BackendUsed = %q, want none for empty report", result.Report.BackendUsed)
	}
}

func TestExecuteWithoutStore(t *testing.T) {
	p, _ := testPipeline(t, testConfig(t))
	p.Store = nil

	result, err := p.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.RunID != 0 {
		t.Errorf("RunID = %d, want 0 without a store", result.RunID)
	}
	if result.Report.TotalReviews != 5 {
		t.Errorf("TotalReviews = %d, want 5", result.Report.TotalReviews)
	}
}

func TestExecuteWindowsOutStaleRecords(t *testing.T) {
	cfg := testConfig(t)
	adapter := playAdapter()
	adapter.records[3] = append(adapter.records[3],
		types.RawReviewRecord{
			ID: "stale", Source: types.SourceGooglePlay, Rating: 3,
			Text: "Old review from last month", Author: "Old Timer",
			Timestamp: runTime.Add(-30 * 24 * time.Hour),
		})

	p, _ := testPipeline(t, cfg)
	p.Adapters = []provider.Adapter{adapter}

	result, err := p.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Report.TotalReviews != 5 {
		t.Errorf("TotalReviews = %d, want 5 (stale record excluded)", result.Report.TotalReviews)
	}
	for _, r := range result.Reviews {
		if r.ID == "stale" {
			t.Error("stale record survived the window filter")
		}
	}
}

func TestExecuteReportsProgress(t *testing.T) {
	p, _ := testPipeline(t, testConfig(t))
	var buf strings.Builder
	p.Progress = &buf

	if _, err := p.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "merged 5 reviews") {
		t.Errorf("progress output missing merge line: %s", out)
	}
	if !strings.Contains(out, "saved run 1") {
		t.Errorf("progress output missing save line: %s", out)
	}
}

// --- constructor tests ---

func TestAdaptersFromConfig(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Providers.GooglePlay.Enabled = true
	cfg.Providers.GooglePlay.AppID = "com.example.app"
	cfg.Providers.AppStore.Enabled = true
	cfg.Providers.AppStore.AppID = "1575323645"

	adapters := Adapters(cfg.Providers)
	if len(adapters) != 2 {
		t.Fatalf("got %d adapters, want 2", len(adapters))
	}
	if adapters[0].Name() != "google_play" || adapters[1].Name() != "app_store" {
		t.Errorf("adapter names = %s, %s", adapters[0].Name(), adapters[1].Name())
	}

	cfg.Providers.AppStore.Enabled = false
	adapters = Adapters(cfg.Providers)
	if len(adapters) != 1 {
		t.Errorf("got %d adapters, want 1", len(adapters))
	}
}

func TestBackendFromConfig(t *testing.T) {
	cfg := types.DefaultConfig().Insight

	if b := Backend(cfg); b != nil {
		t.Errorf("backend without API key = %v, want nil", b)
	}

	cfg.Gemini.APIKey = "test-key"
	b := Backend(cfg)
	if b == nil {
		t.Fatal("backend with API key should be configured")
	}
	if b.Name() != "gemini" {
		t.Errorf("backend name = %q, want gemini", b.Name())
	}

	cfg.Backend = ""
	if b := Backend(cfg); b != nil {
		t.Errorf("backend with empty selection = %v, want nil", b)
	}
}
