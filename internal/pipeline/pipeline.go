// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires collection, merge, sentiment annotation,
// insight generation, and persistence into one end-to-end run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pdiddy/review-radar/internal/collect"
	"github.com/pdiddy/review-radar/internal/corpus"
	"github.com/pdiddy/review-radar/internal/insight"
	"github.com/pdiddy/review-radar/internal/metrics"
	"github.com/pdiddy/review-radar/internal/provider"
	"github.com/pdiddy/review-radar/internal/report"
	"github.com/pdiddy/review-radar/internal/sentiment"
	"github.com/pdiddy/review-radar/internal/store"
	"github.com/pdiddy/review-radar/pkg/types"
)

// Pipeline executes one run. Collaborators left nil are built from the
// configuration; tests override the exported fields directly.
type Pipeline struct {
	Cfg types.Config

	// Adapters overrides the provider set built from Cfg.Providers.
	Adapters []provider.Adapter

	// Backend overrides the insight backend built from Cfg.Insight.
	Backend insight.Backend

	// Scorer assigns sentiment scores. Nil means the VADER scorer.
	Scorer sentiment.Scorer

	// Store receives the completed run. Nil skips persistence.
	Store *store.Store

	Log      *slog.Logger
	Metrics  *metrics.Metrics
	Progress io.Writer

	// Now is the clock behind the window cutoff and the report
	// timestamp. Tests pin it; nil means time.Now.
	Now func() time.Time
}

// Result is the outcome of one run.
type Result struct {
	Report  types.SummaryReport
	Reviews []types.CanonicalReview

	// RunID identifies the persisted run, zero when no store was
	// attached.
	RunID int64

	Fetch collect.FetchSummary
	Merge corpus.MergeStats
}

// Execute validates the configuration and runs the stages in order:
// fetch, merge, annotate, assemble, persist. Provider failures do not
// abort the run; the report covers whatever was collected.
func (p *Pipeline) Execute(ctx context.Context) (*Result, error) {
	start := time.Now()

	if err := p.Cfg.Validate(); err != nil {
		return nil, err
	}

	adapters := p.Adapters
	if adapters == nil {
		if err := p.resolveAppID(ctx); err != nil {
			return nil, err
		}
		adapters = Adapters(p.Cfg.Providers)
	}

	collector := &collect.Collector{
		Cfg:      p.Cfg.Collect,
		Log:      p.Log,
		Metrics:  p.Metrics,
		Progress: p.Progress,
		Now:      p.Now,
	}
	fetch := collector.FetchAll(ctx, adapters)

	merged, stats := corpus.Merge(fetch.Batches(), p.Cfg.Collect.GlobalCap, p.Log)
	p.Metrics.AddDuplicates(stats.Duplicates)
	p.Metrics.SetCorpusSize(len(merged))
	p.logger().Info("corpus merged",
		slog.Int("fetched", stats.Input),
		slog.Int("dropped", stats.Dropped),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("corpus", len(merged)))
	p.progressf("merged %d reviews (%d duplicates, %d dropped)\n",
		len(merged), stats.Duplicates, stats.Dropped)

	sentiment.Annotate(merged, p.scorer())

	generator := &insight.Generator{
		Cfg:     p.Cfg.Insight,
		Backend: p.backend(),
		Log:     p.Log,
		Metrics: p.Metrics,
	}
	assembler := &report.Assembler{Cfg: p.Cfg, Insight: generator, Now: p.Now}
	rep := assembler.Assemble(ctx, merged)

	result := &Result{Report: rep, Reviews: merged, Fetch: fetch, Merge: stats}
	if p.Store != nil {
		runID, err := p.Store.SaveRun(ctx, rep, merged)
		if err != nil {
			return result, fmt.Errorf("saving run: %w", err)
		}
		result.RunID = runID
		p.progressf("saved run %d\n", runID)
	}

	p.Metrics.ObserveRunDuration(time.Since(start))
	return result, nil
}

// Adapters builds the enabled provider adapters from configuration.
func Adapters(cfg types.ProvidersConfig) []provider.Adapter {
	var adapters []provider.Adapter
	if cfg.GooglePlay.Enabled {
		adapters = append(adapters, &provider.GooglePlay{
			Client: httpClient(cfg.GooglePlay.HTTPConfig),
			Cfg:    cfg.GooglePlay,
		})
	}
	if cfg.AppStore.Enabled {
		adapters = append(adapters, &provider.AppStore{
			Client: httpClient(cfg.AppStore.HTTPConfig),
			Cfg:    cfg.AppStore,
		})
	}
	return adapters
}

// Backend builds the configured insight backend, or nil when none is
// usable. Gemini without an API key counts as unconfigured: the
// generator then runs the deterministic stage alone.
func Backend(cfg types.InsightConfig) insight.Backend {
	if cfg.Backend == "gemini" && cfg.Gemini.APIKey != "" {
		return &insight.Gemini{
			Cfg:    cfg.Gemini,
			Client: httpClient(cfg.Gemini.HTTPConfig),
		}
	}
	return nil
}

// resolveAppID fills in the numeric App Store id when only a bundle id
// is configured. The review feed rejects bundle ids.
func (p *Pipeline) resolveAppID(ctx context.Context) error {
	as := &p.Cfg.Providers.AppStore
	if !as.Enabled || as.AppID != "" || as.BundleID == "" {
		return nil
	}
	id, err := provider.ResolveAppID(ctx, httpClient(as.HTTPConfig), *as)
	if err != nil {
		return fmt.Errorf("resolving app store id for %s: %w", as.BundleID, err)
	}
	as.AppID = id
	p.logger().Info("resolved app store id",
		slog.String("bundle_id", as.BundleID),
		slog.String("app_id", id))
	return nil
}

func (p *Pipeline) backend() insight.Backend {
	if p.Backend != nil {
		return p.Backend
	}
	return Backend(p.Cfg.Insight)
}

func (p *Pipeline) scorer() sentiment.Scorer {
	if p.Scorer != nil {
		return p.Scorer
	}
	return sentiment.VADER{}
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}

func (p *Pipeline) progressf(format string, args ...any) {
	if p.Progress == nil {
		return
	}
	fmt.Fprintf(p.Progress, format, args...)
}

func httpClient(cfg types.HTTPConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}
