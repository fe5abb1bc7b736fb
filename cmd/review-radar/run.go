// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/pdiddy/review-radar/internal/logging"
	"github.com/pdiddy/review-radar/internal/metrics"
	"github.com/pdiddy/review-radar/internal/pipeline"
	"github.com/pdiddy/review-radar/internal/report"
	"github.com/pdiddy/review-radar/internal/secrets"
	"github.com/pdiddy/review-radar/internal/store"
	"github.com/pdiddy/review-radar/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect reviews and produce a summary report",
	Long: `Run executes the full pipeline: pull recent reviews from the configured
storefronts, merge and deduplicate them, annotate sentiment, derive
themes, action ideas, and quotes, and render the summary report.

Completed runs are saved to the local database so report and search can
work offline. A provider failure never aborts the run; the report
covers whatever was collected.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("play-app", "", "Google Play package name (e.g. com.example.app)")
	runCmd.Flags().String("app-store-id", "", "numeric App Store id")
	runCmd.Flags().String("bundle-id", "", "App Store bundle id, resolved to a numeric id before fetching")
	runCmd.Flags().String("country", "", "storefront country code for both stores")
	runCmd.Flags().Int("days", 0, "collection window in days (default 7)")
	runCmd.Flags().String("db", "", "run database path (default review-radar.db)")
	runCmd.Flags().String("format", "text", "report format: text, json, or yaml")
	runCmd.Flags().String("output", "", "also write the report and corpus to a YAML run file")
	runCmd.Flags().Bool("no-store", false, "skip saving the run to the database")
	runCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address during the run")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	applyRunFlags(cmd, &cfg)
	deriveEnabled(&cfg)
	cfg.Insight.Gemini.APIKey = secretDefault(secrets.GeminiAPIKey, cfg.Insight.Gemini.APIKey)

	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(logLevel())
	m := metrics.New()

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		go serveMetrics(addr, m, log)
	}

	var st *store.Store
	if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
		var err error
		st, err = store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	p := &pipeline.Pipeline{
		Cfg:      cfg,
		Store:    st,
		Log:      log,
		Metrics:  m,
		Progress: os.Stderr,
	}
	result, err := p.Execute(cmd.Context())
	if err != nil {
		return err
	}

	if out, _ := cmd.Flags().GetString("output"); out != "" {
		if err := report.WriteRunFile(out, result.Report, result.Reviews); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote run file %s\n", out)
	}

	format, _ := cmd.Flags().GetString("format")
	if err := report.Render(os.Stdout, result.Report, format); err != nil {
		return err
	}

	if result.Fetch.HasFailures() {
		fmt.Fprintln(os.Stderr, "warning: some review streams failed; the report covers partial data")
	}
	return nil
}

func applyRunFlags(cmd *cobra.Command, cfg *types.Config) {
	if v, _ := cmd.Flags().GetString("play-app"); v != "" {
		cfg.Providers.GooglePlay.AppID = v
	}
	if v, _ := cmd.Flags().GetString("app-store-id"); v != "" {
		cfg.Providers.AppStore.AppID = v
	}
	if v, _ := cmd.Flags().GetString("bundle-id"); v != "" {
		cfg.Providers.AppStore.BundleID = v
	}
	if v, _ := cmd.Flags().GetString("country"); v != "" {
		cfg.Providers.GooglePlay.Country = v
		cfg.Providers.AppStore.Country = v
	}
	if v, _ := cmd.Flags().GetInt("days"); v > 0 {
		cfg.Collect.WindowDays = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.Store.Path = v
	}
}

func serveMetrics(addr string, m *metrics.Metrics, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	log.Info("serving metrics", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("metrics server stopped", slog.Any("error", err))
	}
}
