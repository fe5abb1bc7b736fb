// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-radar/internal/report"
	"github.com/pdiddy/review-radar/internal/store"
	"github.com/pdiddy/review-radar/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a stored report without fetching anything",
	Long: `Report re-renders a completed run: the latest by default, a specific
one with --run, or a YAML run file written by run --output with --file.
Use --list to show the run history instead.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("format", "text", "report format: text, json, or yaml")
	reportCmd.Flags().Int64("run", 0, "render a specific run id (0 = latest)")
	reportCmd.Flags().String("file", "", "render a run file instead of the database")
	reportCmd.Flags().String("db", "", "run database path (default review-radar.db)")
	reportCmd.Flags().Bool("list", false, "list stored runs instead of rendering one")
	reportCmd.Flags().Int("limit", 0, "maximum runs to list (0 = default)")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	if file, _ := cmd.Flags().GetString("file"); file != "" {
		rf, err := report.ReadRunFile(file)
		if err != nil {
			return err
		}
		return report.Render(os.Stdout, rf.Report, format)
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if list, _ := cmd.Flags().GetBool("list"); list {
		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := st.ListRuns(context.Background(), limit)
		if err != nil {
			return err
		}
		formatRunList(runs)
		return nil
	}

	var rep types.SummaryReport
	if runID, _ := cmd.Flags().GetInt64("run"); runID > 0 {
		rep, _, err = st.Report(context.Background(), runID)
	} else {
		rep, _, err = st.LatestReport(context.Background())
	}
	if err != nil {
		return err
	}
	return report.Render(os.Stdout, rep, format)
}

func formatRunList(runs []store.RunSummary) {
	if len(runs) == 0 {
		fmt.Println("No runs stored yet.")
		return
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-17s  %-8s  %-7s  %s\n",
		"Run", "Generated", "Reviews", "Avg", "Backend")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 55))
	for _, r := range runs {
		fmt.Fprintf(os.Stdout, "%-5d  %-17s  %-8d  %-7.2f  %s\n",
			r.ID, r.GeneratedAt.Format("2006-01-02 15:04"), r.TotalReviews, r.AverageRating, r.BackendUsed)
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
}

// openStore opens the run database named by --db or the config.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = buildConfig().Store.Path
	}
	return store.Open(types.StoreConfig{Path: path})
}
