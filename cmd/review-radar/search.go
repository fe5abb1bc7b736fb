// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-radar/internal/store"
	"github.com/pdiddy/review-radar/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored reviews with full-text search and filters",
	Long: `Search queries the reviews collected by previous runs using FTS5
full-text search, structured filters (rating, sentiment, source), or a
combination of both. Results come from the latest run unless --run
selects an earlier one.

Use --export with --format to write the matching reviews to a file
instead of listing them.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "full-text search query")
	searchCmd.Flags().Int("rating", 0, "filter by star rating 1..5")
	searchCmd.Flags().String("sentiment", "", "filter by sentiment: positive, neutral, negative")
	searchCmd.Flags().String("source", "", "filter by source: google_play or app_store")
	searchCmd.Flags().Int64("run", 0, "search a specific run id (0 = latest)")
	searchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("export", "", "write matching reviews to this file instead of listing")
	searchCmd.Flags().String("format", "yaml", "export format: yaml or json")
	searchCmd.Flags().String("db", "", "run database path (default review-radar.db)")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := queryOptsFromFlags(cmd, args)

	if exportPath, _ := cmd.Flags().GetString("export"); exportPath != "" {
		return runExport(st, exportPath, cmd, opts)
	}

	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search terms, --rating, --sentiment, --source, or --run")
	}

	results, err := st.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(results, jsonOutput)
}

func runExport(st *store.Store, path string, cmd *cobra.Command, opts store.QueryOptions) error {
	format, _ := cmd.Flags().GetString("format")

	var (
		n   int
		err error
	)
	switch format {
	case "yaml", "":
		n, err = st.ExportYAML(context.Background(), path, opts)
	case "json":
		n, err = st.ExportJSON(context.Background(), path, opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d reviews to %s\n", n, path)
	return nil
}

func formatSearchOutput(results []store.StoredReview, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No reviews found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-5s  %-8s  %-10s  %-11s  %s\n",
		"Rank", "Stars", "Polarity", "Date", "Source", "Text")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for i, r := range results {
		text := r.Text
		if len(text) > 50 {
			text = text[:47] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-5d  %-8s  %-10s  %-11s  %s\n",
			i+1, r.Rating, r.SentimentCategory, r.Timestamp.Format("2006-01-02"), r.Source, text)
	}

	fmt.Fprintf(os.Stdout, "\n%d reviews\n", len(results))
	return nil
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	rating, _ := cmd.Flags().GetInt("rating")
	sentiment, _ := cmd.Flags().GetString("sentiment")
	source, _ := cmd.Flags().GetString("source")
	runID, _ := cmd.Flags().GetInt64("run")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Text:       queryText,
		Rating:     rating,
		Sentiment:  types.SentimentCategory(sentiment),
		Source:     types.Source(source),
		RunID:      runID,
		MaxResults: limit,
	}
}
