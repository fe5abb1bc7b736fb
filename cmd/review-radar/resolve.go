// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-radar/internal/provider"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [bundle-id]",
	Short: "Resolve a bundle identifier to its numeric App Store id",
	Long: `Resolve looks up a bundle identifier (e.g. com.example.app) through the
iTunes lookup endpoint and prints the numeric App Store id the review
feed requires. Use the id in providers.app_store.app_id to skip the
lookup on every run.`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("country", "", "storefront country code (default us)")
	resolveCmd.Flags().Bool("json", false, "output the result as JSON")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a bundle identifier (e.g. com.example.app)")
	}

	cfg := buildConfig().Providers.AppStore
	cfg.BundleID = args[0]
	if country, _ := cmd.Flags().GetString("country"); country != "" {
		cfg.Country = country
	}

	client := &http.Client{Timeout: cfg.Timeout}
	app, err := provider.Lookup(cmd.Context(), client, cfg)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(app)
	}

	fmt.Printf("%s (%s): %s\n", app.Name, app.BundleID, app.ID)
	return nil
}
