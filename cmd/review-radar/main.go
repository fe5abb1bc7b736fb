// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the review-radar CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/review-radar/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the review-radar CLI.
var rootCmd = &cobra.Command{
	Use:   "review-radar",
	Short: "Collect and summarize mobile app store reviews",
	Long: `review-radar pulls recent reviews for an app from Google Play and the
Apple App Store, merges them into a deduplicated corpus, and produces a
summary report with rating distributions, themes, action ideas, and
representative quotes.

Each stage is a subcommand: run executes the full pipeline and stores
the result, report re-renders stored runs, search queries collected
reviews, and resolve maps a bundle identifier to its App Store id.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./review-radar.yaml or ~/.config/review-radar/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default info)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("review-radar")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "review-radar"))
		}
	}

	viper.SetEnvPrefix("REVIEW_RADAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// logLevel resolves the effective log level: flag over config key.
func logLevel() string {
	if lvl, _ := rootCmd.PersistentFlags().GetString("log-level"); lvl != "" {
		return lvl
	}
	if lvl := viper.GetString("log_level"); lvl != "" {
		return lvl
	}
	return "info"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
