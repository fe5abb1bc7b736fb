// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/review-radar/pkg/types"
)

// buildConfig layers the config file and environment over the built-in
// defaults. Command flags overlay the result afterwards.
func buildConfig() types.Config {
	cfg := types.DefaultConfig()

	setInt(&cfg.Collect.WindowDays, "collect.window_days")
	setInt(&cfg.Collect.GlobalCap, "collect.global_cap")
	setInt(&cfg.Collect.PageSize, "collect.page_size")
	setInt(&cfg.Collect.BucketCap, "collect.bucket_cap")
	setDuration(&cfg.Collect.PageDelay, "collect.page_delay")

	setString(&cfg.Providers.GooglePlay.AppID, "providers.google_play.app_id")
	setString(&cfg.Providers.GooglePlay.Language, "providers.google_play.language")
	setString(&cfg.Providers.GooglePlay.Country, "providers.google_play.country")
	setString(&cfg.Providers.AppStore.AppID, "providers.app_store.app_id")
	setString(&cfg.Providers.AppStore.BundleID, "providers.app_store.bundle_id")
	setString(&cfg.Providers.AppStore.Country, "providers.app_store.country")

	setString(&cfg.Insight.Backend, "insight.backend")
	setInt(&cfg.Insight.ThemeSampleCap, "insight.theme_sample_cap")
	setInt(&cfg.Insight.ActionSampleCap, "insight.action_sample_cap")
	setInt(&cfg.Insight.QuoteSampleCap, "insight.quote_sample_cap")
	setInt(&cfg.Insight.ThemeTopK, "insight.theme_top_k")
	setInt(&cfg.Insight.KeywordTopK, "insight.keyword_top_k")
	setInt(&cfg.Insight.QuoteCount, "insight.quote_count")
	setInt(&cfg.Insight.PromptTextBudget, "insight.prompt_text_budget")
	setString(&cfg.Insight.Gemini.Model, "insight.gemini.model")
	setString(&cfg.Insight.Gemini.APIKey, "insight.gemini.api_key")

	setString(&cfg.Store.Path, "store.path")

	// Shared HTTP settings apply to every outbound client.
	if viper.IsSet("http.timeout") {
		t := viper.GetDuration("http.timeout")
		cfg.Providers.GooglePlay.Timeout = t
		cfg.Providers.AppStore.Timeout = t
		cfg.Insight.Gemini.Timeout = t
	}
	if viper.IsSet("http.user_agent") {
		ua := viper.GetString("http.user_agent")
		cfg.Providers.GooglePlay.UserAgent = ua
		cfg.Providers.AppStore.UserAgent = ua
		cfg.Insight.Gemini.UserAgent = ua
	}

	return cfg
}

// deriveEnabled turns providers on when they have an app identifier,
// unless the config explicitly says otherwise. Runs after flag
// overlays so flag-supplied identifiers count.
func deriveEnabled(cfg *types.Config) {
	if viper.IsSet("providers.google_play.enabled") {
		cfg.Providers.GooglePlay.Enabled = viper.GetBool("providers.google_play.enabled")
	} else {
		cfg.Providers.GooglePlay.Enabled = cfg.Providers.GooglePlay.AppID != ""
	}
	if viper.IsSet("providers.app_store.enabled") {
		cfg.Providers.AppStore.Enabled = viper.GetBool("providers.app_store.enabled")
	} else {
		cfg.Providers.AppStore.Enabled = cfg.Providers.AppStore.AppID != "" || cfg.Providers.AppStore.BundleID != ""
	}
}

func setString(dst *string, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

func setInt(dst *int, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetInt(key)
	}
}

func setDuration(dst *time.Duration, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetDuration(key)
	}
}
