package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "review-radar/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CollectConfig holds settings for the collection stage.
type CollectConfig struct {
	// WindowDays is the collection window in days (default 7). Reviews
	// older than now minus the window are discarded.
	WindowDays int `json:"window_days" yaml:"window_days" validate:"gte=1"`

	// GlobalCap is the maximum size of the merged corpus (default 5000).
	GlobalCap int `json:"global_cap" yaml:"global_cap" validate:"gte=1"`

	// PageSize is the number of records requested per page (default 200).
	PageSize int `json:"page_size" yaml:"page_size" validate:"gte=1"`

	// BucketCap is the per-stream collection cap (default 1000). A
	// stream stops once it has collected this many in-window records.
	BucketCap int `json:"bucket_cap" yaml:"bucket_cap" validate:"gte=1"`

	// PageDelay is the pause between consecutive page requests to the
	// same provider (default 500ms).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay" validate:"gte=0"`
}

// GooglePlayConfig holds settings for the Google Play provider.
type GooglePlayConfig struct {
	HTTPConfig `yaml:",inline"`

	// Enabled controls whether Google Play reviews are collected.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// AppID is the package name (e.g. "com.example.app").
	AppID string `json:"app_id" yaml:"app_id"`

	// Language is the review language code (default "en").
	Language string `json:"language" yaml:"language"`

	// Country is the storefront country code (default "us").
	Country string `json:"country" yaml:"country"`
}

// AppStoreConfig holds settings for the App Store provider.
type AppStoreConfig struct {
	HTTPConfig `yaml:",inline"`

	// Enabled controls whether App Store reviews are collected.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// AppID is the numeric App Store identifier. When empty it is
	// resolved from BundleID via the lookup endpoint.
	AppID string `json:"app_id" yaml:"app_id"`

	// BundleID is the bundle identifier (e.g. "com.example.app"), used
	// to resolve AppID when only the bundle is known.
	BundleID string `json:"bundle_id" yaml:"bundle_id"`

	// Country is the storefront country code (default "us").
	Country string `json:"country" yaml:"country"`
}

// ProvidersConfig groups the per-storefront provider settings.
type ProvidersConfig struct {
	GooglePlay GooglePlayConfig `json:"google_play" yaml:"google_play"`
	AppStore   AppStoreConfig   `json:"app_store" yaml:"app_store"`
}

// GeminiConfig holds settings for the Gemini insight backend.
type GeminiConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the model identifier (default "gemini-2.5-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key. Usually loaded from the
	// secrets directory rather than the config file. When absent the
	// backend is treated as unconfigured and the deterministic path
	// produces the insights alone.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// InsightConfig holds settings for the insight stage.
type InsightConfig struct {
	// Backend selects the primary insight backend: "gemini" or "" for
	// none. The deterministic fallback always runs regardless.
	Backend string `json:"backend" yaml:"backend" validate:"oneof='' gemini"`

	// ThemeSampleCap is the number of reviews sampled for theme
	// extraction prompts (default 100).
	ThemeSampleCap int `json:"theme_sample_cap" yaml:"theme_sample_cap" validate:"gte=1"`

	// ActionSampleCap is the number of negative reviews sampled for
	// action idea prompts (default 50).
	ActionSampleCap int `json:"action_sample_cap" yaml:"action_sample_cap" validate:"gte=1"`

	// QuoteSampleCap is the number of reviews sampled for quote
	// selection prompts (default 50).
	QuoteSampleCap int `json:"quote_sample_cap" yaml:"quote_sample_cap" validate:"gte=1"`

	// ThemeTopK is the number of themes kept (default 5).
	ThemeTopK int `json:"theme_top_k" yaml:"theme_top_k" validate:"gte=1"`

	// KeywordTopK is the number of keywords kept (default 10).
	KeywordTopK int `json:"keyword_top_k" yaml:"keyword_top_k" validate:"gte=1"`

	// QuoteCount is the number of quotes selected (default 3).
	QuoteCount int `json:"quote_count" yaml:"quote_count" validate:"gte=1"`

	// PromptTextBudget is the per-review character budget inside
	// prompts (default 200). Longer texts are truncated.
	PromptTextBudget int `json:"prompt_text_budget" yaml:"prompt_text_budget" validate:"gte=1"`

	Gemini GeminiConfig `json:"gemini" yaml:"gemini"`
}

// StoreConfig holds settings for the local run store.
type StoreConfig struct {
	// Path is the SQLite database file (default "review-radar.db").
	Path string `json:"path" yaml:"path" validate:"required"`
}

// Config groups all stage configurations for the pipeline.
type Config struct {
	Collect   CollectConfig   `json:"collect" yaml:"collect"`
	Providers ProvidersConfig `json:"providers" yaml:"providers"`
	Insight   InsightConfig   `json:"insight" yaml:"insight"`
	Store     StoreConfig     `json:"store" yaml:"store"`
}

// DefaultConfig returns a Config with every default filled in. Provider
// sections start disabled; the caller enables the ones it has app
// identifiers for.
func DefaultConfig() Config {
	httpDefaults := HTTPConfig{
		Timeout:   30 * time.Second,
		UserAgent: "review-radar/0.1",
	}
	return Config{
		Collect: CollectConfig{
			WindowDays: 7,
			GlobalCap:  5000,
			PageSize:   200,
			BucketCap:  1000,
			PageDelay:  500 * time.Millisecond,
		},
		Providers: ProvidersConfig{
			GooglePlay: GooglePlayConfig{
				HTTPConfig: httpDefaults,
				Language:   "en",
				Country:    "us",
			},
			AppStore: AppStoreConfig{
				HTTPConfig: httpDefaults,
				Country:    "us",
			},
		},
		Insight: InsightConfig{
			Backend:          "gemini",
			ThemeSampleCap:   100,
			ActionSampleCap:  50,
			QuoteSampleCap:   50,
			ThemeTopK:        5,
			KeywordTopK:      10,
			QuoteCount:       3,
			PromptTextBudget: 200,
			Gemini: GeminiConfig{
				HTTPConfig: httpDefaults,
				Model:      "gemini-2.5-flash",
			},
		},
		Store: StoreConfig{
			Path: "review-radar.db",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration before any network activity. It
// reports tag violations and cross-field problems such as no provider
// being enabled.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if fieldErrors, ok := err.(validator.ValidationErrors); ok && len(fieldErrors) > 0 {
			fe := fieldErrors[0]
			return &ConfigError{
				Field: fe.Namespace(),
				Err:   fmt.Errorf("%s (got %v)", msgForTag(fe.Tag(), fe.Param()), fe.Value()),
			}
		}
		return &ConfigError{Field: "config", Err: err}
	}
	if !c.Providers.GooglePlay.Enabled && !c.Providers.AppStore.Enabled {
		return &ConfigError{
			Field: "providers",
			Err:   fmt.Errorf("no provider enabled: set providers.google_play.app_id or providers.app_store.app_id"),
		}
	}
	if c.Providers.GooglePlay.Enabled && c.Providers.GooglePlay.AppID == "" {
		return &ConfigError{
			Field: "providers.google_play.app_id",
			Err:   fmt.Errorf("package name is required when the provider is enabled"),
		}
	}
	if c.Providers.AppStore.Enabled && c.Providers.AppStore.AppID == "" && c.Providers.AppStore.BundleID == "" {
		return &ConfigError{
			Field: "providers.app_store",
			Err:   fmt.Errorf("app_id or bundle_id is required when the provider is enabled"),
		}
	}
	if c.Collect.BucketCap > c.Collect.GlobalCap {
		return &ConfigError{
			Field: "collect.bucket_cap",
			Err:   fmt.Errorf("bucket cap %d exceeds global cap %d", c.Collect.BucketCap, c.Collect.GlobalCap),
		}
	}
	return nil
}

func msgForTag(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be at least %s", param)
	case "oneof":
		return fmt.Sprintf("must be one of %s", param)
	default:
		return fmt.Sprintf("failed %s validation", tag)
	}
}
