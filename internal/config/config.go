// Package config assembles the per-package configuration structs and loads
// overrides from an optional YAML/JSON file and GITGAUGE_* environment
// variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gitgauge/gitgauge/internal/ai"
	"github.com/gitgauge/gitgauge/internal/gitfetch"
	"github.com/gitgauge/gitgauge/internal/quota"
)

// Config is the full runtime configuration.
type Config struct {
	// ListenAddr is the HTTP API bind address.
	ListenAddr string

	// StoreBackend selects the document store: "memory" or "sqlite".
	StoreBackend string

	// StorePath is the SQLite database file when StoreBackend is "sqlite".
	StorePath string

	// AuthToken, when set, is the static bearer token accepted by the dev
	// auth verifier. Production deployments plug in a real verifier.
	AuthToken string

	Quota   quota.Config
	Fetcher gitfetch.Config
	AI      ai.Config
	Gemini  ai.GeminiConfig
}

// Default returns a Config populated with every package's defaults.
func Default() *Config {
	return &Config{
		ListenAddr:   ":8080",
		StoreBackend: "sqlite",
		StorePath:    "gitgauge.db",
		Quota:        quota.DefaultConfig(),
		Fetcher:      gitfetch.DefaultConfig(),
		AI:           ai.DefaultConfig(),
		Gemini:       ai.DefaultGeminiConfig(),
	}
}

// Load reads configuration from file (optional, "" skips it) plus
// environment variables prefixed GITGAUGE_ and returns the merged Config.
func Load(file string) (*Config, error) {
	def := Default()
	v := viper.New()

	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("store.backend", def.StoreBackend)
	v.SetDefault("store.path", def.StorePath)
	v.SetDefault("auth_token", "")
	v.SetDefault("quota.anonymous_limit", def.Quota.AnonymousLimit)
	v.SetDefault("quota.authenticated_limit", def.Quota.AuthenticatedLimit)
	v.SetDefault("quota.window_hours", int(def.Quota.Window/time.Hour))
	v.SetDefault("fetcher.scratch_dir", def.Fetcher.ScratchDir)
	v.SetDefault("fetcher.clone_depth", def.Fetcher.CloneDepth)
	v.SetDefault("fetcher.clone_timeout_seconds", int(def.Fetcher.CloneTimeout/time.Second))
	v.SetDefault("fetcher.log_limit", def.Fetcher.LogLimit)
	v.SetDefault("ai.max_retries", def.AI.MaxRetries)
	v.SetDefault("ai.retry_base_delay_seconds", int(def.AI.RetryBaseDelay/time.Second))
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", def.Gemini.BaseURL)
	v.SetDefault("gemini.model", def.Gemini.Model)
	v.SetDefault("gemini.temperature", def.Gemini.Temperature)
	v.SetDefault("gemini.max_output_tokens", def.Gemini.MaxOutputTokens)

	v.SetEnvPrefix("GITGAUGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := Default()
	cfg.ListenAddr = v.GetString("listen_addr")
	cfg.StoreBackend = v.GetString("store.backend")
	cfg.StorePath = v.GetString("store.path")
	cfg.AuthToken = v.GetString("auth_token")
	cfg.Quota.AnonymousLimit = v.GetInt("quota.anonymous_limit")
	cfg.Quota.AuthenticatedLimit = v.GetInt("quota.authenticated_limit")
	cfg.Quota.Window = time.Duration(v.GetInt("quota.window_hours")) * time.Hour
	cfg.Fetcher.ScratchDir = v.GetString("fetcher.scratch_dir")
	cfg.Fetcher.CloneDepth = v.GetInt("fetcher.clone_depth")
	cfg.Fetcher.CloneTimeout = time.Duration(v.GetInt("fetcher.clone_timeout_seconds")) * time.Second
	cfg.Fetcher.LogLimit = v.GetInt("fetcher.log_limit")
	cfg.AI.MaxRetries = v.GetInt("ai.max_retries")
	cfg.AI.RetryBaseDelay = time.Duration(v.GetInt("ai.retry_base_delay_seconds")) * time.Second
	cfg.Gemini.APIKey = v.GetString("gemini.api_key")
	cfg.Gemini.BaseURL = v.GetString("gemini.base_url")
	cfg.Gemini.Model = v.GetString("gemini.model")
	cfg.Gemini.Temperature = v.GetFloat64("gemini.temperature")
	cfg.Gemini.MaxOutputTokens = v.GetInt("gemini.max_output_tokens")

	return cfg, nil
}
