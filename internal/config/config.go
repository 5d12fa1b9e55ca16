// Package config loads the resume matcher configuration from an optional JSON
// file and environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-matcher/internal/history"
	"github.com/jonathan/resume-matcher/internal/scoring"
	"github.com/jonathan/resume-matcher/internal/store"
)

// Environment variables read by ApplyEnv.
const (
	EnvStore           = "RESUME_MATCHER_STORE"
	EnvStorePath       = "RESUME_MATCHER_STORE_PATH"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvRedisURL        = "REDIS_URL"
	EnvAPIKey          = "GEMINI_API_KEY"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	EnvHistoryCapacity = "RESUME_MATCHER_HISTORY_CAPACITY"
	EnvUseBrowser      = "RESUME_MATCHER_USE_BROWSER"
)

// Config is the application configuration. Every field is optional in the
// file; Default supplies the rest.
type Config struct {
	Store           string `json:"store,omitempty" validate:"omitempty,oneof=memory file sqlite postgres redis"`
	StorePath       string `json:"store_path,omitempty"`
	DatabaseURL     string `json:"database_url,omitempty" validate:"required_if=Store postgres"`
	RedisURL        string `json:"redis_url,omitempty" validate:"required_if=Store redis"`
	APIKey          string `json:"api_key,omitempty"`
	UseBrowser      bool   `json:"use_browser,omitempty"`
	HistoryCapacity int    `json:"history_capacity,omitempty" validate:"gte=0,lte=50"`
	LogLevel        string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	LogFormat       string `json:"log_format,omitempty" validate:"omitempty,oneof=text json"`

	// Scoring
	Weights       *Weights `json:"weights,omitempty"`
	Sections      []string `json:"sections,omitempty" validate:"dive,required"`
	RequiredTerms []string `json:"required_terms,omitempty"`
	ActionTerms   []string `json:"action_terms,omitempty"`
}

// Weights mirrors scoring.Weights in the config file.
type Weights struct {
	Coverage   float64 `json:"coverage" validate:"gte=0,lte=1"`
	Sections   float64 `json:"sections" validate:"gte=0,lte=1"`
	Experience float64 `json:"experience" validate:"gte=0,lte=1"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store:           string(store.BackendFile),
		HistoryCapacity: history.DefaultCapacity,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// Load builds the effective configuration: the file at path (if any) over
// Default, then environment overrides, then validation.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg = fileCfg.MergeWithDefaults(cfg)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from non-empty environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvStore); v != "" {
		c.Store = strings.ToLower(v)
	}
	if v := getenv(EnvStorePath); v != "" {
		c.StorePath = v
	}
	if v := getenv(EnvDatabaseURL); v != "" {
		c.DatabaseURL = v
	}
	if v := getenv(EnvRedisURL); v != "" {
		c.RedisURL = v
	}
	if v := getenv(EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := getenv(EnvLogFormat); v != "" {
		c.LogFormat = strings.ToLower(v)
	}
	if v := getenv(EnvHistoryCapacity); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", EnvHistoryCapacity, err)
		}
		c.HistoryCapacity = n
	}
	if v := getenv(EnvUseBrowser); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", EnvUseBrowser, err)
		}
		c.UseBrowser = b
	}
	return nil
}

// Validate checks field ranges and that scoring weights sum to 1.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.Weights != nil {
		if err := c.ScoringWeights().Validate(); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	return nil
}

// MergeWithDefaults returns a copy of c with unset fields taken from
// defaults. Booleans cannot be told apart from unset and are not merged.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Store == "" {
		result.Store = defaults.Store
	}
	if result.StorePath == "" {
		result.StorePath = defaults.StorePath
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}
	if result.HistoryCapacity == 0 {
		result.HistoryCapacity = defaults.HistoryCapacity
	}
	if result.Weights == nil && defaults.Weights != nil {
		w := *defaults.Weights
		result.Weights = &w
	}
	if len(result.Sections) == 0 {
		result.Sections = append([]string(nil), defaults.Sections...)
	}
	if len(result.RequiredTerms) == 0 {
		result.RequiredTerms = append([]string(nil), defaults.RequiredTerms...)
	}
	if len(result.ActionTerms) == 0 {
		result.ActionTerms = append([]string(nil), defaults.ActionTerms...)
	}
	return result
}

// ScoringWeights returns the configured weights or the defaults.
func (c *Config) ScoringWeights() scoring.Weights {
	if c.Weights == nil {
		return scoring.DefaultWeights
	}
	return scoring.Weights{
		Coverage:   c.Weights.Coverage,
		Sections:   c.Weights.Sections,
		Experience: c.Weights.Experience,
	}
}

// Scoring returns the scoring configuration with file overrides applied.
func (c *Config) Scoring() scoring.Config {
	cfg := scoring.DefaultConfig()
	cfg.Weights = c.ScoringWeights()
	if len(c.Sections) > 0 {
		cfg.Sections = normalizeTerms(c.Sections)
	}
	if len(c.RequiredTerms) > 0 {
		cfg.RequiredTerms = normalizeTerms(c.RequiredTerms)
	}
	if len(c.ActionTerms) > 0 {
		cfg.ActionTerms = normalizeTerms(c.ActionTerms)
	}
	return cfg
}

// StoreOptions returns the options for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:     store.Backend(c.Store),
		Path:        c.StorePath,
		DatabaseURL: c.DatabaseURL,
		RedisURL:    c.RedisURL,
	}
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
