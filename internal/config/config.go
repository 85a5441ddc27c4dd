// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/council-tui/internal/pricing"
	"github.com/jeranaias/council-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete council-tui configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Backend connection
	Backend BackendConfig `toml:"backend" json:"backend"`

	// Council composition, mirrored from the backend for display and
	// local cost estimates
	Council CouncilConfig `toml:"council" json:"council"`

	// Pricing configuration
	Pricing PricingConfig `toml:"pricing" json:"pricing"`

	// Local snapshot cache
	Cache CacheConfig `toml:"cache" json:"cache"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Export configuration
	Export ExportConfig `toml:"export" json:"export"`
}

// BackendConfig locates the council backend.
type BackendConfig struct {
	// URL is the backend base URL
	URL string `toml:"url" json:"url"`
	// TimeoutSecs bounds non-streaming requests
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// MaxRetries is the retry budget for idempotent fetches
	MaxRetries int `toml:"max_retries" json:"max_retries"`
}

// CouncilConfig names the models the backend convenes. The backend's own
// configuration is authoritative; these values drive the local cost
// estimate and the stage headers in the UI.
type CouncilConfig struct {
	// Models are the council member model identifiers
	Models []string `toml:"models" json:"models"`
	// ChairmanModel synthesizes the final response
	ChairmanModel string `toml:"chairman_model" json:"chairman_model"`
}

// PricingConfig controls cost estimation.
type PricingConfig struct {
	// RefreshIntervalSecs is the minimum spacing between backend
	// estimate calls while typing
	RefreshIntervalSecs int `toml:"refresh_interval_secs" json:"refresh_interval_secs"`
	// Rates is the local per-model price table (USD per million tokens)
	Rates pricing.Table `toml:"rates" json:"rates"`
}

// CacheConfig controls the local snapshot cache.
type CacheConfig struct {
	// Enabled controls whether snapshots are cached at all
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path overrides the cache database location (empty = default)
	Path string `toml:"path" json:"path"`
	// MaxSnapshots limits cached conversations (0 = unlimited)
	MaxSnapshots int `toml:"max_snapshots" json:"max_snapshots"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// ShowCost displays the live cost estimate in the composer
	ShowCost bool `toml:"show_cost" json:"show_cost"`
	// CompactMode collapses stage 1 and 2 panels by default
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
}

// ExportConfig controls conversation exports.
type ExportConfig struct {
	// Dir is where exports are written (empty = current directory)
	Dir string `toml:"dir" json:"dir"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values. The council
// roster mirrors the backend's defaults.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Backend: BackendConfig{
			URL:         "http://localhost:8001",
			TimeoutSecs: 30,
			MaxRetries:  3,
		},

		Council: CouncilConfig{
			Models: []string{
				"openai/gpt-5.1",
				"google/gemini-3-pro-preview",
				"deepseek/deepseek-v3.2",
				"x-ai/grok-4",
			},
			ChairmanModel: "anthropic/claude-sonnet-4.5",
		},

		Pricing: PricingConfig{
			RefreshIntervalSecs: 2,
			Rates: pricing.Table{
				"openai/gpt-5.1":              {InputPerMillion: 1.25, OutputPerMillion: 10.0},
				"google/gemini-3-pro-preview": {InputPerMillion: 2.0, OutputPerMillion: 12.0},
				"deepseek/deepseek-v3.2":      {InputPerMillion: 0.25, OutputPerMillion: 0.38},
				"x-ai/grok-4":                 {InputPerMillion: 3.0, OutputPerMillion: 15.0},
				"anthropic/claude-sonnet-4.5": {InputPerMillion: 3.0, OutputPerMillion: 15.0},
			},
		},

		Cache: CacheConfig{
			Enabled:      true,
			MaxSnapshots: 200,
		},

		UI: UIConfig{
			Theme:       "dark",
			ShowCost:    true,
			CompactMode: false,
		},

		Export: ExportConfig{},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the council-tui configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".council-tui"), nil
}

// PathTOML returns the path to the TOML config file.
func PathTOML() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// PathJSON returns the path to the JSON config file.
func PathJSON() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s). Tries TOML first,
// then JSON, falling back to defaults. Environment overrides apply last.
func Load() (*Config, error) {
	if path, err := PathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}
	if path, err := PathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file, merging defaults
// for anything the file omits.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode JSON config: %w", err)
		}
	} else {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode TOML config: %w", err)
		}
	}

	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any zero values the file left unset.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Backend.URL == "" {
		c.Backend.URL = defaults.Backend.URL
	}
	if c.Backend.TimeoutSecs <= 0 {
		c.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}
	if c.Backend.MaxRetries <= 0 {
		c.Backend.MaxRetries = defaults.Backend.MaxRetries
	}
	if len(c.Council.Models) == 0 {
		c.Council.Models = defaults.Council.Models
	}
	if c.Council.ChairmanModel == "" {
		c.Council.ChairmanModel = defaults.Council.ChairmanModel
	}
	if c.Pricing.RefreshIntervalSecs <= 0 {
		c.Pricing.RefreshIntervalSecs = defaults.Pricing.RefreshIntervalSecs
	}
	if c.Pricing.Rates == nil {
		c.Pricing.Rates = defaults.Pricing.Rates
	}
	// Cache.MaxSnapshots is not refilled: 0 means unlimited.
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies COUNCIL_* environment variables over the
// loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("COUNCIL_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("COUNCIL_MODELS"); v != "" {
		var models []string
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				models = append(models, m)
			}
		}
		if len(models) > 0 {
			c.Council.Models = models
		}
	}
	if v := os.Getenv("COUNCIL_CHAIRMAN_MODEL"); v != "" {
		c.Council.ChairmanModel = v
	}
	if v := os.Getenv("COUNCIL_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("COUNCIL_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "backend.url",
			Message: fmt.Sprintf("must be an absolute URL, got %q", c.Backend.URL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "backend.url",
			Message: fmt.Sprintf("scheme must be http or https, got %q", u.Scheme),
		})
	}

	if len(c.Council.Models) == 0 {
		errs = append(errs, ValidationError{
			Field:   "council.models",
			Message: "at least one council model is required",
		})
	}
	if c.Council.ChairmanModel == "" {
		errs = append(errs, ValidationError{
			Field:   "council.chairman_model",
			Message: "chairman model is required",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("must be dark, light, or auto, got %q", c.UI.Theme),
		})
	}

	if c.Cache.MaxSnapshots < 0 {
		errs = append(errs, ValidationError{
			Field:   "cache.max_snapshots",
			Message: "must be non-negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := PathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# council-tui configuration file\n")
	buf.WriteString("# Edit with care; unknown keys are ignored\n\n")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
