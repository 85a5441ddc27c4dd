// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// =============================================================================
// DEFAULTS AND VALIDATION TESTS
// =============================================================================

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
	if len(cfg.Council.Models) != 4 {
		t.Errorf("Default council has %d models, want 4", len(cfg.Council.Models))
	}
	if cfg.Council.ChairmanModel == "" {
		t.Error("Default config must name a chairman")
	}
	if _, ok := cfg.Pricing.Rates[cfg.Council.ChairmanModel]; !ok {
		t.Error("Default rate table should cover the chairman model")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative backend url", func(c *Config) { c.Backend.URL = "localhost:8001" }},
		{"bad scheme", func(c *Config) { c.Backend.URL = "ftp://example.com" }},
		{"no models", func(c *Config) { c.Council.Models = nil }},
		{"no chairman", func(c *Config) { c.Council.ChairmanModel = "" }},
		{"unknown theme", func(c *Config) { c.UI.Theme = "solarized" }},
		{"negative cache limit", func(c *Config) { c.Cache.MaxSnapshots = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate should fail")
			}
		})
	}
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestLoadFromPathTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[backend]
url = "http://council.example.com:9000"

[council]
models = ["alpha/one", "beta/two"]
chairman_model = "gamma/chair"

[ui]
theme = "light"

[pricing.rates."alpha/one"]
input_per_million = 1.5
output_per_million = 6.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	require.Equal(t, "http://council.example.com:9000", cfg.Backend.URL)
	require.Equal(t, []string{"alpha/one", "beta/two"}, cfg.Council.Models)
	require.Equal(t, "light", cfg.UI.Theme)

	r := cfg.Pricing.Rates["alpha/one"]
	require.Equal(t, 1.5, r.InputPerMillion)
	require.Equal(t, 6.0, r.OutputPerMillion)

	// Unset fields fall back to defaults.
	require.Equal(t, 30, cfg.Backend.TimeoutSecs)
	require.Equal(t, 2, cfg.Pricing.RefreshIntervalSecs)
}

func TestLoadFromPathJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"backend": {"url": "https://council.internal"}, "ui": {"theme": "auto"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "https://council.internal", cfg.Backend.URL)
	require.Equal(t, "auto", cfg.UI.Theme)
}

func TestLoadFromPathKeepsUnlimitedCache(t *testing.T) {
	// 0 means unlimited; the defaults merge must not rewrite it.
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[cache]
enabled = true
max_snapshots = 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, 0, cfg.Cache.MaxSnapshots)
}

func TestLoadFromPathRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"sparkly\"\n"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err, "invalid theme should fail load")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COUNCIL_BACKEND_URL", "http://override:1234")
	t.Setenv("COUNCIL_MODELS", " a/one , b/two ")
	t.Setenv("COUNCIL_CHAIRMAN_MODEL", "c/chair")
	t.Setenv("COUNCIL_THEME", "light")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	require.Equal(t, "http://override:1234", cfg.Backend.URL)
	require.Equal(t, []string{"a/one", "b/two"}, cfg.Council.Models)
	require.Equal(t, "c/chair", cfg.Council.ChairmanModel)
	require.Equal(t, "light", cfg.UI.Theme)
}

// =============================================================================
// SAVE / ROUND-TRIP TESTS
// =============================================================================

func TestSaveTOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Backend.URL = "http://saved:8001"
	cfg.UI.CompactMode = true
	require.NoError(t, SaveTOML(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "http://saved:8001", loaded.Backend.URL)
	require.True(t, loaded.UI.CompactMode)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, 100*time.Millisecond, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch())

	cfg := Default()
	cfg.UI.Theme = "light"
	require.NoError(t, SaveTOML(cfg, path))

	select {
	case got := <-reloaded:
		require.Equal(t, "light", got.UI.Theme)
	case <-time.After(5 * time.Second):
		t.Fatal("Watcher did not deliver the reload")
	}
}

func TestWatcherSkipsInvalidIntermediateState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	reloaded := make(chan *Config, 2)
	w, err := NewWatcher(path, 100*time.Millisecond, func(cfg *Config) {
		reloaded <- cfg
	})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch())

	// Broken write first, then a good one: only the good one arrives.
	require.NoError(t, os.WriteFile(path, []byte("[ui\nbroken"), 0600))
	time.Sleep(400 * time.Millisecond)

	cfg := Default()
	cfg.UI.CompactMode = true
	require.NoError(t, SaveTOML(cfg, path))

	select {
	case got := <-reloaded:
		require.True(t, got.UI.CompactMode, "expected the valid reload, got an earlier state")
	case <-time.After(5 * time.Second):
		t.Fatal("Watcher did not deliver the valid reload")
	}
}
