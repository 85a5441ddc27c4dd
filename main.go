// council TUI - A terminal interface for multi-model council chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/council-tui/internal/config"
	"github.com/jeranaias/council-tui/internal/council"
	"github.com/jeranaias/council-tui/internal/pricing"
	"github.com/jeranaias/council-tui/internal/reconcile"
	"github.com/jeranaias/council-tui/internal/storage"
	"github.com/jeranaias/council-tui/internal/ui/chat"
	"github.com/jeranaias/council-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (TOML or JSON)")
		backendURL  = flag.String("backend", "", "backend base URL (overrides config)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("council-tui %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*configPath, *backendURL); err != nil {
		fmt.Fprintf(os.Stderr, "council-tui: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, backendURL string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if backendURL != "" {
		cfg.Backend.URL = backendURL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	styles.Apply(cfg.UI.Theme)

	client := council.NewClient(cfg.Backend.URL).
		WithMaxRetries(cfg.Backend.MaxRetries).
		WithTimeout(time.Duration(cfg.Backend.TimeoutSecs) * time.Second)

	var store *storage.SnapshotStore
	if cfg.Cache.Enabled {
		path := cfg.Cache.Path
		if path == "" {
			if path, err = storage.DefaultPath(); err != nil {
				return fmt.Errorf("resolving snapshot cache path: %w", err)
			}
		}
		if store, err = storage.Open(path); err != nil {
			// Degrade to cacheless operation rather than refusing to start.
			fmt.Fprintf(os.Stderr, "council-tui: snapshot cache unavailable: %v\n", err)
			store = nil
		} else {
			defer store.Close()
			if cfg.Cache.MaxSnapshots > 0 {
				store.Prune(cfg.Cache.MaxSnapshots)
			}
		}
	}

	refresh := time.Duration(cfg.Pricing.RefreshIntervalSecs) * time.Second
	if refresh <= 0 {
		refresh = pricing.DefaultRefreshInterval
	}
	estimator := pricing.NewEstimator(client, refresh).
		WithTable(cfg.Pricing.Rates)

	m := chat.New(chat.Options{
		Client:     client,
		Store:      store,
		Estimator:  estimator,
		Reconciler: reconcile.NewReconciler(client),
		Models:     cfg.Council.Models,
		Chairman:   cfg.Council.ChairmanModel,
		ExportDir:  cfg.Export.Dir,
		ShowCost:   cfg.UI.ShowCost,
		Compact:    cfg.UI.CompactMode,
	})

	program := tea.NewProgram(m, tea.WithAltScreen())

	// Live-reload theme changes while the program runs. Other settings
	// take effect on the next start.
	if watcher := watchTheme(configPath, cfg.UI.Theme); watcher != nil {
		defer watcher.Close()
	}

	_, err = program.Run()
	return err
}

// loadConfig reads the named config file, or the default locations when
// none is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// watchTheme reloads the color theme when the config file changes on disk.
// Returns nil when the config has no file to watch.
func watchTheme(path, current string) *config.Watcher {
	if path == "" {
		p, err := config.PathTOML()
		if err != nil {
			return nil
		}
		path = p
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	theme := current
	w, err := config.NewWatcher(path, config.DefaultWatchDebounce, func(cfg *config.Config) {
		if cfg.UI.Theme != theme {
			theme = cfg.UI.Theme
			styles.Apply(theme)
		}
	})
	if err != nil {
		return nil
	}
	if err := w.Watch(); err != nil {
		w.Close()
		return nil
	}
	return w
}
