// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME
// =============================================================================

// Theme bundles the pre-built styles the chat view renders with.
type Theme struct {
	// Panes
	Sidebar        lipgloss.Style
	SidebarItem    lipgloss.Style
	SidebarActive  lipgloss.Style
	StatusBar      lipgloss.Style
	Composer       lipgloss.Style
	ComposerActive lipgloss.Style

	// Messages
	UserBubble  lipgloss.Style
	StageHeader lipgloss.Style
	Stage1Panel lipgloss.Style
	Stage2Panel lipgloss.Style
	Stage3Panel lipgloss.Style
	ModelName   lipgloss.Style

	// Status
	Spinner   lipgloss.Style
	Cost      lipgloss.Style
	ErrorText lipgloss.Style
	Muted     lipgloss.Style
	Title     lipgloss.Style
}

// Apply configures the global color profile for the named theme: "dark"
// and "light" force a background variant, "auto" trusts termenv's
// detection.
func Apply(theme string) {
	switch strings.ToLower(theme) {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	default:
		lipgloss.SetHasDarkBackground(termenv.HasDarkBackground())
	}
}

// New builds the theme. Apply must have been called first so adaptive
// colors resolve against the right background.
func New() *Theme {
	return &Theme{
		Sidebar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(Overlay).
			PaddingRight(1),
		SidebarItem: lipgloss.NewStyle().
			Foreground(TextSecondary),
		SidebarActive: lipgloss.NewStyle().
			Foreground(TextPrimary).
			Background(SelectionBg).
			Bold(true),
		StatusBar: lipgloss.NewStyle().
			Foreground(TextMuted),
		Composer: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Overlay).
			Padding(0, 1),
		ComposerActive: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Cyan).
			Padding(0, 1),

		UserBubble: lipgloss.NewStyle().
			Foreground(UserBubbleFg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(UserBubbleBorder).
			Padding(0, 1),
		StageHeader: lipgloss.NewStyle().
			Bold(true),
		Stage1Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(Stage1Color).
			PaddingLeft(1),
		Stage2Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(Stage2Color).
			PaddingLeft(1),
		Stage3Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(Stage3Color).
			PaddingLeft(1),
		ModelName: lipgloss.NewStyle().
			Foreground(TextSecondary).
			Italic(true),

		Spinner: lipgloss.NewStyle().
			Foreground(Amber),
		Cost: lipgloss.NewStyle().
			Foreground(Amber),
		ErrorText: lipgloss.NewStyle().
			Foreground(Rose).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(TextMuted),
		Title: lipgloss.NewStyle().
			Foreground(Purple).
			Bold(true),
	}
}

// StagePanel returns the bordered panel style for a council stage (1-3).
func (t *Theme) StagePanel(stage int) lipgloss.Style {
	switch stage {
	case 1:
		return t.Stage1Panel
	case 2:
		return t.Stage2Panel
	default:
		return t.Stage3Panel
	}
}

// StageColor returns the accent color for a council stage (1-3).
func StageColor(stage int) lipgloss.AdaptiveColor {
	switch stage {
	case 1:
		return Stage1Color
	case 2:
		return Stage2Color
	default:
		return Stage3Color
	}
}
