// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/council-tui/internal/council"
	"github.com/jeranaias/council-tui/internal/model"
	"github.com/jeranaias/council-tui/internal/pricing"
	"github.com/jeranaias/council-tui/internal/reconcile"
	"github.com/jeranaias/council-tui/internal/storage"
	"github.com/jeranaias/council-tui/internal/stream"
	"github.com/jeranaias/council-tui/internal/ui/styles"
)

// =============================================================================
// FOCUS
// =============================================================================

// Focus identifies which pane receives keyboard input.
type Focus int

const (
	FocusComposer Focus = iota
	FocusSidebar
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the chat model.
type Options struct {
	Client     *council.Client
	Store      *storage.SnapshotStore // may be nil when caching is disabled
	Estimator  *pricing.Estimator
	Reconciler *reconcile.Reconciler

	Models    []string
	Chairman  string
	ExportDir string
	ShowCost  bool
	Compact   bool
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	client     *council.Client
	store      *storage.SnapshotStore
	estimator  *pricing.Estimator
	reconciler *reconcile.Reconciler

	models    []string
	chairman  string
	exportDir string
	showCost  bool
	compact   bool

	keys  KeyMap
	theme *styles.Theme

	width  int
	height int
	ready  bool

	// Sidebar
	summaries []model.ConversationSummary
	selected  int
	offline   bool

	// Active conversation and stream
	conv    *model.Conversation
	session *stream.Session
	events  <-chan council.Event

	// Widgets
	composer textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	focus    Focus
	status   string
	lastErr  error
	estimate *council.CostEstimate

	// pendingSubmit holds a message composed before its conversation
	// existed; it is sent once the create round-trip finishes.
	pendingSubmit string
}

// New creates the chat model.
func New(opts Options) *Model {
	composer := textinput.New()
	composer.Placeholder = "Ask the council..."
	composer.CharLimit = 0
	composer.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	theme := styles.New()
	sp.Style = theme.Spinner

	return &Model{
		client:     opts.Client,
		store:      opts.Store,
		estimator:  opts.Estimator,
		reconciler: opts.Reconciler,
		models:     opts.Models,
		chairman:   opts.Chairman,
		exportDir:  opts.ExportDir,
		showCost:   opts.ShowCost,
		compact:    opts.Compact,
		keys:       DefaultKeyMap(),
		theme:      theme,
		composer:   composer,
		spinner:    sp,
		focus:      FocusComposer,
	}
}

// Init starts the spinner and loads the sidebar.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textinput.Blink,
		m.loadConversationsCmd(),
	)
}

// streaming reports whether a stream session is currently active.
func (m *Model) streaming() bool {
	return m.session != nil && m.session.IsActive()
}

// layout recomputes widget sizes after a resize.
func (m *Model) layout() {
	sidebarW := sidebarWidth(m.width)
	contentW := m.width - sidebarW - 1
	// Status bar, composer box, and padding take 4 rows.
	contentH := m.height - 4
	if contentH < 1 {
		contentH = 1
	}

	if !m.ready {
		m.viewport = viewport.New(contentW, contentH)
		m.ready = true
	} else {
		m.viewport.Width = contentW
		m.viewport.Height = contentH
	}
	m.composer.Width = contentW - 4

	if r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(contentW-4),
	); err == nil {
		m.renderer = r
	}

	m.refreshViewport()
}

// sidebarWidth returns the sidebar's column budget for a terminal width.
func sidebarWidth(total int) int {
	w := total / 4
	if w < 20 {
		w = 20
	}
	if w > 36 {
		w = 36
	}
	if w >= total {
		w = total / 2
	}
	return w
}
