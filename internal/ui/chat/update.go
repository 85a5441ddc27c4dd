// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/council-tui/internal/council"
	"github.com/jeranaias/council-tui/internal/model"
	"github.com/jeranaias/council-tui/internal/stream"
)

// Update is the Bubble Tea update loop.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.streaming() {
			m.refreshViewport()
		}
		return m, cmd

	case ConversationsLoadedMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err
			m.status = "backend unreachable"
			return m, nil
		}
		m.summaries = msg.Summaries
		m.offline = msg.FromCache
		if m.selected >= len(m.summaries) {
			m.selected = 0
		}
		if msg.FromCache {
			m.status = "offline: showing cached conversations"
		}
		return m, nil

	case ConversationLoadedMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err
			return m, nil
		}
		m.conv = msg.Conversation
		m.offline = msg.FromCache
		m.lastErr = nil
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case ConversationCreatedMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err
			return m, nil
		}
		m.conv = msg.Conversation
		m.summaries = append([]model.ConversationSummary{msg.Conversation.Summary()}, m.summaries...)
		m.selected = 0
		m.refreshViewport()
		if m.pendingSubmit != "" {
			content := m.pendingSubmit
			m.pendingSubmit = ""
			return m, m.submit(content)
		}
		return m, nil

	case ConversationDeletedMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err
			return m, nil
		}
		kept := m.summaries[:0]
		for _, s := range m.summaries {
			if s.ID != msg.ID {
				kept = append(kept, s)
			}
		}
		m.summaries = kept
		if m.selected >= len(m.summaries) && m.selected > 0 {
			m.selected--
		}
		if m.conv != nil && m.conv.ID == msg.ID {
			m.conv = nil
			m.refreshViewport()
		}
		m.status = "conversation deleted"
		return m, nil

	case WorkModeChangedMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err
			return m, nil
		}
		if m.conv != nil {
			m.conv.WorkMode = msg.Mode
		}
		if msg.Mode == model.WorkModeNone {
			m.status = "work mode cleared"
		} else {
			m.status = "work mode: " + string(msg.Mode)
		}
		return m, nil

	case ExportDoneMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err
			return m, nil
		}
		m.status = "exported to " + msg.Path
		return m, nil

	case StreamStartedMsg:
		m.session = msg.Session
		m.events = msg.Events
		m.status = "council convening"
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, tea.Batch(waitEventCmd(m.events), m.spinner.Tick)

	case StreamEventMsg:
		m.applyEventStatus(msg.Event)
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, waitEventCmd(m.events)

	case StreamDoneMsg:
		if m.session == nil {
			return m, nil
		}
		if err := m.session.Err(); err != nil {
			m.lastErr = err
		}
		state := m.session.State()
		titleDirty := m.session.TitleDirty()
		return m, m.reconcileCmd(state, titleDirty)

	case ReconciledMsg:
		m.session = nil
		m.events = nil
		if msg.Err != nil {
			m.lastErr = msg.Err
		}
		switch msg.State {
		case stream.StateCompleted:
			m.status = "done"
		case stream.StateCancelled:
			m.status = "cancelled"
		case stream.StateFailed:
			m.status = "failed"
		}
		if msg.Outcome != nil && msg.Outcome.Summaries != nil {
			m.summaries = msg.Outcome.Summaries
		}
		m.refreshViewport()
		return m, nil

	case EstimateMsg:
		// Discard stale estimates from earlier keystrokes.
		if msg.Chars == len(m.composer.Value()) {
			m.estimate = msg.Estimate
		}
		return m, nil
	}

	// Everything else flows to the focused widgets.
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.streaming() {
			m.session.Cancel()
			m.status = "cancelling"
		}
		return m, nil

	case key.Matches(msg, m.keys.FocusNext):
		if m.focus == FocusComposer {
			m.focus = FocusSidebar
			m.composer.Blur()
		} else {
			m.focus = FocusComposer
			m.composer.Focus()
		}
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		return m, m.createConversationCmd()

	case key.Matches(msg, m.keys.Export):
		if m.conv != nil && !m.conv.IsEmpty() {
			return m, m.exportCmd(m.conv)
		}
		return m, nil

	case key.Matches(msg, m.keys.WorkMode):
		if m.conv != nil && !m.streaming() {
			return m, m.setWorkModeCmd(m.conv.ID, nextWorkMode(m.conv.WorkMode))
		}
		return m, nil

	case key.Matches(msg, m.keys.Stages):
		m.compact = !m.compact
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == FocusSidebar {
		return m.updateSidebarKey(msg)
	}
	return m.updateComposerKey(msg)
}

func (m *Model) updateSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.summaries)-1 {
			m.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.selected < len(m.summaries) && !m.streaming() {
			return m, m.loadConversationCmd(m.summaries[m.selected].ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if m.selected < len(m.summaries) && !m.streaming() {
			return m, m.deleteConversationCmd(m.summaries[m.selected].ID)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) updateComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Submit) {
		content := strings.TrimSpace(m.composer.Value())
		if content == "" {
			return m, nil
		}
		if m.streaming() {
			m.status = "council still deliberating"
			return m, nil
		}
		m.composer.SetValue("")
		m.estimate = nil
		if m.conv == nil {
			// No conversation yet: create one, then send.
			m.pendingSubmit = content
			return m, m.createConversationCmd()
		}
		return m, m.submit(content)
	}

	before := m.composer.Value()
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)

	cmds := []tea.Cmd{cmd}
	if m.showCost && m.estimator != nil && m.composer.Value() != before {
		cmds = append(cmds, m.estimateCmd(len(m.composer.Value())))
	}
	return m, tea.Batch(cmds...)
}

// submit opens a stream session for content on the active conversation.
func (m *Model) submit(content string) tea.Cmd {
	m.lastErr = nil
	return m.startStreamCmd(council.SendMessageRequest{Content: content})
}

// =============================================================================
// HELPERS
// =============================================================================

// applyEventStatus updates the status line for a stream event.
func (m *Model) applyEventStatus(ev council.Event) {
	switch ev.Kind {
	case council.EventStage1Start:
		m.status = "stage 1: drafting"
	case council.EventStage2Start:
		m.status = "stage 2: ranking"
	case council.EventStage3Start:
		m.status = "stage 3: synthesizing"
	case council.EventTitleComplete:
		// Sidebar refresh happens at reconciliation.
	case council.EventError:
		m.status = "backend error"
	}
}

// nextWorkMode cycles none -> case-study -> meeting-minutes -> none.
func nextWorkMode(mode model.WorkMode) model.WorkMode {
	switch mode {
	case model.WorkModeNone:
		return model.WorkModeCaseStudy
	case model.WorkModeCaseStudy:
		return model.WorkModeMeetingMinutes
	default:
		return model.WorkModeNone
	}
}
