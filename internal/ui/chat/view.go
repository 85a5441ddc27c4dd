// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/council-tui/internal/model"
	"github.com/jeranaias/council-tui/internal/ui/styles"
	"github.com/jeranaias/council-tui/internal/util"
)

// View renders the full frame: sidebar, transcript, composer, status bar.
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	sidebarW := sidebarWidth(m.width)
	contentW := m.width - sidebarW - 1

	sidebar := m.renderSidebar(sidebarW, m.height-1)
	content := lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewport.View(),
		m.renderComposer(contentW),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, content)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusBar())
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m *Model) renderSidebar(width, height int) string {
	inner := width - 2
	var b strings.Builder

	title := "Conversations"
	if m.offline {
		title = "Conversations (offline)"
	}
	b.WriteString(m.theme.Title.Render(util.TruncateWidth(title, inner)))
	b.WriteString("\n\n")

	if len(m.summaries) == 0 {
		b.WriteString(m.theme.Muted.Render("C-n starts a new one"))
	}

	now := time.Now()
	for i, s := range m.summaries {
		label := s.Title
		if label == "" {
			label = "untitled"
		}
		line := util.PadRight(label, inner)
		when := util.FormatRelativeTime(s.CreatedAt, now)
		meta := fmt.Sprintf("%d msgs, %s", s.MessageCount, when)

		if i == m.selected && m.focus == FocusSidebar {
			b.WriteString(m.theme.SidebarActive.Render(line))
		} else {
			b.WriteString(m.theme.SidebarItem.Render(line))
		}
		b.WriteString("\n")
		b.WriteString(m.theme.Muted.Render(util.TruncateWidth(meta, inner)))
		b.WriteString("\n")
	}

	return m.theme.Sidebar.
		Width(width).
		Height(height).
		Render(b.String())
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport re-renders the active conversation into the viewport.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderConversation())
}

func (m *Model) renderConversation() string {
	if m.conv == nil {
		return m.theme.Muted.Render("\n  Select a conversation or start typing.")
	}
	if m.conv.IsEmpty() {
		return m.theme.Muted.Render("\n  Empty conversation. Ask the council something.")
	}

	width := m.viewport.Width - 2
	var parts []string
	for _, msg := range m.conv.Messages {
		if msg.IsUser() {
			parts = append(parts, m.renderUserMessage(msg, width))
		} else {
			parts = append(parts, m.renderAssistantMessage(msg, width))
		}
	}
	return strings.Join(parts, "\n\n")
}

func (m *Model) renderUserMessage(msg *model.Message, width int) string {
	body := msg.Content
	if len(msg.Attachments) > 0 {
		names := make([]string, len(msg.Attachments))
		for i, a := range msg.Attachments {
			names[i] = a.Name
			if a.Size > 0 {
				names[i] += " (" + util.FormatBytes(a.Size) + ")"
			}
		}
		body += "\n" + m.theme.Muted.Render("attached: "+strings.Join(names, ", "))
	}
	bubble := m.theme.UserBubble.MaxWidth(width).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.ModelName.Render(msg.Role.DisplayName()),
		bubble,
	)
}

func (m *Model) renderAssistantMessage(msg *model.Message, width int) string {
	var sections []string

	if msg.IsEmpty() && !msg.Loading.Any() {
		if m.streaming() {
			return m.spinner.View() + " " + m.theme.Muted.Render("contacting the council")
		}
		return m.theme.Muted.Render("(no reply)")
	}

	if !m.compact {
		if s := m.renderStage1(msg, width); s != "" {
			sections = append(sections, s)
		}
		if s := m.renderStage2(msg, width); s != "" {
			sections = append(sections, s)
		}
	}
	if s := m.renderStage3(msg, width); s != "" {
		sections = append(sections, s)
	}

	return strings.Join(sections, "\n")
}

func (m *Model) renderStage1(msg *model.Message, width int) string {
	if msg.Stage1 == nil && !msg.Loading.Stage1 {
		return ""
	}
	header := m.stageHeader(1, "Stage 1: Drafts", msg.Loading.Stage1)
	if msg.Stage1 == nil {
		return m.theme.StagePanel(1).MaxWidth(width).Render(header)
	}

	var b strings.Builder
	b.WriteString(header)
	for _, d := range msg.Stage1 {
		b.WriteString("\n")
		b.WriteString(m.theme.ModelName.Render(d.Model))
		b.WriteString("\n")
		b.WriteString(util.TruncateWidth(firstLine(d.Response), width-4))
	}
	return m.theme.StagePanel(1).MaxWidth(width).Render(b.String())
}

func (m *Model) renderStage2(msg *model.Message, width int) string {
	if msg.Stage2 == nil && !msg.Loading.Stage2 {
		return ""
	}
	header := m.stageHeader(2, "Stage 2: Rankings", msg.Loading.Stage2)
	if msg.Stage2 == nil {
		return m.theme.StagePanel(2).MaxWidth(width).Render(header)
	}

	var b strings.Builder
	b.WriteString(header)
	if msg.Metadata != nil {
		for _, r := range msg.Metadata.AggregateRankings {
			b.WriteString("\n")
			b.WriteString(fmt.Sprintf("  %s  avg %.2f", r.Model, r.AverageRank))
		}
	}
	for _, r := range msg.Stage2 {
		b.WriteString("\n")
		b.WriteString(m.theme.ModelName.Render(r.Model))
		b.WriteString("\n")
		b.WriteString(util.TruncateWidth(firstLine(r.Ranking), width-4))
	}
	return m.theme.StagePanel(2).MaxWidth(width).Render(b.String())
}

func (m *Model) renderStage3(msg *model.Message, width int) string {
	if msg.Stage3 == nil && !msg.Loading.Stage3 {
		return ""
	}
	header := m.stageHeader(3, "Stage 3: Synthesis", msg.Loading.Stage3)
	if msg.Stage3 == nil {
		return m.theme.StagePanel(3).MaxWidth(width).Render(header)
	}

	body := msg.Stage3.Response
	if m.renderer != nil {
		if rendered, err := m.renderer.Render(body); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	}
	content := header + "  " + m.theme.ModelName.Render(msg.Stage3.Model) + "\n" + body
	return m.theme.StagePanel(3).MaxWidth(width).Render(content)
}

// stageHeader renders the stage banner, with a spinner while in flight.
func (m *Model) stageHeader(stage int, label string, loading bool) string {
	header := m.theme.StageHeader.Foreground(styles.StageColor(stage)).Render(label)
	if loading {
		header += " " + m.spinner.View()
	}
	return header
}

// =============================================================================
// COMPOSER AND STATUS
// =============================================================================

func (m *Model) renderComposer(width int) string {
	style := m.theme.Composer
	if m.focus == FocusComposer {
		style = m.theme.ComposerActive
	}
	return style.Width(width - 2).Render(m.composer.View())
}

func (m *Model) renderStatusBar() string {
	var parts []string

	if m.streaming() {
		parts = append(parts, m.spinner.View()+" "+m.status)
	} else if m.status != "" {
		parts = append(parts, m.status)
	}

	if m.lastErr != nil {
		parts = append(parts, m.theme.ErrorText.Render(util.TruncateWidth(m.lastErr.Error(), m.width/2)))
	}

	if m.showCost && m.estimate != nil && len(m.composer.Value()) > 0 {
		cost := fmt.Sprintf("est. $%.4f", m.estimate.CostTotal)
		parts = append(parts, m.theme.Cost.Render(cost))
	}

	if m.offline {
		parts = append(parts, m.theme.Muted.Render("offline"))
	}

	var help []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	parts = append(parts, m.theme.Muted.Render(strings.Join(help, "  ")))

	line := strings.Join(parts, "  |  ")
	return m.theme.StatusBar.Render(util.TruncateWidth(line, m.width))
}

// firstLine returns the text up to the first newline.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
