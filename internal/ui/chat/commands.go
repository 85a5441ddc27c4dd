// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/council-tui/internal/council"
	"github.com/jeranaias/council-tui/internal/model"
	"github.com/jeranaias/council-tui/internal/storage"
	"github.com/jeranaias/council-tui/internal/stream"
)

// requestTimeout bounds the one-shot backend calls issued from commands.
const requestTimeout = 30 * time.Second

// =============================================================================
// CONVERSATION COMMANDS
// =============================================================================

// loadConversationsCmd fetches the sidebar listing, falling back to the
// snapshot cache when the backend is unreachable.
func (m *Model) loadConversationsCmd() tea.Cmd {
	client, store := m.client, m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		summaries, err := client.ListConversations(ctx)
		if err != nil {
			if store != nil {
				if cached, cerr := store.List(); cerr == nil && len(cached) > 0 {
					return ConversationsLoadedMsg{Summaries: cached, FromCache: true}
				}
			}
			return ConversationsLoadedMsg{Err: err}
		}
		return ConversationsLoadedMsg{Summaries: summaries}
	}
}

// loadConversationCmd fetches one conversation, trying the cache if the
// backend fails.
func (m *Model) loadConversationCmd(id string) tea.Cmd {
	client, store := m.client, m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		conv, err := client.GetConversation(ctx, id)
		if err != nil {
			if store != nil {
				if cached, cerr := store.Get(id); cerr == nil {
					return ConversationLoadedMsg{Conversation: cached, FromCache: true}
				}
			}
			return ConversationLoadedMsg{Err: err}
		}
		if store != nil {
			store.Put(conv)
		}
		return ConversationLoadedMsg{Conversation: conv}
	}
}

func (m *Model) createConversationCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		conv, err := client.CreateConversation(ctx)
		return ConversationCreatedMsg{Conversation: conv, Err: err}
	}
}

func (m *Model) deleteConversationCmd(id string) tea.Cmd {
	client, store := m.client, m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		err := client.DeleteConversation(ctx, id)
		if err == nil && store != nil {
			store.Delete(id)
		}
		return ConversationDeletedMsg{ID: id, Err: err}
	}
}

func (m *Model) setWorkModeCmd(id string, mode model.WorkMode) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		_, err := client.UpdateConversation(ctx, id, council.UpdateConversationRequest{
			WorkMode: &mode,
		})
		return WorkModeChangedMsg{Mode: mode, Err: err}
	}
}

// exportCmd writes the backend's markdown rendering of the conversation
// to the export directory. When the backend is unreachable the local
// snapshot is exported as JSON instead.
func (m *Model) exportCmd(conv *model.Conversation) tea.Cmd {
	client, dir := m.client, m.exportDir
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		stamp := time.Now().Format("20060102-150405")
		data, err := client.ExportConversation(ctx, conv.ID)
		if err != nil {
			path := filepath.Join(dir, fmt.Sprintf("council-%s-%s.json", conv.ID, stamp))
			if jerr := storage.ExportJSON(path, conv); jerr != nil {
				return ExportDoneMsg{Err: err}
			}
			return ExportDoneMsg{Path: path}
		}
		path := filepath.Join(dir, fmt.Sprintf("council-%s-%s.md", conv.ID, stamp))
		if err := storage.WriteExport(path, data); err != nil {
			return ExportDoneMsg{Err: err}
		}
		return ExportDoneMsg{Path: path}
	}
}

// =============================================================================
// STREAMING COMMANDS
// =============================================================================

// startStreamCmd opens a stream session for the composed message. Events
// are forwarded into a channel that is closed once the session reaches a
// terminal state, so the Tea loop can drain it to completion.
func (m *Model) startStreamCmd(req council.SendMessageRequest) tea.Cmd {
	client, conv := m.client, m.conv
	return func() tea.Msg {
		events := make(chan council.Event, 64)
		session := stream.NewSession(client, conv).
			OnEvent(func(ev council.Event) { events <- ev })

		if err := session.Start(context.Background(), req); err != nil {
			close(events)
			return ReconciledMsg{Err: err, State: stream.StateFailed}
		}

		go func() {
			<-session.Done()
			close(events)
		}()

		return StreamStartedMsg{Session: session, Events: events}
	}
}

// waitEventCmd blocks on the next stream event. A closed channel means
// the session terminated and any buffered events were already drained.
func waitEventCmd(events <-chan council.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return StreamDoneMsg{}
		}
		return StreamEventMsg{Event: ev}
	}
}

// reconcileCmd resolves the terminated session against the backend and
// refreshes the snapshot cache with whatever the resolution produced.
func (m *Model) reconcileCmd(state stream.State, titleDirty bool) tea.Cmd {
	rec, conv, store := m.reconciler, m.conv, m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		outcome, err := rec.Resolve(ctx, conv, state, titleDirty)
		if err == nil && store != nil {
			store.Put(conv)
		}
		return ReconciledMsg{Outcome: outcome, State: state, Err: err}
	}
}

// =============================================================================
// PRICING COMMANDS
// =============================================================================

// estimateCmd computes the cost estimate for the composer's current text.
// The estimator itself throttles backend calls.
func (m *Model) estimateCmd(chars int) tea.Cmd {
	est, models, chairman := m.estimator, m.models, m.chairman
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		e, _, err := est.Estimate(ctx, chars, models, chairman)
		if err != nil {
			return EstimateMsg{Chars: chars}
		}
		return EstimateMsg{Estimate: e, Chars: chars}
	}
}
