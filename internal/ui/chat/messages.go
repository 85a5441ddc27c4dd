// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/council-tui/internal/council"
	"github.com/jeranaias/council-tui/internal/model"
	"github.com/jeranaias/council-tui/internal/reconcile"
	"github.com/jeranaias/council-tui/internal/stream"
)

// =============================================================================
// CONVERSATION MESSAGES
// =============================================================================

// ConversationsLoadedMsg delivers the sidebar listing. FromCache marks a
// listing served by the local snapshot cache because the backend was
// unreachable.
type ConversationsLoadedMsg struct {
	Summaries []model.ConversationSummary
	FromCache bool
	Err       error
}

// ConversationLoadedMsg delivers a full conversation.
type ConversationLoadedMsg struct {
	Conversation *model.Conversation
	FromCache    bool
	Err          error
}

// ConversationCreatedMsg confirms a backend-side create.
type ConversationCreatedMsg struct {
	Conversation *model.Conversation
	Err          error
}

// ConversationDeletedMsg confirms a delete.
type ConversationDeletedMsg struct {
	ID  string
	Err error
}

// WorkModeChangedMsg confirms a work-mode update.
type WorkModeChangedMsg struct {
	Mode model.WorkMode
	Err  error
}

// ExportDoneMsg reports the outcome of an export.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamStartedMsg signals that a session opened and events will follow.
type StreamStartedMsg struct {
	Session *stream.Session
	Events  <-chan council.Event
}

// StreamEventMsg delivers one applied stream event.
type StreamEventMsg struct {
	Event council.Event
}

// StreamDoneMsg signals the session reached a terminal state; the event
// channel is drained.
type StreamDoneMsg struct{}

// ReconciledMsg delivers the reconciler's outcome after a terminal state.
type ReconciledMsg struct {
	Outcome *reconcile.Outcome
	State   stream.State
	Err     error
}

// =============================================================================
// PRICING MESSAGES
// =============================================================================

// EstimateMsg delivers a cost estimate for the composer's current text.
type EstimateMsg struct {
	Estimate *council.CostEstimate
	Chars    int // composer length the estimate was computed for
}
