// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"
)

// =============================================================================
// WORK MODE
// =============================================================================

// WorkMode selects the backend's generation template for a conversation.
// The zero value means no mode is selected.
type WorkMode string

const (
	WorkModeNone           WorkMode = ""
	WorkModeCaseStudy      WorkMode = "case-study"
	WorkModeMeetingMinutes WorkMode = "meeting-minutes"
)

// Valid reports whether the work mode is one the backend accepts.
func (w WorkMode) Valid() bool {
	switch w {
	case WorkModeNone, WorkModeCaseStudy, WorkModeMeetingMinutes:
		return true
	}
	return false
}

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a council conversation: identity, work mode, and the
// ordered message sequence.
//
// Ownership: the conversation is mutated only by the owning stream session
// (optimistic appends) and by the reconciler (snapshot replacement). No
// other writer is permitted while a session is active.
type Conversation struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	WorkMode  WorkMode   `json:"work_mode,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Messages  []*Message `json:"messages"`
}

// ConversationSummary is the lightweight listing form returned by the
// backend's list endpoint.
type ConversationSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
}

// NewConversation creates an empty local conversation shell. The
// authoritative record is created by the backend; this exists so the UI can
// render before the create round-trip finishes.
func NewConversation(id string) *Conversation {
	return &Conversation{
		ID:        id,
		CreatedAt: time.Now(),
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE ACCESS
// =============================================================================

// Append adds a message to the end of the conversation.
func (c *Conversation) Append(msg *Message) {
	c.Messages = append(c.Messages, msg)
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// LastAssistant returns the most recently appended assistant message, or
// nil if the conversation has none. Stream events are always applied to
// this message.
func (c *Conversation) LastAssistant() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i]
		}
	}
	return nil
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty reports whether the conversation has no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// SNAPSHOT REPLACEMENT
// =============================================================================

// ReplaceWith overwrites the local conversation with a freshly fetched
// snapshot. Used by the reconciler after a failed or cancelled stream:
// the local partial assembly is never kept as truth.
func (c *Conversation) ReplaceWith(snapshot *Conversation) {
	c.Title = snapshot.Title
	c.WorkMode = snapshot.WorkMode
	c.CreatedAt = snapshot.CreatedAt
	c.Messages = snapshot.Messages
}

// DropLastExchange removes the trailing assistant placeholder and, if
// present, the optimistic user message directly before it. Used when a
// stream terminates abnormally before the re-fetch lands.
func (c *Conversation) DropLastExchange() {
	n := len(c.Messages)
	if n == 0 || c.Messages[n-1].Role != RoleAssistant {
		return
	}
	n--
	if n > 0 && c.Messages[n-1].Role == RoleUser {
		n--
	}
	c.Messages = c.Messages[:n]
}

// Summary returns the listing form of the conversation.
func (c *Conversation) Summary() ConversationSummary {
	return ConversationSummary{
		ID:           c.ID,
		Title:        c.Title,
		CreatedAt:    c.CreatedAt,
		MessageCount: len(c.Messages),
	}
}
