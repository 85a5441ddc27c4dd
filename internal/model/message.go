// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Council"
	default:
		return string(r)
	}
}

// =============================================================================
// USER MESSAGE PARTS
// =============================================================================

// Attachment references a file uploaded alongside a user message.
type Attachment struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// CaseSettings holds the optional structured inputs for case-study
// generation. All fields are optional; the backend substitutes defaults.
type CaseSettings struct {
	CaseContext      string   `json:"case_context,omitempty"`
	KeyFacts         string   `json:"key_facts,omitempty"`
	StyleCard        string   `json:"style_card,omitempty"`
	ExemplarSnippets string   `json:"exemplar_snippets,omitempty"`
	Length           string   `json:"length,omitempty"`
	Sections         []string `json:"sections,omitempty"`
	Sensitivities    string   `json:"sensitivities,omitempty"`
	Mode             string   `json:"mode,omitempty"` // "draft", "edit", "fact_check"
	OutputExtras     []string `json:"output_extras,omitempty"`
	ExistingText     string   `json:"existing_text,omitempty"`
}

// =============================================================================
// ASSISTANT MESSAGE PARTS
// =============================================================================

// StageDraft is one council model's stage-1 draft response.
type StageDraft struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

// StageRanking is one council model's stage-2 ranking of the anonymized
// stage-1 drafts.
type StageRanking struct {
	Model   string `json:"model"`
	Ranking string `json:"ranking"`
}

// AggregateRank is a model's averaged position across all stage-2 rankings.
type AggregateRank struct {
	Model       string  `json:"model"`
	AverageRank float64 `json:"average_rank"`
}

// StageMetadata accompanies the stage-2 payload: the label-to-model
// de-anonymization map and the aggregate ranking computed by the backend.
type StageMetadata struct {
	LabelToModel      map[string]string `json:"label_to_model,omitempty"`
	AggregateRankings []AggregateRank   `json:"aggregate_rankings,omitempty"`
}

// StageFinal is the chairman model's stage-3 synthesis.
type StageFinal struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

// LoadingFlags track which council stages are currently in progress.
// A flag is true only between the stage's start event and that stage's
// complete event (or a terminal event for the whole stream).
type LoadingFlags struct {
	Stage1 bool `json:"-"`
	Stage2 bool `json:"-"`
	Stage3 bool `json:"-"`
}

// Any reports whether any stage is still in progress.
func (f LoadingFlags) Any() bool {
	return f.Stage1 || f.Stage2 || f.Stage3
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single message in a conversation.
//
// The variant is tagged by Role. User fields and assistant fields are never
// both populated. A stage payload is non-nil only after that stage's
// complete event has been applied.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp,omitempty"`

	// User fields
	Content      string        `json:"content,omitempty"`
	Attachments  []Attachment  `json:"attachments,omitempty"`
	CaseSettings *CaseSettings `json:"case_settings,omitempty"`

	// Assistant fields
	Stage1   []StageDraft   `json:"stage1,omitempty"`
	Stage2   []StageRanking `json:"stage2,omitempty"`
	Stage3   *StageFinal    `json:"stage3,omitempty"`
	Metadata *StageMetadata `json:"metadata,omitempty"`

	// Streaming state, not persisted
	Loading LoadingFlags `json:"-"`
}

// NewUserMessage creates a user message ready for optimistic append.
func NewUserMessage(content string, attachments []Attachment, settings *CaseSettings) *Message {
	return &Message{
		ID:           uuid.NewString(),
		Role:         RoleUser,
		Timestamp:    time.Now(),
		Content:      content,
		Attachments:  attachments,
		CaseSettings: settings,
	}
}

// NewAssistantPlaceholder creates an empty assistant message: all stage
// payloads nil, all loading flags false. The stream session appends one
// before any network activity so the UI has something to render.
func NewAssistantPlaceholder() *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
	}
}

// IsUser reports whether the message is the user variant.
func (m *Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsAssistant reports whether the message is the assistant variant.
func (m *Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// IsEmpty reports whether an assistant message has no stage payloads yet.
func (m *Message) IsEmpty() bool {
	return m.Stage1 == nil && m.Stage2 == nil && m.Stage3 == nil
}

// FinalText returns the chairman synthesis text, or "" if stage 3 has not
// completed.
func (m *Message) FinalText() string {
	if m.Stage3 == nil {
		return ""
	}
	return m.Stage3.Response
}

// Preview returns a truncated single-line preview of the message.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	text := m.Content
	if m.IsAssistant() {
		text = m.FinalText()
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
