// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package council

import (
	"time"

	"github.com/jeranaias/council-tui/internal/model"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SendMessageRequest is the body of POST /api/conversations/{id}/message/stream.
type SendMessageRequest struct {
	Content      string              `json:"content"`
	Attachments  []model.Attachment  `json:"attachments,omitempty"`
	CaseSettings *model.CaseSettings `json:"case_settings,omitempty"`
}

// UpdateConversationRequest is the body of PATCH /api/conversations/{id}.
// Nil fields are left unchanged by the backend.
type UpdateConversationRequest struct {
	Title    *string         `json:"title,omitempty"`
	WorkMode *model.WorkMode `json:"work_mode,omitempty"`
}

// EstimateRequest is the body of POST /api/estimate_cost. Zero-valued
// assumption overrides defer to the backend defaults.
type EstimateRequest struct {
	MessageLengthChars    int     `json:"message_length_chars"`
	AttachmentLengthChars int     `json:"attachment_length_chars,omitempty"`
	CharsPerToken         float64 `json:"chars_per_token,omitempty"`

	Stage1OutputMultiplier float64 `json:"stage1_output_multiplier,omitempty"`
	Stage2InputMultiplier  float64 `json:"stage2_input_multiplier,omitempty"`
	Stage2OutputMultiplier float64 `json:"stage2_output_multiplier,omitempty"`
	Stage3InputMultiplier  float64 `json:"stage3_input_multiplier,omitempty"`
	Stage3OutputMultiplier float64 `json:"stage3_output_multiplier,omitempty"`

	Models        []string `json:"models,omitempty"`
	ChairmanModel string   `json:"chairman_model,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// Project groups conversations in the sidebar.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// UploadResult is the backend's record of a stored upload.
type UploadResult struct {
	Name       string `json:"name"`
	StoredName string `json:"stored_name"`
	URL        string `json:"url"`
	MimeType   string `json:"mime_type,omitempty"`
	Size       int64  `json:"size"`
}

// Attachment converts an upload result into the attachment reference
// carried on a user message.
func (u UploadResult) Attachment() model.Attachment {
	return model.Attachment{
		Name:     u.Name,
		URL:      u.URL,
		MimeType: u.MimeType,
		Size:     u.Size,
	}
}

// LibraryFile is one entry of the cross-conversation upload library.
type LibraryFile struct {
	Name           string `json:"name"`
	URL            string `json:"url"`
	MimeType       string `json:"mime_type,omitempty"`
	Size           int64  `json:"size,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// =============================================================================
// COST ESTIMATE TYPES
// =============================================================================

// ModelCost is the per-model breakdown of an estimate.
type ModelCost struct {
	Model                string  `json:"model"`
	InputTokens          int     `json:"input_tokens"`
	OutputTokens         int     `json:"output_tokens"`
	InputRatePerMillion  float64 `json:"input_rate_per_million"`
	OutputRatePerMillion float64 `json:"output_rate_per_million"`
	CostInput            float64 `json:"cost_input"`
	CostOutput           float64 `json:"cost_output"`
	CostTotal            float64 `json:"cost_total"`
	PricingMissing       bool    `json:"pricing_missing,omitempty"`
}

// StageCost aggregates one council stage's per-model costs.
type StageCost struct {
	PerModel  []ModelCost `json:"per_model"`
	CostTotal float64     `json:"cost_total"`
}

// ChairmanCost is the stage-3 estimate: a single chairman model.
type ChairmanCost struct {
	Chairman  ModelCost `json:"chairman"`
	CostTotal float64   `json:"cost_total"`
}

// CostEstimate is the response of POST /api/estimate_cost.
type CostEstimate struct {
	CharCount   int                `json:"char_count"`
	BaseTokens  int                `json:"base_tokens"`
	Assumptions map[string]float64 `json:"assumptions,omitempty"`
	Stage1      StageCost          `json:"stage1"`
	Stage2      StageCost          `json:"stage2"`
	Stage3      ChairmanCost       `json:"stage3"`
	CostTotal   float64            `json:"cost_total"`
}
