// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package council

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/council-tui/internal/model"
)

// =============================================================================
// EVENT KIND
// =============================================================================

// EventKind identifies a stream event. The set is closed: adding a new
// backend event type means adding a constant here and handling it in the
// assembler, which makes the decision compile-time visible instead of an
// open string dispatch.
type EventKind int

const (
	// EventUnknown is the forward-compatibility fallback for event types
	// this client does not recognize. Unknown events are always accepted
	// and never fail the stream.
	EventUnknown EventKind = iota

	EventStage1Start
	EventStage1Complete
	EventStage2Start
	EventStage2Complete
	EventStage3Start
	EventStage3Complete
	EventTitleComplete
	EventComplete
	EventError
)

// String returns the wire name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventStage1Start:
		return "stage1_start"
	case EventStage1Complete:
		return "stage1_complete"
	case EventStage2Start:
		return "stage2_start"
	case EventStage2Complete:
		return "stage2_complete"
	case EventStage3Start:
		return "stage3_start"
	case EventStage3Complete:
		return "stage3_complete"
	case EventTitleComplete:
		return "title_complete"
	case EventComplete:
		return "complete"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the event ends the stream session.
func (k EventKind) Terminal() bool {
	switch k {
	case EventComplete, EventError:
		return true
	}
	return false
}

// =============================================================================
// EVENT TYPE
// =============================================================================

// Event is one interpreted stream event. Events are immutable, carry no
// ordering number, and must be applied in arrival order. Only the fields
// relevant to Kind are populated.
type Event struct {
	Kind EventKind

	// stage1_complete
	Drafts []model.StageDraft

	// stage2_complete
	Rankings []model.StageRanking
	Metadata *model.StageMetadata

	// stage3_complete
	Final *model.StageFinal

	// title_complete
	Title string

	// error
	Message string

	// unknown: the undecoded frame payload, kept for diagnostics
	Raw json.RawMessage
}

// envelope is the wire shape of every frame payload.
type envelope struct {
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// =============================================================================
// EVENT INTERPRETER
// =============================================================================

// ParseEvent interprets one decoded frame payload as a typed Event.
//
// A payload that is not valid JSON, or whose stage data cannot be decoded,
// returns an error; the caller logs it on the session's diagnostics side
// channel and continues the stream (protocol errors are non-fatal). An
// unrecognized type value is not an error: it yields an EventUnknown so
// that older clients survive newer backends.
func ParseEvent(payload []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Event{}, fmt.Errorf("undecodable frame payload: %w", err)
	}

	switch env.Type {
	case "stage1_start":
		return Event{Kind: EventStage1Start}, nil

	case "stage1_complete":
		var drafts []model.StageDraft
		if err := json.Unmarshal(env.Data, &drafts); err != nil {
			return Event{}, fmt.Errorf("stage1_complete data: %w", err)
		}
		return Event{Kind: EventStage1Complete, Drafts: drafts}, nil

	case "stage2_start":
		return Event{Kind: EventStage2Start}, nil

	case "stage2_complete":
		var rankings []model.StageRanking
		if err := json.Unmarshal(env.Data, &rankings); err != nil {
			return Event{}, fmt.Errorf("stage2_complete data: %w", err)
		}
		ev := Event{Kind: EventStage2Complete, Rankings: rankings}
		if len(env.Metadata) > 0 {
			var meta model.StageMetadata
			if err := json.Unmarshal(env.Metadata, &meta); err != nil {
				return Event{}, fmt.Errorf("stage2_complete metadata: %w", err)
			}
			ev.Metadata = &meta
		}
		return ev, nil

	case "stage3_start":
		return Event{Kind: EventStage3Start}, nil

	case "stage3_complete":
		var final model.StageFinal
		if err := json.Unmarshal(env.Data, &final); err != nil {
			return Event{}, fmt.Errorf("stage3_complete data: %w", err)
		}
		return Event{Kind: EventStage3Complete, Final: &final}, nil

	case "title_complete":
		var data struct {
			Title string `json:"title"`
		}
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &data); err != nil {
				return Event{}, fmt.Errorf("title_complete data: %w", err)
			}
		}
		return Event{Kind: EventTitleComplete, Title: data.Title}, nil

	case "complete":
		return Event{Kind: EventComplete}, nil

	case "error":
		return Event{Kind: EventError, Message: env.Message}, nil

	default:
		return Event{Kind: EventUnknown, Raw: append(json.RawMessage(nil), payload...)}, nil
	}
}
