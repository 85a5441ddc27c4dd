// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"github.com/jeranaias/council-tui/internal/council"
	"github.com/jeranaias/council-tui/internal/model"
)

// =============================================================================
// REPLY ASSEMBLER
// =============================================================================

// Apply folds one stream event into the in-progress assistant reply.
//
// The reply must be the most recently appended assistant message of the
// conversation. If reply is nil or not an assistant message (a caller
// invariant violation), the event is a no-op: the assembler never creates
// structure implicitly.
//
// A duplicate stageN_complete overwrites the stage payload last-write-wins,
// which tolerates duplicate delivery without any deduplication state.
// Terminal events (complete, error) and title_complete do not mutate the
// reply; unknown events are ignored.
func Apply(reply *model.Message, ev council.Event) {
	if reply == nil || !reply.IsAssistant() {
		return
	}

	switch ev.Kind {
	case council.EventStage1Start:
		reply.Loading.Stage1 = true

	case council.EventStage1Complete:
		reply.Stage1 = ev.Drafts
		reply.Loading.Stage1 = false

	case council.EventStage2Start:
		reply.Loading.Stage2 = true

	case council.EventStage2Complete:
		reply.Stage2 = ev.Rankings
		reply.Metadata = ev.Metadata
		reply.Loading.Stage2 = false

	case council.EventStage3Start:
		reply.Loading.Stage3 = true

	case council.EventStage3Complete:
		reply.Stage3 = ev.Final
		reply.Loading.Stage3 = false

	case council.EventTitleComplete,
		council.EventComplete,
		council.EventError,
		council.EventUnknown:
		// title_complete signals the reconciler, terminals end the
		// session, unknown is the forward-compatibility no-op. None of
		// them touch the reply.
	}
}
