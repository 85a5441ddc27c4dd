// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reconcile

import (
	"context"
	"fmt"

	"github.com/jeranaias/council-tui/internal/council"
	"github.com/jeranaias/council-tui/internal/model"
	"github.com/jeranaias/council-tui/internal/stream"
)

// =============================================================================
// RECONCILER
// =============================================================================

// Outcome describes what reconciliation did, so the caller can update its
// own views.
type Outcome struct {
	// Refetched is true when the conversation was replaced with a fresh
	// backend snapshot.
	Refetched bool

	// Summaries holds refreshed conversation listings. Nil when titles did
	// not change.
	Summaries []model.ConversationSummary
}

// Reconciler resolves a terminated stream session against the backend.
type Reconciler struct {
	client *council.Client
}

// NewReconciler creates a reconciler backed by the given API client.
func NewReconciler(client *council.Client) *Reconciler {
	return &Reconciler{client: client}
}

// Resolve applies the terminal policy for the given session state:
//
//   - Completed: the local reply is kept. If the stream reported a title
//     change, conversation listings are re-fetched.
//   - Failed or Cancelled: the optimistic exchange is dropped and the
//     conversation is replaced with the backend's snapshot.
//
// Resolve must be called only after the session's Done channel closes.
// If the re-fetch itself fails, the conversation is left without the
// optimistic exchange and the error is returned; the caller may retry.
func (r *Reconciler) Resolve(ctx context.Context, conv *model.Conversation, state stream.State, titleDirty bool) (*Outcome, error) {
	switch state {
	case stream.StateCompleted:
		return r.resolveCompleted(ctx, titleDirty)
	case stream.StateFailed, stream.StateCancelled:
		return r.resolveAbnormal(ctx, conv)
	default:
		return nil, fmt.Errorf("cannot reconcile non-terminal session state %q", state)
	}
}

// resolveCompleted trusts the assembled reply and refreshes listings when
// the backend generated a new title during the stream.
func (r *Reconciler) resolveCompleted(ctx context.Context, titleDirty bool) (*Outcome, error) {
	if !titleDirty {
		return &Outcome{}, nil
	}
	summaries, err := r.client.ListConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh conversation titles: %w", err)
	}
	return &Outcome{Summaries: summaries}, nil
}

// resolveAbnormal discards the untrusted local tail and restores the
// backend's view of the conversation.
func (r *Reconciler) resolveAbnormal(ctx context.Context, conv *model.Conversation) (*Outcome, error) {
	conv.DropLastExchange()

	snapshot, err := r.client.GetConversation(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-fetch conversation %s: %w", conv.ID, err)
	}
	conv.ReplaceWith(snapshot)
	return &Outcome{Refetched: true}, nil
}
