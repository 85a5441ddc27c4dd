// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the council-tui chat view: a sidebar of
// conversations, a viewport rendering the three-stage council replies,
// and a composer with a live cost estimate.
//
// The view is a single Bubble Tea model. Stream events produced on the
// session's goroutine are bridged into the Tea loop through a buffered
// channel, so all state mutation still happens in Update.
package chat
