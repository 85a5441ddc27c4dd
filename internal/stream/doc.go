// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream owns the lifecycle of one in-flight council message.
//
// A Session opens the backend's event stream, decodes frames, interprets
// them as events, and folds each event into the conversation's trailing
// assistant message via the assembler. Events are applied strictly in
// arrival order on a single goroutine; the assembler is never invoked
// concurrently for the same session.
//
// Terminal conditions: a complete event (Completed), a backend error event
// or any transport failure before completion (Failed), or caller
// cancellation (Cancelled). On Failed and Cancelled the locally assembled
// reply is not trusted; the reconcile package re-fetches authoritative
// state. At most one session may be active per conversation; callers gate
// new submissions on IsActive.
package stream
