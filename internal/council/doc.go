// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package council provides the HTTP client for the LLM Council backend.
//
// The backend answers each message by running three sequential stages
// (council drafts, anonymized peer rankings, chairman synthesis) and
// reports progress over a Server-Sent-Events stream. This package covers
// both halves of that protocol:
//
//   - Client: plain request/response operations (conversation and project
//     CRUD, upload, export, cost estimation) plus SendMessageStream, which
//     opens the event stream for a submitted message.
//   - FrameReader: incremental decoding of the blank-line-delimited wire
//     frames, tolerant of arbitrary chunk boundaries.
//   - ParseEvent: interpretation of one frame into a closed tagged Event
//     variant, with an Unknown fallback for forward compatibility.
//
// Stream consumption, ordering, and cancellation live in the stream
// package; this package never applies events to conversation state.
package council
