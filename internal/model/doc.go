// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for council conversations
// and messages.
//
// A conversation is an ordered list of messages. Messages are a tagged
// variant on Role: user messages carry the submitted content, attachment
// references, and case-study settings; assistant messages carry the three
// council stage payloads (drafts, peer rankings, chairman synthesis) plus
// per-stage loading flags that are only meaningful while a stream session
// is in flight.
//
// The backend is the authority on persisted state. Local mutation is
// limited to appending optimistic messages during an active stream and to
// wholesale snapshot replacement after reconciliation.
package model
