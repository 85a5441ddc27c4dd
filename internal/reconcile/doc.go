// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reconcile restores agreement between the local conversation and
// the backend after a stream session terminates.
//
// On a completed stream the locally assembled reply is trusted as-is; only
// conversation titles are refreshed, and only when the stream reported a
// title change. On a failed or cancelled stream the local partial assembly
// is discarded and the authoritative conversation is re-fetched, because
// the backend alone knows how much of the exchange it persisted.
package reconcile
