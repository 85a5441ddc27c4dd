// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pricing estimates the cost of a council run before it is
// submitted.
//
// The backend owns the authoritative estimate; this package mirrors its
// arithmetic so the composer can show a live figure on every keystroke
// without a network round-trip, and rate-limits the backend calls that
// keep the local figure honest.
package pricing
