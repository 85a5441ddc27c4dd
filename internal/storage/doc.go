// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage caches backend conversation snapshots locally.
//
// The backend owns all conversation state; this cache exists so the
// sidebar renders instantly on startup and recently read conversations
// stay readable while the backend is unreachable. Snapshots are stored
// whole as JSON in a SQLite database, keyed by conversation ID, and are
// replaced wholesale whenever a fresher snapshot arrives.
package storage
