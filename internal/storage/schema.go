// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

// SchemaVersion tracks the cache schema for future migrations.
const SchemaVersion = 1

// Schema creates the snapshot cache tables.
const Schema = `
-- Metadata table for schema version and cache state
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Snapshots table: one row per cached conversation, body stored whole
CREATE TABLE IF NOT EXISTS snapshots (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    work_mode TEXT,
    created_at INTEGER NOT NULL,   -- Unix timestamp, backend's clock
    message_count INTEGER NOT NULL,
    body TEXT NOT NULL,            -- Full conversation as JSON
    cached_at INTEGER NOT NULL     -- Unix nanoseconds, local clock
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_snapshots_cached_at ON snapshots(cached_at);
`

// InitMetadata seeds the metadata table.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
INSERT OR IGNORE INTO metadata (key, value) VALUES ('created_at', strftime('%s', 'now'));
`
