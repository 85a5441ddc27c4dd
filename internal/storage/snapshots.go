// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/council-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotCached is returned when no snapshot exists for an ID.
	ErrNotCached = errors.New("conversation not cached")
)

// =============================================================================
// SNAPSHOT STORE
// =============================================================================

// SnapshotStore is the local SQLite cache of conversation snapshots.
type SnapshotStore struct {
	db   *sql.DB
	path string
}

// DefaultPath returns the cache location under the user's home directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".council-tui", "snapshots.db"), nil
}

// Open opens (creating if needed) the snapshot cache at path.
func Open(path string) (*SnapshotStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite allows one writer at a time; keep the pool at a single
	// connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &SnapshotStore{db: db, path: path}, nil
}

// Close releases the underlying database.
func (s *SnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// SNAPSHOT OPERATIONS
// =============================================================================

// Put stores or replaces the snapshot for conv. The whole conversation is
// serialized; partial updates are never written, so a cached snapshot is
// always internally consistent.
func (s *SnapshotStore) Put(conv *model.Conversation) error {
	if conv == nil || conv.ID == "" {
		return errors.New("conversation must have an ID")
	}

	body, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to serialize conversation: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO snapshots (id, title, work_mode, created_at, message_count, body, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			work_mode = excluded.work_mode,
			created_at = excluded.created_at,
			message_count = excluded.message_count,
			body = excluded.body,
			cached_at = excluded.cached_at
	`, conv.ID, conv.Title, string(conv.WorkMode), conv.CreatedAt.Unix(),
		len(conv.Messages), string(body), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// Get loads the cached snapshot for id, or ErrNotCached.
func (s *SnapshotStore) Get(id string) (*model.Conversation, error) {
	var body string
	err := s.db.QueryRow("SELECT body FROM snapshots WHERE id = ?", id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var conv model.Conversation
	if err := json.Unmarshal([]byte(body), &conv); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &conv, nil
}

// Delete removes the snapshot for id. Deleting an uncached ID is not an
// error.
func (s *SnapshotStore) Delete(id string) error {
	if _, err := s.db.Exec("DELETE FROM snapshots WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List returns summaries of all cached conversations, newest first.
func (s *SnapshotStore) List() ([]model.ConversationSummary, error) {
	rows, err := s.db.Query(`
		SELECT id, title, created_at, message_count
		FROM snapshots
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var summaries []model.ConversationSummary
	for rows.Next() {
		var (
			sum     model.ConversationSummary
			created int64
		)
		if err := rows.Scan(&sum.ID, &sum.Title, &created, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		sum.CreatedAt = time.Unix(created, 0)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Prune drops all but the max most recently cached snapshots. Zero or
// negative max means unlimited.
func (s *SnapshotStore) Prune(max int) error {
	if max <= 0 {
		return nil
	}
	_, err := s.db.Exec(`
		DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY cached_at DESC LIMIT ?
		)
	`, max)
	if err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return nil
}

// Count returns the number of cached snapshots.
func (s *SnapshotStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}
