// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeranaias/council-tui/internal/model"
)

func openTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleConversation(id, title string) *model.Conversation {
	conv := model.NewConversation(id)
	conv.Title = title
	conv.WorkMode = model.WorkModeCaseStudy
	conv.Append(model.NewUserMessage("question", nil, nil))
	reply := model.NewAssistantPlaceholder()
	reply.Stage3 = &model.StageFinal{Model: "chair", Response: "answer"}
	conv.Append(reply)
	return conv
}

// =============================================================================
// SNAPSHOT STORE TESTS
// =============================================================================

func TestPutGetRoundTrip(t *testing.T) {
	store := openTestStore(t)

	conv := sampleConversation("conv-1", "First")
	if err := store.Put(conv); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get("conv-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != "First" || got.WorkMode != model.WorkModeCaseStudy {
		t.Errorf("Snapshot fields lost: title=%q mode=%q", got.Title, got.WorkMode)
	}
	if got.MessageCount() != 2 {
		t.Fatalf("Messages = %d, want 2", got.MessageCount())
	}
	if got.Messages[1].Stage3 == nil || got.Messages[1].Stage3.Response != "answer" {
		t.Error("Stage payloads should survive the cache")
	}
}

func TestPutReplacesExistingSnapshot(t *testing.T) {
	store := openTestStore(t)

	store.Put(sampleConversation("conv-1", "Old title"))
	updated := sampleConversation("conv-1", "New title")
	updated.Append(model.NewUserMessage("follow-up", nil, nil))
	if err := store.Put(updated); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get("conv-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != "New title" || got.MessageCount() != 3 {
		t.Errorf("Snapshot not replaced: title=%q messages=%d", got.Title, got.MessageCount())
	}
	if n, _ := store.Count(); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestGetMissingReturnsErrNotCached(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Get("nope"); err != ErrNotCached {
		t.Errorf("Get(missing) = %v, want ErrNotCached", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	store.Put(sampleConversation("conv-1", "t"))

	if err := store.Delete("conv-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete("conv-1"); err != nil {
		t.Errorf("Deleting an uncached ID should succeed, got %v", err)
	}
	if _, err := store.Get("conv-1"); err != ErrNotCached {
		t.Error("Snapshot should be gone after Delete")
	}
}

func TestListNewestFirst(t *testing.T) {
	store := openTestStore(t)

	older := sampleConversation("conv-old", "Older")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := sampleConversation("conv-new", "Newer")

	store.Put(older)
	store.Put(newer)

	summaries, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("List returned %d, want 2", len(summaries))
	}
	if summaries[0].ID != "conv-new" || summaries[1].ID != "conv-old" {
		t.Errorf("Order = %s, %s; want newest first", summaries[0].ID, summaries[1].ID)
	}
	if summaries[0].MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", summaries[0].MessageCount)
	}
}

func TestPruneKeepsMostRecentlyCached(t *testing.T) {
	store := openTestStore(t)

	for _, id := range []string{"a", "b", "c"} {
		store.Put(sampleConversation(id, id))
	}

	if err := store.Prune(2); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if n, _ := store.Count(); n != 2 {
		t.Errorf("Count after prune = %d, want 2", n)
	}
	if _, err := store.Get("a"); err != ErrNotCached {
		t.Error("Oldest snapshot should have been pruned")
	}
	if _, err := store.Get("c"); err != nil {
		t.Errorf("Newest snapshot should survive, got %v", err)
	}
}

// =============================================================================
// EXPORT TESTS
// =============================================================================

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export", "conv.json")
	conv := sampleConversation("conv-1", "Exported")

	if err := ExportJSON(path, conv); err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var got model.Conversation
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Export is not valid JSON: %v", err)
	}
	if got.Title != "Exported" {
		t.Errorf("Title = %q", got.Title)
	}
}

func TestWriteExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conv.md")
	if err := WriteExport(path, []byte("# Conversation\n")); err != nil {
		t.Fatalf("WriteExport failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "# Conversation\n" {
		t.Errorf("Content = %q", data)
	}
}
