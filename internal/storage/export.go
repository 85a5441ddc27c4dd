// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/council-tui/internal/model"
	"github.com/jeranaias/council-tui/internal/util"
)

// =============================================================================
// EXPORT
// =============================================================================

// WriteExport writes backend-rendered export bytes (markdown) to path,
// atomically so an interrupted export never leaves a half-written file.
func WriteExport(path string, data []byte) error {
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// ExportJSON writes the conversation itself as indented JSON, for
// machine-readable archives.
func ExportJSON(path string, conv *model.Conversation) error {
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize conversation: %w", err)
	}
	return WriteExport(path, data)
}
