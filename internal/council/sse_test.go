// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package council

import (
	"io"
	"strings"
	"testing"
)

// chunkedReader yields its input in caller-chosen chunk sizes to simulate
// arbitrary transport chunk boundaries.
type chunkedReader struct {
	chunks [][]byte
	pos    int
}

func newChunkedReader(data string, sizes []int) *chunkedReader {
	var chunks [][]byte
	raw := []byte(data)
	for _, n := range sizes {
		if n > len(raw) {
			n = len(raw)
		}
		chunks = append(chunks, raw[:n])
		raw = raw[n:]
	}
	if len(raw) > 0 {
		chunks = append(chunks, raw)
	}
	return &chunkedReader{chunks: chunks}
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.chunks) {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.pos])
	if n == len(r.chunks[r.pos]) {
		r.pos++
	} else {
		r.chunks[r.pos] = r.chunks[r.pos][n:]
	}
	return n, nil
}

// =============================================================================
// FRAME READER TESTS
// =============================================================================

func TestReadFrameSingle(t *testing.T) {
	fr := NewFrameReader(strings.NewReader("data: {\"type\":\"complete\"}\n\n"))

	frame, err := fr.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if string(frame) != `{"type":"complete"}` {
		t.Errorf("Unexpected frame: %q", frame)
	}

	if _, err := fr.ReadFrame(); err != io.EOF {
		t.Errorf("Expected io.EOF after last frame, got %v", err)
	}
}

func TestReadFrameJoinsDataLines(t *testing.T) {
	// Multiple data: lines in one frame belong to one logical message.
	fr := NewFrameReader(strings.NewReader("data: line one\ndata: line two\n\n"))

	frame, err := fr.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if string(frame) != "line one\nline two" {
		t.Errorf("Expected joined payload, got %q", frame)
	}
}

func TestReadFrameIgnoresNonDataFields(t *testing.T) {
	input := ": comment\nevent: message\nid: 3\nretry: 100\ndata: payload\n\n"
	fr := NewFrameReader(strings.NewReader(input))

	frame, err := fr.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if string(frame) != "payload" {
		t.Errorf("Expected only data payload, got %q", frame)
	}
}

func TestReadFrameArbitraryChunkBoundaries(t *testing.T) {
	// Three complete frames; the second payload contains a multi-byte
	// character. Chunk sizes are chosen so boundaries fall inside the
	// multi-byte character and inside the blank-line delimiter.
	input := "data: first\n\n" + "data: café au lait\n\n" + "data: third\n\n"

	// é occupies bytes 22-23; the cumulative split at 23 lands inside it.
	// The first blank-line delimiter spans bytes 11-12; the cumulative
	// split at 12 lands inside it.
	sizes := []int{5, 7, 11, 3, 11}
	fr := NewFrameReader(newChunkedReader(input, sizes))

	want := []string{"first", "café au lait", "third"}
	for i, expected := range want {
		frame, err := fr.ReadFrame()
		if err != nil {
			t.Fatalf("Frame %d failed: %v", i, err)
		}
		if string(frame) != expected {
			t.Errorf("Frame %d: expected %q, got %q", i, expected, frame)
		}
	}

	if _, err := fr.ReadFrame(); err != io.EOF {
		t.Errorf("Expected io.EOF after three frames, got %v", err)
	}
}

func TestReadFrameDiscardsUnterminatedTail(t *testing.T) {
	// The stream closes mid-frame: the trailing data has no delimiter, so
	// it cannot be known complete and must be discarded.
	fr := NewFrameReader(strings.NewReader("data: whole\n\ndata: torn off"))

	frame, err := fr.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if string(frame) != "whole" {
		t.Errorf("Unexpected frame: %q", frame)
	}

	if _, err := fr.ReadFrame(); err != io.EOF {
		t.Errorf("Expected unterminated tail to be discarded with io.EOF, got %v", err)
	}
}

func TestReadFrameCRLF(t *testing.T) {
	fr := NewFrameReader(strings.NewReader("data: payload\r\n\r\n"))

	frame, err := fr.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if string(frame) != "payload" {
		t.Errorf("Expected CRLF handling, got %q", frame)
	}
}

func TestReadFrameEmptyStream(t *testing.T) {
	fr := NewFrameReader(strings.NewReader(""))
	if _, err := fr.ReadFrame(); err != io.EOF {
		t.Errorf("Expected io.EOF on empty stream, got %v", err)
	}
}
