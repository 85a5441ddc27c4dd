// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package council

import (
	"bufio"
	"bytes"
	"io"
)

// =============================================================================
// FRAME READER
// =============================================================================

// FrameReader decodes Server-Sent-Events frames from a byte stream.
//
// Frames are delimited by a blank line. The transport delivers bytes in
// arbitrary chunks, so a frame, a line, or even a multi-byte character may
// be split across reads; the bufio layer buffers trailing bytes until a
// complete line is available, and the reader buffers complete lines until
// the frame's delimiter arrives. The sequence is finite and ends when the
// underlying transport closes.
type FrameReader struct {
	reader *bufio.Reader
}

// NewFrameReader creates a frame reader over an io.Reader, typically a
// streaming response body.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{
		reader: bufio.NewReader(r),
	}
}

// ReadFrame returns the data payload of the next complete frame.
//
// All "data:" lines within a frame belong to one logical message and are
// joined with a newline before being returned, per the wire format. Other
// fields ("event:", "id:", "retry:", comment lines) are ignored.
//
// Returns io.EOF when the stream ends. A trailing frame that was never
// terminated by a blank line is discarded: without its delimiter it cannot
// be known to be complete, so it is unusable.
func (f *FrameReader) ReadFrame() ([]byte, error) {
	var dataLines [][]byte

	for {
		line, err := f.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				// Unterminated trailing data is discarded.
				return nil, io.EOF
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Blank line ends the frame.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			// Delimiter with no data yet: keep reading.
			continue
		}

		if bytes.HasPrefix(line, []byte("data:")) {
			data := bytes.TrimPrefix(line, []byte("data:"))
			data = bytes.TrimPrefix(data, []byte(" "))
			dataLines = append(dataLines, data)
		}
		// Ignore event:, id:, retry:, and comment lines.
	}
}
