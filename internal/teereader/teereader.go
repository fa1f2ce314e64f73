// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import (
	"bytes"
	"io"
	"strings"
	"sync"
)

// LastLineTeeReader wraps an io.Reader, keeps up to a fixed number of bytes of
// everything read through it and tracks the last complete line.
// It is safe for concurrent use.
type LastLineTeeReader struct {
	reader         io.Reader
	limit          int64
	fullBuffer     *bytes.Buffer
	truncated      bool
	lastLine       string
	partialBuilder strings.Builder // Buffer for incomplete lines
	mu             sync.RWMutex
}

// NewLastLineTeeReader creates a new LastLineTeeReader that wraps the given reader.
// At most limit bytes are retained, a limit <= 0 retains everything.
func NewLastLineTeeReader(r io.Reader, limit int64) *LastLineTeeReader {
	return &LastLineTeeReader{
		reader:     r,
		limit:      limit,
		fullBuffer: &bytes.Buffer{},
	}
}

// Read implements io.Reader. It reads from the underlying reader and updates
// both the retained buffer and the last line tracking.
func (lt *LastLineTeeReader) Read(p []byte) (n int, err error) {
	n, err = lt.reader.Read(p)
	if n > 0 {
		lt.mu.Lock()
		defer lt.mu.Unlock()

		lt.retain(p[:n])
		lt.processNewData(string(p[:n]))
	}

	return n, err //nolint:wrapcheck
}

// retain appends data to the buffer without exceeding the limit.
// Must be called with the write lock held.
func (lt *LastLineTeeReader) retain(data []byte) {
	if lt.limit <= 0 {
		lt.fullBuffer.Write(data)
		return
	}

	room := lt.limit - int64(lt.fullBuffer.Len())
	if room <= 0 {
		lt.truncated = true
		return
	}

	if int64(len(data)) > room {
		data = data[:room]
		lt.truncated = true
	}

	lt.fullBuffer.Write(data)
}

// processNewData updates the last line based on new data.
// Must be called with the write lock held.
func (lt *LastLineTeeReader) processNewData(data string) {
	lt.partialBuilder.WriteString(data)
	combined := lt.partialBuilder.String()

	idx := strings.LastIndexByte(combined, '\n')
	if idx < 0 {
		lt.capPartial()
		return
	}

	complete := combined[:idx]
	if prev := strings.LastIndexByte(complete, '\n'); prev >= 0 {
		complete = complete[prev+1:]
	}

	lt.lastLine = strings.TrimSuffix(complete, "\r")

	lt.partialBuilder.Reset()
	lt.partialBuilder.WriteString(combined[idx+1:])
	lt.capPartial()
}

// capPartial keeps the tail of an overlong partial line within the limit.
func (lt *LastLineTeeReader) capPartial() {
	if lt.limit <= 0 || int64(lt.partialBuilder.Len()) <= lt.limit {
		return
	}

	tail := lt.partialBuilder.String()
	tail = tail[int64(len(tail))-lt.limit:]

	lt.partialBuilder.Reset()
	lt.partialBuilder.WriteString(tail)
}

// LastLine returns the last complete line that was read, or the pending partial line
// if no complete line has been read yet.
// If maxLength > 0, it truncates the line to that length and appends "..." if it exceeds that length.
func (lt *LastLineTeeReader) LastLine(maxLength int) string {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	result := lt.lastLine
	if result == "" {
		result = lt.partialBuilder.String()
	}

	if maxLength > 3 && len(result) > maxLength {
		result = result[:maxLength-3] + "..."
	}

	return result
}

// Bytes returns a copy of the retained data.
func (lt *LastLineTeeReader) Bytes() []byte {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return bytes.Clone(lt.fullBuffer.Bytes())
}

// Truncated reports whether data was dropped because the limit was reached.
func (lt *LastLineTeeReader) Truncated() bool {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return lt.truncated
}
