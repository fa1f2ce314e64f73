// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import (
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastLineTeeReader_LastLine(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		expectedLast string
		expectedData string
	}{
		{
			name:         "single line with newline",
			input:        "hello world\n",
			expectedLast: "hello world",
			expectedData: "hello world\n",
		},
		{
			name:         "single line without newline falls back to partial",
			input:        "hello world",
			expectedLast: "hello world",
			expectedData: "hello world",
		},
		{
			name:         "multiple lines",
			input:        "one\ntwo\nthree\n",
			expectedLast: "three",
			expectedData: "one\ntwo\nthree\n",
		},
		{
			name:         "trailing partial keeps last complete line",
			input:        "one\ntwo\npartial",
			expectedLast: "two",
			expectedData: "one\ntwo\npartial",
		},
		{
			name:         "carriage return is trimmed",
			input:        "windows line\r\n",
			expectedLast: "windows line",
			expectedData: "windows line\r\n",
		},
		{
			name:         "empty input",
			input:        "",
			expectedLast: "",
			expectedData: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tee := NewLastLineTeeReader(strings.NewReader(tt.input), 0)

			_, err := io.Copy(io.Discard, tee)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedLast, tee.LastLine(0))
			assert.Equal(t, tt.expectedData, string(tee.Bytes()))
			assert.False(t, tee.Truncated())
		})
	}
}

func TestLastLineTeeReader_SmallReads(t *testing.T) {
	tee := NewLastLineTeeReader(strings.NewReader("first line\nsecond line\n"), 0)
	buf := make([]byte, 3)

	for {
		_, err := tee.Read(buf)
		if err == io.EOF {
			break
		}

		require.NoError(t, err)
	}

	assert.Equal(t, "second line", tee.LastLine(0))
}

func TestLastLineTeeReader_Limit(t *testing.T) {
	input := strings.Repeat("x", 100) + "\nlast\n"
	tee := NewLastLineTeeReader(strings.NewReader(input), 10)

	n, err := io.Copy(io.Discard, tee)
	require.NoError(t, err)

	assert.Equal(t, int64(len(input)), n, "the whole input must be drained")
	assert.Len(t, tee.Bytes(), 10)
	assert.True(t, tee.Truncated())
	assert.Equal(t, "last", tee.LastLine(0))
}

func TestLastLineTeeReader_LastLineMaxLength(t *testing.T) {
	tee := NewLastLineTeeReader(strings.NewReader("this is a long line of output\n"), 0)

	_, err := io.Copy(io.Discard, tee)
	require.NoError(t, err)

	assert.Equal(t, "this is...", tee.LastLine(10))
}

func TestLastLineTeeReader_ConcurrentAccess(t *testing.T) {
	pr, pw := io.Pipe()
	tee := NewLastLineTeeReader(pr, 0)

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()

		for range 100 {
			_, _ = pw.Write([]byte("line\n"))
		}

		_ = pw.Close()
	}()

	go func() {
		defer wg.Done()

		_, _ = io.Copy(io.Discard, tee)
	}()

	for range 100 {
		_ = tee.LastLine(0)
		_ = tee.Bytes()
	}

	wg.Wait()

	assert.Equal(t, "line", tee.LastLine(0))
	assert.Len(t, tee.Bytes(), 500)
}
