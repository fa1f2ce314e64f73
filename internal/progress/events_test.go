// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestEventType_String(t *testing.T) {
	tests := []struct {
		eventType EventType
		expected  string
	}{
		{EventStarted, "started"},
		{EventCompleted, "completed"},
		{EventFailed, "failed"},
		{EventSkipped, "skipped"},
		{EventType(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.eventType.String())
		})
	}
}

func TestChannelReporter_ListenDeliversAllBeforeClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	reporter := NewChannelReporter(context.Background(), 10)

	var (
		mu  sync.Mutex
		got []Event
	)

	reporter.Listen(ListenerFunc(func(e Event) {
		mu.Lock()
		defer mu.Unlock()

		got = append(got, e)
	}))

	for i := range 5 {
		reporter.Report(Event{
			Path:      []string{"addon", "remote", string(rune('a' + i))},
			Type:      EventStarted,
			Timestamp: time.Now(),
		})
	}

	reporter.Close()

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, got, 5)
	assert.Equal(t, []string{"addon", "remote", "a"}, got[0].Path)
}

func TestChannelReporter_ReportAfterCloseIsDropped(t *testing.T) {
	defer goleak.VerifyNone(t)

	reporter := NewChannelReporter(context.Background(), 1)
	reporter.Close()

	assert.NotPanics(t, func() {
		reporter.Report(Event{Type: EventFailed})
	})

	// Close is idempotent.
	reporter.Close()
}

func TestChannelReporter_FullBufferDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t)

	reporter := NewChannelReporter(context.Background(), 1)
	defer reporter.Close()

	done := make(chan struct{})

	go func() {
		defer close(done)

		for range 10 {
			reporter.Report(Event{Type: EventCompleted})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Report blocked on a full channel")
	}

	assert.Len(t, reporter.Events(), 1)
}

func TestNullReporter(t *testing.T) {
	r := NewNullReporter()

	assert.NotPanics(t, func() {
		r.Report(Event{})
		r.Close()
	})
}
