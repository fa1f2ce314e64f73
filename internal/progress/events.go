// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event represents a real-time update from an invocation.
type Event struct {
	Path      []string  // Hierarchical path, e.g. ["dmesg", "remote", "0/lxd/1"]
	Type      EventType // What happened
	Message   string    // Human-readable status message
	Timestamp time.Time // When the event occurred
	Data      EventData // Type-specific data
}

// EventType represents the type of progress event.
type EventType int

const (
	// EventStarted indicates an invocation has begun execution.
	EventStarted EventType = iota
	// EventCompleted indicates successful completion.
	EventCompleted
	// EventFailed indicates the invocation failed.
	EventFailed
	// EventSkipped indicates the invocation was never started.
	EventSkipped
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventStarted:
		return "started"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// EventData contains type-specific information for progress events.
type EventData struct {
	// For EventCompleted/EventFailed
	ExitCode int           // Process exit code
	Error    error         // Error if the invocation failed
	Duration time.Duration // Time between start and reap
	LastLine string        // Last line of output, if captured
}

// Reporter is the interface for sending progress events.
type Reporter interface {
	// Report sends a progress event. Implementations must not block.
	Report(event Event)
	// Close signals that no more events will be sent and cleans up resources.
	Close()
}

// Listener receives progress events.
type Listener interface {
	// OnEvent is called for every event, it should return quickly.
	OnEvent(event Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(event Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(event Event) {
	f(event)
}

// NullReporter is a no-op implementation of Reporter.
type NullReporter struct{}

// Report implements Reporter.Report by doing nothing.
func (nr *NullReporter) Report(Event) {}

// Close implements Reporter.Close by doing nothing.
func (nr *NullReporter) Close() {}

// NewNullReporter creates a new NullReporter.
func NewNullReporter() Reporter {
	return &NullReporter{}
}
