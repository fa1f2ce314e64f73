// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package collect

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/crashdump/internal/progress"
)

var (
	startedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	skippedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// progressPrinter writes one line per invocation event.
func progressPrinter(w io.Writer) progress.Listener {
	return progress.ListenerFunc(func(ev progress.Event) {
		var line string

		switch ev.Type {
		case progress.EventStarted:
			line = startedStyle.Render("▶") + " " + ev.Message
		case progress.EventCompleted:
			line = fmt.Sprintf("%s %s [%s]", completedStyle.Render("✓"), ev.Message, ev.Data.Duration.Round(time.Millisecond))
		case progress.EventFailed:
			line = fmt.Sprintf("%s %s (exit code %d)", failedStyle.Render("✗"), ev.Message, ev.Data.ExitCode)
			if ev.Data.LastLine != "" {
				line += ": " + ev.Data.LastLine
			}
		case progress.EventSkipped:
			line = skippedStyle.Render("-") + " " + ev.Message
		default:
			return
		}

		fmt.Fprintln(w, line) //nolint:errcheck
	})
}
