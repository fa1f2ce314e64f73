// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/crashdump/internal/progress"
)

const (
	// reservedLines is the height taken by the title, the summary and the help line.
	reservedLines    = 6
	durationRounding = 100 * time.Millisecond
)

// EventMsg wraps a progress event for the tea framework.
type EventMsg struct {
	Event progress.Event
}

// DoneMsg tells the model that the run has finished.
type DoneMsg struct{}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.interrupt != nil {
				m.interrupt()
			}

			m.quitting = true

			return m, tea.Quit
		case "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-reservedLines, 1)

		return m, nil

	case EventMsg:
		m.apply(msg.Event)
		return m, nil

	case DoneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

// View implements tea.Model.
// Once the run is done the whole tree is drawn, so that it stays in the scrollback.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("crashdump run " + m.title))
	b.WriteString("\n\n")

	tree := m.renderTree()

	if m.done || m.quitting || m.height == 0 {
		b.WriteString(tree)
	} else {
		m.viewport.SetContent(tree)
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderSummary())
	b.WriteString("\n")

	if !m.done && !m.quitting {
		b.WriteString(m.styles.Help.Render("↑/↓ to scroll, q to hide, ctrl+c to interrupt the run"))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) renderTree() string {
	var b strings.Builder

	for i, c := range m.root.Children {
		m.renderNode(&b, c, "", i == len(m.root.Children)-1)
	}

	return b.String()
}

func (m *Model) renderNode(b *strings.Builder, n *Node, prefix string, last bool) {
	connector := "├── "
	childPrefix := prefix + "│   "

	if last {
		connector = "└── "
		childPrefix = prefix + "    "
	}

	state := n.State()

	b.WriteString(m.styles.Branch.Render(prefix + connector))
	b.WriteString(m.icon(state))
	b.WriteString(" ")
	b.WriteString(m.style(state).Render(n.Name))

	if len(n.Children) == 0 {
		b.WriteString(m.renderDetails(n))
	}

	b.WriteString("\n")

	for i, c := range n.Children {
		m.renderNode(b, c, childPrefix, i == len(n.Children)-1)
	}
}

func (m *Model) renderDetails(n *Node) string {
	var details string

	if !n.Start.IsZero() {
		end := n.End
		if end.IsZero() {
			end = time.Now()
		}

		details += m.styles.Detail.Render(fmt.Sprintf(" (%v)", end.Sub(n.Start).Round(durationRounding)))
	}

	if n.ErrorMsg != "" {
		details += " " + m.styles.Error.Render(n.ErrorMsg)
	}

	if n.LastLine != "" {
		details += m.styles.Detail.Render(" ➜ " + n.LastLine)
	}

	return details
}

func (m *Model) renderSummary() string {
	counts := m.Counts()

	parts := []string{
		m.styles.Running.Render(fmt.Sprintf("%d running", counts[StatusRunning])),
		m.styles.Success.Render(fmt.Sprintf("%d succeeded", counts[StatusSuccess])),
		m.styles.Failed.Render(fmt.Sprintf("%d failed", counts[StatusFailed])),
		m.styles.Skipped.Render(fmt.Sprintf("%d skipped", counts[StatusSkipped])),
	}

	return strings.Join(parts, m.styles.Branch.Render(" · "))
}

func (m *Model) icon(s Status) string {
	switch s {
	case StatusRunning:
		return m.spinner.View()
	case StatusSuccess:
		return m.styles.Success.Render("✓")
	case StatusFailed:
		return m.styles.Failed.Render("✗")
	case StatusSkipped:
		return m.styles.Skipped.Render("-")
	default:
		return m.styles.Pending.Render("·")
	}
}

func (m *Model) style(s Status) lipgloss.Style {
	switch s {
	case StatusRunning:
		return m.styles.Running
	case StatusSuccess:
		return m.styles.Success
	case StatusFailed:
		return m.styles.Failed
	case StatusSkipped:
		return m.styles.Skipped
	default:
		return m.styles.Pending
	}
}
