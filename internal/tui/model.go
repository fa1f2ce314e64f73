// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/crashdump/internal/progress"
)

// Status is the state of a node in the tree.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusSuccess
	StatusFailed
	StatusSkipped
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Node is an addon, an action or a single invocation target.
// Only leaves receive events, the state of inner nodes is derived from their children.
type Node struct {
	Path     []string
	Name     string
	Status   Status
	Start    time.Time
	End      time.Time
	LastLine string
	ErrorMsg string
	Children []*Node
}

func newNode(path []string) *Node {
	n := &Node{Path: append([]string(nil), path...)}
	if len(path) > 0 {
		n.Name = path[len(path)-1]
	}

	return n
}

// State returns the status of a leaf, or the combined status of the children.
// A parent is running while any child is, failed when any child failed and
// skipped only when all of its children were skipped.
func (n *Node) State() Status {
	if len(n.Children) == 0 {
		return n.Status
	}

	var running, pending, failed, skipped int

	for _, c := range n.Children {
		switch c.State() {
		case StatusRunning:
			running++
		case StatusPending:
			pending++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}

	switch {
	case running > 0:
		return StatusRunning
	case pending > 0:
		return StatusPending
	case failed > 0:
		return StatusFailed
	case skipped == len(n.Children):
		return StatusSkipped
	default:
		return StatusSuccess
	}
}

// Styles contains the styling of the view.
type Styles struct {
	Title   lipgloss.Style
	Pending lipgloss.Style
	Running lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style
	Skipped lipgloss.Style
	Detail  lipgloss.Style
	Error   lipgloss.Style
	Branch  lipgloss.Style
	Help    lipgloss.Style
}

// NewStyles creates the default styling.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Skipped: lipgloss.NewStyle().
			Foreground(lipgloss.Color("3")),
		Detail: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Branch: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
	}
}

// Model is the state of the view.
type Model struct {
	title     string
	interrupt context.CancelFunc
	root      *Node
	nodes     map[string]*Node
	styles    *Styles
	spinner   spinner.Model
	viewport  viewport.Model
	height    int
	done      bool
	quitting  bool
}

// NewModel creates a model titled with the run identifier.
// interrupt, if not nil, is called when the user presses ctrl+c.
func NewModel(title string, interrupt context.CancelFunc) *Model {
	styles := NewStyles()

	return &Model{
		title:     title,
		interrupt: interrupt,
		root:      newNode(nil),
		nodes:     make(map[string]*Node),
		styles:    styles,
		spinner:   spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(styles.Running)),
		viewport:  viewport.New(0, 0),
	}
}

// Root returns the invisible root of the tree, its children are the addons.
func (m *Model) Root() *Node {
	return m.root
}

// Done reports whether the run has finished.
func (m *Model) Done() bool {
	return m.done
}

// node returns the node at path, creating it and any missing parents.
func (m *Model) node(path []string) *Node {
	key := strings.Join(path, "\x00")
	if n, ok := m.nodes[key]; ok {
		return n
	}

	parent := m.root
	if len(path) > 1 {
		parent = m.node(path[:len(path)-1])
	}

	n := newNode(path)
	m.nodes[key] = n
	parent.Children = append(parent.Children, n)

	return n
}

// apply updates the tree with a progress event.
func (m *Model) apply(ev progress.Event) {
	if len(ev.Path) == 0 {
		return
	}

	n := m.node(ev.Path)

	switch ev.Type {
	case progress.EventStarted:
		n.Status = StatusRunning
		n.Start = ev.Timestamp
	case progress.EventCompleted, progress.EventFailed:
		n.Status = StatusSuccess
		if ev.Type == progress.EventFailed {
			n.Status = StatusFailed
		}

		n.End = ev.Timestamp
		if n.Start.IsZero() {
			n.Start = ev.Timestamp.Add(-ev.Data.Duration)
		}

		n.LastLine = ev.Data.LastLine
		if ev.Data.Error != nil {
			n.ErrorMsg = ev.Data.Error.Error()
		}
	case progress.EventSkipped:
		n.Status = StatusSkipped
		if ev.Data.Error != nil {
			n.ErrorMsg = ev.Data.Error.Error()
		}
	}
}

// Counts returns the number of invocations in each state.
func (m *Model) Counts() map[Status]int {
	counts := make(map[Status]int)

	var walk func(n *Node)

	walk = func(n *Node) {
		if len(n.Children) == 0 {
			counts[n.Status]++
			return
		}

		for _, c := range n.Children {
			walk(c)
		}
	}

	for _, c := range m.root.Children {
		walk(c)
	}

	return counts
}
