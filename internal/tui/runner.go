// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/crashdump/internal/progress"
)

var _ progress.Listener = (*Runner)(nil)

// Runner drives the tea program and forwards progress events to it.
type Runner struct {
	program *tea.Program
	done    chan error
}

// NewRunner creates a runner for the run titled title.
// interrupt is called when the user presses ctrl+c.
func NewRunner(title string, interrupt context.CancelFunc, opts ...tea.ProgramOption) *Runner {
	return &Runner{
		program: tea.NewProgram(NewModel(title, interrupt), opts...),
		done:    make(chan error, 1),
	}
}

// Start runs the program in a new goroutine.
func (r *Runner) Start() {
	go func() {
		_, err := r.program.Run()
		r.done <- err
	}()
}

// OnEvent implements progress.Listener.
// Once the program has exited events are discarded.
func (r *Runner) OnEvent(ev progress.Event) {
	r.program.Send(EventMsg{Event: ev})
}

// Finish tells the program the run is over and waits for it to draw the final tree and exit.
func (r *Runner) Finish() error {
	r.program.Send(DoneMsg{})
	return <-r.done
}
