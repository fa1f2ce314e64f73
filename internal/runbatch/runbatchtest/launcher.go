// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatchtest provides a recording runbatch.Launcher for tests of code built on the runner.
package runbatchtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matt-FFFFFF/crashdump/internal/runbatch"
)

var _ runbatch.Launcher = (*Launcher)(nil)

// Launcher records every invocation it is asked to start and completes it without running anything.
type Launcher struct {
	// ExitCode returns the exit code of the invocation, nil means every invocation succeeds.
	ExitCode func(inv runbatch.Invocation) int
	// Delay is how long every fake invocation takes.
	Delay time.Duration
	// Local, when set, really runs invocations that have no target (local commands).
	Local runbatch.Launcher

	mu          sync.Mutex
	started     []runbatch.Invocation
	inFlight    int
	maxInFlight int
}

// Start implements runbatch.Launcher.
func (l *Launcher) Start(ctx context.Context, inv runbatch.Invocation) runbatch.Process {
	l.mu.Lock()
	l.started = append(l.started, inv)
	l.mu.Unlock()

	if l.Local != nil && inv.Target == "" {
		return l.Local.Start(ctx, inv)
	}

	l.mu.Lock()
	l.inFlight++
	l.maxInFlight = max(l.maxInFlight, l.inFlight)
	l.mu.Unlock()

	exitCode := 0
	if l.ExitCode != nil {
		exitCode = l.ExitCode(inv)
	}

	p := &process{done: make(chan struct{}), res: &runbatch.Result{
		Label:    inv.Label,
		Target:   inv.Target,
		Command:  inv.Command,
		ExitCode: exitCode,
		Status:   runbatch.ResultStatusSuccess,
	}}

	if exitCode != 0 {
		p.res.Status = runbatch.ResultStatusError
		p.res.Error = fmt.Errorf("exit status %d", exitCode)
	}

	go func() {
		defer close(p.done)

		if l.Delay > 0 {
			time.Sleep(l.Delay)
		}

		l.mu.Lock()
		l.inFlight--
		l.mu.Unlock()
	}()

	return p
}

// Started returns the invocations started so far, in start order.
func (l *Launcher) Started() []runbatch.Invocation {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]runbatch.Invocation(nil), l.started...)
}

// Commands returns the command lines started so far, in start order.
func (l *Launcher) Commands() []string {
	started := l.Started()

	cmds := make([]string, 0, len(started))
	for _, inv := range started {
		cmds = append(cmds, inv.Command)
	}

	return cmds
}

// MaxInFlight returns the highest number of fake invocations that were running at once.
func (l *Launcher) MaxInFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.maxInFlight
}

type process struct {
	done chan struct{}
	res  *runbatch.Result
}

func (p *process) Wait() *runbatch.Result {
	<-p.done
	return p.res
}
