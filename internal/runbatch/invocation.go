// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kballard/go-shellquote"
)

// ShellPath is the interpreter used for invocations that need shell features such as pipes.
const ShellPath = "/bin/sh"

// ErrTokenize is returned when a command cannot be split into an argument vector.
var ErrTokenize = errors.New("failed to tokenize command")

// Invocation is one concrete command bound to a target, ready to be started.
type Invocation struct {
	Label   string        // Label used in logs and results
	Target  string        // Machine or unit identifier, empty for local invocations
	Command string        // The command line as written
	Args    []string      // Argument vector, including the executable
	Shell   bool          // Whether Args invokes the shell with Command
	Cwd     string        // Working directory, empty for the current directory
	Timeout time.Duration // Per-invocation timeout, zero for none
}

// NewInvocation builds an invocation for the command line.
// Unless shell is set, the command is split into words using POSIX shell quoting rules.
func NewInvocation(label, target, command string, shell bool, timeout time.Duration) (Invocation, error) {
	inv := Invocation{
		Label:   label,
		Target:  target,
		Command: command,
		Shell:   shell,
		Timeout: timeout,
	}

	if shell {
		inv.Args = []string{ShellPath, "-c", command}
		return inv, nil
	}

	args, err := shellquote.Split(command)
	if err != nil {
		return Invocation{}, fmt.Errorf("%w: %q: %w", ErrTokenize, command, err)
	}

	if len(args) == 0 {
		return Invocation{}, fmt.Errorf("%w: %q: empty command", ErrTokenize, command)
	}

	inv.Args = args

	return inv, nil
}

// Launcher starts invocations.
type Launcher interface {
	// Start begins the invocation and returns immediately.
	// Failures to start are reported by the returned Process.
	Start(ctx context.Context, inv Invocation) Process
}

// Process is a started invocation.
type Process interface {
	// Wait blocks until the invocation has terminated and returns its result.
	// It must be called exactly once.
	Wait() *Result
}

// finishedProcess is a Process whose result is already known, e.g. it failed to start.
type finishedProcess struct {
	res *Result
}

func (p finishedProcess) Wait() *Result {
	return p.res
}
