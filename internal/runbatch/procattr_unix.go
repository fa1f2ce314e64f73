// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package runbatch

import (
	"errors"
	"os"
	"syscall"
)

// sysProcAttr starts each invocation in its own process group so that a timeout
// also reaches helpers it spawned (ssh, scp).
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func killProcessTree(ps *os.Process) error {
	err := syscall.Kill(-ps.Pid, syscall.SIGKILL)
	if err == nil || errors.Is(err, syscall.ESRCH) {
		return ps.Kill() //nolint:wrapcheck
	}

	return err //nolint:wrapcheck
}

func terminatedBySignal(state *os.ProcessState) bool {
	ws, ok := state.Sys().(syscall.WaitStatus)
	return ok && ws.Signaled()
}
