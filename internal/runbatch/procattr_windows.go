// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build windows

package runbatch

import (
	"os"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}

func killProcessTree(ps *os.Process) error {
	return ps.Kill() //nolint:wrapcheck
}

// terminatedBySignal cannot tell a kill from a failing exit on Windows, any failure counts.
func terminatedBySignal(state *os.ProcessState) bool {
	return !state.Success()
}
