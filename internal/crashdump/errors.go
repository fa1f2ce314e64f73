// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package crashdump

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAddonNotDefined is returned when a selected addon is not defined in any addon file.
	ErrAddonNotDefined = errors.New("addon not defined")
	// ErrLoadAddons is returned when the addon files cannot be loaded.
	ErrLoadAddons = errors.New("failed to load addons")
	// ErrNoMachines is returned when a run has no machine to work on.
	ErrNoMachines = errors.New("no machines given")
	// ErrScratch is set on an addon result when its scratch directory could not be managed.
	ErrScratch = errors.New("scratch directory error")
)

// AddonNotDefinedError names the missing addon and the files that were searched.
type AddonNotDefinedError struct {
	Name    string
	Sources []string
}

// Error implements the error interface.
func (e *AddonNotDefinedError) Error() string {
	return fmt.Sprintf("the addon files %q do not define %s", strings.Join(e.Sources, ", "), e.Name)
}

// Unwrap makes the error match ErrAddonNotDefined.
func (e *AddonNotDefinedError) Unwrap() error {
	return ErrAddonNotDefined
}
