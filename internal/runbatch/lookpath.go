// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const executableBits = 0o111

// ErrCommandNotFound is returned when an executable cannot be found in PATH.
var ErrCommandNotFound = errors.New("command not found")

// lookPath resolves the executable name against PATH.
// Names containing a path separator are only checked for existence.
func lookPath(name string) (string, error) {
	if name == "" {
		return "", ErrCommandNotFound
	}

	if strings.ContainsRune(name, os.PathSeparator) {
		if isExecutable(name) {
			return name, nil
		}

		return "", fmt.Errorf("%w: %s", ErrCommandNotFound, name)
	}

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			dir = "."
		}

		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrCommandNotFound, name)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	return info.Mode()&executableBits != 0
}
