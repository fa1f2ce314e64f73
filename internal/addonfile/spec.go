// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package addonfile

import (
	"errors"
	"path"
	"strings"

	"github.com/matt-FFFFFF/crashdump/internal/addon"
)

// ErrInvalidAddonFile is returned when an addon file does not have the expected structure.
var ErrInvalidAddonFile = errors.New("invalid addon file")

const (
	extHCL = ".hcl"
)

// Spec is an addon as written in a file, before validation.
type Spec struct {
	Name    string
	Actions []addon.ActionSpec // In file order
	Source  string
}

// NeedsRoot reports whether the addon may only be loaded with root authorization.
func (s Spec) NeedsRoot() bool {
	for _, a := range s.Actions {
		if addon.NeedsRoot(a.Name) || addon.ContainsSudo(a.Command) {
			return true
		}
	}

	return false
}

// Parse reads the addon definitions in data. HCL is used when the source ends in .hcl,
// YAML otherwise. Query strings of go-getter URLs are ignored when choosing.
func Parse(source string, data []byte) ([]Spec, error) {
	if isHCL(source) {
		return parseHCL(source, data)
	}

	return parseYAML(source, data)
}

func isHCL(source string) bool {
	if i := strings.IndexByte(source, '?'); i >= 0 {
		source = source[:i]
	}

	return strings.EqualFold(path.Ext(source), extHCL)
}
