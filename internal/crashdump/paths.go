// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package crashdump

import (
	"path"

	"github.com/matt-FFFFFF/crashdump/internal/addon"
)

const (
	pushDir = "addons"
	pullDir = "addon_output"
)

// Paths returns the remote push and pull locations of a run, /<root>/<id>/addons and
// /<root>/<id>/addon_output.
func Paths(dumpRoot, runID string) addon.Paths {
	base := path.Join("/", dumpRoot, runID)

	return addon.Paths{
		Location: path.Join(base, pushDir),
		Output:   path.Join(base, pullDir),
	}
}
