// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package addon runs diagnostic addons: named, ordered lists of actions executed against
// the machines and units of a model.
//
// Every action kind is bound to one strategy:
//
//   - local runs a command on the control host in a scratch directory and pushes the files
//     it produced to every machine.
//   - local-per-unit pipes the output of a local command, run once per machine or unit,
//     into a file in the addon output directory of that target.
//   - remote runs a command on every machine from the addon push location.
//
// Actions run strictly in order. The first failing action halts the addon and the
// remaining actions are reported as skipped.
package addon
