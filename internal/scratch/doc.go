// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package scratch provides scoped temporary working directories.
//
// Addons whose local command writes files to be pushed to the machines run inside a
// scratch directory. The directory is removed once the addon has finished, whatever the outcome.
package scratch
