// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package crashdump runs the selected addons of a crash dump against a set of machines and units.
//
// A run loads the addon files, checks that every selected addon is defined, prepares the push and
// pull directories on every machine and then runs each addon in order, each in its own local
// scratch directory. Only configuration problems are returned as errors, execution failures are
// part of the returned Report.
package crashdump
