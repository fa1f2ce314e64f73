// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a live terminal view of a collection run. It draws a
// tree of addons, their actions and the targets each action runs on, with the
// state and last output line of every invocation.
//
// The view is fed by progress events and is only an observer: quitting it
// leaves the run going, except for ctrl+c which also interrupts the run.
package tui
