// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color decorates result trees and log records with ANSI codes.
// Colour is on when stdout is a terminal, NO_COLOR turns it off and FORCE_COLOR turns it
// on regardless. The --no-color flag calls SetEnabled to turn it off for the whole run.
package color
