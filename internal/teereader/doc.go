// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package teereader provides a bounded reader wrapper that captures process output
// and remembers the last complete line, which is logged when an invocation fails.
package teereader
