// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger in a context.Context.
//
// Every logger built here shares LevelVar, which starts from CRASHDUMP_LOG_LEVEL and is
// changed by the --log-level flag. Records go to a pretty console handler by default,
// or to JSON lines with --log-format json.
package ctxlog
