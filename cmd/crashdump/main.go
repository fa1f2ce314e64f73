// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the crashdump command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/crashdump"
	"github.com/matt-FFFFFF/crashdump/internal/ctxlog"
	"github.com/matt-FFFFFF/crashdump/internal/signalbroker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)

	sigCh, stop := signalbroker.New(ctx)

	go signalbroker.Watch(ctx, sigCh, cancel)

	cmd := rootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s)", crashdump.Version, crashdump.Commit)

	err := cmd.Run(ctx, os.Args) // Err is handled by cli framework

	stop()

	// Check if the context was cancelled (e.g., due to signals)
	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1)
	}

	cancel()

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}

	ctxlog.Logger(ctx).Info("command completed successfully")
}
