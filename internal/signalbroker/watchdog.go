// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/crashdump/internal/ctxlog"
)

// Watch monitors the signal channel until ctx is done.
// It cancels the run on the second signal of a given type, in-flight invocations are then
// killed and the ones not yet submitted are skipped.
func Watch(ctx context.Context, sigCh <-chan os.Signal, cancel context.CancelFunc) {
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				ctxlog.Warn(ctx, "watchdog", "detail", "received second signal of type, cancelling collection", "signal", sig.String())
				cancel()

				return
			}

			ctxlog.Warn(ctx, "watchdog", "detail", "received signal, send again to cancel the collection", "signal", sig.String())

			seen[sig] = struct{}{}
		}
	}
}
