// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress provides real-time progress events for invocations.
// The batch runner emits an event when an invocation starts and when it is reaped,
// listeners such as the CLI log them as they arrive.
package progress
