// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndLogger(t *testing.T) {
	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	assert.Same(t, custom, Logger(New(context.Background(), custom)))
	assert.Same(t, DefaultLogger, Logger(New(context.Background(), nil)))
	assert.Same(t, DefaultLogger, Logger(context.Background()))
	assert.Same(t, DefaultLogger, Logger(context.WithValue(context.Background(), loggerKey{}, "not a logger")))
}

func TestLoggingFunctions(t *testing.T) {
	var buf bytes.Buffer

	ctx := New(context.Background(), slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	tests := []struct {
		name    string
		logFunc func(context.Context, string, ...any)
		level   string
	}{
		{name: "debug", logFunc: Debug, level: "DEBUG"},
		{name: "info", logFunc: Info, level: "INFO"},
		{name: "warn", logFunc: Warn, level: "WARN"},
		{name: "error", logFunc: Error, level: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc(ctx, "collecting", "addon", "juju-logs")

			assert.Contains(t, buf.String(), "level="+tt.level)
			assert.Contains(t, buf.String(), "msg=collecting")
			assert.Contains(t, buf.String(), "addon=juju-logs")
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "DEBUG", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "Warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "ERROR", want: slog.LevelError},
		{in: "", want: slog.LevelWarn, wantErr: true},
		{in: "verbose", want: slog.LevelWarn, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "DEBUG")
	assert.Equal(t, slog.LevelDebug, logLevelFromEnv())

	t.Setenv(LogLevelEnvVar, "")
	assert.Equal(t, slog.LevelWarn, logLevelFromEnv())
}

func TestNewJSONLogger(t *testing.T) {
	prev := LevelVar.Level()
	defer LevelVar.Set(prev)

	LevelVar.Set(slog.LevelInfo)

	var buf bytes.Buffer

	logger := NewJSONLogger(&buf)
	logger.Debug("hidden")
	logger.Info("shown", "machine", "0")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"machine":"0"`)
}

func TestNewForTUI(t *testing.T) {
	prev := LevelVar.Level()
	defer LevelVar.Set(prev)

	LevelVar.Set(slog.LevelInfo)

	var buf bytes.Buffer

	ctx := NewForTUI(context.Background(), &buf)
	Info(ctx, "collection finished")
	Debug(ctx, "hidden")

	assert.Contains(t, buf.String(), "INFO: collection finished")
	assert.NotContains(t, buf.String(), "hidden")
	assert.NotContains(t, buf.String(), "\x1b[", "buffered logs are not coloured")
}
