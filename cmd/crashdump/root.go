// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/crashdump/cmd/crashdump/collect"
	"github.com/matt-FFFFFF/crashdump/cmd/crashdump/list"
	"github.com/matt-FFFFFF/crashdump/cmd/crashdump/show"
	"github.com/matt-FFFFFF/crashdump/internal/color"
	"github.com/matt-FFFFFF/crashdump/internal/ctxlog"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v3"
)

const (
	logLevelFlag  = "log-level"
	logFormatFlag = "log-format"
	noColorFlag   = "no-color"

	logFormatPretty = "pretty"
	logFormatJSON   = "json"
)

// rootCmd returns the root command for the CLI.
func rootCmd() *cli.Command {
	return &cli.Command{
		Commands: []*cli.Command{
			collect.NewCommand(),
			list.NewCommand(),
			show.NewCommand(),
		},
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Name:      "crashdump",
		Description: `crashdump runs diagnostic addons against the machines and units of a Juju model.
Each addon is an ordered list of actions: local commands whose files are pushed to every machine,
local commands run once per machine or unit whose output is stored remotely, and remote commands.
The collected output is left in a per-run directory on every machine, which is printed on exit.`,
		Usage:     "crashdump collect -a juju-show-unit -m 0 -m 1 -u mysql/0",
		Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
		Authors: []any{
			"Matt White (matt-FFFFFF)",
		},
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    logLevelFlag,
				Usage:   "Set the log level: DEBUG, INFO, WARN or ERROR",
				Sources: cli.EnvVars(ctxlog.LogLevelEnvVar),
			},
			&cli.StringFlag{
				Name:  logFormatFlag,
				Usage: "Set the log format: pretty or json",
				Value: logFormatPretty,
			},
			&cli.BoolFlag{
				Name:  noColorFlag,
				Usage: "Disable coloured output, also disabled by setting NO_COLOR",
			},
		},
		Before: before,
	}
}

// before configures logging and colour from the global flags.
func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool(noColorFlag) {
		color.SetEnabled(false)
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	if s := cmd.String(logLevelFlag); s != "" {
		level, err := ctxlog.ParseLevel(s)
		if err != nil {
			return ctx, err //nolint:wrapcheck
		}

		ctxlog.LevelVar.Set(level)
	}

	switch cmd.String(logFormatFlag) {
	case logFormatJSON:
		return ctxlog.New(ctx, ctxlog.NewJSONLogger(cmd.Root().ErrWriter)), nil
	case logFormatPretty, "":
		handler := ctxlog.NewPrettyHandler(&slog.HandlerOptions{Level: ctxlog.LevelVar},
			ctxlog.WithAutoColour(),
			ctxlog.WithDestinationWriter(cmd.Root().ErrWriter),
		)

		return ctxlog.New(ctx, slog.New(handler)), nil
	default:
		return ctx, fmt.Errorf("unknown log format %q, expected %s or %s", cmd.String(logFormatFlag), logFormatPretty, logFormatJSON)
	}
}
