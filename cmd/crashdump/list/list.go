// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package list implements the list command, which prints the addons defined in addon files.
package list

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/crashdump/internal/addonfile"
	"github.com/matt-FFFFFF/crashdump/internal/color"
	"github.com/urfave/cli/v3"
)

const (
	fileFlag   = "file"
	formatFlag = "format"

	formatText = "text"
	formatYAML = "yaml"
)

// ErrUnknownFormat is returned when the output format is not supported.
var ErrUnknownFormat = errors.New("unknown output format")

// newLoader creates the addon file loader, replaced in tests.
var newLoader = addonfile.NewLoader

// NewCommand returns the command that lists the addons defined in addon files.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the addons defined in addon files",
		Description: `List every addon defined in the given addon files, in file order.
When no file is given, the addons shipped with crashdump are listed.`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    fileFlag,
				Aliases: []string{"f"},
				Usage:   "Addon file to read. Supports Hashicorp's go-getter syntax.",
				Sources: cli.EnvVars("CRASHDUMP_ADDON_FILES"),
			},
			&cli.StringFlag{
				Name:  formatFlag,
				Usage: "Output format: text or yaml",
				Value: formatText,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	files := cmd.StringSlice(fileFlag)
	if len(files) == 0 {
		files = []string{addonfile.BuiltinSource}
	}

	format := strings.ToLower(cmd.String(formatFlag))
	if format != formatText && format != formatYAML {
		return fmt.Errorf("%w %q, expected %s or %s", ErrUnknownFormat, format, formatText, formatYAML)
	}

	specs, err := newLoader(addonfile.DuplicateOverride).ReadSpecs(ctx, files)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if format == formatYAML {
		return writeYAML(cmd.Root().Writer, specs)
	}

	return writeText(cmd.Root().Writer, specs)
}

func writeText(w io.Writer, specs []addonfile.Spec) error {
	for _, s := range specs {
		line := fmt.Sprintf("%s %s", color.Colorize(s.Name, color.Bold), color.Colorize("("+s.Source+")", color.Faint))
		if s.NeedsRoot() {
			line += " " + color.Colorize("requires --as-root", color.FgYellow)
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err //nolint:wrapcheck
		}

		for _, a := range s.Actions {
			fmt.Fprintf(w, "  %s: %s\n", color.Colorize(a.Name, color.FgCyan), indentLines(a.Command)) //nolint:errcheck
		}
	}

	return nil
}

// writeYAML writes the specs back as an addon file. Later definitions of a name replace earlier ones.
func writeYAML(w io.Writer, specs []addonfile.Spec) error {
	out := yaml.MapSlice{}
	index := make(map[string]int, len(specs))

	for _, s := range specs {
		actions := make(yaml.MapSlice, 0, len(s.Actions))
		for _, a := range s.Actions {
			actions = append(actions, yaml.MapItem{Key: a.Name, Value: a.Command})
		}

		if i, ok := index[s.Name]; ok {
			out[i].Value = actions
			continue
		}

		index[s.Name] = len(out)
		out = append(out, yaml.MapItem{Key: s.Name, Value: actions})
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return err //nolint:wrapcheck
	}

	_, err = w.Write(data)

	return err //nolint:wrapcheck
}

func indentLines(s string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n    ")
}
