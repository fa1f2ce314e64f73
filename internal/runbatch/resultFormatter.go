// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/matt-FFFFFF/crashdump/internal/color"
)

// durationRounding is the precision used when durations are displayed.
const durationRounding = time.Millisecond

// OutputOptions controls what is included in the output.
type OutputOptions struct {
	IncludeStdOut      bool // Whether to include stdout in the output
	IncludeStdErr      bool // Whether to include stderr in the output
	ShowSuccessDetails bool // Whether to show details for successful invocations
	ShowCommands       bool // Whether to show the concrete command and duration of each invocation
}

// DefaultOutputOptions returns a default set of output options.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{
		IncludeStdOut:      false,
		IncludeStdErr:      true,
		ShowSuccessDetails: false,
	}
}

// WriteResults writes the results as an indented tree to the provided writer.
func WriteResults(w io.Writer, results Results, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	for _, r := range results {
		if err := writeResultWithIndent(w, r, "", options); err != nil {
			return err
		}
	}

	return nil
}

func writeResultWithIndent(w io.Writer, r *Result, indent string, options *OutputOptions) error {
	if r == nil {
		return nil
	}

	var statusStr, labelPrefix string

	switch r.Status {
	case ResultStatusSkipped:
		statusStr = color.Colorize("~", color.FgYellow)
		labelPrefix = color.ControlString(color.Bold, color.FgYellow)
	case ResultStatusError:
		statusStr = color.Colorize("✗", color.FgRed)
		labelPrefix = color.ControlString(color.Bold, color.FgRed)
	case ResultStatusSuccess:
		statusStr = color.Colorize("✓", color.FgGreen)
		labelPrefix = color.ControlString(color.Bold, color.FgGreen)
	default:
		statusStr = color.Colorize("?", color.FgWhite)
	}

	label := r.Label
	if label == "" {
		label = "[unnamed]"
	}

	if _, err := fmt.Fprintf(w, "%s%s %s%s%s", indent, statusStr, labelPrefix, label, color.ControlString(color.Reset)); err != nil {
		return err //nolint:wrapcheck
	}

	if r.ExitCode != 0 {
		fmt.Fprintf(w, " (exit code: %d)", r.ExitCode) // nolint:errcheck
	}

	fmt.Fprintln(w) // nolint:errcheck

	if options.ShowCommands && r.Command != "" {
		fmt.Fprintf(w, "%s  ➜ Command: %s [%s]\n", indent, r.Command, r.Duration.Round(durationRounding)) // nolint:errcheck
	}

	if r.Error != nil && !errors.Is(r.Error, ErrResultChildrenHasError) {
		var errColor color.Code

		switch r.Status {
		case ResultStatusSkipped:
			errColor = color.FgYellow
		case ResultStatusError:
			errColor = color.FgRed
		default:
			errColor = color.FgWhite
		}

		fmt.Fprintf( // nolint:errcheck
			w,
			"%s  %s %s\n",
			indent,
			color.Colorize("➜ Error:", errColor),
			color.Colorize(r.Error.Error(), errColor),
		)
	}

	// Only leaves carry process output.
	shouldShowDetails := (r.Status == ResultStatusError || options.ShowSuccessDetails) && len(r.Children) == 0

	if shouldShowDetails && options.IncludeStdOut && len(r.StdOut) > 0 {
		fmt.Fprintf(w, "%s  ➜ Output:\n", indent)                    // nolint:errcheck
		fmt.Fprintf(w, "%s", formatOutput(r.StdOut, indent+"     ")) // nolint:errcheck
	}

	if shouldShowDetails && options.IncludeStdErr && len(r.StdErr) > 0 {
		fmt.Fprintf(w, "%s  %s\n", indent, color.Colorize("➜ Error Output:", color.FgHiRed)) // nolint:errcheck
		fmt.Fprintf(w, "%s", formatOutput(r.StdErr, indent+"     "))                         // nolint:errcheck
	}

	childIndent := indent + "  "
	for _, child := range r.Children {
		if err := writeResultWithIndent(w, child, childIndent, options); err != nil {
			return err
		}
	}

	return nil
}

// formatOutput formats multi-line output with proper indentation.
func formatOutput(output []byte, indent string) string {
	sb := strings.Builder{}
	lines := strings.Split(string(output), "\n")
	sb.Grow(len(output) + len(lines)*len(indent))

	for _, line := range lines {
		if line == "" {
			sb.WriteString("\n")
			continue
		}

		sb.WriteString(indent)
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}
