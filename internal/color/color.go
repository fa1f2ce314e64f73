// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

const (
	// NoColor is the environment variable that disables color output.
	NoColor = "NO_COLOR"
	// ForceColor is the environment variable that forces color output.
	ForceColor = "FORCE_COLOR"

	csi   = "\033["
	reset = csi + "0m"
)

// Code is an SGR parameter, e.g. a text attribute or a color.
type Code int

// Text attributes.
const (
	Reset  Code = 0
	Bold   Code = 1
	Faint  Code = 2
	Italic Code = 3
)

// Foreground colors.
const (
	FgBlack Code = iota + 30
	FgRed
	FgGreen
	FgYellow
	FgBlue
	FgMagenta
	FgCyan
	FgWhite
)

// Foreground hi-intensity colors.
const (
	FgHiBlack Code = iota + 90
	FgHiRed
	FgHiGreen
	FgHiYellow
	FgHiBlue
	FgHiMagenta
	FgHiCyan
	FgHiWhite
)

var enabled = isColorEnabled()

// ControlString returns the escape sequence selecting the codes,
// or an empty string when color output is disabled.
func ControlString(codes ...Code) string {
	if !enabled {
		return ""
	}

	return sequence(codes)
}

// Colorize wraps str in the codes and a trailing reset when color output is enabled.
func Colorize(str string, codes ...Code) string {
	if !enabled {
		return str
	}

	return Paint(str, codes...)
}

// Paint wraps str in the codes whether or not color output is enabled.
// Log handlers that decide on color per destination use it.
func Paint(str string, codes ...Code) string {
	return sequence(codes) + str + reset
}

// Enabled reports whether color output is enabled. Unless overridden by SetEnabled,
// NO_COLOR disables it, FORCE_COLOR enables it and otherwise it follows whether
// stdout is a terminal.
func Enabled() bool {
	return enabled
}

// SetEnabled overrides the detected setting, e.g. from a command line flag.
func SetEnabled(v bool) {
	enabled = v
}

func sequence(codes []Code) string {
	params := make([]string, len(codes))
	for i, c := range codes {
		params[i] = strconv.Itoa(int(c))
	}

	return csi + strings.Join(params, ";") + "m"
}

func isColorEnabled() bool {
	if os.Getenv(NoColor) != "" {
		return false
	}

	if os.Getenv(ForceColor) != "" {
		return true
	}

	return term.IsTerminal(int(os.Stdout.Fd()))
}
