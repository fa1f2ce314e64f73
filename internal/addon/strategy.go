// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package addon

import (
	"context"
	"strings"

	"github.com/matt-FFFFFF/crashdump/internal/runbatch"
)

// Strategy executes one kind of action.
type Strategy interface {
	// Validate checks the command template without running anything.
	Validate(command string) error
	// Run executes the action. The returned result has an error status when the action failed
	// and the addon must halt. A returned error is a configuration problem.
	Run(ctx context.Context, env *Env, a *Addon, act Action) (*runbatch.Result, error)
}

var strategies = map[ActionKind]Strategy{
	KindLocal:        localStrategy{},
	KindLocalPerUnit: perUnitStrategy{},
	KindRemote:       remoteStrategy{},
}

// StrategyFor returns the strategy bound to the kind.
func StrategyFor(kind ActionKind) (Strategy, bool) {
	s, ok := strategies[kind]
	return s, ok
}

// ContainsSudo reports whether the command mentions sudo anywhere.
func ContainsSudo(command string) bool {
	return strings.Contains(command, "sudo")
}

// templateFields returns the placeholders of the template that are not path fields.
func templateFields(command string) ([]string, error) {
	names, err := runbatch.Fields(command)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	out := names[:0]

	for _, n := range names {
		if n != LocationField && n != OutputField {
			out = append(out, n)
		}
	}

	return out, nil
}
