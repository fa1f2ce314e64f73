// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package addon

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/matt-FFFFFF/crashdump/internal/runbatch"
)

type perUnitStrategy struct{}

var _ Strategy = perUnitStrategy{}

// Validate implements Strategy.
func (perUnitStrategy) Validate(command string) error {
	if strings.TrimSpace(command) == "" {
		return ErrEmptyCommand
	}

	_, err := perUnitField(command)

	return err
}

// Run implements Strategy.
// The command is run once per machine or unit, as chosen by its placeholder, and its output is
// piped to a file named after the target in the addon directory of the pull location.
func (perUnitStrategy) Run(ctx context.Context, env *Env, a *Addon, act Action) (*runbatch.Result, error) {
	label := a.label(act)

	field, err := perUnitField(act.Command)
	if err != nil {
		return nil, err
	}

	targets := env.Machines
	if field == runbatch.UnitField {
		targets = env.Units
	}

	dir := runbatch.Escape(shellquote.Join(path.Join(env.Paths.Output, a.Name)))
	remote := fmt.Sprintf("mkdir -p %s; cat > %s/$(echo %s | tr / _)", dir, dir, placeholder(field))
	template := act.Command + " | " + env.Transport.Exec(placeholder(field), remote)

	contexts := make([]runbatch.Context, 0, len(targets))
	for _, c := range targets {
		contexts = append(contexts, c.With(env.Paths.Fields()))
	}

	results, err := env.Runner.Run(ctx, template, contexts, runbatch.WithShell(), runbatch.WithLabel(label))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return env.Policy.aggregate(label, results), nil
}

// perUnitField returns the single target placeholder of a local-per-unit template.
// Path placeholders are allowed alongside it.
func perUnitField(command string) (string, error) {
	fields, err := templateFields(command)
	if err != nil {
		return "", err
	}

	if len(fields) != 1 || (fields[0] != runbatch.MachineField && fields[0] != runbatch.UnitField) {
		return "", fmt.Errorf("%w: %v, exactly one of {%s} or {%s} is required",
			ErrInvalidPerUnitFields, fields, runbatch.MachineField, runbatch.UnitField)
	}

	return fields[0], nil
}
