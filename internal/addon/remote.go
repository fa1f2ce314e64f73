// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package addon

import (
	"context"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/matt-FFFFFF/crashdump/internal/runbatch"
)

type remoteStrategy struct{}

var _ Strategy = remoteStrategy{}

// Validate implements Strategy.
// Only the path placeholders may be used, the command runs on machines only.
func (remoteStrategy) Validate(command string) error {
	if strings.TrimSpace(command) == "" {
		return ErrEmptyCommand
	}

	fields, err := templateFields(command)
	if err != nil {
		return err
	}

	if len(fields) == 0 {
		// The second pass sees what the first one unescaped.
		once, err := runbatch.Format(command, Paths{}.Fields())
		if err != nil {
			return err //nolint:wrapcheck
		}

		if fields, err = templateFields(once); err != nil {
			return err
		}
	}

	if len(fields) > 0 {
		return fmt.Errorf("%w: %v, only {%s} and {%s} are available", ErrInvalidRemoteFields, fields, LocationField, OutputField)
	}

	return nil
}

// Run implements Strategy.
// The template is formatted twice with the path fields, so that braces doubled twice reach the
// remote shell as literal braces, then run from the push location of every machine.
func (remoteStrategy) Run(ctx context.Context, env *Env, a *Addon, act Action) (*runbatch.Result, error) {
	label := a.label(act)
	fields := env.Paths.Fields()

	once, err := runbatch.Format(act.Command, fields)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	twice, err := runbatch.Format(once, fields)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	remote := fmt.Sprintf("cd %s; %s", shellquote.Join(env.Paths.Location), twice)
	template := env.Transport.Exec(placeholder(runbatch.MachineField), runbatch.Escape(remote))

	results, err := env.Runner.Run(ctx, template, env.Machines, runbatch.WithLabel(label))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return env.Policy.aggregate(label, results), nil
}

func placeholder(field string) string {
	return "{" + field + "}"
}
