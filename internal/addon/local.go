// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package addon

import (
	"context"
	"errors"
	"strings"

	"github.com/matt-FFFFFF/crashdump/internal/ctxlog"
	"github.com/matt-FFFFFF/crashdump/internal/runbatch"
	"github.com/matt-FFFFFF/crashdump/internal/scratch"
)

// ErrListWorkdir is set on a local action result when the produced files cannot be listed.
var ErrListWorkdir = errors.New("failed to list local working directory")

type localStrategy struct{}

var _ Strategy = localStrategy{}

// Validate implements Strategy.
// The local command is run by the shell as written, it is not a template.
func (localStrategy) Validate(command string) error {
	if strings.TrimSpace(command) == "" {
		return ErrEmptyCommand
	}

	return nil
}

// Run implements Strategy.
// The command runs in env.Workdir. When it succeeds every entry of the directory is copied
// to the push location of every machine.
func (localStrategy) Run(ctx context.Context, env *Env, a *Addon, act Action) (*runbatch.Result, error) {
	label := a.label(act)
	logger := ctxlog.Logger(ctx).With("addon", a.Name, "action", act.Name)

	inv, err := runbatch.NewInvocation(label, "", act.Command, true, env.LocalTimeout)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	inv.Cwd = env.Workdir

	local := env.Runner.Exec(ctx, inv)
	if !local.Succeeded() {
		logger.Warn("local command failed", "command", act.Command, "exitCode", local.ExitCode, "error", local.Error)
		return runbatch.Group(label, runbatch.Results{local}), nil
	}

	files, err := scratch.List(env.Workdir)
	if err != nil {
		logger.Warn("cannot list local files", "dir", env.Workdir, "error", err)

		res := runbatch.Group(label, runbatch.Results{local})
		res.Status = runbatch.ResultStatusError
		res.Error = errors.Join(ErrListWorkdir, err)

		return res, nil
	}

	if len(files) == 0 {
		logger.Debug("local command produced no files, nothing to copy")
		return runbatch.Group(label, runbatch.Results{local}), nil
	}

	copyTemplate := env.Transport.Copy(files, placeholder(runbatch.MachineField), env.Paths.Location)

	copies, err := env.Runner.Run(ctx, copyTemplate, env.Machines, runbatch.WithLabel(label+"/copy"))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if copies.HasError() {
		logger.Warn("copying local files failed on some machines", "failed", len(copies.Failed()), "policy", env.Policy)
	}

	return runbatch.Group(label, runbatch.Results{
		local,
		env.Policy.aggregate(label+"/copy", copies),
	}), nil
}
