// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package crashdump

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/matt-FFFFFF/crashdump/internal/addon"
	"github.com/matt-FFFFFF/crashdump/internal/addonfile"
	"github.com/matt-FFFFFF/crashdump/internal/ctxlog"
	"github.com/matt-FFFFFF/crashdump/internal/runbatch"
	"github.com/matt-FFFFFF/crashdump/internal/scratch"
	"github.com/matt-FFFFFF/crashdump/internal/transport"
)

const (
	// DefaultDumpRoot is the remote directory under which run directories are created.
	DefaultDumpRoot = "tmp"
	setupLabel      = "setup"
	scratchPrefix   = "crashdump-"
)

// Options select what a run does.
type Options struct {
	Files        []string      // Addon files, in load order. Empty means the builtin file
	Addons       []string      // Addons to run, in order
	Machines     []string      // Machine identifiers
	Units        []string      // Unit identifiers
	DumpRoot     string        // Remote root directory, defaults to DefaultDumpRoot
	RunID        string        // Unique identifier of the run
	AsRoot       bool          // Allow addons that use sudo or run local commands
	Policy       addon.Policy  // How per-target failures are reported
	LocalTimeout time.Duration // Timeout of local commands, zero for none
	KeepOutput   string        // When set, local working directories are copied here, one per addon
}

// Driver runs crash dumps.
type Driver struct {
	Runner    *runbatch.Runner
	Transport transport.Transport
	Loader    *addonfile.Loader
}

// New returns a driver.
func New(runner *runbatch.Runner, tr transport.Transport, loader *addonfile.Loader) *Driver {
	return &Driver{
		Runner:    runner,
		Transport: tr,
		Loader:    loader,
	}
}

// Run loads the addons and runs them in order.
// Configuration problems, including a selected addon that no file defines, are returned
// before anything runs remotely. A failing addon never stops the run.
func (d *Driver) Run(ctx context.Context, opts Options) (*Report, error) {
	logger := ctxlog.Logger(ctx).With("runID", opts.RunID)

	if len(opts.Machines) == 0 {
		return nil, ErrNoMachines
	}

	files := opts.Files
	if len(files) == 0 {
		files = []string{addonfile.BuiltinSource}
	}

	set, err := d.Loader.LoadFiles(ctx, files, opts.Addons, opts.AsRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadAddons, err)
	}

	enabled := set.Enabled(opts.Addons)
	for _, name := range enabled {
		if _, ok := set.Addons[name]; !ok {
			return nil, &AddonNotDefinedError{Name: name, Sources: files}
		}
	}

	dumpRoot := opts.DumpRoot
	if dumpRoot == "" {
		dumpRoot = DefaultDumpRoot
	}

	paths := Paths(dumpRoot, opts.RunID)
	report := &Report{
		RunID:        opts.RunID,
		PushLocation: paths.Location,
		PullLocation: paths.Output,
		Rejected:     set.Rejected,
	}

	env := &addon.Env{
		Runner:       d.Runner,
		Transport:    d.Transport,
		Machines:     runbatch.Machines(opts.Machines),
		Units:        runbatch.Units(opts.Units),
		Paths:        paths,
		Policy:       opts.Policy,
		LocalTimeout: opts.LocalTimeout,
	}

	report.Setup, err = d.setup(ctx, env)
	if err != nil {
		return nil, err
	}

	logger.Info("running addons", "addons", enabled, "rejected", set.Rejected, "machines", len(opts.Machines), "units", len(opts.Units))

	for _, name := range enabled {
		res, err := d.runAddon(ctx, set.Addons[name], env, opts.KeepOutput)
		if err != nil {
			return report, err
		}

		if res.Status == runbatch.ResultStatusError {
			logger.Warn("addon failed", "addon", name)
		}

		report.Addons = append(report.Addons, res)
	}

	return report, nil
}

// setup creates the push and pull locations on every machine. Failures are reported, not returned.
func (d *Driver) setup(ctx context.Context, env *addon.Env) (*runbatch.Result, error) {
	children := make(runbatch.Results, 0, 2) //nolint:mnd

	for _, dir := range []string{env.Paths.Location, env.Paths.Output} {
		mkdir := "mkdir -p " + runbatch.Escape(shellquote.Join(dir))
		template := d.Transport.Exec("{"+runbatch.MachineField+"}", mkdir)
		label := fmt.Sprintf("%s/mkdir %s", setupLabel, dir)

		results, err := d.Runner.Run(ctx, template, env.Machines, runbatch.WithLabel(label))
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		if results.HasError() {
			ctxlog.Warn(ctx, "could not create remote directory on some machines", "dir", dir, "failed", len(results.Failed()))
		}

		children = append(children, runbatch.Group(label, results))
	}

	return runbatch.Group(setupLabel, children), nil
}

// runAddon runs one addon inside a fresh scratch directory.
func (d *Driver) runAddon(ctx context.Context, a *addon.Addon, env *addon.Env, keep string) (*runbatch.Result, error) {
	var (
		res    *runbatch.Result
		runErr error
	)

	scratchErr := scratch.Do(ctx, scratchPrefix+a.Name+"-", func(dir string) error {
		addonEnv := *env
		addonEnv.Workdir = dir

		res, runErr = a.Run(ctx, &addonEnv)
		if runErr != nil || keep == "" {
			return nil
		}

		return scratch.CopyTree(ctx, dir, filepath.Join(keep, a.Name))
	})

	if runErr != nil {
		return nil, runErr //nolint:wrapcheck
	}

	if scratchErr != nil {
		ctxlog.Warn(ctx, "scratch directory error", "addon", a.Name, "error", scratchErr)

		if res == nil {
			res = &runbatch.Result{Label: a.Name, Status: runbatch.ResultStatusError, ExitCode: -1}
		}

		res.Error = errors.Join(res.Error, ErrScratch, scratchErr)
		res.Status = runbatch.ResultStatusError
	}

	return res, nil
}
