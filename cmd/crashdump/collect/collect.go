// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package collect implements the collect command, which runs addons against a model.
package collect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/matt-FFFFFF/crashdump/internal/addon"
	"github.com/matt-FFFFFF/crashdump/internal/addonfile"
	"github.com/matt-FFFFFF/crashdump/internal/crashdump"
	"github.com/matt-FFFFFF/crashdump/internal/ctxlog"
	"github.com/matt-FFFFFF/crashdump/internal/progress"
	"github.com/matt-FFFFFF/crashdump/internal/runbatch"
	"github.com/matt-FFFFFF/crashdump/internal/transport"
	"github.com/matt-FFFFFF/crashdump/internal/tui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

const (
	fileFlag            = "file"
	addonFlag           = "addon"
	machineFlag         = "machine"
	unitFlag            = "unit"
	dumpRootFlag        = "dump-root"
	runIDFlag           = "run-id"
	asRootFlag          = "as-root"
	timeoutFlag         = "timeout"
	localTimeoutFlag    = "local-timeout"
	maxInFlightFlag     = "max-in-flight"
	strictFlag          = "strict"
	onDuplicateFlag     = "on-duplicate"
	transportFlag       = "transport"
	transportBinaryFlag = "transport-binary"
	outFlag             = "out"
	metricsFileFlag     = "metrics-file"
	keepOutputFlag      = "keep-output"
	progressFlag        = "progress"
	tuiFlag             = "tui"

	noOutputStdErrFlag       = "no-output-stderr"
	outputStdOutFlag         = "output-stdout"
	outputSuccessDetailsFlag = "output-success-details"
	showDetailsFlag          = "show-details"

	cliExitStr         = ""
	progressBufferSize = 256
)

var (
	// ErrWriteResults is returned when the results cannot be saved.
	ErrWriteResults = errors.New("failed to write results")
	// ErrWriteMetrics is returned when the metrics file cannot be written.
	ErrWriteMetrics = errors.New("failed to write metrics")
)

// newLauncher creates the process launcher, replaced in tests.
var newLauncher = func(discardOutput bool) runbatch.Launcher {
	return &runbatch.OSLauncher{DiscardOutput: discardOutput}
}

// newLoader creates the addon file loader, replaced in tests.
var newLoader = addonfile.NewLoader

// tuiOptions are extra options of the terminal user interface, replaced in tests.
var tuiOptions []tea.ProgramOption

// NewCommand returns the command that runs addons against machines and units.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:  "collect",
		Usage: "Run addons against machines and units",
		Description: `Run the selected addons, in order, against the given machines and units.

Addon files are YAML or HCL and may be given as local paths or as URLs using
Hashicorp's go-getter syntax, see https://github.com/hashicorp/go-getter.
When no file is given, the addons shipped with crashdump are used.

Addons that use sudo or run local commands are only loaded with --as-root.

At least one --machine is required, even when only units are targeted: the run
directory holding the collected output is created on the machines.

The remote directory holding the collected output is printed on stdout.
`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    fileFlag,
				Aliases: []string{"f"},
				Usage: "Addon file to load. Supports Hashicorp's go-getter syntax. " +
					"Specify multiple times to merge files, later files override earlier ones.",
				Sources: cli.EnvVars("CRASHDUMP_ADDON_FILES"),
			},
			&cli.StringSliceFlag{
				Name:     addonFlag,
				Aliases:  []string{"a"},
				Usage:    "Addon to run. Specify multiple times to run several addons, in order.",
				Sources:  cli.EnvVars("CRASHDUMP_ADDONS"),
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:    machineFlag,
				Aliases: []string{"m"},
				Usage:   "Machine to collect from. Specify multiple times for several machines.",
			},
			&cli.StringSliceFlag{
				Name:    unitFlag,
				Aliases: []string{"u"},
				Usage:   "Unit to collect from. Specify multiple times for several units.",
			},
			&cli.StringFlag{
				Name:    dumpRootFlag,
				Usage:   "Remote directory under which the run directory is created",
				Value:   crashdump.DefaultDumpRoot,
				Sources: cli.EnvVars("CRASHDUMP_DUMP_ROOT"),
			},
			&cli.StringFlag{
				Name:  runIDFlag,
				Usage: "Unique identifier of the run. Defaults to a random UUID.",
			},
			&cli.BoolFlag{
				Name:    asRootFlag,
				Usage:   "Allow addons that use sudo or run local commands",
				Sources: cli.EnvVars("CRASHDUMP_AS_ROOT"),
			},
			&cli.DurationFlag{
				Name:  timeoutFlag,
				Usage: "Timeout of each remote invocation",
				Value: runbatch.DefaultTimeout,
			},
			&cli.DurationFlag{
				Name:  localTimeoutFlag,
				Usage: "Timeout of local commands, 0 for none",
			},
			&cli.IntFlag{
				Name:  maxInFlightFlag,
				Usage: "Maximum number of invocations running at once",
				Value: runbatch.DefaultMaxInFlight,
			},
			&cli.BoolFlag{
				Name:  strictFlag,
				Usage: "Report an action as failed when any of its targets failed, and exit 1 when an addon failed",
			},
			&cli.StringFlag{
				Name:  onDuplicateFlag,
				Usage: "What to do when an addon is defined in several files: override or error",
				Value: addonfile.DuplicateOverride.String(),
			},
			&cli.StringFlag{
				Name:    transportFlag,
				Usage:   "Remote transport: juju or ssh",
				Value:   transport.NameJuju,
				Sources: cli.EnvVars("CRASHDUMP_TRANSPORT"),
			},
			&cli.StringFlag{
				Name:    transportBinaryFlag,
				Usage:   "Path to the transport client binary",
				Sources: cli.EnvVars("CRASHDUMP_TRANSPORT_BINARY"),
			},
			&cli.StringFlag{
				Name:      outFlag,
				Usage:     "Save the results to this file, see the show command",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:      metricsFileFlag,
				Usage:     "Write invocation metrics to this file in the Prometheus text format",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:      keepOutputFlag,
				Usage:     "Copy the local working directory of every addon into this directory",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.BoolFlag{
				Name:  progressFlag,
				Usage: "Print a line for every invocation as it starts and finishes",
			},
			&cli.BoolFlag{
				Name:        tuiFlag,
				Aliases:     []string{"t", "interactive"},
				Usage:       "Show a live tree of the invocations on stderr",
				Value:       false,
				DefaultText: "false",
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:    noOutputStdErrFlag,
				Aliases: []string{"no-stderr"},
				Usage:   "Exclude stderr output from the results",
			},
			&cli.BoolFlag{
				Name:    outputStdOutFlag,
				Aliases: []string{"stdout"},
				Usage:   "Include stdout output in the results",
			},
			&cli.BoolFlag{
				Name:    outputSuccessDetailsFlag,
				Aliases: []string{"success"},
				Usage:   "Include successful results in the output",
			},
			&cli.BoolFlag{
				Name:    showDetailsFlag,
				Aliases: []string{"details"},
				Usage:   "Include the commands and durations in the output",
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	policy := addon.PolicyLenient
	if cmd.Bool(strictFlag) {
		policy = addon.PolicyStrict
	}

	dup, err := addonfile.ParseDuplicatePolicy(cmd.String(onDuplicateFlag))
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	tr, err := transport.New(cmd.String(transportFlag), cmd.String(transportBinaryFlag))
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	runID := cmd.String(runIDFlag)
	if runID == "" {
		runID = uuid.NewString()
	}

	reg := prometheus.NewRegistry()
	discard := cmd.Bool(noOutputStdErrFlag) && !cmd.Bool(outputStdOutFlag)

	runner := runbatch.NewRunner(newLauncher(discard))
	runner.MaxInFlight = cmd.Int(maxInFlightFlag)
	runner.Timeout = cmd.Duration(timeoutFlag)
	runner.Metrics = runbatch.NewMetrics(reg)

	var (
		reporter *progress.ChannelReporter
		ui       *tui.Runner
		logBuf   *bytes.Buffer
	)

	if cmd.Bool(progressFlag) || cmd.Bool(tuiFlag) {
		reporter = progress.NewChannelReporter(ctx, progressBufferSize)
		defer reporter.Close()

		runner.Reporter = reporter
	}

	if cmd.Bool(progressFlag) {
		reporter.Listen(progressPrinter(cmd.Root().ErrWriter))
	}

	runCtx := ctx

	if cmd.Bool(tuiFlag) {
		var cancel context.CancelFunc

		runCtx, cancel = context.WithCancel(ctx)
		defer cancel()

		// Log lines would tear the view, they are held back until it has exited.
		logBuf = new(bytes.Buffer)
		runCtx = ctxlog.NewForTUI(runCtx, logBuf)

		opts := append([]tea.ProgramOption{tea.WithOutput(cmd.Root().ErrWriter)}, tuiOptions...)
		ui = tui.NewRunner(runID, cancel, opts...)
		ui.Start()
		reporter.Listen(ui)
	}

	d := crashdump.New(runner, tr, newLoader(dup))

	start := time.Now()

	report, err := d.Run(runCtx, crashdump.Options{
		Files:        cmd.StringSlice(fileFlag),
		Addons:       cmd.StringSlice(addonFlag),
		Machines:     cmd.StringSlice(machineFlag),
		Units:        cmd.StringSlice(unitFlag),
		DumpRoot:     cmd.String(dumpRootFlag),
		RunID:        runID,
		AsRoot:       cmd.Bool(asRootFlag),
		Policy:       policy,
		LocalTimeout: cmd.Duration(localTimeoutFlag),
		KeepOutput:   cmd.String(keepOutputFlag),
	})

	if ui != nil {
		reporter.Close()

		if uiErr := ui.Finish(); uiErr != nil {
			logger.Warn("terminal user interface failed", "error", uiErr.Error())
		}

		logBuf.WriteTo(cmd.Root().ErrWriter) //nolint:errcheck
	}

	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	logger.Info("collection finished", "runID", runID, "duration", time.Since(start).Round(time.Millisecond))

	results := report.Results()

	if err := writeOutputs(cmd, results, reg); err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	opts := runbatch.DefaultOutputOptions()
	opts.IncludeStdErr = !cmd.Bool(noOutputStdErrFlag)
	opts.IncludeStdOut = cmd.Bool(outputStdOutFlag)
	opts.ShowSuccessDetails = cmd.Bool(outputSuccessDetailsFlag)
	opts.ShowCommands = cmd.Bool(showDetailsFlag)

	if err := results.WriteTextWithOptions(cmd.Root().ErrWriter, opts); err != nil {
		logger.Error(fmt.Sprintf("Failed to write results: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	fmt.Fprintln(cmd.Root().Writer, report.PullLocation) //nolint:errcheck

	if failed := report.Failed(); len(failed) > 0 {
		logger.Warn("some addons failed, see above for details", "failed", len(failed))

		if policy == addon.PolicyStrict {
			if err := failed.Err(); err != nil {
				logger.Error(err.Error())
			}

			return cli.Exit(cliExitStr, 1)
		}
	}

	return nil
}

// writeOutputs saves the results and metrics files requested on the command line.
func writeOutputs(cmd *cli.Command, results runbatch.Results, reg *prometheus.Registry) error {
	if name := cmd.String(outFlag); name != "" {
		f, err := os.Create(name)
		if err != nil {
			return errors.Join(ErrWriteResults, err)
		}

		defer f.Close() //nolint:errcheck

		if err := results.WriteBinary(f); err != nil {
			return errors.Join(ErrWriteResults, err)
		}
	}

	if name := cmd.String(metricsFileFlag); name != "" {
		if err := prometheus.WriteToTextfile(name, reg); err != nil {
			return errors.Join(ErrWriteMetrics, err)
		}
	}

	return nil
}
