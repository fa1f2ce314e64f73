// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package show implements the show command, which prints results saved by collect.
package show

import (
	"context"
	"errors"
	"os"

	"github.com/matt-FFFFFF/crashdump/internal/runbatch"
	"github.com/urfave/cli/v3"
)

const (
	fileArg = "file"

	noOutputStdErrFlag       = "no-output-stderr"
	outputStdOutFlag         = "output-stdout"
	outputSuccessDetailsFlag = "output-success-details"
	showDetailsFlag          = "show-details"
)

var (
	// ErrNoFile is returned when no results file is given.
	ErrNoFile = errors.New("no results file given")
	// ErrReadFile is returned when the file cannot be read.
	ErrReadFile = errors.New("failed to read file")
	// ErrWriteResults is returned when the results cannot be written to stdout.
	ErrWriteResults = errors.New("failed to write results to stdout")
)

// NewCommand returns the command that shows previously saved results.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:        "show",
		Usage:       "Show results saved with collect --out",
		Description: "Show previously saved results.",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: fileArg,
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    noOutputStdErrFlag,
				Aliases: []string{"no-stderr"},
				Usage:   "Exclude stderr output",
			},
			&cli.BoolFlag{
				Name:    outputStdOutFlag,
				Aliases: []string{"stdout"},
				Usage:   "Include stdout output",
			},
			&cli.BoolFlag{
				Name:    outputSuccessDetailsFlag,
				Aliases: []string{"success"},
				Usage:   "Include details of successful results",
			},
			&cli.BoolFlag{
				Name:    showDetailsFlag,
				Aliases: []string{"details"},
				Usage:   "Include the commands and durations",
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	name := cmd.StringArg(fileArg)
	if name == "" {
		return ErrNoFile
	}

	file, err := os.Open(name)
	if err != nil {
		return errors.Join(ErrReadFile, err)
	}

	defer file.Close() //nolint:errcheck

	results, err := runbatch.ReadBinary(file)
	if err != nil {
		return err
	}

	opts := runbatch.DefaultOutputOptions()
	opts.IncludeStdErr = !cmd.Bool(noOutputStdErrFlag)
	opts.IncludeStdOut = cmd.Bool(outputStdOutFlag)
	opts.ShowSuccessDetails = cmd.Bool(outputSuccessDetailsFlag)
	opts.ShowCommands = cmd.Bool(showDetailsFlag)

	if err := results.WriteTextWithOptions(cmd.Root().Writer, opts); err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	return nil
}
