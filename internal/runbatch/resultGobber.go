// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"encoding/gob"
	"errors"
	"io"
	"time"
)

var (
	// ErrWriteGob is returned when writing the results to a binary format fails.
	ErrWriteGob = errors.New("failed to write binary results")
	// ErrReadGob is returned when reading results from a binary format fails.
	ErrReadGob = errors.New("failed to read binary results")
)

// gobResult mirrors Result with the error flattened to its message,
// gob cannot encode arbitrary error implementations.
type gobResult struct {
	Label    string
	Target   string
	Command  string
	ExitCode int
	Error    string
	StdOut   []byte
	StdErr   []byte
	Status   ResultStatus
	Duration time.Duration
	Children []*gobResult
}

func writeResultGob(w io.Writer, results Results) error {
	enc := gob.NewEncoder(w)
	if err := enc.Encode(toGob(results)); err != nil {
		return errors.Join(ErrWriteGob, err)
	}

	return nil
}

// ReadBinary decodes results previously written with Results.WriteBinary.
func ReadBinary(r io.Reader) (Results, error) {
	var in []*gobResult
	if err := gob.NewDecoder(r).Decode(&in); err != nil {
		return nil, errors.Join(ErrReadGob, err)
	}

	return fromGob(in), nil
}

func toGob(results Results) []*gobResult {
	out := make([]*gobResult, 0, len(results))

	for _, r := range results {
		if r == nil {
			continue
		}

		g := &gobResult{
			Label:    r.Label,
			Target:   r.Target,
			Command:  r.Command,
			ExitCode: r.ExitCode,
			StdOut:   r.StdOut,
			StdErr:   r.StdErr,
			Status:   r.Status,
			Duration: r.Duration,
			Children: toGob(r.Children),
		}
		if r.Error != nil {
			g.Error = r.Error.Error()
		}

		out = append(out, g)
	}

	return out
}

func fromGob(in []*gobResult) Results {
	if len(in) == 0 {
		return nil
	}

	out := make(Results, 0, len(in))

	for _, g := range in {
		r := &Result{
			Label:    g.Label,
			Target:   g.Target,
			Command:  g.Command,
			ExitCode: g.ExitCode,
			StdOut:   g.StdOut,
			StdErr:   g.StdErr,
			Status:   g.Status,
			Duration: g.Duration,
			Children: fromGob(g.Children),
		}
		if g.Error != "" {
			r.Error = decodeError(g.Error)
		}

		out = append(out, r)
	}

	return out
}

// decodeError restores the package sentinel errors so that errors.Is keeps working on decoded results.
func decodeError(msg string) error {
	for _, sentinel := range []error{ErrResultChildrenHasError, ErrSkipOnError, ErrSkipCancelled} {
		if msg == sentinel.Error() {
			return sentinel
		}
	}

	return errors.New(msg)
}
