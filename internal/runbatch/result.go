// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"io"
	"os"
	"slices"
	"time"
)

var (
	// ErrResultChildrenHasError is set on a parent result when one of its children failed.
	ErrResultChildrenHasError = errors.New("result has children with errors")
	// ErrSkipOnError is set on results that were not run because an earlier step failed.
	ErrSkipOnError = errors.New("skip execution due to previous error")
	// ErrSkipCancelled is set on invocations that were never submitted because the run was cancelled.
	ErrSkipCancelled = errors.New("skip execution due to cancellation")
)

// ResultStatus is the outcome category of a result.
type ResultStatus int

const (
	// ResultStatusUnknown is the zero value, the outcome has not been determined.
	ResultStatusUnknown ResultStatus = iota
	// ResultStatusSuccess means the invocation or group completed successfully.
	ResultStatusSuccess
	// ResultStatusError means the invocation or group failed.
	ResultStatusError
	// ResultStatusSkipped means the invocation or group was not run.
	ResultStatusSkipped
)

// String implements fmt.Stringer.
func (s ResultStatus) String() string {
	switch s {
	case ResultStatusSuccess:
		return "success"
	case ResultStatusError:
		return "error"
	case ResultStatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result represents the outcome of one invocation, or of a group of invocations.
type Result struct {
	Label    string        // Label of the invocation or group
	Target   string        // Machine or unit the invocation ran against, if any
	Command  string        // The concrete command that was run
	ExitCode int           // Exit code of the process, -1 if it could not be determined
	Error    error         // Error, if any
	StdOut   []byte        // Captured standard output
	StdErr   []byte        // Captured standard error
	Status   ResultStatus  // Outcome category
	Duration time.Duration // Wall clock time between start and reap
	Children Results       // Nested results for tree output
}

// Results is a slice of Result pointers, used to represent multiple results.
type Results []*Result

// Succeeded reports whether the result completed with a success status.
func (r *Result) Succeeded() bool {
	return r != nil && r.Status == ResultStatusSuccess
}

// HasError reports whether any result, or any nested child, failed.
func (r Results) HasError() bool {
	for v := range slices.Values(r) {
		if v == nil {
			continue
		}

		if v.Status == ResultStatusError || (v.Status != ResultStatusSkipped && (v.Error != nil || v.ExitCode != 0)) {
			return true
		}

		if v.Children.HasError() {
			return true
		}
	}

	return false
}

// Failed returns the top level results that have an error status.
func (r Results) Failed() Results {
	var failed Results

	for v := range slices.Values(r) {
		if v != nil && v.Status == ResultStatusError {
			failed = append(failed, v)
		}
	}

	return failed
}

// Group wraps the results in a parent result with the given label.
// The parent status is an error if any child failed.
func Group(label string, children Results) *Result {
	res := &Result{
		Label:    label,
		Children: children,
		Status:   ResultStatusSuccess,
	}

	if len(children.Failed()) > 0 {
		res.ExitCode = -1
		res.Error = ErrResultChildrenHasError
		res.Status = ResultStatusError
	}

	return res
}

// Print outputs the results to stdout with default options.
func (r Results) Print() error {
	return WriteResults(os.Stdout, r, nil)
}

// WriteText outputs the results to the specified writer with default options.
func (r Results) WriteText(w io.Writer) error {
	return WriteResults(w, r, nil)
}

// WriteTextWithOptions outputs the results to the specified writer with the specified options.
func (r Results) WriteTextWithOptions(w io.Writer, options *OutputOptions) error {
	return WriteResults(w, r, options)
}

// WriteBinary writes the results in gob format so that they can be shown later.
func (r Results) WriteBinary(w io.Writer) error {
	return writeResultGob(w, r)
}
