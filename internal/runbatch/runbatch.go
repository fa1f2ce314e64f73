// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// BatchError lists the failed invocations of a results tree, one wrapped cause per invocation.
type BatchError struct {
	FailedResults Results

	causes *multierror.Error
}

func (e *BatchError) Error() string {
	msg := "batch execution failed:\n"
	for _, cause := range e.causes.WrappedErrors() {
		msg += "  " + cause.Error() + "\n"
	}

	return msg
}

// Unwrap returns the cause of every failed invocation.
func (e *BatchError) Unwrap() []error {
	return e.causes.WrappedErrors()
}

// Err returns nil if no result failed, otherwise a *BatchError listing every failed result.
// Nested children are flattened so that each entry names a single invocation.
func (r Results) Err() error {
	var (
		err    *multierror.Error
		failed Results
	)

	for _, res := range r.leaves() {
		if res.Status != ResultStatusError {
			continue
		}

		cause := res.Error
		if cause == nil {
			cause = fmt.Errorf("exit code %d", res.ExitCode)
		}

		err = multierror.Append(err, fmt.Errorf("%s: %w", res.Label, cause))
		failed = append(failed, res)
	}

	if err.ErrorOrNil() == nil {
		return nil
	}

	return &BatchError{FailedResults: failed, causes: err}
}

func (r Results) leaves() Results {
	var out Results

	for _, res := range r {
		if res == nil {
			continue
		}

		if len(res.Children) == 0 {
			out = append(out, res)
			continue
		}

		out = append(out, res.Children.leaves()...)
	}

	return out
}
