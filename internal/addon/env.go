// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package addon

import (
	"fmt"
	"time"

	"github.com/matt-FFFFFF/crashdump/internal/runbatch"
	"github.com/matt-FFFFFF/crashdump/internal/transport"
)

const (
	// LocationField is the placeholder for the remote push location.
	LocationField = "location"
	// OutputField is the placeholder for the remote pull location.
	OutputField = "output"
)

// Paths are the remote directories shared by every addon of a run.
type Paths struct {
	Location string // Push location, where local files are copied and remote commands run
	Output   string // Pull location, where collected output is written
}

// Fields returns the template fields for the paths.
func (p Paths) Fields() map[string]string {
	return map[string]string{
		LocationField: p.Location,
		OutputField:   p.Output,
	}
}

// Policy decides how per-target failures of an action are reported.
type Policy int

const (
	// PolicyLenient reports remote and per-unit actions as successful whatever the per-target exit codes.
	// Collection is best effort, the per-target results still carry the failures.
	PolicyLenient Policy = iota
	// PolicyStrict fails an action when any of its targets failed.
	PolicyStrict
)

// String implements fmt.Stringer.
func (p Policy) String() string {
	switch p {
	case PolicyStrict:
		return "strict"
	default:
		return "lenient"
	}
}

// ParsePolicy converts a policy name to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "lenient":
		return PolicyLenient, nil
	case "strict":
		return PolicyStrict, nil
	default:
		return PolicyLenient, fmt.Errorf("unknown policy %q", s)
	}
}

// aggregate groups per-target results under an action result according to the policy.
func (p Policy) aggregate(label string, results runbatch.Results) *runbatch.Result {
	res := runbatch.Group(label, results)

	if p == PolicyLenient && res.Status == runbatch.ResultStatusError {
		res.Status = runbatch.ResultStatusSuccess
		res.Error = nil
		res.ExitCode = 0
	}

	return res
}

// Env is everything an addon needs to run.
type Env struct {
	Runner       *runbatch.Runner
	Transport    transport.Transport
	Machines     []runbatch.Context
	Units        []runbatch.Context
	Paths        Paths
	Workdir      string        // Local working directory of local commands, normally a scratch directory
	Policy       Policy        // Failure reporting policy
	LocalTimeout time.Duration // Timeout of local commands, zero for none
}
