// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package crashdump

import (
	"github.com/matt-FFFFFF/crashdump/internal/runbatch"
)

// Report is the outcome of a run.
type Report struct {
	RunID        string
	PushLocation string           // Remote directory local files were pushed to
	PullLocation string           // Remote directory holding the collected output
	Setup        *runbatch.Result // Creation of the remote directories
	Addons       runbatch.Results // One result per addon, in run order
	Rejected     []string         // Addons rejected for lack of root authorization
}

// Results returns the setup and addon results as one list, for display and persistence.
func (r *Report) Results() runbatch.Results {
	out := make(runbatch.Results, 0, len(r.Addons)+1)
	if r.Setup != nil {
		out = append(out, r.Setup)
	}

	return append(out, r.Addons...)
}

// Failed returns the addons whose result is an error.
func (r *Report) Failed() runbatch.Results {
	return r.Addons.Failed()
}
