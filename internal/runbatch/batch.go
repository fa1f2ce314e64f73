// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matt-FFFFFF/crashdump/internal/ctxlog"
	"github.com/matt-FFFFFF/crashdump/internal/progress"
)

const (
	// DefaultMaxInFlight is the number of invocations allowed to run at once.
	// The Juju controller accepts at most 10 concurrent ssh connections.
	DefaultMaxInFlight = 10
	// DefaultTimeout is the per-invocation timeout.
	DefaultTimeout = 45 * time.Second
)

// Runner executes a command template once per context with a bounded number of
// invocations in flight. A Runner must not be used by concurrent callers.
type Runner struct {
	Launcher    Launcher          // Starts processes, defaults to an OSLauncher
	MaxInFlight int               // Admission cap, defaults to DefaultMaxInFlight
	Timeout     time.Duration     // Per-invocation timeout, defaults to DefaultTimeout
	Reporter    progress.Reporter // Optional progress events
	Metrics     *Metrics          // Optional metrics
}

// NewRunner creates a Runner with the default admission cap and timeout.
func NewRunner(launcher Launcher) *Runner {
	return &Runner{
		Launcher:    launcher,
		MaxInFlight: DefaultMaxInFlight,
		Timeout:     DefaultTimeout,
	}
}

// BatchOption configures a single Run call.
type BatchOption func(*batchOptions)

type batchOptions struct {
	shell   bool
	timeout time.Duration
	label   string
	cwd     string
}

// WithShell passes the formatted command to the shell instead of tokenizing it.
// It is required when the template uses pipes or redirection.
func WithShell() BatchOption {
	return func(o *batchOptions) {
		o.shell = true
	}
}

// WithTimeout overrides the runner timeout for this batch.
func WithTimeout(d time.Duration) BatchOption {
	return func(o *batchOptions) {
		o.timeout = d
	}
}

// WithLabel sets the label prefix used for the invocations of this batch.
func WithLabel(label string) BatchOption {
	return func(o *batchOptions) {
		o.label = label
	}
}

// WithCwd sets the local working directory of the invocations.
func WithCwd(dir string) BatchOption {
	return func(o *batchOptions) {
		o.cwd = dir
	}
}

// Run formats the template for every context and runs the resulting commands.
// Formatting happens for all contexts before any process is started, so a template
// error returns without side effects. Process failures never abort the batch, they
// are reported in the returned results, one per context in context order.
func (r *Runner) Run(ctx context.Context, template string, contexts []Context, opts ...BatchOption) (Results, error) {
	o := batchOptions{timeout: r.timeout()}
	for _, opt := range opts {
		opt(&o)
	}

	invs := make([]Invocation, 0, len(contexts))

	for _, c := range contexts {
		cmd, err := Format(template, c)
		if err != nil {
			return nil, err
		}

		inv, err := NewInvocation(invocationLabel(o.label, c), c.Target(), cmd, o.shell, o.timeout)
		if err != nil {
			return nil, err
		}

		inv.Cwd = o.cwd
		invs = append(invs, inv)
	}

	ctxlog.Debug(ctx, "running batch", "template", template, "contexts", len(contexts), "shell", o.shell)

	return r.runAll(ctx, invs), nil
}

// Exec runs a single invocation as-is and waits for it.
func (r *Runner) Exec(ctx context.Context, inv Invocation) *Result {
	return r.runAll(ctx, []Invocation{inv})[0]
}

// runAll submits the invocations in order while keeping at most MaxInFlight unterminated.
// Before submitting invocation i, the invocation submitted MaxInFlight slots earlier is reaped.
func (r *Runner) runAll(ctx context.Context, invs []Invocation) Results {
	limit := r.maxInFlight()
	procs := make([]Process, len(invs))
	results := make(Results, len(invs))

	reap := func(i int) {
		if procs[i] == nil || results[i] != nil {
			return
		}

		results[i] = procs[i].Wait()
		r.finished(ctx, invs[i], procs[i], results[i])
	}

	for i, inv := range invs {
		if i >= limit {
			reap(i - limit)
		}

		if ctx.Err() != nil {
			results[i] = r.skipped(ctx, inv)
			continue
		}

		r.report(inv, progress.EventStarted, nil, "")
		r.Metrics.started()

		procs[i] = r.launcher().Start(ctx, inv)
	}

	for i := range invs {
		reap(i)
	}

	return results
}

func (r *Runner) finished(ctx context.Context, inv Invocation, proc Process, res *Result) {
	r.Metrics.finished(res, true)

	if res.Status == ResultStatusSuccess {
		r.report(inv, progress.EventCompleted, res, "")
		return
	}

	var lastLine string
	if ll, ok := proc.(interface{ LastLine() string }); ok {
		lastLine = ll.LastLine()
	}

	ctxlog.Warn(ctx, "command failed",
		"label", inv.Label,
		"command", inv.Command,
		"exitCode", res.ExitCode,
		"error", res.Error,
		"lastLine", lastLine)

	r.report(inv, progress.EventFailed, res, lastLine)
}

func (r *Runner) skipped(ctx context.Context, inv Invocation) *Result {
	res := &Result{
		Label:   inv.Label,
		Target:  inv.Target,
		Command: inv.Command,
		Error:   ErrSkipCancelled,
		Status:  ResultStatusSkipped,
	}

	ctxlog.Debug(ctx, "invocation skipped", "label", inv.Label, "error", ctx.Err())
	r.Metrics.finished(res, false)
	r.report(inv, progress.EventSkipped, res, "")

	return res
}

func (r *Runner) report(inv Invocation, typ progress.EventType, res *Result, lastLine string) {
	if r.Reporter == nil {
		return
	}

	ev := progress.Event{
		Path:      eventPath(inv),
		Type:      typ,
		Message:   fmt.Sprintf("%s %s", inv.Label, typ),
		Timestamp: time.Now(),
	}

	if res != nil {
		ev.Data = progress.EventData{
			ExitCode: res.ExitCode,
			Error:    res.Error,
			Duration: res.Duration,
			LastLine: lastLine,
		}
	}

	r.Reporter.Report(ev)
}

func (r *Runner) launcher() Launcher {
	if r.Launcher == nil {
		r.Launcher = &OSLauncher{}
	}

	return r.Launcher
}

func (r *Runner) maxInFlight() int {
	if r.MaxInFlight <= 0 {
		return DefaultMaxInFlight
	}

	return r.MaxInFlight
}

func (r *Runner) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}

	return r.Timeout
}

func invocationLabel(prefix string, c Context) string {
	target := c.Target()

	switch {
	case prefix == "":
		return target
	case target == "":
		return prefix
	default:
		return fmt.Sprintf("%s [%s]", prefix, target)
	}
}

// eventPath splits a label such as "dmesg/remote [0]" into ["dmesg", "remote", "0"].
// Only the first slash separates levels, later ones belong to the action label.
func eventPath(inv Invocation) []string {
	if inv.Label == inv.Target {
		return []string{inv.Label}
	}

	prefix := strings.TrimSuffix(inv.Label, " ["+inv.Target+"]")
	path := strings.SplitN(prefix, "/", 2) //nolint:mnd

	if inv.Target != "" {
		path = append(path, inv.Target)
	}

	return path
}
