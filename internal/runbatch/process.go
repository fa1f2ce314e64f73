// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/matt-FFFFFF/crashdump/internal/ctxlog"
	"github.com/matt-FFFFFF/crashdump/internal/teereader"
	"golang.org/x/sync/errgroup"
)

const (
	maxBufferSize = 8 * 1024 * 1024 // 8MB
	lastLineMax   = 200
)

var _ Launcher = (*OSLauncher)(nil)

var (
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrTimeoutExceeded is returned when the invocation exceeds its timeout.
	ErrTimeoutExceeded = errors.New("timeout exceeded")
	// ErrCancelled is returned when the invocation is killed because the run was cancelled.
	ErrCancelled = errors.New("run cancelled, process killed")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrFailedToReadBuffer is returned when the output of the process could not be read.
	ErrFailedToReadBuffer = errors.New("failed to read buffer")
	// ErrBufferOverflow is returned when the output exceeds the max size.
	ErrBufferOverflow = fmt.Errorf("output exceeds max size of %d bytes", maxBufferSize)
)

// OSLauncher starts invocations as operating system processes.
type OSLauncher struct {
	// DiscardOutput sends stdout and stderr to the null device instead of capturing them.
	DiscardOutput bool
	// Env holds extra environment variables added to the inherited environment.
	Env map[string]string
}

// osProcess is a running operating system process.
type osProcess struct {
	ps      *os.Process
	res     *Result
	logger  *slog.Logger
	start   time.Time
	cancel  context.CancelFunc
	done    chan struct{}
	killed  chan error
	readers *errgroup.Group
	stdout  *teereader.LastLineTeeReader
	stderr  *teereader.LastLineTeeReader
}

// Start implements Launcher.
func (l *OSLauncher) Start(ctx context.Context, inv Invocation) Process {
	logger := ctxlog.Logger(ctx).
		With("runnableType", "OSLauncher").
		With("label", inv.Label)

	res := &Result{
		Label:   inv.Label,
		Target:  inv.Target,
		Command: inv.Command,
	}

	fail := func(err error) Process {
		res.Error = err
		res.ExitCode = -1
		res.Status = ResultStatusError

		return finishedProcess{res: res}
	}

	if len(inv.Args) == 0 {
		return fail(fmt.Errorf("%w: empty argument vector", ErrCouldNotStartProcess))
	}

	path, err := lookPath(inv.Args[0])
	if err != nil {
		return fail(errors.Join(ErrCouldNotStartProcess, err))
	}

	env := os.Environ()
	for _, k := range slices.Sorted(maps.Keys(l.Env)) {
		env = append(env, fmt.Sprintf("%s=%s", k, l.Env[k]))
	}

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return fail(errors.Join(ErrCouldNotStartProcess, err))
	}
	defer devNull.Close() //nolint:errcheck

	p := &osProcess{
		res:     res,
		logger:  logger,
		done:    make(chan struct{}),
		killed:  make(chan error, 1),
		readers: &errgroup.Group{},
	}

	files := []*os.File{devNull, devNull, devNull}

	if !l.DiscardOutput {
		rOut, wOut, err := os.Pipe()
		if err != nil {
			return fail(errors.Join(ErrFailedToCreatePipe, err))
		}

		rErr, wErr, err := os.Pipe()
		if err != nil {
			_ = rOut.Close()
			_ = wOut.Close()

			return fail(errors.Join(ErrFailedToCreatePipe, err))
		}

		defer wOut.Close() //nolint:errcheck
		defer wErr.Close() //nolint:errcheck

		files = []*os.File{devNull, wOut, wErr}
		p.stdout = teereader.NewLastLineTeeReader(rOut, maxBufferSize)
		p.stderr = teereader.NewLastLineTeeReader(rErr, maxBufferSize)

		p.readers.Go(func() error { return drain(rOut, p.stdout) })
		p.readers.Go(func() error { return drain(rErr, p.stderr) })
	}

	logger.Debug("starting process", "path", path, "args", inv.Args, "cwd", inv.Cwd, "timeout", inv.Timeout)

	ps, err := os.StartProcess(path, inv.Args, &os.ProcAttr{
		Dir:   inv.Cwd,
		Env:   env,
		Files: files,
		Sys:   sysProcAttr(),
	})
	if err != nil {
		// Closing the write ends (deferred) lets the readers finish.
		res.Error = errors.Join(ErrCouldNotStartProcess, err)
		res.ExitCode = -1
		res.Status = ResultStatusError

		return &failedStart{readers: p.readers, res: res}
	}

	p.ps = ps
	p.start = time.Now()

	var pctx context.Context

	if inv.Timeout > 0 {
		pctx, p.cancel = context.WithTimeout(ctx, inv.Timeout)
	} else {
		pctx, p.cancel = context.WithCancel(ctx)
	}

	logger.Debug("process started", "pid", ps.Pid)

	// This is the process watchdog that will kill the process if it exceeds the timeout
	// or the run is cancelled.
	go func() {
		select {
		case <-pctx.Done():
			reason := ErrCancelled
			if errors.Is(pctx.Err(), context.DeadlineExceeded) {
				reason = ErrTimeoutExceeded
			}

			logger.Info("killing process", "pid", ps.Pid, "reason", reason)

			if err := killProcessTree(ps); err != nil && !errors.Is(err, os.ErrProcessDone) {
				logger.Error("process kill error", "pid", ps.Pid, "error", err)
			}

			p.killed <- reason
		case <-p.done:
		}
	}()

	return p
}

// Wait implements Process.
func (p *osProcess) Wait() *Result {
	defer p.cancel()

	state, psErr := p.ps.Wait()

	close(p.done)

	if err := p.readers.Wait(); err != nil {
		p.res.Error = errors.Join(p.res.Error, err)
	}

	p.res.Duration = time.Since(p.start)
	p.res.Error = errors.Join(p.res.Error, psErr)

	if state != nil {
		p.res.ExitCode = state.ExitCode()
	}

	select {
	case reason := <-p.killed:
		if !killApplies(state) {
			p.logger.Debug("process exited before it was killed", "reason", reason)
			break
		}

		p.res.Error = errors.Join(p.res.Error, reason)
		p.res.ExitCode = -1
	default:
	}

	if p.stdout != nil {
		p.res.StdOut = p.stdout.Bytes()
		p.res.StdErr = p.stderr.Bytes()

		if p.stdout.Truncated() || p.stderr.Truncated() {
			p.res.Error = errors.Join(p.res.Error, ErrBufferOverflow)
		}
	}

	switch {
	case p.res.Error == nil && p.res.ExitCode == 0:
		p.res.Status = ResultStatusSuccess
	default:
		if p.res.ExitCode == 0 {
			p.res.ExitCode = -1
		}

		p.res.Status = ResultStatusError
	}

	p.logger.Debug("process finished", "exitCode", p.res.ExitCode, "duration", p.res.Duration)

	return p.res
}

// killApplies reports whether the watchdog's kill is what ended the process.
// A timeout that fires while the process is exiting on its own leaves its status alone.
func killApplies(state *os.ProcessState) bool {
	return state == nil || terminatedBySignal(state)
}

// LastLine returns the last line written to stderr, or to stdout if stderr is empty.
func (p *osProcess) LastLine() string {
	if p.stderr == nil {
		return ""
	}

	if l := p.stderr.LastLine(lastLineMax); l != "" {
		return l
	}

	return p.stdout.LastLine(lastLineMax)
}

// failedStart is returned when the process could not be started after the pipes were created.
type failedStart struct {
	readers *errgroup.Group
	res     *Result
}

func (f *failedStart) Wait() *Result {
	_ = f.readers.Wait()
	return f.res
}

// drain reads r to the end through the tee, then closes r.
func drain(r *os.File, tee *teereader.LastLineTeeReader) error {
	defer r.Close() //nolint:errcheck

	if _, err := io.Copy(io.Discard, tee); err != nil {
		return errors.Join(ErrFailedToReadBuffer, err)
	}

	return nil
}
