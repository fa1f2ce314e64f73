// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/matt-FFFFFF/crashdump/internal/progress"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeLauncher records the concurrency of the invocations it starts.
// A process ends after delay, or when its release channel is closed if gated.
type fakeLauncher struct {
	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	events      []string
	started     []Invocation
	delay       time.Duration
	exitCodes   map[string]int
	gates       map[string]chan struct{}
}

func newFakeLauncher(delay time.Duration) *fakeLauncher {
	return &fakeLauncher{
		delay:     delay,
		exitCodes: make(map[string]int),
		gates:     make(map[string]chan struct{}),
	}
}

func (f *fakeLauncher) gate(targets ...string) {
	for _, t := range targets {
		f.gates[t] = make(chan struct{})
	}
}

func (f *fakeLauncher) release(target string) {
	close(f.gates[target])
}

func (f *fakeLauncher) Start(_ context.Context, inv Invocation) Process {
	f.mu.Lock()
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	f.events = append(f.events, "start:"+inv.Target)
	f.started = append(f.started, inv)
	gate := f.gates[inv.Target]
	exitCode := f.exitCodes[inv.Target]
	f.mu.Unlock()

	p := &fakeProcess{done: make(chan struct{}), res: &Result{
		Label:    inv.Label,
		Target:   inv.Target,
		Command:  inv.Command,
		ExitCode: exitCode,
		Status:   ResultStatusSuccess,
	}}
	if exitCode != 0 {
		p.res.Status = ResultStatusError
		p.res.Error = fmt.Errorf("exit status %d", exitCode)
	}

	go func() {
		if gate != nil {
			<-gate
		} else {
			time.Sleep(f.delay)
		}

		f.mu.Lock()
		f.inFlight--
		f.events = append(f.events, "end:"+inv.Target)
		f.mu.Unlock()
		close(p.done)
	}()

	return p
}

func (f *fakeLauncher) startedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.started)
}

func (f *fakeLauncher) eventIndex(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Index(f.events, event)
}

type fakeProcess struct {
	done chan struct{}
	res  *Result
}

func (p *fakeProcess) Wait() *Result {
	<-p.done
	return p.res
}

func machineIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("m%02d", i)
	}

	return ids
}

func TestRunnerRun_NeverExceedsMaxInFlight(t *testing.T) {
	defer goleak.VerifyNone(t)

	for _, n := range []int{1, 9, 10, 11, 25, 64} {
		t.Run(fmt.Sprintf("%d contexts", n), func(t *testing.T) {
			launcher := newFakeLauncher(5 * time.Millisecond)
			runner := NewRunner(launcher)

			results, err := runner.Run(context.Background(), "echo {machine}", Machines(machineIDs(n)))
			require.NoError(t, err)

			assert.Len(t, results, n)
			assert.LessOrEqual(t, launcher.maxInFlight, DefaultMaxInFlight)
			assert.Equal(t, 0, launcher.inFlight)
		})
	}
}

func TestRunnerRun_FullyConcurrentUpToCap(t *testing.T) {
	defer goleak.VerifyNone(t)

	launcher := newFakeLauncher(100 * time.Millisecond)
	runner := NewRunner(launcher)

	start := time.Now()
	results, err := runner.Run(context.Background(), "echo {machine}", Machines(machineIDs(10)))
	duration := time.Since(start)

	require.NoError(t, err)
	assert.Len(t, results, 10)
	assert.Equal(t, 10, launcher.maxInFlight, "all invocations should overlap")
	assert.Less(t, duration, 300*time.Millisecond, "expected the batch to take about as long as one invocation")
}

func TestRunnerRun_EleventhWaitsForFirst(t *testing.T) {
	defer goleak.VerifyNone(t)

	ids := machineIDs(25)
	launcher := newFakeLauncher(0)
	launcher.gate(ids...)

	runner := NewRunner(launcher)
	done := make(chan Results)

	go func() {
		res, err := runner.Run(context.Background(), "echo {machine}", Machines(ids))
		assert.NoError(t, err)
		done <- res
	}()

	require.Eventually(t, func() bool { return launcher.startedCount() == 10 }, time.Second, time.Millisecond)

	// Completing a later invocation does not open the window, the runner waits on the oldest.
	launcher.release("m05")
	assert.Never(t, func() bool { return launcher.startedCount() > 10 }, 100*time.Millisecond, 5*time.Millisecond)

	launcher.release("m00")
	require.Eventually(t, func() bool { return launcher.startedCount() == 11 }, time.Second, time.Millisecond)
	assert.Less(t, launcher.eventIndex("end:m00"), launcher.eventIndex("start:m10"))
	assert.Equal(t, "m10", launcher.started[10].Target)

	for _, id := range ids {
		if id != "m00" && id != "m05" {
			launcher.release(id)
		}
	}

	results := <-done
	require.Len(t, results, 25)

	for i, res := range results {
		assert.Equal(t, ids[i], res.Target, "results keep context order")
	}

	assert.LessOrEqual(t, launcher.maxInFlight, DefaultMaxInFlight)
}

func TestRunnerRun_SubmissionOrderPreserved(t *testing.T) {
	defer goleak.VerifyNone(t)

	launcher := newFakeLauncher(time.Millisecond)
	runner := NewRunner(launcher)
	runner.MaxInFlight = 3

	ids := machineIDs(12)
	_, err := runner.Run(context.Background(), "echo {machine}", Machines(ids))
	require.NoError(t, err)

	targets := make([]string, 0, len(launcher.started))
	for _, inv := range launcher.started {
		targets = append(targets, inv.Target)
	}

	assert.Equal(t, ids, targets)
	assert.LessOrEqual(t, launcher.maxInFlight, 3)
}

func TestRunnerRun_FormatErrorStartsNothing(t *testing.T) {
	launcher := newFakeLauncher(0)
	runner := NewRunner(launcher)

	results, err := runner.Run(context.Background(), "echo {machine} {unit}", Machines([]string{"0", "1"}))

	require.ErrorIs(t, err, ErrMissingField)
	assert.Nil(t, results)
	assert.Zero(t, launcher.startedCount())
}

func TestRunnerRun_TokenizesUnlessShell(t *testing.T) {
	defer goleak.VerifyNone(t)

	launcher := newFakeLauncher(0)
	runner := NewRunner(launcher)

	_, err := runner.Run(context.Background(), `juju ssh --proxy {machine} -- "cd /x; dmesg > dmesg.log"`, Machines([]string{"0"}))
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "dmesg | gzip > {machine}.gz", Machines([]string{"1"}), WithShell())
	require.NoError(t, err)

	require.Len(t, launcher.started, 2)
	assert.Equal(t, []string{"juju", "ssh", "--proxy", "0", "--", "cd /x; dmesg > dmesg.log"}, launcher.started[0].Args)
	assert.False(t, launcher.started[0].Shell)
	assert.Equal(t, []string{ShellPath, "-c", "dmesg | gzip > 1.gz"}, launcher.started[1].Args)
	assert.True(t, launcher.started[1].Shell)
}

func TestRunnerRun_TimeoutAndLabelOptions(t *testing.T) {
	defer goleak.VerifyNone(t)

	launcher := newFakeLauncher(0)
	runner := NewRunner(launcher)

	_, err := runner.Run(context.Background(), "true", Units([]string{"app/0"}),
		WithTimeout(time.Second), WithLabel("dmesg/remote"), WithCwd("/tmp"))
	require.NoError(t, err)

	require.Len(t, launcher.started, 1)
	inv := launcher.started[0]
	assert.Equal(t, time.Second, inv.Timeout)
	assert.Equal(t, "dmesg/remote [app/0]", inv.Label)
	assert.Equal(t, "app/0", inv.Target)
	assert.Equal(t, "/tmp", inv.Cwd)
}

func TestRunnerRun_FailuresDoNotAbortSiblings(t *testing.T) {
	defer goleak.VerifyNone(t)

	launcher := newFakeLauncher(time.Millisecond)
	launcher.exitCodes["m01"] = 2

	runner := NewRunner(launcher)
	results, err := runner.Run(context.Background(), "echo {machine}", Machines(machineIDs(4)))
	require.NoError(t, err)

	require.Len(t, results, 4)
	assert.Equal(t, ResultStatusError, results[1].Status)
	assert.Equal(t, 2, results[1].ExitCode)

	for _, i := range []int{0, 2, 3} {
		assert.Equal(t, ResultStatusSuccess, results[i].Status)
	}

	assert.True(t, results.HasError())
	require.Error(t, results.Err())
	assert.Contains(t, results.Err().Error(), "m01")
}

func TestRunnerRun_CancelledContextSkipsRemaining(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	launcher := newFakeLauncher(0)
	runner := NewRunner(launcher)

	results, err := runner.Run(ctx, "echo {machine}", Machines(machineIDs(3)))
	require.NoError(t, err)

	require.Len(t, results, 3)

	for _, res := range results {
		assert.Equal(t, ResultStatusSkipped, res.Status)
		require.ErrorIs(t, res.Error, ErrSkipCancelled)
	}

	assert.Zero(t, launcher.startedCount())
}

func TestRunnerRun_MetricsAndProgress(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := prometheus.NewRegistry()
	reporter := progress.NewChannelReporter(context.Background(), 100)

	var (
		mu     sync.Mutex
		events []progress.EventType
	)

	reporter.Listen(progress.ListenerFunc(func(e progress.Event) {
		mu.Lock()
		defer mu.Unlock()

		events = append(events, e.Type)
	}))

	launcher := newFakeLauncher(time.Millisecond)
	launcher.exitCodes["m02"] = 1

	runner := NewRunner(launcher)
	runner.Metrics = NewMetrics(reg)
	runner.Reporter = reporter

	_, err := runner.Run(context.Background(), "echo {machine}", Machines(machineIDs(3)))
	require.NoError(t, err)
	reporter.Close()

	assert.InDelta(t, 2, testutil.ToFloat64(runner.Metrics.Invocations.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(runner.Metrics.Invocations.WithLabelValues("error")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(runner.Metrics.InFlight), 0)

	mu.Lock()
	defer mu.Unlock()

	assert.Len(t, events, 6)
	assert.Contains(t, events, progress.EventFailed)
}

func TestRunnerExec_RunsUnformatted(t *testing.T) {
	defer goleak.VerifyNone(t)

	launcher := newFakeLauncher(0)
	runner := NewRunner(launcher)

	inv, err := NewInvocation("local", "", "awk '{print $1}' file > out", true, 0)
	require.NoError(t, err)

	res := runner.Exec(context.Background(), inv)

	assert.Equal(t, ResultStatusSuccess, res.Status)
	require.Len(t, launcher.started, 1)
	assert.Equal(t, "awk '{print $1}' file > out", launcher.started[0].Args[2])
}

func TestEventPath(t *testing.T) {
	tests := []struct {
		inv  Invocation
		want []string
	}{
		{inv: Invocation{Label: "dmesg/remote [0]", Target: "0"}, want: []string{"dmesg", "remote", "0"}},
		{inv: Invocation{Label: "setup/mkdir /tmp/r/addons [0/lxd/1]", Target: "0/lxd/1"}, want: []string{"setup", "mkdir /tmp/r/addons", "0/lxd/1"}},
		{inv: Invocation{Label: "hi/local"}, want: []string{"hi", "local"}},
		{inv: Invocation{Label: "mysql/0", Target: "mysql/0"}, want: []string{"mysql/0"}},
	}

	for _, tt := range tests {
		t.Run(tt.inv.Label, func(t *testing.T) {
			assert.Equal(t, tt.want, eventPath(tt.inv))
		})
	}
}
