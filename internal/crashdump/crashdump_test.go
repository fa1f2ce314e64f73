// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package crashdump

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matt-FFFFFF/crashdump/internal/addon"
	"github.com/matt-FFFFFF/crashdump/internal/addonfile"
	"github.com/matt-FFFFFF/crashdump/internal/runbatch"
	"github.com/matt-FFFFFF/crashdump/internal/runbatch/runbatchtest"
	"github.com/matt-FFFFFF/crashdump/internal/scratch"
	"github.com/matt-FFFFFF/crashdump/internal/transport"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newDriver(t *testing.T, l *runbatchtest.Launcher, files map[string]string) *Driver {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}

	loader := &addonfile.Loader{
		FS: fs,
		Fetch: func(context.Context, string) ([]byte, error) {
			return nil, addonfile.ErrGetAddonFile
		},
	}

	return New(runbatch.NewRunner(l), &transport.Juju{Proxy: true}, loader)
}

// scratchIn points scratch directories at a test directory and returns it.
func scratchIn(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	stubs := gostub.Stub(&scratch.TempDirPath, func() string { return dir })
	t.Cleanup(stubs.Reset)

	return dir
}

func TestPaths(t *testing.T) {
	p := Paths("tmp", "abc")
	assert.Equal(t, "/tmp/abc/addons", p.Location)
	assert.Equal(t, "/tmp/abc/addon_output", p.Output)

	p = Paths("/var/tmp/", "x")
	assert.Equal(t, "/var/tmp/x/addons", p.Location)
	assert.Equal(t, "/var/tmp/x/addon_output", p.Output)
}

func TestRun_RemoteEndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := &runbatchtest.Launcher{Delay: 20 * time.Millisecond}
	d := newDriver(t, l, map[string]string{
		"/addons.yaml": "dmesg:\n  remote: dmesg > dmesg.log\n",
	})

	report, err := d.Run(context.Background(), Options{
		Files:    []string{"/addons.yaml"},
		Addons:   []string{"dmesg"},
		Machines: []string{"m0", "m1"},
		DumpRoot: "tmp",
		RunID:    "run1",
	})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/run1/addon_output", report.PullLocation)
	assert.Equal(t, "/tmp/run1/addons", report.PushLocation)
	assert.Equal(t, []string{
		"juju ssh --proxy m0 -- 'mkdir -p /tmp/run1/addons'",
		"juju ssh --proxy m1 -- 'mkdir -p /tmp/run1/addons'",
		"juju ssh --proxy m0 -- 'mkdir -p /tmp/run1/addon_output'",
		"juju ssh --proxy m1 -- 'mkdir -p /tmp/run1/addon_output'",
		"juju ssh --proxy m0 -- 'cd /tmp/run1/addons; dmesg > dmesg.log'",
		"juju ssh --proxy m1 -- 'cd /tmp/run1/addons; dmesg > dmesg.log'",
	}, l.Commands())
	assert.Equal(t, 2, l.MaxInFlight(), "invocations of a batch run concurrently")

	require.Len(t, report.Addons, 1)
	assert.Equal(t, "dmesg", report.Addons[0].Label)
	assert.Empty(t, report.Failed())

	require.NotNil(t, report.Setup)
	assert.Len(t, report.Setup.Children, 2)
	assert.Len(t, report.Results(), 2)
}

func TestRun_LocalScratchIsRemoved(t *testing.T) {
	defer goleak.VerifyNone(t)

	for _, tc := range []struct {
		name     string
		command  string
		exitCode int
		wantCopy bool
	}{
		{name: "local succeeds", command: "echo hi > hi.txt", wantCopy: true},
		{name: "local fails", command: "echo hi > hi.txt; exit 4"},
		{name: "copy fails", command: "echo hi > hi.txt", exitCode: 1, wantCopy: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tmp := scratchIn(t)

			l := &runbatchtest.Launcher{
				Local: &runbatch.OSLauncher{},
				ExitCode: func(inv runbatch.Invocation) int {
					if strings.Contains(inv.Command, " scp ") {
						return tc.exitCode
					}

					return 0
				},
			}
			d := newDriver(t, l, map[string]string{
				"/addons.yaml": "hi:\n  local: " + tc.command + "\n  remote: cat hi.txt\n",
			})

			report, err := d.Run(context.Background(), Options{
				Files:    []string{"/addons.yaml"},
				Addons:   []string{"hi"},
				Machines: []string{"0"},
				RunID:    "r",
				AsRoot:   true,
			})
			require.NoError(t, err)
			require.Len(t, report.Addons, 1)

			entries, err := os.ReadDir(tmp)
			require.NoError(t, err)
			assert.Empty(t, entries, "the scratch directory is removed")

			var copied bool

			for _, cmd := range l.Commands() {
				if strings.Contains(cmd, " scp ") {
					copied = true

					assert.Contains(t, cmd, "/hi.txt 0:/tmp/r/addons")
					assert.True(t, strings.HasPrefix(cmd, "juju scp --proxy -- -r "+tmp), cmd)
				}
			}

			assert.Equal(t, tc.wantCopy, copied)
		})
	}
}

func TestRun_KeepOutput(t *testing.T) {
	defer goleak.VerifyNone(t)

	scratchIn(t)

	keep := t.TempDir()
	l := &runbatchtest.Launcher{Local: &runbatch.OSLauncher{}}
	d := newDriver(t, l, map[string]string{
		"/addons.yaml": "hi:\n  local: echo hi > hi.txt\n",
	})

	_, err := d.Run(context.Background(), Options{
		Files:      []string{"/addons.yaml"},
		Addons:     []string{"hi"},
		Machines:   []string{"0"},
		RunID:      "r",
		AsRoot:     true,
		KeepOutput: keep,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(keep, "hi", "hi.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(data))
}

func TestRun_MissingAddon(t *testing.T) {
	l := &runbatchtest.Launcher{}
	d := newDriver(t, l, map[string]string{
		"/a.yaml": "dmesg:\n  remote: dmesg\n",
		"/b.yaml": "uptime:\n  remote: uptime\n",
	})

	report, err := d.Run(context.Background(), Options{
		Files:    []string{"/a.yaml", "/b.yaml"},
		Addons:   []string{"dmesg", "sosreport"},
		Machines: []string{"0"},
		RunID:    "r",
	})

	require.ErrorIs(t, err, ErrAddonNotDefined)

	var notDefined *AddonNotDefinedError
	require.ErrorAs(t, err, &notDefined)
	assert.Equal(t, "sosreport", notDefined.Name)
	assert.Equal(t, []string{"/a.yaml", "/b.yaml"}, notDefined.Sources)
	assert.ErrorContains(t, err, "/a.yaml, /b.yaml")
	assert.Nil(t, report)
	assert.Empty(t, l.Started(), "nothing runs remotely before the check")
}

func TestRun_RejectedAddonsAreSkipped(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := &runbatchtest.Launcher{}
	d := newDriver(t, l, map[string]string{
		"/a.yaml": "sos:\n  remote: sudo sosreport\ndmesg:\n  remote: dmesg\n",
	})

	report, err := d.Run(context.Background(), Options{
		Files:    []string{"/a.yaml"},
		Addons:   []string{"sos", "dmesg"},
		Machines: []string{"0"},
		RunID:    "r",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"sos"}, report.Rejected)
	require.Len(t, report.Addons, 1)
	assert.Equal(t, "dmesg", report.Addons[0].Label)

	for _, cmd := range l.Commands() {
		assert.NotContains(t, cmd, "sosreport")
	}
}

func TestRun_FailureDoesNotStopTheRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := &runbatchtest.Launcher{ExitCode: func(inv runbatch.Invocation) int {
		if strings.Contains(inv.Command, "false") {
			return 1
		}

		return 0
	}}
	d := newDriver(t, l, map[string]string{
		"/a.yaml": "broken:\n  remote: \"false\"\n  local-per-unit: \"juju show-unit {unit}\"\nok:\n  remote: uptime\n",
	})

	report, err := d.Run(context.Background(), Options{
		Files:    []string{"/a.yaml"},
		Addons:   []string{"broken", "ok"},
		Machines: []string{"0"},
		Units:    []string{"app/0"},
		RunID:    "r",
		AsRoot:   true,
		Policy:   addon.PolicyStrict,
	})
	require.NoError(t, err)

	require.Len(t, report.Addons, 2)
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, "broken", report.Failed()[0].Label)
	assert.Equal(t, runbatch.ResultStatusSkipped, report.Addons[0].Children[1].Status)
	assert.Equal(t, runbatch.ResultStatusSuccess, report.Addons[1].Status)
}

func TestRun_ConfigurationErrors(t *testing.T) {
	l := &runbatchtest.Launcher{}
	d := newDriver(t, l, map[string]string{
		"/a.yaml": "bad:\n  teleport: beam\nworse:\n  local-per-unit: \"echo {machine} {unit}\"\n",
	})

	_, err := d.Run(context.Background(), Options{
		Files:    []string{"/a.yaml"},
		Addons:   []string{"bad", "worse"},
		Machines: []string{"0"},
		RunID:    "r",
		AsRoot:   true,
	})

	require.ErrorIs(t, err, ErrLoadAddons)
	require.ErrorIs(t, err, addon.ErrUnknownAction)
	require.ErrorIs(t, err, addon.ErrInvalidPerUnitFields)
	assert.Empty(t, l.Started())

	_, err = d.Run(context.Background(), Options{Files: []string{"/a.yaml"}, Addons: []string{"bad"}})
	require.ErrorIs(t, err, ErrNoMachines)
}

func TestRun_BuiltinAddons(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("as root", func(t *testing.T) {
		l := &runbatchtest.Launcher{}
		d := newDriver(t, l, nil)

		report, err := d.Run(context.Background(), Options{
			Addons:   []string{"juju-show-unit"},
			Machines: []string{"0"},
			Units:    []string{"mysql/0", "mysql/1"},
			RunID:    "r",
			AsRoot:   true,
		})
		require.NoError(t, err)
		require.Len(t, report.Addons, 1)
		assert.Empty(t, report.Rejected)

		cmds := l.Commands()
		require.Len(t, cmds, 4)
		assert.True(t, strings.HasPrefix(cmds[2], "juju show-unit mysql/0 | "), cmds[2])
		assert.True(t, strings.HasPrefix(cmds[3], "juju show-unit mysql/1 | "), cmds[3])
	})

	t.Run("local actions need root", func(t *testing.T) {
		l := &runbatchtest.Launcher{}
		d := newDriver(t, l, nil)

		report, err := d.Run(context.Background(), Options{
			Addons:   []string{"juju-show-unit", "dmesg"},
			Machines: []string{"0"},
			Units:    []string{"mysql/0"},
			RunID:    "r",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"juju-show-unit"}, report.Rejected)
		require.Len(t, report.Addons, 1)
		assert.Equal(t, "dmesg", report.Addons[0].Label)

		for _, cmd := range l.Commands() {
			assert.NotContains(t, cmd, "show-unit")
		}
	})
}

func TestRun_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := &runbatchtest.Launcher{}
	d := newDriver(t, l, map[string]string{
		"/a.yaml": "dmesg:\n  remote: dmesg\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := d.Run(ctx, Options{
		Files:    []string{"/a.yaml"},
		Addons:   []string{"dmesg"},
		Machines: []string{"0"},
		RunID:    "r",
	})
	require.NoError(t, err)

	assert.Empty(t, l.Started())
	require.Len(t, report.Addons, 1)
	assert.True(t, errors.Is(report.Addons[0].Children[0].Children[0].Error, runbatch.ErrSkipCancelled))
}

func TestAddonNotDefinedError(t *testing.T) {
	err := &AddonNotDefinedError{Name: "x", Sources: []string{"a.yaml"}}
	assert.Equal(t, `the addon files "a.yaml" do not define x`, err.Error())
	assert.ErrorIs(t, err, ErrAddonNotDefined)
}
