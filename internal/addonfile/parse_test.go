// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package addonfile

import (
	"os"
	"testing"

	"github.com/matt-FFFFFF/crashdump/internal/addon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actionNames(s Spec) []string {
	names := make([]string, 0, len(s.Actions))
	for _, a := range s.Actions {
		names = append(names, a.Name)
	}

	return names
}

func TestParseYAML_PreservesOrder(t *testing.T) {
	data := []byte(`
zeta:
  remote: uptime
  local-per-unit: "juju show-unit {unit}"
  local: touch a
alpha:
  local: touch b
  remote: ls
`)

	specs, err := Parse("addons.yaml", data)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, "zeta", specs[0].Name)
	assert.Equal(t, []string{"remote", "local-per-unit", "local"}, actionNames(specs[0]))
	assert.Equal(t, "alpha", specs[1].Name)
	assert.Equal(t, []string{"local", "remote"}, actionNames(specs[1]))
	assert.Equal(t, "addons.yaml", specs[1].Source)
	assert.Equal(t, addon.ActionSpec{Name: "local-per-unit", Command: "juju show-unit {unit}"}, specs[0].Actions[1])
}

func TestParseYAML_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not a mapping", data: "- a\n- b\n"},
		{name: "addon is a list", data: "x:\n  - remote\n"},
		{name: "addon is null", data: "x:\n"},
		{name: "command is a list", data: "x:\n  remote: [a, b]\n"},
		{name: "broken yaml", data: "x: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("addons.yaml", []byte(tt.data))
			require.ErrorIs(t, err, ErrInvalidAddonFile)
		})
	}
}

func TestParseYAML_Empty(t *testing.T) {
	specs, err := Parse("empty.yaml", nil)
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestParseHCL(t *testing.T) {
	data, err := os.ReadFile("testdata/addons.hcl")
	require.NoError(t, err)

	specs, err := Parse("testdata/addons.hcl", data)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, "juju-show-unit", specs[0].Name)
	assert.Equal(t, "juju show-unit {unit} --format yaml", specs[0].Actions[0].Command)

	assert.Equal(t, "ordered", specs[1].Name)
	assert.Equal(t, []string{"remote", "local-per-unit", "local"}, actionNames(specs[1]))
	assert.Equal(t, "juju status --format yaml > status.yaml\n", specs[1].Actions[2].Command)
}

func TestParseHCL_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "syntax", data: `addon "x" {`},
		{name: "other block", data: `workflow "x" {}`},
		{name: "no label", data: `addon { remote = "ls" }`},
		{name: "two labels", data: `addon "x" "y" { remote = "ls" }`},
		{name: "top level attribute", data: `remote = "ls"`},
		{name: "nested block", data: "addon \"x\" {\n  remote {}\n}\n"},
		{name: "null command", data: `addon "x" { remote = null }`},
		{name: "list command", data: `addon "x" { remote = ["a"] }`},
		{name: "variable", data: `addon "x" { remote = "${var.cmd}" }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("addons.hcl", []byte(tt.data))
			require.Error(t, err)
		})
	}

	_, err := Parse("addons.hcl", []byte(`workflow "x" {}`))

	var blockErr *InvalidBlockError
	require.ErrorAs(t, err, &blockErr)
	assert.Equal(t, "workflow", blockErr.BlockType)
	require.ErrorIs(t, err, ErrInvalidAddonFile)
}

func TestIsHCL(t *testing.T) {
	assert.True(t, isHCL("addons.hcl"))
	assert.True(t, isHCL("dir/ADDONS.HCL"))
	assert.True(t, isHCL("git::https://example.com/repo.git//addons.hcl?ref=v1"))
	assert.False(t, isHCL("addons.yaml"))
	assert.False(t, isHCL(BuiltinSource))
	assert.False(t, isHCL("https://example.com/hcl/addons.yml"))
}

func TestSpec_NeedsRoot(t *testing.T) {
	assert.False(t, Spec{Actions: []addon.ActionSpec{{Name: "remote", Command: "ls"}}}.NeedsRoot())
	assert.True(t, Spec{Actions: []addon.ActionSpec{{Name: "remote", Command: "sudo ls"}}}.NeedsRoot())
	assert.True(t, Spec{Actions: []addon.ActionSpec{{Name: "local", Command: "ls"}}}.NeedsRoot())
	assert.True(t, Spec{Actions: []addon.ActionSpec{{Name: "local-setup", Command: "ls"}}}.NeedsRoot())
}
