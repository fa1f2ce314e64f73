// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"maps"
)

const (
	// MachineField is the placeholder name that identifies a machine target.
	MachineField = "machine"
	// UnitField is the placeholder name that identifies a unit target.
	UnitField = "unit"
)

// Context holds the named fields used to fill one instantiation of a command template.
// A Context must not be modified after it is created, use With to derive a new one.
type Context map[string]string

// Machines returns one Context per machine identifier.
func Machines(ids []string) []Context {
	return contextsFor(MachineField, ids)
}

// Units returns one Context per unit identifier.
func Units(ids []string) []Context {
	return contextsFor(UnitField, ids)
}

func contextsFor(field string, ids []string) []Context {
	ctxs := make([]Context, 0, len(ids))
	for _, id := range ids {
		ctxs = append(ctxs, Context{field: id})
	}

	return ctxs
}

// With returns a copy of the context with the supplied fields added.
// Fields already present in the context take precedence.
func (c Context) With(fields map[string]string) Context {
	out := make(Context, len(c)+len(fields))
	maps.Copy(out, fields)
	maps.Copy(out, c)

	return out
}

// Target returns the machine or unit identifier of the context, or an empty string.
func (c Context) Target() string {
	if v, ok := c[UnitField]; ok {
		return v
	}

	return c[MachineField]
}
