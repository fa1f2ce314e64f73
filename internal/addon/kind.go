// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package addon

import (
	"errors"
	"fmt"
	"strings"
)

// ActionKind is the type of an addon action.
type ActionKind string

const (
	// KindLocal runs a command on the control host and pushes its files to the machines.
	KindLocal ActionKind = "local"
	// KindLocalPerUnit runs a command per machine or unit and stores its output remotely.
	KindLocalPerUnit ActionKind = "local-per-unit"
	// KindRemote runs a command on every machine.
	KindRemote ActionKind = "remote"
)

var (
	// ErrUnknownAction is returned for an action name that has no strategy.
	ErrUnknownAction = errors.New("unknown addon action")
	// ErrInvalidPerUnitFields is returned when a local-per-unit template does not use exactly one of {machine} or {unit}.
	ErrInvalidPerUnitFields = errors.New("invalid fields for local-per-unit")
	// ErrInvalidRemoteFields is returned when a remote template uses a placeholder other than {location} or {output}.
	ErrInvalidRemoteFields = errors.New("invalid fields for remote")
	// ErrEmptyCommand is returned when an action has no command.
	ErrEmptyCommand = errors.New("empty action command")
)

// Kinds returns the supported action kinds.
func Kinds() []ActionKind {
	return []ActionKind{KindLocal, KindLocalPerUnit, KindRemote}
}

// ParseActionKind returns the kind for an action name as written in an addon file.
func ParseActionKind(name string) (ActionKind, error) {
	k := ActionKind(name)
	if _, ok := strategies[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}

	return k, nil
}

// NeedsRoot reports whether an action name is restricted to runs with root authorization.
// Any action starting with "local" executes on the control host.
func NeedsRoot(actionName string) bool {
	return strings.HasPrefix(actionName, string(KindLocal))
}
