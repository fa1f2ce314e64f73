// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package transport builds the command lines used to reach remote machines and units.
//
// A transport never runs anything itself. It returns command templates for the batch runner,
// with the target left as a placeholder such as {machine} so that one template serves every
// context of a batch.
package transport

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/matt-FFFFFF/crashdump/internal/runbatch"
)

const (
	// NameJuju selects the Juju transport.
	NameJuju = "juju"
	// NameSSH selects the plain OpenSSH transport.
	NameSSH = "ssh"
)

// ErrUnknownTransport is returned by New when the transport name is not supported.
var ErrUnknownTransport = errors.New("unknown transport")

// Transport builds command templates that run commands on, or copy files to, a remote target.
type Transport interface {
	// Name returns the transport name.
	Name() string
	// Exec returns a template running remoteCommand on target.
	// remoteCommand is itself a template, literal braces must already be escaped.
	Exec(target, remoteCommand string) string
	// Copy returns a template recursively copying the local sources to dest on target.
	// sources and dest are literal paths.
	Copy(sources []string, target, dest string) string
}

// Names returns the supported transport names.
func Names() []string {
	return []string{NameJuju, NameSSH}
}

// New returns the transport with the given name, using binary as its executable when set.
func New(name, binary string) (Transport, error) {
	switch name {
	case NameJuju:
		return &Juju{Binary: binary, Proxy: true}, nil
	case NameSSH:
		return &SSH{Binary: binary}, nil
	default:
		return nil, fmt.Errorf("%w: %q, expected one of %s", ErrUnknownTransport, name, strings.Join(Names(), ", "))
	}
}

// literal quotes and escapes words so that they survive tokenizing and one template pass unchanged.
func literal(words ...string) string {
	return runbatch.Escape(shellquote.Join(words...))
}

// remoteWord quotes a remote command template as a single shell word.
func remoteWord(remoteCommand string) string {
	return shellquote.Join(remoteCommand)
}

func join(parts ...string) string {
	return strings.Join(slices.DeleteFunc(parts, func(s string) bool { return s == "" }), " ")
}
