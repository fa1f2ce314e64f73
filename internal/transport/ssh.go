// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package transport

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	defaultSSHBinary = "ssh"
	defaultSCPBinary = "scp"
)

var _ Transport = (*SSH)(nil)

// SSH reaches machines with the OpenSSH client, the target is used as the host name.
type SSH struct {
	Binary     string   // Path to ssh, defaults to "ssh"
	CopyBinary string   // Path to scp, defaults to "scp" next to Binary
	User       string   // Remote user, empty for the ssh default
	Options    []string // Extra -o options, e.g. "StrictHostKeyChecking=no"
}

// Name implements Transport.
func (s *SSH) Name() string {
	return NameSSH
}

// Exec implements Transport.
func (s *SSH) Exec(target, remoteCommand string) string {
	return join(s.ssh(), s.options(), s.host(target), "--", remoteWord(remoteCommand))
}

// Copy implements Transport.
func (s *SSH) Copy(sources []string, target, dest string) string {
	return join(s.scp(), s.options(), "-r", literal(sources...), fmt.Sprintf("%s:%s", s.host(target), literal(dest)))
}

func (s *SSH) host(target string) string {
	if s.User == "" {
		return target
	}

	return literal(s.User) + "@" + target
}

func (s *SSH) options() string {
	opts := make([]string, 0, len(s.Options)*2) //nolint:mnd
	for _, o := range s.Options {
		opts = append(opts, "-o", o)
	}

	if len(opts) == 0 {
		return ""
	}

	return literal(opts...)
}

func (s *SSH) ssh() string {
	if s.Binary == "" {
		return defaultSSHBinary
	}

	return literal(s.Binary)
}

func (s *SSH) scp() string {
	switch {
	case s.CopyBinary != "":
		return literal(s.CopyBinary)
	case strings.ContainsRune(s.Binary, filepath.Separator):
		return literal(filepath.Join(filepath.Dir(s.Binary), defaultSCPBinary))
	default:
		return defaultSCPBinary
	}
}
