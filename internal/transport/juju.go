// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package transport

import "fmt"

const defaultJujuBinary = "juju"

var _ Transport = (*Juju)(nil)

// Juju reaches machines and units through `juju ssh` and `juju scp`.
// Targets may be machine numbers or unit names.
type Juju struct {
	Binary string // Path to the juju client, defaults to "juju"
	Proxy  bool   // Route connections through the controller
}

// Name implements Transport.
func (j *Juju) Name() string {
	return NameJuju
}

// Exec implements Transport.
func (j *Juju) Exec(target, remoteCommand string) string {
	return join(j.binary(), "ssh", j.proxy(), target, "--", remoteWord(remoteCommand))
}

// Copy implements Transport.
func (j *Juju) Copy(sources []string, target, dest string) string {
	return join(j.binary(), "scp", j.proxy(), "--", "-r", literal(sources...), fmt.Sprintf("%s:%s", target, literal(dest)))
}

func (j *Juju) binary() string {
	if j.Binary == "" {
		return defaultJujuBinary
	}

	return literal(j.Binary)
}

func (j *Juju) proxy() string {
	if j.Proxy {
		return "--proxy"
	}

	return ""
}
