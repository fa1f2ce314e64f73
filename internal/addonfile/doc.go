// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package addonfile reads addon definition files and builds the set of addons for a run.
//
// Files are YAML, mapping addon names to ordered action/command pairs:
//
//	juju-show-unit:
//	  local-per-unit: juju show-unit {unit}
//
// or HCL, using one addon block per addon:
//
//	addon "juju-show-unit" {
//	  local-per-unit = "juju show-unit {unit}"
//	}
//
// Loading applies the privilege policy: without root authorization, addons using sudo or a
// local action are rejected, and stay rejected for every later file of the same run.
package addonfile
