// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package addonfile

import (
	_ "embed"
)

// BuiltinSource is the source name of the addon file shipped with the binary.
const BuiltinSource = "builtin"

//go:embed builtin.yaml
var builtinYAML []byte

// Builtin returns the content of the addon file shipped with the binary.
func Builtin() []byte {
	return append([]byte(nil), builtinYAML...)
}
