// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package addonfile

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/crashdump/internal/addon"
)

// parseYAML decodes into ordered maps so that actions run in the order they are written.
func parseYAML(source string, data []byte) ([]Spec, error) {
	var doc yaml.MapSlice
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidAddonFile, source, err)
	}

	specs := make([]Spec, 0, len(doc))

	var result *multierror.Error

	for _, item := range doc {
		name, ok := item.Key.(string)
		if !ok {
			result = multierror.Append(result, fmt.Errorf("%w: %s: addon name %v is not a string", ErrInvalidAddonFile, source, item.Key))
			continue
		}

		actions, ok := item.Value.(yaml.MapSlice)
		if !ok {
			result = multierror.Append(result, fmt.Errorf("%w: %s: addon %q must map actions to commands", ErrInvalidAddonFile, source, name))
			continue
		}

		spec := Spec{Name: name, Source: source, Actions: make([]addon.ActionSpec, 0, len(actions))}

		for _, a := range actions {
			action, aok := a.Key.(string)
			command, cok := a.Value.(string)

			if !aok || !cok {
				result = multierror.Append(result, fmt.Errorf("%w: %s: addon %q: action %v must have a string command", ErrInvalidAddonFile, source, name, a.Key))
				continue
			}

			spec.Actions = append(spec.Actions, addon.ActionSpec{Name: action, Command: command})
		}

		specs = append(specs, spec)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	return specs, nil
}
