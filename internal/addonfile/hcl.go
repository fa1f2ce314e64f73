// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package addonfile

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/matt-FFFFFF/crashdump/internal/addon"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

const addonBlockType = "addon"

// InvalidBlockError is returned for HCL content other than addon blocks.
type InvalidBlockError struct {
	BlockType string
	Range     hcl.Range
}

// Error implements the error interface.
func (e *InvalidBlockError) Error() string {
	return fmt.Sprintf("%s: invalid block type %q, only %q blocks are supported", e.Range.String(), e.BlockType, addonBlockType)
}

// Unwrap makes the error match ErrInvalidAddonFile.
func (e *InvalidBlockError) Unwrap() error {
	return ErrInvalidAddonFile
}

// parseHCL reads addon blocks. Attributes are ordered by their position in the file.
func parseHCL(source string, data []byte) ([]Spec, error) {
	file, diags := hclsyntax.ParseConfig(data, source, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, multierror.Append(fmt.Errorf("%w: %s", ErrInvalidAddonFile, source), diags.Errs()...)
	}

	body := file.Body.(*hclsyntax.Body) //nolint:forcetypeassert

	var result *multierror.Error

	for _, attr := range body.Attributes {
		result = multierror.Append(result, &InvalidBlockError{BlockType: attr.Name, Range: attr.SrcRange})
	}

	specs := make([]Spec, 0, len(body.Blocks))

	for _, block := range body.Blocks {
		if block.Type != addonBlockType {
			result = multierror.Append(result, &InvalidBlockError{BlockType: block.Type, Range: block.TypeRange})
			continue
		}

		if len(block.Labels) != 1 {
			result = multierror.Append(result,
				fmt.Errorf("%w: %s: addon block must have exactly one label, the addon name", ErrInvalidAddonFile, block.TypeRange.String()))

			continue
		}

		for _, nested := range block.Body.Blocks {
			result = multierror.Append(result, &InvalidBlockError{BlockType: nested.Type, Range: nested.TypeRange})
		}

		spec, err := hclSpec(source, block)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		specs = append(specs, spec)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	return specs, nil
}

func hclSpec(source string, block *hclsyntax.Block) (Spec, error) {
	attrs := slices.SortedFunc(maps.Values(block.Body.Attributes), func(a, b *hclsyntax.Attribute) int {
		return cmp.Compare(a.SrcRange.Start.Byte, b.SrcRange.Start.Byte)
	})

	spec := Spec{Name: block.Labels[0], Source: source, Actions: make([]addon.ActionSpec, 0, len(attrs))}

	var result *multierror.Error

	for _, attr := range attrs {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			result = multierror.Append(result, diags.Errs()...)
			continue
		}

		if v.IsNull() || !v.IsKnown() {
			result = multierror.Append(result,
				fmt.Errorf("%w: %s: action %q has no command", ErrInvalidAddonFile, attr.SrcRange.String(), attr.Name))

			continue
		}

		s, err := convert.Convert(v, cty.String)
		if err != nil {
			result = multierror.Append(result,
				fmt.Errorf("%w: %s: action %q must have a string command: %w", ErrInvalidAddonFile, attr.SrcRange.String(), attr.Name, err))

			continue
		}

		spec.Actions = append(spec.Actions, addon.ActionSpec{Name: attr.Name, Command: s.AsString()})
	}

	return spec, result.ErrorOrNil()
}
