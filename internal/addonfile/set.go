// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package addonfile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/crashdump/internal/addon"
	"github.com/matt-FFFFFF/crashdump/internal/ctxlog"
)

// ErrDuplicateAddon is returned when an addon is defined twice and duplicates are not allowed.
var ErrDuplicateAddon = errors.New("duplicate addon definition")

// DuplicatePolicy decides what happens when an addon name is defined more than once.
type DuplicatePolicy int

const (
	// DuplicateOverride keeps the last definition.
	DuplicateOverride DuplicatePolicy = iota
	// DuplicateError fails the load.
	DuplicateError
)

// String implements fmt.Stringer.
func (p DuplicatePolicy) String() string {
	if p == DuplicateError {
		return "error"
	}

	return "override"
}

// ParseDuplicatePolicy converts a policy name to a DuplicatePolicy.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(s) {
	case "", "override":
		return DuplicateOverride, nil
	case "error":
		return DuplicateError, nil
	default:
		return DuplicateOverride, fmt.Errorf("unknown duplicate policy %q, expected override or error", s)
	}
}

// Set is the result of loading addon files.
type Set struct {
	Addons   map[string]*addon.Addon // Loaded addons by name
	Rejected []string                // Names rejected for lack of root authorization, in rejection order
	Sources  []string                // Files loaded, in order
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{Addons: make(map[string]*addon.Addon)}
}

// Load builds a set from specs. Only specs named in enabled are considered, the others are
// not validated. Without asRoot, addons that need root are rejected with a warning.
// Validation errors are aggregated, the set holds every addon that was valid.
func Load(ctx context.Context, specs []Spec, enabled []string, asRoot bool) (*Set, error) {
	s := NewSet()
	err := s.Add(ctx, specs, enabled, asRoot, DuplicateOverride)

	return s, err
}

// Add merges specs into the set following the same rules as Load.
// A rejected name stays rejected: later definitions are skipped and an earlier one is removed.
func (s *Set) Add(ctx context.Context, specs []Spec, enabled []string, asRoot bool, dup DuplicatePolicy) error {
	logger := ctxlog.Logger(ctx)

	var result *multierror.Error

	for _, spec := range specs {
		if !slices.Contains(enabled, spec.Name) || s.IsRejected(spec.Name) {
			logger.Debug("addon not enabled, skipping", "addon", spec.Name, "source", spec.Source)
			continue
		}

		if !asRoot && spec.NeedsRoot() {
			logger.Warn("the as-root flag must be used to run addon", "addon", spec.Name, "source", spec.Source)
			s.reject(spec.Name)

			continue
		}

		if prev, ok := s.Addons[spec.Name]; ok {
			if dup == DuplicateError {
				result = multierror.Append(result,
					fmt.Errorf("%w: %q in %s, already defined in %s", ErrDuplicateAddon, spec.Name, spec.Source, prev.Source))

				continue
			}

			logger.Info("addon redefined, using the latest definition", "addon", spec.Name, "source", spec.Source, "previous", prev.Source)
		}

		a, err := addon.New(spec.Name, spec.Source, spec.Actions)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", spec.Source, err))
			continue
		}

		s.Addons[spec.Name] = a
	}

	return result.ErrorOrNil()
}

// Enabled returns the requested names that have not been rejected, in request order.
func (s *Set) Enabled(requested []string) []string {
	out := make([]string, 0, len(requested))

	for _, name := range requested {
		if !s.IsRejected(name) {
			out = append(out, name)
		}
	}

	return out
}

// IsRejected reports whether the addon was rejected for lack of root authorization.
func (s *Set) IsRejected(name string) bool {
	return slices.Contains(s.Rejected, name)
}

// Names returns the names of the loaded addons, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.Addons))
	for name := range s.Addons {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func (s *Set) reject(name string) {
	delete(s.Addons, name)

	if !s.IsRejected(name) {
		s.Rejected = append(s.Rejected, name)
	}
}
