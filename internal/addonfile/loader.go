// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package addonfile

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/crashdump/internal/ctxlog"
	"github.com/spf13/afero"
)

// Loader reads addon files from the filesystem, or from any go-getter source.
type Loader struct {
	FS         afero.Fs        // Checked first for every source, nil to always use Fetch
	Duplicates DuplicatePolicy // What to do when a name is defined in more than one place
	// Fetch retrieves sources that are not on FS. Defaults to go-getter.
	Fetch func(ctx context.Context, url string) ([]byte, error)
}

// NewLoader returns a loader using the OS filesystem and go-getter.
func NewLoader(dup DuplicatePolicy) *Loader {
	return &Loader{
		FS:         afero.NewOsFs(),
		Duplicates: dup,
		Fetch:      getURL,
	}
}

// Read returns the content of a source.
func (l *Loader) Read(ctx context.Context, source string) ([]byte, error) {
	if source == BuiltinSource {
		return Builtin(), nil
	}

	if l.FS != nil {
		if ok, _ := afero.Exists(l.FS, source); ok {
			data, err := afero.ReadFile(l.FS, source)
			if err != nil {
				return nil, errors.Join(ErrGetAddonFile, err)
			}

			return data, nil
		}
	}

	fetch := l.Fetch
	if fetch == nil {
		fetch = getURL
	}

	ctxlog.Debug(ctx, "fetching addon file", "source", source)

	return fetch(ctx, source)
}

// ReadSpecs reads and parses every source, in order.
func (l *Loader) ReadSpecs(ctx context.Context, sources []string) ([]Spec, error) {
	var (
		specs  []Spec
		result *multierror.Error
	)

	for _, source := range sources {
		s, err := l.readSpecs(ctx, source)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		specs = append(specs, s...)
	}

	return specs, result.ErrorOrNil()
}

// LoadFiles loads the enabled addons of every source into one set.
// Sources are merged in order, see Set.Add. All errors are collected and returned together.
func (l *Loader) LoadFiles(ctx context.Context, sources []string, enabled []string, asRoot bool) (*Set, error) {
	set := NewSet()

	var result *multierror.Error

	for _, source := range sources {
		specs, err := l.readSpecs(ctx, source)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		if err := set.Add(ctx, specs, set.Enabled(enabled), asRoot, l.Duplicates); err != nil {
			result = multierror.Append(result, err)
		}

		set.Sources = append(set.Sources, source)
		ctxlog.Debug(ctx, "addon file loaded", "source", source, "addons", len(specs))
	}

	return set, result.ErrorOrNil()
}

func (l *Loader) readSpecs(ctx context.Context, source string) ([]Spec, error) {
	data, err := l.Read(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	return Parse(source, data)
}
