// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package scratch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"slices"

	"github.com/matt-FFFFFF/crashdump/internal/ctxlog"
	"github.com/spf13/afero"
)

// FS is a filesystem abstraction used for file operations.
// Default is the OS filesystem, but can be replaced with a mock for testing.
var FS = afero.NewOsFs()

var (
	// ErrCreate is returned when the scratch directory cannot be created.
	ErrCreate = errors.New("failed to create scratch directory")
	// ErrRemove is returned when the scratch directory cannot be removed.
	ErrRemove = errors.New("failed to remove scratch directory")
	// ErrPanic is returned when the function run inside the scratch directory panics.
	ErrPanic = errors.New("panic in scratch directory function")
	// ErrFileCopy is returned when a file copy operation fails.
	ErrFileCopy = errors.New("file copy error")
	// ErrFilePath is returned when a file path operation fails.
	ErrFilePath = errors.New("file path error")
)

const (
	// sixFourFour is the file mode for files copied out of a scratch directory.
	sixFourFour = 0o644
	// sevenFiveFive is the file mode for directories copied out of a scratch directory.
	sevenFiveFive = 0o755
	// sevenHundred is the file mode of the scratch directory itself.
	sevenHundred = 0o700
	// tempDirSuffixLength is the length of the random suffix for the scratch directory.
	tempDirSuffixLength = 8
)

// TempDirPath returns the temporary directory to use.
var TempDirPath = os.TempDir

// RandomName generates a random string with the given prefix and length.
var RandomName = func(prefix string, n int) string {
	const letterBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))] //nolint:gosec
	}

	return prefix + string(b)
}

// Do creates a fresh directory, runs fn with its path and removes the directory afterwards.
// The directory is removed on every exit path, including when fn fails or panics.
// A panic in fn is returned as ErrPanic.
func Do(ctx context.Context, prefix string, fn func(dir string) error) (err error) {
	dir := filepath.Join(TempDirPath(), RandomName(prefix, tempDirSuffixLength))

	if err := FS.MkdirAll(dir, sevenHundred); err != nil {
		return errors.Join(ErrCreate, err)
	}

	ctxlog.Debug(ctx, "scratch directory created", "dir", dir)

	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(err, fmt.Errorf("%w: %v", ErrPanic, r))
		}

		if rmErr := FS.RemoveAll(dir); rmErr != nil {
			err = errors.Join(err, ErrRemove, rmErr)
			return
		}

		ctxlog.Debug(ctx, "scratch directory removed", "dir", dir)
	}()

	return fn(dir)
}

// List returns the paths of the entries of dir, sorted by name.
func List(dir string) ([]string, error) {
	entries, err := afero.ReadDir(FS, dir)
	if err != nil {
		return nil, errors.Join(ErrFilePath, err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, filepath.Join(dir, e.Name()))
	}

	slices.Sort(paths)

	return paths, nil
}

// CopyTree copies the contents of src into dst, creating dst if needed.
func CopyTree(ctx context.Context, src, dst string) error {
	if err := FS.MkdirAll(dst, sevenFiveFive); err != nil {
		return errors.Join(ErrFileCopy, err)
	}

	return afero.Walk(FS, src, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return err
		}

		if path == src {
			return nil
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Join(ErrFilePath, err)
		}

		dstPath := filepath.Clean(filepath.Join(dst, relPath))

		if info.IsDir() {
			return FS.MkdirAll(dstPath, sevenFiveFive)
		}

		data, err := afero.ReadFile(FS, path)
		if err != nil {
			return errors.Join(ErrFileCopy, err)
		}

		return afero.WriteFile(FS, dstPath, data, sixFourFour)
	})
}
