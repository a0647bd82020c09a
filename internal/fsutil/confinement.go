// SPDX-License-Identifier: MIT

// Package fsutil keeps generated files inside their output directories.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEscapesRoot reports a target that resolves outside its root.
var ErrEscapesRoot = errors.New("path escapes root")

// Within joins root and name and verifies that the result, after resolving
// symlinks, stays underneath root. name must be relative and may not
// contain backslashes. The returned path is the unresolved join.
func Within(root, name string) (string, error) {
	if strings.Contains(name, `\`) {
		return "", fmt.Errorf("%w: backslash in %q", ErrEscapesRoot, name)
	}
	clean := filepath.Clean(name)
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: %q is absolute", ErrEscapesRoot, name)
	}
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrEscapesRoot, name)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return "", err
		}
		realRoot = absRoot
	}

	joined := filepath.Join(root, clean)
	realPath, err := resolve(filepath.Join(realRoot, clean))
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(realRoot, realPath)
	if err != nil {
		return "", fmt.Errorf("rel computation failed: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s resolves to %s", ErrEscapesRoot, joined, realPath)
	}
	return joined, nil
}

// resolve follows symlinks of an existing path, or of its parent when the
// path itself does not exist yet.
func resolve(full string) (string, error) {
	if _, err := os.Lstat(full); err == nil {
		rp, err := filepath.EvalSymlinks(full)
		if err != nil {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		return rp, nil
	}
	dir := filepath.Dir(full)
	rp, err := filepath.EvalSymlinks(dir)
	if err == nil {
		return filepath.Join(rp, filepath.Base(full)), nil
	}
	if _, statErr := os.Stat(dir); statErr == nil {
		return "", fmt.Errorf("failed to resolve parent path: %w", err)
	}
	return full, nil
}
