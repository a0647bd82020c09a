// SPDX-License-Identifier: MIT

package playlist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/youngsadsatan/ssYouTube/internal/fsutil"
	xglog "github.com/youngsadsatan/ssYouTube/internal/log"
)

// FileName is the playlist file name for a category.
func FileName(category string) string { return category + ".m3u" }

// WriteFile atomically replaces <dir>/<Category>.m3u with doc and returns
// the path written.
func WriteFile(ctx context.Context, dir string, doc Document) (string, error) {
	logger := xglog.FromContext(ctx)

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create playlist dir: %w", err)
	}
	path, err := fsutil.Within(dir, FileName(doc.Category))
	if err != nil {
		return "", fmt.Errorf("playlist path: %w", err)
	}

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return "", fmt.Errorf("create pending M3U file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Str(xglog.FieldPlaylistPath, path).Msg("cleanup pending M3U file")
		}
	}()

	if err := WriteM3U(pendingFile, doc); err != nil {
		return "", fmt.Errorf("write M3U data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("atomically replace M3U file: %w", err)
	}
	return path, nil
}

// RemoveStale deletes the playlist of a category that has no entries this
// run. It reports whether a file was removed.
func RemoveStale(dir, category string) (bool, error) {
	path := filepath.Join(dir, FileName(category))
	err := os.Remove(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("remove stale playlist %s: %w", path, err)
	}
}
