// SPDX-License-Identifier: MIT

// Package icon maintains the on-disk channel icon cache.
package icon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/youngsadsatan/ssYouTube/internal/catalog"
	"github.com/youngsadsatan/ssYouTube/internal/config"
	"github.com/youngsadsatan/ssYouTube/internal/fsutil"
	xglog "github.com/youngsadsatan/ssYouTube/internal/log"
	"github.com/youngsadsatan/ssYouTube/internal/metrics"
	"github.com/youngsadsatan/ssYouTube/internal/telemetry"
	"github.com/youngsadsatan/ssYouTube/internal/upstream"
)

// ErrNotFound means no candidate thumbnail could be downloaded and decoded.
var ErrNotFound = errors.New("icon: no usable thumbnail")

// Asset is a cached icon.
type Asset struct {
	Channel   catalog.ChannelRef
	LocalPath string
	// SourceURL is the thumbnail the icon was built from. Empty for a cache hit.
	SourceURL string
}

// Fetcher retrieves a page. *upstream.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) (*upstream.Page, error)
}

// Options configure a Resolver. Zero values take defaults.
type Options struct {
	Dir         string
	URLTemplate string
	Resolutions []string
	Size        int
}

// Resolver downloads and normalizes channel icons at most once per handle.
type Resolver struct {
	fetcher     Fetcher
	dir         string
	template    string
	resolutions []string
	size        int

	group  singleflight.Group
	tracer trace.Tracer
}

// NewResolver returns a Resolver writing into opts.Dir.
func NewResolver(f Fetcher, opts Options) (*Resolver, error) {
	if f == nil {
		return nil, errors.New("icon: fetcher is required")
	}
	if opts.Dir == "" {
		return nil, errors.New("icon: directory is required")
	}
	if opts.URLTemplate == "" {
		opts.URLTemplate = config.DefaultIconURLTemplate
	}
	if len(opts.Resolutions) == 0 {
		opts.Resolutions = config.DefaultIconResolutions()
	}
	if opts.Size <= 0 {
		opts.Size = config.DefaultIconSize
	}
	return &Resolver{
		fetcher:     f,
		dir:         opts.Dir,
		template:    opts.URLTemplate,
		resolutions: append([]string(nil), opts.Resolutions...),
		size:        opts.Size,
		tracer:      telemetry.Tracer("ssyoutube/icon"),
	}, nil
}

// Path is where the icon for handle lives.
func (r *Resolver) Path(handle string) string {
	return filepath.Join(r.dir, FileName(handle))
}

// Ensure returns the cached icon for ch, downloading it from the thumbnails
// of sourceID when absent. A present file is returned without any network
// access. Concurrent calls for one handle share a single download.
func (r *Resolver) Ensure(ctx context.Context, ch catalog.ChannelRef, sourceID string) (Asset, error) {
	path := r.Path(ch.Handle)
	if ok, err := exists(path); err != nil {
		return Asset{}, fmt.Errorf("%w: %s: %w", ErrNotFound, ch.Handle, err)
	} else if ok {
		metrics.IncIcon("cached")
		xglog.FromContext(ctx).Debug().
			Str(xglog.FieldEvent, "icon.cached").
			Str(xglog.FieldHandle, ch.Handle).
			Str(xglog.FieldIconPath, path).
			Msg("icon already cached")
		return Asset{Channel: ch, LocalPath: path}, nil
	}

	v, err, _ := r.group.Do(path, func() (any, error) {
		return r.download(ctx, ch, sourceID, path)
	})
	if err != nil {
		return Asset{}, err
	}
	a := v.(Asset)
	a.Channel = ch
	return a, nil
}

func (r *Resolver) download(ctx context.Context, ch catalog.ChannelRef, sourceID, path string) (a Asset, err error) {
	ctx, span := r.tracer.Start(ctx, "icon.ensure", trace.WithAttributes(
		append(telemetry.ChannelAttributes(ch.Category, ch.Handle), attribute.String(telemetry.WatchIDKey, sourceID))...))
	defer func() { telemetry.End(span, err) }()

	logger := xglog.WithComponentFromContext(ctx, "icon").With().
		Str(xglog.FieldHandle, ch.Handle).
		Logger()

	// Another caller may have finished between the stat and the flight.
	if ok, _ := exists(path); ok {
		metrics.IncIcon("cached")
		return Asset{LocalPath: path}, nil
	}
	if sourceID == "" {
		metrics.IncIcon("missing")
		return Asset{}, fmt.Errorf("%w: %s: no source id", ErrNotFound, ch.Handle)
	}
	if err := os.MkdirAll(r.dir, 0o750); err != nil {
		return Asset{}, fmt.Errorf("%w: %s: create icon dir: %w", ErrNotFound, ch.Handle, err)
	}
	if _, err := fsutil.Within(r.dir, filepath.Base(path)); err != nil {
		return Asset{}, fmt.Errorf("%w: %s: %w", ErrNotFound, ch.Handle, err)
	}

	var errs []error
	for _, candidate := range r.candidates(sourceID) {
		if err := ctx.Err(); err != nil {
			return Asset{}, err
		}
		page, err := r.fetcher.Get(ctx, candidate)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if page.Status != http.StatusOK {
			errs = append(errs, fmt.Errorf("%s: status %d", candidate, page.Status))
			continue
		}
		img, err := normalize(page.Body, r.size)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", candidate, err))
			continue
		}
		if err := writePNG(path, img); err != nil {
			return Asset{}, fmt.Errorf("%w: %s: %w", ErrNotFound, ch.Handle, err)
		}
		metrics.IncIcon("downloaded")
		logger.Info().
			Str(xglog.FieldEvent, "icon.downloaded").
			Str(xglog.FieldIconPath, path).
			Str(xglog.FieldURL, candidate).
			Msg("icon stored")
		return Asset{LocalPath: path, SourceURL: candidate}, nil
	}

	metrics.IncIcon("missing")
	logger.Debug().Str(xglog.FieldEvent, "icon.missing").Int("candidates", len(errs)).Msg("no usable thumbnail")
	return Asset{}, fmt.Errorf("%w: %s: %w", ErrNotFound, ch.Handle, errors.Join(errs...))
}

func (r *Resolver) candidates(sourceID string) []string {
	out := make([]string, 0, len(r.resolutions))
	id := url.PathEscape(sourceID)
	for _, res := range r.resolutions {
		out = append(out, strings.NewReplacer("{id}", id, "{res}", url.PathEscape(res)).Replace(r.template))
	}
	return out
}

// FileName maps a handle to its icon file name. Characters that are unsafe in
// a file name are replaced with '_'.
func FileName(handle string) string {
	var b strings.Builder
	for _, c := range handle {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '@', c == '_', c == '-':
			b.WriteRune(c)
		case c == '.' && b.Len() > 0:
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_.png"
	}
	return b.String() + ".png"
}

// LogoURL is the playlist logo reference for a. With an empty base the icon
// is referenced relative to playlistDir, so playlists served next to the
// icon directory resolve it; the local path is used when no relative form
// exists.
func LogoURL(base, playlistDir string, a Asset) string {
	if a.LocalPath == "" {
		return ""
	}
	if base != "" {
		return strings.TrimRight(base, "/") + "/" + url.PathEscape(filepath.Base(a.LocalPath))
	}
	if playlistDir == "" {
		return a.LocalPath
	}
	rel, err := filepath.Rel(playlistDir, a.LocalPath)
	if err != nil {
		return a.LocalPath
	}
	segs := strings.Split(filepath.ToSlash(rel), "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

func exists(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return info.Mode().IsRegular() && info.Size() > 0, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
