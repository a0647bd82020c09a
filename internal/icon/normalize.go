// SPDX-License-Identifier: MIT

package icon

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/google/renameio/v2"
	_ "golang.org/x/image/webp"
)

// maxSourcePixels bounds decoded thumbnails.
const maxSourcePixels = 4096 * 4096

// normalize decodes a thumbnail, flattens transparency onto white and fits
// it inside size x size preserving aspect ratio.
func normalize(data []byte, size int) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxSourcePixels {
		return nil, fmt.Errorf("unsupported dimensions %dx%d", cfg.Width, cfg.Height)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	b := src.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	flat := imaging.Overlay(bg, src, image.Pt(0, 0), 1.0)
	return imaging.Fit(flat, size, size, imaging.Lanczos), nil
}

// writePNG encodes img and atomically replaces path.
func writePNG(path string, img image.Image) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending icon file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if err := imaging.Encode(pending, img, imaging.PNG); err != nil {
		return fmt.Errorf("encode icon: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace icon file: %w", err)
	}
	return nil
}
