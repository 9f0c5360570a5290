// Package renderexport saves a painted RGBA tile (the output of
// internal/spectral/render.Paint) as a PNG, using eligwz/spectrogram's
// image type and SavePng helper instead of going through the standard
// library's image/png encoder directly.
package renderexport

import (
	"image"
	"image/draw"

	"github.com/eligwz/spectrogram"

	"github.com/kakira9618/spectralcore/internal/errs"
)

// SavePNG composes an RGBA8 buffer (wDev x hDev, as produced by
// render.Paint) onto an eligwz/spectrogram image and writes it to path.
func SavePNG(buf []byte, wDev, hDev int, path string) error {
	if len(buf) < wDev*hDev*4 {
		return errs.New(errs.InvalidSize).Op("renderexport.SavePNG").Context("want_bytes", wDev*hDev*4).Context("got_bytes", len(buf)).Build()
	}

	rect := image.Rect(0, 0, wDev, hDev)
	src := &image.RGBA{
		Pix:    buf,
		Stride: wDev * 4,
		Rect:   rect,
	}

	dst := spectrogram.NewImage128(rect)
	draw.Draw(dst, rect, src, image.Point{}, draw.Src)

	return spectrogram.SavePng(dst, path)
}
