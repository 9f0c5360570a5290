// Package render implements component F: a pure function that paints a
// Spectrogram into an RGBA byte buffer given the current view, using a
// precomputed 256-entry color lookup table.
package render

import (
	"github.com/kakira9618/spectralcore/internal/specmodel"
	"github.com/kakira9618/spectralcore/internal/spectral/viewmodel"
)

// LUT is a precomputed 256-entry RGB ramp built from a ColorStop sequence.
type LUT [256][3]uint8

// BuildLUT interpolates ColorStops (sorted by Pos ascending) into a dense
// 256-entry ramp. Stops must include Pos 0 and Pos 1 endpoints; callers
// that configure fewer stops get the nearest defined color clamped at the
// ends.
func BuildLUT(stops []specmodel.ColorStop) LUT {
	var lut LUT
	if len(stops) == 0 {
		return lut
	}
	for i := 0; i < 256; i++ {
		pos := float64(i) / 255
		lut[i] = sampleStops(stops, pos)
	}
	return lut
}

func sampleStops(stops []specmodel.ColorStop, pos float64) [3]uint8 {
	if pos <= stops[0].Pos {
		s := stops[0]
		return [3]uint8{s.R, s.G, s.B}
	}
	last := stops[len(stops)-1]
	if pos >= last.Pos {
		return [3]uint8{last.R, last.G, last.B}
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if pos <= b.Pos {
			span := b.Pos - a.Pos
			t := 0.0
			if span > 0 {
				t = (pos - a.Pos) / span
			}
			return [3]uint8{
				lerpByte(a.R, b.R, t),
				lerpByte(a.G, b.G, t),
				lerpByte(a.B, b.B, t),
			}
		}
	}
	return [3]uint8{last.R, last.G, last.B}
}

func lerpByte(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

// Paint fills buf (len == wDev*hDev*4, RGBA8) with the spectrogram as seen
// through view, scaled by dpr device pixels per logical pixel. Frequency
// increases upward (row 0 of buf is the highest bin). Columns outside the
// spectrogram's analyzed slice are painted transparent black.
func Paint(spec *specmodel.Spectrogram, view viewmodel.View, lut LUT, buf []byte, wDev, hDev int, dpr float64) {
	if wDev <= 0 || hDev <= 0 || len(buf) < wDev*hDev*4 {
		return
	}
	if spec == nil || spec.SampleRate <= 0 || spec.HopSize <= 0 {
		for i := range buf {
			buf[i] = 0
		}
		return
	}

	secondsPerDevicePixel := view.SamplesPerPixel / dpr / float64(spec.SampleRate)

	for x := 0; x < wDev; x++ {
		t := view.Start + float64(x)*secondsPerDevicePixel
		frame := int((t - spec.SliceStart) * float64(spec.SampleRate) / float64(spec.HopSize))

		for y := 0; y < hDev; y++ {
			off := (y*wDev + x) * 4
			if frame < 0 || frame >= spec.Frames {
				buf[off] = 0
				buf[off+1] = 0
				buf[off+2] = 0
				buf[off+3] = 0
				continue
			}

			bin := spec.Bins - 1 - (y * spec.Bins / hDev)
			if bin < 0 {
				bin = 0
			}
			if bin >= spec.Bins {
				bin = spec.Bins - 1
			}

			v := spec.At(frame, bin)
			idx := int(v * 255)
			if idx < 0 {
				idx = 0
			}
			if idx > 255 {
				idx = 255
			}
			c := lut[idx]
			buf[off] = c[0]
			buf[off+1] = c[1]
			buf[off+2] = c[2]
			buf[off+3] = 255
		}
	}
}
