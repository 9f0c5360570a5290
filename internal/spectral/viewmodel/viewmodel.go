// Package viewmodel implements component E: the bi-log zoom mapping and
// the clamped pan/zoom view state that the tile manager and renderer both
// read.
package viewmodel

import (
	"math"
	"sort"
)

// Params are the config fields the view model needs, mirrored from
// specmodel.Config so this package has no dependency on the facade.
type Params struct {
	BaseSPP       float64
	MinZoomFactor float64
	MaxZoomFactor float64
	SnapRange     float64
	ZoomSteps     int
}

// View is the current pan/zoom state: the visible window of the track in
// seconds, plus the samples-per-pixel derived from the zoom factor.
type View struct {
	Start           float64
	Duration        float64
	SamplesPerPixel float64
	ZoomFactor      float64
}

// SliderToZoomFactor maps a normalized slider position t in [0,1] to a
// zoom factor using a bi-log curve: t=0 -> MinZoomFactor, t=0.5 -> 1,
// t=1 -> MaxZoomFactor, exponential on each side of the midpoint, so that
// within one half equal slider steps multiply the factor by the same
// ratio. A factor within SnapRange of 1 snaps exactly to 1.
func SliderToZoomFactor(t float64, p Params) float64 {
	t = clamp(t, 0, 1)
	var f float64
	switch {
	case t < 0.5:
		f = p.MinZoomFactor * math.Pow(1/p.MinZoomFactor, t/0.5)
	default:
		f = math.Pow(p.MaxZoomFactor, (t-0.5)/0.5)
	}
	if math.Abs(f-1) < p.SnapRange {
		f = 1
	}
	return f
}

// ZoomFactorToSamplesPerPixel derives samples-per-pixel from the zoom
// factor: higher zoom factor means fewer samples per pixel (more detail).
func ZoomFactorToSamplesPerPixel(zoomFactor float64, p Params) float64 {
	if zoomFactor <= 0 {
		zoomFactor = 1
	}
	return p.BaseSPP / zoomFactor
}

// SliderFromFactor is the inverse of SliderToZoomFactor: given a zoom
// factor, recover the slider position in [0,1] that produces it.
func SliderFromFactor(f float64, p Params) float64 {
	if f <= 0 {
		f = p.MinZoomFactor
	}
	if f <= 1 {
		lo := math.Log(p.MinZoomFactor)
		hi := 0.0
		if hi == lo {
			return 0
		}
		return 0.5 * (math.Log(f) - lo) / (hi - lo)
	}
	lo := 0.0
	hi := math.Log(p.MaxZoomFactor)
	return 0.5 + 0.5*(math.Log(f)-lo)/(hi-lo)
}

// AllowedSamplesPerPixel derives the fixed, sorted, deduplicated ladder
// of samples-per-pixel values ("allowed zoom levels"): evaluate the
// bi-log slider mapping at each integer slider position in
// [0, ZoomSteps], convert each resulting factor to samples-per-pixel, and
// dedupe. Computed once at construction; never mutated afterward.
func AllowedSamplesPerPixel(p Params) []float64 {
	steps := p.ZoomSteps
	if steps <= 0 {
		steps = 200
	}
	seen := make(map[float64]struct{}, steps+1)
	levels := make([]float64, 0, steps+1)
	for v := 0; v <= steps; v++ {
		f := SliderToZoomFactor(float64(v)/float64(steps), p)
		spp := ZoomFactorToSamplesPerPixel(f, p)
		// Round to guard against float noise producing near-duplicate
		// levels that differ only in the last bit or two.
		key := math.Round(spp*1e6) / 1e6
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		levels = append(levels, key)
	}
	sort.Float64s(levels)
	return levels
}

// SnapToAllowedLevel returns the entry of the sorted levels slice nearest
// to spp. An empty levels slice returns spp unchanged.
func SnapToAllowedLevel(spp float64, levels []float64) float64 {
	if len(levels) == 0 {
		return spp
	}
	i := sort.SearchFloat64s(levels, spp)
	if i == 0 {
		return levels[0]
	}
	if i >= len(levels) {
		return levels[len(levels)-1]
	}
	if spp-levels[i-1] <= levels[i]-spp {
		return levels[i-1]
	}
	return levels[i]
}

// New builds a View from a slider position and a requested visible window,
// clamping both pan and zoom to the track's bounds.
func New(sliderT, viewStart, viewportWidthPx, totalDuration float64, p Params) View {
	zf := SliderToZoomFactor(sliderT, p)
	spp := ZoomFactorToSamplesPerPixel(zf, p)

	// Duration visible is a function of samples-per-pixel and an assumed
	// viewport width in device-independent pixels; callers that render at
	// a concrete width recompute duration from spp*width/sampleRate, but
	// the view model itself only tracks the time window.
	view := View{
		Start:           viewStart,
		SamplesPerPixel: spp,
		ZoomFactor:      zf,
	}
	view.Duration = viewportWidthPx
	return ClampPan(view, totalDuration)
}

// ClampPan keeps the view's start within [0, max(0, totalDuration-duration)].
func ClampPan(v View, totalDuration float64) View {
	maxStart := totalDuration - v.Duration
	if maxStart < 0 {
		maxStart = 0
	}
	v.Start = clamp(v.Start, 0, maxStart)
	return v
}

// Pan shifts the view by deltaSeconds and re-clamps.
func Pan(v View, deltaSeconds, totalDuration float64) View {
	v.Start += deltaSeconds
	return ClampPan(v, totalDuration)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
