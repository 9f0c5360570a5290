package render

import (
	"testing"

	"github.com/kakira9618/spectralcore/internal/specmodel"
	"github.com/kakira9618/spectralcore/internal/spectral/viewmodel"
)

func testStops() []specmodel.ColorStop {
	return []specmodel.ColorStop{
		{Pos: 0.00, R: 5, G: 8, B: 17},
		{Pos: 0.25, R: 32, G: 54, B: 120},
		{Pos: 0.50, R: 69, G: 137, B: 205},
		{Pos: 0.70, R: 255, G: 209, B: 102},
		{Pos: 0.85, R: 255, G: 128, B: 96},
		{Pos: 1.00, R: 255, G: 255, B: 255},
	}
}

func TestBuildLUTEndpoints(t *testing.T) {
	lut := BuildLUT(testStops())
	if lut[0] != [3]uint8{5, 8, 17} {
		t.Fatalf("lut[0] = %v", lut[0])
	}
	if lut[255] != [3]uint8{255, 255, 255} {
		t.Fatalf("lut[255] = %v", lut[255])
	}
}

func TestPaintFillsOpaqueWithinSlice(t *testing.T) {
	spec := &specmodel.Spectrogram{
		Data:          make([]float32, 10*64),
		Frames:        10,
		Bins:          64,
		HopSize:       100,
		FFTSize:       128,
		SampleRate:    1000,
		SliceStart:    0,
		SliceDuration: 1,
		TotalDuration: 1,
	}
	for i := range spec.Data {
		spec.Data[i] = 0.5
	}
	view := viewmodel.View{Start: 0, SamplesPerPixel: 10, ZoomFactor: 1}
	lut := BuildLUT(testStops())

	w, h := 4, 4
	buf := make([]byte, w*h*4)
	Paint(spec, view, lut, buf, w, h, 1)

	if buf[3] != 255 {
		t.Fatalf("expected opaque alpha at origin, got %d", buf[3])
	}
}

func TestPaintTransparentOutsideSlice(t *testing.T) {
	spec := &specmodel.Spectrogram{
		Data:       make([]float32, 10*64),
		Frames:     10,
		Bins:       64,
		HopSize:    100,
		FFTSize:    128,
		SampleRate: 1000,
		SliceStart: 100,
	}
	view := viewmodel.View{Start: 0, SamplesPerPixel: 10, ZoomFactor: 1}
	lut := BuildLUT(testStops())

	w, h := 2, 2
	buf := make([]byte, w*h*4)
	Paint(spec, view, lut, buf, w, h, 1)
	if buf[3] != 0 {
		t.Fatalf("expected transparent alpha outside slice, got %d", buf[3])
	}
}
