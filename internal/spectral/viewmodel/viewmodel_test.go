package viewmodel

import "testing"

func testParams() Params {
	return Params{
		BaseSPP:       2048,
		MinZoomFactor: 0.125,
		MaxZoomFactor: 256,
		SnapRange:     0.1,
		ZoomSteps:     200,
	}
}

func TestSliderToZoomFactorBounds(t *testing.T) {
	p := testParams()
	if f := SliderToZoomFactor(0, p); f != p.MinZoomFactor {
		t.Fatalf("f(0) = %v, want %v", f, p.MinZoomFactor)
	}
	if f := SliderToZoomFactor(1, p); f != p.MaxZoomFactor {
		t.Fatalf("f(1) = %v, want %v", f, p.MaxZoomFactor)
	}
}

func TestSliderToZoomFactorSnapsAtMidpoint(t *testing.T) {
	p := testParams()
	if f := SliderToZoomFactor(0.5, p); f != 1 {
		t.Fatalf("f(0.5) = %v, want 1", f)
	}
}

func TestSliderToZoomFactorMonotonic(t *testing.T) {
	p := testParams()
	prev := -1.0
	for i := 0; i <= 10; i++ {
		f := SliderToZoomFactor(float64(i)/10, p)
		if f < prev {
			t.Fatalf("zoom factor not monotonic at step %d: %v < %v", i, f, prev)
		}
		prev = f
	}
}

func TestClampPanKeepsViewInBounds(t *testing.T) {
	v := View{Start: 100, Duration: 5}
	clamped := ClampPan(v, 10)
	if clamped.Start != 5 {
		t.Fatalf("Start = %v, want 5", clamped.Start)
	}

	v2 := View{Start: -3, Duration: 5}
	clamped2 := ClampPan(v2, 10)
	if clamped2.Start != 0 {
		t.Fatalf("Start = %v, want 0", clamped2.Start)
	}
}

func TestPanRespectsBounds(t *testing.T) {
	v := View{Start: 0, Duration: 5}
	moved := Pan(v, 100, 10)
	if moved.Start != 5 {
		t.Fatalf("Start = %v, want 5", moved.Start)
	}
}

// TestSliderInverseLaw checks the inverse law:
// factorFromSlider(sliderFromFactor(f)) ~= f within 1% for f in [min, max].
func TestSliderInverseLaw(t *testing.T) {
	p := testParams()
	for _, f := range []float64{p.MinZoomFactor, 0.25, 0.5, 1, 2, 8, 64, p.MaxZoomFactor} {
		s := SliderFromFactor(f, p)
		got := SliderToZoomFactor(s, p)
		if diff := (got - f) / f; diff > 0.01 || diff < -0.01 {
			t.Fatalf("factor %v: round-trip = %v, diff %v%% exceeds 1%%", f, got, diff*100)
		}
	}
}

// TestAllowedSamplesPerPixelSnapsNearOne checks the snap law via the
// view-level ladder: a factor within SnapRange of 1 snaps to exactly
// BaseSPP.
func TestAllowedSamplesPerPixelSnapsNearOne(t *testing.T) {
	p := testParams()
	levels := AllowedSamplesPerPixel(p)
	if len(levels) == 0 {
		t.Fatal("expected a non-empty ladder")
	}
	for i := 1; i < len(levels); i++ {
		if levels[i] <= levels[i-1] {
			t.Fatalf("levels not strictly increasing at %d: %v <= %v", i, levels[i], levels[i-1])
		}
	}
	snapped := SnapToAllowedLevel(p.BaseSPP*0.995, levels)
	if snapped != p.BaseSPP {
		t.Fatalf("snapped = %v, want BaseSPP %v", snapped, p.BaseSPP)
	}
}

func TestSnapToAllowedLevelPicksNearest(t *testing.T) {
	levels := []float64{10, 20, 40, 80}
	if got := SnapToAllowedLevel(22, levels); got != 20 {
		t.Fatalf("SnapToAllowedLevel(22) = %v, want 20", got)
	}
	if got := SnapToAllowedLevel(65, levels); got != 80 {
		t.Fatalf("SnapToAllowedLevel(65) = %v, want 80", got)
	}
	if got := SnapToAllowedLevel(5, levels); got != 10 {
		t.Fatalf("SnapToAllowedLevel(5) = %v, want 10 (below range clamps low)", got)
	}
	if got := SnapToAllowedLevel(1000, levels); got != 80 {
		t.Fatalf("SnapToAllowedLevel(1000) = %v, want 80 (above range clamps high)", got)
	}
}
