package fft

import (
	"math"
	"math/cmplx"
	"testing"

	godsp "github.com/mjibson/go-dsp/fft"
)

func TestInvalidSize(t *testing.T) {
	cases := []int{0, 1, 3, 5, 1000, 65537, 70000}
	for _, n := range cases {
		if _, err := New(n); err == nil {
			t.Errorf("New(%d): expected InvalidSize error, got nil", n)
		}
	}
}

func TestUnitImpulse(t *testing.T) {
	const n = 1024
	k, err := New(n)
	if err != nil {
		t.Fatal(err)
	}
	re := make([]float64, n)
	im := make([]float64, n)
	re[0] = 1

	k.Transform(re, im)

	for i := 0; i < n; i++ {
		mag := math.Hypot(re[i], im[i])
		if math.Abs(mag-1) > 1e-5 {
			t.Fatalf("bin %d: magnitude = %v, want 1", i, mag)
		}
	}
}

func TestCosineBinConcentration(t *testing.T) {
	const n = 1024
	const bin = 21
	k, err := New(n)
	if err != nil {
		t.Fatal(err)
	}
	re := make([]float64, n)
	im := make([]float64, n)
	for i := 0; i < n; i++ {
		re[i] = math.Cos(2 * math.Pi * float64(bin) * float64(i) / float64(n))
	}

	k.Transform(re, im)

	mags := make([]float64, n)
	for i := range mags {
		mags[i] = math.Hypot(re[i], im[i])
	}

	peak := mags[bin]
	var sidelobeMax float64
	for i, m := range mags[:n/2] {
		if i == bin || i == n-bin {
			continue
		}
		if m > sidelobeMax {
			sidelobeMax = m
		}
	}

	ratioDB := 20 * math.Log10(peak/sidelobeMax)
	if ratioDB <= 20 {
		t.Fatalf("peak-to-sidelobe ratio = %.1f dB, want > 20 dB", ratioDB)
	}
}

// TestGoldenOracle cross-checks the hand-rolled kernel against go-dsp's
// independent FFT implementation (github.com/mjibson/go-dsp/fft) for
// several signal shapes, to catch bugs the property tests above might miss.
func TestGoldenOracle(t *testing.T) {
	const n = 256
	k, err := New(n)
	if err != nil {
		t.Fatal(err)
	}

	signals := map[string][]float64{
		"impulse": impulseSignal(n),
		"cosine":  cosineSignal(n, 10),
		"ramp":    rampSignal(n),
	}

	for name, signal := range signals {
		re := append([]float64(nil), signal...)
		im := make([]float64, n)
		k.Transform(re, im)

		oracle := godsp.FFTReal(signal)

		for i := 0; i < n; i++ {
			got := cmplx.Abs(complex(re[i], im[i]))
			want := cmplx.Abs(oracle[i])
			if math.Abs(got-want) > 1e-6*math.Max(1, want) {
				t.Errorf("%s: bin %d magnitude mismatch: got %v want %v (go-dsp oracle)", name, i, got, want)
			}
		}
	}
}

func impulseSignal(n int) []float64 {
	s := make([]float64, n)
	s[0] = 1
	return s
}

func cosineSignal(n, bin int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.Cos(2 * math.Pi * float64(bin) * float64(i) / float64(n))
	}
	return s
}

func rampSignal(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = float64(i) / float64(n)
	}
	return s
}
