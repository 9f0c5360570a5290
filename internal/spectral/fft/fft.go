// Package fft implements the fixed-size radix-2 Cooley–Tukey kernel the
// spectrogram builder uses for every frame (component A). The kernel
// precomputes its bit-reversal permutation and twiddle table once at
// construction and allocates nothing on subsequent calls.
package fft

import (
	"math"
	"math/bits"

	"github.com/kakira9618/spectralcore/internal/errs"
)

// Kernel is a reusable, allocation-free FFT of a fixed length N.
type Kernel struct {
	n        int
	bitrev   []int
	twiddles []complex128 // length n/2, twiddles[k] = exp(-2*pi*i*k/n)
}

// New builds a Kernel for length n. n must be a power of two in [2, 65536].
func New(n int) (*Kernel, error) {
	if n < 2 || n > 65536 || bits.OnesCount(uint(n)) != 1 {
		return nil, errs.New(errs.InvalidSize).
			Op("fft.New").
			Context("n", n).
			Build()
	}

	log2n := bits.TrailingZeros(uint(n))
	bitrev := make([]int, n)
	for i := 0; i < n; i++ {
		bitrev[i] = int(bits.Reverse(uint(i)) >> (bits.UintSize - log2n))
	}

	half := n / 2
	twiddles := make([]complex128, half)
	for k := 0; k < half; k++ {
		theta := -2 * math.Pi * float64(k) / float64(n)
		twiddles[k] = complex(math.Cos(theta), math.Sin(theta))
	}

	return &Kernel{n: n, bitrev: bitrev, twiddles: twiddles}, nil
}

// N returns the configured transform length.
func (k *Kernel) N() int { return k.n }

// Transform performs an in-place complex FFT of length N on (re, im).
// Same inputs always produce the same outputs (pure, deterministic).
func (k *Kernel) Transform(re, im []float64) {
	n := k.n

	// Bit-reversal permutation.
	for i := 0; i < n; i++ {
		j := k.bitrev[i]
		if j > i {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}

	// Iterative Cooley-Tukey, stage lengths 2, 4, ..., n.
	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		twStride := n / size
		for start := 0; start < n; start += size {
			for j := 0; j < half; j++ {
				tw := k.twiddles[j*twStride]
				evenIdx := start + j
				oddIdx := start + j + half

				oddRe := re[oddIdx]*real(tw) - im[oddIdx]*imag(tw)
				oddIm := re[oddIdx]*imag(tw) + im[oddIdx]*real(tw)

				re[oddIdx] = re[evenIdx] - oddRe
				im[oddIdx] = im[evenIdx] - oddIm
				re[evenIdx] = re[evenIdx] + oddRe
				im[evenIdx] = im[evenIdx] + oddIm
			}
		}
	}
}
