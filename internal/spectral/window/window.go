// Package window implements component B: downmixing multi-channel PCM to
// mono, framing by hop, and applying a precomputed Hann window.
package window

import "math"

// Hann precomputes the Hann window w[i] = 0.5*(1 - cos(2*pi*i/(n-1))) for
// i in [0, n).
func Hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// Frame downmixes channels by arithmetic mean and multiplies by win,
// writing into dst (len(dst) == len(win) == fftSize). Samples at or past
// the end of the channel data contribute zero (zero-padding at the tail
// only). startSample is the first sample index of the frame.
func Frame(channels [][]float32, startSample, fftSize int, win []float64, dst []float64) {
	nch := len(channels)
	for i := 0; i < fftSize; i++ {
		idx := startSample + i
		var sum float64
		if nch > 0 {
			for c := 0; c < nch; c++ {
				ch := channels[c]
				if idx >= 0 && idx < len(ch) {
					sum += float64(ch[idx])
				}
			}
			sum /= float64(nch)
		}
		dst[i] = sum * win[i]
	}
}
