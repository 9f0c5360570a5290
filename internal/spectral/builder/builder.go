// Package builder implements component C: orchestrating window+mix (B),
// FFT (A), magnitude, and log-normalization into a Spectrogram, with
// cooperative cancellation and yielding.
package builder

import (
	"math"

	"github.com/kakira9618/spectralcore/internal/errs"
	"github.com/kakira9618/spectralcore/internal/spectral/fft"
	"github.com/kakira9618/spectralcore/internal/spectral/window"
	"github.com/kakira9618/spectralcore/internal/specmodel"
)

// State is one stage of the builder session state machine.
type State int

const (
	Idle State = iota
	Windowing
	Transforming
	Normalizing
	Done
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Windowing:
		return "windowing"
	case Transforming:
		return "transforming"
	case Normalizing:
		return "normalizing"
	case Done:
		return "done"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// TokenCheck reports whether the session's token is still the latest one;
// a false return transitions the session directly to Cancelled.
type TokenCheck func() bool

// Yield relinquishes control to the host's event loop or scheduler.
type Yield func()

// Options configures one builder run's cooperative behavior.
type Options struct {
	YieldEveryFrames int
	YieldEveryCells  int
	TokenStillLatest TokenCheck
	Yield            Yield
}

// Result carries the final state alongside the spectrogram, so callers can
// distinguish a legitimately empty (cancelled) result from an error.
type Result struct {
	Spectrogram *specmodel.Spectrogram
	State       State
}

// Run executes one full builder session: window, transform, normalize.
func Run(req specmodel.BuildRequest, opts Options) (Result, error) {
	state := Idle

	if opts.Yield == nil {
		opts.Yield = func() {}
	}
	if opts.TokenStillLatest == nil {
		opts.TokenStillLatest = func() bool { return true }
	}
	yieldEveryFrames := opts.YieldEveryFrames
	if yieldEveryFrames <= 0 {
		yieldEveryFrames = 500
	}
	yieldEveryCells := opts.YieldEveryCells
	if yieldEveryCells <= 0 {
		yieldEveryCells = 131072
	}

	pcm := req.PCM
	totalDuration := pcm.Duration()

	// 1. Clamp [start, start+duration] to [0, total_duration]; convert to samples.
	start := clamp(req.Start, 0, totalDuration)
	end := clamp(req.Start+req.Duration, 0, totalDuration)
	if end < start {
		end = start
	}
	startSample := int(math.Round(start * float64(pcm.SampleRate)))
	endSample := int(math.Round(end * float64(pcm.SampleRate)))
	segmentLength := endSample - startSample

	if segmentLength < req.FFTSize {
		return Result{State: Failed}, errs.New(errs.InsufficientLength).
			Op("builder.Run").
			Context("segment_length", segmentLength).
			Context("fft_size", req.FFTSize).
			Build()
	}

	// 2. Compute frames.
	frames := (segmentLength-req.FFTSize)/req.HopSize + 1
	if frames < 1 {
		return Result{State: Failed}, errs.New(errs.InsufficientLength).
			Op("builder.Run").
			Context("frames", frames).
			Build()
	}

	kernel, err := fft.New(req.FFTSize)
	if err != nil {
		return Result{State: Failed}, err
	}

	bins := req.FFTSize / 2
	win := window.Hann(req.FFTSize)
	data := make([]float32, frames*bins)

	state = Windowing
	re := make([]float64, req.FFTSize)
	im := make([]float64, req.FFTSize)

	var peak float64
	state = Transforming
	for f := 0; f < frames; f++ {
		if f%yieldEveryFrames == 0 {
			if !opts.TokenStillLatest() {
				return Result{State: Cancelled}, nil
			}
			opts.Yield()
		}

		frameStart := startSample + f*req.HopSize
		window.Frame(pcm.Channels, frameStart, req.FFTSize, win, re)
		for i := range im {
			im[i] = 0
		}

		kernel.Transform(re, im)

		for b := 0; b < bins; b++ {
			mag := math.Hypot(re[b], im[b])
			data[f*bins+b] = float32(mag)
			if mag > peak {
				peak = mag
			}
		}
	}

	if !opts.TokenStillLatest() {
		return Result{State: Cancelled}, nil
	}

	// 5. Normalize: db = 20*log10(mag/peak + 1e-12); map to [0,1].
	state = Normalizing
	minDb := req.MinDb
	if minDb == 0 {
		minDb = -85
	}
	invPeak := 1.0
	if peak > 0 {
		invPeak = 1.0 / peak
	}

	cellCount := 0
	for i := range data {
		ratio := float64(data[i])*invPeak + 1e-12
		db := 20 * math.Log10(ratio)
		norm := (db - minDb) / (-minDb)
		if norm < 0 {
			norm = 0
		} else if norm > 1 {
			norm = 1
		}
		data[i] = float32(norm)

		cellCount++
		if cellCount%yieldEveryCells == 0 {
			if !opts.TokenStillLatest() {
				return Result{State: Cancelled}, nil
			}
			opts.Yield()
		}
	}

	if !opts.TokenStillLatest() {
		return Result{State: Cancelled}, nil
	}

	state = Done
	spec := &specmodel.Spectrogram{
		Data:          data,
		Frames:        frames,
		Bins:          bins,
		HopSize:       req.HopSize,
		FFTSize:       req.FFTSize,
		SampleRate:    pcm.SampleRate,
		SliceStart:    start,
		SliceDuration: end - start,
		TotalDuration: totalDuration,
	}
	return Result{Spectrogram: spec, State: state}, nil
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
