//go:build !js && !wasm

// Package gpu implements component H: an optional OpenGL compute-shader
// backend that offloads the builder's normalization pass (the
// embarrassingly data-parallel dB-mapping stage) to the GPU once the FFT
// stage has produced raw per-frame magnitudes on the CPU. It uses a
// hidden GLFW window purely to own a compute-capable GL context; nothing
// is ever presented.
package gpu

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/kakira9618/spectralcore/internal/errs"
	"github.com/kakira9618/spectralcore/internal/spectral/fft"
	"github.com/kakira9618/spectralcore/internal/spectral/window"
	"github.com/kakira9618/spectralcore/internal/specmodel"
)

const normalizeComputeSrc = `
#version 430
layout(local_size_x = 256) in;

layout(std430, binding = 0) buffer Magnitudes {
    float mag[];
};
layout(std430, binding = 1) buffer Normalized {
    float outv[];
};

uniform float invPeak;
uniform float minDb;

void main() {
    uint i = gl_GlobalInvocationID.x;
    if (i >= mag.length()) {
        return;
    }
    float ratio = mag[i] * invPeak + 1e-12;
    float db = 20.0 * log2(ratio) / log2(10.0);
    float norm = (db - minDb) / (-minDb);
    outv[i] = clamp(norm, 0.0, 1.0);
}
`

// Backend is the GPU-accelerated alternative to the pure-CPU builder's
// normalization pass. FFT and windowing still run on the CPU kernel
// (internal/spectral/fft, internal/spectral/window); the GPU offloads the
// per-cell log-normalize map, which dominates wall-clock on long tracks
// at small hop sizes.
type Backend struct {
	initOnce sync.Once
	initErr  error
	window   *glfw.Window
	program  uint32
}

// New constructs an unopened Backend. Call Available to trigger lazy GL
// context creation and report whether the host supports it.
func New() *Backend {
	return &Backend{}
}

func (b *Backend) ensureInit() error {
	b.initOnce.Do(func() {
		runtime.LockOSThread()

		if err := glfw.Init(); err != nil {
			b.initErr = errs.New(errs.DeviceUnavailable).Op("gpu.ensureInit").Wrap(err).Build()
			return
		}

		glfw.WindowHint(glfw.Visible, glfw.False)
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 3)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, true)

		win, err := glfw.CreateWindow(1, 1, "spectralcore-gpu", nil, nil)
		if err != nil {
			b.initErr = errs.New(errs.DeviceUnavailable).Op("gpu.ensureInit").Wrap(err).Build()
			return
		}
		win.MakeContextCurrent()

		if err := gl.Init(); err != nil {
			b.initErr = errs.New(errs.DeviceUnavailable).Op("gpu.ensureInit").Wrap(err).Build()
			return
		}

		prog, err := compileComputeProgram(normalizeComputeSrc)
		if err != nil {
			b.initErr = errs.New(errs.DeviceUnavailable).Op("gpu.ensureInit").Wrap(err).Build()
			return
		}

		b.window = win
		b.program = prog
	})
	return b.initErr
}

// Available reports whether a compute-capable GL context could be created
// on this host. It is safe to call repeatedly.
func (b *Backend) Available() bool {
	return b.ensureInit() == nil
}

// Build runs the CPU FFT stage per frame and the GPU normalize stage over
// the whole magnitude buffer in one dispatch. It
// satisfies specmodel.GPUBackend; ctx is checked between frames alongside
// the token, since a goroutine-based native caller may also cancel via
// context.
func (b *Backend) Build(ctx context.Context, req specmodel.BuildRequest, tokens specmodel.TokenSource) (*specmodel.Spectrogram, error) {
	if err := b.ensureInit(); err != nil {
		return nil, err
	}
	b.window.MakeContextCurrent()

	pcm := req.PCM
	totalDuration := pcm.Duration()
	start := clampF(req.Start, 0, totalDuration)
	end := clampF(req.Start+req.Duration, 0, totalDuration)
	startSample := int(math.Round(start * float64(pcm.SampleRate)))
	endSample := int(math.Round(end * float64(pcm.SampleRate)))
	segmentLength := endSample - startSample

	if segmentLength < req.FFTSize {
		return nil, errs.New(errs.InsufficientLength).Op("gpu.Build").Build()
	}

	frames := (segmentLength-req.FFTSize)/req.HopSize + 1
	bins := req.FFTSize / 2

	kernel, err := fft.New(req.FFTSize)
	if err != nil {
		return nil, err
	}
	win := window.Hann(req.FFTSize)

	mag := make([]float32, frames*bins)
	re := make([]float64, req.FFTSize)
	im := make([]float64, req.FFTSize)
	var peak float64

	for f := 0; f < frames; f++ {
		if ctxDone(ctx) || (tokens != nil && tokens.Latest() != req.Token) {
			return nil, nil
		}
		frameStart := startSample + f*req.HopSize
		window.Frame(pcm.Channels, frameStart, req.FFTSize, win, re)
		for i := range im {
			im[i] = 0
		}
		kernel.Transform(re, im)
		for bi := 0; bi < bins; bi++ {
			m := math.Hypot(re[bi], im[bi])
			mag[f*bins+bi] = float32(m)
			if m > peak {
				peak = m
			}
		}
	}

	if ctxDone(ctx) || (tokens != nil && tokens.Latest() != req.Token) {
		return nil, nil
	}

	invPeak := float32(1.0)
	if peak > 0 {
		invPeak = float32(1.0 / peak)
	}
	minDb := req.MinDb
	if minDb == 0 {
		minDb = -85
	}

	normalized, err := b.normalizeOnGPU(mag, invPeak, float32(minDb))
	if err != nil {
		return nil, err
	}

	return &specmodel.Spectrogram{
		Data:          normalized,
		Frames:        frames,
		Bins:          bins,
		HopSize:       req.HopSize,
		FFTSize:       req.FFTSize,
		SampleRate:    pcm.SampleRate,
		SliceStart:    start,
		SliceDuration: end - start,
		TotalDuration: totalDuration,
	}, nil
}

func (b *Backend) normalizeOnGPU(mag []float32, invPeak, minDb float32) ([]float32, error) {
	n := len(mag)
	out := make([]float32, n)

	var ssboIn, ssboOut uint32
	gl.GenBuffers(1, &ssboIn)
	gl.GenBuffers(1, &ssboOut)
	defer gl.DeleteBuffers(1, &ssboIn)
	defer gl.DeleteBuffers(1, &ssboOut)

	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssboIn)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, n*4, gl.Ptr(mag), gl.STATIC_DRAW)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, 0, ssboIn)

	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssboOut)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, n*4, nil, gl.STATIC_DRAW)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, 1, ssboOut)

	gl.UseProgram(b.program)
	gl.Uniform1f(gl.GetUniformLocation(b.program, gl.Str("invPeak\x00")), invPeak)
	gl.Uniform1f(gl.GetUniformLocation(b.program, gl.Str("minDb\x00")), minDb)

	groups := (n + 255) / 256
	if groups < 1 {
		groups = 1
	}
	gl.DispatchCompute(uint32(groups), 1, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)

	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssboOut)
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, n*4, gl.Ptr(out))

	return out, nil
}

// Close releases the GL context and window.
func (b *Backend) Close() error {
	if b.window != nil {
		b.window.Destroy()
		b.window = nil
	}
	return nil
}

func compileComputeProgram(src string) (uint32, error) {
	shader := gl.CreateShader(gl.COMPUTE_SHADER)
	csource, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		return 0, fmt.Errorf("compute shader compile failed: %s", log)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, shader)
	gl.LinkProgram(program)

	var linkStatus int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &linkStatus)
	if linkStatus == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		return 0, fmt.Errorf("compute program link failed: %s", log)
	}

	gl.DeleteShader(shader)
	return program, nil
}

func ctxDone(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

