package spectral

import "time"

// Config holds every tunable of the spectral core. All tunables form one
// configuration record passed at construction; there is no global mutation
// post-start. Changing any of these invalidates cached tiles.
type Config struct {
	// FFTSize is the fixed power-of-two transform length for both the
	// full-track and hi-res analyses.
	FFTSize int

	// MinDb is the normalization floor; cells at or below it map to 0.
	MinDb float64

	// ColorStops defines the 256-entry LUT the renderer precomputes.
	ColorStops []ColorStop

	// BaseSPP is the samples-per-pixel at zoom factor 1.
	BaseSPP float64

	// MinZoomFactor and MaxZoomFactor bound the bi-log slider mapping.
	MinZoomFactor float64
	MaxZoomFactor float64

	// SnapRange is the |f-1| tolerance that snaps the zoom factor to 1.
	SnapRange float64

	// ZoomSteps is the slider resolution (v in [0, steps]) used
	// to derive the fixed allowed-samples-per-pixel ladder.
	ZoomSteps int

	// TileDebounce is the minimum interval between two dispatches of the
	// same hi-res tile request (same window and hop); a request for a
	// different window is dispatched without waiting.
	TileDebounce time.Duration

	// HopFullFrac derives the full-track hop size from the sample rate:
	// hop_size = max(256, floor(sample_rate * HopFullFrac)).
	HopFullFrac float64

	// HiResHopMin/HiResHopMax bound the hi-res tile's chosen hop size.
	HiResHopMin int
	HiResHopMax int

	// TileExpandFrac expands a hi-res request by this fraction on each
	// side, bounded by the track.
	TileExpandFrac float64

	// YieldEveryFrames/YieldEveryCells set the cooperative-yield cadence
	// during the builder's transform and normalization passes.
	YieldEveryFrames int
	YieldEveryCells  int

	// Logger receives structured diagnostics. If nil, a default logger is
	// created.
	Logger Logger

	// Telemetry, if non-nil, receives operational event records. Optional;
	// a nil sink means telemetry is disabled.
	Telemetry TelemetrySink

	// PreferGPU hints that the GPU backend should be tried first.
	PreferGPU bool
}

// Option is a functional option for configuring the core.
type Option func(*Config)

// WithFFTSize overrides the fixed FFT length (default 1024).
func WithFFTSize(n int) Option {
	return func(c *Config) { c.FFTSize = n }
}

// WithLogger sets a custom logger.
func WithLogger(log Logger) Option {
	return func(c *Config) { c.Logger = log }
}

// WithTelemetry attaches an operational-event sink.
func WithTelemetry(sink TelemetrySink) Option {
	return func(c *Config) { c.Telemetry = sink }
}

// WithPreferGPU sets the initial GPU preference hint.
func WithPreferGPU(prefer bool) Option {
	return func(c *Config) { c.PreferGPU = prefer }
}

// WithColorStops overrides the renderer's LUT control points.
func WithColorStops(stops []ColorStop) Option {
	return func(c *Config) { c.ColorStops = stops }
}

// defaultColorStops are the module's default perceptual color-map stops.
func defaultColorStops() []ColorStop {
	return []ColorStop{
		{Pos: 0.00, R: 5, G: 8, B: 17},
		{Pos: 0.25, R: 32, G: 54, B: 120},
		{Pos: 0.50, R: 69, G: 137, B: 205},
		{Pos: 0.70, R: 255, G: 209, B: 102},
		{Pos: 0.85, R: 255, G: 128, B: 96},
		{Pos: 1.00, R: 255, G: 255, B: 255},
	}
}

// defaultConfig returns a Config with the spec's compile-time defaults.
func defaultConfig() *Config {
	return &Config{
		FFTSize:          1024,
		MinDb:            -85,
		ColorStops:       defaultColorStops(),
		BaseSPP:          2048,
		MinZoomFactor:    0.125,
		MaxZoomFactor:    256,
		SnapRange:        0.1,
		ZoomSteps:        200,
		TileDebounce:     120 * time.Millisecond,
		HopFullFrac:      0.02,
		HiResHopMin:      32,
		HiResHopMax:      4096,
		TileExpandFrac:   0.25,
		YieldEveryFrames: 500,
		YieldEveryCells:  131072,
	}
}
