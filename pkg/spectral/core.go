package spectral

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kakira9618/spectralcore/internal/errs"
	"github.com/kakira9618/spectralcore/internal/spectral/builder"
	"github.com/kakira9618/spectralcore/internal/spectral/playhead"
	"github.com/kakira9618/spectralcore/internal/spectral/render"
	"github.com/kakira9618/spectralcore/internal/spectral/tile"
	"github.com/kakira9618/spectralcore/internal/spectral/viewmodel"
	"github.com/kakira9618/spectralcore/internal/specmodel"
)

// Core is the facade the host (WASM bridge or native CLI) drives: one
// loaded track, one current view, one playhead, and whatever tiles have
// been built so far. All exported methods are safe for concurrent use.
type Core struct {
	cfg       *Config
	log       Logger
	telemetry TelemetrySink
	sessionID string

	tiles        *tile.Manager
	gpuBackend   specmodel.GPUBackend
	zoomLevels   []float64
	viewmodelCfg viewmodel.Params

	mu        sync.Mutex
	pcm       *specmodel.PcmBuffer
	fullTrack *specmodel.Spectrogram
	hiRes     *specmodel.Spectrogram
	view      viewmodel.View
	ph        specmodel.Playhead
	lut       render.LUT

	wg sync.WaitGroup
}

// New constructs a Core with opts applied over the package defaults.
func New(opts ...Option) (*Core, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = specmodel.NopLogger{}
	}

	vmCfg := viewmodel.Params{
		BaseSPP:       cfg.BaseSPP,
		MinZoomFactor: cfg.MinZoomFactor,
		MaxZoomFactor: cfg.MaxZoomFactor,
		SnapRange:     cfg.SnapRange,
		ZoomSteps:     cfg.ZoomSteps,
	}

	c := &Core{
		cfg:       cfg,
		log:       cfg.Logger,
		telemetry: cfg.Telemetry,
		sessionID: uuid.NewString(),
		tiles: tile.New(tile.Params{
			HiResHopMin:    cfg.HiResHopMin,
			HiResHopMax:    cfg.HiResHopMax,
			HopFullFrac:    cfg.HopFullFrac,
			TileExpandFrac: cfg.TileExpandFrac,
			TileDebounce:   cfg.TileDebounce,
		}),
		lut:          render.BuildLUT(cfg.ColorStops),
		viewmodelCfg: vmCfg,
		zoomLevels:   viewmodel.AllowedSamplesPerPixel(vmCfg),
	}
	if cfg.PreferGPU {
		c.gpuBackend = newGPUBackend()
	}
	c.log.Infof("spectral core initialized session=%s fftSize=%d preferGPU=%v", c.sessionID, cfg.FFTSize, cfg.PreferGPU)
	return c, nil
}

// SessionID returns the core's UUID, the same value attached to every
// telemetry event it records, so a host can correlate its own logs with
// the telemetry sink's rows.
func (c *Core) SessionID() string {
	return c.sessionID
}

// SetPreferGPU toggles whether new builds are attempted on the GPU backend
// first, falling back to the CPU path on failure or unavailability.
func (c *Core) SetPreferGPU(prefer bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.PreferGPU = prefer
	if prefer && c.gpuBackend == nil {
		c.gpuBackend = newGPUBackend()
	}
}

// Load replaces the current track with pcm, builds the coarse full-track
// spectrogram synchronously, and resets the view to the whole track.
func (c *Core) Load(pcm PcmBuffer) error {
	started := time.Now()
	token := c.tiles.NextToken()

	hop := tile.FullTrackHopSize(pcm.SampleRate, tile.Params{HopFullFrac: c.cfg.HopFullFrac})
	req := specmodel.BuildRequest{
		PCM:      pcm,
		Start:    0,
		Duration: pcm.Duration(),
		HopSize:  hop,
		FFTSize:  c.cfg.FFTSize,
		MinDb:    c.cfg.MinDb,
		Token:    token,
	}

	res, err := c.runBuild(req)
	c.recordTelemetry("load", token, res, started, err)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.pcm = &pcm
	c.fullTrack = res.Spectrogram
	c.hiRes = nil
	c.view = viewmodel.View{Start: 0, Duration: pcm.Duration(), SamplesPerPixel: c.cfg.BaseSPP, ZoomFactor: 1}
	c.ph = specmodel.Playhead{}
	c.mu.Unlock()

	c.log.Infof("loaded track duration=%.3fs sampleRate=%d", pcm.Duration(), pcm.SampleRate)
	return nil
}

// SetView updates the visible window and, if the track supports it and
// the tile debounce allows, kicks off an asynchronous hi-res tile build
// covering a padded version of the requested window.
func (c *Core) SetView(viewStart, viewDuration, samplesPerPixel float64) error {
	c.mu.Lock()
	if c.pcm == nil {
		c.mu.Unlock()
		return errs.New(errs.Internal).Op("Core.SetView").Context("reason", "no track loaded").Build()
	}
	total := c.pcm.Duration()
	snappedSPP := viewmodel.SnapToAllowedLevel(samplesPerPixel, c.zoomLevels)
	v := viewmodel.View{Start: viewStart, Duration: viewDuration, SamplesPerPixel: snappedSPP}
	v = viewmodel.ClampPan(v, total)
	c.view = v
	pcm := *c.pcm
	c.mu.Unlock()

	c.maybeDispatchHiRes(pcm, v, total)
	return nil
}

// maybeDispatchHiRes implements the hi-res tile dispatch policy: a tile is
// only worth building when the full-track hop is coarse relative to the
// view's pixel density, a cached tile doesn't already cover the request,
// and the tile manager's dispatch gate (tile.Manager.ShouldDispatch)
// allows it.
func (c *Core) maybeDispatchHiRes(pcm specmodel.PcmBuffer, v viewmodel.View, total float64) {
	c.mu.Lock()
	fullTrack := c.fullTrack
	cachedHiRes := c.hiRes
	c.mu.Unlock()

	if fullTrack == nil || v.SamplesPerPixel <= 0 {
		return
	}
	pixelsPerSecond := float64(pcm.SampleRate) / v.SamplesPerPixel
	if !tile.IsWarranted(fullTrack.HopSize, pcm.SampleRate, pixelsPerSecond) {
		return
	}

	hopTarget := tile.HiResHopSize(v, tile.Params{HiResHopMin: c.cfg.HiResHopMin, HiResHopMax: c.cfg.HiResHopMax})
	const tileCoverageTolerance = 1.0 / 60.0
	if tile.CoversWindow(cachedHiRes, v.Start, v.Duration, hopTarget, tileCoverageTolerance) {
		return
	}

	if !c.tiles.ShouldDispatch(time.Now(), v.Start, v.Duration, hopTarget) {
		return
	}
	c.dispatchHiResBuild(pcm, v, total)
}

func (c *Core) dispatchHiResBuild(pcm specmodel.PcmBuffer, v viewmodel.View, total float64) {
	token := c.tiles.NextToken()
	start, duration := tile.ExpandRequest(v, total, c.cfg.TileExpandFrac)
	hop := tile.HiResHopSize(v, tile.Params{HiResHopMin: c.cfg.HiResHopMin, HiResHopMax: c.cfg.HiResHopMax})

	req := specmodel.BuildRequest{
		PCM:      pcm,
		Start:    start,
		Duration: duration,
		HopSize:  hop,
		FFTSize:  c.cfg.FFTSize,
		MinDb:    c.cfg.MinDb,
		Token:    token,
	}

	c.tiles.BeginDispatch()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.tiles.EndDispatch()
		started := time.Now()
		res, err := c.runBuild(req)
		c.recordTelemetry("tile", token, res, started, err)
		if err != nil {
			c.log.Warnf("hi-res tile build failed: %v", err)
			return
		}
		if res.State != builder.Done || !c.tiles.IsLatest(token) {
			return
		}
		c.mu.Lock()
		c.hiRes = res.Spectrogram
		c.mu.Unlock()
	}()
}

// Render paints the best available spectrogram (hi-res tile when it
// covers the current view, otherwise the full-track build) into buf,
// which must be at least wDev*hDev*4 bytes (RGBA8).
func (c *Core) Render(buf []byte, wDev, hDev int, dpr float64) error {
	c.mu.Lock()
	v := c.view
	spec := c.bestSpectrogramLocked(v)
	c.mu.Unlock()

	if spec == nil {
		return errs.New(errs.Internal).Op("Core.Render").Context("reason", "no track loaded").Build()
	}
	render.Paint(spec, v, c.lut, buf, wDev, hDev, dpr)
	return nil
}

func (c *Core) bestSpectrogramLocked(v viewmodel.View) *specmodel.Spectrogram {
	if c.hiRes != nil && c.hiRes.SliceStart <= v.Start && c.hiRes.SliceStart+c.hiRes.SliceDuration >= v.Start+v.Duration {
		return c.hiRes
	}
	return c.fullTrack
}

// SetPlayhead records the externally-driven playhead and recenters the
// view when it has drifted outside the visible window during playback.
func (c *Core) SetPlayhead(currentTime float64, playing bool) {
	c.mu.Lock()
	c.ph = specmodel.Playhead{CurrentTime: currentTime, Playing: playing}
	if c.pcm == nil {
		c.mu.Unlock()
		return
	}
	total := c.pcm.Duration()
	next, changed := playhead.Sync(c.ph, c.view, total)
	pcm := *c.pcm
	if changed {
		c.view = next
	}
	c.mu.Unlock()

	if changed {
		c.maybeDispatchHiRes(pcm, next, total)
	}
}

// Teardown waits for any in-flight builds to observe their token as stale
// and releases the GPU backend, if one was opened.
func (c *Core) Teardown() {
	c.tiles.NextToken() // invalidate any build still in flight
	c.wg.Wait()
	if c.gpuBackend != nil {
		if err := c.gpuBackend.Close(); err != nil {
			c.log.Warnf("gpu backend close: %v", err)
		}
	}
	c.log.Infof("spectral core torn down session=%s", c.sessionID)
}

// runBuild attempts the GPU backend first when PreferGPU is set and a
// context is available, falling back to the CPU builder on any GPU error
// or when the GPU path isn't configured.
func (c *Core) runBuild(req specmodel.BuildRequest) (builder.Result, error) {
	c.mu.Lock()
	preferGPU := c.cfg.PreferGPU
	backend := c.gpuBackend
	c.mu.Unlock()

	if preferGPU && backend != nil && backend.Available() {
		spec, err := backend.Build(context.Background(), req, c.tiles)
		if err == nil {
			state := builder.Done
			if spec == nil {
				state = builder.Cancelled
			}
			return builder.Result{Spectrogram: spec, State: state}, nil
		}
		c.log.Warnf("gpu build failed, falling back to cpu: %v", err)
	}

	return builder.Run(req, builder.Options{
		YieldEveryFrames: c.cfg.YieldEveryFrames,
		YieldEveryCells:  c.cfg.YieldEveryCells,
		TokenStillLatest: func() bool { return c.tiles.IsLatest(req.Token) },
		Yield:            runtime.Gosched,
	})
}

func (c *Core) recordTelemetry(kind string, token int64, res builder.Result, started time.Time, err error) {
	if c.telemetry == nil {
		return
	}
	outcome := "ok"
	frames := 0
	if err != nil {
		outcome = "error"
	} else {
		outcome = res.State.String()
		if res.Spectrogram != nil {
			frames = res.Spectrogram.Frames
		}
	}
	ev := TelemetryEvent{
		SessionID: c.sessionID,
		Kind:      kind,
		Token:     token,
		Frames:    frames,
		Duration:  time.Since(started).Milliseconds(),
		Outcome:   outcome,
	}
	if err != nil {
		ev.Detail = err.Error()
	}
	if rerr := c.telemetry.Record(ev); rerr != nil {
		c.log.Warnf("telemetry record failed: %v", rerr)
	}
}
