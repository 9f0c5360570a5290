// Package tile implements component D: issuing monotonic cancellation
// tokens for in-flight builder runs, debouncing hi-res tile requests as
// the view changes, and expanding a requested view into a slightly wider
// analysis window so small pans don't retrigger a build.
package tile

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kakira9618/spectralcore/internal/spectral/viewmodel"
	"github.com/kakira9618/spectralcore/internal/specmodel"
)

// Params are the config fields the tile manager needs.
type Params struct {
	HiResHopMin    int
	HiResHopMax    int
	HopFullFrac    float64
	TileExpandFrac float64
	TileDebounce   time.Duration
}

// Manager issues tokens and gates hi-res request dispatch. It is safe for
// concurrent use from multiple goroutines (native build) and is equally
// usable from a single cooperative loop (WASM build) by calling its
// methods directly between yields.
type Manager struct {
	token        int64
	lastDispatch atomic.Int64 // unix nanos
	inFlight     atomic.Int64 // count of dispatched builds not yet finished
	params       Params

	mu          sync.Mutex
	haveLastReq bool
	lastReq     requestKey
}

// requestKey identifies a hi-res build's effective (pre-expansion) request
// window, used to tell a repeated request from a genuinely new one.
type requestKey struct {
	start, duration float64
	hop             int
}

// New returns a Manager configured with p. The debounce clock starts
// "empty" so the first request always dispatches.
func New(p Params) *Manager {
	return &Manager{params: p}
}

// NextToken issues a new monotonically increasing token, superseding any
// prior in-flight build.
func (m *Manager) NextToken() int64 {
	return atomic.AddInt64(&m.token, 1)
}

// Latest returns the most recently issued token, implementing
// specmodel.TokenSource.
func (m *Manager) Latest() int64 {
	return atomic.LoadInt64(&m.token)
}

// IsLatest reports whether tok is still the most recently issued token.
func (m *Manager) IsLatest(tok int64) bool {
	return atomic.LoadInt64(&m.token) == tok
}

// ShouldDispatch reports whether a hi-res build for (viewStart,
// viewDuration, hopTarget) should be dispatched now, and if so records the
// bookkeeping for the next call. Two gates apply:
//
//   - A request identical to the last one seen (same window and hop) is
//     debounced: it must wait out TileDebounce since the last dispatch, and
//     is skipped entirely while a build for it is still in flight. This is
//     what keeps a settled, repeatedly-rendered view from rebuilding itself.
//   - A request that differs from the last one always dispatches
//     immediately, in flight or not: a newer request cancels an older one
//     by outrunning it to a fresh token, so the tile manager must not sit on
//     a genuinely new view waiting for the old one's debounce window to close.
func (m *Manager) ShouldDispatch(now time.Time, viewStart, viewDuration float64, hopTarget int) bool {
	key := requestKey{start: viewStart, duration: viewDuration, hop: hopTarget}
	nowNanos := now.UnixNano()

	m.mu.Lock()
	same := m.haveLastReq && m.lastReq == key
	m.mu.Unlock()

	if !same {
		m.mu.Lock()
		m.lastReq = key
		m.haveLastReq = true
		m.mu.Unlock()
		m.lastDispatch.Store(nowNanos)
		return true
	}

	if m.inFlight.Load() > 0 {
		return false
	}
	if m.params.TileDebounce <= 0 {
		m.lastDispatch.Store(nowNanos)
		return true
	}
	last := m.lastDispatch.Load()
	if nowNanos-last < m.params.TileDebounce.Nanoseconds() {
		return false
	}
	m.lastDispatch.Store(nowNanos)
	return true
}

// BeginDispatch marks a hi-res build as in flight; pair with EndDispatch
// once it finishes (successfully, with an error, or cancelled).
func (m *Manager) BeginDispatch() {
	m.inFlight.Add(1)
}

// EndDispatch marks one in-flight hi-res build as finished.
func (m *Manager) EndDispatch() {
	m.inFlight.Add(-1)
}

// ExpandRequest widens view by TileExpandFrac on each side (as a fraction
// of the view's duration), clamped to [0, totalDuration], so that small
// subsequent pans are already covered by the last built tile.
func ExpandRequest(view viewmodel.View, totalDuration float64, expandFrac float64) (start, duration float64) {
	pad := view.Duration * expandFrac
	start = view.Start - pad
	end := view.Start + view.Duration + pad
	if start < 0 {
		start = 0
	}
	if end > totalDuration {
		end = totalDuration
	}
	if end < start {
		end = start
	}
	return start, end - start
}

// HiResHopSize picks the hop size for a hi-res tile build from the view's
// samples-per-pixel, bounded to [HiResHopMin, HiResHopMax].
func HiResHopSize(view viewmodel.View, p Params) int {
	hop := int(math.Round(view.SamplesPerPixel))
	if hop < p.HiResHopMin {
		hop = p.HiResHopMin
	}
	if hop > p.HiResHopMax {
		hop = p.HiResHopMax
	}
	return hop
}

// IsWarranted reports whether the full-track analysis is coarse relative
// to the current pixel density — i.e. one pixel covers less than a frame
// (hop_full/sample_rate > 0.8/pps) — such that a hi-res tile would show
// additional temporal detail the full-track spectrogram can't.
func IsWarranted(fullTrackHop, sampleRate int, pixelsPerSecond float64) bool {
	if sampleRate <= 0 || pixelsPerSecond <= 0 {
		return false
	}
	timePerStep := float64(fullTrackHop) / float64(sampleRate)
	return timePerStep > 0.8/pixelsPerSecond
}

// CoversWindow reports whether cached already covers (viewStart,
// viewDuration) at hopTarget, within toleranceSeconds of each edge, so a
// fresh build can be skipped and the cached tile reused.
func CoversWindow(cached *specmodel.Spectrogram, viewStart, viewDuration float64, hopTarget int, tolerance float64) bool {
	if cached == nil || cached.HopSize != hopTarget {
		return false
	}
	return cached.SliceStart <= viewStart+tolerance &&
		cached.SliceStart+cached.SliceDuration >= viewStart+viewDuration-tolerance
}

// FullTrackHopSize derives the coarse, whole-track hop size from the
// sample rate: max(256, floor(sampleRate*HopFullFrac)).
func FullTrackHopSize(sampleRate int, p Params) int {
	hop := int(math.Floor(float64(sampleRate) * p.HopFullFrac))
	if hop < 256 {
		hop = 256
	}
	return hop
}
