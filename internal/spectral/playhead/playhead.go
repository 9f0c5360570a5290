// Package playhead implements component G: keeping the view in sync with
// an externally-driven playhead without fighting a user who is actively
// panning, by gating follow decisions behind a small epsilon.
package playhead

import (
	"github.com/kakira9618/spectralcore/internal/specmodel"
	"github.com/kakira9618/spectralcore/internal/spectral/viewmodel"
)

// Epsilon is the minimum out-of-view distance, in seconds, before the
// synchronizer recenters the view. Smaller playhead jitter near an edge
// is ignored.
const Epsilon = 1e-3

// Sync recenters view on the playhead's current time when it has moved
// outside the visible window by more than Epsilon and playback is active.
// It returns the (possibly unchanged) view and whether a recenter happened.
func Sync(ph specmodel.Playhead, view viewmodel.View, totalDuration float64) (viewmodel.View, bool) {
	if !ph.Playing {
		return view, false
	}

	viewEnd := view.Start + view.Duration
	if ph.CurrentTime >= view.Start-Epsilon && ph.CurrentTime <= viewEnd+Epsilon {
		return view, false
	}

	next := view
	next.Start = ph.CurrentTime - view.Duration/2
	next = viewmodel.ClampPan(next, totalDuration)
	return next, true
}
