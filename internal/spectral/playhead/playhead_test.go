package playhead

import (
	"testing"

	"github.com/kakira9618/spectralcore/internal/specmodel"
	"github.com/kakira9618/spectralcore/internal/spectral/viewmodel"
)

func TestSyncNoopWhenNotPlaying(t *testing.T) {
	v := viewmodel.View{Start: 0, Duration: 5}
	ph := specmodel.Playhead{CurrentTime: 100, Playing: false}
	next, changed := Sync(ph, v, 200)
	if changed || next != v {
		t.Fatalf("expected no change when not playing, got %+v changed=%v", next, changed)
	}
}

func TestSyncNoopWithinView(t *testing.T) {
	v := viewmodel.View{Start: 0, Duration: 5}
	ph := specmodel.Playhead{CurrentTime: 2, Playing: true}
	next, changed := Sync(ph, v, 200)
	if changed || next != v {
		t.Fatalf("expected no change within view, got %+v changed=%v", next, changed)
	}
}

func TestSyncRecentersWhenOutside(t *testing.T) {
	v := viewmodel.View{Start: 0, Duration: 5}
	ph := specmodel.Playhead{CurrentTime: 50, Playing: true}
	next, changed := Sync(ph, v, 200)
	if !changed {
		t.Fatal("expected recenter")
	}
	if next.Start != 47.5 {
		t.Fatalf("Start = %v, want 47.5", next.Start)
	}
}

func TestSyncClampsNearTrackEnd(t *testing.T) {
	v := viewmodel.View{Start: 0, Duration: 5}
	ph := specmodel.Playhead{CurrentTime: 199, Playing: true}
	next, changed := Sync(ph, v, 200)
	if !changed {
		t.Fatal("expected recenter")
	}
	if next.Start != 195 {
		t.Fatalf("Start = %v, want 195 (clamped)", next.Start)
	}
}
