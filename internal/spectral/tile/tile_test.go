package tile

import (
	"testing"
	"time"

	"github.com/kakira9618/spectralcore/internal/spectral/viewmodel"
)

func TestNextTokenMonotonic(t *testing.T) {
	m := New(Params{})
	a := m.NextToken()
	b := m.NextToken()
	if b <= a {
		t.Fatalf("tokens not increasing: %d then %d", a, b)
	}
	if !m.IsLatest(b) {
		t.Fatal("expected b to be latest")
	}
	if m.IsLatest(a) {
		t.Fatal("expected a to be stale")
	}
}

func TestShouldDispatchDebouncesRepeatedRequest(t *testing.T) {
	m := New(Params{TileDebounce: 50 * time.Millisecond})
	now := time.Now()
	if !m.ShouldDispatch(now, 0, 1, 256) {
		t.Fatal("first dispatch should always succeed")
	}
	if m.ShouldDispatch(now.Add(10*time.Millisecond), 0, 1, 256) {
		t.Fatal("expected debounce to suppress rapid re-dispatch of the same window")
	}
	if !m.ShouldDispatch(now.Add(60*time.Millisecond), 0, 1, 256) {
		t.Fatal("expected dispatch to succeed after debounce window")
	}
}

func TestShouldDispatchSupersedesDifferentRequest(t *testing.T) {
	m := New(Params{TileDebounce: 50 * time.Millisecond})
	now := time.Now()
	if !m.ShouldDispatch(now, 0, 1, 256) {
		t.Fatal("first dispatch should always succeed")
	}
	m.BeginDispatch() // first build still running
	if !m.ShouldDispatch(now.Add(5*time.Millisecond), 10, 1, 256) {
		t.Fatal("a request for a different window must supersede, not debounce")
	}
}

func TestShouldDispatchSuppressesSameWindowWhileInFlight(t *testing.T) {
	m := New(Params{TileDebounce: 50 * time.Millisecond})
	now := time.Now()
	if !m.ShouldDispatch(now, 0, 1, 256) {
		t.Fatal("first dispatch should always succeed")
	}
	m.BeginDispatch()
	if m.ShouldDispatch(now.Add(200*time.Millisecond), 0, 1, 256) {
		t.Fatal("expected an identical request to be suppressed while its build is in flight")
	}
}

func TestExpandRequestClampsToTrack(t *testing.T) {
	v := viewmodel.View{Start: 0, Duration: 10}
	start, dur := ExpandRequest(v, 12, 0.25)
	if start != 0 {
		t.Fatalf("start = %v, want 0", start)
	}
	if dur != 12 {
		t.Fatalf("duration = %v, want 12 (clamped to track end)", dur)
	}
}

func TestHiResHopSizeBounds(t *testing.T) {
	p := Params{HiResHopMin: 32, HiResHopMax: 4096}
	v := viewmodel.View{SamplesPerPixel: 1}
	if hop := HiResHopSize(v, p); hop != 32 {
		t.Fatalf("hop = %v, want 32", hop)
	}
	v2 := viewmodel.View{SamplesPerPixel: 100000}
	if hop := HiResHopSize(v2, p); hop != 4096 {
		t.Fatalf("hop = %v, want 4096", hop)
	}
}

func TestFullTrackHopSizeFloor(t *testing.T) {
	p := Params{HopFullFrac: 0.02}
	if hop := FullTrackHopSize(8000, p); hop != 256 {
		t.Fatalf("hop = %v, want 256", hop)
	}
	if hop := FullTrackHopSize(48000, p); hop != 960 {
		t.Fatalf("hop = %v, want 960", hop)
	}
}
