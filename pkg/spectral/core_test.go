package spectral

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/kakira9618/spectralcore/internal/specmodel"
)

func sineTrack(sampleRate, length int, freq float64) PcmBuffer {
	ch := make([]float32, length)
	for i := range ch {
		ch[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate)))
	}
	return PcmBuffer{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Length:       length,
		Channels:     [][]float32{ch},
	}
}

// countingSink counts telemetry events by kind; safe for concurrent use
// since tile builds run on a background goroutine.
type countingSink struct {
	mu     sync.Mutex
	counts map[string]int
	events []specmodel.TelemetryEvent
}

func newCountingSink() *countingSink {
	return &countingSink{counts: make(map[string]int)}
}

func (s *countingSink) Record(ev specmodel.TelemetryEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[ev.Kind]++
	s.events = append(s.events, ev)
	return nil
}

func (s *countingSink) count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[kind]
}

func TestLoadThenInsufficientLengthSurfaces(t *testing.T) {
	core, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer core.Teardown()

	short := PcmBuffer{SampleRate: 48000, ChannelCount: 1, Length: 512, Channels: [][]float32{make([]float32, 512)}}
	if err := core.Load(short); err == nil {
		t.Fatal("expected InsufficientLength error for a 512-sample clip against fft_size=1024")
	}
}

// TestViewSnapScenario checks that a requested zoom factor of 0.97 snaps
// to exactly 1.0, so samples-per-pixel snaps to BaseSPP.
func TestViewSnapScenario(t *testing.T) {
	core, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer core.Teardown()

	track := sineTrack(48000, 48000*20, 440)
	if err := core.Load(track); err != nil {
		t.Fatalf("Load: %v", err)
	}

	requestedSPP := core.cfg.BaseSPP / 0.97
	if err := core.SetView(0, 5, requestedSPP); err != nil {
		t.Fatalf("SetView: %v", err)
	}

	core.mu.Lock()
	gotSPP := core.view.SamplesPerPixel
	core.mu.Unlock()

	if gotSPP != core.cfg.BaseSPP {
		t.Fatalf("samples_per_pixel = %v, want snapped BaseSPP %v", gotSPP, core.cfg.BaseSPP)
	}
}

// TestTileRefreshScenario checks that, at a zoom level fine enough to
// warrant a hi-res tile, one SetView call issues exactly one tile build;
// repeating the identical view before the debounce window elapses must
// not issue a second one.
func TestTileRefreshScenario(t *testing.T) {
	sink := newCountingSink()
	core, err := New(WithTelemetry(sink))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer core.Teardown()

	track := sineTrack(48000, 48000*30, 440)
	if err := core.Load(track); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// spp = 256 corresponds to zoom factor 8 (BaseSPP=2048/8=256); fine
	// enough that hop_full/sample_rate exceeds 0.8/pps and a hi-res tile
	// is warranted.
	if err := core.SetView(2, 1, 256); err != nil {
		t.Fatalf("SetView: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := core.SetView(2, 1, 256); err != nil {
		t.Fatalf("SetView (repeat): %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	core.wg.Wait()
	if got := sink.count("tile"); got != 1 {
		t.Fatalf("tile builds = %d, want exactly 1 (debounce should suppress the repeat)", got)
	}
}

// TestCancellationScenario checks that issuing setView(A) then
// setView(B) in quick succession installs B's tile, never A's,
// regardless of which build happens to finish last.
func TestCancellationScenario(t *testing.T) {
	core, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer core.Teardown()

	track := sineTrack(48000, 48000*30, 440)
	if err := core.Load(track); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := core.SetView(1, 1, 256); err != nil { // A
		t.Fatalf("SetView A: %v", err)
	}
	if err := core.SetView(10, 1, 256); err != nil { // B, issued before A's debounce would matter
		t.Fatalf("SetView B: %v", err)
	}

	core.wg.Wait()

	core.mu.Lock()
	hiRes := core.hiRes
	core.mu.Unlock()

	if hiRes == nil {
		t.Fatal("expected a hi-res tile to be installed")
	}
	// B's expanded window is centered near view_start=10; A's near 1. A
	// tolerant bound distinguishes them without hardcoding ExpandRequest's
	// exact padding arithmetic here.
	if hiRes.SliceStart < 5 {
		t.Fatalf("installed tile SliceStart = %v, want B's window (near 10), not A's (near 1)", hiRes.SliceStart)
	}
}
