package telemetry

import (
	"path/filepath"
	"testing"

	"github.com/kakira9618/spectralcore/internal/specmodel"
)

func openTestSink(t *testing.T) *Sink {
	t.Helper()
	path := filepath.Join(t.TempDir(), "telemetry.sqlite3")
	sink, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { sink.Close() })
	return sink
}

func TestRecordAndRecentBySession(t *testing.T) {
	sink := openTestSink(t)

	events := []specmodel.TelemetryEvent{
		{SessionID: "s1", Kind: "load", Token: 1, Frames: 100, Duration: 5, Outcome: "done"},
		{SessionID: "s1", Kind: "tile", Token: 2, Frames: 40, Duration: 2, Outcome: "done"},
		{SessionID: "s2", Kind: "load", Token: 1, Frames: 50, Duration: 3, Outcome: "done"},
	}
	for _, ev := range events {
		if err := sink.Record(ev); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	rows, err := sink.RecentBySession("s1", 10)
	if err != nil {
		t.Fatalf("RecentBySession: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Kind != "tile" {
		t.Fatalf("rows[0].Kind = %q, want most-recent-first ordering", rows[0].Kind)
	}
}

func TestRecordOnNilSinkErrors(t *testing.T) {
	var sink *Sink
	if err := sink.Record(specmodel.TelemetryEvent{}); err == nil {
		t.Fatal("expected error recording on a nil sink")
	}
}
