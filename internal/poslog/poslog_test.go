package poslog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tiger-trader/internal/model"
)

func tempLog(t *testing.T) *Log {
	t.Helper()
	l, err := New(filepath.Join(t.TempDir(), "positions.log"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func TestParseLine(t *testing.T) {
	line := `2025-12-24 03:54:44,584 - Positions: [{"symbol":"00700","quantity":100,"market_value":32140.0}]`
	snap := ParseLine(line)
	if snap == nil {
		t.Fatal("expected parse to succeed")
	}
	if snap.Timestamp.Second() != 44 {
		t.Errorf("timestamp = %v", snap.Timestamp)
	}
	if len(snap.Positions) != 1 || snap.Positions[0].Symbol != "00700" {
		t.Errorf("positions = %+v", snap.Positions)
	}
}

func TestParseLine_Malformed(t *testing.T) {
	for _, line := range []string{
		"",
		"random noise",
		"2025-12-24 03:54:44,584 - Something else: []",
		`2025-12-24 03:54:44,584 - Positions: {not json]`,
	} {
		if snap := ParseLine(line); snap != nil {
			t.Errorf("ParseLine(%q) should fail, got %+v", line, snap)
		}
	}
}

func TestWriteAndLatest_RoundTrip(t *testing.T) {
	l := tempLog(t)

	ts := time.Date(2025, 12, 24, 3, 54, 44, 584e6, time.Local)
	pos := []model.Position{{Symbol: "00700", Quantity: 100, MarketValue: 32140}}
	if err := l.LogPositions(ts, pos); err != nil {
		t.Fatalf("LogPositions: %v", err)
	}

	snap, err := l.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if snap == nil {
		t.Fatal("expected a snapshot")
	}
	if snap.Positions[0].MarketValue != 32140 {
		t.Errorf("market value = %v", snap.Positions[0].MarketValue)
	}
}

func TestLatest_SkipsMalformedTail(t *testing.T) {
	l := tempLog(t)

	ts := time.Date(2025, 12, 24, 3, 0, 0, 0, time.Local)
	if err := l.LogPositions(ts, []model.Position{{Symbol: "00700", MarketValue: 100}}); err != nil {
		t.Fatal(err)
	}
	// Corrupt tail line appended out-of-band.
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("corrupted line without structure\n")
	f.Close()

	snap, err := l.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if snap == nil || snap.Positions[0].Symbol != "00700" {
		t.Fatalf("expected the valid entry before the corrupt tail, got %+v", snap)
	}
}

func TestLatest_MissingFile(t *testing.T) {
	l, err := New(filepath.Join(t.TempDir(), "nope", "positions.log"))
	if err != nil {
		t.Fatal(err)
	}
	snap, err := l.Latest()
	if err != nil {
		t.Fatalf("Latest on missing file: %v", err)
	}
	if snap != nil {
		t.Errorf("got %+v, want nil", snap)
	}
}

func TestAggregate(t *testing.T) {
	got := Aggregate([]model.Position{
		{Symbol: "00700", MarketValue: 100.5},
		{Symbol: "09988", MarketValue: 49.5},
	})
	if got != 150.0 {
		t.Errorf("Aggregate = %v, want 150.0", got)
	}
	if Aggregate(nil) != 0 {
		t.Error("Aggregate(nil) should be 0")
	}
}

func TestSince_And_History(t *testing.T) {
	l := tempLog(t)
	base := time.Now().Add(-2 * time.Hour)
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		if err := l.LogPositions(ts, []model.Position{{Symbol: "00700", MarketValue: float64(100 + i)}}); err != nil {
			t.Fatal(err)
		}
	}

	snaps, err := l.Since(base.Add(30 * time.Second))
	if err != nil {
		t.Fatalf("Since: %v", err)
	}
	if len(snaps) != 2 {
		t.Errorf("Since returned %d snapshots, want 2", len(snaps))
	}

	hist, err := l.History(1)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 3 {
		t.Errorf("History returned %d points, want 3", len(hist))
	}
	if hist[0].MarketValue != 100 || hist[0].TotalEquity != 100 {
		t.Errorf("first point = %+v", hist[0])
	}
}
