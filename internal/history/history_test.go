package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/cogniac/cogstats/internal/cogniac"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() failed: %v", err)
		}
	})
	return db
}

func snapshot(gatewayID string, detections int64, at time.Time) Snapshot {
	return Snapshot{
		FetchedAt:       at,
		TenantID:        "T1",
		GatewayID:       gatewayID,
		Name:            "cam-" + gatewayID,
		ModelDetections: detections,
		MediaPixels:     1000,
		GPUPixels:       2000,
		WindowStart:     sql.NullFloat64{Float64: 0, Valid: true},
		WindowEnd:       sql.NullFloat64{Float64: 100, Valid: true},
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
}

func TestRecordAndRecent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	for i, gw := range []string{"G1", "G2", "G1"} {
		snap := snapshot(gw, int64(i+1), base.Add(time.Duration(i)*time.Minute))
		if err := db.RecordSnapshot(ctx, snap); err != nil {
			t.Fatalf("RecordSnapshot() failed: %v", err)
		}
	}

	snaps, err := db.Recent(ctx, "T1", "", 10)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(snaps))
	}
	// Newest first.
	if snaps[0].ModelDetections != 3 || snaps[2].ModelDetections != 1 {
		t.Errorf("wrong order: %+v", snaps)
	}
	if !snaps[0].FetchedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("FetchedAt = %v", snaps[0].FetchedAt)
	}
	if !snaps[0].WindowEnd.Valid || snaps[0].WindowEnd.Float64 != 100 {
		t.Errorf("WindowEnd = %+v", snaps[0].WindowEnd)
	}

	// Gateway filter.
	snaps, err = db.Recent(ctx, "T1", "G2", 10)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(snaps) != 1 || snaps[0].GatewayID != "G2" {
		t.Errorf("filter returned %+v", snaps)
	}

	// Unknown tenant.
	snaps, err = db.Recent(ctx, "T9", "", 10)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(snaps) != 0 {
		t.Errorf("got %d snapshots for unknown tenant", len(snaps))
	}
}

func TestRecentLimit(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		if err := db.RecordSnapshot(ctx, snapshot("G1", int64(i), base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("RecordSnapshot() failed: %v", err)
		}
	}

	snaps, err := db.Recent(ctx, "T1", "", 2)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(snaps) != 2 {
		t.Errorf("got %d snapshots, want 2", len(snaps))
	}
}

func TestDetectionSeries(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i, count := range []int64{10, 20, 30} {
		if err := db.RecordSnapshot(ctx, snapshot("G1", count, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("RecordSnapshot() failed: %v", err)
		}
	}

	series, err := db.DetectionSeries(ctx, "T1", "G1", 10)
	if err != nil {
		t.Fatalf("DetectionSeries() failed: %v", err)
	}
	want := []float64{10, 20, 30}
	if len(series) != len(want) {
		t.Fatalf("got %d points, want %d", len(series), len(want))
	}
	for i := range want {
		if series[i] != want[i] {
			t.Errorf("series[%d] = %v, want %v (oldest first)", i, series[i], want[i])
		}
	}

	// Limit keeps the most recent points.
	series, err = db.DetectionSeries(ctx, "T1", "G1", 2)
	if err != nil {
		t.Fatalf("DetectionSeries() failed: %v", err)
	}
	if len(series) != 2 || series[0] != 20 || series[1] != 30 {
		t.Errorf("limited series = %v, want [20 30]", series)
	}
}

func TestNewSnapshot(t *testing.T) {
	ef := &cogniac.EdgeFlow{Name: "cam1", GatewayID: "G1"}
	stats := &cogniac.AggregatedStats{
		Total: cogniac.StatCounters{
			ModelDetections:       5,
			AggregatedMediaPixels: json.Number("1000.5"),
			AggregatedGPUPixels:   json.Number("2000"),
		},
		StartTimestamp: json.Number("0"),
		EndTimestamp:   json.Number("100"),
	}

	snap := NewSnapshot("T1", ef, stats)
	if snap.TenantID != "T1" || snap.GatewayID != "G1" || snap.Name != "cam1" {
		t.Errorf("identity fields: %+v", snap)
	}
	if snap.ModelDetections != 5 {
		t.Errorf("ModelDetections = %d", snap.ModelDetections)
	}
	if snap.MediaPixels != 1000.5 || snap.GPUPixels != 2000 {
		t.Errorf("pixels = %v/%v", snap.MediaPixels, snap.GPUPixels)
	}
	if !snap.WindowStart.Valid || snap.WindowStart.Float64 != 0 {
		t.Errorf("WindowStart = %+v", snap.WindowStart)
	}
	if !snap.WindowEnd.Valid || snap.WindowEnd.Float64 != 100 {
		t.Errorf("WindowEnd = %+v", snap.WindowEnd)
	}
	if snap.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}
