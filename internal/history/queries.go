package history

import (
	"context"
	"fmt"
	"time"
)

// RecordSnapshot inserts one snapshot row.
func (db *DB) RecordSnapshot(ctx context.Context, snap Snapshot) error {
	query := `
	INSERT INTO stat_snapshots
		(fetched_at, tenant_id, gateway_id, name, model_detections, media_pixels, gpu_pixels, window_start, window_end)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.ExecContext(ctx, query,
		snap.FetchedAt.Format(time.RFC3339Nano),
		snap.TenantID,
		snap.GatewayID,
		snap.Name,
		snap.ModelDetections,
		snap.MediaPixels,
		snap.GPUPixels,
		snap.WindowStart,
		snap.WindowEnd,
	)
	if err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	return nil
}

// Recent returns the most recent snapshots for a tenant, newest first.
// gatewayID narrows the result to one EdgeFlow when non-empty.
func (db *DB) Recent(ctx context.Context, tenantID, gatewayID string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT fetched_at, tenant_id, gateway_id, name, model_detections, media_pixels, gpu_pixels, window_start, window_end
	FROM stat_snapshots
	WHERE tenant_id = ? AND (? = '' OR gateway_id = ?)
	ORDER BY fetched_at DESC, id DESC
	LIMIT ?`

	rows, err := db.QueryContext(ctx, query, tenantID, gatewayID, gatewayID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		var fetchedAt string
		err := rows.Scan(&fetchedAt, &snap.TenantID, &snap.GatewayID, &snap.Name,
			&snap.ModelDetections, &snap.MediaPixels, &snap.GPUPixels,
			&snap.WindowStart, &snap.WindowEnd)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, fetchedAt); err == nil {
			snap.FetchedAt = t
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// DetectionSeries returns up to limit model-detection counts for one
// EdgeFlow, oldest first, suitable for charting.
func (db *DB) DetectionSeries(ctx context.Context, tenantID, gatewayID string, limit int) ([]float64, error) {
	if limit <= 0 {
		limit = 60
	}

	query := `
	SELECT model_detections FROM (
		SELECT id, model_detections
		FROM stat_snapshots
		WHERE tenant_id = ? AND gateway_id = ?
		ORDER BY fetched_at DESC, id DESC
		LIMIT ?
	) ORDER BY id ASC`

	rows, err := db.QueryContext(ctx, query, tenantID, gatewayID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query detection series: %w", err)
	}
	defer rows.Close()

	var series []float64
	for rows.Next() {
		var count int64
		if err := rows.Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to scan detection count: %w", err)
		}
		series = append(series, float64(count))
	}
	return series, rows.Err()
}
