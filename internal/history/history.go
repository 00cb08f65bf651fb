// Package history stores aggregated-stat snapshots in a local sqlite
// database so successive runs can be compared and charted.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"

	"github.com/cogniac/cogstats/internal/cogniac"
)

// DB wraps the SQL database connection with application-specific methods.
type DB struct {
	*sql.DB
	path string
}

// Snapshot is one recorded aggregated-stats fetch for one EdgeFlow.
type Snapshot struct {
	FetchedAt       time.Time
	TenantID        string
	GatewayID       string
	Name            string
	ModelDetections int64
	MediaPixels     float64
	GPUPixels       float64
	WindowStart     sql.NullFloat64
	WindowEnd       sql.NullFloat64
}

// NewSnapshot builds a Snapshot from a fetched stats record.
func NewSnapshot(tenantID string, ef *cogniac.EdgeFlow, stats *cogniac.AggregatedStats) Snapshot {
	snap := Snapshot{
		FetchedAt:       time.Now().UTC(),
		TenantID:        tenantID,
		GatewayID:       ef.GatewayID,
		Name:            ef.Name,
		ModelDetections: stats.Total.ModelDetections,
	}
	snap.MediaPixels, _ = stats.Total.AggregatedMediaPixels.Float64()
	snap.GPUPixels, _ = stats.Total.AggregatedGPUPixels.Float64()
	if v, err := stats.StartTimestamp.Float64(); err == nil {
		snap.WindowStart = sql.NullFloat64{Float64: v, Valid: true}
	}
	if v, err := stats.EndTimestamp.Float64(); err == nil {
		snap.WindowEnd = sql.NullFloat64{Float64: v, Valid: true}
	}
	return snap
}

// Open creates a new database connection and initializes the schema.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{
		DB:   sqlDB,
		path: path,
	}

	if err := db.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := db.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// configure sets up database pragmas.
func (db *DB) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

func (db *DB) createSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS stat_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fetched_at DATETIME NOT NULL,
		tenant_id TEXT NOT NULL,
		gateway_id TEXT NOT NULL,
		name TEXT NOT NULL,
		model_detections INTEGER NOT NULL DEFAULT 0,
		media_pixels REAL NOT NULL DEFAULT 0,
		gpu_pixels REAL NOT NULL DEFAULT 0,
		window_start REAL,
		window_end REAL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_tenant_gateway
		ON stat_snapshots(tenant_id, gateway_id, fetched_at);
	`
	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create stat_snapshots table: %w", err)
	}
	return nil
}
