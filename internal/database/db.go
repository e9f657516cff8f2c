package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps sql.DB with probe history operations
type DB struct {
	*sql.DB
}

// connParams are applied by the driver to every pooled connection.
// Times are written in a layout SQLite's date functions understand;
// the driver default is time.Time.String, which strftime cannot parse.
const connParams = "_pragma=journal_mode(WAL)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_pragma=foreign_keys(1)" +
	"&_time_format=sqlite"

// New creates a new database connection
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("database open failed: %w", err)
	}

	return &DB{db}, nil
}

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + connParams
	}
	return path + "?" + connParams
}

// InitSchema creates all necessary tables
func (db *DB) InitSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS probe_runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        timestamp DATETIME NOT NULL,
        host TEXT NOT NULL,
        ping_enabled BOOLEAN NOT NULL,
        ping_reachable BOOLEAN NOT NULL,
        ping_info TEXT,
        rtt_ms REAL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON probe_runs(timestamp);
    CREATE INDEX IF NOT EXISTS idx_runs_host_timestamp ON probe_runs(host, timestamp);

    CREATE TABLE IF NOT EXISTS service_results (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id INTEGER NOT NULL REFERENCES probe_runs(id) ON DELETE CASCADE,
        timestamp DATETIME NOT NULL,
        host TEXT NOT NULL,
        protocol TEXT NOT NULL,
        port INTEGER NOT NULL,
        reachable BOOLEAN NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_results_run ON service_results(run_id);
    CREATE INDEX IF NOT EXISTS idx_results_service_timestamp ON service_results(host, protocol, port, timestamp);

    CREATE TABLE IF NOT EXISTS hourly_stats (
        hour DATETIME NOT NULL,
        host TEXT NOT NULL,
        service TEXT NOT NULL,
        total_probes INTEGER,
        reachable_probes INTEGER,
        uptime_percent REAL,
        PRIMARY KEY (hour, host, service)
    );
    `

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}

	return nil
}
