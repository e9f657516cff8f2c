package database

import (
	"database/sql"
	"fmt"
	"time"

	"host-prober/internal/models"
)

// timestampLayouts are the textual forms of DATETIME values produced by
// the driver and by SQLite's own date functions.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// ParseTimestamp parses a DATETIME returned through an aggregate, where
// the driver no longer knows the column type.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// rawRetention is how long individual probe results are kept before only
// their hourly rollup remains
const rawRetention = "-7 days"

// ArchiveOldData folds service results older than the raw retention window
// into hourly_stats, then deletes them. Hourly rows expire after 90 days.
// A bucket archived in several passes accumulates its counts.
func (db *DB) ArchiveOldData() (models.ArchiveStats, error) {
	var stats models.ArchiveStats

	tx, err := db.Begin()
	if err != nil {
		return stats, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var rolledUp sql.NullInt64
	err = tx.QueryRow(`
        SELECT COUNT(*) FROM service_results
        WHERE timestamp < datetime('now', ?)
        AND timestamp > datetime('now', '-90 days')
    `, rawRetention).Scan(&rolledUp)
	if err != nil {
		return stats, fmt.Errorf("count archivable results: %w", err)
	}
	stats.RolledUp = rolledUp.Int64

	_, err = tx.Exec(`
        INSERT INTO hourly_stats (hour, host, service, total_probes, reachable_probes, uptime_percent)
        SELECT
            strftime('%Y-%m-%d %H:00:00', timestamp) as hour,
            host,
            port || '/' || protocol as service,
            COUNT(*) as total_probes,
            SUM(CASE WHEN reachable THEN 1 ELSE 0 END) as reachable_probes,
            ROUND(CAST(SUM(CASE WHEN reachable THEN 1 ELSE 0 END) AS REAL) * 100 / COUNT(*), 2) as uptime_percent
        FROM service_results
        WHERE timestamp < datetime('now', ?)
        AND timestamp > datetime('now', '-90 days')
        GROUP BY hour, host, service
        ON CONFLICT(hour, host, service) DO UPDATE SET
            total_probes = hourly_stats.total_probes + excluded.total_probes,
            reachable_probes = hourly_stats.reachable_probes + excluded.reachable_probes,
            uptime_percent = ROUND(
                CAST(hourly_stats.reachable_probes + excluded.reachable_probes AS REAL) * 100 /
                (hourly_stats.total_probes + excluded.total_probes), 2)
    `, rawRetention)
	if err != nil {
		return stats, fmt.Errorf("roll up results: %w", err)
	}

	deletes := []struct {
		query string
		dst   *int64
	}{
		{`DELETE FROM service_results WHERE timestamp < datetime('now', ?)`, &stats.DeletedResults},
		{`DELETE FROM probe_runs WHERE timestamp < datetime('now', ?)`, &stats.DeletedRuns},
	}
	for _, d := range deletes {
		res, err := tx.Exec(d.query, rawRetention)
		if err != nil {
			return stats, fmt.Errorf("expire raw rows: %w", err)
		}
		*d.dst, _ = res.RowsAffected()
	}

	res, err := tx.Exec(`DELETE FROM hourly_stats WHERE hour < datetime('now', '-90 days')`)
	if err != nil {
		return stats, fmt.Errorf("expire hourly rows: %w", err)
	}
	stats.DeletedHourly, _ = res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit: %w", err)
	}

	// VACUUM cannot run inside a transaction; once a month is enough
	if time.Now().Day() == 1 && !stats.Empty() {
		if _, err := db.Exec("VACUUM"); err != nil {
			return stats, fmt.Errorf("vacuum: %w", err)
		}
		stats.Vacuumed = true
	}

	return stats, nil
}
