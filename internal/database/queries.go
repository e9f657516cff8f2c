package database

import (
	"database/sql"
	"fmt"
	"strconv"

	"host-prober/internal/models"
	"host-prober/internal/ping"
)

// SaveReport stores a probe report and its service results atomically
func (db *DB) SaveReport(report models.Report) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var (
		pingInfo sql.NullString
		rtt      sql.NullFloat64
	)
	if report.Ping != nil && report.Ping.Info != "" {
		pingInfo = sql.NullString{String: report.Ping.Info, Valid: true}
		if v := ping.ParseRTT(report.Ping.Info); v > 0 {
			rtt = sql.NullFloat64{Float64: v, Valid: true}
		}
	}

	ts := report.Timestamp.UTC()
	res, err := tx.Exec(`
        INSERT INTO probe_runs (timestamp, host, ping_enabled, ping_reachable, ping_info, rtt_ms)
        VALUES (?, ?, ?, ?, ?, ?)
    `,
		ts,
		report.Host,
		report.Ping != nil,
		report.PingReachable(),
		pingInfo,
		rtt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	stmt, err := tx.Prepare(`
        INSERT INTO service_results (run_id, timestamp, host, protocol, port, reachable)
        VALUES (?, ?, ?, ?, ?, ?)
    `)
	if err != nil {
		return fmt.Errorf("prepare service insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range report.SortedServices() {
		if _, err := stmt.Exec(runID, ts, report.Host, s.Protocol.String(), s.Port, s.Reachable); err != nil {
			return fmt.Errorf("insert service %s: %w", s.Key(), err)
		}
	}

	return tx.Commit()
}

// GetRecent retrieves recent probe runs with their service results
func (db *DB) GetRecent(hours int) ([]models.ProbeRecord, error) {
	query := `
        SELECT id, timestamp, host, ping_enabled, ping_reachable, rtt_ms
        FROM probe_runs
        WHERE timestamp > datetime('now', '-' || ? || ' hours')
        ORDER BY timestamp DESC
        LIMIT 10000
    `

	rows, err := db.Query(query, hours)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ProbeRecord
	index := make(map[int64]int)
	for rows.Next() {
		var r models.ProbeRecord
		var rtt sql.NullFloat64
		err := rows.Scan(&r.ID, &r.Timestamp, &r.Host, &r.PingEnabled, &r.PingReachable, &rtt)
		if err != nil {
			continue
		}
		if rtt.Valid {
			r.RTT = rtt.Float64
		}
		index[r.ID] = len(records)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return records, nil
	}

	svcRows, err := db.Query(`
        SELECT run_id, protocol, port, reachable
        FROM service_results
        WHERE timestamp > datetime('now', '-' || ? || ' hours')
        ORDER BY run_id, protocol, port
    `, hours)
	if err != nil {
		return nil, err
	}
	defer svcRows.Close()

	for svcRows.Next() {
		var runID int64
		var s models.ServiceResult
		if err := svcRows.Scan(&runID, &s.Protocol, &s.Port, &s.Reachable); err != nil {
			continue
		}
		if i, ok := index[runID]; ok {
			records[i].Services = append(records[i].Services, s)
		}
	}

	return records, svcRows.Err()
}

// GetStats retrieves per-service availability for each host
func (db *DB) GetStats(hours int) ([]models.ServiceUptime, error) {
	query := `
        SELECT
            host,
            port,
            protocol,
            COUNT(*) as total_probes,
            SUM(CASE WHEN reachable THEN 1 ELSE 0 END) as reachable_probes,
            ROUND(CAST(SUM(CASE WHEN reachable THEN 1 ELSE 0 END) AS REAL) * 100 / COUNT(*), 2) as uptime
        FROM service_results
        WHERE timestamp > datetime('now', '-' || ? || ' hours')
        GROUP BY host, protocol, port
        ORDER BY host, protocol, port
    `

	rows, err := db.Query(query, hours)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.ServiceUptime
	for rows.Next() {
		var s models.ServiceUptime
		var port int
		var proto string
		err := rows.Scan(&s.Host, &port, &proto, &s.TotalProbes, &s.Reachable, &s.Uptime)
		if err != nil {
			continue
		}
		s.Service = strconv.Itoa(port) + "/" + proto
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// GetOutages retrieves periods of 3+ consecutive failed probes per service
func (db *DB) GetOutages(days int) ([]models.Outage, error) {
	query := `
        WITH grouped AS (
            SELECT
                host,
                port || '/' || protocol as service,
                timestamp,
                reachable,
                ROW_NUMBER() OVER (PARTITION BY host, protocol, port ORDER BY timestamp) -
                ROW_NUMBER() OVER (PARTITION BY host, protocol, port, reachable ORDER BY timestamp) as grp
            FROM service_results
            WHERE timestamp > datetime('now', '-' || ? || ' days')
        )
        SELECT
            host,
            service,
            MIN(timestamp) as start_time,
            MAX(timestamp) as end_time,
            COUNT(*) as failed_checks
        FROM grouped
        WHERE reachable = 0
        GROUP BY host, service, grp
        HAVING COUNT(*) >= 3
        ORDER BY start_time DESC
        LIMIT 100
    `

	rows, err := db.Query(query, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outages []models.Outage
	for rows.Next() {
		var o models.Outage
		var start, end string
		err := rows.Scan(&o.Host, &o.Service, &start, &end, &o.FailedChecks)
		if err != nil {
			continue
		}
		o.StartTime, _ = ParseTimestamp(start)
		o.EndTime, _ = ParseTimestamp(end)
		o.Duration = o.EndTime.Sub(o.StartTime).String()
		outages = append(outages, o)
	}

	return outages, rows.Err()
}
