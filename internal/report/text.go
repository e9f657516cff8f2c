package report

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"host-prober/internal/database"
)

func (g *Generator) generateTextReport(outputDir string, hours int) error {
	filename := filepath.Join(outputDir, "summary.txt")
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "Host Probe Report\n")
	fmt.Fprintf(file, "Generated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "Period: Last %d hours\n\n", hours)
	fmt.Fprintln(file, strings.Repeat("=", 60))

	if err := g.writePingStats(file, hours); err != nil {
		return err
	}

	fmt.Fprintln(file, strings.Repeat("=", 60))

	if err := g.writeServiceStats(file, hours); err != nil {
		return err
	}

	fmt.Fprintln(file, strings.Repeat("=", 60))

	if err := g.writeOutages(file, hours); err != nil {
		return err
	}

	fmt.Fprintln(file, strings.Repeat("=", 60))
	fmt.Fprintln(file, "\nCharts are available in the accompanying files.")

	return nil
}

func (g *Generator) writePingStats(file *os.File, hours int) error {
	query := `
        SELECT
            host,
            COUNT(*) as total,
            SUM(CASE WHEN ping_reachable THEN 1 ELSE 0 END) as reachable,
            AVG(rtt_ms) as avg_rtt,
            MIN(rtt_ms) as min_rtt,
            MAX(rtt_ms) as max_rtt
        FROM probe_runs
        WHERE ping_enabled = 1
        AND timestamp > datetime('now', '-' || ? || ' hours')
        GROUP BY host
        ORDER BY host
    `

	rows, err := g.db.Query(query, hours)
	if err != nil {
		return err
	}
	defer rows.Close()

	fmt.Fprintln(file, "\nPING")

	hosts := 0
	for rows.Next() {
		var host string
		var total, reachable int
		var avgRTT, minRTT, maxRTT sql.NullFloat64

		if err := rows.Scan(&host, &total, &reachable, &avgRTT, &minRTT, &maxRTT); err != nil {
			continue
		}
		hosts++

		fmt.Fprintf(file, "Host: %s\n", host)
		fmt.Fprintf(file, "  Pings: %d\n", total)
		fmt.Fprintf(file, "  Reachable: %d (%.2f%%)\n", reachable, percent(reachable, total))
		if avgRTT.Valid {
			fmt.Fprintf(file, "  Average RTT: %.2f ms\n", avgRTT.Float64)
			fmt.Fprintf(file, "  Min RTT: %.2f ms\n", minRTT.Float64)
			fmt.Fprintf(file, "  Max RTT: %.2f ms\n", maxRTT.Float64)
		}
		fmt.Fprintln(file)
	}
	if hosts == 0 {
		fmt.Fprintln(file, "Ping was not enabled for any probe in this period.")
	}

	return rows.Err()
}

func (g *Generator) writeServiceStats(file *os.File, hours int) error {
	query := `
        SELECT
            host,
            port || '/' || protocol as service,
            COUNT(*) as total,
            SUM(CASE WHEN reachable THEN 1 ELSE 0 END) as reachable
        FROM service_results
        WHERE timestamp > datetime('now', '-' || ? || ' hours')
        GROUP BY host, protocol, port
        ORDER BY host, protocol, port
    `

	rows, err := g.db.Query(query, hours)
	if err != nil {
		return err
	}
	defer rows.Close()

	fmt.Fprintln(file, "\nSERVICES")

	for rows.Next() {
		var host, service string
		var total, reachable int

		if err := rows.Scan(&host, &service, &total, &reachable); err != nil {
			continue
		}

		fmt.Fprintf(file, "%s %s\n", host, service)
		fmt.Fprintf(file, "  Probes: %d\n", total)
		fmt.Fprintf(file, "  Reachable: %d (%.2f%%)\n", reachable, percent(reachable, total))
		fmt.Fprintln(file)
	}

	return rows.Err()
}

func (g *Generator) writeOutages(file *os.File, hours int) error {
	query := `
        WITH grouped_failures AS (
            SELECT
                host,
                protocol,
                port,
                timestamp,
                reachable,
                ROW_NUMBER() OVER (PARTITION BY host, protocol, port ORDER BY timestamp) -
                ROW_NUMBER() OVER (PARTITION BY host, protocol, port, reachable ORDER BY timestamp) as grp
            FROM service_results
            WHERE timestamp > datetime('now', '-' || ? || ' hours')
        )
        SELECT
            host,
            port || '/' || protocol as service,
            MIN(timestamp) as start_time,
            MAX(timestamp) as end_time,
            COUNT(*) as failed_checks
        FROM grouped_failures
        WHERE reachable = 0
        GROUP BY host, protocol, port, grp
        HAVING COUNT(*) >= 3
        ORDER BY start_time DESC
    `

	rows, err := g.db.Query(query, hours)
	if err != nil {
		return err
	}
	defer rows.Close()

	fmt.Fprintln(file, "\nOUTAGE PERIODS (3+ consecutive failures)")

	outageCount := 0
	for rows.Next() {
		var host, service, start, end string
		var failedChecks int

		if err := rows.Scan(&host, &service, &start, &end, &failedChecks); err != nil {
			continue
		}
		startTime, _ := database.ParseTimestamp(start)
		endTime, _ := database.ParseTimestamp(end)

		fmt.Fprintf(file, "Outage #%d\n", outageCount+1)
		fmt.Fprintf(file, "  Host: %s\n", host)
		fmt.Fprintf(file, "  Service: %s\n", service)
		fmt.Fprintf(file, "  Start: %s\n", startTime.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(file, "  End: %s\n", endTime.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(file, "  Duration: %s\n", endTime.Sub(startTime))
		fmt.Fprintf(file, "  Failed Checks: %d\n", failedChecks)
		fmt.Fprintln(file)

		outageCount++
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if outageCount == 0 {
		fmt.Fprintln(file, "No significant outages detected.")
	} else {
		fmt.Fprintf(file, "\nTotal Outages: %d\n", outageCount)
	}

	return nil
}
