package models

import "time"

// ProbeRecord is a persisted probe of a single host
type ProbeRecord struct {
	ID            int64           `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	Host          string          `json:"host"`
	PingEnabled   bool            `json:"ping_enabled"`
	PingReachable bool            `json:"ping_reachable"`
	RTT           float64         `json:"rtt_ms"` // milliseconds
	Services      []ServiceResult `json:"services"`
}

// ServiceResult is a persisted per-service outcome
type ServiceResult struct {
	Protocol  string `json:"protocol"`
	Port      int    `json:"port"`
	Reachable bool   `json:"reachable"`
}

// ServiceUptime represents aggregated availability of one service of a host
type ServiceUptime struct {
	Host        string  `json:"host"`
	Service     string  `json:"service"`
	TotalProbes int     `json:"total_probes"`
	Reachable   int     `json:"reachable_probes"`
	Uptime      float64 `json:"uptime_percent"`
}

// Outage represents a period where a service failed consecutive probes
type Outage struct {
	Host         string    `json:"host"`
	Service      string    `json:"service"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	FailedChecks int       `json:"failed_checks"`
	Duration     string    `json:"duration"`
}

// ArchiveStats counts the rows touched by one retention pass
type ArchiveStats struct {
	RolledUp       int64 // service results folded into hourly buckets
	DeletedRuns    int64
	DeletedResults int64
	DeletedHourly  int64
	Vacuumed       bool
}

// Empty reports whether the pass changed nothing
func (a ArchiveStats) Empty() bool {
	return a.RolledUp == 0 && a.DeletedRuns == 0 && a.DeletedResults == 0 && a.DeletedHourly == 0
}
