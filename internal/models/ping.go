package models

import (
	"sort"
	"time"
)

// PingStats is the outcome of a single ping probe
type PingStats struct {
	Reachable bool   `json:"reachable"`
	Info      string `json:"info,omitempty"` // raw ping command output
}

// ServiceStats is the outcome of probing one (protocol, port) target
type ServiceStats struct {
	Protocol  Protocol `json:"protocol"`
	Port      int      `json:"port"`
	Reachable bool     `json:"reachable"`
	Info      string   `json:"info,omitempty"`
}

// Key returns the "port/PROTO" key of the service
func (s ServiceStats) Key() string {
	return ServiceKey(s.Protocol, s.Port)
}

// Report aggregates the results of one probe of a host.
// Ping is nil when ping was not enabled for the probe.
type Report struct {
	Host      string                  `json:"host"`
	Timestamp time.Time               `json:"timestamp"`
	Ping      *PingStats              `json:"ping,omitempty"`
	Services  map[string]ServiceStats `json:"services"`
}

// NewReport creates an empty report for host
func NewReport(host string) Report {
	return Report{
		Host:      host,
		Timestamp: time.Now(),
		Services:  make(map[string]ServiceStats),
	}
}

// AddService stores stats under its key, replacing any previous entry
func (r *Report) AddService(stats ServiceStats) {
	if r.Services == nil {
		r.Services = make(map[string]ServiceStats)
	}
	r.Services[stats.Key()] = stats
}

// PingReachable reports whether the ping probe ran and succeeded
func (r Report) PingReachable() bool {
	return r.Ping != nil && r.Ping.Reachable
}

// PingInfo returns the raw ping output, if any
func (r Report) PingInfo() string {
	if r.Ping == nil {
		return ""
	}
	return r.Ping.Info
}

// Service looks up the stats for a (protocol, port) target
func (r Report) Service(proto Protocol, port int) (ServiceStats, bool) {
	s, ok := r.Services[ServiceKey(proto, port)]
	return s, ok
}

// SortedServices returns the service stats ordered by protocol then port
func (r Report) SortedServices() []ServiceStats {
	out := make([]ServiceStats, 0, len(r.Services))
	for _, s := range r.Services {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Protocol != out[j].Protocol {
			return out[i].Protocol < out[j].Protocol
		}
		return out[i].Port < out[j].Port
	})
	return out
}
