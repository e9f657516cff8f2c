package models

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Protocol identifies the transport used to probe an inet service
type Protocol int

const (
	TCP Protocol = iota
	UDP
)

func (p Protocol) String() string {
	switch p {
	case TCP:
		return "TCP"
	case UDP:
		return "UDP"
	default:
		return "Protocol(" + strconv.Itoa(int(p)) + ")"
	}
}

// MarshalText implements encoding.TextMarshaler
func (p Protocol) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Protocol) UnmarshalText(text []byte) error {
	parsed, err := ParseProtocol(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Network returns the net package network name for the protocol
func (p Protocol) Network() string {
	if p == UDP {
		return "udp"
	}
	return "tcp"
}

// ParseProtocol parses "tcp" or "udp", ignoring case
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TCP":
		return TCP, nil
	case "UDP":
		return UDP, nil
	}
	return 0, fmt.Errorf("unknown protocol %q", s)
}

// Target is a (protocol, port) pair under test. Two targets with the same
// protocol and port are the same target.
type Target struct {
	Protocol Protocol
	Port     int
}

// Key returns the report key for the target, e.g. "22/TCP"
func (t Target) Key() string {
	return ServiceKey(t.Protocol, t.Port)
}

func (t Target) String() string {
	return t.Key()
}

// ServiceKey builds the "port/PROTO" key used in reports
func ServiceKey(proto Protocol, port int) string {
	return strconv.Itoa(port) + "/" + proto.String()
}

// ParseTarget parses "tcp/22" or "22/tcp"
func ParseTarget(s string) (Target, error) {
	first, second, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Target{}, fmt.Errorf("invalid service %q: expected proto/port", s)
	}

	protoStr, portStr := first, second
	if _, err := strconv.Atoi(strings.TrimSpace(first)); err == nil {
		protoStr, portStr = second, first
	}

	proto, err := ParseProtocol(protoStr)
	if err != nil {
		return Target{}, fmt.Errorf("invalid service %q: %w", s, err)
	}
	port, err := strconv.Atoi(strings.TrimSpace(portStr))
	if err != nil {
		return Target{}, fmt.Errorf("invalid service %q: bad port", s)
	}
	if port <= 0 || port > 65535 {
		return Target{}, fmt.Errorf("invalid service %q: port must be between 1 and 65535", s)
	}
	return Target{Protocol: proto, Port: port}, nil
}

// Pinger is the ping capability used by a host prober
type Pinger interface {
	Ping(ctx context.Context) (PingStats, error)
}

// Store defines the persistence operations for probe history
type Store interface {
	SaveReport(report Report) error
	GetRecent(hours int) ([]ProbeRecord, error)
	GetStats(hours int) ([]ServiceUptime, error)
	GetOutages(days int) ([]Outage, error)
	ArchiveOldData() (ArchiveStats, error)
	Close() error
}
