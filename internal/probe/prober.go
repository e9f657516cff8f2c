// Package probe checks the reachability of a host: optionally by ping, and
// by connecting to a set of TCP and UDP services.
package probe

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"host-prober/internal/logging"
	"host-prober/internal/models"
	"host-prober/internal/ping"
)

const (
	DefaultHost           = "127.0.0.1"
	DefaultPingCount      = 5
	DefaultConnectTimeout = 5 * time.Second
	DefaultUDPTimeout     = 5000 * time.Millisecond
	DefaultParallelism    = 8
)

// Prober probes one host. It is safe for concurrent use; configuration
// changes apply to Probe calls that start after them.
type Prober struct {
	mu          sync.Mutex
	host        string
	pingEnabled bool
	pinger      models.Pinger
	targets     map[models.Target]struct{}

	connectTimeout time.Duration
	udpTimeout     time.Duration
	parallelism    int
	log            *logrus.Entry
}

// Option configures a Prober
type Option func(*Prober)

// WithConnectTimeout bounds TCP connection attempts
func WithConnectTimeout(d time.Duration) Option {
	return func(p *Prober) { p.connectTimeout = d }
}

// WithUDPTimeout bounds the wait for a UDP reply
func WithUDPTimeout(d time.Duration) Option {
	return func(p *Prober) { p.udpTimeout = d }
}

// WithParallelism limits how many services are probed at once
func WithParallelism(n int) Option {
	return func(p *Prober) { p.parallelism = n }
}

// WithLogger replaces the default logger
func WithLogger(l *logrus.Entry) Option {
	return func(p *Prober) { p.log = l }
}

// New creates a Prober for host, with ping disabled and no services
func New(host string, opts ...Option) *Prober {
	if host == "" {
		host = DefaultHost
	}
	p := &Prober{
		host:           host,
		targets:        make(map[models.Target]struct{}),
		connectTimeout: DefaultConnectTimeout,
		udpTimeout:     DefaultUDPTimeout,
		parallelism:    DefaultParallelism,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logging.Component("probe")
	}
	p.log = p.log.WithField("host", host)
	return p
}

// Host returns the probed host
func (p *Prober) Host() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.host
}

// EnablePing turns on ping with the default count
func (p *Prober) EnablePing() {
	p.EnablePingCount(DefaultPingCount)
}

// EnablePingCount turns on ping using the system pinger with count echoes
func (p *Prober) EnablePingCount(count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pingEnabled = true
	p.pinger = ping.NewHostPinger(p.host, count, ping.DefaultTimeout)
}

// EnablePingWith turns on ping using a caller-supplied pinger
func (p *Prober) EnablePingWith(pinger models.Pinger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pingEnabled = pinger != nil
	p.pinger = pinger
}

// DisablePing turns off ping and drops the pinger
func (p *Prober) DisablePing() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pingEnabled = false
	p.pinger = nil
}

// PingEnabled reports whether the next probe will ping
func (p *Prober) PingEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pingEnabled
}

// AddInetService registers a service to probe. Adding the same protocol
// and port twice has no further effect.
func (p *Prober) AddInetService(proto models.Protocol, port int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.targets[models.Target{Protocol: proto, Port: port}] = struct{}{}
}

// Targets returns the registered services ordered by protocol then port
func (p *Prober) Targets() []models.Target {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sortedTargets()
}

func (p *Prober) sortedTargets() []models.Target {
	out := make([]models.Target, 0, len(p.targets))
	for t := range p.targets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Protocol != out[j].Protocol {
			return out[i].Protocol < out[j].Protocol
		}
		return out[i].Port < out[j].Port
	})
	return out
}

// Probe pings the host when enabled and checks every registered service.
// An unreachable service is reported in the result, not as an error; the
// error is reserved for failures of the ping itself.
func (p *Prober) Probe(ctx context.Context) (models.Report, error) {
	p.mu.Lock()
	host := p.host
	var pinger models.Pinger
	if p.pingEnabled {
		pinger = p.pinger
	}
	targets := p.sortedTargets()
	p.mu.Unlock()

	report := models.NewReport(host)

	if pinger != nil {
		stats, err := pinger.Ping(ctx)
		if err != nil {
			return models.Report{}, &models.ProbeError{Op: "probe", Host: host, Err: err}
		}
		report.Ping = &stats
	}

	results := make([]models.ServiceStats, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	if p.parallelism > 0 {
		g.SetLimit(p.parallelism)
	}
	for i, t := range targets {
		g.Go(func() error {
			results[i] = p.probeService(gctx, host, t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.Report{}, &models.ProbeError{Op: "probe", Host: host, Err: err}
	}
	// A cancelled probe would otherwise look like every service is down.
	if err := ctx.Err(); err != nil {
		return models.Report{}, &models.ProbeError{Op: "probe", Host: host, Err: err}
	}

	for _, s := range results {
		report.AddService(s)
	}

	p.log.WithFields(logrus.Fields{
		"services":       len(targets),
		"ping_enabled":   report.Ping != nil,
		"ping_reachable": report.PingReachable(),
	}).Debug("probe complete")

	return report, nil
}
