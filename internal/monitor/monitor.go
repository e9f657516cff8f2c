package monitor

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"host-prober/internal/config"
	"host-prober/internal/logging"
	"host-prober/internal/models"
	"host-prober/internal/probe"
)

// HostProber probes a single host
type HostProber interface {
	Host() string
	Probe(ctx context.Context) (models.Report, error)
}

// Monitor coordinates periodic probing of every configured host
type Monitor struct {
	config  config.Config
	db      models.Store
	probers []HostProber
	results chan models.Report
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	log     *logrus.Entry
}

// New creates a new Monitor with one prober per configured host
func New(cfg config.Config, db models.Store) (*Monitor, error) {
	probers, err := BuildProbers(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithProbers(cfg, db, probers), nil
}

// NewWithProbers creates a Monitor over explicit probers
func NewWithProbers(cfg config.Config, db models.Store, probers []HostProber) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		config:  cfg,
		db:      db,
		probers: probers,
		results: make(chan models.Report, 100),
		ctx:     ctx,
		cancel:  cancel,
		log:     logging.Component("monitor"),
	}
}

// BuildProbers creates a configured probe.Prober for each host
func BuildProbers(cfg config.Config) ([]HostProber, error) {
	targets, err := cfg.Targets()
	if err != nil {
		return nil, fmt.Errorf("invalid services: %w", err)
	}

	probers := make([]HostProber, 0, len(cfg.Hosts))
	for _, host := range cfg.Hosts {
		p := probe.New(host,
			probe.WithConnectTimeout(cfg.ConnectTimeout),
			probe.WithUDPTimeout(cfg.UDPTimeout),
			probe.WithParallelism(cfg.Parallelism),
		)
		if cfg.PingEnabled {
			p.EnablePingWith(newPinger(host, cfg))
		}
		for _, t := range targets {
			p.AddInetService(t.Protocol, t.Port)
		}
		probers = append(probers, p)
	}
	return probers, nil
}

// Start begins the monitoring process
func (m *Monitor) Start() error {
	m.log.Infof("Starting monitor with %d hosts", len(m.probers))

	// Start result processor
	m.wg.Add(1)
	go m.processResults()

	// Start a worker for each host
	for _, p := range m.probers {
		m.wg.Add(1)
		go m.probeWorker(p)
	}

	// Roll up old history
	m.wg.Add(1)
	go m.retentionWorker(retentionInterval)

	m.log.Infof("Monitor started. Probing %v every %v", m.config.Hosts, m.config.Interval)
	return nil
}

// Stop gracefully stops the monitor
func (m *Monitor) Stop() {
	m.log.Info("Stopping monitor...")
	m.cancel()
}

// Wait blocks until all goroutines finish
func (m *Monitor) Wait() {
	m.wg.Wait()
	m.log.Info("Monitor stopped")
}
