package monitor

import (
	"time"

	"host-prober/internal/config"
	"host-prober/internal/models"
	"host-prober/internal/ping"
)

func newPinger(host string, cfg config.Config) models.Pinger {
	return ping.NewHostPinger(host, cfg.PingCount, cfg.PingTimeout)
}

// probeWorker continuously probes a host at the configured interval
func (m *Monitor) probeWorker(p HostProber) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	// Immediate first probe
	m.performProbe(p)

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.performProbe(p)
		}
	}
}

// performProbe runs a single probe and sends the report to the results channel
func (m *Monitor) performProbe(p HostProber) {
	report, err := p.Probe(m.ctx)
	if err != nil {
		if m.ctx.Err() == nil {
			m.log.WithError(err).WithField("host", p.Host()).Warn("probe failed")
		}
		return
	}

	select {
	case m.results <- report:
	default:
		m.log.WithField("host", p.Host()).Warn("Result channel full, dropping report")
	}
}

// processResults persists reports from the results channel. Reports still
// buffered at shutdown are flushed before returning.
func (m *Monitor) processResults() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			for {
				select {
				case report := <-m.results:
					m.save(report)
				default:
					return
				}
			}
		case report := <-m.results:
			m.save(report)
		}
	}
}

func (m *Monitor) save(report models.Report) {
	if err := m.db.SaveReport(report); err != nil {
		m.log.WithError(err).WithField("host", report.Host).Error("Failed to save report")
	}
}
