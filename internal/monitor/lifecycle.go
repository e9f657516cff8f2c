package monitor

import (
	"time"

	"github.com/sirupsen/logrus"
)

// retentionInterval is how often old probe history is rolled up
const retentionInterval = time.Hour

// retentionWorker rolls raw probe history into hourly buckets, once at
// start and then every retentionInterval
func (m *Monitor) retentionWorker(every time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	m.applyRetention()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.applyRetention()
		}
	}
}

func (m *Monitor) applyRetention() {
	start := time.Now()
	stats, err := m.db.ArchiveOldData()
	if err != nil {
		m.log.WithError(err).Error("Failed to archive probe history")
		return
	}

	log := m.log.WithFields(logrus.Fields{
		"rolled_up":       stats.RolledUp,
		"deleted_runs":    stats.DeletedRuns,
		"deleted_results": stats.DeletedResults,
		"deleted_hourly":  stats.DeletedHourly,
		"vacuumed":        stats.Vacuumed,
		"took":            time.Since(start).Round(time.Millisecond),
	})
	if stats.Empty() {
		log.Debug("probe history within retention")
		return
	}
	log.Info("probe history archived")
}
