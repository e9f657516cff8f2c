package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"host-prober/internal/config"
	"host-prober/internal/models"
	"host-prober/internal/probe"
)

type memoryStore struct {
	mu         sync.Mutex
	reports    []models.Report
	archived   atomic.Int32
	archiveErr error
}

func (s *memoryStore) SaveReport(r models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return nil
}

func (s *memoryStore) saved() []models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Report(nil), s.reports...)
}

func (s *memoryStore) GetRecent(int) ([]models.ProbeRecord, error)  { return nil, nil }
func (s *memoryStore) GetStats(int) ([]models.ServiceUptime, error) { return nil, nil }
func (s *memoryStore) GetOutages(int) ([]models.Outage, error)      { return nil, nil }
func (s *memoryStore) Close() error                                 { return nil }

func (s *memoryStore) ArchiveOldData() (models.ArchiveStats, error) {
	n := s.archived.Add(1)
	if s.archiveErr != nil {
		return models.ArchiveStats{}, s.archiveErr
	}
	// the first pass finds old rows, later passes find none
	if n == 1 {
		return models.ArchiveStats{RolledUp: 4, DeletedResults: 4, DeletedRuns: 2}, nil
	}
	return models.ArchiveStats{}, nil
}

type fakeProber struct {
	host  string
	err   error
	calls atomic.Int32
}

func (f *fakeProber) Host() string { return f.host }

func (f *fakeProber) Probe(ctx context.Context) (models.Report, error) {
	f.calls.Add(1)
	if f.err != nil {
		return models.Report{}, f.err
	}
	r := models.NewReport(f.host)
	r.AddService(models.ServiceStats{Protocol: models.TCP, Port: 22, Reachable: true})
	return r, nil
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Interval = 20 * time.Millisecond
	return cfg
}

func TestMonitorPersistsReports(t *testing.T) {
	store := &memoryStore{}
	a := &fakeProber{host: "10.0.0.1"}
	b := &fakeProber{host: "10.0.0.2"}

	m := NewWithProbers(testConfig(), store, []HostProber{a, b})
	require.NoError(t, m.Start())

	assert.Eventually(t, func() bool {
		hosts := map[string]bool{}
		for _, r := range store.saved() {
			hosts[r.Host] = true
		}
		return hosts["10.0.0.1"] && hosts["10.0.0.2"]
	}, 2*time.Second, 10*time.Millisecond)

	m.Stop()
	m.Wait()

	assert.GreaterOrEqual(t, store.archived.Load(), int32(1))
}

func TestMonitorSkipsFailedProbes(t *testing.T) {
	store := &memoryStore{}
	failing := &fakeProber{host: "10.0.0.9", err: errors.New("ping broke")}

	m := NewWithProbers(testConfig(), store, []HostProber{failing})
	require.NoError(t, m.Start())

	assert.Eventually(t, func() bool { return failing.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	m.Stop()
	m.Wait()

	assert.Empty(t, store.saved())
}

func TestRetentionWorkerRepeatsUntilStopped(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
	}{
		{"archives", nil},
		{"keeps running after errors", errors.New("database is locked")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store := &memoryStore{archiveErr: tc.err}
			m := NewWithProbers(testConfig(), store, nil)

			m.wg.Add(1)
			go m.retentionWorker(10 * time.Millisecond)

			assert.Eventually(t, func() bool { return store.archived.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
			m.Stop()
			m.Wait()

			settled := store.archived.Load()
			time.Sleep(30 * time.Millisecond)
			assert.Equal(t, settled, store.archived.Load())
		})
	}
}

func TestBuildProbers(t *testing.T) {
	cfg := config.Default()
	cfg.Hosts = []string{"127.0.0.1", "192.0.2.1"}
	cfg.Services = []string{"tcp/22", "udp/53", "tcp/22"}
	cfg.PingEnabled = true

	probers, err := BuildProbers(cfg)
	require.NoError(t, err)
	require.Len(t, probers, 2)

	p, ok := probers[1].(*probe.Prober)
	require.True(t, ok)
	assert.Equal(t, "192.0.2.1", p.Host())
	assert.True(t, p.PingEnabled())
	assert.Len(t, p.Targets(), 2)
}

func TestBuildProbersRejectsBadService(t *testing.T) {
	cfg := config.Default()
	cfg.Services = []string{"tcp/abc"}

	_, err := BuildProbers(cfg)
	assert.Error(t, err)
}
