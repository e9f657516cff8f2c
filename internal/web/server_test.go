package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"host-prober/internal/models"
)

type stubStore struct {
	hours int
	days  int
	err   error
}

func (s *stubStore) SaveReport(models.Report) error { return nil }
func (s *stubStore) Close() error                   { return nil }

func (s *stubStore) ArchiveOldData() (models.ArchiveStats, error) {
	return models.ArchiveStats{}, nil
}

func (s *stubStore) GetRecent(hours int) ([]models.ProbeRecord, error) {
	s.hours = hours
	return []models.ProbeRecord{{ID: 1, Host: "127.0.0.1"}}, s.err
}

func (s *stubStore) GetStats(hours int) ([]models.ServiceUptime, error) {
	s.hours = hours
	return []models.ServiceUptime{{Host: "127.0.0.1", Service: "22/TCP", Uptime: 100}}, s.err
}

func (s *stubStore) GetOutages(days int) ([]models.Outage, error) {
	s.days = days
	return nil, s.err
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestRecentHonorsHoursParam(t *testing.T) {
	store := &stubStore{}
	h := New(store, 0, nil).Handler()

	rec := get(t, h, "/api/recent?hours=6")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, store.hours)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var records []models.ProbeRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(t, records, 1)

	get(t, h, "/api/recent?hours=bogus")
	assert.Equal(t, 24, store.hours)
}

func TestStatsAndOutages(t *testing.T) {
	store := &stubStore{}
	h := New(store, 0, nil).Handler()

	rec := get(t, h, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"service":"22/TCP"`)

	rec = get(t, h, "/api/outages?days=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, store.days)
}

func TestStoreErrorsAreServerErrors(t *testing.T) {
	h := New(&stubStore{err: errors.New("disk on fire")}, 0, nil).Handler()

	rec := get(t, h, "/api/stats")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestProbeEndpoint(t *testing.T) {
	probe := func(ctx context.Context, host string) (models.Report, error) {
		if host == "bad" {
			return models.Report{}, &models.ProbeError{Op: "probe", Host: host, Err: errors.New("boom")}
		}
		r := models.NewReport(host)
		r.AddService(models.ServiceStats{Protocol: models.TCP, Port: 22, Reachable: true})
		return r, nil
	}
	srv := New(&stubStore{}, 0, nil)
	srv.EnableProbe(probe, "127.0.0.1", "bad")
	h := srv.Handler()

	rec := get(t, h, "/api/probe?host=127.0.0.1")
	require.Equal(t, http.StatusOK, rec.Code)
	var report models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "127.0.0.1", report.Host)
	assert.Nil(t, report.Ping)
	assert.True(t, report.Services["22/TCP"].Reachable)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/probe").Code)
	assert.Equal(t, http.StatusBadGateway, get(t, h, "/api/probe?host=bad").Code)
}

func TestProbeEndpointRejectsUnconfiguredHosts(t *testing.T) {
	var calls atomic.Int32
	srv := New(&stubStore{}, 0, nil)
	srv.EnableProbe(func(ctx context.Context, host string) (models.Report, error) {
		calls.Add(1)
		return models.NewReport(host), nil
	}, "10.0.0.1")
	h := srv.Handler()

	for _, host := range []string{"192.0.2.55", "10.0.0.1.evil", "localhost"} {
		t.Run(host, func(t *testing.T) {
			rec := get(t, h, "/api/probe?host="+host)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "not configured")
		})
	}
	assert.Zero(t, calls.Load())

	assert.Equal(t, http.StatusOK, get(t, h, "/api/probe?host=10.0.0.1").Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestProbeEndpointRunsOneProbeAtATime(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := New(&stubStore{}, 0, nil)
	srv.EnableProbe(func(ctx context.Context, host string) (models.Report, error) {
		close(started)
		<-release
		return models.NewReport(host), nil
	}, "10.0.0.1")
	h := srv.Handler()

	done := make(chan int)
	go func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/probe?host=10.0.0.1", nil))
		done <- rec.Code
	}()
	<-started

	assert.Equal(t, http.StatusTooManyRequests, get(t, h, "/api/probe?host=10.0.0.1").Code)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestProbeEndpointDisabled(t *testing.T) {
	h := New(&stubStore{}, 0, nil).Handler()
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/probe?host=x").Code)
}

func TestStaticFiles(t *testing.T) {
	static := fstest.MapFS{
		"static/index.html": {Data: []byte("<html>dashboard</html>")},
	}
	h := New(&stubStore{}, 0, static).Handler()

	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dashboard")
}
