package web

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/sirupsen/logrus"

	"host-prober/internal/logging"
	"host-prober/internal/models"
)

// ProbeFunc runs an on-demand probe of host
type ProbeFunc func(ctx context.Context, host string) (models.Report, error)

// Server handles web requests
type Server struct {
	db          models.Store
	port        int
	staticFiles fs.FS
	log         *logrus.Entry

	probe      ProbeFunc
	probeHosts map[string]struct{}
	probeSlot  chan struct{} // one on-demand probe at a time
}

// New creates a new web server. /api/probe stays disabled until
// EnableProbe is called.
func New(db models.Store, port int, staticFS fs.FS) *Server {
	return &Server{
		db:          db,
		port:        port,
		staticFiles: staticFS,
		log:         logging.Component("web"),
		probeSlot:   make(chan struct{}, 1),
	}
}

// EnableProbe serves /api/probe with fn. Only the listed hosts may be
// probed; any other host is rejected.
func (s *Server) EnableProbe(fn ProbeFunc, hosts ...string) {
	s.probe = fn
	s.probeHosts = make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		s.probeHosts[h] = struct{}{}
	}
}

// Handler builds the request router
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/recent", s.handleRecent)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/outages", s.handleOutages)
	mux.HandleFunc("/api/probe", s.handleProbe)

	// Static files - serve embedded static/ directory as webroot
	if s.staticFiles != nil {
		if staticFS, err := fs.Sub(s.staticFiles, "static"); err == nil {
			mux.Handle("/", http.FileServer(http.FS(staticFS)))
		}
	}

	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	s.log.Infof("Web server starting on port %d", s.port)
	return http.ListenAndServe(fmt.Sprintf(":%d", s.port), s.Handler())
}
