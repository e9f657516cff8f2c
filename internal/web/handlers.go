package web

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// intParam reads a positive integer query parameter, falling back to def
func intParam(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Warn("encoding response")
	}
}

// handleRecent handles /api/recent requests
func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	records, err := s.db.GetRecent(intParam(r, "hours", 24))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, records)
}

// handleStats handles /api/stats requests
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetStats(intParam(r, "hours", 24))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, stats)
}

// handleOutages handles /api/outages requests
func (s *Server) handleOutages(w http.ResponseWriter, r *http.Request) {
	outages, err := s.db.GetOutages(intParam(r, "days", 7))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, outages)
}

// handleProbe handles /api/probe requests by probing a host immediately
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	if s.probe == nil {
		http.Error(w, "on-demand probing disabled", http.StatusNotFound)
		return
	}

	host := r.URL.Query().Get("host")
	if host == "" {
		http.Error(w, "host parameter required", http.StatusBadRequest)
		return
	}
	if _, ok := s.probeHosts[host]; !ok {
		s.log.WithField("host", host).Warn("rejected probe of unconfigured host")
		http.Error(w, "host is not configured for probing", http.StatusBadRequest)
		return
	}

	select {
	case s.probeSlot <- struct{}{}:
		defer func() { <-s.probeSlot }()
	default:
		http.Error(w, "a probe is already running", http.StatusTooManyRequests)
		return
	}

	report, err := s.probe(r.Context(), host)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	s.writeJSON(w, report)
}
