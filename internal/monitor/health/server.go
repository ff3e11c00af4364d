package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the pipeline's health report and Prometheus metrics.
type Server struct {
	monitor *Monitor
	server  *http.Server
}

// NewServer creates the health server. /health answers load balancer checks
// with the aggregate status, /health/detailed returns the per-chain report.
func NewServer(monitor *Monitor, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		monitor: monitor,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleSummary)
	mux.HandleFunc("/health/detailed", s.handleReport)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start blocks serving HTTP until Stop or a listener error.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleSummary reports the aggregate status. A critical pipeline answers
// 503 so the instance drops out of rotation.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if report.SystemStatus == StatusCritical {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(map[string]string{
		"status": string(report.SystemStatus),
	})
}

// handleReport returns the full per-chain report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.monitor.CheckHealth(r.Context()))
}
