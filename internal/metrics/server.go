package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/Znapy/pv-organizer/internal/logging"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes Prometheus metrics and health endpoints over HTTP.
// It is optional: watch mode runs it so long-lived syncers can be scraped.
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics server listening on the given port.
func NewServer(port string) *Server {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/healthz", healthz).Methods("GET")
	r.HandleFunc("/livez", healthz).Methods("GET")

	return &Server{
		srv: &http.Server{
			Addr:         ":" + port,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		logging.Debug("health response write failed: %v", err)
	}
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		logging.Info("Metrics server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Metrics server error: %v", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
