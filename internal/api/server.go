// Package api provides the HTTP server for the feeflow daemon.
// It exposes the ledger's read surface, the transfer/claim/process
// operations, and the owner configuration endpoints.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/feeflow-network/feeflow/internal/app/engine"
	"github.com/feeflow-network/feeflow/internal/infra/sqlite"
)

// Version is the daemon version reported by /api/version.
const Version = "0.1.0"

// Server is the feeflow HTTP API server.
type Server struct {
	eng            *engine.Engine
	journal        *sqlite.Journal
	metricsEnabled bool
}

// NewServer creates a new API server over the engine. journal may be nil;
// the events endpoint then reports 503.
func NewServer(eng *engine.Engine, journal *sqlite.Journal) *Server {
	return &Server{eng: eng, journal: journal}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Minute))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": Version})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Get("/params", s.handleParams)
		r.Get("/accounts/{addr}", s.handleAccount)
		r.Get("/accounts/{addr}/pending", s.handlePending)
		r.Get("/events", s.handleEvents)

		r.Post("/transfer", s.handleTransfer)
		r.Post("/claim", s.handleClaim)
		r.Post("/process", s.handleProcess)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/taxes", s.handleSetTaxes)
			r.Post("/split", s.handleSetSplit)
			r.Post("/pairs", s.handleSetPair)
			r.Post("/keepers", s.handleSetKeeper)
			r.Post("/exclusions", s.handleSetExclusion)
			r.Post("/claim-gates", s.handleSetClaimGates)
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	return r
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}
