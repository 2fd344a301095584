// Package api provides the HTTP command surface for fortuned. A chat-bot
// host framework maps its text commands onto these endpoints; every
// response carries a rendered message the host can relay verbatim.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lucklab/fortuned/internal/app/fortune"
	"github.com/lucklab/fortuned/internal/render"
)

// ConfirmToken must be supplied verbatim for destructive operations.
const ConfirmToken = "--confirm"

// Config carries the presentation toggles the handlers need.
type Config struct {
	Enabled             bool
	ShowCached          bool
	RankDisplayLimit    int
	HistoryDisplayLimit int
}

// Server is the fortuned HTTP API server.
type Server struct {
	svc            *fortune.Service
	msgs           *render.Messages
	cfg            Config
	log            zerolog.Logger
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(svc *fortune.Service, msgs *render.Messages, cfg Config, log zerolog.Logger) *Server {
	return &Server{svc: svc, msgs: msgs, cfg: cfg, log: log}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/fortune", s.handleFortune)
		r.Get("/rank", s.handleRank)
		r.Get("/history/{userID}", s.handleHistory)
		r.Delete("/users/{userID}", s.handleDeleteUser)
		r.Post("/reinitialize", s.handleReinitialize)
		r.Delete("/all", s.handleResetAll)
		r.Post("/prune", s.handlePrune)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in a stable shape.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"message": msg},
	})
}
