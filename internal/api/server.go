// Package api serves figsync sessions over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/figsync/internal/config"
	"github.com/dgallion1/figsync/internal/session"
	"github.com/dgallion1/figsync/internal/stats"
	"github.com/dgallion1/figsync/internal/store"
)

// Server is the HTTP API server for figsync.
type Server struct {
	router   chi.Router
	sessions *session.Registry
	store    store.Store
	sweeps   *stats.Sweeps
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(sessions *session.Registry, st store.Store, sweeps *stats.Sweeps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		sessions: sessions,
		store:    st,
		sweeps:   sweeps,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.FigsyncAPIKey, s.log))

		r.Post("/api/sessions", s.handleOpenSession)
		r.Post("/api/sessions/batch", s.handleOpenBatch)
		r.Get("/api/sessions", s.handleListSessions)

		r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleCloseSession)
			r.Put("/selection", s.handleSelect)
			r.Post("/messages", s.handleMessage)
			r.Get("/notifications", s.handleNotifications)
			r.Get("/document", s.handleDocument)
		})

		r.Get("/api/documents/{docID}/data", s.handleListSharedData)
		r.Delete("/api/documents/{docID}/data", s.handleDeleteSharedData)

		r.Get("/api/stats/sweeps", s.handleSweepStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
