package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/dgallion1/pdfqa/internal/generate"
	"github.com/dgallion1/pdfqa/internal/metrics"
	"github.com/dgallion1/pdfqa/internal/pipeline"
	"github.com/dgallion1/pdfqa/internal/store"
)

// Server exposes the state of a running generation over HTTP.
type Server struct {
	router chi.Router
	run    *pipeline.Run
	client *generate.Client
	store  *store.JSONFile
	log    zerolog.Logger
	apiKey string
}

// NewServer creates and configures the status server. When apiKey is empty
// the /api routes are served without authentication.
func NewServer(run *pipeline.Run, client *generate.Client, results *store.JSONFile, log zerolog.Logger, apiKey string) *Server {
	s := &Server{
		run:    run,
		client: client,
		store:  results,
		log:    log,
		apiKey: apiKey,
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
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(AuthMiddleware(s.apiKey))
		}
		r.Get("/api/run", s.handleRun)
		r.Get("/api/run/pairs", s.handlePairs)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
