package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/facetrace/facetrace/internal/config"
	"github.com/facetrace/facetrace/internal/database"
	"github.com/facetrace/facetrace/internal/extractor"
	"github.com/facetrace/facetrace/internal/mailer"
	"github.com/facetrace/facetrace/internal/recognition"
	"github.com/facetrace/facetrace/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Deps bundles the collaborators the web layer needs.
type Deps struct {
	Engine      *recognition.Engine
	Ingestor    *recognition.Ingestor
	Extractor   *extractor.Handle
	Detections  database.DetectionStore
	Users       database.UserStore
	OTPCodes    database.OTPStore
	Mailer      *mailer.Mailer
	SessionRepo middleware.SessionRepository
}

// Server represents the web server.
type Server struct {
	config         *config.Config
	deps           Deps
	router         *chi.Mux
	httpServer     *http.Server
	sessionManager *middleware.SessionManager
}

// NewServer creates a new web server.
func NewServer(cfg *config.Config, deps Deps, port int, host string) *Server {
	r := chi.NewRouter()

	sessionManager := middleware.NewSessionManager(cfg.Web.SessionSecret, deps.SessionRepo)

	s := &Server{
		config:         cfg,
		deps:           deps,
		router:         r,
		sessionManager: sessionManager,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // uploads can be slow on mobile links
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")

	if s.sessionManager != nil {
		s.sessionManager.Stop()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
