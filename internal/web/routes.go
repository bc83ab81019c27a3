package web

import (
	"github.com/facetrace/facetrace/internal/web/handlers"
	"github.com/facetrace/facetrace/internal/web/middleware"
	"github.com/go-chi/chi/v5"
)

func (s *Server) setupRoutes() {
	referencesHandler := handlers.NewReferencesHandler(
		s.deps.Ingestor, s.deps.Engine, s.deps.Extractor, s.config.Storage.UploadDir)
	identifyHandler := handlers.NewIdentifyHandler(
		s.deps.Engine, s.deps.Extractor, s.config.Storage.QueryDir)
	detectionsHandler := handlers.NewDetectionsHandler(s.deps.Detections)
	authHandler := handlers.NewAuthHandler(s.deps.Users, s.sessionManager)
	otpHandler := handlers.NewOTPHandler(s.deps.Users, s.deps.OTPCodes, s.deps.Mailer)
	queriesHandler := handlers.NewQueriesHandler(s.config.Storage.QueryDir)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Accounts
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/status", authHandler.Status)
		r.Post("/auth/otp/send", otpHandler.Send)
		r.Post("/auth/otp/verify", otpHandler.Verify)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.sessionManager))
			r.Get("/auth/me", authHandler.Me)
		})

		// Recognition.
		// These endpoints are open: the mobile client talks to them
		// before any account exists.
		r.Post("/references", referencesHandler.Upload)
		r.Post("/identify", identifyHandler.Identify)
		r.Get("/detections/known", detectionsHandler.Known)
		r.Get("/detections/unknown", detectionsHandler.Unknown)
	})

	// Stored query images
	s.router.Get("/queries/{filename}", queriesHandler.Serve)
}
