package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/brandforge-app/brandforge/internal/api/handlers"
	appMiddleware "github.com/brandforge-app/brandforge/internal/api/middlewares"
	"github.com/brandforge-app/brandforge/internal/config"
	"github.com/brandforge-app/brandforge/internal/core"
	"github.com/brandforge-app/brandforge/internal/logger"
	"github.com/brandforge-app/brandforge/internal/media"
	"github.com/brandforge-app/brandforge/internal/onboarding"
	"github.com/brandforge-app/brandforge/internal/services"
	"github.com/brandforge-app/brandforge/internal/versioning"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer builds and wires all routes.
func NewServer(
	cfg *config.Config,
	log *logger.Logger,
	db core.DbClient,
	profiles *services.ProfileService,
	contentSvc *services.ContentService,
	ledger *versioning.Ledger,
	revisions *media.Controller,
	orchestrator *onboarding.Orchestrator,
) *Server {
	authHandler := handlers.NewAuthHandler(db)
	profileHandler := handlers.NewProfileHandler(profiles, ledger)
	mediaHandler := handlers.NewMediaHandler(db, profiles, revisions)
	contentHandler := handlers.NewContentHandler(profiles, contentSvc)
	onboardingHandler := handlers.NewOnboardingHandler(profiles, orchestrator)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware)

			protected.Post("/profiles", profileHandler.Create)
			protected.Get("/profiles", profileHandler.List)
			protected.Get("/profiles/{profileID}", profileHandler.Get)
			protected.Get("/profiles/{profileID}/history", profileHandler.History)
			protected.Put("/profiles/{profileID}/fields/{field}", profileHandler.UpdateField)
			protected.Get("/profiles/{profileID}/fields/{field}/history", profileHandler.FieldHistory)
			protected.Post("/profiles/{profileID}/fields/{field}/revert", profileHandler.RevertField)

			protected.Post("/profiles/{profileID}/media", mediaHandler.CreateAsset)
			protected.Get("/profiles/{profileID}/media", mediaHandler.ListAssets)
			protected.Post("/media/{assetID}/revisions", mediaHandler.UploadRevision)
			protected.Get("/media/{assetID}/revisions", mediaHandler.ListRevisions)
			protected.Get("/media/{assetID}/revisions/current", mediaHandler.CurrentRevision)
			protected.Post("/media/{assetID}/revert", mediaHandler.Revert)

			protected.Post("/profiles/{profileID}/content/upload", contentHandler.Upload)
			protected.Get("/profiles/{profileID}/content", contentHandler.List)

			protected.Post("/profiles/{profileID}/onboarding/turn", onboardingHandler.Turn)
			protected.Get("/profiles/{profileID}/onboarding/progress", onboardingHandler.Progress)
			protected.Get("/profiles/{profileID}/onboarding/messages", onboardingHandler.Transcript)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv, log: log.With("component", "http")}
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
