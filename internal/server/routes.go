package server

import (
	"github.com/poolchaos/personalfit-api/internal/server/middleware"
	v1 "github.com/poolchaos/personalfit-api/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.Identity())
	s.router.Use(middleware.ErrorHandler(s.logger))

	// Probes stay public; orchestrators cannot send bearer tokens.
	healthHandler := v1.NewHealthHandler(s.deps.Gateway, s.deps.Version)
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/ready", healthHandler.Ready)

	limiter := middleware.NewRateLimiter(
		s.config.RateLimit.RequestsPerSecond,
		s.config.RateLimit.Burst,
		s.logger,
	)

	api := s.router.Group("/api/v1")
	api.Use(limiter.Middleware())
	api.Use(middleware.Auth(s.config.Auth, s.deps.Repo))
	{
		planHandler := v1.NewPlanHandler(s.deps.Generator, s.deps.Repo, s.deps.Cache, s.logger)
		api.POST("/plans/generate", planHandler.Generate)
		api.POST("/plans/estimate", planHandler.Estimate)
		api.GET("/plans", planHandler.List)
		api.GET("/plans/:id", planHandler.Get)

		modelHandler := v1.NewModelHandler(s.deps.Catalog)
		api.GET("/models", modelHandler.List)
		api.GET("/models/:id", modelHandler.Get)

		generationHandler := v1.NewGenerationHandler(s.deps.Repo, s.deps.Analytics)
		api.GET("/generations", generationHandler.List)
		api.GET("/generations/:id", generationHandler.Get)
		api.GET("/usage", generationHandler.Usage)
	}
}
