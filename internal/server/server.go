package server

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/poolchaos/personalfit-api/internal/analytics"
	"github.com/poolchaos/personalfit-api/internal/config"
	"github.com/poolchaos/personalfit-api/internal/gateway"
	"github.com/poolchaos/personalfit-api/internal/modeldata"
	"github.com/poolchaos/personalfit-api/internal/server/middleware"
	v1 "github.com/poolchaos/personalfit-api/internal/server/v1"
	"github.com/poolchaos/personalfit-api/internal/store"
	"github.com/poolchaos/personalfit-api/internal/store/cache"
)

// Deps collects everything the HTTP layer needs. main wires these; the
// server only routes between them.
type Deps struct {
	Generator v1.PlanGenerator
	Gateway   gateway.Service
	Repo      store.Repository
	Cache     cache.CacheService
	Catalog   *modeldata.Catalog
	Analytics analytics.Service
	Version   string
}

type Server struct {
	router *gin.Engine
	config *config.Config
	logger *zap.Logger
	deps   Deps
}

func New(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(ginzap.GinzapWithConfig(logger, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		Context: func(c *gin.Context) []zapcore.Field {
			var fields []zapcore.Field
			if id, ok := c.Get(middleware.RequestIDKey); ok {
				fields = append(fields, zap.Any("request_id", id))
			}
			if app := middleware.AppNameFrom(c.Request.Context()); app != "" {
				fields = append(fields, zap.String("app_name", app))
			}
			return fields
		},
	}))
	engine.Use(ginzap.RecoveryWithZap(logger, true))

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing("personalfit-api"))
	}

	s := &Server{
		router: engine,
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}
