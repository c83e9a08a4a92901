package bootstrap

import (
	"strings"

	"idgen_server/adapter/in/http"
	"idgen_server/config"
	"idgen_server/infra/middleware"
	"idgen_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// NewAPI builds the fiber app. The returned cleanup releases external clients.
func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logger.Init(logger.Config{
		Level:   logger.ParseLevel(cfg.LogLevel),
		Service: "idgen-api",
		Pretty:  cfg.IsDevelopment(),
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	return NewApp(cfg, deps), cleanup, nil
}

// NewApp wires handlers and middleware around already built dependencies.
func NewApp(cfg *config.Config, deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		AppName:               "idgen",

		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit:          64 * 1024,
		ServerHeader:       "",
		DisableDefaultDate: true,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())

	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	if allowOrigins == "" || allowOrigins == "*" {
		allowOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  allowOrigins,
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders: "X-Request-ID,X-RateLimit-Limit,X-RateLimit-Remaining,Retry-After",
		MaxAge:        86400,
	}))

	healthHandler := http.NewHealthHandler(deps.Generator.WorkerID(), deps.Redis, deps.Limiter)
	healthHandler.Register(app)

	api := app.Group("/api/v1")

	if cfg.JWTSecret != "" {
		api.Use(middleware.JWTAuth(cfg.JWTSecret))
	} else if cfg.IsProduction() {
		logger.Warn("ID_JWT_SECRET not set, /api/v1 is unauthenticated")
	}

	if deps.Limiter != nil && deps.Limiter.Enabled() {
		api.Use(middleware.RateLimit(deps.Limiter))
	}

	http.NewIDHandler(deps.IDService).Register(api)

	logger.WithField("worker_id", deps.Generator.WorkerID()).Info("API routes registered")
	return app
}
