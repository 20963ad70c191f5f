package router

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"ai-companion-demo/backend/internal/api"
	"ai-companion-demo/backend/internal/ws"
	"ai-companion-demo/backend/pkg/config"
	"ai-companion-demo/backend/pkg/di"
	"ai-companion-demo/backend/pkg/errors"
	"ai-companion-demo/backend/pkg/logger"
	"ai-companion-demo/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	// Use the container's logger
	logger.SetGlobal(container.Logger)

	// Load configuration
	cfg := config.Get()

	// Configure Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	engine := gin.New()

	// Use the logger middleware first to capture all requests
	engine.Use(logger.Middleware(container.Logger))

	// Add custom recovery middleware with structured logging
	engine.Use(errors.RecoveryWithLogger())

	// Add custom error handler middleware
	engine.Use(errors.ErrorHandler())

	// Request ids for log correlation
	engine.Use(middleware.RequestIDMiddleware())

	// Rate limit per client IP
	rateLimiterOpts := middleware.DefaultRateLimiterOptions()
	rateLimiterOpts.Limit = rate.Limit(cfg.Security.RateLimit)
	rateLimiterOpts.Burst = cfg.Security.RateLimitBurst
	rateLimiter := middleware.NewRateLimiter(container.Logger, rateLimiterOpts)
	engine.Use(rateLimiter.Middleware())

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	// Add CORS middleware
	r.Engine.Use(corsMiddleware(r.Config.Server.AllowedOrigins))

	// Initialize handlers
	characterHandler := api.NewCharacterHandler(r.Container.CharacterService)
	messageHandler := api.NewMessageHandler(r.Container.ChatService)
	speechHandler := api.NewSpeechHandler(r.Container.SpeechService)
	healthHandler := api.NewHealthHandler(r.Container.DB)
	wsHandler := ws.NewHandler(r.Container.ChatService, r.Logger)

	// API routes
	apiGroup := r.Engine.Group("/api")
	{
		characterHandler.RegisterRoutes(apiGroup)
		messageHandler.RegisterRoutes(apiGroup)
		speechHandler.RegisterRoutes(apiGroup)
		healthHandler.RegisterRoutes(apiGroup)
	}

	// WebSocket chat
	r.Engine.GET("/ws/chat", wsHandler.Serve)

	// Prometheus metrics
	r.Engine.GET("/metrics", gin.WrapH(r.Container.MetricsHandler))

	// Serve the built frontend when present
	if info, err := os.Stat(r.Config.Server.StaticDir); err == nil && info.IsDir() {
		r.Engine.NoRoute(spaHandler(r.Config.Server.StaticDir))
	}
}

// spaHandler serves files from the build directory, falling back to
// index.html so client-side routes resolve.
func spaHandler(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		requested := filepath.Join(dir, filepath.Clean("/"+c.Request.URL.Path))
		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			c.File(requested)
			return
		}

		c.File(filepath.Join(dir, "index.html"))
	}
}

// corsMiddleware allows the configured origins, including the Capacitor and
// Ionic app schemes.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (allowed[origin] || allowed["*"]) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, Authorization, Origin, X-Request-ID")
			c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
