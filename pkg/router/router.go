package router

import (
	chatapi "clientdesk/backend/chat/api"
	chatws "clientdesk/backend/chat/ws"
	crmapi "clientdesk/backend/crm/api"
	"clientdesk/backend/pkg/config"
	"clientdesk/backend/pkg/di"
	"clientdesk/backend/pkg/errors"
	"clientdesk/backend/pkg/health"
	"clientdesk/backend/pkg/logger"
	"clientdesk/backend/pkg/middleware"
	"clientdesk/backend/shared/observability"
	userapi "clientdesk/backend/user/api"

	"github.com/gin-gonic/gin"
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
	logger.SetGlobal(container.Logger)

	cfg := config.Get()
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Logger first so every request is captured, then the error envelope
	// and recovery with structured logging instead of gin's default
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	rateLimiter := middleware.NewRateLimiter(container.Logger)
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
	r.Engine.Use(corsMiddleware())

	jwtAuth := middleware.JWTAuthMiddleware(r.Container.JWTService, r.Logger)

	authHandler := userapi.NewAuthHandler(r.Container.UserService)
	crmHandler := crmapi.NewCRMHandler(r.Container.ClientService, r.Container.TaskService)
	messageHandler := chatapi.NewMessageHandler(r.Container.ChatService, r.Container.Uploader)
	streamHandler := chatws.NewHandler(r.Container.ChatService, r.Container.Manager, r.Logger)

	// Prometheus scrape endpoint, outside the versioned API
	r.Engine.GET("/metrics", gin.WrapH(observability.MetricsHandler()))

	v1 := r.Engine.Group("/api/v1")

	checker := health.NewChecker(r.Container.DB, r.Container.Redis)
	v1.GET("/health", checker.Handler())

	authHandler.RegisterRoutesV1(v1, jwtAuth)
	crmHandler.RegisterRoutesV1(v1, jwtAuth)
	messageHandler.RegisterRoutesV1(v1, jwtAuth)

	// WebSocket route; auth accepts the token query parameter because
	// browsers cannot set headers on the upgrade request
	r.Engine.GET("/ws/chat/:client_id", jwtAuth, middleware.RequireConversationAccess(), streamHandler.Serve)
}

// corsMiddleware allows the admin dashboard and client portal origins,
// including the WebSocket upgrade headers
func corsMiddleware() gin.HandlerFunc {
	allowed := config.Get().Security.AllowedOrigins
	allowAll := len(allowed) == 1 && allowed[0] == "*"

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		switch {
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case originAllowed(origin, allowed):
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, Authorization, Origin, Upgrade, Connection, Cache-Control, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upgrade, Connection, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == origin {
			return true
		}
	}
	return false
}
