package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"leadchat-server/services/routing-api/internal/config"
	"leadchat-server/services/routing-api/internal/infrastructure"
	middleware "leadchat-server/services/routing-api/internal/interfaces/httpserver/middlewares"
	v1 "leadchat-server/services/routing-api/internal/interfaces/httpserver/routes/v1"
)

type HTTPServer struct {
	engine  *gin.Engine
	infra   *infrastructure.Infrastructure
	v1Route *v1.V1Route
	config  *config.Config
}

func NewHttpServer(
	v1Route *v1.V1Route,
	infra *infrastructure.Infrastructure,
	cfg *config.Config,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	server := HTTPServer{
		gin.New(),
		infra,
		v1Route,
		cfg,
	}
	server.engine.Use(middleware.RequestID())
	server.engine.Use(middleware.TracingMiddleware(cfg.ServiceName))
	server.engine.Use(middleware.LoggingMiddleware(infra.Logger))
	server.engine.Use(middleware.CORSMiddleware())
	server.engine.Use(middleware.MetricsMiddleware())

	// Root health check (for orchestrator probes that skip the /v1 prefix)
	server.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	server.engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	return &server
}

func (httpServer *HTTPServer) Run() error {
	// Public routes (no auth required)
	root := httpServer.engine.Group("/")

	// Protected routes (service token required)
	protected := httpServer.engine.Group("/")
	protected.Use(
		middleware.ServiceAuthMiddleware(
			httpServer.config.ServiceTokenSecret,
			httpServer.config.ServiceTokenIssuer,
			httpServer.config.ServiceTokenSkew,
			httpServer.infra.Logger,
		),
		middleware.RateLimitMiddleware(httpServer.config.APIRateLimitPerMinute),
	)

	httpServer.v1Route.RegisterPublicRouter(root)
	httpServer.v1Route.RegisterRouter(protected)

	if err := httpServer.engine.Run(fmt.Sprintf(":%d", httpServer.config.HTTPPort)); err != nil {
		return err
	}
	return nil
}
