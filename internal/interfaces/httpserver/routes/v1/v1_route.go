package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadchat-server/services/routing-api/internal/config"
	"leadchat-server/services/routing-api/internal/interfaces/httpserver/routes/v1/agent"
	"leadchat-server/services/routing-api/internal/interfaces/httpserver/routes/v1/conversation"
	"leadchat-server/services/routing-api/internal/interfaces/httpserver/routes/v1/ops"
	"leadchat-server/services/routing-api/internal/interfaces/httpserver/routes/v1/security"
	"leadchat-server/services/routing-api/internal/interfaces/httpserver/routes/v1/webhook"
)

type V1Route struct {
	conversation *conversation.ConversationRoute
	agent        *agent.AgentRoute
	webhook      *webhook.WebhookRoute
	security     *security.SecurityRoute
	ops          *ops.OpsRoute
}

func NewV1Route(
	conversation *conversation.ConversationRoute,
	agent *agent.AgentRoute,
	webhook *webhook.WebhookRoute,
	security *security.SecurityRoute,
	ops *ops.OpsRoute,
) *V1Route {
	return &V1Route{
		conversation,
		agent,
		webhook,
		security,
		ops,
	}
}

// RegisterRouter registers endpoints that require a service token.
func (v1Route *V1Route) RegisterRouter(router gin.IRouter) {
	v1Router := router.Group("/v1")

	v1Route.conversation.RegisterRouter(v1Router)
	v1Route.agent.RegisterRouter(v1Router)
	v1Route.ops.RegisterRouter(v1Router)
}

// RegisterPublicRouter registers endpoints that do not require authentication.
// The security endpoints run before the caller has a session by definition,
// and the gateway posts webhooks without a service token.
func (v1Route *V1Route) RegisterPublicRouter(router gin.IRouter) {
	v1Router := router.Group("/v1")
	v1Router.GET("/version", GetVersion)
	v1Router.GET("/healthz", GetHealthz)
	v1Router.GET("/readyz", GetReadyz)

	v1Route.security.RegisterRouter(v1Router)
	v1Route.webhook.RegisterRouter(v1Router)
}

// GetVersion godoc
// @Summary Get API build version
// @Description Returns the current build version of the API server and environment reload timestamp.
// @Tags Server API
// @Produce json
// @Success 200 {object} map[string]string "Version information including version number and environment reload timestamp"
// @Router /v1/version [get]
func GetVersion(c *gin.Context) {
	cfg := config.GetGlobal()
	payload := gin.H{"version": config.Version}
	if cfg != nil {
		payload["env_reloaded_at"] = cfg.EnvReloadedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	c.JSON(http.StatusOK, payload)
}

// GetHealthz godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API server. Used by orchestrators and monitoring systems.
// @Tags Server API
// @Produce json
// @Success 200 {object} map[string]string "Health status OK"
// @Router /v1/healthz [get]
func GetHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetReadyz godoc
// @Summary Readiness check endpoint
// @Description Returns the readiness status of the API server. Indicates if the service is ready to accept traffic.
// @Tags Server API
// @Produce json
// @Success 200 {object} map[string]string "Readiness status ready"
// @Router /v1/readyz [get]
func GetReadyz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
