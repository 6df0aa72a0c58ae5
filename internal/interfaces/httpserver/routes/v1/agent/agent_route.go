package agent

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"leadchat-server/services/routing-api/internal/domain/agent"
	"leadchat-server/services/routing-api/internal/interfaces/httpserver/responses"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

type AgentRoute struct {
	agents *agent.Service
}

func NewAgentRoute(agents *agent.Service) *AgentRoute {
	return &AgentRoute{agents: agents}
}

func (route *AgentRoute) RegisterRouter(router gin.IRouter) {
	agents := router.Group("/agents")
	agents.GET("", route.listAgents)
	agents.GET("/:agent_public_id", route.getAgent)
}

// listAgents godoc
// @Summary List sales agents
// @Description List registered sales agents, optionally restricted to active ones.
// @Tags Agents API
// @Security BearerAuth
// @Produce json
// @Param active query bool false "Filter by active flag"
// @Success 200 {object} map[string]any "Successfully retrieved agents"
// @Failure 400 {object} responses.ErrorResponse "Invalid request parameters"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /v1/agents [get]
func (route *AgentRoute) listAgents(reqCtx *gin.Context) {
	filter := agent.Filter{}
	if rawActive := strings.TrimSpace(reqCtx.Query("active")); rawActive != "" {
		active, err := strconv.ParseBool(rawActive)
		if err != nil {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "active must be a boolean", "e8fbbc5f-ad8a-4acd-bf5b-ae1f2a3b4c55")
			return
		}
		filter.Active = &active
	}

	agents, err := route.agents.List(reqCtx.Request.Context(), filter)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to list agents")
		return
	}

	reqCtx.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   agents,
		"total":  len(agents),
	})
}

// getAgent godoc
// @Summary Get a sales agent
// @Description Retrieve a single sales agent by its public ID.
// @Tags Agents API
// @Security BearerAuth
// @Produce json
// @Param agent_public_id path string true "Agent public ID"
// @Success 200 {object} agent.Agent "Successfully retrieved agent"
// @Failure 404 {object} responses.ErrorResponse "Agent not found"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /v1/agents/{agent_public_id} [get]
func (route *AgentRoute) getAgent(reqCtx *gin.Context) {
	a, err := route.agents.GetByPublicID(reqCtx.Request.Context(), reqCtx.Param("agent_public_id"))
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to get agent")
		return
	}
	reqCtx.JSON(http.StatusOK, a)
}
