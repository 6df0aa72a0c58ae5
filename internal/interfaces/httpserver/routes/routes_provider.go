package routes

import (
	"github.com/google/wire"

	v1 "leadchat-server/services/routing-api/internal/interfaces/httpserver/routes/v1"
	"leadchat-server/services/routing-api/internal/interfaces/httpserver/routes/v1/agent"
	"leadchat-server/services/routing-api/internal/interfaces/httpserver/routes/v1/conversation"
	"leadchat-server/services/routing-api/internal/interfaces/httpserver/routes/v1/ops"
	"leadchat-server/services/routing-api/internal/interfaces/httpserver/routes/v1/security"
	"leadchat-server/services/routing-api/internal/interfaces/httpserver/routes/v1/webhook"
)

var RouteProvider = wire.NewSet(
	v1.NewV1Route,
	conversation.NewConversationRoute,
	agent.NewAgentRoute,
	webhook.NewWebhookRoute,
	security.NewSecurityRoute,
	ops.NewOpsRoute,
)
