package repository

import (
	"github.com/google/wire"

	"leadchat-server/services/routing-api/internal/infrastructure/database/repository/agentlogrepo"
	"leadchat-server/services/routing-api/internal/infrastructure/database/repository/agentrepo"
	"leadchat-server/services/routing-api/internal/infrastructure/database/repository/auditrepo"
	"leadchat-server/services/routing-api/internal/infrastructure/database/repository/conversationrepo"
	"leadchat-server/services/routing-api/internal/infrastructure/database/repository/deliveryrepo"
	"leadchat-server/services/routing-api/internal/infrastructure/database/repository/messagerepo"
)

// RepositoryProvider wires every persistence adapter. Constructors return
// the domain interfaces directly, so no extra bindings are needed.
var RepositoryProvider = wire.NewSet(
	conversationrepo.NewConversationGormRepository,
	messagerepo.NewMessageGormRepository,
	agentrepo.NewAgentGormRepository,
	agentlogrepo.NewAgentChannelLogGormRepository,
	deliveryrepo.NewDeliveryGormRepository,
	auditrepo.NewAuditGormRepository,
)
