package domain

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"leadchat-server/services/routing-api/internal/application/audit"
	"leadchat-server/services/routing-api/internal/config"
	"leadchat-server/services/routing-api/internal/domain/agent"
	"leadchat-server/services/routing-api/internal/domain/agentlog"
	"leadchat-server/services/routing-api/internal/domain/conversation"
	"leadchat-server/services/routing-api/internal/domain/delivery"
	"leadchat-server/services/routing-api/internal/domain/message"
	"leadchat-server/services/routing-api/internal/domain/reconcile"
	"leadchat-server/services/routing-api/internal/domain/security"
)

// ServiceProvider provides all domain services
var ServiceProvider = wire.NewSet(
	// Agent registry (also the delivery credential resolver)
	ProvideAgentService,

	// Delivery / resend coordination
	ProvideDeliveryService,

	// Conversation control
	ProvideControlService,

	// Unified timeline
	ProvideMessageService,

	// Agent-channel log
	agentlog.NewService,

	// Reconciliation
	reconcile.NewReconciler,

	// Security
	audit.NewLogger,
	ProvideTokenValidator,
	ProvideLoginRateLimiter,
)

func ProvideAgentService(repo agent.Repository, cfg *config.Config, log zerolog.Logger) *agent.Service {
	return agent.NewService(repo, cfg.GatewayDefaultToken, cfg.GatewayDefaultNumber, log)
}

func ProvideDeliveryService(repo delivery.Repository, transport delivery.Transport, agents *agent.Service, cfg *config.Config, log zerolog.Logger) *delivery.Service {
	return delivery.NewService(repo, transport, agents, cfg.OpsNotifyRecipient, cfg.ResendPacing, log)
}

func ProvideControlService(repo conversation.Repository, agents *agent.Service, deliverySvc *delivery.Service, log zerolog.Logger) *conversation.ControlService {
	return conversation.NewControlService(repo, agents, deliverySvc, log)
}

func ProvideMessageService(repo message.Repository, control *conversation.ControlService, deliverySvc *delivery.Service, log zerolog.Logger) *message.Service {
	return message.NewService(repo, control, deliverySvc, log)
}

func ProvideTokenValidator(cfg *config.Config, auditor *audit.Logger, log zerolog.Logger) *security.TokenValidator {
	return security.NewTokenValidator(cfg.EmergencyTokenSecret, auditor, log)
}

func ProvideLoginRateLimiter(counter security.FailureCounter) *security.LoginRateLimiter {
	return security.NewLoginRateLimiter(counter)
}
