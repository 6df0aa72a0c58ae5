package agent

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"leadchat-server/services/routing-api/internal/domain/delivery"
	"leadchat-server/services/routing-api/internal/utils/idgen"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

// Service is the sales agent registry. It also resolves transport
// credentials for the delivery layer: agents send through their own gateway
// binding, the reserved "system" identity through the service-wide one.
type Service struct {
	repo       Repository
	systemCred delivery.Credential
	logger     zerolog.Logger
}

func NewService(repo Repository, systemToken, systemNumber string, logger zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		systemCred: delivery.Credential{
			Token:  systemToken,
			Number: systemNumber,
		},
		logger: logger,
	}
}

// List returns agents matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Agent, error) {
	agents, err := s.repo.FindByFilter(ctx, filter)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list agents")
	}
	return agents, nil
}

// GetByPublicID retrieves one agent.
func (s *Service) GetByPublicID(ctx context.Context, publicID string) (*Agent, error) {
	a, err := s.repo.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "agent not found")
	}
	return a, nil
}

// ResolveActiveAgent implements the control service's directory: transfer
// targets must exist and be active.
func (s *Service) ResolveActiveAgent(ctx context.Context, agentPublicID string) (uint, string, error) {
	a, err := s.repo.FindByPublicID(ctx, agentPublicID)
	if err != nil {
		return 0, "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "agent not found")
	}
	if !a.Active {
		return 0, "", platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "agent is not active", nil, "9a4d2b5f-7e6c-4a1b-8d3e-4f5a6b7c8d9e", map[string]any{
			"agent_id": agentPublicID,
		})
	}
	return a.ID, a.Name, nil
}

// ResolveCredential implements delivery.CredentialResolver.
func (s *Service) ResolveCredential(ctx context.Context, senderID string) (*delivery.Credential, error) {
	if senderID == "" || senderID == delivery.SystemSender {
		if s.systemCred.Token == "" {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeCredentialMissing, "system gateway credential is not configured", nil, "0b5e3c6a-8f7d-4b2c-9e4f-5a6b7c8d9e0f")
		}
		cred := s.systemCred
		return &cred, nil
	}

	a, err := s.repo.FindByPublicID(ctx, senderID)
	if err != nil {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeCredentialMissing, "no transport credential for sender", err, "1c6f4d7b-9a8e-4c3d-0f5a-6b7c8d9e0f1a", map[string]any{
			"sender_id": senderID,
		})
	}
	if !a.Active || a.GatewayToken == "" {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeCredentialMissing, "no transport credential for sender", nil, "2d7a5e8c-0b9f-4d4e-1a6b-7c8d9e0f1a2b", map[string]any{
			"sender_id": senderID,
		})
	}
	return &delivery.Credential{Token: a.GatewayToken, Number: a.GatewayNumber}, nil
}

// BootstrapInput is one agent definition from the startup config.
type BootstrapInput struct {
	Name          string
	Slug          string
	WebhookURL    string
	GatewayToken  string
	GatewayNumber string
	Active        bool
	Metadata      map[string]string
}

// Bootstrap upserts configured agents by slug. Existing rows keep their
// public id; configured fields overwrite stored ones.
func (s *Service) Bootstrap(ctx context.Context, inputs []BootstrapInput) error {
	for _, input := range inputs {
		slug := strings.TrimSpace(input.Slug)
		if slug == "" {
			continue
		}

		existing, err := s.repo.FindBySlug(ctx, slug)
		if err != nil && !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up agent during bootstrap")
		}

		if existing == nil || platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			publicID, idErr := idgen.GenerateSecureID("agent", 16)
			if idErr != nil {
				return platformerrors.AsError(ctx, platformerrors.LayerDomain, idErr, "failed to generate agent ID")
			}
			now := time.Now()
			created := &Agent{
				PublicID:      publicID,
				Slug:          slug,
				Name:          input.Name,
				WebhookURL:    input.WebhookURL,
				GatewayToken:  input.GatewayToken,
				GatewayNumber: input.GatewayNumber,
				Active:        input.Active,
				Metadata:      input.Metadata,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := s.repo.Create(ctx, created); err != nil {
				return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create agent during bootstrap")
			}
			s.logger.Info().Str("agent_id", created.PublicID).Str("slug", slug).Msg("agent registered from config")
			continue
		}

		existing.Name = input.Name
		existing.WebhookURL = input.WebhookURL
		existing.GatewayToken = input.GatewayToken
		existing.GatewayNumber = input.GatewayNumber
		existing.Active = input.Active
		if input.Metadata != nil {
			existing.Metadata = input.Metadata
		}
		existing.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, existing); err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update agent during bootstrap")
		}
		s.logger.Info().Str("agent_id", existing.PublicID).Str("slug", slug).Msg("agent refreshed from config")
	}
	return nil
}
