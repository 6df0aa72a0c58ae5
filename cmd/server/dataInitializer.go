package main

import (
	"context"

	"leadchat-server/services/routing-api/internal/config"
	"leadchat-server/services/routing-api/internal/domain/agent"
)

type DataInitializer struct {
	agents *agent.Service
}

// Install registers agents declared in the bootstrap config. Existing rows
// keyed by slug are refreshed rather than duplicated, so restarts are safe.
func (d *DataInitializer) Install(ctx context.Context) error {
	cfg := config.GetGlobal()

	entries := cfg.AgentBootstrapEntries()
	if len(entries) == 0 {
		return nil
	}

	inputs := make([]agent.BootstrapInput, 0, len(entries))
	for _, entry := range entries {
		inputs = append(inputs, agent.BootstrapInput{
			Name:          entry.Name,
			Slug:          entry.Slug,
			WebhookURL:    entry.WebhookURL,
			GatewayToken:  entry.GatewayToken,
			GatewayNumber: entry.GatewayNumber,
			Active:        entry.Active,
			Metadata:      entry.Metadata,
		})
	}
	return d.agents.Bootstrap(ctx, inputs)
}
