package agentlogrepo

import (
	"context"

	"gorm.io/gorm"

	"leadchat-server/services/routing-api/internal/domain/agentlog"
	"leadchat-server/services/routing-api/internal/infrastructure/database/dbschema"
	"leadchat-server/services/routing-api/internal/utils/functional"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

type AgentChannelLogGormRepository struct {
	db *gorm.DB
}

var _ agentlog.Repository = (*AgentChannelLogGormRepository)(nil)

func NewAgentChannelLogGormRepository(db *gorm.DB) agentlog.Repository {
	return &AgentChannelLogGormRepository{db}
}

// Append implements agentlog.Repository.
func (repo *AgentChannelLogGormRepository) Append(ctx context.Context, entry *agentlog.Entry) error {
	model := dbschema.NewSchemaAgentChannelLogEntry(entry)
	if err := repo.db.WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to append channel log entry")
	}
	entry.ID = model.ID
	return nil
}

// ListOldest implements agentlog.Repository. Reconciliation depends on this
// order: projecting oldest entries first keeps timeline timestamps
// monotonic within a batch.
func (repo *AgentChannelLogGormRepository) ListOldest(ctx context.Context, limit int) ([]*agentlog.Entry, error) {
	var rows []*dbschema.AgentChannelLogEntry
	sql := repo.db.WithContext(ctx).
		Model(&dbschema.AgentChannelLogEntry{}).
		Order("sent_at ASC, id ASC")
	if limit > 0 {
		sql = sql.Limit(limit)
	}
	if err := sql.Find(&rows).Error; err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list channel log entries")
	}

	return functional.Map(rows, func(row *dbschema.AgentChannelLogEntry) *agentlog.Entry {
		return row.EtoD()
	}), nil
}

// Count implements agentlog.Repository.
func (repo *AgentChannelLogGormRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := repo.db.WithContext(ctx).Model(&dbschema.AgentChannelLogEntry{}).Count(&total).Error; err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to count channel log entries")
	}
	return total, nil
}
