package messagerepo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"leadchat-server/services/routing-api/internal/domain/message"
	"leadchat-server/services/routing-api/internal/domain/query"
	"leadchat-server/services/routing-api/internal/infrastructure/database/dbschema"
	"leadchat-server/services/routing-api/internal/utils/functional"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

type MessageGormRepository struct {
	db *gorm.DB
}

var _ message.Repository = (*MessageGormRepository)(nil)

func NewMessageGormRepository(db *gorm.DB) message.Repository {
	return &MessageGormRepository{db}
}

// Create implements message.Repository.
func (repo *MessageGormRepository) Create(ctx context.Context, msg *message.Message) error {
	model := dbschema.NewSchemaMessage(msg)
	if err := repo.db.WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create message")
	}
	msg.ID = model.ID
	msg.CreatedAt = model.CreatedAt
	return nil
}

// CreateIfAbsent implements message.Repository. Deduplication rides on the
// partial unique index over transport_message_id: ON CONFLICT DO NOTHING
// makes the probe-insert race harmless because only one insert can win.
func (repo *MessageGormRepository) CreateIfAbsent(ctx context.Context, msg *message.Message) (bool, error) {
	if msg.TransportMessageID == nil {
		if err := repo.Create(ctx, msg); err != nil {
			return false, err
		}
		return true, nil
	}

	model := dbschema.NewSchemaMessage(msg)
	result := repo.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "transport_message_id"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "transport_message_id IS NOT NULL"}}},
		DoNothing:   true,
	}).Create(model)
	if result.Error != nil {
		return false, platformerrors.AsError(ctx, platformerrors.LayerRepository, result.Error, "failed to create message")
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	msg.ID = model.ID
	msg.CreatedAt = model.CreatedAt
	return true, nil
}

// ExistsByTransportID implements message.Repository.
func (repo *MessageGormRepository) ExistsByTransportID(ctx context.Context, transportMessageID string) (bool, error) {
	var total int64
	err := repo.db.WithContext(ctx).
		Model(&dbschema.Message{}).
		Where("transport_message_id = ?", transportMessageID).
		Count(&total).Error
	if err != nil {
		return false, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to probe transport message id")
	}
	return total > 0, nil
}

// Update implements message.Repository.
func (repo *MessageGormRepository) Update(ctx context.Context, msg *message.Message) error {
	model := dbschema.NewSchemaMessage(msg)
	if err := repo.db.WithContext(ctx).Save(model).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to update message")
	}
	msg.CreatedAt = model.CreatedAt
	return nil
}

// ListByConversation implements message.Repository. The timeline is ordered
// by origin timestamp so reconciled rows interleave at their original
// position.
func (repo *MessageGormRepository) ListByConversation(ctx context.Context, conversationID uint, pagination *query.Pagination) ([]*message.Message, error) {
	var rows []*dbschema.Message
	sql := repo.db.WithContext(ctx).
		Model(&dbschema.Message{}).
		Where("conversation_id = ?", conversationID)
	if pagination != nil && pagination.After != nil {
		sql = sql.Where("id > ?", *pagination.After)
	}
	if pagination != nil && pagination.Order == "desc" {
		sql = sql.Order("created_at DESC, id DESC")
	} else {
		sql = sql.Order("created_at ASC, id ASC")
	}
	if pagination != nil && pagination.Limit != nil && *pagination.Limit > 0 {
		sql = sql.Limit(*pagination.Limit)
	}
	if err := sql.Find(&rows).Error; err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list messages")
	}

	return functional.Map(rows, func(row *dbschema.Message) *message.Message {
		return row.EtoD()
	}), nil
}

// CountByConversation implements message.Repository.
func (repo *MessageGormRepository) CountByConversation(ctx context.Context, conversationID uint) (int64, error) {
	var total int64
	err := repo.db.WithContext(ctx).
		Model(&dbschema.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&total).Error
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to count messages")
	}
	return total, nil
}
