package conversationrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"leadchat-server/services/routing-api/internal/domain/conversation"
	"leadchat-server/services/routing-api/internal/domain/query"
	"leadchat-server/services/routing-api/internal/infrastructure/database/dbschema"
	"leadchat-server/services/routing-api/internal/utils/functional"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

type ConversationGormRepository struct {
	db *gorm.DB
}

var _ conversation.Repository = (*ConversationGormRepository)(nil)

func NewConversationGormRepository(db *gorm.DB) conversation.Repository {
	return &ConversationGormRepository{db}
}

// Create implements conversation.Repository.
func (repo *ConversationGormRepository) Create(ctx context.Context, conv *conversation.Conversation) error {
	model := dbschema.NewSchemaConversation(conv)
	if err := repo.db.WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create conversation")
	}
	// Update the domain object with generated ID and timestamps
	conv.ID = model.ID
	conv.CreatedAt = model.CreatedAt
	conv.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByFilter implements conversation.Repository.
func (repo *ConversationGormRepository) FindByFilter(ctx context.Context, filter conversation.Filter, pagination *query.Pagination) ([]*conversation.Conversation, error) {
	var rows []*dbschema.Conversation
	sql := repo.applyFilter(repo.db.WithContext(ctx).Model(&dbschema.Conversation{}).Preload("Agent"), filter)
	sql = applyPagination(sql, pagination)
	if err := sql.Find(&rows).Error; err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list conversations")
	}

	return functional.Map(rows, func(row *dbschema.Conversation) *conversation.Conversation {
		return row.EtoD()
	}), nil
}

// Count implements conversation.Repository.
func (repo *ConversationGormRepository) Count(ctx context.Context, filter conversation.Filter) (int64, error) {
	var total int64
	sql := repo.applyFilter(repo.db.WithContext(ctx).Model(&dbschema.Conversation{}), filter)
	if err := sql.Count(&total).Error; err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to count conversations")
	}
	return total, nil
}

// FindByID implements conversation.Repository.
func (repo *ConversationGormRepository) FindByID(ctx context.Context, id uint) (*conversation.Conversation, error) {
	var row dbschema.Conversation
	err := repo.db.WithContext(ctx).Preload("Agent").First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", err, "b41c7e92-3a5d-4f80-8c6e-1d2f3a4b5c6d")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to load conversation")
	}
	return row.EtoD(), nil
}

// FindByPublicID implements conversation.Repository.
func (repo *ConversationGormRepository) FindByPublicID(ctx context.Context, publicID string) (*conversation.Conversation, error) {
	var row dbschema.Conversation
	err := repo.db.WithContext(ctx).Preload("Agent").Where("public_id = ?", publicID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", err, "c52d8f03-4b6e-4a91-9d7f-2e3a4b5c6d7e")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to load conversation")
	}
	return row.EtoD(), nil
}

// FindOpenByContactNumber implements conversation.Repository.
func (repo *ConversationGormRepository) FindOpenByContactNumber(ctx context.Context, contactNumber string) (*conversation.Conversation, error) {
	var row dbschema.Conversation
	err := repo.db.WithContext(ctx).
		Preload("Agent").
		Where("contact_number = ? AND status <> ?", contactNumber, conversation.StatusClosed).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to resolve conversation by contact")
	}
	return row.EtoD(), nil
}

// Update implements conversation.Repository.
func (repo *ConversationGormRepository) Update(ctx context.Context, conv *conversation.Conversation) error {
	model := dbschema.NewSchemaConversation(conv)
	if err := repo.db.WithContext(ctx).Save(model).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to update conversation")
	}
	conv.UpdatedAt = model.UpdatedAt
	return nil
}

// CompareAndSetStatus implements conversation.Repository. The swap is a
// single guarded UPDATE: the row only changes when the stored status still
// matches what the caller read, so concurrent transitions get at most one
// winner.
func (repo *ConversationGormRepository) CompareAndSetStatus(ctx context.Context, id uint, expected conversation.Status, change conversation.StatusChange) (*conversation.Conversation, bool, error) {
	updates := map[string]any{
		"status":     change.To,
		"updated_at": time.Now(),
	}
	if change.To == conversation.StatusSeller {
		updates["assigned_agent_id"] = change.AssignedAgentID
	} else {
		updates["assigned_agent_id"] = nil
	}
	if change.ClosedAt != nil {
		updates["closed_at"] = *change.ClosedAt
	}

	result := repo.db.WithContext(ctx).
		Model(&dbschema.Conversation{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if result.Error != nil {
		return nil, false, platformerrors.AsError(ctx, platformerrors.LayerRepository, result.Error, "failed to apply status swap")
	}

	// Reload the row either way so the caller can classify a failed swap.
	current, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, result.RowsAffected == 1, nil
}

func (repo *ConversationGormRepository) applyFilter(sql *gorm.DB, filter conversation.Filter) *gorm.DB {
	if filter.ID != nil {
		sql = sql.Where("id = ?", *filter.ID)
	}
	if filter.PublicID != nil {
		sql = sql.Where("public_id = ?", *filter.PublicID)
	}
	if filter.ContactNumber != nil {
		sql = sql.Where("contact_number = ?", *filter.ContactNumber)
	}
	if filter.Status != nil {
		sql = sql.Where("status = ?", *filter.Status)
	}
	if filter.AssignedAgentID != nil {
		sql = sql.Where("assigned_agent_id = ?", *filter.AssignedAgentID)
	}
	return sql
}

// applyPagination applies cursor pagination ordered by internal ID.
func applyPagination(sql *gorm.DB, p *query.Pagination) *gorm.DB {
	if p == nil {
		return sql.Order("id ASC")
	}
	if p.After != nil {
		if p.Order == "desc" {
			sql = sql.Where("id < ?", *p.After)
		} else {
			sql = sql.Where("id > ?", *p.After)
		}
	}
	if p.Order == "desc" {
		sql = sql.Order("id DESC")
	} else {
		sql = sql.Order("id ASC")
	}
	if p.Limit != nil && *p.Limit > 0 {
		sql = sql.Limit(*p.Limit)
	}
	return sql
}
