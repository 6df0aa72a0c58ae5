package deliveryrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"leadchat-server/services/routing-api/internal/domain/delivery"
	"leadchat-server/services/routing-api/internal/infrastructure/database/dbschema"
	"leadchat-server/services/routing-api/internal/utils/functional"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

type DeliveryGormRepository struct {
	db *gorm.DB
}

var _ delivery.Repository = (*DeliveryGormRepository)(nil)

func NewDeliveryGormRepository(db *gorm.DB) delivery.Repository {
	return &DeliveryGormRepository{db}
}

// Create implements delivery.Repository.
func (repo *DeliveryGormRepository) Create(ctx context.Context, entry *delivery.Entry) error {
	model := dbschema.NewSchemaDeliveryLogEntry(entry)
	if err := repo.db.WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create delivery entry")
	}
	entry.ID = model.ID
	entry.CreatedAt = model.CreatedAt
	return nil
}

// FindByID implements delivery.Repository.
func (repo *DeliveryGormRepository) FindByID(ctx context.Context, id uint) (*delivery.Entry, error) {
	var row dbschema.DeliveryLogEntry
	if err := repo.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "delivery entry not found", err, "e74fab25-6d80-4cb3-bf91-4a5b6c7d8e9f")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to load delivery entry")
	}
	return row.EtoD(), nil
}

// ListUnacknowledged implements delivery.Repository. A null transport
// message id means the gateway never confirmed the attempt.
func (repo *DeliveryGormRepository) ListUnacknowledged(ctx context.Context, contextType delivery.ContextType, since time.Time) ([]*delivery.Entry, error) {
	var rows []*dbschema.DeliveryLogEntry
	err := repo.db.WithContext(ctx).
		Model(&dbschema.DeliveryLogEntry{}).
		Where("context_type = ? AND transport_message_id IS NULL AND created_at >= ?", contextType, since).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list unacknowledged deliveries")
	}

	return functional.Map(rows, func(row *dbschema.DeliveryLogEntry) *delivery.Entry {
		return row.EtoD()
	}), nil
}
