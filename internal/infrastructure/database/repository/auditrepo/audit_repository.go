package auditrepo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"leadchat-server/services/routing-api/internal/application/audit"
	"leadchat-server/services/routing-api/internal/domain/security"
	"leadchat-server/services/routing-api/internal/infrastructure/database/dbschema"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

// AuditGormRepository reads the audit trail. Writes go through the audit
// logger; this side only answers the rate-limit query.
type AuditGormRepository struct {
	db *gorm.DB
}

var _ security.FailureCounter = (*AuditGormRepository)(nil)

func NewAuditGormRepository(db *gorm.DB) security.FailureCounter {
	return &AuditGormRepository{db}
}

// CountLoginFailures implements security.FailureCounter.
func (repo *AuditGormRepository) CountLoginFailures(ctx context.Context, identity string, since time.Time) (int64, error) {
	var total int64
	err := repo.db.WithContext(ctx).
		Model(&dbschema.AuditLog{}).
		Where("actor = ? AND event = ? AND success = ? AND created_at >= ?", identity, audit.EventLoginFailed, false, since).
		Count(&total).Error
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to count login failures")
	}
	return total, nil
}
