package agentrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"leadchat-server/services/routing-api/internal/domain/agent"
	"leadchat-server/services/routing-api/internal/infrastructure/database/dbschema"
	"leadchat-server/services/routing-api/internal/utils/functional"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

type AgentGormRepository struct {
	db *gorm.DB
}

var _ agent.Repository = (*AgentGormRepository)(nil)

func NewAgentGormRepository(db *gorm.DB) agent.Repository {
	return &AgentGormRepository{db}
}

// Create implements agent.Repository.
func (repo *AgentGormRepository) Create(ctx context.Context, a *agent.Agent) error {
	model := dbschema.NewSchemaSalesAgent(a)
	if err := repo.db.WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create agent")
	}
	a.ID = model.ID
	a.CreatedAt = model.CreatedAt
	a.UpdatedAt = model.UpdatedAt
	return nil
}

// Update implements agent.Repository.
func (repo *AgentGormRepository) Update(ctx context.Context, a *agent.Agent) error {
	model := dbschema.NewSchemaSalesAgent(a)
	if err := repo.db.WithContext(ctx).Save(model).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to update agent")
	}
	a.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID implements agent.Repository.
func (repo *AgentGormRepository) FindByID(ctx context.Context, id uint) (*agent.Agent, error) {
	var row dbschema.SalesAgent
	if err := repo.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, repo.wrapLookupError(ctx, err)
	}
	return row.EtoD(), nil
}

// FindByPublicID implements agent.Repository.
func (repo *AgentGormRepository) FindByPublicID(ctx context.Context, publicID string) (*agent.Agent, error) {
	var row dbschema.SalesAgent
	if err := repo.db.WithContext(ctx).Where("public_id = ?", publicID).First(&row).Error; err != nil {
		return nil, repo.wrapLookupError(ctx, err)
	}
	return row.EtoD(), nil
}

// FindBySlug implements agent.Repository.
func (repo *AgentGormRepository) FindBySlug(ctx context.Context, slug string) (*agent.Agent, error) {
	var row dbschema.SalesAgent
	if err := repo.db.WithContext(ctx).Where("slug = ?", slug).First(&row).Error; err != nil {
		return nil, repo.wrapLookupError(ctx, err)
	}
	return row.EtoD(), nil
}

// FindByFilter implements agent.Repository.
func (repo *AgentGormRepository) FindByFilter(ctx context.Context, filter agent.Filter) ([]*agent.Agent, error) {
	var rows []*dbschema.SalesAgent
	sql := repo.db.WithContext(ctx).Model(&dbschema.SalesAgent{})
	if filter.ID != nil {
		sql = sql.Where("id = ?", *filter.ID)
	}
	if filter.PublicID != nil {
		sql = sql.Where("public_id = ?", *filter.PublicID)
	}
	if filter.Slug != nil {
		sql = sql.Where("slug = ?", *filter.Slug)
	}
	if filter.Active != nil {
		sql = sql.Where("active = ?", *filter.Active)
	}
	if err := sql.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list agents")
	}

	return functional.Map(rows, func(row *dbschema.SalesAgent) *agent.Agent {
		return row.EtoD()
	}), nil
}

func (repo *AgentGormRepository) wrapLookupError(ctx context.Context, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "agent not found", err, "d63e9a14-5c7f-4ba2-ae80-3f4b5c6d7e8f")
	}
	return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to load agent")
}
