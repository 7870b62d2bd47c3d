package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *model.Tenant) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
	CreateBranch(ctx context.Context, branch *model.Branch) error
	FindBranchByID(ctx context.Context, id uuid.UUID) (*model.Branch, error)
}

type tenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *model.Tenant) error {
	return GetDB(ctx, r.db).Create(tenant).Error
}

func (r *tenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := GetDB(ctx, r.db).First(&tenant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) CreateBranch(ctx context.Context, branch *model.Branch) error {
	return GetDB(ctx, r.db).Create(branch).Error
}

func (r *tenantRepository) FindBranchByID(ctx context.Context, id uuid.UUID) (*model.Branch, error) {
	var branch model.Branch
	if err := GetDB(ctx, r.db).First(&branch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}
