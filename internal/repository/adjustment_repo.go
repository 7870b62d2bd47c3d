package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdjustmentRepository interface {
	Create(ctx context.Context, adj *model.InventoryAdjustment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryAdjustment, error)
	ListByApproval(ctx context.Context, approvalID uuid.UUID) ([]model.InventoryAdjustment, error)
	List(ctx context.Context, tenantID uuid.UUID, status model.ApprovalStatus, page, limit int) ([]model.InventoryAdjustment, int64, error)
	// UpdateStatusByApproval cascades the parent decision to every linked row.
	UpdateStatusByApproval(ctx context.Context, approvalID uuid.UUID, status model.ApprovalStatus) error
}

type adjustmentRepository struct {
	db *gorm.DB
}

func NewAdjustmentRepository(db *gorm.DB) AdjustmentRepository {
	return &adjustmentRepository{db: db}
}

func (r *adjustmentRepository) Create(ctx context.Context, adj *model.InventoryAdjustment) error {
	return GetDB(ctx, r.db).Create(adj).Error
}

func (r *adjustmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryAdjustment, error) {
	var adj model.InventoryAdjustment
	if err := GetDB(ctx, r.db).Preload("Item").First(&adj, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &adj, nil
}

func (r *adjustmentRepository) ListByApproval(ctx context.Context, approvalID uuid.UUID) ([]model.InventoryAdjustment, error) {
	var adjs []model.InventoryAdjustment
	if err := GetDB(ctx, r.db).Preload("Item").Where("approval_id = ?", approvalID).Find(&adjs).Error; err != nil {
		return nil, err
	}
	return adjs, nil
}

func (r *adjustmentRepository) List(ctx context.Context, tenantID uuid.UUID, status model.ApprovalStatus, page, limit int) ([]model.InventoryAdjustment, int64, error) {
	var adjs []model.InventoryAdjustment
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.InventoryAdjustment{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Item").Where("tenant_id = ?", tenantID)
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&adjs).Error; err != nil {
		return nil, 0, err
	}

	return adjs, total, nil
}

func (r *adjustmentRepository) UpdateStatusByApproval(ctx context.Context, approvalID uuid.UUID, status model.ApprovalStatus) error {
	return GetDB(ctx, r.db).Model(&model.InventoryAdjustment{}).
		Where("approval_id = ?", approvalID).
		Update("status", status).Error
}
