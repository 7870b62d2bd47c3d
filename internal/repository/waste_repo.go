package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WasteRepository interface {
	Create(ctx context.Context, entry *model.WasteEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.WasteEntry, error)
	ListByApproval(ctx context.Context, approvalID uuid.UUID) ([]model.WasteEntry, error)
	List(ctx context.Context, tenantID uuid.UUID, status model.ApprovalStatus, page, limit int) ([]model.WasteEntry, int64, error)
	// UpdateStatusByApproval cascades the parent decision to every linked row.
	UpdateStatusByApproval(ctx context.Context, approvalID uuid.UUID, status model.ApprovalStatus) error
}

type wasteRepository struct {
	db *gorm.DB
}

func NewWasteRepository(db *gorm.DB) WasteRepository {
	return &wasteRepository{db: db}
}

func (r *wasteRepository) Create(ctx context.Context, entry *model.WasteEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *wasteRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.WasteEntry, error) {
	var entry model.WasteEntry
	if err := GetDB(ctx, r.db).Preload("Item").Preload("Branch").First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *wasteRepository) ListByApproval(ctx context.Context, approvalID uuid.UUID) ([]model.WasteEntry, error) {
	var entries []model.WasteEntry
	if err := GetDB(ctx, r.db).Preload("Item").Where("approval_id = ?", approvalID).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *wasteRepository) List(ctx context.Context, tenantID uuid.UUID, status model.ApprovalStatus, page, limit int) ([]model.WasteEntry, int64, error) {
	var entries []model.WasteEntry
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.WasteEntry{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Item").Preload("Branch").Where("tenant_id = ?", tenantID)
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("logged_at DESC").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *wasteRepository) UpdateStatusByApproval(ctx context.Context, approvalID uuid.UUID, status model.ApprovalStatus) error {
	return GetDB(ctx, r.db).Model(&model.WasteEntry{}).
		Where("approval_id = ?", approvalID).
		Update("status", status).Error
}
