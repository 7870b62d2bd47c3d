package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// priorityOrder sorts CRITICAL > HIGH > MEDIUM > LOW regardless of the
// lexical order of the stored strings.
const priorityOrder = "CASE priority WHEN 'CRITICAL' THEN 4 WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END DESC, requested_at ASC"

// ApprovalFilter narrows analytics/list queries. Zero fields are ignored;
// set fields combine with AND. Date bounds are inclusive on requested_at.
type ApprovalFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Type      model.RequestType
	Status    model.ApprovalStatus
}

type ApprovalRepository interface {
	Create(ctx context.Context, req *model.ApprovalRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error)
	ListPending(ctx context.Context, tenantID uuid.UUID) ([]model.ApprovalRequest, error)
	ListForAnalytics(ctx context.Context, tenantID uuid.UUID, filter ApprovalFilter) ([]model.ApprovalRequest, error)
	List(ctx context.Context, tenantID uuid.UUID, status model.ApprovalStatus, page, limit int) ([]model.ApprovalRequest, int64, error)
	// MarkDecided applies the terminal transition only if the row is still
	// PENDING. Returns the number of rows updated: 0 means another decision
	// committed first.
	MarkDecided(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (int64, error)
}

type approvalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) Create(ctx context.Context, req *model.ApprovalRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *approvalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *approvalRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	if err := GetDB(ctx, r.db).
		Preload("Requester").
		Preload("Approver").
		Preload("Rejecter").
		Preload("Adjustments.Item").
		Preload("WasteEntries.Item").
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *approvalRepository) ListPending(ctx context.Context, tenantID uuid.UUID) ([]model.ApprovalRequest, error) {
	var requests []model.ApprovalRequest
	if err := GetDB(ctx, r.db).
		Preload("Requester").
		Preload("Adjustments.Item").
		Preload("WasteEntries.Item").
		Where("tenant_id = ? AND status = ?", tenantID, model.ApprovalPending).
		Order(priorityOrder).
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *approvalRepository) ListForAnalytics(ctx context.Context, tenantID uuid.UUID, filter ApprovalFilter) ([]model.ApprovalRequest, error) {
	query := GetDB(ctx, r.db).
		Preload("Requester.Branch").
		Where("tenant_id = ?", tenantID)

	if filter.StartDate != nil {
		query = query.Where("requested_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("requested_at <= ?", *filter.EndDate)
	}
	if filter.Type != "" {
		query = query.Where("request_type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var requests []model.ApprovalRequest
	if err := query.Order("requested_at ASC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *approvalRepository) List(ctx context.Context, tenantID uuid.UUID, status model.ApprovalStatus, page, limit int) ([]model.ApprovalRequest, int64, error) {
	var requests []model.ApprovalRequest
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.ApprovalRequest{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Requester").Preload("Approver").Preload("Rejecter").
		Where("tenant_id = ?", tenantID)
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order(priorityOrder).Offset(offset).Limit(limit).Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *approvalRepository) MarkDecided(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (int64, error) {
	result := GetDB(ctx, r.db).Model(&model.ApprovalRequest{}).
		Where("id = ? AND status = ?", id, model.ApprovalPending).
		Updates(updates)
	return result.RowsAffected, result.Error
}
