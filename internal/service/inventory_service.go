package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/notify"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DTOs
type CreateItemRequest struct {
	BranchID string          `json:"branch_id" binding:"required"`
	SKU      string          `json:"sku" binding:"required"`
	Name     string          `json:"name" binding:"required"`
	Unit     string          `json:"unit" binding:"required"`
	MinStock decimal.Decimal `json:"min_stock"`
}

type UpdateItemRequest struct {
	Name     string          `json:"name" binding:"required"`
	Unit     string          `json:"unit" binding:"required"`
	MinStock decimal.Decimal `json:"min_stock"`
}

type ReceiveBatchRequest struct {
	ItemID   string          `json:"item_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost decimal.Decimal `json:"unit_cost" binding:"required"`
}

// CreateAdjustmentRequest is a manual stock correction. Negative delta
// removes stock.
type CreateAdjustmentRequest struct {
	ItemID   string          `json:"item_id" binding:"required"`
	Delta    decimal.Decimal `json:"delta" binding:"required"`
	Reason   string          `json:"reason" binding:"required"`
	Priority model.Priority  `json:"priority"`
	DueDate  *time.Time      `json:"due_date"`
}

// AdjustmentResult reports whether the adjustment applied immediately or is
// waiting on an approval request.
type AdjustmentResult struct {
	Adjustment *model.InventoryAdjustment `json:"adjustment"`
	ApprovalID *uuid.UUID                 `json:"approval_id,omitempty"`
	Applied    bool                       `json:"applied"`
}

type InventoryService interface {
	GetItems(ctx context.Context, tenantID uuid.UUID, page, limit int, search string) ([]model.InventoryItem, int64, error)
	CreateItem(ctx context.Context, userID, tenantID uuid.UUID, req CreateItemRequest) (*model.InventoryItem, error)
	UpdateItem(ctx context.Context, userID, tenantID uuid.UUID, id uuid.UUID, req UpdateItemRequest) (*model.InventoryItem, error)
	DeleteItem(ctx context.Context, userID, tenantID uuid.UUID, id uuid.UUID) error
	ReceiveBatch(ctx context.Context, userID, tenantID uuid.UUID, req ReceiveBatchRequest) (*model.InventoryBatch, error)
	CreateAdjustment(ctx context.Context, userID, tenantID uuid.UUID, req CreateAdjustmentRequest) (*AdjustmentResult, error)
	ListAdjustments(ctx context.Context, tenantID uuid.UUID, status model.ApprovalStatus, page, limit int) ([]model.InventoryAdjustment, int64, error)
}

type inventoryService struct {
	itemRepo       repository.ItemRepository
	adjustmentRepo repository.AdjustmentRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	approvals      ApprovalService
	notifier       notify.Notifier
	threshold      decimal.Decimal // adjustments at/above this value need approval
	log            *logrus.Logger
}

func NewInventoryService(
	itemRepo repository.ItemRepository,
	adjustmentRepo repository.AdjustmentRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	approvals ApprovalService,
	notifier notify.Notifier,
	threshold decimal.Decimal,
	log *logrus.Logger,
) InventoryService {
	return &inventoryService{
		itemRepo:       itemRepo,
		adjustmentRepo: adjustmentRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		approvals:      approvals,
		notifier:       notifier,
		threshold:      threshold,
		log:            log,
	}
}

func (s *inventoryService) GetItems(ctx context.Context, tenantID uuid.UUID, page, limit int, search string) ([]model.InventoryItem, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.itemRepo.List(ctx, tenantID, page, limit, search)
}

func (s *inventoryService) CreateItem(ctx context.Context, userID, tenantID uuid.UUID, req CreateItemRequest) (*model.InventoryItem, error) {
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		return nil, apperror.New(apperror.KindValidation, "invalid branch_id: %s", req.BranchID)
	}

	item := model.InventoryItem{
		TenantID:     tenantID,
		BranchID:     branchID,
		SKU:          req.SKU,
		Name:         req.Name,
		Unit:         req.Unit,
		CurrentStock: decimal.Zero,
		UnitCost:     decimal.Zero,
		MinStock:     req.MinStock,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.itemRepo.Create(txCtx, &item); createErr != nil {
			return createErr
		}
		return s.audit(txCtx, tenantID, &userID, model.ActionCreateItem, item.ID.String(), item.Name, nil, map[string]string{"sku": item.SKU, "name": item.Name})
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, userID, tenantID uuid.UUID, id uuid.UUID, req UpdateItemRequest) (*model.InventoryItem, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "inventory item %s not found", id)
		}
		return nil, err
	}
	if item.TenantID != tenantID {
		return nil, apperror.New(apperror.KindNotFound, "inventory item %s not found", id)
	}

	old := map[string]string{"name": item.Name, "unit": item.Unit}
	item.Name = req.Name
	item.Unit = req.Unit
	item.MinStock = req.MinStock

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.itemRepo.Update(txCtx, item); updateErr != nil {
			return updateErr
		}
		return s.audit(txCtx, tenantID, &userID, model.ActionUpdateItem, item.ID.String(), item.Name, old, map[string]string{"name": item.Name, "unit": item.Unit})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *inventoryService) DeleteItem(ctx context.Context, userID, tenantID uuid.UUID, id uuid.UUID) error {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(apperror.KindNotFound, "inventory item %s not found", id)
		}
		return err
	}
	if item.TenantID != tenantID {
		return apperror.New(apperror.KindNotFound, "inventory item %s not found", id)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.itemRepo.Delete(txCtx, id); deleteErr != nil {
			return deleteErr
		}
		return s.audit(txCtx, tenantID, &userID, model.ActionDeleteItem, id.String(), item.Name, nil, nil)
	})
}

// ReceiveBatch records a new stock lot and bumps the item's stock and
// latest unit cost.
func (s *inventoryService) ReceiveBatch(ctx context.Context, userID, tenantID uuid.UUID, req ReceiveBatchRequest) (*model.InventoryBatch, error) {
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return nil, apperror.New(apperror.KindValidation, "invalid item_id: %s", req.ItemID)
	}
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.New(apperror.KindValidation, "batch quantity must be positive")
	}
	if req.UnitCost.IsNegative() {
		return nil, apperror.New(apperror.KindValidation, "unit cost cannot be negative")
	}

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "inventory item %s not found", itemID)
		}
		return nil, err
	}
	if item.TenantID != tenantID {
		return nil, apperror.New(apperror.KindNotFound, "inventory item %s not found", itemID)
	}

	batch := model.InventoryBatch{
		ItemID:    itemID,
		Remaining: req.Quantity,
		UnitCost:  req.UnitCost,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.itemRepo.CreateBatch(txCtx, &batch); createErr != nil {
			return createErr
		}
		if restockErr := s.itemRepo.RestockItem(txCtx, item.ID, req.Quantity, req.UnitCost); restockErr != nil {
			return restockErr
		}
		return s.audit(txCtx, tenantID, &userID, model.ActionReceiveBatch, batch.ID.String(), item.Name, nil,
			map[string]string{"quantity": req.Quantity.String(), "unit_cost": req.UnitCost.String()})
	})
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// CreateAdjustment applies small corrections immediately; corrections whose
// estimated value reaches the approval threshold are parked PENDING behind
// an approval request created in the same transaction.
func (s *inventoryService) CreateAdjustment(ctx context.Context, userID, tenantID uuid.UUID, req CreateAdjustmentRequest) (*AdjustmentResult, error) {
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return nil, apperror.New(apperror.KindValidation, "invalid item_id: %s", req.ItemID)
	}
	if req.Delta.IsZero() {
		return nil, apperror.New(apperror.KindValidation, "delta cannot be zero")
	}

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "inventory item %s not found", itemID)
		}
		return nil, err
	}
	if item.TenantID != tenantID {
		return nil, apperror.New(apperror.KindNotFound, "inventory item %s not found", itemID)
	}

	estimatedValue := req.Delta.Abs().Mul(item.UnitCost)

	adjustment := model.InventoryAdjustment{
		TenantID:       tenantID,
		ItemID:         itemID,
		Delta:          req.Delta,
		Reason:         req.Reason,
		EstimatedValue: estimatedValue,
		RequestedBy:    userID,
	}

	needsApproval := estimatedValue.GreaterThanOrEqual(s.threshold)

	result := AdjustmentResult{Adjustment: &adjustment}
	var approval *model.ApprovalRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if !needsApproval {
			return s.applyImmediately(txCtx, item, &adjustment, userID)
		}

		// Approval request first, then the child row referencing it, so a
		// decision can never land before the child exists.
		created, createErr := s.approvals.CreateApprovalRequest(txCtx, CreateApprovalInput{
			Type:        model.RequestTypeInventoryAdjustment,
			Title:       fmt.Sprintf("Stock adjustment: %s", item.Name),
			Description: req.Reason,
			Payload: RequestPayload{Adjustment: &AdjustmentPayload{
				ItemID:         item.ID.String(),
				ItemName:       item.Name,
				Unit:           item.Unit,
				Delta:          req.Delta,
				Reason:         req.Reason,
				EstimatedValue: estimatedValue,
			}},
			Priority: req.Priority,
			DueDate:  req.DueDate,
		}, userID, tenantID)
		if createErr != nil {
			return createErr
		}
		approval = created

		adjustment.Status = model.ApprovalPending
		adjustment.ApprovalID = &approval.ID
		result.ApprovalID = &approval.ID
		if createErr := s.adjustmentRepo.Create(txCtx, &adjustment); createErr != nil {
			return createErr
		}
		return s.audit(txCtx, tenantID, &userID, model.ActionCreateAdjustment, adjustment.ID.String(), item.Name, nil,
			map[string]string{"delta": req.Delta.String(), "estimated_value": estimatedValue.String(), "approval_id": approval.ID.String()})
	})
	if err != nil {
		return nil, err
	}

	// Announce the new request only once our transaction has committed.
	if approval != nil {
		s.notifier.ApprovalCreated(notify.Event{
			ApprovalID: approval.ID.String(),
			TenantID:   tenantID.String(),
			Priority:   approval.Priority.String(),
			Title:      approval.Title,
		})
	}

	result.Applied = !needsApproval
	return &result, nil
}

func (s *inventoryService) applyImmediately(ctx context.Context, item *model.InventoryItem, adjustment *model.InventoryAdjustment, userID uuid.UUID) error {
	if adjustment.Delta.IsNegative() {
		batches, err := s.itemRepo.ListBatchesFIFO(ctx, item.ID)
		if err != nil {
			return err
		}
		draws, _, err := PlanFIFO(batches, adjustment.Delta.Neg())
		if err != nil {
			return err
		}
		if err := applyDraws(ctx, s.itemRepo, draws); err != nil {
			return err
		}
	}

	if err := s.itemRepo.AdjustStock(ctx, item.ID, adjustment.Delta); err != nil {
		return err
	}

	adjustment.Status = model.ApprovalApproved
	if err := s.adjustmentRepo.Create(ctx, adjustment); err != nil {
		return err
	}
	return s.audit(ctx, adjustment.TenantID, &userID, model.ActionApplyAdjustment, adjustment.ID.String(), item.Name, nil,
		map[string]string{"delta": adjustment.Delta.String(), "estimated_value": adjustment.EstimatedValue.String()})
}

func (s *inventoryService) ListAdjustments(ctx context.Context, tenantID uuid.UUID, status model.ApprovalStatus, page, limit int) ([]model.InventoryAdjustment, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.adjustmentRepo.List(ctx, tenantID, status, page, limit)
}

func (s *inventoryService) audit(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, action, entityID, entityName string, old, new interface{}) error {
	entry := model.AuditLog{
		TenantID:   tenantID,
		UserID:     userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
	}
	if old != nil {
		raw, _ := json.Marshal(old)
		entry.OldValues = string(raw)
	}
	if new != nil {
		raw, _ := json.Marshal(new)
		entry.NewValues = string(raw)
	}
	if err := s.auditRepo.Log(ctx, &entry); err != nil {
		return apperror.Wrap(apperror.KindAudit, err, "audit log write failed")
	}
	return nil
}
