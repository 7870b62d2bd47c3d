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

type LogWasteRequest struct {
	ItemID   string          `json:"item_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	Category string          `json:"category" binding:"required,oneof=SPOILAGE PREPARATION PLATE EXPIRED OTHER"`
	Note     string          `json:"note"`
	Priority model.Priority  `json:"priority"`
	DueDate  *time.Time      `json:"due_date"`
}

// WasteResult reports whether the entry applied immediately or is waiting
// on an approval request.
type WasteResult struct {
	Entry      *model.WasteEntry `json:"entry"`
	ApprovalID *uuid.UUID        `json:"approval_id,omitempty"`
	Applied    bool              `json:"applied"`
}

type WasteService interface {
	LogWaste(ctx context.Context, user *model.User, req LogWasteRequest) (*WasteResult, error)
	ListWaste(ctx context.Context, tenantID uuid.UUID, status model.ApprovalStatus, page, limit int) ([]model.WasteEntry, int64, error)
}

type wasteService struct {
	wasteRepo repository.WasteRepository
	itemRepo  repository.ItemRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	approvals ApprovalService
	notifier  notify.Notifier
	threshold decimal.Decimal // write-offs at/above this cost need approval
	log       *logrus.Logger
}

func NewWasteService(
	wasteRepo repository.WasteRepository,
	itemRepo repository.ItemRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	approvals ApprovalService,
	notifier notify.Notifier,
	threshold decimal.Decimal,
	log *logrus.Logger,
) WasteService {
	return &wasteService{
		wasteRepo: wasteRepo,
		itemRepo:  itemRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		approvals: approvals,
		notifier:  notifier,
		threshold: threshold,
		log:       log,
	}
}

// LogWaste costs the discarded quantity against FIFO batches. Cheap waste
// is applied on the spot; expensive waste is parked PENDING behind an
// approval request and only consumes stock once approved.
func (s *wasteService) LogWaste(ctx context.Context, user *model.User, req LogWasteRequest) (*WasteResult, error) {
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return nil, apperror.New(apperror.KindValidation, "invalid item_id: %s", req.ItemID)
	}
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.New(apperror.KindValidation, "waste quantity must be positive")
	}

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "inventory item %s not found", itemID)
		}
		return nil, err
	}
	if item.TenantID != user.TenantID {
		return nil, apperror.New(apperror.KindNotFound, "inventory item %s not found", itemID)
	}

	branchID := item.BranchID
	if user.BranchID != nil {
		branchID = *user.BranchID
	}

	batches, err := s.itemRepo.ListBatchesFIFO(ctx, itemID)
	if err != nil {
		return nil, err
	}
	draws, cost, err := PlanFIFO(batches, req.Quantity)
	if err != nil {
		return nil, err
	}

	entry := model.WasteEntry{
		TenantID: user.TenantID,
		BranchID: branchID,
		ItemID:   itemID,
		Quantity: req.Quantity,
		Cost:     cost,
		Category: req.Category,
		Note:     req.Note,
		LoggedBy: user.ID,
	}

	needsApproval := cost.GreaterThanOrEqual(s.threshold)

	result := WasteResult{Entry: &entry}
	var approval *model.ApprovalRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if !needsApproval {
			if applyErr := applyDraws(txCtx, s.itemRepo, draws); applyErr != nil {
				return applyErr
			}
			if stockErr := s.itemRepo.AdjustStock(txCtx, itemID, req.Quantity.Neg()); stockErr != nil {
				return stockErr
			}
			entry.Status = model.ApprovalApproved
			if createErr := s.wasteRepo.Create(txCtx, &entry); createErr != nil {
				return createErr
			}
			return s.audit(txCtx, &entry, user.ID)
		}

		// Approval request first, then the child row referencing it.
		created, createErr := s.approvals.CreateApprovalRequest(txCtx, CreateApprovalInput{
			Type:        model.RequestTypeWasteWriteOff,
			Title:       fmt.Sprintf("Waste write-off: %s", item.Name),
			Description: req.Note,
			Payload: RequestPayload{Waste: &WastePayload{
				ItemID:   item.ID.String(),
				ItemName: item.Name,
				Unit:     item.Unit,
				Quantity: req.Quantity,
				Cost:     cost,
				Category: req.Category,
				Note:     req.Note,
			}},
			Priority: req.Priority,
			DueDate:  req.DueDate,
		}, user.ID, user.TenantID)
		if createErr != nil {
			return createErr
		}
		approval = created

		entry.Status = model.ApprovalPending
		entry.ApprovalID = &approval.ID
		result.ApprovalID = &approval.ID
		if createErr := s.wasteRepo.Create(txCtx, &entry); createErr != nil {
			return createErr
		}
		return s.audit(txCtx, &entry, user.ID)
	})
	if err != nil {
		return nil, err
	}

	// Announce the new request only once our transaction has committed.
	if approval != nil {
		s.notifier.ApprovalCreated(notify.Event{
			ApprovalID: approval.ID.String(),
			TenantID:   user.TenantID.String(),
			Priority:   approval.Priority.String(),
			Title:      approval.Title,
		})
	}

	s.log.WithFields(logrus.Fields{
		"item_id":   itemID,
		"tenant_id": user.TenantID,
		"cost":      cost,
		"applied":   !needsApproval,
	}).Info("waste entry logged")

	result.Applied = !needsApproval
	return &result, nil
}

func (s *wasteService) ListWaste(ctx context.Context, tenantID uuid.UUID, status model.ApprovalStatus, page, limit int) ([]model.WasteEntry, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.wasteRepo.List(ctx, tenantID, status, page, limit)
}

func (s *wasteService) audit(ctx context.Context, entry *model.WasteEntry, userID uuid.UUID) error {
	details, _ := json.Marshal(map[string]string{
		"quantity": entry.Quantity.String(),
		"cost":     entry.Cost.String(),
		"category": entry.Category,
		"status":   entry.Status.String(),
	})
	record := model.AuditLog{
		TenantID:  entry.TenantID,
		UserID:    &userID,
		Action:    model.ActionCreateWasteEntry,
		EntityID:  entry.ID.String(),
		NewValues: string(details),
	}
	if err := s.auditRepo.Log(ctx, &record); err != nil {
		return apperror.Wrap(apperror.KindAudit, err, "audit log write failed")
	}
	return nil
}
