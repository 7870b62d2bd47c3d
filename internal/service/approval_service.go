package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend/internal/model"
	"backend/internal/notify"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreateApprovalInput describes a new request from the inventory or waste
// subsystem.
type CreateApprovalInput struct {
	Type        model.RequestType
	Title       string
	Description string
	Payload     RequestPayload
	Priority    model.Priority // defaults to MEDIUM when empty
	DueDate     *time.Time
}

// Decision is an approver's verdict on a pending request.
type Decision struct {
	Status model.ApprovalStatus `json:"status" binding:"required"`
	Reason string               `json:"reason"`
}

// PendingApproval is a pending request plus its derived, non-persisted view
// fields.
type PendingApproval struct {
	model.ApprovalRequest
	IsOverdue         bool            `json:"is_overdue"`
	DaysWaiting       int             `json:"days_waiting"`
	UrgencyLevel      model.Urgency   `json:"urgency_level"`
	ParsedRequestData *RequestPayload `json:"parsed_request_data,omitempty"`
}

// ApprovalService is the workflow engine gating inventory/waste mutations
// behind approver decisions.
type ApprovalService interface {
	CreateApprovalRequest(ctx context.Context, input CreateApprovalInput, requestedBy, tenantID uuid.UUID) (*model.ApprovalRequest, error)
	ProcessApprovalDecision(ctx context.Context, approvalID uuid.UUID, decision Decision, approverID, tenantID uuid.UUID) (*model.ApprovalRequest, error)
	GetPendingApprovals(ctx context.Context, userID, tenantID uuid.UUID, userRole string) ([]PendingApproval, error)
	GetApprovalAnalytics(ctx context.Context, tenantID uuid.UUID, filter repository.ApprovalFilter) (ApprovalAnalytics, error)
	ListApprovalRequests(ctx context.Context, tenantID uuid.UUID, status model.ApprovalStatus, page, limit int) ([]model.ApprovalRequest, int64, error)
}

type approvalService struct {
	approvalRepo   repository.ApprovalRepository
	adjustmentRepo repository.AdjustmentRepository
	wasteRepo      repository.WasteRepository
	itemRepo       repository.ItemRepository
	userRepo       repository.UserRepository
	tenantRepo     repository.TenantRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	notifier       notify.Notifier
	log            *logrus.Logger
}

func NewApprovalService(
	approvalRepo repository.ApprovalRepository,
	adjustmentRepo repository.AdjustmentRepository,
	wasteRepo repository.WasteRepository,
	itemRepo repository.ItemRepository,
	userRepo repository.UserRepository,
	tenantRepo repository.TenantRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier notify.Notifier,
	log *logrus.Logger,
) ApprovalService {
	return &approvalService{
		approvalRepo:   approvalRepo,
		adjustmentRepo: adjustmentRepo,
		wasteRepo:      wasteRepo,
		itemRepo:       itemRepo,
		userRepo:       userRepo,
		tenantRepo:     tenantRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		notifier:       notifier,
		log:            log,
	}
}

func (s *approvalService) CreateApprovalRequest(ctx context.Context, input CreateApprovalInput, requestedBy, tenantID uuid.UUID) (*model.ApprovalRequest, error) {
	if !input.Type.IsValid() {
		return nil, apperror.New(apperror.KindValidation, "unrecognized request type: %s", input.Type)
	}
	if input.Title == "" {
		return nil, apperror.New(apperror.KindValidation, "title is required")
	}
	if err := input.Payload.Validate(input.Type); err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, apperror.New(apperror.KindValidation, "unrecognized priority: %s", priority)
	}

	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindValidation, "tenant %s does not exist", tenantID)
		}
		return nil, err
	}
	if !tenant.Active {
		return nil, apperror.New(apperror.KindValidation, "tenant %s is not active", tenantID)
	}

	approvers, err := s.userRepo.ListActiveByRole(ctx, tenantID, model.RoleRestaurantAdmin)
	if err != nil {
		return nil, err
	}
	// A request nobody can ever decide is a configuration error, not a row
	// worth persisting.
	if len(approvers) == 0 {
		return nil, apperror.New(apperror.KindValidation, "no active approvers for tenant %s", tenantID)
	}

	approverIDs := make(model.UUIDList, 0, len(approvers))
	for _, approver := range approvers {
		approverIDs = append(approverIDs, approver.ID)
	}

	raw, err := EncodePayload(input.Payload)
	if err != nil {
		return nil, err
	}

	approval := model.ApprovalRequest{
		TenantID:    tenantID,
		RequestType: input.Type,
		Title:       input.Title,
		Description: input.Description,
		RequestData: raw,
		RequestedBy: requestedBy,
		ApproverIDs: approverIDs,
		Priority:    priority,
		Status:      model.ApprovalPending,
		DueDate:     input.DueDate,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.approvalRepo.Create(txCtx, &approval); createErr != nil {
			return createErr
		}
		return s.logTransition(txCtx, &approval, &requestedBy, model.ActionCreateApprovalRequest, "", raw)
	})
	if err != nil {
		return nil, wrapTxFailure(err, "approval request creation failed")
	}

	s.log.WithFields(logrus.Fields{
		"approval_id": approval.ID,
		"tenant_id":   tenantID,
		"type":        approval.RequestType,
		"priority":    approval.Priority,
	}).Info("approval request created")

	// Inside an ambient transaction nothing has committed yet; the outermost
	// caller announces the request once its commit goes through.
	if !repository.InTransaction(ctx) {
		s.notifier.ApprovalCreated(notify.Event{
			ApprovalID: approval.ID.String(),
			TenantID:   tenantID.String(),
			Priority:   approval.Priority.String(),
			Title:      approval.Title,
		})
	}

	created, err := s.approvalRepo.FindByIDWithRelations(ctx, approval.ID)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *approvalService) ProcessApprovalDecision(ctx context.Context, approvalID uuid.UUID, decision Decision, approverID, tenantID uuid.UUID) (*model.ApprovalRequest, error) {
	if !decision.Status.IsTerminal() {
		return nil, apperror.New(apperror.KindValidation, "decision status must be APPROVED or REJECTED, got %q", decision.Status)
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		approval, findErr := s.approvalRepo.FindByID(txCtx, approvalID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.New(apperror.KindNotFound, "approval request %s not found", approvalID)
			}
			return findErr
		}
		// Tenant scoping: a foreign tenant's id behaves like a missing row.
		if approval.TenantID != tenantID {
			return apperror.New(apperror.KindNotFound, "approval request %s not found", approvalID)
		}
		if approval.Status != model.ApprovalPending {
			return apperror.New(apperror.KindInvalidState, "approval request is already %s", approval.Status)
		}
		if !approval.ApproverIDs.Contains(approverID) {
			return apperror.New(apperror.KindUnauthorized, "user %s is not an approver for this request", approverID)
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"status":       decision.Status,
			"responded_at": now,
		}
		if decision.Status == model.ApprovalApproved {
			updates["approved_by"] = approverID
			updates["approval_reason"] = decision.Reason
		} else {
			updates["rejected_by"] = approverID
			updates["rejection_reason"] = decision.Reason
		}

		// Check-and-set: only the first committed transition wins. Losing a
		// race here means another decision slipped in after our read.
		affected, updateErr := s.approvalRepo.MarkDecided(txCtx, approvalID, updates)
		if updateErr != nil {
			return updateErr
		}
		if affected == 0 {
			return apperror.New(apperror.KindInvalidState, "approval request was already resolved")
		}

		if decision.Status == model.ApprovalApproved {
			if execErr := s.executeApproval(txCtx, approval); execErr != nil {
				return execErr
			}
		}

		// Cascade the terminal status to every linked child row.
		if cascadeErr := s.adjustmentRepo.UpdateStatusByApproval(txCtx, approvalID, decision.Status); cascadeErr != nil {
			return cascadeErr
		}
		if cascadeErr := s.wasteRepo.UpdateStatusByApproval(txCtx, approvalID, decision.Status); cascadeErr != nil {
			return cascadeErr
		}

		action := model.ActionApproveRequest
		if decision.Status == model.ApprovalRejected {
			action = model.ActionRejectRequest
		}
		oldValues := statusJSON(model.ApprovalPending, "")
		newValues := statusJSON(decision.Status, decision.Reason)
		return s.logTransition(txCtx, approval, &approverID, action, oldValues, newValues)
	})
	if err != nil {
		return nil, wrapTxFailure(err, "approval decision transaction failed")
	}

	s.log.WithFields(logrus.Fields{
		"approval_id": approvalID,
		"tenant_id":   tenantID,
		"approver_id": approverID,
		"status":      decision.Status,
	}).Info("approval request decided")

	s.notifier.ApprovalDecided(notify.Event{
		ApprovalID: approvalID.String(),
		TenantID:   tenantID.String(),
		Status:     decision.Status.String(),
	})

	updated, err := s.approvalRepo.FindByIDWithRelations(ctx, approvalID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// executeApproval applies the gated mutations once a request is approved:
// adjustments move item stock (consuming batches FIFO on decreases) and
// waste entries consume batches for the discarded quantity.
func (s *approvalService) executeApproval(ctx context.Context, approval *model.ApprovalRequest) error {
	adjustments, err := s.adjustmentRepo.ListByApproval(ctx, approval.ID)
	if err != nil {
		return err
	}
	for _, adjustment := range adjustments {
		if err := s.applyAdjustment(ctx, adjustment); err != nil {
			return err
		}
	}

	entries, err := s.wasteRepo.ListByApproval(ctx, approval.ID)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := s.applyWaste(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// Stock and batch mutations are relative SQL updates, never read-modify-write,
// so two transactions applying effects to the same item compose instead of
// overwriting each other.
func (s *approvalService) applyAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	if adjustment.Delta.IsNegative() {
		batches, listErr := s.itemRepo.ListBatchesFIFO(ctx, adjustment.ItemID)
		if listErr != nil {
			return listErr
		}
		draws, _, planErr := PlanFIFO(batches, adjustment.Delta.Neg())
		if planErr != nil {
			return planErr
		}
		if applyErr := applyDraws(ctx, s.itemRepo, draws); applyErr != nil {
			return applyErr
		}
	}

	return s.itemRepo.AdjustStock(ctx, adjustment.ItemID, adjustment.Delta)
}

func (s *approvalService) applyWaste(ctx context.Context, entry model.WasteEntry) error {
	batches, err := s.itemRepo.ListBatchesFIFO(ctx, entry.ItemID)
	if err != nil {
		return err
	}
	draws, _, err := PlanFIFO(batches, entry.Quantity)
	if err != nil {
		return err
	}
	if err := applyDraws(ctx, s.itemRepo, draws); err != nil {
		return err
	}

	return s.itemRepo.AdjustStock(ctx, entry.ItemID, entry.Quantity.Neg())
}

func (s *approvalService) GetPendingApprovals(ctx context.Context, userID, tenantID uuid.UUID, userRole string) ([]PendingApproval, error) {
	// Authorization gate, not a query filter: non-approvers silently see an
	// empty queue.
	if !CanApprove(userRole) {
		return []PendingApproval{}, nil
	}

	requests, err := s.approvalRepo.ListPending(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := make([]PendingApproval, 0, len(requests))
	for _, req := range requests {
		if !req.ApproverIDs.Contains(userID) {
			continue
		}

		hoursWaiting := now.Sub(req.RequestedAt).Hours()
		view := PendingApproval{
			ApprovalRequest: req,
			IsOverdue:       IsOverdue(req.DueDate, now),
			DaysWaiting:     DaysWaiting(req.RequestedAt, now),
			UrgencyLevel:    DeriveUrgency(req.Priority, hoursWaiting),
		}

		parsed, decodeErr := DecodePayload(req.RequestData)
		if decodeErr != nil {
			// Display-only field; a bad snapshot must not hide the request.
			s.log.WithError(decodeErr).WithField("approval_id", req.ID).Warn("stored request payload is not decodable")
		} else {
			view.ParsedRequestData = parsed
		}

		result = append(result, view)
	}

	return result, nil
}

func (s *approvalService) GetApprovalAnalytics(ctx context.Context, tenantID uuid.UUID, filter repository.ApprovalFilter) (ApprovalAnalytics, error) {
	requests, err := s.approvalRepo.ListForAnalytics(ctx, tenantID, filter)
	if err != nil {
		return ApprovalAnalytics{}, err
	}
	return BuildApprovalAnalytics(requests), nil
}

func (s *approvalService) ListApprovalRequests(ctx context.Context, tenantID uuid.UUID, status model.ApprovalStatus, page, limit int) ([]model.ApprovalRequest, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.approvalRepo.List(ctx, tenantID, status, page, limit)
}

// logTransition writes the audit row for a state transition inside the
// current transaction. Failures surface with their own kind so "processed
// but not audited" is distinguishable from a business failure.
func (s *approvalService) logTransition(ctx context.Context, approval *model.ApprovalRequest, userID *uuid.UUID, action, oldValues, newValues string) error {
	entry := model.AuditLog{
		TenantID:   approval.TenantID,
		UserID:     userID,
		Action:     action,
		EntityID:   approval.ID.String(),
		EntityName: approval.Title,
		OldValues:  oldValues,
		NewValues:  newValues,
	}
	if err := s.auditRepo.Log(ctx, &entry); err != nil {
		return apperror.Wrap(apperror.KindAudit, err, "audit log write failed")
	}
	return nil
}

func statusJSON(status model.ApprovalStatus, reason string) string {
	payload := map[string]string{"status": status.String()}
	if reason != "" {
		payload["reason"] = reason
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

// wrapTxFailure tags store-level aborts as transaction failures while
// letting already-kinded errors pass through untouched.
func wrapTxFailure(err error, msg string) error {
	if err == nil {
		return nil
	}
	if apperror.KindOf(err) != apperror.KindUnknown {
		return err
	}
	return apperror.Wrap(apperror.KindTransaction, err, msg)
}
