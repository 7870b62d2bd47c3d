package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestType categorizes what an approval request is gating.
type RequestType string

const (
	RequestTypeInventoryAdjustment RequestType = "INVENTORY_ADJUSTMENT"
	RequestTypeWasteWriteOff       RequestType = "WASTE_WRITE_OFF"
)

var validRequestTypes = map[RequestType]bool{
	RequestTypeInventoryAdjustment: true,
	RequestTypeWasteWriteOff:       true,
}

func (t RequestType) IsValid() bool {
	return validRequestTypes[t]
}

func (t RequestType) String() string {
	return string(t)
}

// ApprovalStatus is the request lifecycle state. APPROVED and REJECTED are
// terminal: no further transitions are permitted once either is reached.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

func (s ApprovalStatus) String() string {
	return string(s)
}

// Priority is the caller-supplied ordinal ranking of a request.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// Rank maps priorities onto a sortable ordinal (CRITICAL highest).
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

func (p Priority) String() string {
	return string(p)
}

// Urgency is derived from priority and elapsed wait time on every read.
// It is never persisted.
type Urgency string

const (
	UrgencyLow      Urgency = "LOW"
	UrgencyMedium   Urgency = "MEDIUM"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyCritical Urgency = "CRITICAL"
)

// UUIDList is a jsonb-backed set of user ids.
type UUIDList []uuid.UUID

func (l UUIDList) Contains(id uuid.UUID) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// ApprovalRequest gates one or more inventory/waste mutations behind a
// restaurant-admin decision. The approver set is resolved once at creation
// and never re-evaluated.
type ApprovalRequest struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	RequestType RequestType    `gorm:"type:varchar(30);not null;index" json:"request_type"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	RequestData string         `gorm:"type:jsonb;not null" json:"request_data"` // Snapshot of the gated payload
	RequestedBy uuid.UUID      `gorm:"type:uuid;not null;index" json:"requested_by"`
	Requester   *User          `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	ApproverIDs UUIDList       `gorm:"type:jsonb;serializer:json;not null" json:"approver_ids"`
	Priority    Priority       `gorm:"type:varchar(20);not null;default:'MEDIUM'" json:"priority"`
	Status      ApprovalStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	RequestedAt time.Time      `gorm:"not null;index" json:"requested_at"`
	RespondedAt *time.Time     `json:"responded_at"`
	DueDate     *time.Time     `json:"due_date"`

	// Exactly one of ApprovedBy/RejectedBy is set once the status is terminal.
	ApprovedBy      *uuid.UUID `gorm:"type:uuid" json:"approved_by"`
	Approver        *User      `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	RejectedBy      *uuid.UUID `gorm:"type:uuid" json:"rejected_by"`
	Rejecter        *User      `gorm:"foreignKey:RejectedBy" json:"rejecter,omitempty"`
	ApprovalReason  string     `gorm:"type:text" json:"approval_reason"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`

	// Child rows gated by this request; they transition with the parent.
	Adjustments  []InventoryAdjustment `gorm:"foreignKey:ApprovalID" json:"adjustments,omitempty"`
	WasteEntries []WasteEntry          `gorm:"foreignKey:ApprovalID" json:"waste_entries,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *ApprovalRequest) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.RequestedAt.IsZero() {
		a.RequestedAt = time.Now().UTC()
	}
	return nil
}
