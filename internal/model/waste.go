package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Waste categories
const (
	WasteCategorySpoilage    = "SPOILAGE"
	WasteCategoryPreparation = "PREPARATION"
	WasteCategoryPlate       = "PLATE"
	WasteCategoryExpired     = "EXPIRED"
	WasteCategoryOther       = "OTHER"
)

// WasteEntry records discarded stock at a branch. Cost is derived from the
// FIFO batches the quantity would consume. High-value entries stay PENDING
// behind an approval request.
type WasteEntry struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	BranchID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"branch_id"`
	Branch     *Branch         `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	ItemID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	Item       *InventoryItem  `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Quantity   decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"quantity"`
	Cost       decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"cost"`
	Category   string          `gorm:"type:varchar(30);not null;index" json:"category"`
	Note       string          `gorm:"type:text" json:"note"`
	Status     ApprovalStatus  `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ApprovalID *uuid.UUID      `gorm:"type:uuid;index" json:"approval_id"`
	LoggedBy   uuid.UUID       `gorm:"type:uuid;not null" json:"logged_by"`
	LoggedAt   time.Time       `gorm:"not null;index" json:"logged_at"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (w *WasteEntry) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.LoggedAt.IsZero() {
		w.LoggedAt = time.Now().UTC()
	}
	return nil
}
