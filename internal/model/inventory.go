package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryItem is a stocked ingredient or product at a branch.
type InventoryItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	BranchID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"branch_id"`
	Branch       *Branch         `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	SKU          string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name"`
	Unit         string          `gorm:"type:varchar(20);not null" json:"unit"` // kg, l, pcs
	CurrentStock decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"current_stock"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"unit_cost"` // latest received cost
	MinStock     decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"min_stock"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// InventoryBatch is a received lot of stock. Batches are consumed oldest
// first so waste and adjustments are costed FIFO.
type InventoryBatch struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	Item       *InventoryItem  `gorm:"foreignKey:ItemID" json:"-"`
	Remaining  decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"remaining"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"unit_cost"`
	ReceivedAt time.Time       `gorm:"not null;index" json:"received_at"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (b *InventoryBatch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.ReceivedAt.IsZero() {
		b.ReceivedAt = time.Now().UTC()
	}
	return nil
}

// InventoryAdjustment is a manual stock correction. Adjustments whose
// estimated value reaches the approval threshold stay PENDING until the
// linked approval request is decided.
type InventoryAdjustment struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ItemID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	Item           *InventoryItem  `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Delta          decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"delta"` // signed quantity change
	Reason         string          `gorm:"type:text;not null" json:"reason"`
	EstimatedValue decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"estimated_value"`
	Status         ApprovalStatus  `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ApprovalID     *uuid.UUID      `gorm:"type:uuid;index" json:"approval_id"`
	RequestedBy    uuid.UUID       `gorm:"type:uuid;not null" json:"requested_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (a *InventoryAdjustment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
