package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateItem       = "CREATE_ITEM"
	ActionUpdateItem       = "UPDATE_ITEM"
	ActionDeleteItem       = "DELETE_ITEM"
	ActionReceiveBatch     = "RECEIVE_BATCH"
	ActionCreateUser       = "CREATE_USER"
	ActionUpdateUser       = "UPDATE_USER"
	ActionDeleteUser       = "DELETE_USER"
	ActionCreateAdjustment = "CREATE_ADJUSTMENT"
	ActionApplyAdjustment  = "APPLY_ADJUSTMENT"
	ActionCreateWasteEntry = "CREATE_WASTE_ENTRY"

	// Approval workflow actions
	ActionCreateApprovalRequest = "APPROVAL_REQUEST_CREATED"
	ActionApproveRequest        = "APPROVE_REQUEST"
	ActionRejectRequest         = "REJECT_REQUEST"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	OldValues  string     `gorm:"type:jsonb" json:"old_values"`
	NewValues  string     `gorm:"type:jsonb" json:"new_values"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (l *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
