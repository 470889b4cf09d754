package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateRequest       = "CREATE_REQUEST"
	ActionApproveRequest      = "APPROVE_REQUEST"
	ActionRejectRequest       = "REJECT_REQUEST"
	ActionCreateQuotation     = "CREATE_QUOTATION"
	ActionUpdateQuotation     = "UPDATE_QUOTATION"
	ActionDeleteQuotation     = "DELETE_QUOTATION"
	ActionSelectQuotation     = "SELECT_FINAL_QUOTATION"
	ActionCreatePurchaseOrder = "CREATE_PURCHASE_ORDER"
	ActionSendPurchaseOrder   = "SEND_PURCHASE_ORDER"
	ActionConfirmReceived     = "CONFIRM_RECEIVED"
	ActionRegisterAssets      = "REGISTER_ASSETS"
	ActionCreateCategory      = "CREATE_CATEGORY"
	ActionUpdateCategory      = "UPDATE_CATEGORY"
	ActionDeleteCategory      = "DELETE_CATEGORY"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
