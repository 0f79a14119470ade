package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionRegisterStock    = "REGISTER_STOCK"
	ActionCreateTransfer   = "CREATE_TRANSFER"
	ActionCompleteTransfer = "COMPLETE_TRANSFER"
	ActionCancelTransfer   = "CANCEL_TRANSFER"

	ActionCreateOrder    = "CREATE_ORDER"
	ActionDeliverPartial = "DELIVER_PARTIAL"
	ActionFinalizeOrder  = "FINALIZE_ORDER"
	ActionCancelOrder    = "CANCEL_ORDER"

	ActionIssueCreditNote  = "ISSUE_CREDIT_NOTE"
	ActionApplyCredit      = "APPLY_CREDIT"
	ActionExpireCreditNote = "EXPIRE_CREDIT_NOTE"

	ActionFileReturn     = "FILE_RETURN"
	ActionApproveReturn  = "APPROVE_RETURN"
	ActionRejectReturn   = "REJECT_RETURN"
	ActionCompleteReturn = "COMPLETE_RETURN"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
