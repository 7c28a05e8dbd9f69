package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateOwner         = "CREATE_OWNER"
	ActionUpdateOwner         = "UPDATE_OWNER"
	ActionDeleteOwner         = "DELETE_OWNER"
	ActionCreatePet           = "CREATE_PET"
	ActionUpdatePet           = "UPDATE_PET"
	ActionDeletePet           = "DELETE_PET"
	ActionCreateAppointment   = "CREATE_APPOINTMENT"
	ActionRescheduleAppt      = "RESCHEDULE_APPOINTMENT"
	ActionCancelAppointment   = "CANCEL_APPOINTMENT"
	ActionCompleteAppointment = "COMPLETE_APPOINTMENT"
	ActionNoShowAppointment   = "NO_SHOW_APPOINTMENT"
	ActionCreateMedicalRecord = "CREATE_MEDICAL_RECORD"
	ActionCreateInvoice       = "CREATE_INVOICE"
	ActionRecordPayment       = "RECORD_PAYMENT"
	ActionDeletePayment       = "DELETE_PAYMENT"
	ActionCreateItem          = "CREATE_INVENTORY_ITEM"
	ActionUpdateItem          = "UPDATE_INVENTORY_ITEM"
	ActionDeleteItem          = "DELETE_INVENTORY_ITEM"
	ActionStockTransaction    = "STOCK_TRANSACTION"
	ActionCreateInvitation    = "CREATE_INVITATION"
	ActionRevokeInvitation    = "REVOKE_INVITATION"
	ActionAcceptInvitation    = "ACCEPT_INVITATION"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable for unauthenticated flows (invitation accept)
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
