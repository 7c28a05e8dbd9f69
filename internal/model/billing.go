package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceType enum constants for invoice line items
const (
	ServiceConsultation = "consultation"
	ServiceExamination  = "examination"
	ServiceVaccination  = "vaccination"
	ServiceSurgery      = "surgery"
	ServiceMedication   = "medication"
	ServiceLaboratory   = "laboratory"
	ServiceImaging      = "imaging"
	ServiceDental       = "dental"
	ServiceGrooming     = "grooming"
	ServiceBoarding     = "boarding"
	ServiceOther        = "other"
)

// PaymentMethod enum constants
const (
	PaymentCash         = "cash"
	PaymentCreditCard   = "credit_card"
	PaymentDebitCard    = "debit_card"
	PaymentBankTransfer = "bank_transfer"
	PaymentCheck        = "check"
	PaymentInsurance    = "insurance"
	PaymentOther        = "other"
)

// Derived invoice status values. The status is never stored; it is
// recomputed from balance_due and due_date on every read.
const (
	InvoicePaid    = "paid"
	InvoiceOverdue = "overdue"
	InvoicePending = "pending"
)

// Invoice is a bill issued to a pet owner. Monetary fields are persisted
// exactly as computed by the ledger; subtotal, tax_amount, total_amount and
// balance_due are derived values written verbatim, never recomputed by SQL.
type Invoice struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNo      string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"`
	OwnerID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner          *Owner          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	PetID          *uuid.UUID      `gorm:"type:uuid;index" json:"pet_id"` // Nullable: retail-only invoices have no patient
	Pet            *Pet            `gorm:"foreignKey:PetID" json:"pet,omitempty"`
	Items          []InvoiceItem   `gorm:"foreignKey:InvoiceID" json:"items"`
	TaxRatePercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate_percent"` // [0,100]
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount_amount"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"paid_amount"`
	BalanceDue     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"balance_due"`
	DueDate        time.Time       `gorm:"type:date;not null;index" json:"due_date"`
	IssuedBy       *uuid.UUID      `gorm:"type:uuid" json:"issued_by"`
	Issuer         *User           `gorm:"foreignKey:IssuedBy" json:"issuer,omitempty"`
	Note           string          `gorm:"type:text" json:"note"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// InvoiceItem is one billable entry on an invoice. Position preserves the
// order the items were entered in.
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Position    int             `gorm:"type:int;not null" json:"position"`
	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	ServiceType string          `gorm:"type:varchar(20);not null" json:"service_type"`
	Quantity    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"quantity"` // >= 0.01
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
}

// Payment is an immutable record of money received against an invoice.
// Deleting a payment reverses its effect on the parent invoice's balance.
type Payment struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"` // > 0
	Method      string          `gorm:"type:varchar(20);not null" json:"method"`
	PaidAt      time.Time       `gorm:"not null" json:"paid_at"`
	ReferenceNo string          `gorm:"type:varchar(100)" json:"reference_no"`
	RecordedBy  *uuid.UUID      `gorm:"type:uuid" json:"recorded_by"`
	CreatedAt   time.Time       `json:"created_at"`
}
