package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditNote kind constants
const (
	CreditNoteKindCredit = "CREDIT"
	CreditNoteKindDebit  = "DEBIT"
)

// CreditNote status constants
const (
	CreditNoteStatusActive  = "ACTIVE"
	CreditNoteStatusApplied = "APPLIED"
	CreditNoteStatusExpired = "EXPIRED"
)

// CreditNoteValidityDays is how long an issued note stays spendable.
const CreditNoteValidityDays = 60

// CreditNote is a ledger entry for money owed to (credit) or by (debit) a
// customer. Amount never grows after creation: a partial consumption reduces
// the original to the consumed portion, flips it to APPLIED, and issues a new
// active note for the untouched remainder with the same expiry.
type CreditNote struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer         *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Kind             string          `gorm:"type:varchar(10);not null" json:"kind"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status           string          `gorm:"type:varchar(10);default:'ACTIVE';not null;index" json:"status"`
	Motive           string          `gorm:"type:text" json:"motive"`
	IssuedAt         time.Time       `gorm:"not null" json:"issued_at"`
	ExpiresAt        time.Time       `gorm:"not null;index" json:"expires_at"`
	OriginOrderID    *uuid.UUID      `gorm:"type:uuid;index" json:"origin_order_id"`
	AppliedToOrderID *uuid.UUID      `gorm:"type:uuid;index" json:"applied_to_order_id"`
	AppliedAt        *time.Time      `json:"applied_at"`
	CreatedBy        *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
