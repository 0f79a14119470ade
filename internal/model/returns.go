package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Return kind constants
const (
	ReturnKindDefect   = "DEFECT"
	ReturnKindExchange = "EXCHANGE"
)

// Return status constants
const (
	ReturnStatusPending   = "PENDING"
	ReturnStatusApproved  = "APPROVED"
	ReturnStatusRejected  = "REJECTED"
	ReturnStatusCompleted = "COMPLETED"
)

// Return is a customer request to send back a purchased product. Only
// exchange returns restock the store (defective units are scrapped); only
// defect returns generate credit and need supplier confirmation before
// approval.
type Return struct {
	ID                           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderLineID                  *uuid.UUID      `gorm:"type:uuid;index" json:"order_line_id"`
	CustomerID                   uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer                     *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	ProductID                    uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product                      *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	StoreID                      uuid.UUID       `gorm:"type:uuid;not null;index" json:"store_id"`
	Kind                         string          `gorm:"type:varchar(10);not null" json:"kind"`
	Quantity                     int             `gorm:"type:int;not null" json:"quantity"`
	Motive                       string          `gorm:"type:text" json:"motive"`
	Status                       string          `gorm:"type:varchar(10);default:'PENDING';not null;index" json:"status"`
	RequiresSupplierConfirmation bool            `gorm:"default:false" json:"requires_supplier_confirmation"`
	SupplierConfirmed            bool            `gorm:"default:false" json:"supplier_confirmed"`
	RestoresInventory            bool            `gorm:"default:false" json:"restores_inventory"`
	CreditGenerated              decimal.Decimal `gorm:"type:decimal(12,2);default:0;not null" json:"credit_generated"`
	CompletedAt                  *time.Time      `json:"completed_at"`
	CreatedBy                    *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt                    time.Time       `json:"created_at"`
	UpdatedAt                    time.Time       `json:"updated_at"`
}
