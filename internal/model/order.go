package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order status constants
const (
	OrderStatusPending   = "PENDING"
	OrderStatusActive    = "ACTIVE"
	OrderStatusFulfilled = "FULFILLED"
	OrderStatusFinalized = "FINALIZED"
	OrderStatusCancelled = "CANCELLED"
)

// Order is a customer purchase request. Splitting produces at most one level:
// an order with a parent can never itself be split again, so
// AllowsPartialFulfillment is true only for parentless orders that are still
// pending or active.
type Order struct {
	ID                       uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID               uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer                 *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	StoreID                  uuid.UUID       `gorm:"type:uuid;not null;index" json:"store_id"`
	Store                    *Store          `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	Status                   string          `gorm:"type:varchar(20);default:'PENDING';not null;index" json:"status"`
	TotalDue                 decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_due"`
	CompletionPercent        decimal.Decimal `gorm:"type:decimal(5,2);default:0;not null" json:"completion_percent"`
	ParentOrderID            *uuid.UUID      `gorm:"type:uuid;index" json:"parent_order_id"`
	TicketNumber             *string         `gorm:"type:varchar(64);uniqueIndex" json:"ticket_number"`
	AllowsPartialFulfillment bool            `gorm:"default:false" json:"allows_partial_fulfillment"`
	Lines                    []OrderLine     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines"`
	OrderedAt                time.Time       `gorm:"not null" json:"ordered_at"`
	FinalizedAt              *time.Time      `json:"finalized_at"`
	CreatedBy                *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`
}

// OrderLine is one product position of an order. QuantityDelivered never
// exceeds Quantity.
type OrderLine struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product           *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity          int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	LineTotal         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
	QuantityDelivered int             `gorm:"type:int;default:0;not null" json:"quantity_delivered"`
}

// DeliveryEvent records one partial-delivery event with its unique ticket.
// ChildOrderID points at the follow-on order holding the undelivered
// remainder, when one was created.
type DeliveryEvent struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ChildOrderID    *uuid.UUID      `gorm:"type:uuid;index" json:"child_order_id"`
	TicketNumber    string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"ticket_number"`
	AmountDelivered decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_delivered"`
	CreatedBy       *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Sale is the financial record produced when a fully delivered order is
// finalized. One per order.
type Sale struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"order_id"`
	CustomerID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	StoreID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"store_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	FinalizedBy *uuid.UUID      `gorm:"type:uuid" json:"finalized_by"`
	CreatedAt   time.Time       `json:"created_at"`
}
