package model

import (
	"time"

	"github.com/google/uuid"
)

// InventoryRecord is the quantity-on-hand counter for one (store, product)
// pair. All writes go through the stock ledger, which locks the row and
// rejects any decrement that would leave the quantity negative.
type InventoryRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_store_product" json:"store_id"`
	Store     *Store    `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_store_product" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int       `gorm:"type:int;default:0;not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Movement reference types identify which operation produced an adjustment.
const (
	MovementRefTransfer = "TRANSFER"
	MovementRefDelivery = "DELIVERY"
	MovementRefReturn   = "RETURN"
	MovementRefRegister = "REGISTER"
)

// StockMovement records every committed ledger adjustment, with the quantity
// after the change. Rows are written in the same transaction as the
// adjustment itself.
type StockMovement struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"store_id"`
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	RefType         string     `gorm:"type:varchar(20);not null" json:"ref_type"`
	RefID           *uuid.UUID `gorm:"type:uuid;index" json:"ref_id"`
	QuantityChanged int        `gorm:"type:int;not null" json:"quantity_changed"`
	StockAfter      int        `gorm:"type:int;not null" json:"stock_after"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Transfer status constants
const (
	TransferStatusPending   = "PENDING"
	TransferStatusCompleted = "COMPLETED"
	TransferStatusCancelled = "CANCELLED"
)

// Transfer moves stock of one or more products between two stores. Creation
// has no inventory effect; completion applies every line atomically or not at
// all. Completed and cancelled are terminal.
type Transfer struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SourceStoreID uuid.UUID      `gorm:"type:uuid;not null;index" json:"source_store_id"`
	SourceStore   *Store         `gorm:"foreignKey:SourceStoreID" json:"source_store,omitempty"`
	DestStoreID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"dest_store_id"`
	DestStore     *Store         `gorm:"foreignKey:DestStoreID" json:"dest_store,omitempty"`
	Status        string         `gorm:"type:varchar(20);default:'PENDING';not null;index" json:"status"`
	Lines         []TransferLine `gorm:"foreignKey:TransferID;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedBy     *uuid.UUID     `gorm:"type:uuid" json:"created_by"`
	CompletedAt   *time.Time     `json:"completed_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TransferLine is one product/quantity pair within a transfer.
type TransferLine struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TransferID uuid.UUID `gorm:"type:uuid;not null;index" json:"transfer_id"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product    *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity   int       `gorm:"type:int;not null" json:"quantity"`
}
