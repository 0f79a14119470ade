package database

import (
	"log"

	"github.com/prontto/backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM.
// TranslateError surfaces unique violations as gorm.ErrDuplicatedKey, which
// the ticket-issuance retry loop depends on.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.Store{},
		&model.Supplier{},
		&model.Customer{},
		&model.Product{},
		&model.InventoryRecord{},
		&model.StockMovement{},
		&model.Transfer{},
		&model.TransferLine{},
		&model.Order{},
		&model.OrderLine{},
		&model.DeliveryEvent{},
		&model.Sale{},
		&model.CreditNote{},
		&model.Return{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
