package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Supplier limits the return window for the products it supplies.
// A nil MaxReturnDays means the supplier imposes no limit of its own.
type Supplier struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	ContactEmail  string         `gorm:"type:varchar(255)" json:"contact_email"`
	MaxReturnDays *int           `gorm:"type:int" json:"max_return_days"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
