package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer holds directory data the core reads: the per-customer return window
// in days. Spendable balance is derived from credit notes, not stored here.
type Customer struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Email         string         `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Phone         string         `gorm:"type:varchar(20)" json:"phone"`
	MaxReturnDays int            `gorm:"type:int;default:30;not null" json:"max_return_days"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
