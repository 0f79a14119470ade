package repository

import (
	"context"
	"time"

	"github.com/prontto/backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreditNoteRepository interface {
	Create(ctx context.Context, note *model.CreditNote) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CreditNote, error)
	FindActiveByCustomer(ctx context.Context, customerID uuid.UUID, asOf time.Time) ([]model.CreditNote, error)
	// FindActiveCreditForUpdate returns the customer's unexpired active
	// credit-kind notes locked FOR UPDATE, ordered oldest expiry first. The
	// ordering is the FIFO consumption order, not just a lock discipline.
	FindActiveCreditForUpdate(ctx context.Context, customerID uuid.UUID, asOf time.Time) ([]model.CreditNote, error)
	Save(ctx context.Context, note *model.CreditNote) error
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
	List(ctx context.Context, customerID *uuid.UUID, status string, page, limit int) ([]model.CreditNote, int64, error)
}

type creditNoteRepository struct {
	db *gorm.DB
}

func NewCreditNoteRepository(db *gorm.DB) CreditNoteRepository {
	return &creditNoteRepository{db: db}
}

func (r *creditNoteRepository) Create(ctx context.Context, note *model.CreditNote) error {
	return GetDB(ctx, r.db).Create(note).Error
}

func (r *creditNoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CreditNote, error) {
	var note model.CreditNote
	if err := GetDB(ctx, r.db).First(&note, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *creditNoteRepository) FindActiveByCustomer(ctx context.Context, customerID uuid.UUID, asOf time.Time) ([]model.CreditNote, error) {
	var notes []model.CreditNote
	if err := GetDB(ctx, r.db).
		Where("customer_id = ? AND status = ? AND expires_at > ?", customerID, model.CreditNoteStatusActive, asOf).
		Order("expires_at asc").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *creditNoteRepository) FindActiveCreditForUpdate(ctx context.Context, customerID uuid.UUID, asOf time.Time) ([]model.CreditNote, error) {
	var notes []model.CreditNote
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("customer_id = ? AND kind = ? AND status = ? AND expires_at > ?",
			customerID, model.CreditNoteKindCredit, model.CreditNoteStatusActive, asOf).
		Order("expires_at asc").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *creditNoteRepository) Save(ctx context.Context, note *model.CreditNote) error {
	return GetDB(ctx, r.db).Omit("Customer").Save(note).Error
}

func (r *creditNoteRepository) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	result := GetDB(ctx, r.db).Model(&model.CreditNote{}).
		Where("status = ? AND expires_at < ?", model.CreditNoteStatusActive, now).
		Update("status", model.CreditNoteStatusExpired)
	return result.RowsAffected, result.Error
}

func (r *creditNoteRepository) List(ctx context.Context, customerID *uuid.UUID, status string, page, limit int) ([]model.CreditNote, int64, error) {
	var notes []model.CreditNote
	var total int64

	db := GetDB(ctx, r.db).Model(&model.CreditNote{})
	if customerID != nil {
		db = db.Where("customer_id = ?", *customerID)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&notes).Error; err != nil {
		return nil, 0, err
	}

	return notes, total, nil
}
