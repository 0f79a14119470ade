package repository

import (
	"context"

	"github.com/prontto/backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReturnRepository interface {
	Create(ctx context.Context, ret *model.Return) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Return, error)
	// FindByIDForUpdate locks the return row so state transitions serialize.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Return, error)
	Save(ctx context.Context, ret *model.Return) error
	List(ctx context.Context, customerID *uuid.UUID, status string, page, limit int) ([]model.Return, int64, error)
}

type returnRepository struct {
	db *gorm.DB
}

func NewReturnRepository(db *gorm.DB) ReturnRepository {
	return &returnRepository{db: db}
}

func (r *returnRepository) Create(ctx context.Context, ret *model.Return) error {
	return GetDB(ctx, r.db).Create(ret).Error
}

func (r *returnRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Return, error) {
	var ret model.Return
	if err := GetDB(ctx, r.db).
		Preload("Customer").Preload("Product").
		First(&ret, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *returnRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Return, error) {
	var ret model.Return
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&ret, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *returnRepository) Save(ctx context.Context, ret *model.Return) error {
	return GetDB(ctx, r.db).Omit("Customer", "Product").Save(ret).Error
}

func (r *returnRepository) List(ctx context.Context, customerID *uuid.UUID, status string, page, limit int) ([]model.Return, int64, error) {
	var returns []model.Return
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Return{})
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
	if err := db.Preload("Customer").Preload("Product").
		Order("created_at desc").Offset(offset).Limit(limit).Find(&returns).Error; err != nil {
		return nil, 0, err
	}

	return returns, total, nil
}
