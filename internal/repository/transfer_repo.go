package repository

import (
	"context"

	"github.com/prontto/backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransferRepository interface {
	Create(ctx context.Context, transfer *model.Transfer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transfer, error)
	// FindByIDForUpdate locks the transfer row so two operators cannot
	// complete or cancel the same transfer concurrently.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transfer, error)
	Save(ctx context.Context, transfer *model.Transfer) error
	List(ctx context.Context, status string, page, limit int) ([]model.Transfer, int64, error)
}

type transferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) Create(ctx context.Context, transfer *model.Transfer) error {
	return GetDB(ctx, r.db).Create(transfer).Error
}

func (r *transferRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Transfer, error) {
	var transfer model.Transfer
	if err := GetDB(ctx, r.db).
		Preload("Lines").Preload("Lines.Product").
		Preload("SourceStore").Preload("DestStore").
		First(&transfer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *transferRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transfer, error) {
	var transfer model.Transfer
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&transfer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).
		Where("transfer_id = ?", id).Order("product_id asc").
		Find(&transfer.Lines).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *transferRepository) Save(ctx context.Context, transfer *model.Transfer) error {
	return GetDB(ctx, r.db).Omit("Lines").Save(transfer).Error
}

func (r *transferRepository) List(ctx context.Context, status string, page, limit int) ([]model.Transfer, int64, error) {
	var transfers []model.Transfer
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Transfer{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Lines").Preload("SourceStore").Preload("DestStore").
		Order("created_at desc").Offset(offset).Limit(limit).Find(&transfers).Error; err != nil {
		return nil, 0, err
	}

	return transfers, total, nil
}
