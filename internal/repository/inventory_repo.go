package repository

import (
	"context"
	"errors"

	"github.com/prontto/backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository interface {
	Find(ctx context.Context, storeID, productID uuid.UUID) (*model.InventoryRecord, error)
	// FindForUpdate locks the (store, product) row exclusively for the
	// enclosing transaction, creating it at quantity 0 when absent.
	FindForUpdate(ctx context.Context, storeID, productID uuid.UUID) (*model.InventoryRecord, error)
	Save(ctx context.Context, record *model.InventoryRecord) error
	List(ctx context.Context, storeID *uuid.UUID, page, limit int) ([]model.InventoryRecord, int64, error)
	CreateMovement(ctx context.Context, movement *model.StockMovement) error
	ListMovements(ctx context.Context, storeID, productID *uuid.UUID, page, limit int) ([]model.StockMovement, int64, error)
}

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) Find(ctx context.Context, storeID, productID uuid.UUID) (*model.InventoryRecord, error) {
	var record model.InventoryRecord
	if err := GetDB(ctx, r.db).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *inventoryRepository) FindForUpdate(ctx context.Context, storeID, productID uuid.UUID) (*model.InventoryRecord, error) {
	db := GetDB(ctx, r.db)

	var record model.InventoryRecord
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		First(&record).Error
	if err == nil {
		return &record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// First registration for this pair: insert at zero, then take the lock.
	// A concurrent insert loses on the unique index and falls through to the
	// locked read of the winner's row.
	record = model.InventoryRecord{StoreID: storeID, ProductID: productID, Quantity: 0}
	if createErr := db.Create(&record).Error; createErr != nil && !errors.Is(createErr, gorm.ErrDuplicatedKey) {
		return nil, createErr
	}

	var locked model.InventoryRecord
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		First(&locked).Error; err != nil {
		return nil, err
	}
	return &locked, nil
}

func (r *inventoryRepository) Save(ctx context.Context, record *model.InventoryRecord) error {
	return GetDB(ctx, r.db).Save(record).Error
}

func (r *inventoryRepository) List(ctx context.Context, storeID *uuid.UUID, page, limit int) ([]model.InventoryRecord, int64, error) {
	var records []model.InventoryRecord
	var total int64

	db := GetDB(ctx, r.db).Model(&model.InventoryRecord{})
	if storeID != nil {
		db = db.Where("store_id = ?", *storeID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Store").Preload("Product").
		Order("updated_at desc").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *inventoryRepository) CreateMovement(ctx context.Context, movement *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *inventoryRepository) ListMovements(ctx context.Context, storeID, productID *uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	var movements []model.StockMovement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockMovement{})
	if storeID != nil {
		db = db.Where("store_id = ?", *storeID)
	}
	if productID != nil {
		db = db.Where("product_id = ?", *productID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&movements).Error; err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}
