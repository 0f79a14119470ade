package repository

import (
	"context"

	"github.com/prontto/backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// FindByIDForUpdate locks the order row for the enclosing transaction so
	// concurrent deliveries, credit applications and finalizations serialize.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindLineByID(ctx context.Context, id uuid.UUID) (*model.OrderLine, error)
	Save(ctx context.Context, order *model.Order) error
	SaveLine(ctx context.Context, line *model.OrderLine) error
	CreateDeliveryEvent(ctx context.Context, event *model.DeliveryEvent) error
	CreateSale(ctx context.Context, sale *model.Sale) error
	FindSaleByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, customerID *uuid.UUID, status string, page, limit int) ([]model.Order, int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Lines").Preload("Lines.Product").Preload("Customer").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).
		Where("order_id = ?", id).Order("product_id asc").
		Find(&order.Lines).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindLineByID(ctx context.Context, id uuid.UUID) (*model.OrderLine, error) {
	var line model.OrderLine
	if err := GetDB(ctx, r.db).First(&line, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *orderRepository) Save(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Omit("Lines", "Customer", "Store").Save(order).Error
}

func (r *orderRepository) SaveLine(ctx context.Context, line *model.OrderLine) error {
	return GetDB(ctx, r.db).Omit("Product").Save(line).Error
}

func (r *orderRepository) CreateDeliveryEvent(ctx context.Context, event *model.DeliveryEvent) error {
	return GetDB(ctx, r.db).Create(event).Error
}

func (r *orderRepository) CreateSale(ctx context.Context, sale *model.Sale) error {
	return GetDB(ctx, r.db).Create(sale).Error
}

func (r *orderRepository) FindSaleByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := GetDB(ctx, r.db).First(&sale, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *orderRepository) List(ctx context.Context, customerID *uuid.UUID, status string, page, limit int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Order{})
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
	if err := db.Preload("Lines").Preload("Customer").
		Order("created_at desc").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
