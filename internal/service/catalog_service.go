package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prontto/backend/internal/model"
	"github.com/prontto/backend/internal/repository"
	"github.com/prontto/backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type CreateProductRequest struct {
	Code       string  `json:"code" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Price      string  `json:"price" binding:"required"`
	Returnable *bool   `json:"returnable"`
	SupplierID *string `json:"supplier_id" binding:"omitempty,uuid"`
}

type UpdateProductRequest struct {
	Name       string  `json:"name"`
	Price      *string `json:"price"`
	Returnable *bool   `json:"returnable"`
	SupplierID *string `json:"supplier_id" binding:"omitempty,uuid"`
}

type CreateStoreRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

// CatalogService manages products and stores, the two reference entities
// everything else points at.
type CatalogService interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetProductByCode(ctx context.Context, code string) (*model.Product, error)
	ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)

	CreateStore(ctx context.Context, req CreateStoreRequest) (*model.Store, error)
	GetStore(ctx context.Context, id uuid.UUID) (*model.Store, error)
	ListStores(ctx context.Context, page, limit int) ([]model.Store, int64, error)
}

type catalogService struct {
	productRepo  repository.ProductRepository
	storeRepo    repository.StoreRepository
	supplierRepo repository.SupplierRepository
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	storeRepo repository.StoreRepository,
	supplierRepo repository.SupplierRepository,
) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		storeRepo:    storeRepo,
		supplierRepo: supplierRepo,
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*model.Product, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	if price.IsNegative() {
		return nil, apperrors.New("INVALID_INPUT", "price must not be negative")
	}

	product := &model.Product{
		Code:       req.Code,
		Name:       req.Name,
		Price:      price,
		Returnable: true,
	}
	if req.Returnable != nil {
		product.Returnable = *req.Returnable
	}
	if req.SupplierID != nil {
		supplierID, parseErr := uuid.Parse(*req.SupplierID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid supplier id: %w", parseErr)
		}
		if _, findErr := s.supplierRepo.FindByID(ctx, supplierID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrNotFound
			}
			return nil, fmt.Errorf("failed to load supplier: %w", findErr)
		}
		product.SupplierID = &supplierID
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.New("INVALID_INPUT", "product code already exists")
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Price != nil {
		price, parseErr := decimal.NewFromString(*req.Price)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid price: %w", parseErr)
		}
		if price.IsNegative() {
			return nil, apperrors.New("INVALID_INPUT", "price must not be negative")
		}
		product.Price = price
	}
	if req.Returnable != nil {
		product.Returnable = *req.Returnable
	}
	if req.SupplierID != nil {
		supplierID, parseErr := uuid.Parse(*req.SupplierID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid supplier id: %w", parseErr)
		}
		product.SupplierID = &supplierID
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}

func (s *catalogService) GetProductByCode(ctx context.Context, code string) (*model.Product, error) {
	product, err := s.productRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	return s.productRepo.List(ctx, page, limit, search)
}

func (s *catalogService) CreateStore(ctx context.Context, req CreateStoreRequest) (*model.Store, error) {
	store := &model.Store{Name: req.Name, Address: req.Address}
	if err := s.storeRepo.Create(ctx, store); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.New("INVALID_INPUT", "store name already exists")
		}
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	return store, nil
}

func (s *catalogService) GetStore(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	store, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	return store, nil
}

func (s *catalogService) ListStores(ctx context.Context, page, limit int) ([]model.Store, int64, error) {
	return s.storeRepo.List(ctx, page, limit)
}
