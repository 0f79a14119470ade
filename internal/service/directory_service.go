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
type CreateCustomerRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"omitempty,email"`
	Phone         string `json:"phone"`
	MaxReturnDays *int   `json:"max_return_days" binding:"omitempty,gt=0"`
}

type UpdateCustomerRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email" binding:"omitempty,email"`
	Phone         string `json:"phone"`
	MaxReturnDays *int   `json:"max_return_days" binding:"omitempty,gt=0"`
}

type CreateSupplierRequest struct {
	Name          string `json:"name" binding:"required"`
	ContactEmail  string `json:"contact_email" binding:"omitempty,email"`
	MaxReturnDays *int   `json:"max_return_days" binding:"omitempty,gt=0"`
}

// CustomerDetail is the customer plus the credit balance derived from the
// note ledger.
type CustomerDetail struct {
	Customer model.Customer  `json:"customer"`
	Balance  decimal.Decimal `json:"balance"`
}

// DirectoryService manages customers and suppliers.
type DirectoryService interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*model.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerDetail, error)
	ListCustomers(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error)

	CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*model.Supplier, error)
	GetSupplier(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	ListSuppliers(ctx context.Context, page, limit int) ([]model.Supplier, int64, error)
}

type directoryService struct {
	customerRepo repository.CustomerRepository
	supplierRepo repository.SupplierRepository
	credit       CreditService
}

func NewDirectoryService(
	customerRepo repository.CustomerRepository,
	supplierRepo repository.SupplierRepository,
	credit CreditService,
) DirectoryService {
	return &directoryService{
		customerRepo: customerRepo,
		supplierRepo: supplierRepo,
		credit:       credit,
	}
}

func (s *directoryService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*model.Customer, error) {
	customer := &model.Customer{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		MaxReturnDays: 30,
	}
	if req.MaxReturnDays != nil {
		customer.MaxReturnDays = *req.MaxReturnDays
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.New("INVALID_INPUT", "customer email already exists")
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, nil
}

func (s *directoryService) UpdateCustomer(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*model.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	if req.Name != "" {
		customer.Name = req.Name
	}
	if req.Email != "" {
		customer.Email = req.Email
	}
	if req.Phone != "" {
		customer.Phone = req.Phone
	}
	if req.MaxReturnDays != nil {
		customer.MaxReturnDays = *req.MaxReturnDays
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return customer, nil
}

func (s *directoryService) GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerDetail, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	balance, err := s.credit.Balance(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance: %w", err)
	}

	return &CustomerDetail{Customer: *customer, Balance: balance}, nil
}

func (s *directoryService) ListCustomers(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error) {
	return s.customerRepo.List(ctx, page, limit, search)
}

func (s *directoryService) CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*model.Supplier, error) {
	supplier := &model.Supplier{
		Name:          req.Name,
		ContactEmail:  req.ContactEmail,
		MaxReturnDays: req.MaxReturnDays,
	}
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.New("INVALID_INPUT", "supplier name already exists")
		}
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return supplier, nil
}

func (s *directoryService) GetSupplier(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load supplier: %w", err)
	}
	return supplier, nil
}

func (s *directoryService) ListSuppliers(ctx context.Context, page, limit int) ([]model.Supplier, int64, error) {
	return s.supplierRepo.List(ctx, page, limit)
}
