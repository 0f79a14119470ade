package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prontto/backend/internal/model"
	"github.com/prontto/backend/internal/repository"
	"github.com/prontto/backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type FileReturnRequest struct {
	OrderLineID string `json:"order_line_id" binding:"omitempty,uuid"`
	CustomerID  string `json:"customer_id" binding:"omitempty,uuid"` // required when no order line is referenced
	ProductID   string `json:"product_id" binding:"omitempty,uuid"`  // required when no order line is referenced
	StoreID     string `json:"store_id" binding:"required,uuid"`
	Kind        string `json:"kind" binding:"required,oneof=DEFECT EXCHANGE"`
	Quantity    int    `json:"quantity" binding:"required,gt=0"`
	Motive      string `json:"motive" binding:"required"`
}

// ReturnService runs the return state machine. Filing checks the return
// window against the order date; defect returns wait for supplier
// confirmation before approval and generate credit on completion, while
// exchange returns restock the store and generate none.
type ReturnService interface {
	File(ctx context.Context, userID string, req FileReturnRequest) (*model.Return, error)
	ConfirmSupplier(ctx context.Context, userID string, returnID uuid.UUID) (*model.Return, error)
	Approve(ctx context.Context, userID string, returnID uuid.UUID) (*model.Return, error)
	Reject(ctx context.Context, userID string, returnID uuid.UUID) (*model.Return, error)
	Complete(ctx context.Context, userID string, returnID uuid.UUID) (*model.Return, error)
	Get(ctx context.Context, returnID uuid.UUID) (*model.Return, error)
	List(ctx context.Context, customerID *uuid.UUID, status string, page, limit int) ([]model.Return, int64, error)
}

type returnService struct {
	returnRepo     repository.ReturnRepository
	orderRepo      repository.OrderRepository
	productRepo    repository.ProductRepository
	customerRepo   repository.CustomerRepository
	supplierRepo   repository.SupplierRepository
	creditNoteRepo repository.CreditNoteRepository
	auditRepo      repository.AuditRepository
	stock          StockService
	txManager      repository.TransactionManager
}

func NewReturnService(
	returnRepo repository.ReturnRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	supplierRepo repository.SupplierRepository,
	creditNoteRepo repository.CreditNoteRepository,
	auditRepo repository.AuditRepository,
	stock StockService,
	txManager repository.TransactionManager,
) ReturnService {
	return &returnService{
		returnRepo:     returnRepo,
		orderRepo:      orderRepo,
		productRepo:    productRepo,
		customerRepo:   customerRepo,
		supplierRepo:   supplierRepo,
		creditNoteRepo: creditNoteRepo,
		auditRepo:      auditRepo,
		stock:          stock,
		txManager:      txManager,
	}
}

// File validates a return request and records it as pending. When an order
// line is referenced, the quantity is capped at what was delivered and the
// return window is checked: the tightest of the customer's and the supplier's
// allowances, counted from the order date. A return filed without a line
// (walk-in, no purchase record) skips both checks.
func (s *returnService) File(ctx context.Context, userID string, req FileReturnRequest) (*model.Return, error) {
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("invalid store id: %w", err)
	}

	var (
		orderLineID *uuid.UUID
		order       *model.Order
		customerID  uuid.UUID
		productID   uuid.UUID
	)
	if req.OrderLineID != "" {
		lineID, parseErr := uuid.Parse(req.OrderLineID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid order line id: %w", parseErr)
		}

		line, lineErr := s.orderRepo.FindLineByID(ctx, lineID)
		if lineErr != nil {
			if errors.Is(lineErr, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrNotFound
			}
			return nil, fmt.Errorf("failed to load order line: %w", lineErr)
		}
		order, err = s.orderRepo.FindByID(ctx, line.OrderID)
		if err != nil {
			return nil, fmt.Errorf("failed to load order: %w", err)
		}

		if req.Quantity > line.QuantityDelivered {
			return nil, apperrors.ErrInvalidQuantity
		}

		orderLineID = &line.ID
		customerID = order.CustomerID
		productID = line.ProductID
	} else {
		if req.CustomerID == "" || req.ProductID == "" {
			return nil, apperrors.New("INVALID_INPUT", "customer_id and product_id are required when no order line is referenced")
		}
		customerID, err = uuid.Parse(req.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("invalid customer id: %w", err)
		}
		productID, err = uuid.Parse(req.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product id: %w", err)
		}
		if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrNotFound
			}
			return nil, fmt.Errorf("failed to load customer: %w", err)
		}
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !product.Returnable {
		return nil, apperrors.New("NOT_RETURNABLE", "product is not returnable")
	}

	if order != nil {
		customer, custErr := s.customerRepo.FindByID(ctx, customerID)
		if custErr != nil {
			return nil, fmt.Errorf("failed to load customer: %w", custErr)
		}

		windowDays := customer.MaxReturnDays
		if product.SupplierID != nil {
			supplier, suppErr := s.supplierRepo.FindByID(ctx, *product.SupplierID)
			if suppErr != nil {
				return nil, fmt.Errorf("failed to load supplier: %w", suppErr)
			}
			if supplier.MaxReturnDays != nil && *supplier.MaxReturnDays < windowDays {
				windowDays = *supplier.MaxReturnDays
			}
		}
		if time.Since(order.OrderedAt) > time.Duration(windowDays)*24*time.Hour {
			return nil, apperrors.ErrReturnWindowExpired
		}
	}

	ret := &model.Return{
		OrderLineID:                  orderLineID,
		CustomerID:                   customerID,
		ProductID:                    productID,
		StoreID:                      storeID,
		Kind:                         req.Kind,
		Quantity:                     req.Quantity,
		Motive:                       req.Motive,
		Status:                       model.ReturnStatusPending,
		RequiresSupplierConfirmation: req.Kind == model.ReturnKindDefect,
		RestoresInventory:            req.Kind == model.ReturnKindExchange,
		CreatedBy:                    userIDPtr(userID),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.returnRepo.Create(txCtx, ret); err != nil {
			return fmt.Errorf("failed to create return: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:   userIDPtr(userID),
			Action:   model.ActionFileReturn,
			EntityID: ret.ID.String(),
			Details:  string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ret, nil
}

func (s *returnService) ConfirmSupplier(ctx context.Context, userID string, returnID uuid.UUID) (*model.Return, error) {
	var ret *model.Return

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		ret, err = s.returnRepo.FindByIDForUpdate(txCtx, returnID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to load return: %w", err)
		}
		if ret.Status != model.ReturnStatusPending || !ret.RequiresSupplierConfirmation {
			return apperrors.ErrInvalidStateTransition
		}

		ret.SupplierConfirmed = true
		if err := s.returnRepo.Save(txCtx, ret); err != nil {
			return fmt.Errorf("failed to update return: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ret, nil
}

func (s *returnService) Approve(ctx context.Context, userID string, returnID uuid.UUID) (*model.Return, error) {
	var ret *model.Return

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		ret, err = s.returnRepo.FindByIDForUpdate(txCtx, returnID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to load return: %w", err)
		}
		if ret.Status != model.ReturnStatusPending {
			return apperrors.ErrInvalidStateTransition
		}
		if ret.RequiresSupplierConfirmation && !ret.SupplierConfirmed {
			return apperrors.ErrPendingSupplierConfirmation
		}

		ret.Status = model.ReturnStatusApproved
		if err := s.returnRepo.Save(txCtx, ret); err != nil {
			return fmt.Errorf("failed to update return: %w", err)
		}

		audit := &model.AuditLog{
			UserID:   userIDPtr(userID),
			Action:   model.ActionApproveReturn,
			EntityID: ret.ID.String(),
			Details:  fmt.Sprintf(`{"kind": %q}`, ret.Kind),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ret, nil
}

func (s *returnService) Reject(ctx context.Context, userID string, returnID uuid.UUID) (*model.Return, error) {
	var ret *model.Return

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		ret, err = s.returnRepo.FindByIDForUpdate(txCtx, returnID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to load return: %w", err)
		}
		if ret.Status != model.ReturnStatusPending {
			return apperrors.ErrInvalidStateTransition
		}

		ret.Status = model.ReturnStatusRejected
		if err := s.returnRepo.Save(txCtx, ret); err != nil {
			return fmt.Errorf("failed to update return: %w", err)
		}

		audit := &model.AuditLog{
			UserID:   userIDPtr(userID),
			Action:   model.ActionRejectReturn,
			EntityID: ret.ID.String(),
			Details:  fmt.Sprintf(`{"kind": %q}`, ret.Kind),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ret, nil
}

// Complete executes an approved return: exchange returns put the units back
// on the shelf, defect returns issue a credit note for the value returned.
// The locked pending-to-completed transition makes the effect run at most
// once even under concurrent calls.
func (s *returnService) Complete(ctx context.Context, userID string, returnID uuid.UUID) (*model.Return, error) {
	var ret *model.Return

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		ret, err = s.returnRepo.FindByIDForUpdate(txCtx, returnID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to load return: %w", err)
		}
		if ret.Status != model.ReturnStatusApproved {
			return apperrors.ErrInvalidStateTransition
		}

		if ret.RestoresInventory {
			if _, err := s.stock.Adjust(txCtx, ret.StoreID, ret.ProductID, ret.Quantity, model.MovementRefReturn, &ret.ID); err != nil {
				return err
			}
		}

		if ret.Kind == model.ReturnKindDefect {
			unitPrice, originOrderID, priceErr := s.returnPricing(txCtx, ret)
			if priceErr != nil {
				return priceErr
			}
			amount := unitPrice.Mul(decimal.NewFromInt(int64(ret.Quantity)))
			if amount.IsPositive() {
				now := time.Now()
				note := &model.CreditNote{
					CustomerID:    ret.CustomerID,
					Kind:          model.CreditNoteKindCredit,
					Status:        model.CreditNoteStatusActive,
					Amount:        amount,
					Motive:        fmt.Sprintf("defect return %s", ret.ID),
					IssuedAt:      now,
					ExpiresAt:     now.AddDate(0, 0, model.CreditNoteValidityDays),
					OriginOrderID: originOrderID,
					CreatedBy:     userIDPtr(userID),
				}
				if err := s.creditNoteRepo.Create(txCtx, note); err != nil {
					return fmt.Errorf("failed to create credit note: %w", err)
				}
				ret.CreditGenerated = amount
			}
		}

		now := time.Now()
		ret.Status = model.ReturnStatusCompleted
		ret.CompletedAt = &now
		if err := s.returnRepo.Save(txCtx, ret); err != nil {
			return fmt.Errorf("failed to update return: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"kind":             ret.Kind,
			"restocked":        ret.RestoresInventory,
			"credit_generated": ret.CreditGenerated,
		})
		audit := &model.AuditLog{
			UserID:   userIDPtr(userID),
			Action:   model.ActionCompleteReturn,
			EntityID: ret.ID.String(),
			Details:  string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ret, nil
}

func (s *returnService) Get(ctx context.Context, returnID uuid.UUID) (*model.Return, error) {
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load return: %w", err)
	}
	return ret, nil
}

func (s *returnService) List(ctx context.Context, customerID *uuid.UUID, status string, page, limit int) ([]model.Return, int64, error) {
	return s.returnRepo.List(ctx, customerID, status, page, limit)
}

// returnPricing prefers the price the customer actually paid on the order
// line and ties the credit back to that order; the catalog price with no
// origin order is the fallback for returns filed without a line.
func (s *returnService) returnPricing(ctx context.Context, ret *model.Return) (decimal.Decimal, *uuid.UUID, error) {
	if ret.OrderLineID != nil {
		line, err := s.orderRepo.FindLineByID(ctx, *ret.OrderLineID)
		if err == nil {
			orderID := line.OrderID
			return line.UnitPrice, &orderID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil, fmt.Errorf("failed to load order line: %w", err)
		}
	}
	product, err := s.productRepo.FindByID(ctx, ret.ProductID)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product.Price, nil, nil
}
