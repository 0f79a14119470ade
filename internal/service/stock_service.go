package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/prontto/backend/internal/model"
	"github.com/prontto/backend/internal/repository"
	ws "github.com/prontto/backend/internal/websocket"
	"github.com/prontto/backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type RegisterStockRequest struct {
	StoreID   string `json:"store_id" binding:"required,uuid"`
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type InventoryRecordResponse struct {
	StoreID   string `json:"store_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// StockEvent is the websocket payload broadcast after a committed adjustment.
type StockEvent struct {
	Event     string `json:"event"`
	StoreID   string `json:"store_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// StockService is the inventory ledger: the only writer of InventoryRecord
// rows. Adjust must run inside the caller's transaction so that a failure
// anywhere rolls back the stock change together with the caller's own writes.
type StockService interface {
	Get(ctx context.Context, storeID, productID uuid.UUID) (int, error)
	Adjust(txCtx context.Context, storeID, productID uuid.UUID, delta int, refType string, refID *uuid.UUID) (int, error)
	RegisterStock(ctx context.Context, userID string, req RegisterStockRequest) (InventoryRecordResponse, error)
	ListRecords(ctx context.Context, storeID *uuid.UUID, page, limit int) ([]model.InventoryRecord, int64, error)
	ListMovements(ctx context.Context, storeID, productID *uuid.UUID, page, limit int) ([]model.StockMovement, int64, error)
}

type stockService struct {
	inventoryRepo repository.InventoryRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	hub           *ws.Hub
}

func NewStockService(
	inventoryRepo repository.InventoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) StockService {
	return &stockService{
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		hub:           hub,
	}
}

// Get returns the on-hand quantity, 0 when no record exists yet.
func (s *stockService) Get(ctx context.Context, storeID, productID uuid.UUID) (int, error) {
	record, err := s.inventoryRepo.Find(ctx, storeID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read inventory record: %w", err)
	}
	return record.Quantity, nil
}

// Adjust applies delta under a row lock and records the movement. Returns the
// quantity after the change.
func (s *stockService) Adjust(txCtx context.Context, storeID, productID uuid.UUID, delta int, refType string, refID *uuid.UUID) (int, error) {
	record, err := s.inventoryRepo.FindForUpdate(txCtx, storeID, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to lock inventory record: %w", err)
	}

	after := record.Quantity + delta
	if after < 0 {
		return 0, apperrors.ErrInsufficientStock
	}

	record.Quantity = after
	if err := s.inventoryRepo.Save(txCtx, record); err != nil {
		return 0, fmt.Errorf("failed to update inventory record: %w", err)
	}

	movement := &model.StockMovement{
		StoreID:         storeID,
		ProductID:       productID,
		RefType:         refType,
		RefID:           refID,
		QuantityChanged: delta,
		StockAfter:      after,
	}
	if err := s.inventoryRepo.CreateMovement(txCtx, movement); err != nil {
		return 0, fmt.Errorf("failed to record stock movement: %w", err)
	}

	return after, nil
}

func (s *stockService) RegisterStock(ctx context.Context, userID string, req RegisterStockRequest) (InventoryRecordResponse, error) {
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return InventoryRecordResponse{}, fmt.Errorf("invalid store id: %w", err)
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return InventoryRecordResponse{}, fmt.Errorf("invalid product id: %w", err)
	}
	if req.Quantity <= 0 {
		return InventoryRecordResponse{}, apperrors.ErrInvalidQuantity
	}

	var after int
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		after, err = s.Adjust(txCtx, storeID, productID, req.Quantity, model.MovementRefRegister, nil)
		if err != nil {
			return err
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:   userIDPtr(userID),
			Action:   model.ActionRegisterStock,
			EntityID: req.ProductID,
			Details:  string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return InventoryRecordResponse{}, err
	}

	s.broadcastStock(storeID, productID, after)

	return InventoryRecordResponse{
		StoreID:   req.StoreID,
		ProductID: req.ProductID,
		Quantity:  after,
	}, nil
}

func (s *stockService) ListRecords(ctx context.Context, storeID *uuid.UUID, page, limit int) ([]model.InventoryRecord, int64, error) {
	return s.inventoryRepo.List(ctx, storeID, page, limit)
}

func (s *stockService) ListMovements(ctx context.Context, storeID, productID *uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	return s.inventoryRepo.ListMovements(ctx, storeID, productID, page, limit)
}

// broadcastStock notifies websocket clients of a committed stock change. Only
// ever called after the enclosing transaction committed.
func (s *stockService) broadcastStock(storeID, productID uuid.UUID, quantity int) {
	if s.hub == nil {
		return
	}
	payload, _ := json.Marshal(StockEvent{
		Event:     "stock.changed",
		StoreID:   storeID.String(),
		ProductID: productID.String(),
		Quantity:  quantity,
	})
	s.hub.Broadcast <- payload
}
