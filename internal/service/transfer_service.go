package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/prontto/backend/internal/model"
	"github.com/prontto/backend/internal/repository"
	ws "github.com/prontto/backend/internal/websocket"
	"github.com/prontto/backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type TransferLineRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type CreateTransferRequest struct {
	SourceStoreID string                `json:"source_store_id" binding:"required,uuid"`
	DestStoreID   string                `json:"dest_store_id" binding:"required,uuid"`
	Lines         []TransferLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// TransferEvent is broadcast to websocket clients after a transfer commits.
type TransferEvent struct {
	Event         string `json:"event"`
	TransferID    string `json:"transfer_id"`
	SourceStoreID string `json:"source_store_id"`
	DestStoreID   string `json:"dest_store_id"`
}

type TransferService interface {
	Create(ctx context.Context, userID string, req CreateTransferRequest) (*model.Transfer, error)
	Complete(ctx context.Context, userID string, id uuid.UUID) (*model.Transfer, error)
	Cancel(ctx context.Context, userID string, id uuid.UUID) (*model.Transfer, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Transfer, error)
	List(ctx context.Context, status string, page, limit int) ([]model.Transfer, int64, error)
}

type transferService struct {
	transferRepo  repository.TransferRepository
	inventoryRepo repository.InventoryRepository
	storeRepo     repository.StoreRepository
	auditRepo     repository.AuditRepository
	stock         StockService
	txManager     repository.TransactionManager
	hub           *ws.Hub
}

func NewTransferService(
	transferRepo repository.TransferRepository,
	inventoryRepo repository.InventoryRepository,
	storeRepo repository.StoreRepository,
	auditRepo repository.AuditRepository,
	stock StockService,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) TransferService {
	return &transferService{
		transferRepo:  transferRepo,
		inventoryRepo: inventoryRepo,
		storeRepo:     storeRepo,
		auditRepo:     auditRepo,
		stock:         stock,
		txManager:     txManager,
		hub:           hub,
	}
}

// Create persists a pending transfer. No inventory is touched until Complete.
func (s *transferService) Create(ctx context.Context, userID string, req CreateTransferRequest) (*model.Transfer, error) {
	sourceID, err := uuid.Parse(req.SourceStoreID)
	if err != nil {
		return nil, fmt.Errorf("invalid source store id: %w", err)
	}
	destID, err := uuid.Parse(req.DestStoreID)
	if err != nil {
		return nil, fmt.Errorf("invalid dest store id: %w", err)
	}
	if sourceID == destID {
		return nil, apperrors.New("INVALID_INPUT", "source and destination stores must differ")
	}

	if _, err := s.storeRepo.FindByID(ctx, sourceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load source store: %w", err)
	}
	if _, err := s.storeRepo.FindByID(ctx, destID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load dest store: %w", err)
	}

	seen := make(map[uuid.UUID]bool, len(req.Lines))
	lines := make([]model.TransferLine, 0, len(req.Lines))
	for _, lineReq := range req.Lines {
		productID, parseErr := uuid.Parse(lineReq.ProductID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid product id: %w", parseErr)
		}
		if lineReq.Quantity <= 0 {
			return nil, apperrors.ErrInvalidQuantity
		}
		if seen[productID] {
			return nil, apperrors.New("INVALID_INPUT", "transfer lines must reference distinct products")
		}
		seen[productID] = true

		// The product must already be stocked at the source store.
		if _, findErr := s.inventoryRepo.Find(ctx, sourceID, productID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return nil, apperrors.New("INVALID_INPUT",
					fmt.Sprintf("product %s has no inventory record at the source store", lineReq.ProductID))
			}
			return nil, fmt.Errorf("failed to check source inventory: %w", findErr)
		}

		lines = append(lines, model.TransferLine{ProductID: productID, Quantity: lineReq.Quantity})
	}

	transfer := &model.Transfer{
		SourceStoreID: sourceID,
		DestStoreID:   destID,
		Status:        model.TransferStatusPending,
		Lines:         lines,
		CreatedBy:     userIDPtr(userID),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.transferRepo.Create(txCtx, transfer); err != nil {
			return fmt.Errorf("failed to create transfer: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:   userIDPtr(userID),
			Action:   model.ActionCreateTransfer,
			EntityID: transfer.ID.String(),
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

	return transfer, nil
}

// Complete applies every line atomically. If any line lacks stock at the
// source the whole transaction rolls back and the transfer stays pending so
// the operator can retry or cancel explicitly.
func (s *transferService) Complete(ctx context.Context, userID string, id uuid.UUID) (*model.Transfer, error) {
	var transfer *model.Transfer

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		transfer, err = s.transferRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to load transfer: %w", err)
		}
		if transfer.Status != model.TransferStatusPending {
			return apperrors.ErrInvalidStateTransition
		}

		// Lines ascend by product id, and within a line the two store rows
		// are taken in a fixed store order, so two opposing transfers over
		// the same products cannot circular-wait on each other.
		lines := transfer.Lines
		sort.Slice(lines, func(i, j int) bool {
			return lines[i].ProductID.String() < lines[j].ProductID.String()
		})

		for _, line := range lines {
			first, second := transfer.SourceStoreID, transfer.DestStoreID
			firstDelta, secondDelta := -line.Quantity, line.Quantity
			if second.String() < first.String() {
				first, second = second, first
				firstDelta, secondDelta = secondDelta, firstDelta
			}

			if _, err := s.stock.Adjust(txCtx, first, line.ProductID, firstDelta, model.MovementRefTransfer, &transfer.ID); err != nil {
				return err
			}
			if _, err := s.stock.Adjust(txCtx, second, line.ProductID, secondDelta, model.MovementRefTransfer, &transfer.ID); err != nil {
				return err
			}
		}

		now := time.Now()
		transfer.Status = model.TransferStatusCompleted
		transfer.CompletedAt = &now
		if err := s.transferRepo.Save(txCtx, transfer); err != nil {
			return fmt.Errorf("failed to update transfer: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"source_store_id": transfer.SourceStoreID.String(),
			"dest_store_id":   transfer.DestStoreID.String(),
			"line_count":      len(transfer.Lines),
		})
		audit := &model.AuditLog{
			UserID:   userIDPtr(userID),
			Action:   model.ActionCompleteTransfer,
			EntityID: transfer.ID.String(),
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

	s.broadcast("transfer.completed", transfer)

	return transfer, nil
}

// Cancel is permitted only while pending and never touches inventory.
func (s *transferService) Cancel(ctx context.Context, userID string, id uuid.UUID) (*model.Transfer, error) {
	var transfer *model.Transfer

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		transfer, err = s.transferRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to load transfer: %w", err)
		}
		if transfer.Status != model.TransferStatusPending {
			return apperrors.ErrInvalidStateTransition
		}

		transfer.Status = model.TransferStatusCancelled
		if err := s.transferRepo.Save(txCtx, transfer); err != nil {
			return fmt.Errorf("failed to update transfer: %w", err)
		}

		audit := &model.AuditLog{
			UserID:   userIDPtr(userID),
			Action:   model.ActionCancelTransfer,
			EntityID: transfer.ID.String(),
			Details:  `{"cancelled": true}`,
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return transfer, nil
}

func (s *transferService) Get(ctx context.Context, id uuid.UUID) (*model.Transfer, error) {
	transfer, err := s.transferRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load transfer: %w", err)
	}
	return transfer, nil
}

func (s *transferService) List(ctx context.Context, status string, page, limit int) ([]model.Transfer, int64, error) {
	return s.transferRepo.List(ctx, status, page, limit)
}

func (s *transferService) broadcast(event string, transfer *model.Transfer) {
	if s.hub == nil {
		return
	}
	payload, _ := json.Marshal(TransferEvent{
		Event:         event,
		TransferID:    transfer.ID.String(),
		SourceStoreID: transfer.SourceStoreID.String(),
		DestStoreID:   transfer.DestStoreID.String(),
	})
	s.hub.Broadcast <- payload
}
