package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/prontto/backend/internal/model"
	"github.com/prontto/backend/internal/repository"
	"github.com/prontto/backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type OrderLineRequest struct {
	ProductID string  `json:"product_id" binding:"required,uuid"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice *string `json:"unit_price"` // Defaults to catalog price when omitted
}

type CreateOrderRequest struct {
	CustomerID string             `json:"customer_id" binding:"required,uuid"`
	StoreID    string             `json:"store_id" binding:"required,uuid"`
	Lines      []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type LineDeliveryRequest struct {
	OrderLineID string `json:"order_line_id" binding:"required,uuid"`
	Quantity    int    `json:"quantity" binding:"required,gt=0"`
}

type DeliverPartialRequest struct {
	Deliveries []LineDeliveryRequest `json:"deliveries" binding:"required,min=1,dive"`
}

type DeliveryResult struct {
	Order        *model.Order `json:"order"`
	ChildOrder   *model.Order `json:"child_order,omitempty"`
	TicketNumber string       `json:"ticket_number"`
}

type ApplyCreditRequest struct {
	Amount *string `json:"amount"` // Omit to apply as much balance as possible
}

type ApplyCreditResult struct {
	AmountApplied decimal.Decimal    `json:"amount_applied"`
	NotesTouched  []model.CreditNote `json:"notes_touched"`
}

const ticketMaxAttempts = 5

// OrderService owns the order/order-line state machine: creation, partial
// delivery with one-level splitting, credit application and finalization into
// a sale. Inventory is decremented at delivery time; nothing is reserved when
// the order is created.
type OrderService interface {
	Create(ctx context.Context, userID string, req CreateOrderRequest) (*model.Order, error)
	DeliverPartial(ctx context.Context, userID string, orderID uuid.UUID, req DeliverPartialRequest) (*DeliveryResult, error)
	Finalize(ctx context.Context, userID string, orderID uuid.UUID) (*model.Order, error)
	ApplyCredit(ctx context.Context, userID string, orderID uuid.UUID, req ApplyCreditRequest) (*ApplyCreditResult, error)
	Cancel(ctx context.Context, userID string, orderID uuid.UUID) (*model.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	List(ctx context.Context, customerID *uuid.UUID, status string, page, limit int) ([]model.Order, int64, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	storeRepo    repository.StoreRepository
	auditRepo    repository.AuditRepository
	stock        StockService
	credit       CreditService
	txManager    repository.TransactionManager
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	storeRepo repository.StoreRepository,
	auditRepo repository.AuditRepository,
	stock StockService,
	credit CreditService,
	txManager repository.TransactionManager,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		storeRepo:    storeRepo,
		auditRepo:    auditRepo,
		stock:        stock,
		credit:       credit,
		txManager:    txManager,
	}
}

func (s *orderService) Create(ctx context.Context, userID string, req CreateOrderRequest) (*model.Order, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("invalid customer id: %w", err)
	}
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("invalid store id: %w", err)
	}

	if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if _, err := s.storeRepo.FindByID(ctx, storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	total := decimal.Zero
	lines := make([]model.OrderLine, 0, len(req.Lines))
	for _, lineReq := range req.Lines {
		productID, parseErr := uuid.Parse(lineReq.ProductID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid product id: %w", parseErr)
		}
		if lineReq.Quantity <= 0 {
			return nil, apperrors.ErrInvalidQuantity
		}

		product, findErr := s.productRepo.FindByID(ctx, productID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrNotFound
			}
			return nil, fmt.Errorf("failed to load product %s: %w", lineReq.ProductID, findErr)
		}

		unitPrice := product.Price
		if lineReq.UnitPrice != nil {
			parsed, priceErr := decimal.NewFromString(*lineReq.UnitPrice)
			if priceErr != nil {
				return nil, fmt.Errorf("invalid unit price: %w", priceErr)
			}
			if parsed.IsNegative() {
				return nil, apperrors.New("INVALID_INPUT", "unit price must not be negative")
			}
			unitPrice = parsed
		}

		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(lineReq.Quantity)))
		total = total.Add(lineTotal)
		lines = append(lines, model.OrderLine{
			ProductID: productID,
			Quantity:  lineReq.Quantity,
			UnitPrice: unitPrice,
			LineTotal: lineTotal,
		})
	}

	order := &model.Order{
		CustomerID:               customerID,
		StoreID:                  storeID,
		Status:                   model.OrderStatusPending,
		TotalDue:                 total,
		CompletionPercent:        decimal.Zero,
		AllowsPartialFulfillment: true,
		Lines:                    lines,
		OrderedAt:                time.Now(),
		CreatedBy:                userIDPtr(userID),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orderRepo.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:   userIDPtr(userID),
			Action:   model.ActionCreateOrder,
			EntityID: order.ID.String(),
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

	return order, nil
}

// DeliverPartial records a delivery event against an order inside one
// transaction: stock is decremented per delivered line, delivered counters
// advance, and any undelivered remainder is carved into a single child order.
// An order that already has a parent accepts only deliveries that settle it
// completely; splitting goes one level deep at most.
func (s *orderService) DeliverPartial(ctx context.Context, userID string, orderID uuid.UUID, req DeliverPartialRequest) (*DeliveryResult, error) {
	var result *DeliveryResult

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to load order: %w", err)
		}
		if order.Status != model.OrderStatusPending && order.Status != model.OrderStatusActive {
			return apperrors.ErrInvalidStateTransition
		}

		// Index requested deliveries by line; reject unknown lines and
		// over-deliveries before anything is written.
		deliveries := make(map[uuid.UUID]int, len(req.Deliveries))
		for _, delivery := range req.Deliveries {
			lineID, parseErr := uuid.Parse(delivery.OrderLineID)
			if parseErr != nil {
				return fmt.Errorf("invalid order line id: %w", parseErr)
			}
			if delivery.Quantity <= 0 {
				return apperrors.ErrInvalidQuantity
			}
			deliveries[lineID] += delivery.Quantity
		}

		lineByID := make(map[uuid.UUID]*model.OrderLine, len(order.Lines))
		for i := range order.Lines {
			lineByID[order.Lines[i].ID] = &order.Lines[i]
		}
		for lineID, qty := range deliveries {
			line, ok := lineByID[lineID]
			if !ok {
				return apperrors.ErrNotFound
			}
			if qty > line.Quantity-line.QuantityDelivered {
				return apperrors.ErrInvalidQuantity
			}
		}

		// Determine up front whether a remainder will survive this delivery;
		// splitting is only allowed once and only on parent-eligible orders.
		willRemain := false
		for i := range order.Lines {
			line := &order.Lines[i]
			remainder := line.Quantity - line.QuantityDelivered - deliveries[line.ID]
			if remainder > 0 {
				willRemain = true
			}
		}
		if willRemain && (order.ParentOrderID != nil || !order.AllowsPartialFulfillment) {
			return apperrors.ErrInvalidStateTransition
		}

		// Apply deliveries. Lines arrive sorted by product id, which keeps
		// the inventory lock order deterministic across concurrent calls.
		deliveredValue := decimal.Zero
		for i := range order.Lines {
			line := &order.Lines[i]
			qty := deliveries[line.ID]
			if qty == 0 {
				continue
			}

			if _, err := s.stock.Adjust(txCtx, order.StoreID, line.ProductID, -qty, model.MovementRefDelivery, &order.ID); err != nil {
				return err
			}
			line.QuantityDelivered += qty
			deliveredValue = deliveredValue.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(qty))))
		}

		// Carve the undelivered remainder into a child order and settle the
		// original at its delivered portion.
		var child *model.Order
		if willRemain {
			childLines := make([]model.OrderLine, 0, len(order.Lines))
			childTotal := decimal.Zero
			for i := range order.Lines {
				line := &order.Lines[i]
				remainder := line.Quantity - line.QuantityDelivered
				if remainder <= 0 {
					continue
				}
				lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(remainder)))
				childTotal = childTotal.Add(lineTotal)
				childLines = append(childLines, model.OrderLine{
					ProductID: line.ProductID,
					Quantity:  remainder,
					UnitPrice: line.UnitPrice,
					LineTotal: lineTotal,
				})

				line.Quantity = line.QuantityDelivered
				line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
			}

			child = &model.Order{
				CustomerID:               order.CustomerID,
				StoreID:                  order.StoreID,
				Status:                   model.OrderStatusPending,
				TotalDue:                 childTotal,
				CompletionPercent:        decimal.Zero,
				ParentOrderID:            &order.ID,
				AllowsPartialFulfillment: false,
				Lines:                    childLines,
				OrderedAt:                order.OrderedAt,
				CreatedBy:                userIDPtr(userID),
			}
			if err := s.orderRepo.Create(txCtx, child); err != nil {
				return fmt.Errorf("failed to create child order: %w", err)
			}

			order.TotalDue = decimal.Zero
			for i := range order.Lines {
				order.TotalDue = order.TotalDue.Add(order.Lines[i].LineTotal)
			}
		}

		for i := range order.Lines {
			if err := s.orderRepo.SaveLine(txCtx, &order.Lines[i]); err != nil {
				return fmt.Errorf("failed to update order line: %w", err)
			}
		}

		// A delivery event gets its own ticket; uniqueness is guaranteed by
		// construction plus the unique index, with a bounded retry on the
		// freak collision.
		event := &model.DeliveryEvent{
			OrderID:         order.ID,
			AmountDelivered: deliveredValue,
			CreatedBy:       userIDPtr(userID),
		}
		if child != nil {
			event.ChildOrderID = &child.ID
		}
		ticket, err := s.createDeliveryEvent(txCtx, event)
		if err != nil {
			return err
		}

		order.TicketNumber = &ticket
		order.CompletionPercent = completionPercent(order.Lines)
		if fullyDelivered(order.Lines) {
			order.Status = model.OrderStatusFulfilled
		} else {
			order.Status = model.OrderStatusActive
		}
		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"ticket_number":   ticket,
			"delivered_value": deliveredValue,
			"split":           child != nil,
		})
		audit := &model.AuditLog{
			UserID:   userIDPtr(userID),
			Action:   model.ActionDeliverPartial,
			EntityID: order.ID.String(),
			Details:  string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		result = &DeliveryResult{Order: order, ChildOrder: child, TicketNumber: ticket}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Finalize stamps a fully delivered order as a sale. Calling it again on an
// already finalized order is a no-op returning the order as-is.
func (s *orderService) Finalize(ctx context.Context, userID string, orderID uuid.UUID) (*model.Order, error) {
	var order *model.Order

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		if order.Status == model.OrderStatusFinalized {
			return nil
		}
		if order.Status == model.OrderStatusCancelled {
			return apperrors.ErrInvalidStateTransition
		}
		if order.CompletionPercent.LessThan(decimal.NewFromInt(100)) {
			return apperrors.ErrInvalidStateTransition
		}

		now := time.Now()
		order.Status = model.OrderStatusFinalized
		order.FinalizedAt = &now
		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		sale := &model.Sale{
			OrderID:     order.ID,
			CustomerID:  order.CustomerID,
			StoreID:     order.StoreID,
			Amount:      order.TotalDue,
			FinalizedBy: userIDPtr(userID),
		}
		if err := s.orderRepo.CreateSale(txCtx, sale); err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}

		audit := &model.AuditLog{
			UserID:   userIDPtr(userID),
			Action:   model.ActionFinalizeOrder,
			EntityID: order.ID.String(),
			Details:  fmt.Sprintf(`{"amount": %q}`, order.TotalDue.String()),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (s *orderService) ApplyCredit(ctx context.Context, userID string, orderID uuid.UUID, req ApplyCreditRequest) (*ApplyCreditResult, error) {
	var requested *decimal.Decimal
	if req.Amount != nil {
		parsed, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount: %w", err)
		}
		if !parsed.IsPositive() {
			return nil, apperrors.ErrInvalidQuantity
		}
		requested = &parsed
	}

	var result *ApplyCreditResult
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to load order: %w", err)
		}
		if order.Status == model.OrderStatusFinalized || order.Status == model.OrderStatusCancelled {
			return apperrors.ErrInvalidStateTransition
		}

		applied, touched, err := s.credit.Apply(txCtx, order.CustomerID, order, requested)
		if err != nil {
			return err
		}

		details, _ := json.Marshal(map[string]interface{}{
			"amount_applied": applied,
			"notes_touched":  len(touched),
		})
		audit := &model.AuditLog{
			UserID:   userIDPtr(userID),
			Action:   model.ActionApplyCredit,
			EntityID: order.ID.String(),
			Details:  string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		result = &ApplyCreditResult{AmountApplied: applied, NotesTouched: touched}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Cancel is reachable from any non-finalized state. Stock already delivered
// stays delivered; undoing a delivery is the return workflow's job.
func (s *orderService) Cancel(ctx context.Context, userID string, orderID uuid.UUID) (*model.Order, error) {
	var order *model.Order

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to load order: %w", err)
		}
		if order.Status == model.OrderStatusFinalized || order.Status == model.OrderStatusCancelled {
			return apperrors.ErrInvalidStateTransition
		}

		order.Status = model.OrderStatusCancelled
		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		audit := &model.AuditLog{
			UserID:   userIDPtr(userID),
			Action:   model.ActionCancelOrder,
			EntityID: order.ID.String(),
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

	return order, nil
}

func (s *orderService) Get(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, customerID *uuid.UUID, status string, page, limit int) ([]model.Order, int64, error) {
	return s.orderRepo.List(ctx, customerID, status, page, limit)
}

func (s *orderService) createDeliveryEvent(txCtx context.Context, event *model.DeliveryEvent) (string, error) {
	for attempt := 0; attempt < ticketMaxAttempts; attempt++ {
		event.ID = uuid.Nil
		event.TicketNumber = newTicketNumber(event.OrderID)
		err := s.orderRepo.CreateDeliveryEvent(txCtx, event)
		if err == nil {
			return event.TicketNumber, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", fmt.Errorf("failed to create delivery event: %w", err)
		}
	}
	return "", apperrors.ErrContention
}

// newTicketNumber combines a timestamp, the order id prefix and a random
// suffix. Collisions are practically impossible but still caught by the
// unique index.
func newTicketNumber(orderID uuid.UUID) string {
	return fmt.Sprintf("TKT-%s-%s-%04d",
		time.Now().UTC().Format("20060102150405"),
		orderID.String()[:8],
		rand.IntN(10000))
}

// completionPercent is the value-weighted share of ordered quantity already
// delivered, clamped to [0, 100].
func completionPercent(lines []model.OrderLine) decimal.Decimal {
	ordered := decimal.Zero
	delivered := decimal.Zero
	for _, line := range lines {
		ordered = ordered.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		delivered = delivered.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.QuantityDelivered))))
	}
	if !ordered.IsPositive() {
		return decimal.NewFromInt(100)
	}
	percent := delivered.Mul(decimal.NewFromInt(100)).DivRound(ordered, 2)
	hundred := decimal.NewFromInt(100)
	if percent.GreaterThan(hundred) {
		return hundred
	}
	return percent
}

func fullyDelivered(lines []model.OrderLine) bool {
	for _, line := range lines {
		if line.QuantityDelivered < line.Quantity {
			return false
		}
	}
	return true
}
