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
type IssueCreditNoteRequest struct {
	CustomerID    string `json:"customer_id" binding:"required,uuid"`
	Kind          string `json:"kind" binding:"required,oneof=CREDIT DEBIT"`
	Amount        string `json:"amount" binding:"required"`
	Motive        string `json:"motive" binding:"required"`
	OriginOrderID string `json:"origin_order_id"`
}

// CreditService is the credit ledger: balances, issuance, FIFO consumption
// and expiry. CreditNote rows are mutated only through these operations.
type CreditService interface {
	Balance(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error)
	Issue(ctx context.Context, userID string, req IssueCreditNoteRequest) (*model.CreditNote, error)
	// Apply consumes the customer's active credit notes oldest-expiry-first
	// against the given order, up to min(requested, balance, order.TotalDue),
	// and decrements order.TotalDue by the applied amount. It must run inside
	// the caller's transaction with the order row already locked. A zero
	// balance applies nothing and is not an error.
	Apply(txCtx context.Context, customerID uuid.UUID, order *model.Order, requested *decimal.Decimal) (decimal.Decimal, []model.CreditNote, error)
	ExpireSweep(ctx context.Context, userID string, now time.Time) (int64, error)
	Get(ctx context.Context, id uuid.UUID) (*model.CreditNote, error)
	List(ctx context.Context, customerID *uuid.UUID, status string, page, limit int) ([]model.CreditNote, int64, error)
}

type creditService struct {
	creditNoteRepo repository.CreditNoteRepository
	customerRepo   repository.CustomerRepository
	orderRepo      repository.OrderRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
}

func NewCreditService(
	creditNoteRepo repository.CreditNoteRepository,
	customerRepo repository.CustomerRepository,
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CreditService {
	return &creditService{
		creditNoteRepo: creditNoteRepo,
		customerRepo:   customerRepo,
		orderRepo:      orderRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
	}
}

// Balance is active credit minus active debit, floored at zero for display.
func (s *creditService) Balance(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	notes, err := s.creditNoteRepo.FindActiveByCustomer(ctx, customerID, time.Now())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load credit notes: %w", err)
	}

	balance := decimal.Zero
	for _, note := range notes {
		switch note.Kind {
		case model.CreditNoteKindCredit:
			balance = balance.Add(note.Amount)
		case model.CreditNoteKindDebit:
			balance = balance.Sub(note.Amount)
		}
	}
	if balance.IsNegative() {
		return decimal.Zero, nil
	}
	return balance, nil
}

func (s *creditService) Issue(ctx context.Context, userID string, req IssueCreditNoteRequest) (*model.CreditNote, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("invalid customer id: %w", err)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	if amount.IsNegative() {
		return nil, apperrors.New("INVALID_INPUT", "amount must not be negative")
	}

	if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	var originOrderID *uuid.UUID
	if req.OriginOrderID != "" {
		parsed, parseErr := uuid.Parse(req.OriginOrderID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid origin order id: %w", parseErr)
		}
		originOrderID = &parsed
	}

	now := time.Now()
	note := &model.CreditNote{
		CustomerID:    customerID,
		Kind:          req.Kind,
		Amount:        amount,
		Status:        model.CreditNoteStatusActive,
		Motive:        req.Motive,
		IssuedAt:      now,
		ExpiresAt:     now.AddDate(0, 0, model.CreditNoteValidityDays),
		OriginOrderID: originOrderID,
		CreatedBy:     userIDPtr(userID),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.creditNoteRepo.Create(txCtx, note); err != nil {
			return fmt.Errorf("failed to create credit note: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:   userIDPtr(userID),
			Action:   model.ActionIssueCreditNote,
			EntityID: note.ID.String(),
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

	return note, nil
}

func (s *creditService) Apply(txCtx context.Context, customerID uuid.UUID, order *model.Order, requested *decimal.Decimal) (decimal.Decimal, []model.CreditNote, error) {
	now := time.Now()

	notes, err := s.creditNoteRepo.FindActiveCreditForUpdate(txCtx, customerID, now)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("failed to lock credit notes: %w", err)
	}

	// Only credit-kind notes are spendable here. Active debits lower the
	// displayed balance but never gate application; each credit note spends
	// at face value.
	balance := decimal.Zero
	for _, note := range notes {
		balance = balance.Add(note.Amount)
	}
	if balance.IsZero() {
		return decimal.Zero, nil, nil
	}

	toApply := balance
	if requested != nil && requested.LessThan(toApply) {
		toApply = *requested
	}
	if order.TotalDue.LessThan(toApply) {
		toApply = order.TotalDue
	}
	if !toApply.IsPositive() {
		return decimal.Zero, nil, nil
	}

	remaining := toApply
	var touched []model.CreditNote

	for i := range notes {
		if !remaining.IsPositive() {
			break
		}
		note := &notes[i]

		if note.Amount.LessThanOrEqual(remaining) {
			// Consume the whole note.
			note.Status = model.CreditNoteStatusApplied
			note.AppliedToOrderID = &order.ID
			note.AppliedAt = &now
			remaining = remaining.Sub(note.Amount)
		} else {
			// Partial consumption: the remainder becomes a fresh active note
			// keeping the original expiry; the original shrinks to the
			// consumed portion and flips to applied.
			leftover := &model.CreditNote{
				CustomerID: note.CustomerID,
				Kind:       model.CreditNoteKindCredit,
				Amount:     note.Amount.Sub(remaining),
				Status:     model.CreditNoteStatusActive,
				Motive:     fmt.Sprintf("Remainder of partially applied note %s", note.ID),
				IssuedAt:   note.IssuedAt,
				ExpiresAt:  note.ExpiresAt,
			}
			if err := s.creditNoteRepo.Create(txCtx, leftover); err != nil {
				return decimal.Zero, nil, fmt.Errorf("failed to create remainder note: %w", err)
			}

			note.Amount = remaining
			note.Status = model.CreditNoteStatusApplied
			note.AppliedToOrderID = &order.ID
			note.AppliedAt = &now
			remaining = decimal.Zero
		}

		if err := s.creditNoteRepo.Save(txCtx, note); err != nil {
			return decimal.Zero, nil, fmt.Errorf("failed to update credit note: %w", err)
		}
		touched = append(touched, *note)
	}

	applied := toApply.Sub(remaining)
	order.TotalDue = order.TotalDue.Sub(applied)
	if err := s.orderRepo.Save(txCtx, order); err != nil {
		return decimal.Zero, nil, fmt.Errorf("failed to update order total: %w", err)
	}

	return applied, touched, nil
}

// ExpireSweep flips overdue active notes to expired. Applied notes are never
// touched. Invoked by an external scheduler through the maintenance endpoint.
func (s *creditService) ExpireSweep(ctx context.Context, userID string, now time.Time) (int64, error) {
	var affected int64
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		affected, err = s.creditNoteRepo.ExpireBefore(txCtx, now)
		if err != nil {
			return fmt.Errorf("failed to expire credit notes: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{"expired_count": affected, "as_of": now})
		audit := &model.AuditLog{
			UserID:  userIDPtr(userID),
			Action:  model.ActionExpireCreditNote,
			Details: string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	return affected, err
}

func (s *creditService) Get(ctx context.Context, id uuid.UUID) (*model.CreditNote, error) {
	note, err := s.creditNoteRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load credit note: %w", err)
	}
	return note, nil
}

func (s *creditService) List(ctx context.Context, customerID *uuid.UUID, status string, page, limit int) ([]model.CreditNote, int64, error) {
	return s.creditNoteRepo.List(ctx, customerID, status, page, limit)
}
