package service

import (
	"context"
	"testing"
	"time"

	"github.com/prontto/backend/internal/model"
	"github.com/prontto/backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// issueNote plants an active credit note directly in the fake repository,
// expiring the given number of days from now.
func issueNote(t *testing.T, repo *fakeCreditNoteRepo, customerID uuid.UUID, amount string, daysToExpiry int) *model.CreditNote {
	t.Helper()
	now := time.Now()
	note := &model.CreditNote{
		CustomerID: customerID,
		Kind:       model.CreditNoteKindCredit,
		Amount:     decimal.RequireFromString(amount),
		Status:     model.CreditNoteStatusActive,
		Motive:     "test",
		IssuedAt:   now,
		ExpiresAt:  now.AddDate(0, 0, daysToExpiry),
	}
	require.NoError(t, repo.Create(context.Background(), note))
	return note
}

type creditFixture struct {
	svc          CreditService
	noteRepo     *fakeCreditNoteRepo
	orderRepo    *fakeOrderRepo
	customerRepo *fakeCustomerRepo
	customer     *model.Customer
}

func newCreditFixture(t *testing.T) *creditFixture {
	t.Helper()

	noteRepo := &fakeCreditNoteRepo{}
	orderRepo := newFakeOrderRepo()
	customerRepo := newFakeCustomerRepo()
	auditRepo := &fakeAuditRepo{}

	customer := &model.Customer{Name: "Maria", MaxReturnDays: 30}
	require.NoError(t, customerRepo.Create(context.Background(), customer))

	return &creditFixture{
		svc:          NewCreditService(noteRepo, customerRepo, orderRepo, auditRepo, fakeTxManager{}),
		noteRepo:     noteRepo,
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		customer:     customer,
	}
}

func (f *creditFixture) makeOrder(t *testing.T, total string) *model.Order {
	t.Helper()
	order := &model.Order{
		CustomerID: f.customer.ID,
		StoreID:    uuid.New(),
		Status:     model.OrderStatusPending,
		TotalDue:   decimal.RequireFromString(total),
		OrderedAt:  time.Now(),
	}
	require.NoError(t, f.orderRepo.Create(context.Background(), order))
	return order
}

func TestBalanceSubtractsDebits(t *testing.T) {
	f := newCreditFixture(t)
	issueNote(t, f.noteRepo, f.customer.ID, "50", 10)

	debit := &model.CreditNote{
		CustomerID: f.customer.ID,
		Kind:       model.CreditNoteKindDebit,
		Amount:     decimal.NewFromInt(20),
		Status:     model.CreditNoteStatusActive,
		IssuedAt:   time.Now(),
		ExpiresAt:  time.Now().AddDate(0, 0, 10),
	}
	require.NoError(t, f.noteRepo.Create(context.Background(), debit))

	balance, err := f.svc.Balance(context.Background(), f.customer.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(30)))
}

func TestBalanceFloorsAtZero(t *testing.T) {
	f := newCreditFixture(t)
	debit := &model.CreditNote{
		CustomerID: f.customer.ID,
		Kind:       model.CreditNoteKindDebit,
		Amount:     decimal.NewFromInt(20),
		Status:     model.CreditNoteStatusActive,
		IssuedAt:   time.Now(),
		ExpiresAt:  time.Now().AddDate(0, 0, 10),
	}
	require.NoError(t, f.noteRepo.Create(context.Background(), debit))

	balance, err := f.svc.Balance(context.Background(), f.customer.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestIssueRejectsNegativeAmount(t *testing.T) {
	f := newCreditFixture(t)
	_, err := f.svc.Issue(context.Background(), uuid.NewString(), IssueCreditNoteRequest{
		CustomerID: f.customer.ID.String(),
		Kind:       model.CreditNoteKindCredit,
		Amount:     "-5",
		Motive:     "goodwill",
	})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_INPUT", domainErr.Code)
}

func TestApplyConsumesOldestExpiryFirst(t *testing.T) {
	f := newCreditFixture(t)
	older := issueNote(t, f.noteRepo, f.customer.ID, "50", 5)
	newer := issueNote(t, f.noteRepo, f.customer.ID, "30", 10)
	order := f.makeOrder(t, "200")

	requested := decimal.NewFromInt(60)
	applied, touched, err := f.svc.Apply(context.Background(), f.customer.ID, order, &requested)
	require.NoError(t, err)
	assert.True(t, applied.Equal(decimal.NewFromInt(60)))
	require.Len(t, touched, 2)

	// The note expiring first is consumed whole.
	first, err := f.noteRepo.FindByID(context.Background(), older.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CreditNoteStatusApplied, first.Status)
	assert.True(t, first.Amount.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, first.AppliedToOrderID)
	assert.Equal(t, order.ID, *first.AppliedToOrderID)

	// The second note splits: 10 consumed, 20 survives as a fresh active note
	// keeping the original expiry.
	second, err := f.noteRepo.FindByID(context.Background(), newer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CreditNoteStatusApplied, second.Status)
	assert.True(t, second.Amount.Equal(decimal.NewFromInt(10)))

	balance, err := f.svc.Balance(context.Background(), f.customer.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(20)))

	active, err := f.noteRepo.FindActiveByCustomer(context.Background(), f.customer.ID, time.Now())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].ExpiresAt.Equal(newer.ExpiresAt))

	assert.True(t, order.TotalDue.Equal(decimal.NewFromInt(140)))
	reloaded, err := f.orderRepo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.TotalDue.Equal(decimal.NewFromInt(140)))
}

func TestApplyCapsAtOrderTotal(t *testing.T) {
	f := newCreditFixture(t)
	issueNote(t, f.noteRepo, f.customer.ID, "100", 10)
	order := f.makeOrder(t, "40")

	applied, _, err := f.svc.Apply(context.Background(), f.customer.ID, order, nil)
	require.NoError(t, err)
	assert.True(t, applied.Equal(decimal.NewFromInt(40)))
	assert.True(t, order.TotalDue.IsZero())

	balance, err := f.svc.Balance(context.Background(), f.customer.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(60)))
}

func TestApplyDisregardsDebitNotes(t *testing.T) {
	f := newCreditFixture(t)
	issueNote(t, f.noteRepo, f.customer.ID, "50", 10)
	debit := &model.CreditNote{
		CustomerID: f.customer.ID,
		Kind:       model.CreditNoteKindDebit,
		Amount:     decimal.NewFromInt(20),
		Status:     model.CreditNoteStatusActive,
		IssuedAt:   time.Now(),
		ExpiresAt:  time.Now().AddDate(0, 0, 10),
	}
	require.NoError(t, f.noteRepo.Create(context.Background(), debit))
	order := f.makeOrder(t, "100")

	// The credit note spends at face value even though the displayed balance
	// is only 30.
	applied, _, err := f.svc.Apply(context.Background(), f.customer.ID, order, nil)
	require.NoError(t, err)
	assert.True(t, applied.Equal(decimal.NewFromInt(50)))
	assert.True(t, order.TotalDue.Equal(decimal.NewFromInt(50)))

	untouched, err := f.noteRepo.FindByID(context.Background(), debit.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CreditNoteStatusActive, untouched.Status)
}

func TestApplyWithZeroBalanceIsNoop(t *testing.T) {
	f := newCreditFixture(t)
	order := f.makeOrder(t, "40")

	applied, touched, err := f.svc.Apply(context.Background(), f.customer.ID, order, nil)
	require.NoError(t, err)
	assert.True(t, applied.IsZero())
	assert.Empty(t, touched)
	assert.True(t, order.TotalDue.Equal(decimal.NewFromInt(40)))
}

func TestApplyIgnoresExpiredNotes(t *testing.T) {
	f := newCreditFixture(t)
	issueNote(t, f.noteRepo, f.customer.ID, "50", -1)
	order := f.makeOrder(t, "40")

	applied, _, err := f.svc.Apply(context.Background(), f.customer.ID, order, nil)
	require.NoError(t, err)
	assert.True(t, applied.IsZero())
}

func TestExpireSweepFlipsOverdueNotes(t *testing.T) {
	f := newCreditFixture(t)
	overdue1 := issueNote(t, f.noteRepo, f.customer.ID, "10", -2)
	overdue2 := issueNote(t, f.noteRepo, f.customer.ID, "20", -1)
	future := issueNote(t, f.noteRepo, f.customer.ID, "30", 10)

	affected, err := f.svc.ExpireSweep(context.Background(), uuid.NewString(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	for _, id := range []uuid.UUID{overdue1.ID, overdue2.ID} {
		note, err := f.noteRepo.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, model.CreditNoteStatusExpired, note.Status)
	}
	kept, err := f.noteRepo.FindByID(context.Background(), future.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CreditNoteStatusActive, kept.Status)
}
