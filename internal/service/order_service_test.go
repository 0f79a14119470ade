package service

import (
	"context"
	"strings"
	"testing"

	"github.com/prontto/backend/internal/model"
	"github.com/prontto/backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	svc       OrderService
	orderRepo *fakeOrderRepo
	invRepo   *fakeInventoryRepo
	noteRepo  *fakeCreditNoteRepo
	customer  *model.Customer
	store     *model.Store
	product   *model.Product
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	orderRepo := newFakeOrderRepo()
	productRepo := newFakeProductRepo()
	customerRepo := newFakeCustomerRepo()
	storeRepo := newFakeStoreRepo()
	invRepo := newFakeInventoryRepo()
	noteRepo := &fakeCreditNoteRepo{}
	auditRepo := &fakeAuditRepo{}
	tx := fakeTxManager{}

	customer := &model.Customer{Name: "Maria", MaxReturnDays: 30}
	store := &model.Store{Name: "central"}
	product := &model.Product{Code: "SKU-1", Name: "Boots", Price: decimal.NewFromInt(10), Returnable: true}
	require.NoError(t, customerRepo.Create(context.Background(), customer))
	require.NoError(t, storeRepo.Create(context.Background(), store))
	require.NoError(t, productRepo.Create(context.Background(), product))

	stock := NewStockService(invRepo, auditRepo, tx, nil)
	credit := NewCreditService(noteRepo, customerRepo, orderRepo, auditRepo, tx)
	svc := NewOrderService(orderRepo, productRepo, customerRepo, storeRepo, auditRepo, stock, credit, tx)

	return &orderFixture{
		svc:       svc,
		orderRepo: orderRepo,
		invRepo:   invRepo,
		noteRepo:  noteRepo,
		customer:  customer,
		store:     store,
		product:   product,
	}
}

func (f *orderFixture) createOrder(t *testing.T, qty int) *model.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), uuid.NewString(), CreateOrderRequest{
		CustomerID: f.customer.ID.String(),
		StoreID:    f.store.ID.String(),
		Lines:      []OrderLineRequest{{ProductID: f.product.ID.String(), Quantity: qty}},
	})
	require.NoError(t, err)
	return order
}

func (f *orderFixture) deliver(t *testing.T, orderID, lineID uuid.UUID, qty int) (*DeliveryResult, error) {
	t.Helper()
	return f.svc.DeliverPartial(context.Background(), uuid.NewString(), orderID, DeliverPartialRequest{
		Deliveries: []LineDeliveryRequest{{OrderLineID: lineID.String(), Quantity: qty}},
	})
}

func TestCreateOrderComputesTotals(t *testing.T) {
	f := newOrderFixture(t)

	order := f.createOrder(t, 10)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.True(t, order.TotalDue.Equal(decimal.NewFromInt(100)))
	assert.True(t, order.AllowsPartialFulfillment)
	assert.Nil(t, order.ParentOrderID)
	require.Len(t, order.Lines, 1)
	assert.True(t, order.Lines[0].UnitPrice.Equal(decimal.NewFromInt(10)))
}

func TestCreateOrderHonorsPinnedPrice(t *testing.T) {
	f := newOrderFixture(t)
	pinned := "7.50"

	order, err := f.svc.Create(context.Background(), uuid.NewString(), CreateOrderRequest{
		CustomerID: f.customer.ID.String(),
		StoreID:    f.store.ID.String(),
		Lines:      []OrderLineRequest{{ProductID: f.product.ID.String(), Quantity: 2, UnitPrice: &pinned}},
	})
	require.NoError(t, err)
	assert.True(t, order.TotalDue.Equal(decimal.RequireFromString("15.00")))
}

func TestDeliverPartialSplitsRemainder(t *testing.T) {
	f := newOrderFixture(t)
	f.invRepo.seed(f.store.ID, f.product.ID, 100)

	order := f.createOrder(t, 10)
	res, err := f.deliver(t, order.ID, order.Lines[0].ID, 4)
	require.NoError(t, err)

	// Original order settles at the delivered portion.
	require.Len(t, res.Order.Lines, 1)
	assert.Equal(t, 4, res.Order.Lines[0].Quantity)
	assert.Equal(t, 4, res.Order.Lines[0].QuantityDelivered)
	assert.Equal(t, model.OrderStatusFulfilled, res.Order.Status)
	assert.True(t, res.Order.CompletionPercent.Equal(decimal.NewFromInt(100)))
	assert.True(t, res.Order.TotalDue.Equal(decimal.NewFromInt(40)))

	// Child order carries the remainder.
	require.NotNil(t, res.ChildOrder)
	require.Len(t, res.ChildOrder.Lines, 1)
	assert.Equal(t, 6, res.ChildOrder.Lines[0].Quantity)
	assert.Equal(t, model.OrderStatusPending, res.ChildOrder.Status)
	assert.False(t, res.ChildOrder.AllowsPartialFulfillment)
	require.NotNil(t, res.ChildOrder.ParentOrderID)
	assert.Equal(t, order.ID, *res.ChildOrder.ParentOrderID)
	assert.True(t, res.ChildOrder.TotalDue.Equal(decimal.NewFromInt(60)))

	// Original plus child account for the full ordered quantity and value.
	assert.Equal(t, 10, res.Order.Lines[0].Quantity+res.ChildOrder.Lines[0].Quantity)
	assert.True(t, res.Order.TotalDue.Add(res.ChildOrder.TotalDue).Equal(decimal.NewFromInt(100)))

	// Stock decremented only for the delivered quantity.
	assert.Equal(t, 96, f.invRepo.quantity(f.store.ID, f.product.ID))

	// Ticket is issued and recorded against the delivery event.
	assert.True(t, strings.HasPrefix(res.TicketNumber, "TKT-"))
	require.Len(t, f.orderRepo.events, 1)
	assert.Equal(t, res.TicketNumber, f.orderRepo.events[0].TicketNumber)
	require.NotNil(t, f.orderRepo.events[0].ChildOrderID)
	assert.Equal(t, res.ChildOrder.ID, *f.orderRepo.events[0].ChildOrderID)
	assert.True(t, f.orderRepo.events[0].AmountDelivered.Equal(decimal.NewFromInt(40)))
}

func TestDeliverFullQuantityDoesNotSplit(t *testing.T) {
	f := newOrderFixture(t)
	f.invRepo.seed(f.store.ID, f.product.ID, 100)

	order := f.createOrder(t, 10)
	res, err := f.deliver(t, order.ID, order.Lines[0].ID, 10)
	require.NoError(t, err)

	assert.Nil(t, res.ChildOrder)
	assert.Equal(t, model.OrderStatusFulfilled, res.Order.Status)
	assert.True(t, res.Order.CompletionPercent.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 90, f.invRepo.quantity(f.store.ID, f.product.ID))
}

func TestChildOrderRejectsPartialDelivery(t *testing.T) {
	f := newOrderFixture(t)
	f.invRepo.seed(f.store.ID, f.product.ID, 100)

	order := f.createOrder(t, 10)
	res, err := f.deliver(t, order.ID, order.Lines[0].ID, 4)
	require.NoError(t, err)
	child := res.ChildOrder
	require.NotNil(t, child)

	// Partial delivery on the child would need a second split level.
	_, err = f.deliver(t, child.ID, child.Lines[0].ID, 3)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)

	// Full delivery settles it.
	res2, err := f.deliver(t, child.ID, child.Lines[0].ID, 6)
	require.NoError(t, err)
	assert.Nil(t, res2.ChildOrder)
	assert.Equal(t, model.OrderStatusFulfilled, res2.Order.Status)
}

func TestDeliverOverRemainingFails(t *testing.T) {
	f := newOrderFixture(t)
	f.invRepo.seed(f.store.ID, f.product.ID, 100)

	order := f.createOrder(t, 5)
	_, err := f.deliver(t, order.ID, order.Lines[0].ID, 6)
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity)
	assert.Equal(t, 100, f.invRepo.quantity(f.store.ID, f.product.ID))
}

func TestDeliverWithoutStockFails(t *testing.T) {
	f := newOrderFixture(t)
	f.invRepo.seed(f.store.ID, f.product.ID, 2)

	order := f.createOrder(t, 5)
	_, err := f.deliver(t, order.ID, order.Lines[0].ID, 5)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
	assert.Equal(t, 2, f.invRepo.quantity(f.store.ID, f.product.ID))
}

func TestFinalizeIsIdempotent(t *testing.T) {
	f := newOrderFixture(t)
	f.invRepo.seed(f.store.ID, f.product.ID, 100)

	order := f.createOrder(t, 5)
	_, err := f.deliver(t, order.ID, order.Lines[0].ID, 5)
	require.NoError(t, err)

	first, err := f.svc.Finalize(context.Background(), uuid.NewString(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusFinalized, first.Status)
	require.NotNil(t, first.FinalizedAt)

	second, err := f.svc.Finalize(context.Background(), uuid.NewString(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusFinalized, second.Status)

	// Exactly one sale record.
	assert.Len(t, f.orderRepo.sales, 1)
}

func TestFinalizeRequiresFullDelivery(t *testing.T) {
	f := newOrderFixture(t)
	f.invRepo.seed(f.store.ID, f.product.ID, 100)

	order := f.createOrder(t, 5)
	_, err := f.svc.Finalize(context.Background(), uuid.NewString(), order.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
	assert.Empty(t, f.orderRepo.sales)
}

func TestCancelFinalizedOrderFails(t *testing.T) {
	f := newOrderFixture(t)
	f.invRepo.seed(f.store.ID, f.product.ID, 100)

	order := f.createOrder(t, 5)
	_, err := f.deliver(t, order.ID, order.Lines[0].ID, 5)
	require.NoError(t, err)
	_, err = f.svc.Finalize(context.Background(), uuid.NewString(), order.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), uuid.NewString(), order.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestCancelPendingOrder(t *testing.T) {
	f := newOrderFixture(t)

	order := f.createOrder(t, 5)
	cancelled, err := f.svc.Cancel(context.Background(), uuid.NewString(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)

	// Delivery on a cancelled order is rejected.
	_, err = f.deliver(t, order.ID, order.Lines[0].ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestApplyCreditOnOrderReducesTotalDue(t *testing.T) {
	f := newOrderFixture(t)
	order := f.createOrder(t, 10) // total 100

	issueNote(t, f.noteRepo, f.customer.ID, "30", 10)

	res, err := f.svc.ApplyCredit(context.Background(), uuid.NewString(), order.ID, ApplyCreditRequest{})
	require.NoError(t, err)
	assert.True(t, res.AmountApplied.Equal(decimal.NewFromInt(30)))

	reloaded, err := f.svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.TotalDue.Equal(decimal.NewFromInt(70)))
}
