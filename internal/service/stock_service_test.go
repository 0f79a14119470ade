package service

import (
	"context"
	"testing"

	"github.com/prontto/backend/internal/model"
	"github.com/prontto/backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStockFixture() (StockService, *fakeInventoryRepo, *fakeAuditRepo) {
	invRepo := newFakeInventoryRepo()
	auditRepo := &fakeAuditRepo{}
	svc := NewStockService(invRepo, auditRepo, fakeTxManager{}, nil)
	return svc, invRepo, auditRepo
}

func TestRegisterStockCreatesRecordAndMovement(t *testing.T) {
	svc, invRepo, auditRepo := newStockFixture()
	storeID := uuid.New()
	productID := uuid.New()

	res, err := svc.RegisterStock(context.Background(), uuid.NewString(), RegisterStockRequest{
		StoreID:   storeID.String(),
		ProductID: productID.String(),
		Quantity:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Quantity)
	assert.Equal(t, 10, invRepo.quantity(storeID, productID))

	require.Len(t, invRepo.movements, 1)
	assert.Equal(t, model.MovementRefRegister, invRepo.movements[0].RefType)
	assert.Equal(t, 10, invRepo.movements[0].QuantityChanged)
	assert.Equal(t, 10, invRepo.movements[0].StockAfter)

	require.Len(t, auditRepo.entries, 1)
	assert.Equal(t, model.ActionRegisterStock, auditRepo.entries[0].Action)
}

func TestRegisterStockAccumulates(t *testing.T) {
	svc, invRepo, _ := newStockFixture()
	storeID := uuid.New()
	productID := uuid.New()
	invRepo.seed(storeID, productID, 5)

	res, err := svc.RegisterStock(context.Background(), uuid.NewString(), RegisterStockRequest{
		StoreID:   storeID.String(),
		ProductID: productID.String(),
		Quantity:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, res.Quantity)
}

func TestAdjustRejectsNegativeResult(t *testing.T) {
	svc, invRepo, _ := newStockFixture()
	storeID := uuid.New()
	productID := uuid.New()
	invRepo.seed(storeID, productID, 5)

	_, err := svc.Adjust(context.Background(), storeID, productID, -6, model.MovementRefDelivery, nil)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	// The failed decrement must leave no trace.
	assert.Equal(t, 5, invRepo.quantity(storeID, productID))
	assert.Empty(t, invRepo.movements)
}

func TestAdjustAllowsDrainToZero(t *testing.T) {
	svc, invRepo, _ := newStockFixture()
	storeID := uuid.New()
	productID := uuid.New()
	invRepo.seed(storeID, productID, 5)

	after, err := svc.Adjust(context.Background(), storeID, productID, -5, model.MovementRefDelivery, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, after)
}

func TestGetReturnsZeroForUnknownPair(t *testing.T) {
	svc, _, _ := newStockFixture()

	qty, err := svc.Get(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, qty)
}

func TestRegisterStockRejectsNonPositiveQuantity(t *testing.T) {
	svc, _, _ := newStockFixture()

	_, err := svc.RegisterStock(context.Background(), uuid.NewString(), RegisterStockRequest{
		StoreID:   uuid.NewString(),
		ProductID: uuid.NewString(),
		Quantity:  0,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity)
}
