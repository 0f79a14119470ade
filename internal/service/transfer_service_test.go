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

type transferFixture struct {
	svc          TransferService
	transferRepo *fakeTransferRepo
	invRepo      *fakeInventoryRepo
	storeRepo    *fakeStoreRepo
	source       uuid.UUID
	dest         uuid.UUID
}

func newTransferFixture(t *testing.T) *transferFixture {
	t.Helper()

	invRepo := newFakeInventoryRepo()
	transferRepo := newFakeTransferRepo()
	storeRepo := newFakeStoreRepo()
	auditRepo := &fakeAuditRepo{}
	tx := fakeTxManager{}

	// Fixed ids keep the within-line lock order deterministic: source first.
	source := &model.Store{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Name: "central"}
	dest := &model.Store{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Name: "branch"}
	require.NoError(t, storeRepo.Create(context.Background(), source))
	require.NoError(t, storeRepo.Create(context.Background(), dest))

	stock := NewStockService(invRepo, auditRepo, tx, nil)
	svc := NewTransferService(transferRepo, invRepo, storeRepo, auditRepo, stock, tx, nil)

	return &transferFixture{
		svc:          svc,
		transferRepo: transferRepo,
		invRepo:      invRepo,
		storeRepo:    storeRepo,
		source:       source.ID,
		dest:         dest.ID,
	}
}

func (f *transferFixture) createTransfer(t *testing.T, lines ...TransferLineRequest) *model.Transfer {
	t.Helper()
	transfer, err := f.svc.Create(context.Background(), uuid.NewString(), CreateTransferRequest{
		SourceStoreID: f.source.String(),
		DestStoreID:   f.dest.String(),
		Lines:         lines,
	})
	require.NoError(t, err)
	return transfer
}

func TestCreateTransferRejectsSameStore(t *testing.T) {
	f := newTransferFixture(t)
	productID := uuid.New()
	f.invRepo.seed(f.source, productID, 10)

	_, err := f.svc.Create(context.Background(), uuid.NewString(), CreateTransferRequest{
		SourceStoreID: f.source.String(),
		DestStoreID:   f.source.String(),
		Lines:         []TransferLineRequest{{ProductID: productID.String(), Quantity: 1}},
	})
	require.Error(t, err)

	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_INPUT", de.Code)
}

func TestCreateTransferRequiresSourceInventoryRecord(t *testing.T) {
	f := newTransferFixture(t)

	_, err := f.svc.Create(context.Background(), uuid.NewString(), CreateTransferRequest{
		SourceStoreID: f.source.String(),
		DestStoreID:   f.dest.String(),
		Lines:         []TransferLineRequest{{ProductID: uuid.NewString(), Quantity: 1}},
	})
	require.Error(t, err)

	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_INPUT", de.Code)
}

func TestCreateTransferHasNoInventoryEffect(t *testing.T) {
	f := newTransferFixture(t)
	productID := uuid.New()
	f.invRepo.seed(f.source, productID, 10)

	transfer := f.createTransfer(t, TransferLineRequest{ProductID: productID.String(), Quantity: 4})
	assert.Equal(t, model.TransferStatusPending, transfer.Status)
	assert.Equal(t, 10, f.invRepo.quantity(f.source, productID))
	assert.Equal(t, 0, f.invRepo.quantity(f.dest, productID))
}

func TestCompleteTransferMovesStock(t *testing.T) {
	f := newTransferFixture(t)
	p1 := uuid.New()
	p2 := uuid.New()
	f.invRepo.seed(f.source, p1, 10)
	f.invRepo.seed(f.source, p2, 7)

	transfer := f.createTransfer(t,
		TransferLineRequest{ProductID: p1.String(), Quantity: 4},
		TransferLineRequest{ProductID: p2.String(), Quantity: 7},
	)

	completed, err := f.svc.Complete(context.Background(), uuid.NewString(), transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransferStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	assert.Equal(t, 6, f.invRepo.quantity(f.source, p1))
	assert.Equal(t, 4, f.invRepo.quantity(f.dest, p1))
	assert.Equal(t, 0, f.invRepo.quantity(f.source, p2))
	assert.Equal(t, 7, f.invRepo.quantity(f.dest, p2))

	// Total across both stores is conserved per product.
	assert.Equal(t, 10, f.invRepo.quantity(f.source, p1)+f.invRepo.quantity(f.dest, p1))
	assert.Equal(t, 7, f.invRepo.quantity(f.source, p2)+f.invRepo.quantity(f.dest, p2))
}

func TestCompleteTransferInsufficientStockKeepsPending(t *testing.T) {
	f := newTransferFixture(t)
	productID := uuid.New()
	f.invRepo.seed(f.source, productID, 3)

	transfer := f.createTransfer(t, TransferLineRequest{ProductID: productID.String(), Quantity: 5})

	_, err := f.svc.Complete(context.Background(), uuid.NewString(), transfer.ID)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	reloaded, err := f.svc.Get(context.Background(), transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransferStatusPending, reloaded.Status)
	assert.Equal(t, 3, f.invRepo.quantity(f.source, productID))
	assert.Equal(t, 0, f.invRepo.quantity(f.dest, productID))
}

func TestCompleteTransferTwiceFails(t *testing.T) {
	f := newTransferFixture(t)
	productID := uuid.New()
	f.invRepo.seed(f.source, productID, 10)

	transfer := f.createTransfer(t, TransferLineRequest{ProductID: productID.String(), Quantity: 2})

	_, err := f.svc.Complete(context.Background(), uuid.NewString(), transfer.ID)
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), uuid.NewString(), transfer.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)

	// No double movement.
	assert.Equal(t, 8, f.invRepo.quantity(f.source, productID))
	assert.Equal(t, 2, f.invRepo.quantity(f.dest, productID))
}

func TestCancelCompletedTransferFails(t *testing.T) {
	f := newTransferFixture(t)
	productID := uuid.New()
	f.invRepo.seed(f.source, productID, 10)

	transfer := f.createTransfer(t, TransferLineRequest{ProductID: productID.String(), Quantity: 2})

	_, err := f.svc.Complete(context.Background(), uuid.NewString(), transfer.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), uuid.NewString(), transfer.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestCancelPendingTransferLeavesStockAlone(t *testing.T) {
	f := newTransferFixture(t)
	productID := uuid.New()
	f.invRepo.seed(f.source, productID, 10)

	transfer := f.createTransfer(t, TransferLineRequest{ProductID: productID.String(), Quantity: 2})

	cancelled, err := f.svc.Cancel(context.Background(), uuid.NewString(), transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransferStatusCancelled, cancelled.Status)
	assert.Equal(t, 10, f.invRepo.quantity(f.source, productID))
}
