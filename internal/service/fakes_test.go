package service

import (
	"context"
	"time"

	"github.com/prontto/backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. They implement just enough of the repository
// contracts for the service tests: keyed lookups, gorm.ErrRecordNotFound on
// misses and gorm.ErrDuplicatedKey on unique collisions. Locking methods
// behave like their plain counterparts since each test is single-threaded.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- inventory ---

type fakeInventoryRepo struct {
	records   map[string]*model.InventoryRecord
	movements []model.StockMovement
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{records: make(map[string]*model.InventoryRecord)}
}

func invKey(storeID, productID uuid.UUID) string {
	return storeID.String() + "/" + productID.String()
}

func (r *fakeInventoryRepo) seed(storeID, productID uuid.UUID, qty int) {
	r.records[invKey(storeID, productID)] = &model.InventoryRecord{
		ID:        uuid.New(),
		StoreID:   storeID,
		ProductID: productID,
		Quantity:  qty,
	}
}

func (r *fakeInventoryRepo) quantity(storeID, productID uuid.UUID) int {
	if rec, ok := r.records[invKey(storeID, productID)]; ok {
		return rec.Quantity
	}
	return 0
}

func (r *fakeInventoryRepo) Find(_ context.Context, storeID, productID uuid.UUID) (*model.InventoryRecord, error) {
	rec, ok := r.records[invKey(storeID, productID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeInventoryRepo) FindForUpdate(_ context.Context, storeID, productID uuid.UUID) (*model.InventoryRecord, error) {
	key := invKey(storeID, productID)
	rec, ok := r.records[key]
	if !ok {
		rec = &model.InventoryRecord{ID: uuid.New(), StoreID: storeID, ProductID: productID}
		r.records[key] = rec
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeInventoryRepo) Save(_ context.Context, record *model.InventoryRecord) error {
	cp := *record
	r.records[invKey(record.StoreID, record.ProductID)] = &cp
	return nil
}

func (r *fakeInventoryRepo) List(_ context.Context, storeID *uuid.UUID, _, _ int) ([]model.InventoryRecord, int64, error) {
	var out []model.InventoryRecord
	for _, rec := range r.records {
		if storeID != nil && rec.StoreID != *storeID {
			continue
		}
		out = append(out, *rec)
	}
	return out, int64(len(out)), nil
}

func (r *fakeInventoryRepo) CreateMovement(_ context.Context, movement *model.StockMovement) error {
	movement.ID = uuid.New()
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *fakeInventoryRepo) ListMovements(_ context.Context, storeID, productID *uuid.UUID, _, _ int) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if storeID != nil && m.StoreID != *storeID {
			continue
		}
		if productID != nil && m.ProductID != *productID {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

// --- audit ---

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	entry.ID = uuid.New()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, action string, _, _ int) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	for _, e := range r.entries {
		if action != "" && e.Action != action {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

// --- transfers ---

type fakeTransferRepo struct {
	transfers map[uuid.UUID]*model.Transfer
}

func newFakeTransferRepo() *fakeTransferRepo {
	return &fakeTransferRepo{transfers: make(map[uuid.UUID]*model.Transfer)}
}

func (r *fakeTransferRepo) Create(_ context.Context, transfer *model.Transfer) error {
	transfer.ID = uuid.New()
	for i := range transfer.Lines {
		transfer.Lines[i].ID = uuid.New()
		transfer.Lines[i].TransferID = transfer.ID
	}
	cp := *transfer
	r.transfers[transfer.ID] = &cp
	return nil
}

func (r *fakeTransferRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Transfer, error) {
	t, ok := r.transfers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTransferRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transfer, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeTransferRepo) Save(_ context.Context, transfer *model.Transfer) error {
	cp := *transfer
	r.transfers[transfer.ID] = &cp
	return nil
}

func (r *fakeTransferRepo) List(_ context.Context, status string, _, _ int) ([]model.Transfer, int64, error) {
	var out []model.Transfer
	for _, t := range r.transfers {
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

// --- orders ---

type fakeOrderRepo struct {
	orders  map[uuid.UUID]*model.Order
	events  []model.DeliveryEvent
	tickets map[string]bool
	sales   map[uuid.UUID]*model.Sale
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:  make(map[uuid.UUID]*model.Order),
		tickets: make(map[string]bool),
		sales:   make(map[uuid.UUID]*model.Sale),
	}
}

func copyOrder(o *model.Order) *model.Order {
	cp := *o
	cp.Lines = make([]model.OrderLine, len(o.Lines))
	copy(cp.Lines, o.Lines)
	return &cp
}

func (r *fakeOrderRepo) Create(_ context.Context, order *model.Order) error {
	order.ID = uuid.New()
	for i := range order.Lines {
		order.Lines[i].ID = uuid.New()
		order.Lines[i].OrderID = order.ID
	}
	r.orders[order.ID] = copyOrder(order)
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyOrder(o), nil
}

func (r *fakeOrderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeOrderRepo) FindLineByID(_ context.Context, id uuid.UUID) (*model.OrderLine, error) {
	for _, o := range r.orders {
		for i := range o.Lines {
			if o.Lines[i].ID == id {
				cp := o.Lines[i]
				return &cp, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) Save(_ context.Context, order *model.Order) error {
	stored, ok := r.orders[order.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	// Association writes go through SaveLine, matching the real repository.
	lines := stored.Lines
	cp := *order
	cp.Lines = lines
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) SaveLine(_ context.Context, line *model.OrderLine) error {
	o, ok := r.orders[line.OrderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range o.Lines {
		if o.Lines[i].ID == line.ID {
			o.Lines[i] = *line
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) CreateDeliveryEvent(_ context.Context, event *model.DeliveryEvent) error {
	if r.tickets[event.TicketNumber] {
		return gorm.ErrDuplicatedKey
	}
	event.ID = uuid.New()
	r.tickets[event.TicketNumber] = true
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeOrderRepo) CreateSale(_ context.Context, sale *model.Sale) error {
	if _, exists := r.sales[sale.OrderID]; exists {
		return gorm.ErrDuplicatedKey
	}
	sale.ID = uuid.New()
	cp := *sale
	r.sales[sale.OrderID] = &cp
	return nil
}

func (r *fakeOrderRepo) FindSaleByOrderID(_ context.Context, orderID uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeOrderRepo) List(_ context.Context, customerID *uuid.UUID, status string, _, _ int) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.orders {
		if customerID != nil && o.CustomerID != *customerID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, *copyOrder(o))
	}
	return out, int64(len(out)), nil
}

// --- credit notes ---

type fakeCreditNoteRepo struct {
	notes []*model.CreditNote
}

func (r *fakeCreditNoteRepo) Create(_ context.Context, note *model.CreditNote) error {
	note.ID = uuid.New()
	cp := *note
	r.notes = append(r.notes, &cp)
	return nil
}

func (r *fakeCreditNoteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CreditNote, error) {
	for _, n := range r.notes {
		if n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCreditNoteRepo) activeFor(customerID uuid.UUID, asOf time.Time, creditOnly bool) []model.CreditNote {
	var out []model.CreditNote
	for _, n := range r.notes {
		if n.CustomerID != customerID || n.Status != model.CreditNoteStatusActive {
			continue
		}
		if !n.ExpiresAt.After(asOf) {
			continue
		}
		if creditOnly && n.Kind != model.CreditNoteKindCredit {
			continue
		}
		out = append(out, *n)
	}
	// oldest expiry first
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ExpiresAt.Before(out[j-1].ExpiresAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func (r *fakeCreditNoteRepo) FindActiveByCustomer(_ context.Context, customerID uuid.UUID, asOf time.Time) ([]model.CreditNote, error) {
	return r.activeFor(customerID, asOf, false), nil
}

func (r *fakeCreditNoteRepo) FindActiveCreditForUpdate(_ context.Context, customerID uuid.UUID, asOf time.Time) ([]model.CreditNote, error) {
	return r.activeFor(customerID, asOf, true), nil
}

func (r *fakeCreditNoteRepo) Save(_ context.Context, note *model.CreditNote) error {
	for i, n := range r.notes {
		if n.ID == note.ID {
			cp := *note
			r.notes[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeCreditNoteRepo) ExpireBefore(_ context.Context, now time.Time) (int64, error) {
	var affected int64
	for _, n := range r.notes {
		if n.Status == model.CreditNoteStatusActive && !n.ExpiresAt.After(now) {
			n.Status = model.CreditNoteStatusExpired
			affected++
		}
	}
	return affected, nil
}

func (r *fakeCreditNoteRepo) List(_ context.Context, customerID *uuid.UUID, status string, _, _ int) ([]model.CreditNote, int64, error) {
	var out []model.CreditNote
	for _, n := range r.notes {
		if customerID != nil && n.CustomerID != *customerID {
			continue
		}
		if status != "" && n.Status != status {
			continue
		}
		out = append(out, *n)
	}
	return out, int64(len(out)), nil
}

// --- returns ---

type fakeReturnRepo struct {
	returns map[uuid.UUID]*model.Return
}

func newFakeReturnRepo() *fakeReturnRepo {
	return &fakeReturnRepo{returns: make(map[uuid.UUID]*model.Return)}
}

func (r *fakeReturnRepo) Create(_ context.Context, ret *model.Return) error {
	ret.ID = uuid.New()
	cp := *ret
	r.returns[ret.ID] = &cp
	return nil
}

func (r *fakeReturnRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Return, error) {
	ret, ok := r.returns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *ret
	return &cp, nil
}

func (r *fakeReturnRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Return, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeReturnRepo) Save(_ context.Context, ret *model.Return) error {
	cp := *ret
	r.returns[ret.ID] = &cp
	return nil
}

func (r *fakeReturnRepo) List(_ context.Context, customerID *uuid.UUID, status string, _, _ int) ([]model.Return, int64, error) {
	var out []model.Return
	for _, ret := range r.returns {
		if customerID != nil && ret.CustomerID != *customerID {
			continue
		}
		if status != "" && ret.Status != status {
			continue
		}
		out = append(out, *ret)
	}
	return out, int64(len(out)), nil
}

// --- catalog / directory ---

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *fakeProductRepo) Create(_ context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	cp := *product
	r.products[product.ID] = &cp
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *model.Product) error {
	cp := *product
	r.products[product.ID] = &cp
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) FindByCode(_ context.Context, code string) (*model.Product, error) {
	for _, p := range r.products {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) List(_ context.Context, _, _ int, _ string) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

type fakeStoreRepo struct {
	stores map[uuid.UUID]*model.Store
}

func newFakeStoreRepo() *fakeStoreRepo {
	return &fakeStoreRepo{stores: make(map[uuid.UUID]*model.Store)}
}

func (r *fakeStoreRepo) Create(_ context.Context, store *model.Store) error {
	if store.ID == uuid.Nil {
		store.ID = uuid.New()
	}
	cp := *store
	r.stores[store.ID] = &cp
	return nil
}

func (r *fakeStoreRepo) Update(_ context.Context, store *model.Store) error {
	cp := *store
	r.stores[store.ID] = &cp
	return nil
}

func (r *fakeStoreRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Store, error) {
	s, ok := r.stores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStoreRepo) List(_ context.Context, _, _ int) ([]model.Store, int64, error) {
	var out []model.Store
	for _, s := range r.stores {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

type fakeCustomerRepo struct {
	customers map[uuid.UUID]*model.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[uuid.UUID]*model.Customer)}
}

func (r *fakeCustomerRepo) Create(_ context.Context, customer *model.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	cp := *customer
	r.customers[customer.ID] = &cp
	return nil
}

func (r *fakeCustomerRepo) Update(_ context.Context, customer *model.Customer) error {
	cp := *customer
	r.customers[customer.ID] = &cp
	return nil
}

func (r *fakeCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCustomerRepo) List(_ context.Context, _, _ int, _ string) ([]model.Customer, int64, error) {
	var out []model.Customer
	for _, c := range r.customers {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

type fakeSupplierRepo struct {
	suppliers map[uuid.UUID]*model.Supplier
}

func newFakeSupplierRepo() *fakeSupplierRepo {
	return &fakeSupplierRepo{suppliers: make(map[uuid.UUID]*model.Supplier)}
}

func (r *fakeSupplierRepo) Create(_ context.Context, supplier *model.Supplier) error {
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	cp := *supplier
	r.suppliers[supplier.ID] = &cp
	return nil
}

func (r *fakeSupplierRepo) Update(_ context.Context, supplier *model.Supplier) error {
	cp := *supplier
	r.suppliers[supplier.ID] = &cp
	return nil
}

func (r *fakeSupplierRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSupplierRepo) List(_ context.Context, _, _ int) ([]model.Supplier, int64, error) {
	var out []model.Supplier
	for _, s := range r.suppliers {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}
