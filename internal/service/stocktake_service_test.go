package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"stocksage/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeTxManager emulates the transaction boundary with a single lock, so
// concurrent reconciliations serialize the way row locking does in Postgres.
type fakeTxManager struct {
	mu sync.Mutex
}

func (m *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*model.Product // keyed by barcode
	failOn   map[string]error          // barcode -> forced error on stock update
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products: make(map[string]*model.Product),
		failOn:   make(map[string]error),
	}
}

func (r *fakeProductRepo) add(barcode string, stock int) *model.Product {
	b := barcode
	p := &model.Product{
		ID:           uuid.New(),
		SKU:          "SKU-" + barcode,
		Name:         "Product " + barcode,
		CurrentStock: stock,
		Barcode:      &b,
		OwnerUserID:  "owner-1",
	}
	r.products[barcode] = p
	return p
}

func (r *fakeProductRepo) Create(ctx context.Context, product *model.Product) error { return nil }
func (r *fakeProductRepo) Update(ctx context.Context, product *model.Product) error { return nil }
func (r *fakeProductRepo) Delete(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	return nil
}
func (r *fakeProductRepo) FindByID(ctx context.Context, ownerUserID string, id uuid.UUID) (*model.Product, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeProductRepo) FindBySKU(ctx context.Context, ownerUserID, sku string) (*model.Product, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeProductRepo) List(ctx context.Context, ownerUserID string, page, limit int, search string) ([]model.Product, int64, error) {
	return nil, 0, nil
}
func (r *fakeProductRepo) ListLowStock(ctx context.Context, ownerUserID string) ([]model.Product, error) {
	return nil, nil
}

func (r *fakeProductRepo) FindByBarcodeForUpdate(ctx context.Context, ownerUserID, barcode string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[barcode]
	if !ok || p.OwnerUserID != ownerUserID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeProductRepo) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for barcode, p := range r.products {
		if p.ID == id {
			if err, ok := r.failOn[barcode]; ok {
				return err
			}
			p.CurrentStock = stock
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeLogRepo struct {
	mu      sync.Mutex
	entries []model.InventoryLogEntry
}

func (r *fakeLogRepo) Append(ctx context.Context, entry *model.InventoryLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeLogRepo) ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.InventoryLogEntry, int64, error) {
	return nil, 0, nil
}

func newStocktakeService(products *fakeProductRepo, logs *fakeLogRepo) StocktakeService {
	return NewStocktakeService(products, logs, &fakeTxManager{}, nil)
}

func TestReconcilePreservesOrderAndCounts(t *testing.T) {
	products := newFakeProductRepo()
	logs := &fakeLogRepo{}
	products.add("111", 5)
	products.add("333", 8)

	svc := newStocktakeService(products, logs)
	items := []StocktakeItem{
		{Barcode: "111", Quantity: 7},
		{Barcode: "222", Quantity: 4}, // unknown barcode
		{Barcode: "333", Quantity: 8},
	}

	result, err := svc.Reconcile(context.Background(), "owner-1", items)
	require.NoError(t, err)

	assert.Len(t, result.Results, len(items))
	assert.Equal(t, len(items), result.SuccessCount+result.FailCount)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailCount)

	// Results line up with input order.
	for i, item := range items {
		assert.Equal(t, item.Barcode, result.Results[i].Barcode)
	}
	assert.False(t, result.Results[1].Success)
	assert.Equal(t, "Product not found", result.Results[1].Error)
}

func TestReconcileComputesDeltaAndLogType(t *testing.T) {
	products := newFakeProductRepo()
	logs := &fakeLogRepo{}
	up := products.add("add-me", 3)
	down := products.add("remove-me", 10)

	svc := newStocktakeService(products, logs)
	result, err := svc.Reconcile(context.Background(), "owner-1", []StocktakeItem{
		{Barcode: "add-me", Quantity: 9},
		{Barcode: "remove-me", Quantity: 4},
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.SuccessCount)

	first := result.Results[0]
	assert.Equal(t, 3, first.PreviousStock)
	assert.Equal(t, 9, first.NewStock)
	assert.Equal(t, 6, first.QuantityChange)
	assert.Equal(t, 9, products.products["add-me"].CurrentStock)

	second := result.Results[1]
	assert.Equal(t, -6, second.QuantityChange)

	require.Len(t, logs.entries, 2)
	assert.Equal(t, up.ID, logs.entries[0].ProductID)
	assert.Equal(t, model.LogTypeAdjustmentAdd, logs.entries[0].Type)
	assert.Equal(t, 6, logs.entries[0].QuantityChange)
	assert.Equal(t, 9, logs.entries[0].Quantity)
	assert.Equal(t, "Bulk Scan Stocktake", logs.entries[0].Reference)
	assert.Equal(t, "owner-1", logs.entries[0].CreatedBy)

	assert.Equal(t, down.ID, logs.entries[1].ProductID)
	assert.Equal(t, model.LogTypeAdjustmentSub, logs.entries[1].Type)
	assert.Equal(t, -6, logs.entries[1].QuantityChange)
}

func TestReconcileSecondSubmissionIsLoggedNoOp(t *testing.T) {
	products := newFakeProductRepo()
	logs := &fakeLogRepo{}
	products.add("twice", 2)

	svc := newStocktakeService(products, logs)
	items := []StocktakeItem{{Barcode: "twice", Quantity: 6}}

	first, err := svc.Reconcile(context.Background(), "owner-1", items)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Results[0].QuantityChange)

	second, err := svc.Reconcile(context.Background(), "owner-1", items)
	require.NoError(t, err)
	assert.True(t, second.Results[0].Success)
	assert.Equal(t, 0, second.Results[0].QuantityChange)
	assert.Equal(t, 6, second.Results[0].NewStock)

	// Zero-change entries are still written for audit completeness.
	require.Len(t, logs.entries, 2)
	assert.Equal(t, 0, logs.entries[1].QuantityChange)
	assert.Equal(t, model.LogTypeAdjustmentAdd, logs.entries[1].Type)
}

func TestReconcilePerItemFailureDoesNotAbortSiblings(t *testing.T) {
	products := newFakeProductRepo()
	logs := &fakeLogRepo{}
	products.add("ok", 1)
	products.add("broken", 1)
	products.failOn["broken"] = gorm.ErrInvalidTransaction

	svc := newStocktakeService(products, logs)
	result, err := svc.Reconcile(context.Background(), "owner-1", []StocktakeItem{
		{Barcode: "broken", Quantity: 5},
		{Barcode: "ok", Quantity: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailCount)
	assert.False(t, result.Results[0].Success)
	assert.True(t, result.Results[1].Success)
	assert.Equal(t, 5, products.products["ok"].CurrentStock)
}

func TestReconcileFailedItemSerializesCompactly(t *testing.T) {
	products := newFakeProductRepo()
	logs := &fakeLogRepo{}

	svc := newStocktakeService(products, logs)
	result, err := svc.Reconcile(context.Background(), "owner-1", []StocktakeItem{
		{Barcode: "missing", Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)

	// Failed items carry no stock figures; zeros here would read as real
	// stock levels.
	raw, err := json.Marshal(result.Results[0])
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, map[string]interface{}{
		"barcode": "missing",
		"success": false,
		"error":   "Product not found",
	}, fields)
}

func TestReconcileConcurrentSameBarcodeStaysConsistent(t *testing.T) {
	products := newFakeProductRepo()
	logs := &fakeLogRepo{}
	products.add("contended", 10)

	svc := newStocktakeService(products, logs)

	var wg sync.WaitGroup
	for _, qty := range []int{25, 40} {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			_, err := svc.Reconcile(context.Background(), "owner-1", []StocktakeItem{
				{Barcode: "contended", Quantity: q},
			})
			assert.NoError(t, err)
		}(qty)
	}
	wg.Wait()

	final := products.products["contended"].CurrentStock
	assert.Contains(t, []int{25, 40}, final)

	// The cumulative log must agree with the final stock: initial stock plus
	// the sum of deltas equals the current level.
	require.Len(t, logs.entries, 2)
	sum := 0
	for _, e := range logs.entries {
		sum += e.QuantityChange
	}
	assert.Equal(t, final, 10+sum)
}
