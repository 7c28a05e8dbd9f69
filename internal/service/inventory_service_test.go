package service

import (
	"context"
	"errors"
	"testing"

	"vetclinic/internal/ledger"
	"vetclinic/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeInventoryRepo struct {
	items map[uuid.UUID]*model.InventoryItem
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{items: make(map[uuid.UUID]*model.InventoryItem)}
}

func (r *fakeInventoryRepo) Create(_ context.Context, item *model.InventoryItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	stored := *item
	r.items[item.ID] = &stored
	return nil
}

func (r *fakeInventoryRepo) Update(_ context.Context, item *model.InventoryItem) error {
	if _, ok := r.items[item.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *item
	r.items[item.ID] = &stored
	return nil
}

func (r *fakeInventoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

func (r *fakeInventoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *fakeInventoryRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeInventoryRepo) FindBySKU(_ context.Context, sku string) (*model.InventoryItem, error) {
	for _, item := range r.items {
		if item.SKU == sku {
			cp := *item
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeInventoryRepo) List(context.Context, int, int, string, string) ([]model.InventoryItem, int64, error) {
	var out []model.InventoryItem
	for _, item := range r.items {
		out = append(out, *item)
	}
	return out, int64(len(out)), nil
}

func (r *fakeInventoryRepo) ListBelowReorderPoint(context.Context) ([]model.InventoryItem, error) {
	var out []model.InventoryItem
	for _, item := range r.items {
		if item.CurrentStock <= item.ReorderPoint {
			out = append(out, *item)
		}
	}
	return out, nil
}

type fakeStockTxRepo struct {
	txs []model.StockTransaction
}

func (r *fakeStockTxRepo) Create(_ context.Context, tx *model.StockTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	r.txs = append(r.txs, *tx)
	return nil
}

func (r *fakeStockTxRepo) ListByItem(_ context.Context, itemID uuid.UUID, _, _ int) ([]model.StockTransaction, int64, error) {
	var out []model.StockTransaction
	for _, tx := range r.txs {
		if tx.ItemID == itemID {
			out = append(out, tx)
		}
	}
	return out, int64(len(out)), nil
}

func newInventoryFixture(t *testing.T, stock, reserved, reorderPoint int) (InventoryService, *fakeInventoryRepo, *fakeStockTxRepo, string) {
	t.Helper()

	itemRepo := newFakeInventoryRepo()
	txRepo := &fakeStockTxRepo{}
	svc := NewInventoryService(itemRepo, txRepo, &fakeAuditRepo{}, fakeTxManager{}, nil)

	item := &model.InventoryItem{
		SKU:           "AMOX-500",
		Name:          "Amoxicillin 500mg",
		Category:      "medication",
		CurrentStock:  stock,
		ReservedStock: reserved,
		ReorderPoint:  reorderPoint,
	}
	if err := itemRepo.Create(context.Background(), item); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return svc, itemRepo, txRepo, item.ID.String()
}

func TestApplyTransactionPurchaseAddsStock(t *testing.T) {
	svc, _, txRepo, itemID := newInventoryFixture(t, 10, 0, 5)

	res, err := svc.ApplyTransaction(context.Background(), uuid.NewString(), itemID, StockTransactionRequest{
		TransactionType: model.TxTypePurchase,
		Quantity:        15,
		Reason:          "restock order",
		BatchNumber:     "B-2041",
	})
	if err != nil {
		t.Fatalf("ApplyTransaction: %v", err)
	}

	if res.Item.CurrentStock != 25 {
		t.Errorf("current stock = %d, want 25", res.Item.CurrentStock)
	}
	if res.Transaction.StockAfter != 25 {
		t.Errorf("stock_after = %d, want 25", res.Transaction.StockAfter)
	}
	if res.LowStock {
		t.Error("25 > reorder point 5, should not flag low stock")
	}
	if len(txRepo.txs) != 1 {
		t.Fatalf("transactions = %d, want 1", len(txRepo.txs))
	}
}

func TestApplyTransactionUsedRespectsReserved(t *testing.T) {
	// 10 on hand, 4 reserved: only 6 available
	svc, itemRepo, txRepo, itemID := newInventoryFixture(t, 10, 4, 2)

	_, err := svc.ApplyTransaction(context.Background(), uuid.NewString(), itemID, StockTransactionRequest{
		TransactionType: model.TxTypeUsed,
		Quantity:        7,
		Reason:          "surgery consumption",
	})
	if !errors.Is(err, ledger.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	// Rejected transaction leaves the item and the log untouched
	stored, _ := itemRepo.FindByID(context.Background(), uuid.MustParse(itemID))
	if stored.CurrentStock != 10 {
		t.Errorf("current stock = %d, want 10", stored.CurrentStock)
	}
	if len(txRepo.txs) != 0 {
		t.Errorf("transactions = %d, want 0", len(txRepo.txs))
	}

	res, err := svc.ApplyTransaction(context.Background(), uuid.NewString(), itemID, StockTransactionRequest{
		TransactionType: model.TxTypeUsed,
		Quantity:        6,
		Reason:          "surgery consumption",
	})
	if err != nil {
		t.Fatalf("ApplyTransaction: %v", err)
	}
	if res.Item.CurrentStock != 4 {
		t.Errorf("current stock = %d, want 4", res.Item.CurrentStock)
	}
}

func TestApplyTransactionLowStockAdvisory(t *testing.T) {
	svc, _, _, itemID := newInventoryFixture(t, 10, 0, 5)

	// Drop to exactly the reorder point: boundary is inclusive
	res, err := svc.ApplyTransaction(context.Background(), uuid.NewString(), itemID, StockTransactionRequest{
		TransactionType: model.TxTypeDamaged,
		Quantity:        5,
		Reason:          "broken vials",
	})
	if err != nil {
		t.Fatalf("ApplyTransaction: %v", err)
	}
	if !res.LowStock {
		t.Error("stock == reorder point should flag low stock")
	}
	if res.Item.StockStatus != model.StockLow {
		t.Errorf("status = %s, want low_stock", res.Item.StockStatus)
	}
}

func TestApplyTransactionToZeroIsOutOfStock(t *testing.T) {
	svc, _, _, itemID := newInventoryFixture(t, 3, 0, 0)

	res, err := svc.ApplyTransaction(context.Background(), uuid.NewString(), itemID, StockTransactionRequest{
		TransactionType: model.TxTypeExpired,
		Quantity:        3,
		Reason:          "past expiry",
	})
	if err != nil {
		t.Fatalf("ApplyTransaction: %v", err)
	}
	if res.Item.StockStatus != model.StockOut {
		t.Errorf("status = %s, want out_of_stock", res.Item.StockStatus)
	}
}

func TestApplyTransactionRejectsBadQuantity(t *testing.T) {
	svc, _, _, itemID := newInventoryFixture(t, 10, 0, 5)

	for _, qty := range []int{0, -4} {
		_, err := svc.ApplyTransaction(context.Background(), uuid.NewString(), itemID, StockTransactionRequest{
			TransactionType: model.TxTypeAdjustment,
			Quantity:        qty,
			Reason:          "count correction",
		})
		if !errors.Is(err, ledger.ErrInvalidQuantity) {
			t.Errorf("qty %d: err = %v, want ErrInvalidQuantity", qty, err)
		}
	}
}

func TestCreateItemRejectsDuplicateSKU(t *testing.T) {
	svc, _, _, _ := newInventoryFixture(t, 10, 0, 5)

	_, err := svc.CreateItem(context.Background(), uuid.NewString(), CreateItemRequest{
		SKU:  "AMOX-500",
		Name: "Duplicate",
	})
	if err == nil {
		t.Fatal("expected duplicate SKU error")
	}
}

func TestDeleteItemWithReservedStock(t *testing.T) {
	svc, _, _, itemID := newInventoryFixture(t, 10, 2, 5)

	if err := svc.DeleteItem(context.Background(), uuid.NewString(), itemID); err == nil {
		t.Fatal("expected error deleting item with reserved stock")
	}
}
