package ledger

import (
	"errors"
	"testing"

	"vetclinic/internal/model"
)

func TestApplyStockTransaction(t *testing.T) {
	tests := []struct {
		name      string
		item      model.InventoryItem
		txType    string
		qty       int
		wantStock int
		wantErr   error
	}{
		{"purchase adds", model.InventoryItem{CurrentStock: 10}, model.TxTypePurchase, 5, 15, nil},
		{"adjustment adds", model.InventoryItem{CurrentStock: 10}, model.TxTypeAdjustment, 3, 13, nil},
		{"use subtracts", model.InventoryItem{CurrentStock: 50, ReorderPoint: 20}, model.TxTypeUsed, 35, 15, nil},
		{"expired subtracts", model.InventoryItem{CurrentStock: 8}, model.TxTypeExpired, 8, 0, nil},
		{"damaged subtracts", model.InventoryItem{CurrentStock: 8}, model.TxTypeDamaged, 2, 6, nil},
		{"use beyond available", model.InventoryItem{CurrentStock: 50}, model.TxTypeUsed, 60, 50, ErrInsufficientStock},
		{"use beyond unreserved", model.InventoryItem{CurrentStock: 30, ReservedStock: 25}, model.TxTypeUsed, 10, 30, ErrInsufficientStock},
		{"zero quantity", model.InventoryItem{CurrentStock: 10}, model.TxTypePurchase, 0, 10, ErrInvalidQuantity},
		{"negative quantity", model.InventoryItem{CurrentStock: 10}, model.TxTypeUsed, -4, 10, ErrInvalidQuantity},
		{"unknown type", model.InventoryItem{CurrentStock: 10}, "transfer", 1, 10, ErrUnknownTransactionType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyStockTransaction(tt.item, tt.txType, tt.qty)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.CurrentStock != tt.wantStock {
				t.Errorf("CurrentStock = %d, want %d", got.CurrentStock, tt.wantStock)
			}
		})
	}
}

func TestUseCrossingReorderPointStillCommits(t *testing.T) {
	item := model.InventoryItem{CurrentStock: 50, ReorderPoint: 20}

	got, err := ApplyStockTransaction(item, model.TxTypeUsed, 35)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CurrentStock != 15 {
		t.Fatalf("CurrentStock = %d, want 15", got.CurrentStock)
	}
	if status := StockStatus(got); status != model.StockLow {
		t.Errorf("status = %q, want %q", status, model.StockLow)
	}
	if !NeedsReorder(got) {
		t.Error("NeedsReorder() = false, want true at 15 <= 20")
	}
}

func TestStockStatus(t *testing.T) {
	tests := []struct {
		name    string
		current int
		reorder int
		want    string
	}{
		{"zero is out regardless of reorder point", 0, 100, model.StockOut},
		{"below reorder point", 5, 20, model.StockLow},
		{"at reorder point is low", 20, 20, model.StockLow},
		{"just above reorder point", 21, 20, model.StockIn},
		{"well stocked", 500, 20, model.StockIn},
		{"zero reorder point", 1, 0, model.StockIn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := model.InventoryItem{CurrentStock: tt.current, ReorderPoint: tt.reorder}
			got := StockStatus(item)
			if got != tt.want {
				t.Errorf("StockStatus() = %q, want %q", got, tt.want)
			}
			if again := StockStatus(item); again != got {
				t.Errorf("StockStatus() not idempotent: %q then %q", got, again)
			}
		})
	}
}

func TestAvailableNeverExceedsCurrentAfterSequence(t *testing.T) {
	item := model.InventoryItem{CurrentStock: 100, ReservedStock: 10, ReorderPoint: 15}

	seq := []struct {
		txType string
		qty    int
	}{
		{model.TxTypeUsed, 40},
		{model.TxTypePurchase, 25},
		{model.TxTypeExpired, 30},
		{model.TxTypeUsed, 60}, // over available, must be rejected
		{model.TxTypeDamaged, 5},
		{model.TxTypeAdjustment, 12},
	}

	for i, step := range seq {
		next, err := ApplyStockTransaction(item, step.txType, step.qty)
		if err == nil {
			item = next
		} else if item.CurrentStock != next.CurrentStock {
			t.Fatalf("step %d: rejected transaction changed stock", i)
		}
		if item.AvailableStock() > item.CurrentStock {
			t.Fatalf("step %d: available %d > current %d", i, item.AvailableStock(), item.CurrentStock)
		}
		if item.CurrentStock < 0 {
			t.Fatalf("step %d: stock went negative: %d", i, item.CurrentStock)
		}
	}
}
