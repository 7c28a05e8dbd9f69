package ledger

import (
	"errors"
	"fmt"

	"vetclinic/internal/model"
)

// Validation errors surfaced to the caller; none of these mutate the item.
var (
	ErrInvalidQuantity        = errors.New("transaction quantity must be greater than zero")
	ErrInsufficientStock      = errors.New("cannot use more than available stock")
	ErrUnknownTransactionType = errors.New("unknown transaction type")
)

// ApplyStockTransaction applies one signed stock change and returns the
// updated item. Purchases and adjustments add stock; used/expired/damaged
// remove it. Removing more than the available (unreserved) quantity is a
// validation error and leaves the item untouched.
func ApplyStockTransaction(item model.InventoryItem, txType string, quantity int) (model.InventoryItem, error) {
	if quantity <= 0 {
		return item, ErrInvalidQuantity
	}

	switch txType {
	case model.TxTypePurchase, model.TxTypeAdjustment:
		item.CurrentStock += quantity
	case model.TxTypeUsed, model.TxTypeExpired, model.TxTypeDamaged:
		if quantity > item.AvailableStock() {
			return item, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientStock, quantity, item.AvailableStock())
		}
		item.CurrentStock -= quantity
	default:
		return item, fmt.Errorf("%w: %q", ErrUnknownTransactionType, txType)
	}

	return item, nil
}

// StockStatus derives the display status for an item. Zero stock is
// out_of_stock regardless of the reorder point; the low-stock boundary is
// inclusive (stock == reorder point classifies as low).
func StockStatus(item model.InventoryItem) string {
	switch {
	case item.CurrentStock == 0:
		return model.StockOut
	case item.CurrentStock <= item.ReorderPoint:
		return model.StockLow
	default:
		return model.StockIn
	}
}

// NeedsReorder reports whether a low-stock advisory should be emitted for
// the item's current level. Informational only: transactions that cross the
// reorder point still commit.
func NeedsReorder(item model.InventoryItem) bool {
	return item.CurrentStock <= item.ReorderPoint
}
