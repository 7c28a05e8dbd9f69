package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType enum constants. Purchases and adjustments add stock;
// used/expired/damaged remove it.
const (
	TxTypePurchase   = "purchase"
	TxTypeUsed       = "used"
	TxTypeExpired    = "expired"
	TxTypeDamaged    = "damaged"
	TxTypeAdjustment = "adjustment"
)

// Derived stock status values, recomputed on every read
const (
	StockOut = "out_of_stock"
	StockLow = "low_stock"
	StockIn  = "in_stock"
)

// InventoryItem is a stocked product (medication, consumable, retail good).
// CurrentStock is mutated only by applying StockTransactions.
type InventoryItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU           string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Category      string          `gorm:"type:varchar(100);index" json:"category"`
	CurrentStock  int             `gorm:"type:int;not null;default:0" json:"current_stock"`  // >= 0
	ReservedStock int             `gorm:"type:int;not null;default:0" json:"reserved_stock"` // committed to open appointments
	ReorderPoint  int             `gorm:"type:int;not null;default:0" json:"reorder_point"`
	MaximumStock  int             `gorm:"type:int;not null;default:0" json:"maximum_stock"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unit_cost"`
	HasExpiration bool            `gorm:"default:false" json:"has_expiration"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// AvailableStock is current stock minus the reserved quantity
func (i InventoryItem) AvailableStock() int {
	return i.CurrentStock - i.ReservedStock
}

// StockTransaction is an immutable audit record of one signed stock change.
// StockAfter snapshots the item's stock level right after the change.
type StockTransaction struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ItemID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"item_id"`
	Item            *InventoryItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	TransactionType string         `gorm:"type:varchar(20);not null;index" json:"transaction_type"`
	Quantity        int            `gorm:"type:int;not null" json:"quantity"` // > 0; direction comes from the type
	Reason          string         `gorm:"type:varchar(255);not null" json:"reason"`
	BatchNumber     string         `gorm:"type:varchar(100)" json:"batch_number"`
	LotNumber       string         `gorm:"type:varchar(100)" json:"lot_number"`
	ExpirationDate  *time.Time     `gorm:"type:date" json:"expiration_date"`
	StockAfter      int            `gorm:"type:int;not null" json:"stock_after"`
	PerformedBy     *uuid.UUID     `gorm:"type:uuid" json:"performed_by"`
	CreatedAt       time.Time      `json:"created_at"`
}
