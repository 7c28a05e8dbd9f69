package repository

import (
	"context"

	"vetclinic/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockTransactionRepository persists committed stock transactions. Records
// are append-only: there is no update or delete.
type StockTransactionRepository interface {
	Create(ctx context.Context, tx *model.StockTransaction) error
	ListByItem(ctx context.Context, itemID uuid.UUID, page, limit int) ([]model.StockTransaction, int64, error)
}

type stockTransactionRepository struct {
	db *gorm.DB
}

func NewStockTransactionRepository(db *gorm.DB) StockTransactionRepository {
	return &stockTransactionRepository{db: db}
}

func (r *stockTransactionRepository) Create(ctx context.Context, tx *model.StockTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *stockTransactionRepository) ListByItem(ctx context.Context, itemID uuid.UUID, page, limit int) ([]model.StockTransaction, int64, error) {
	var txs []model.StockTransaction
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockTransaction{}).Where("item_id = ?", itemID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := GetDB(ctx, r.db).Where("item_id = ?", itemID).
		Order("created_at desc").Offset(offset).Limit(limit).Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}
