package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vetclinic/internal/ledger"
	"vetclinic/internal/model"
	"vetclinic/internal/repository"
	ws "vetclinic/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateItemRequest struct {
	SKU           string `json:"sku" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Category      string `json:"category"`
	CurrentStock  int    `json:"current_stock" binding:"omitempty,min=0"`
	ReorderPoint  int    `json:"reorder_point" binding:"omitempty,min=0"`
	MaximumStock  int    `json:"maximum_stock" binding:"omitempty,min=0"`
	UnitCost      string `json:"unit_cost"`
	HasExpiration bool   `json:"has_expiration"`
}

type UpdateItemRequest struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	ReorderPoint  *int   `json:"reorder_point" binding:"omitempty,min=0"`
	MaximumStock  *int   `json:"maximum_stock" binding:"omitempty,min=0"`
	UnitCost      string `json:"unit_cost"`
	HasExpiration *bool  `json:"has_expiration"`
}

type StockTransactionRequest struct {
	TransactionType string `json:"transaction_type" binding:"required,oneof=purchase used expired damaged adjustment"`
	Quantity        int    `json:"quantity" binding:"required"`
	Reason          string `json:"reason" binding:"required"`
	BatchNumber     string `json:"batch_number"`
	LotNumber       string `json:"lot_number"`
	ExpirationDate  string `json:"expiration_date"` // YYYY-MM-DD
}

type ItemResponse struct {
	ID             string `json:"id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	CurrentStock   int    `json:"current_stock"`
	ReservedStock  int    `json:"reserved_stock"`
	AvailableStock int    `json:"available_stock"`
	ReorderPoint   int    `json:"reorder_point"`
	MaximumStock   int    `json:"maximum_stock"`
	UnitCost       string `json:"unit_cost"`
	HasExpiration  bool   `json:"has_expiration"`
	StockStatus    string `json:"stock_status"`
	NeedsReorder   bool   `json:"needs_reorder"`
}

type StockTransactionResponse struct {
	ID              string  `json:"id"`
	ItemID          string  `json:"item_id"`
	TransactionType string  `json:"transaction_type"`
	Quantity        int     `json:"quantity"`
	Reason          string  `json:"reason"`
	BatchNumber     string  `json:"batch_number,omitempty"`
	LotNumber       string  `json:"lot_number,omitempty"`
	ExpirationDate  *string `json:"expiration_date,omitempty"`
	StockAfter      int     `json:"stock_after"`
	CreatedAt       string  `json:"created_at"`
}

// ApplyTransactionResult bundles the committed transaction with the updated
// item so callers see the new level and any reorder advisory in one response.
type ApplyTransactionResult struct {
	Transaction StockTransactionResponse `json:"transaction"`
	Item        ItemResponse             `json:"item"`
	LowStock    bool                     `json:"low_stock"`
}

// --- Interface ---

type InventoryService interface {
	CreateItem(ctx context.Context, actorID string, req CreateItemRequest) (*ItemResponse, error)
	UpdateItem(ctx context.Context, actorID string, id string, req UpdateItemRequest) (*ItemResponse, error)
	DeleteItem(ctx context.Context, actorID string, id string) error
	GetItem(ctx context.Context, id string) (*ItemResponse, error)
	ListItems(ctx context.Context, page, limit int, search, category string) ([]ItemResponse, int64, error)
	ListLowStock(ctx context.Context) ([]ItemResponse, error)
	ApplyTransaction(ctx context.Context, actorID string, itemID string, req StockTransactionRequest) (*ApplyTransactionResult, error)
	ListTransactions(ctx context.Context, itemID string, page, limit int) ([]StockTransactionResponse, int64, error)
}

type inventoryService struct {
	itemRepo  repository.InventoryRepository
	txRepo    repository.StockTransactionRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	hub       *ws.Hub
}

func NewInventoryService(
	itemRepo repository.InventoryRepository,
	txRepo repository.StockTransactionRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) InventoryService {
	return &inventoryService{
		itemRepo:  itemRepo,
		txRepo:    txRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		hub:       hub,
	}
}

func (s *inventoryService) CreateItem(ctx context.Context, actorID string, req CreateItemRequest) (*ItemResponse, error) {
	if _, err := s.itemRepo.FindBySKU(ctx, req.SKU); err == nil {
		return nil, errors.New("an item with this SKU already exists")
	}

	unitCost := decimal.Zero
	if req.UnitCost != "" {
		parsed, err := decimal.NewFromString(req.UnitCost)
		if err != nil || parsed.IsNegative() {
			return nil, errors.New("invalid unit_cost")
		}
		unitCost = parsed
	}

	if req.MaximumStock > 0 && req.ReorderPoint > req.MaximumStock {
		return nil, errors.New("reorder_point cannot exceed maximum_stock")
	}

	item := model.InventoryItem{
		SKU:           req.SKU,
		Name:          req.Name,
		Category:      req.Category,
		CurrentStock:  req.CurrentStock,
		ReorderPoint:  req.ReorderPoint,
		MaximumStock:  req.MaximumStock,
		UnitCost:      unitCost,
		HasExpiration: req.HasExpiration,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.itemRepo.Create(txCtx, &item); err != nil {
			return fmt.Errorf("failed to create item: %w", err)
		}
		return s.writeInventoryAudit(txCtx, actorID, model.ActionCreateItem, item.ID.String(), item.Name, req)
	})
	if err != nil {
		return nil, err
	}

	resp := toItemResponse(item)
	return &resp, nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, actorID string, id string, req UpdateItemRequest) (*ItemResponse, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid item id: %w", err)
	}

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("item not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.Name != "" {
		item.Name = req.Name
	}
	if req.Category != "" {
		item.Category = req.Category
	}
	if req.ReorderPoint != nil {
		item.ReorderPoint = *req.ReorderPoint
	}
	if req.MaximumStock != nil {
		item.MaximumStock = *req.MaximumStock
	}
	if req.UnitCost != "" {
		parsed, parseErr := decimal.NewFromString(req.UnitCost)
		if parseErr != nil || parsed.IsNegative() {
			return nil, errors.New("invalid unit_cost")
		}
		item.UnitCost = parsed
	}
	if req.HasExpiration != nil {
		item.HasExpiration = *req.HasExpiration
	}

	if item.MaximumStock > 0 && item.ReorderPoint > item.MaximumStock {
		return nil, errors.New("reorder_point cannot exceed maximum_stock")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.itemRepo.Update(txCtx, item); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
		return s.writeInventoryAudit(txCtx, actorID, model.ActionUpdateItem, item.ID.String(), item.Name, req)
	})
	if err != nil {
		return nil, err
	}

	resp := toItemResponse(*item)
	return &resp, nil
}

func (s *inventoryService) DeleteItem(ctx context.Context, actorID string, id string) error {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid item id: %w", err)
	}

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return errors.New("item not found")
	}

	if item.ReservedStock > 0 {
		return errors.New("cannot delete an item with reserved stock")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.itemRepo.Delete(txCtx, itemID); err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		return s.writeInventoryAudit(txCtx, actorID, model.ActionDeleteItem, item.ID.String(), item.Name, nil)
	})
}

func (s *inventoryService) GetItem(ctx context.Context, id string) (*ItemResponse, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid item id: %w", err)
	}

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, errors.New("item not found")
	}

	resp := toItemResponse(*item)
	return &resp, nil
}

func (s *inventoryService) ListItems(ctx context.Context, page, limit int, search, category string) ([]ItemResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	items, total, err := s.itemRepo.List(ctx, page, limit, search, category)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch items: %w", err)
	}

	res := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		res = append(res, toItemResponse(item))
	}
	return res, total, nil
}

func (s *inventoryService) ListLowStock(ctx context.Context) ([]ItemResponse, error) {
	items, err := s.itemRepo.ListBelowReorderPoint(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch low stock items: %w", err)
	}

	res := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		res = append(res, toItemResponse(item))
	}
	return res, nil
}

// ApplyTransaction commits one stock change. The item row is locked for the
// duration of the transaction, the immutable StockTransaction record and the
// audit entry are written in the same transaction, and a low-stock advisory
// is broadcast after commit when the new level is at or below the reorder
// point. The advisory never blocks the transaction itself.
func (s *inventoryService) ApplyTransaction(ctx context.Context, actorID string, itemID string, req StockTransactionRequest) (*ApplyTransactionResult, error) {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return nil, fmt.Errorf("invalid item id: %w", err)
	}

	var expirationDate *time.Time
	if req.ExpirationDate != "" {
		parsed, parseErr := time.Parse("2006-01-02", req.ExpirationDate)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid expiration_date: %w", parseErr)
		}
		expirationDate = &parsed
	}

	var actorUUID *uuid.UUID
	if parsed, parseErr := uuid.Parse(actorID); parseErr == nil {
		actorUUID = &parsed
	}

	var updated model.InventoryItem
	var stockTx model.StockTransaction

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, findErr := s.itemRepo.FindByIDForUpdate(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return errors.New("item not found")
			}
			return fmt.Errorf("database error: %w", findErr)
		}

		applied, applyErr := ledger.ApplyStockTransaction(*item, req.TransactionType, req.Quantity)
		if applyErr != nil {
			return applyErr
		}

		if item.HasExpiration && req.TransactionType == model.TxTypePurchase && expirationDate == nil {
			return errors.New("expiration_date is required for purchases of this item")
		}

		if saveErr := s.itemRepo.Update(txCtx, &applied); saveErr != nil {
			return fmt.Errorf("failed to update stock level: %w", saveErr)
		}

		stockTx = model.StockTransaction{
			ItemID:          applied.ID,
			TransactionType: req.TransactionType,
			Quantity:        req.Quantity,
			Reason:          req.Reason,
			BatchNumber:     req.BatchNumber,
			LotNumber:       req.LotNumber,
			ExpirationDate:  expirationDate,
			StockAfter:      applied.CurrentStock,
			PerformedBy:     actorUUID,
		}
		if createErr := s.txRepo.Create(txCtx, &stockTx); createErr != nil {
			return fmt.Errorf("failed to record stock transaction: %w", createErr)
		}

		updated = applied
		return s.writeInventoryAudit(txCtx, actorID, model.ActionStockTransaction, applied.ID.String(), applied.Name, req)
	})
	if err != nil {
		return nil, err
	}

	lowStock := ledger.NeedsReorder(updated)
	if lowStock {
		s.broadcastLowStock(updated)
	}

	return &ApplyTransactionResult{
		Transaction: toStockTransactionResponse(stockTx),
		Item:        toItemResponse(updated),
		LowStock:    lowStock,
	}, nil
}

func (s *inventoryService) ListTransactions(ctx context.Context, itemID string, page, limit int) ([]StockTransactionResponse, int64, error) {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid item id: %w", err)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	txs, total, err := s.txRepo.ListByItem(ctx, id, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch stock transactions: %w", err)
	}

	res := make([]StockTransactionResponse, 0, len(txs))
	for _, tx := range txs {
		res = append(res, toStockTransactionResponse(tx))
	}
	return res, total, nil
}

// --- Helpers ---

func (s *inventoryService) broadcastLowStock(item model.InventoryItem) {
	if s.hub == nil {
		return
	}
	msg, err := json.Marshal(map[string]interface{}{
		"event":         "low_stock",
		"item_id":       item.ID.String(),
		"sku":           item.SKU,
		"name":          item.Name,
		"current_stock": item.CurrentStock,
		"reorder_point": item.ReorderPoint,
		"stock_status":  ledger.StockStatus(item),
	})
	if err != nil {
		return
	}
	select {
	case s.hub.Broadcast <- msg:
	default:
		// No listeners; drop the advisory
	}
}

func (s *inventoryService) writeInventoryAudit(ctx context.Context, actorID, action, entityID, entityName string, payload interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(actorID); err == nil {
		uid = &parsed
	}

	details := ""
	if payload != nil {
		raw, _ := json.Marshal(payload)
		details = string(raw)
	}

	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    details,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toItemResponse(item model.InventoryItem) ItemResponse {
	return ItemResponse{
		ID:             item.ID.String(),
		SKU:            item.SKU,
		Name:           item.Name,
		Category:       item.Category,
		CurrentStock:   item.CurrentStock,
		ReservedStock:  item.ReservedStock,
		AvailableStock: item.AvailableStock(),
		ReorderPoint:   item.ReorderPoint,
		MaximumStock:   item.MaximumStock,
		UnitCost:       item.UnitCost.StringFixed(2),
		HasExpiration:  item.HasExpiration,
		StockStatus:    ledger.StockStatus(item),
		NeedsReorder:   ledger.NeedsReorder(item),
	}
}

func toStockTransactionResponse(tx model.StockTransaction) StockTransactionResponse {
	resp := StockTransactionResponse{
		ID:              tx.ID.String(),
		ItemID:          tx.ItemID.String(),
		TransactionType: tx.TransactionType,
		Quantity:        tx.Quantity,
		Reason:          tx.Reason,
		BatchNumber:     tx.BatchNumber,
		LotNumber:       tx.LotNumber,
		StockAfter:      tx.StockAfter,
		CreatedAt:       tx.CreatedAt.Format(time.RFC3339),
	}
	if tx.ExpirationDate != nil {
		exp := tx.ExpirationDate.Format("2006-01-02")
		resp.ExpirationDate = &exp
	}
	return resp
}
