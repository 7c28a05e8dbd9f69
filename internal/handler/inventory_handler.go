package handler

import (
	"errors"
	"net/http"

	"vetclinic/internal/ledger"
	"vetclinic/internal/middleware"
	"vetclinic/internal/service"
	"vetclinic/pkg/pagination"
	"vetclinic/pkg/response"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	items := router.Group("/inventory")
	{
		items.GET("", middleware.RequirePermission("inventory.read"), h.ListItems)
		items.GET("/low-stock", middleware.RequirePermission("inventory.read"), h.ListLowStock)
		items.GET("/:id", middleware.RequirePermission("inventory.read"), h.GetItem)
		items.POST("", middleware.RequirePermission("inventory.write"), h.CreateItem)
		items.PUT("/:id", middleware.RequirePermission("inventory.write"), h.UpdateItem)
		items.DELETE("/:id", middleware.RequirePermission("inventory.write"), h.DeleteItem)
		items.GET("/:id/transactions", middleware.RequirePermission("inventory.read"), h.ListTransactions)
		items.POST("/:id/transactions", middleware.RequirePermission("inventory.write"), h.ApplyTransaction)
	}
}

// CreateItem handles POST /inventory
// @Summary      Create inventory item
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateItemRequest  true  "Create Item Payload"
// @Success      201      {object}  response.Response{data=service.ItemResponse}
// @Failure      400      {object}  response.Response
// @Router       /inventory [post]
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.inventoryService.CreateItem(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateItem handles PUT /inventory/:id
// @Summary      Update inventory item
// @Description  Updates item metadata. Stock levels cannot be edited directly; use a stock transaction.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Item ID"
// @Param        payload  body      service.UpdateItemRequest  true  "Update Item Payload"
// @Success      200      {object}  response.Response{data=service.ItemResponse}
// @Failure      400      {object}  response.Response
// @Router       /inventory/{id} [put]
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	item, err := h.inventoryService.UpdateItem(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteItem handles DELETE /inventory/:id
// @Summary      Delete inventory item
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /inventory/{id} [delete]
func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	if err := h.inventoryService.DeleteItem(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Item deleted successfully"))
}

// GetItem handles GET /inventory/:id
// @Summary      Get inventory item by ID
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response{data=service.ItemResponse}
// @Failure      404  {object}  response.Response
// @Router       /inventory/{id} [get]
func (h *InventoryHandler) GetItem(c *gin.Context) {
	item, err := h.inventoryService.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// ListItems handles GET /inventory
// @Summary      List inventory items
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Param        search    query     string  false  "Search by name or SKU"
// @Param        category  query     string  false  "Filter by category"
// @Success      200       {object}  response.Response{data=object}
// @Failure      500       {object}  response.Response
// @Router       /inventory [get]
func (h *InventoryHandler) ListItems(c *gin.Context) {
	p := pagination.Parse(c)

	items, total, err := h.inventoryService.ListItems(c.Request.Context(), p.Page, p.Limit,
		c.Query("search"), c.Query("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch items"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": items,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}

// ListLowStock handles GET /inventory/low-stock
// @Summary      List low stock items
// @Description  Lists items at or below their reorder point
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.ItemResponse}
// @Failure      500  {object}  response.Response
// @Router       /inventory/low-stock [get]
func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	items, err := h.inventoryService.ListLowStock(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch low stock items"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// ApplyTransaction handles POST /inventory/:id/transactions
// @Summary      Apply stock transaction
// @Description  Applies one stock change (purchase, used, expired, damaged, adjustment) to an item. Removals exceeding the available stock are rejected with 422.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "Item ID"
// @Param        payload  body      service.StockTransactionRequest  true  "Stock Transaction Payload"
// @Success      201      {object}  response.Response{data=service.ApplyTransactionResult}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /inventory/{id}/transactions [post]
func (h *InventoryHandler) ApplyTransaction(c *gin.Context) {
	var req service.StockTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.inventoryService.ApplyTransaction(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ledger.ErrInsufficientStock) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListTransactions handles GET /inventory/:id/transactions
// @Summary      List stock transactions for an item
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Item ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      400    {object}  response.Response
// @Router       /inventory/{id}/transactions [get]
func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	p := pagination.Parse(c)

	txs, total, err := h.inventoryService.ListTransactions(c.Request.Context(), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"total":        total,
		"page":         p.Page,
		"limit":        p.Limit,
	}))
}
