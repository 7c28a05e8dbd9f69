package handler

import (
	"net/http"

	"vetclinic/internal/middleware"
	"vetclinic/internal/service"
	"vetclinic/pkg/pagination"
	"vetclinic/pkg/response"

	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	billingService service.BillingService
}

func NewBillingHandler(billingService service.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

func (h *BillingHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/invoices")
	{
		invoices.GET("", middleware.RequirePermission("invoices.read"), h.ListInvoices)
		invoices.GET("/:id", middleware.RequirePermission("invoices.read"), h.GetInvoice)
		invoices.POST("", middleware.RequirePermission("invoices.write"), h.CreateInvoice)
		invoices.GET("/:id/payments", middleware.RequirePermission("invoices.read"), h.ListPayments)
		invoices.POST("/:id/payments", middleware.RequirePermission("payments.write"), h.RecordPayment)
	}

	router.DELETE("/payments/:id", middleware.RequirePermission("payments.write"), h.DeletePayment)
}

// CreateInvoice handles POST /invoices
// @Summary      Create invoice
// @Description  Creates an invoice from ordered line items. Totals are computed once at creation: discount applies before tax, and the result is persisted verbatim.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateInvoiceRequest  true  "Create Invoice Payload"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Router       /invoices [post]
func (h *BillingHandler) CreateInvoice(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.billingService.CreateInvoice(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// GetInvoice handles GET /invoices/:id
// @Summary      Get invoice by ID
// @Description  Fetch one invoice with items, payments and derived status
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /invoices/{id} [get]
func (h *BillingHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.billingService.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// ListInvoices handles GET /invoices
// @Summary      List invoices
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 20)"
// @Param        owner_id    query     string  false  "Filter by owner UUID"
// @Param        invoice_no  query     string  false  "Filter by invoice number (partial)"
// @Success      200         {object}  response.Response{data=object}
// @Failure      500         {object}  response.Response
// @Router       /invoices [get]
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	p := pagination.Parse(c)

	invoices, total, err := h.billingService.ListInvoices(c.Request.Context(), p.Page, p.Limit,
		c.Query("owner_id"), c.Query("invoice_no"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"total":    total,
		"page":     p.Page,
		"limit":    p.Limit,
	}))
}

// RecordPayment handles POST /invoices/:id/payments
// @Summary      Record payment
// @Description  Appends a payment to an invoice and recomputes the balance. Overpayment is allowed and leaves a credit balance.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Invoice ID"
// @Param        payload  body      service.RecordPaymentRequest  true  "Record Payment Payload"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Router       /invoices/{id}/payments [post]
func (h *BillingHandler) RecordPayment(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.billingService.RecordPayment(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// DeletePayment handles DELETE /payments/:id
// @Summary      Delete payment
// @Description  Removes a payment record and reverses its effect on the parent invoice's balance
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400  {object}  response.Response
// @Router       /payments/{id} [delete]
func (h *BillingHandler) DeletePayment(c *gin.Context) {
	invoice, err := h.billingService.DeletePayment(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// ListPayments handles GET /invoices/:id/payments
// @Summary      List payments for an invoice
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=[]service.PaymentResponse}
// @Failure      400  {object}  response.Response
// @Router       /invoices/{id}/payments [get]
func (h *BillingHandler) ListPayments(c *gin.Context) {
	payments, err := h.billingService.ListPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payments))
}
