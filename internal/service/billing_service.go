package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"vetclinic/internal/ledger"
	"vetclinic/internal/model"
	"vetclinic/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type InvoiceItemRequest struct {
	Description string `json:"description" binding:"required"`
	ServiceType string `json:"service_type" binding:"required,oneof=consultation examination vaccination surgery medication laboratory imaging dental grooming boarding other"`
	Quantity    string `json:"quantity" binding:"required"`
	UnitPrice   string `json:"unit_price" binding:"required"`
}

type CreateInvoiceRequest struct {
	OwnerID        string               `json:"owner_id" binding:"required"`
	PetID          string               `json:"pet_id"`
	Items          []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
	TaxRatePercent string               `json:"tax_rate_percent"`
	DiscountAmount string               `json:"discount_amount"`
	DueDate        string               `json:"due_date" binding:"required"` // YYYY-MM-DD
	Note           string               `json:"note"`
}

type RecordPaymentRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Method      string `json:"method" binding:"required,oneof=cash credit_card debit_card bank_transfer check insurance other"`
	PaidAt      string `json:"paid_at"` // RFC3339, defaults to now
	ReferenceNo string `json:"reference_no"`
}

type InvoiceItemResponse struct {
	ID          string `json:"id"`
	Position    int    `json:"position"`
	Description string `json:"description"`
	ServiceType string `json:"service_type"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

type PaymentResponse struct {
	ID          string `json:"id"`
	InvoiceID   string `json:"invoice_id"`
	Amount      string `json:"amount"`
	Method      string `json:"method"`
	PaidAt      string `json:"paid_at"`
	ReferenceNo string `json:"reference_no"`
}

type InvoiceResponse struct {
	ID             string                `json:"id"`
	InvoiceNo      string                `json:"invoice_no"`
	OwnerID        string                `json:"owner_id"`
	OwnerName      string                `json:"owner_name,omitempty"`
	PetID          *string               `json:"pet_id"`
	PetName        string                `json:"pet_name,omitempty"`
	Items          []InvoiceItemResponse `json:"items,omitempty"`
	TaxRatePercent string                `json:"tax_rate_percent"`
	DiscountAmount string                `json:"discount_amount"`
	Subtotal       string                `json:"subtotal"`
	TaxAmount      string                `json:"tax_amount"`
	TotalAmount    string                `json:"total_amount"`
	PaidAmount     string                `json:"paid_amount"`
	BalanceDue     string                `json:"balance_due"`
	Status         string                `json:"status"`
	DueDate        string                `json:"due_date"`
	Note           string                `json:"note"`
	Payments       []PaymentResponse     `json:"payments,omitempty"`
	CreatedAt      string                `json:"created_at"`
}

// --- Interface ---

type BillingService interface {
	CreateInvoice(ctx context.Context, actorID string, req CreateInvoiceRequest) (*InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*InvoiceResponse, error)
	ListInvoices(ctx context.Context, page, limit int, ownerID, invoiceNo string) ([]InvoiceResponse, int64, error)
	RecordPayment(ctx context.Context, actorID string, invoiceID string, req RecordPaymentRequest) (*InvoiceResponse, error)
	DeletePayment(ctx context.Context, actorID string, paymentID string) (*InvoiceResponse, error)
	ListPayments(ctx context.Context, invoiceID string) ([]PaymentResponse, error)
}

type billingService struct {
	invoiceRepo repository.InvoiceRepository
	paymentRepo repository.PaymentRepository
	ownerRepo   repository.OwnerRepository
	petRepo     repository.PetRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewBillingService(
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
	ownerRepo repository.OwnerRepository,
	petRepo repository.PetRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) BillingService {
	return &billingService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		ownerRepo:   ownerRepo,
		petRepo:     petRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

func (s *billingService) CreateInvoice(ctx context.Context, actorID string, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}
	if _, err := s.ownerRepo.FindByID(ctx, ownerID); err != nil {
		return nil, errors.New("owner not found")
	}

	var petID *uuid.UUID
	if req.PetID != "" {
		parsed, parseErr := uuid.Parse(req.PetID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid pet id: %w", parseErr)
		}
		pet, findErr := s.petRepo.FindByID(ctx, parsed)
		if findErr != nil {
			return nil, errors.New("pet not found")
		}
		if pet.OwnerID != ownerID {
			return nil, errors.New("pet belongs to a different owner")
		}
		petID = &parsed
	}

	taxRate := decimal.Zero
	if req.TaxRatePercent != "" {
		taxRate, err = decimal.NewFromString(req.TaxRatePercent)
		if err != nil {
			return nil, errors.New("invalid tax_rate_percent")
		}
		if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(100)) {
			return nil, errors.New("tax_rate_percent must be between 0 and 100")
		}
	}

	discount := decimal.Zero
	if req.DiscountAmount != "" {
		discount, err = decimal.NewFromString(req.DiscountAmount)
		if err != nil {
			return nil, errors.New("invalid discount_amount")
		}
		if discount.IsNegative() {
			return nil, errors.New("discount_amount cannot be negative")
		}
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return nil, fmt.Errorf("invalid due_date: %w", err)
	}

	items, err := parseInvoiceItems(req.Items)
	if err != nil {
		return nil, err
	}

	totals := ledger.ComputeInvoice(items, taxRate, discount)

	var actorUUID *uuid.UUID
	if parsed, parseErr := uuid.Parse(actorID); parseErr == nil {
		actorUUID = &parsed
	}

	invoice := model.Invoice{
		OwnerID:        ownerID,
		PetID:          petID,
		Items:          items,
		TaxRatePercent: taxRate,
		DiscountAmount: discount,
		Subtotal:       totals.Subtotal,
		TaxAmount:      totals.TaxAmount,
		TotalAmount:    totals.TotalAmount,
		PaidAmount:     decimal.Zero,
		BalanceDue:     totals.TotalAmount,
		DueDate:        dueDate,
		IssuedBy:       actorUUID,
		Note:           req.Note,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoiceNo, genErr := s.nextInvoiceNo(txCtx)
		if genErr != nil {
			return genErr
		}
		invoice.InvoiceNo = invoiceNo

		if createErr := s.invoiceRepo.Create(txCtx, &invoice); createErr != nil {
			return fmt.Errorf("failed to create invoice: %w", createErr)
		}
		return s.writeBillingAudit(txCtx, actorID, model.ActionCreateInvoice, invoice.ID.String(), invoice.InvoiceNo, req)
	})
	if err != nil {
		return nil, err
	}

	return s.GetInvoice(ctx, invoice.ID.String())
}

func (s *billingService) GetInvoice(ctx context.Context, id string) (*InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice id: %w", err)
	}

	invoice, err := s.invoiceRepo.FindByIDWithItems(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invoice not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	payments, err := s.paymentRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payments: %w", err)
	}

	resp := toInvoiceResponse(*invoice)
	for _, p := range payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	return &resp, nil
}

func (s *billingService) ListInvoices(ctx context.Context, page, limit int, ownerID, invoiceNo string) ([]InvoiceResponse, int64, error) {
	filter := repository.InvoiceListFilter{
		InvoiceNo: invoiceNo,
		Page:      page,
		Limit:     limit,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if ownerID != "" {
		parsed, err := uuid.Parse(ownerID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid owner id: %w", err)
		}
		filter.OwnerID = &parsed
	}

	invoices, total, err := s.invoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch invoices: %w", err)
	}

	res := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		res = append(res, toInvoiceResponse(inv))
	}
	return res, total, nil
}

func (s *billingService) RecordPayment(ctx context.Context, actorID string, invoiceID string, req RecordPaymentRequest) (*InvoiceResponse, error) {
	id, err := uuid.Parse(invoiceID)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice id: %w", err)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, errors.New("invalid amount")
	}
	if !amount.IsPositive() {
		return nil, errors.New("payment amount must be greater than zero")
	}

	paidAt := time.Now()
	if req.PaidAt != "" {
		paidAt, err = time.Parse(time.RFC3339, req.PaidAt)
		if err != nil {
			return nil, fmt.Errorf("invalid paid_at, expected RFC3339: %w", err)
		}
	}

	var actorUUID *uuid.UUID
	if parsed, parseErr := uuid.Parse(actorID); parseErr == nil {
		actorUUID = &parsed
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, findErr := s.invoiceRepo.FindByIDForUpdate(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return errors.New("invoice not found")
			}
			return fmt.Errorf("database error: %w", findErr)
		}

		payment := model.Payment{
			InvoiceID:   invoice.ID,
			Amount:      amount,
			Method:      req.Method,
			PaidAt:      paidAt,
			ReferenceNo: req.ReferenceNo,
			RecordedBy:  actorUUID,
		}
		if createErr := s.paymentRepo.Create(txCtx, &payment); createErr != nil {
			return fmt.Errorf("failed to record payment: %w", createErr)
		}

		updated := ledger.ApplyPayment(*invoice, amount)
		if saveErr := s.invoiceRepo.Update(txCtx, &updated); saveErr != nil {
			return fmt.Errorf("failed to update invoice balance: %w", saveErr)
		}

		return s.writeBillingAudit(txCtx, actorID, model.ActionRecordPayment, payment.ID.String(), invoice.InvoiceNo, req)
	})
	if err != nil {
		return nil, err
	}

	return s.GetInvoice(ctx, invoiceID)
}

func (s *billingService) DeletePayment(ctx context.Context, actorID string, paymentID string) (*InvoiceResponse, error) {
	id, err := uuid.Parse(paymentID)
	if err != nil {
		return nil, fmt.Errorf("invalid payment id: %w", err)
	}

	var invoiceID uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		payment, findErr := s.paymentRepo.FindByID(txCtx, id)
		if findErr != nil {
			return errors.New("payment not found")
		}
		invoiceID = payment.InvoiceID

		invoice, lockErr := s.invoiceRepo.FindByIDForUpdate(txCtx, payment.InvoiceID)
		if lockErr != nil {
			return fmt.Errorf("failed to load invoice: %w", lockErr)
		}

		if delErr := s.paymentRepo.Delete(txCtx, payment.ID); delErr != nil {
			return fmt.Errorf("failed to delete payment: %w", delErr)
		}

		updated := ledger.ReversePayment(*invoice, payment.Amount)
		if saveErr := s.invoiceRepo.Update(txCtx, &updated); saveErr != nil {
			return fmt.Errorf("failed to update invoice balance: %w", saveErr)
		}

		return s.writeBillingAudit(txCtx, actorID, model.ActionDeletePayment, payment.ID.String(), invoice.InvoiceNo,
			map[string]string{"amount": payment.Amount.String()})
	})
	if err != nil {
		return nil, err
	}

	return s.GetInvoice(ctx, invoiceID.String())
}

func (s *billingService) ListPayments(ctx context.Context, invoiceID string) ([]PaymentResponse, error) {
	id, err := uuid.Parse(invoiceID)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice id: %w", err)
	}

	payments, err := s.paymentRepo.ListByInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payments: %w", err)
	}

	res := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		res = append(res, toPaymentResponse(p))
	}
	return res, nil
}

// --- Helpers ---

// nextInvoiceNo generates a sequential invoice number of the form
// INV-YYYYMMDD-00001, scoped per day. Called inside the create transaction.
func (s *billingService) nextInvoiceNo(ctx context.Context) (string, error) {
	prefix := "INV-" + time.Now().Format("20060102")
	count, err := s.invoiceRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to generate invoice number: %w", err)
	}
	return fmt.Sprintf("%s-%05d", prefix, count+1), nil
}

func parseInvoiceItems(reqs []InvoiceItemRequest) ([]model.InvoiceItem, error) {
	minQuantity := decimal.NewFromFloat(0.01)

	items := make([]model.InvoiceItem, 0, len(reqs))
	for i, r := range reqs {
		if strings.TrimSpace(r.Description) == "" {
			return nil, fmt.Errorf("item %d: description cannot be blank", i+1)
		}

		quantity, err := decimal.NewFromString(r.Quantity)
		if err != nil {
			return nil, fmt.Errorf("item %d: invalid quantity", i+1)
		}
		if quantity.LessThan(minQuantity) {
			return nil, fmt.Errorf("item %d: quantity must be at least 0.01", i+1)
		}

		unitPrice, err := decimal.NewFromString(r.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("item %d: invalid unit_price", i+1)
		}
		if unitPrice.IsNegative() {
			return nil, fmt.Errorf("item %d: unit_price cannot be negative", i+1)
		}

		items = append(items, model.InvoiceItem{
			Position:    i + 1,
			Description: r.Description,
			ServiceType: r.ServiceType,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
		})
	}
	return items, nil
}

func (s *billingService) writeBillingAudit(ctx context.Context, actorID, action, entityID, entityName string, payload interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(actorID); err == nil {
		uid = &parsed
	}

	raw, _ := json.Marshal(payload)
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(raw),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toInvoiceResponse(inv model.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:             inv.ID.String(),
		InvoiceNo:      inv.InvoiceNo,
		OwnerID:        inv.OwnerID.String(),
		TaxRatePercent: inv.TaxRatePercent.StringFixed(2),
		DiscountAmount: inv.DiscountAmount.StringFixed(2),
		Subtotal:       inv.Subtotal.StringFixed(2),
		TaxAmount:      inv.TaxAmount.StringFixed(2),
		TotalAmount:    inv.TotalAmount.StringFixed(2),
		PaidAmount:     inv.PaidAmount.StringFixed(2),
		BalanceDue:     inv.BalanceDue.StringFixed(2),
		Status:         ledger.InvoiceStatus(inv, time.Now()),
		DueDate:        inv.DueDate.Format("2006-01-02"),
		Note:           inv.Note,
		CreatedAt:      inv.CreatedAt.Format(time.RFC3339),
	}
	if inv.Owner != nil {
		resp.OwnerName = inv.Owner.FirstName + " " + inv.Owner.LastName
	}
	if inv.PetID != nil {
		petID := inv.PetID.String()
		resp.PetID = &petID
	}
	if inv.Pet != nil {
		resp.PetName = inv.Pet.Name
	}
	for _, item := range inv.Items {
		resp.Items = append(resp.Items, InvoiceItemResponse{
			ID:          item.ID.String(),
			Position:    item.Position,
			Description: item.Description,
			ServiceType: item.ServiceType,
			Quantity:    item.Quantity.StringFixed(2),
			UnitPrice:   item.UnitPrice.StringFixed(2),
			LineTotal:   ledger.LineTotal(item).StringFixed(2),
		})
	}
	return resp
}

func toPaymentResponse(p model.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID.String(),
		InvoiceID:   p.InvoiceID.String(),
		Amount:      p.Amount.StringFixed(2),
		Method:      p.Method,
		PaidAt:      p.PaidAt.Format(time.RFC3339),
		ReferenceNo: p.ReferenceNo,
	}
}
