package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"vetclinic/internal/model"
	"vetclinic/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- In-memory fakes ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeInvoiceRepo struct {
	invoices map[uuid.UUID]*model.Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[uuid.UUID]*model.Invoice)}
}

func (r *fakeInvoiceRepo) Create(_ context.Context, invoice *model.Invoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	for i := range invoice.Items {
		if invoice.Items[i].ID == uuid.Nil {
			invoice.Items[i].ID = uuid.New()
		}
		invoice.Items[i].InvoiceID = invoice.ID
	}
	stored := *invoice
	r.invoices[invoice.ID] = &stored
	return nil
}

func (r *fakeInvoiceRepo) Update(_ context.Context, invoice *model.Invoice) error {
	if _, ok := r.invoices[invoice.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *invoice
	r.invoices[invoice.ID] = &stored
	return nil
}

func (r *fakeInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInvoiceRepo) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeInvoiceRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeInvoiceRepo) List(_ context.Context, filter repository.InvoiceListFilter) ([]model.Invoice, int64, error) {
	var out []model.Invoice
	for _, inv := range r.invoices {
		out = append(out, *inv)
	}
	return out, int64(len(out)), nil
}

func (r *fakeInvoiceRepo) CountByPrefix(_ context.Context, prefix string) (int64, error) {
	var count int64
	for _, inv := range r.invoices {
		if strings.HasPrefix(inv.InvoiceNo, prefix) {
			count++
		}
	}
	return count, nil
}

type fakePaymentRepo struct {
	payments map[uuid.UUID]*model.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]*model.Payment)}
}

func (r *fakePaymentRepo) Create(_ context.Context, payment *model.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	stored := *payment
	r.payments[payment.ID] = &stored
	return nil
}

func (r *fakePaymentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.payments, id)
	return nil
}

func (r *fakePaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) ListByInvoice(_ context.Context, invoiceID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range r.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeOwnerRepo struct {
	owner model.Owner
}

func (r *fakeOwnerRepo) Create(context.Context, *model.Owner) error { return errors.New("read only") }
func (r *fakeOwnerRepo) Update(context.Context, *model.Owner) error { return errors.New("read only") }
func (r *fakeOwnerRepo) Delete(context.Context, uuid.UUID) error    { return errors.New("read only") }
func (r *fakeOwnerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Owner, error) {
	if id != r.owner.ID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := r.owner
	return &cp, nil
}
func (r *fakeOwnerRepo) FindByIDWithPets(ctx context.Context, id uuid.UUID) (*model.Owner, error) {
	return r.FindByID(ctx, id)
}
func (r *fakeOwnerRepo) FindByEmail(context.Context, string) (*model.Owner, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeOwnerRepo) List(context.Context, int, int, string) ([]model.Owner, int64, error) {
	return []model.Owner{r.owner}, 1, nil
}

type fakePetRepo struct{}

func (fakePetRepo) Create(context.Context, *model.Pet) error { return errors.New("read only") }
func (fakePetRepo) Update(context.Context, *model.Pet) error { return errors.New("read only") }
func (fakePetRepo) Delete(context.Context, uuid.UUID) error  { return errors.New("read only") }
func (fakePetRepo) FindByID(context.Context, uuid.UUID) (*model.Pet, error) {
	return nil, gorm.ErrRecordNotFound
}
func (fakePetRepo) FindByIDWithOwner(context.Context, uuid.UUID) (*model.Pet, error) {
	return nil, gorm.ErrRecordNotFound
}
func (fakePetRepo) List(context.Context, int, int, string, *uuid.UUID) ([]model.Pet, int64, error) {
	return nil, 0, nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(context.Context, string, int, int) ([]model.AuditLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

// --- Helpers ---

func newBillingFixture() (BillingService, *fakeInvoiceRepo, *fakePaymentRepo, *fakeAuditRepo, model.Owner) {
	owner := model.Owner{
		ID:        uuid.New(),
		FirstName: "Maria",
		LastName:  "Koch",
		Email:     "maria@example.com",
	}
	invoiceRepo := newFakeInvoiceRepo()
	paymentRepo := newFakePaymentRepo()
	auditRepo := &fakeAuditRepo{}
	svc := NewBillingService(invoiceRepo, paymentRepo, &fakeOwnerRepo{owner: owner}, fakePetRepo{}, auditRepo, fakeTxManager{})
	return svc, invoiceRepo, paymentRepo, auditRepo, owner
}

func createTestInvoice(t *testing.T, svc BillingService, ownerID string) *InvoiceResponse {
	t.Helper()
	inv, err := svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
		OwnerID: ownerID,
		Items: []InvoiceItemRequest{
			{Description: "Annual examination", ServiceType: model.ServiceExamination, Quantity: "1", UnitPrice: "150.00"},
			{Description: "Rabies vaccine", ServiceType: model.ServiceVaccination, Quantity: "2", UnitPrice: "50.00"},
		},
		TaxRatePercent: "12",
		DiscountAmount: "20.00",
		DueDate:        time.Now().AddDate(0, 0, 30).Format("2006-01-02"),
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	return inv
}

// --- Tests ---

func TestCreateInvoiceComputesTotals(t *testing.T) {
	svc, _, _, auditRepo, owner := newBillingFixture()

	inv := createTestInvoice(t, svc, owner.ID.String())

	if inv.Subtotal != "250.00" {
		t.Errorf("subtotal = %s, want 250.00", inv.Subtotal)
	}
	if inv.TaxAmount != "27.60" {
		t.Errorf("tax = %s, want 27.60", inv.TaxAmount)
	}
	if inv.TotalAmount != "257.60" {
		t.Errorf("total = %s, want 257.60", inv.TotalAmount)
	}
	if inv.BalanceDue != "257.60" {
		t.Errorf("balance = %s, want 257.60", inv.BalanceDue)
	}
	if inv.Status != model.InvoicePending {
		t.Errorf("status = %s, want pending", inv.Status)
	}

	wantPrefix := "INV-" + time.Now().Format("20060102") + "-"
	if !strings.HasPrefix(inv.InvoiceNo, wantPrefix) || !strings.HasSuffix(inv.InvoiceNo, "00001") {
		t.Errorf("invoice no = %s, want %s00001", inv.InvoiceNo, wantPrefix)
	}

	if len(inv.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(inv.Items))
	}
	for i, item := range inv.Items {
		if item.Position != i+1 {
			t.Errorf("item %d position = %d, want %d", i, item.Position, i+1)
		}
	}

	if len(auditRepo.entries) != 1 || auditRepo.entries[0].Action != model.ActionCreateInvoice {
		t.Errorf("expected one CREATE_INVOICE audit entry, got %+v", auditRepo.entries)
	}
}

func TestCreateInvoiceSequentialNumbers(t *testing.T) {
	svc, _, _, _, owner := newBillingFixture()

	first := createTestInvoice(t, svc, owner.ID.String())
	second := createTestInvoice(t, svc, owner.ID.String())

	if !strings.HasSuffix(first.InvoiceNo, "00001") {
		t.Errorf("first invoice no = %s", first.InvoiceNo)
	}
	if !strings.HasSuffix(second.InvoiceNo, "00002") {
		t.Errorf("second invoice no = %s", second.InvoiceNo)
	}
}

func TestCreateInvoiceRejectsBlankDescription(t *testing.T) {
	svc, _, _, _, owner := newBillingFixture()

	_, err := svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
		OwnerID: owner.ID.String(),
		Items: []InvoiceItemRequest{
			{Description: "   ", ServiceType: model.ServiceOther, Quantity: "1", UnitPrice: "10.00"},
		},
		DueDate: time.Now().AddDate(0, 0, 30).Format("2006-01-02"),
	})
	if err == nil {
		t.Fatal("expected error for blank description")
	}
}

func TestCreateInvoiceRejectsBadNumbers(t *testing.T) {
	svc, _, _, _, owner := newBillingFixture()
	dueDate := time.Now().AddDate(0, 0, 30).Format("2006-01-02")

	cases := []struct {
		name string
		item InvoiceItemRequest
	}{
		{"zero quantity", InvoiceItemRequest{Description: "x", ServiceType: model.ServiceOther, Quantity: "0", UnitPrice: "10"}},
		{"negative quantity", InvoiceItemRequest{Description: "x", ServiceType: model.ServiceOther, Quantity: "-1", UnitPrice: "10"}},
		{"negative price", InvoiceItemRequest{Description: "x", ServiceType: model.ServiceOther, Quantity: "1", UnitPrice: "-5"}},
		{"garbage quantity", InvoiceItemRequest{Description: "x", ServiceType: model.ServiceOther, Quantity: "abc", UnitPrice: "10"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
				OwnerID: owner.ID.String(),
				Items:   []InvoiceItemRequest{tc.item},
				DueDate: dueDate,
			})
			if err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestRecordPaymentUpdatesBalance(t *testing.T) {
	svc, _, _, _, owner := newBillingFixture()
	inv := createTestInvoice(t, svc, owner.ID.String())

	after, err := svc.RecordPayment(context.Background(), uuid.NewString(), inv.ID, RecordPaymentRequest{
		Amount: "150.00",
		Method: model.PaymentCash,
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	if after.PaidAmount != "150.00" {
		t.Errorf("paid = %s, want 150.00", after.PaidAmount)
	}
	if after.BalanceDue != "107.60" {
		t.Errorf("balance = %s, want 107.60", after.BalanceDue)
	}
	if after.Status != model.InvoicePending {
		t.Errorf("status = %s, want pending", after.Status)
	}

	final, err := svc.RecordPayment(context.Background(), uuid.NewString(), inv.ID, RecordPaymentRequest{
		Amount: "107.60",
		Method: model.PaymentCreditCard,
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	if final.BalanceDue != "0.00" {
		t.Errorf("balance = %s, want 0.00", final.BalanceDue)
	}
	if final.Status != model.InvoicePaid {
		t.Errorf("status = %s, want paid", final.Status)
	}
	if len(final.Payments) != 2 {
		t.Errorf("payments = %d, want 2", len(final.Payments))
	}
}

func TestOverpaymentLeavesCredit(t *testing.T) {
	svc, _, _, _, owner := newBillingFixture()
	inv := createTestInvoice(t, svc, owner.ID.String())

	after, err := svc.RecordPayment(context.Background(), uuid.NewString(), inv.ID, RecordPaymentRequest{
		Amount: "300.00",
		Method: model.PaymentBankTransfer,
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	if after.BalanceDue != "-42.40" {
		t.Errorf("balance = %s, want -42.40", after.BalanceDue)
	}
	if after.Status != model.InvoicePaid {
		t.Errorf("status = %s, want paid", after.Status)
	}
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	svc, _, _, _, owner := newBillingFixture()
	inv := createTestInvoice(t, svc, owner.ID.String())

	for _, amount := range []string{"0", "-10", "nope"} {
		if _, err := svc.RecordPayment(context.Background(), uuid.NewString(), inv.ID, RecordPaymentRequest{
			Amount: amount,
			Method: model.PaymentCash,
		}); err == nil {
			t.Errorf("amount %q: expected error", amount)
		}
	}
}

func TestDeletePaymentReversesBalance(t *testing.T) {
	svc, _, paymentRepo, _, owner := newBillingFixture()
	inv := createTestInvoice(t, svc, owner.ID.String())

	after, err := svc.RecordPayment(context.Background(), uuid.NewString(), inv.ID, RecordPaymentRequest{
		Amount: "100.00",
		Method: model.PaymentCash,
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if len(after.Payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(after.Payments))
	}

	reversed, err := svc.DeletePayment(context.Background(), uuid.NewString(), after.Payments[0].ID)
	if err != nil {
		t.Fatalf("DeletePayment: %v", err)
	}

	// Delete after apply restores the original balance exactly
	if reversed.PaidAmount != "0.00" {
		t.Errorf("paid = %s, want 0.00", reversed.PaidAmount)
	}
	if reversed.BalanceDue != inv.BalanceDue {
		t.Errorf("balance = %s, want %s", reversed.BalanceDue, inv.BalanceDue)
	}
	if len(paymentRepo.payments) != 0 {
		t.Errorf("payment store should be empty, has %d", len(paymentRepo.payments))
	}
}

func TestGetInvoiceOverdueStatus(t *testing.T) {
	svc, invoiceRepo, _, _, owner := newBillingFixture()
	inv := createTestInvoice(t, svc, owner.ID.String())

	// Push the due date into the past
	id := uuid.MustParse(inv.ID)
	stored := invoiceRepo.invoices[id]
	stored.DueDate = time.Now().AddDate(0, 0, -3)

	got, err := svc.GetInvoice(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if got.Status != model.InvoiceOverdue {
		t.Errorf("status = %s, want overdue", got.Status)
	}
}

func TestCreateInvoiceUnknownOwner(t *testing.T) {
	svc, _, _, _, _ := newBillingFixture()

	_, err := svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
		OwnerID: uuid.NewString(),
		Items: []InvoiceItemRequest{
			{Description: "Exam", ServiceType: model.ServiceExamination, Quantity: "1", UnitPrice: "50"},
		},
		DueDate: time.Now().AddDate(0, 0, 30).Format("2006-01-02"),
	})
	if err == nil {
		t.Fatal("expected error for unknown owner")
	}
	if !strings.Contains(err.Error(), "owner not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDiscountLargerThanSubtotal(t *testing.T) {
	svc, _, _, _, owner := newBillingFixture()

	inv, err := svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
		OwnerID: owner.ID.String(),
		Items: []InvoiceItemRequest{
			{Description: "Nail trim", ServiceType: model.ServiceGrooming, Quantity: "1", UnitPrice: "10.00"},
		},
		TaxRatePercent: "10",
		DiscountAmount: "50.00",
		DueDate:        time.Now().AddDate(0, 0, 30).Format("2006-01-02"),
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	// Negative base carries through: (10 - 50) * 1.10 = -44
	if inv.TotalAmount != "-44.00" {
		t.Errorf("total = %s, want -44.00", inv.TotalAmount)
	}
	if inv.Status != model.InvoicePaid {
		t.Errorf("status = %s, want paid (non-positive balance)", inv.Status)
	}
}

func TestInvoiceTotalRelation(t *testing.T) {
	svc, invoiceRepo, _, _, owner := newBillingFixture()
	inv := createTestInvoice(t, svc, owner.ID.String())

	stored := invoiceRepo.invoices[uuid.MustParse(inv.ID)]
	want := stored.Subtotal.Sub(stored.DiscountAmount).Add(stored.TaxAmount)
	if !stored.TotalAmount.Equal(want) {
		t.Errorf("total %s != subtotal - discount + tax %s", stored.TotalAmount, want)
	}
}
