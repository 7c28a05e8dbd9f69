package ledger

import (
	"testing"
	"time"

	"vetclinic/internal/model"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func item(desc, qty, price string) model.InvoiceItem {
	return model.InvoiceItem{Description: desc, ServiceType: model.ServiceConsultation, Quantity: dec(qty), UnitPrice: dec(price)}
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name  string
		qty   string
		price string
		want  string
	}{
		{"whole quantity", "2", "100", "200"},
		{"fractional quantity", "0.5", "80", "40"},
		{"zero price", "3", "0", "0"},
		{"cent precision preserved", "3", "33.33", "99.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineTotal(item("x", tt.qty, tt.price))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("LineTotal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestComputeInvoice(t *testing.T) {
	items := []model.InvoiceItem{
		item("Consultation", "2", "100"),
		item("Vaccination", "1", "50"),
	}

	got := ComputeInvoice(items, dec("12"), dec("20"))

	if !got.Subtotal.Equal(dec("250")) {
		t.Errorf("Subtotal = %s, want 250", got.Subtotal)
	}
	if !got.TaxableBase.Equal(dec("230")) {
		t.Errorf("TaxableBase = %s, want 230", got.TaxableBase)
	}
	if !got.TaxAmount.Equal(dec("27.6")) {
		t.Errorf("TaxAmount = %s, want 27.6", got.TaxAmount)
	}
	if !got.TotalAmount.Equal(dec("257.6")) {
		t.Errorf("TotalAmount = %s, want 257.6", got.TotalAmount)
	}
}

func TestComputeInvoiceSkipsBlankDescriptions(t *testing.T) {
	items := []model.InvoiceItem{
		item("Exam", "1", "75"),
		item("", "1", "999"),
		item("   ", "2", "500"),
	}

	got := ComputeInvoice(items, decimal.Zero, decimal.Zero)
	if !got.Subtotal.Equal(dec("75")) {
		t.Errorf("Subtotal = %s, want 75 (blank-description items must be ignored)", got.Subtotal)
	}
}

func TestComputeInvoiceEmptyItems(t *testing.T) {
	got := ComputeInvoice(nil, dec("10"), decimal.Zero)
	if !got.Subtotal.IsZero() || !got.TotalAmount.IsZero() {
		t.Errorf("empty invoice: subtotal=%s total=%s, want 0/0", got.Subtotal, got.TotalAmount)
	}
}

func TestComputeInvoiceDiscountExceedsSubtotal(t *testing.T) {
	// Negative taxable base is preserved, not clamped; the tax goes
	// negative and the invariant total = base + tax still holds exactly.
	got := ComputeInvoice([]model.InvoiceItem{item("Nail trim", "1", "10")}, dec("10"), dec("50"))

	if !got.TaxableBase.Equal(dec("-40")) {
		t.Errorf("TaxableBase = %s, want -40", got.TaxableBase)
	}
	if !got.TaxAmount.Equal(dec("-4")) {
		t.Errorf("TaxAmount = %s, want -4", got.TaxAmount)
	}
	if !got.TotalAmount.Equal(dec("-44")) {
		t.Errorf("TotalAmount = %s, want -44", got.TotalAmount)
	}
}

func TestComputeInvoiceTotalInvariant(t *testing.T) {
	cases := []struct {
		name     string
		items    []model.InvoiceItem
		rate     string
		discount string
	}{
		{"plain", []model.InvoiceItem{item("a", "2", "100"), item("b", "1", "50")}, "12", "20"},
		{"zero rate", []model.InvoiceItem{item("a", "1", "99.99")}, "0", "0"},
		{"full discount", []model.InvoiceItem{item("a", "1", "100")}, "8.25", "100"},
		{"fractional everything", []model.InvoiceItem{item("a", "1.5", "33.33")}, "7.77", "3.21"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeInvoice(tc.items, dec(tc.rate), dec(tc.discount))
			want := got.Subtotal.Sub(dec(tc.discount)).Add(got.TaxAmount)
			if !got.TotalAmount.Equal(want) {
				t.Errorf("TotalAmount = %s, want subtotal-discount+tax = %s", got.TotalAmount, want)
			}
		})
	}
}

func TestApplyPaymentScenario(t *testing.T) {
	inv := model.Invoice{
		TotalAmount: dec("257.6"),
		PaidAmount:  decimal.Zero,
		BalanceDue:  dec("257.6"),
		DueDate:     time.Now().AddDate(0, 0, 7),
	}

	inv = ApplyPayment(inv, dec("100"))
	if !inv.PaidAmount.Equal(dec("100")) || !inv.BalanceDue.Equal(dec("157.6")) {
		t.Fatalf("after first payment: paid=%s balance=%s, want 100/157.6", inv.PaidAmount, inv.BalanceDue)
	}

	inv = ApplyPayment(inv, dec("157.6"))
	if !inv.BalanceDue.IsZero() {
		t.Fatalf("after second payment: balance=%s, want 0", inv.BalanceDue)
	}
	if got := InvoiceStatus(inv, time.Now()); got != model.InvoicePaid {
		t.Errorf("status = %q, want %q", got, model.InvoicePaid)
	}
}

func TestPaymentRoundTrip(t *testing.T) {
	amounts := []string{"0.01", "100", "157.6", "1000000"}

	for _, a := range amounts {
		orig := model.Invoice{TotalAmount: dec("500"), PaidAmount: dec("120"), BalanceDue: dec("380")}
		got := ReversePayment(ApplyPayment(orig, dec(a)), dec(a))
		if !got.PaidAmount.Equal(orig.PaidAmount) || !got.BalanceDue.Equal(orig.BalanceDue) {
			t.Errorf("round trip of %s: paid=%s balance=%s, want %s/%s",
				a, got.PaidAmount, got.BalanceDue, orig.PaidAmount, orig.BalanceDue)
		}
	}
}

func TestOverpaymentLeavesCreditBalance(t *testing.T) {
	inv := model.Invoice{TotalAmount: dec("100"), BalanceDue: dec("100")}
	inv = ApplyPayment(inv, dec("150"))

	if !inv.BalanceDue.Equal(dec("-50")) {
		t.Errorf("BalanceDue = %s, want -50", inv.BalanceDue)
	}
	if got := InvoiceStatus(inv, time.Now()); got != model.InvoicePaid {
		t.Errorf("status = %q, want %q (credit balance counts as paid)", got, model.InvoicePaid)
	}
}

func TestInvoiceStatus(t *testing.T) {
	today := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		balance string
		dueDate time.Time
		want    string
	}{
		{"zero balance", "0", today.AddDate(0, 0, -30), model.InvoicePaid},
		{"negative balance", "-5", today.AddDate(0, 0, -30), model.InvoicePaid},
		{"due yesterday", "10", today.AddDate(0, 0, -1), model.InvoiceOverdue},
		{"due today", "10", today, model.InvoicePending},
		{"due tomorrow", "10", today.AddDate(0, 0, 1), model.InvoicePending},
		{"due earlier today", "10", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), model.InvoicePending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := model.Invoice{BalanceDue: dec(tt.balance), DueDate: tt.dueDate}
			got := InvoiceStatus(inv, today)
			if got != tt.want {
				t.Errorf("InvoiceStatus() = %q, want %q", got, tt.want)
			}
			// Derivation is pure: a second call must agree with the first
			if again := InvoiceStatus(inv, today); again != got {
				t.Errorf("InvoiceStatus() not idempotent: %q then %q", got, again)
			}
		})
	}
}
