// Package ledger holds the pure arithmetic behind billing and inventory:
// invoice totals, payment balances and stock level transitions. Nothing in
// here touches the database; services compute here and persist the result
// verbatim.
package ledger

import (
	"strings"
	"time"

	"vetclinic/internal/model"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// InvoiceTotals is the result of aggregating an invoice's line items.
// All values carry full precision; rounding happens at display time only.
type InvoiceTotals struct {
	Subtotal    decimal.Decimal
	TaxableBase decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
}

// LineTotal returns quantity × unit price for a single line item
func LineTotal(item model.InvoiceItem) decimal.Decimal {
	return item.Quantity.Mul(item.UnitPrice)
}

// ComputeInvoice aggregates line items and applies discount before tax:
//
//	subtotal    = Σ quantity × unit price (blank-description items skipped)
//	taxableBase = subtotal − discount
//	taxAmount   = taxableBase × rate / 100
//	totalAmount = taxableBase + taxAmount
//
// The function is total: any numeric inputs produce a numeric result. A
// discount larger than the subtotal yields a negative taxable base and a
// negative tax; that is intentional and left to the caller to surface.
func ComputeInvoice(items []model.InvoiceItem, taxRatePercent, discountAmount decimal.Decimal) InvoiceTotals {
	subtotal := decimal.Zero
	for _, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			// A line item with no description is not a valid charge
			continue
		}
		subtotal = subtotal.Add(LineTotal(item))
	}

	taxableBase := subtotal.Sub(discountAmount)
	taxAmount := taxableBase.Mul(taxRatePercent).Div(oneHundred)

	return InvoiceTotals{
		Subtotal:    subtotal,
		TaxableBase: taxableBase,
		TaxAmount:   taxAmount,
		TotalAmount: taxableBase.Add(taxAmount),
	}
}

// ApplyPayment credits a payment amount against the invoice and recomputes
// the balance. Overpayment is allowed: paid_amount may exceed total_amount,
// leaving a negative balance_due (a credit toward the owner).
func ApplyPayment(inv model.Invoice, amount decimal.Decimal) model.Invoice {
	inv.PaidAmount = inv.PaidAmount.Add(amount)
	inv.BalanceDue = inv.TotalAmount.Sub(inv.PaidAmount)
	return inv
}

// ReversePayment undoes ApplyPayment for the same amount, used when a
// payment record is deleted. Apply followed by Reverse is an identity on
// paid_amount and balance_due.
func ReversePayment(inv model.Invoice, amount decimal.Decimal) model.Invoice {
	inv.PaidAmount = inv.PaidAmount.Sub(amount)
	inv.BalanceDue = inv.TotalAmount.Sub(inv.PaidAmount)
	return inv
}

// InvoiceStatus derives the displayed status from balance and due date.
// Never stored; callers recompute it on every read.
func InvoiceStatus(inv model.Invoice, today time.Time) string {
	if inv.BalanceDue.LessThanOrEqual(decimal.Zero) {
		return model.InvoicePaid
	}
	if dateOnly(inv.DueDate).Before(dateOnly(today)) {
		return model.InvoiceOverdue
	}
	return model.InvoicePending
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
