package billing

import (
	"time"

	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// RecomputeInvoice refreshes totals, the remaining balance and the status of inv
func RecomputeInvoice(inv *entity.Invoice, now time.Time) {
	Recompute(&inv.Pricing)
	inv.AmountPaid = RoundMoney(ClampZero(inv.AmountPaid))
	inv.RemainingBalance = RemainingBalance(inv.TotalAmount, inv.AmountPaid)
	inv.Status = DeriveInvoiceStatus(inv, now)
	if inv.Status == enum.InvoiceStatusPaid && inv.PaidDate == nil {
		paid := now
		inv.PaidDate = &paid
	}
	if inv.Status != enum.InvoiceStatusPaid && inv.Status != enum.InvoiceStatusRefunded {
		inv.PaidDate = nil
	}
}

// RemainingBalance is total less paid, clamped at zero for display
func RemainingBalance(total, paid decimal.Decimal) decimal.Decimal {
	return RoundMoney(ClampZero(total.Sub(paid)))
}

// DeriveInvoiceStatus computes the status implied by amounts and dates.
// Payment progress outranks lateness: a part-paid invoice past its due date
// stays partially_paid.
func DeriveInvoiceStatus(inv *entity.Invoice, now time.Time) enum.InvoiceStatus {
	current := inv.Status
	if current.IsTerminal() {
		return current
	}

	if inv.AmountPaid.IsPositive() {
		if inv.AmountPaid.GreaterThanOrEqual(inv.TotalAmount) {
			return enum.InvoiceStatusPaid
		}
		return enum.InvoiceStatusPartiallyPaid
	}

	switch current {
	case enum.InvoiceStatusDraft:
		return current
	case enum.InvoiceStatusPaid, enum.InvoiceStatusPartiallyPaid:
		// money was taken back out
		current = enum.InvoiceStatusSent
	}

	if inv.IsPastDue(now) {
		return enum.InvoiceStatusOverdue
	}
	if current == enum.InvoiceStatusOverdue {
		return enum.InvoiceStatusSent
	}
	return current
}
