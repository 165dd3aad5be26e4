package billing

import (
	"testing"
	"time"

	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/stretchr/testify/assert"
)

func newInvoice(status enum.InvoiceStatus, due time.Time) *entity.Invoice {
	inv := &entity.Invoice{
		Status:  status,
		DueDate: due,
	}
	inv.LineItems = []entity.LineItem{item("2", "100", true)}
	inv.TaxRate = d("10")
	return inv
}

func TestRecomputeInvoiceStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	future := now.Add(72 * time.Hour)
	past := now.Add(-72 * time.Hour)

	tests := []struct {
		name   string
		status enum.InvoiceStatus
		due    time.Time
		paid   string
		want   enum.InvoiceStatus
	}{
		{"draft stays draft past due", enum.InvoiceStatusDraft, past, "0", enum.InvoiceStatusDraft},
		{"sent before due", enum.InvoiceStatusSent, future, "0", enum.InvoiceStatusSent},
		{"sent past due becomes overdue", enum.InvoiceStatusSent, past, "0", enum.InvoiceStatusOverdue},
		{"viewed past due becomes overdue", enum.InvoiceStatusViewed, past, "0", enum.InvoiceStatusOverdue},
		{"overdue with extended due date returns to sent", enum.InvoiceStatusOverdue, future, "0", enum.InvoiceStatusSent},
		{"part payment", enum.InvoiceStatusSent, future, "50", enum.InvoiceStatusPartiallyPaid},
		{"part payment past due stays partially paid", enum.InvoiceStatusOverdue, past, "50", enum.InvoiceStatusPartiallyPaid},
		{"full payment", enum.InvoiceStatusSent, future, "220", enum.InvoiceStatusPaid},
		{"over payment", enum.InvoiceStatusOverdue, past, "300", enum.InvoiceStatusPaid},
		{"cancelled is terminal", enum.InvoiceStatusCancelled, past, "0", enum.InvoiceStatusCancelled},
		{"refunded is terminal", enum.InvoiceStatusRefunded, past, "0", enum.InvoiceStatusRefunded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := newInvoice(tt.status, tt.due)
			inv.AmountPaid = d(tt.paid)
			RecomputeInvoice(inv, now)
			assert.Equal(t, tt.want, inv.Status)
		})
	}
}

func TestRecomputeInvoiceBalances(t *testing.T) {
	now := time.Now()
	inv := newInvoice(enum.InvoiceStatusSent, now.Add(time.Hour))
	inv.AmountPaid = d("220")

	RecomputeInvoice(inv, now)

	assert.True(t, d("220").Equal(inv.TotalAmount))
	assert.True(t, inv.RemainingBalance.IsZero())
	assert.Equal(t, enum.InvoiceStatusPaid, inv.Status)
	assert.NotNil(t, inv.PaidDate)

	inv.AmountPaid = d("500")
	RecomputeInvoice(inv, now)
	assert.True(t, inv.RemainingBalance.IsZero(), "balance is clamped at zero")

	inv.AmountPaid = d("20")
	RecomputeInvoice(inv, now)
	assert.True(t, d("200").Equal(inv.RemainingBalance))
	assert.Equal(t, enum.InvoiceStatusPartiallyPaid, inv.Status)
	assert.Nil(t, inv.PaidDate)
}
