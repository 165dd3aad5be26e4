package service_test

import (
	"testing"

	"github.com/sangkips/investify-billing/internal/application/service"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aggregateFor(rows []repository.StatusAggregate, status string) repository.StatusAggregate {
	for _, r := range rows {
		if r.Status == status {
			return r
		}
	}
	return repository.StatusAggregate{}
}

func TestGetBillingSummary(t *testing.T) {
	h := newHarness(t)

	h.createInvoice(t)
	partial := h.sentInvoice(t, start.AddDate(0, 0, 30))
	_, err := h.payments.ProcessPayment(h.ctx, &service.ProcessPaymentInput{
		InvoiceID: &partial.ID,
		Amount:    d("100"),
		Method:    enum.PaymentMethodCash,
	})
	require.NoError(t, err)

	late := h.sentInvoice(t, start.AddDate(0, 0, 1))
	h.clock.Set(start.AddDate(0, 0, 5))
	_, err = h.invoices.MarkAsViewed(h.ctx, late.ID)
	require.NoError(t, err)

	sub := h.subscribe(t)
	h.gateway.Subscriptions[sub.GatewaySubscriptionID].UnitAmount = d("25")
	h.gateway.Subscriptions[sub.GatewaySubscriptionID].Quantity = 2
	_, err = h.subscriptions.SyncWithGateway(h.ctx, sub.ID, h.userID)
	require.NoError(t, err)

	summary, err := h.reports.GetBillingSummary(h.ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), aggregateFor(summary.Invoices, string(enum.InvoiceStatusDraft)).Count)
	assert.Equal(t, int64(1), aggregateFor(summary.Invoices, string(enum.InvoiceStatusPartiallyPaid)).Count)
	assert.Equal(t, int64(1), aggregateFor(summary.Invoices, string(enum.InvoiceStatusOverdue)).Count)

	assertMoney(t, "440", summary.TotalInvoiced, "invoiced excludes drafts")
	assertMoney(t, "340", summary.TotalOutstanding, "outstanding")
	assertMoney(t, "220", summary.TotalOverdue, "overdue")
	assertMoney(t, "100", summary.TotalCollected, "collected")
	assertMoney(t, "50", summary.MonthlyRecurring, "recurring")
}
