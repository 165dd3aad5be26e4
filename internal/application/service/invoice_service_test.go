package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/application/service"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInvoice_TotalsAndNumbering(t *testing.T) {
	h := newHarness(t)

	inv := h.createInvoice(t)
	assert.Equal(t, "INV-2026-0001", inv.Number)
	assert.Equal(t, enum.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, "Wanjiku Traders", inv.CompanyName)
	assert.Equal(t, "USD", inv.Currency)
	assertMoney(t, "200", inv.Subtotal, "subtotal")
	assertMoney(t, "20", inv.TaxAmount, "tax")
	assertMoney(t, "220", inv.TotalAmount, "total")
	assertMoney(t, "220", inv.RemainingBalance, "remaining")
	assert.Equal(t, start.AddDate(0, 0, 30), inv.DueDate)

	second := h.createInvoice(t)
	assert.Equal(t, "INV-2026-0002", second.Number)
}

func TestCreateInvoice_Validation(t *testing.T) {
	h := newHarness(t)

	_, err := h.invoices.CreateInvoice(h.ctx, &service.CreateInvoiceInput{
		UserID:     h.userID,
		CustomerID: h.customer.ID,
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = h.invoices.CreateInvoice(h.ctx, &service.CreateInvoiceInput{
		UserID:     h.userID,
		CustomerID: uuid.New(),
		Pricing:    standardItems(),
	})
	assert.True(t, apperror.IsNotFound(err))

	oversized := standardItems()
	oversized.DiscountAmount = d("500")
	_, err = h.invoices.CreateInvoice(h.ctx, &service.CreateInvoiceInput{
		UserID:     h.userID,
		CustomerID: h.customer.ID,
		Pricing:    oversized,
	})
	assert.True(t, apperror.IsValidation(err), "discount above the subtotal")

	_, err = h.invoices.CreateInvoice(context.Background(), &service.CreateInvoiceInput{
		UserID:     h.userID,
		CustomerID: h.customer.ID,
		Pricing:    standardItems(),
	})
	assert.Error(t, err)
}

func TestMarkAsPaid(t *testing.T) {
	h := newHarness(t)
	inv := h.createInvoice(t)

	inv, err := h.invoices.MarkAsPaid(h.ctx, &service.MarkAsPaidInput{ID: inv.ID, UserID: h.userID, Amount: d("100")})
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusPartiallyPaid, inv.Status)
	assertMoney(t, "120", inv.RemainingBalance, "remaining")
	assert.Nil(t, inv.PaidDate)

	inv, err = h.invoices.MarkAsPaid(h.ctx, &service.MarkAsPaidInput{ID: inv.ID, UserID: h.userID, Amount: d("220")})
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusPaid, inv.Status)
	assertMoney(t, "0", inv.RemainingBalance, "remaining")
	assert.NotNil(t, inv.PaidDate)

	stored, err := h.invoices.GetInvoice(h.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusPaid, stored.Status)
}

func TestMarkAsPaid_OverpaymentClampsBalance(t *testing.T) {
	h := newHarness(t)
	inv := h.createInvoice(t)

	inv, err := h.invoices.MarkAsPaid(h.ctx, &service.MarkAsPaidInput{ID: inv.ID, Amount: d("250")})
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusPaid, inv.Status)
	assertMoney(t, "0", inv.RemainingBalance, "remaining")
}

func TestCancelInvoice(t *testing.T) {
	h := newHarness(t)

	t.Run("paid invoice cannot be cancelled", func(t *testing.T) {
		inv := h.createInvoice(t)
		_, err := h.invoices.MarkAsPaid(h.ctx, &service.MarkAsPaidInput{ID: inv.ID, Amount: d("220")})
		require.NoError(t, err)

		_, err = h.invoices.CancelInvoice(h.ctx, inv.ID, "duplicate", h.userID)
		assert.True(t, apperror.IsInvalidState(err))
	})

	t.Run("open invoice is cancelled once", func(t *testing.T) {
		inv := h.sentInvoice(t, h.clock.Now().AddDate(0, 0, 14))

		inv, err := h.invoices.CancelInvoice(h.ctx, inv.ID, "customer withdrew", h.userID)
		require.NoError(t, err)
		assert.Equal(t, enum.InvoiceStatusCancelled, inv.Status)
		require.NotNil(t, inv.PrivateNotes)
		assert.Contains(t, *inv.PrivateNotes, "Cancelled: customer withdrew")

		_, err = h.invoices.CancelInvoice(h.ctx, inv.ID, "again", h.userID)
		assert.True(t, apperror.IsInvalidState(err))
	})
}

func TestUpdateInvoice(t *testing.T) {
	h := newHarness(t)
	inv := h.createInvoice(t)

	inv, err := h.invoices.UpdateInvoice(h.ctx, &service.UpdateInvoiceInput{
		ID:     inv.ID,
		UserID: h.userID,
		Items: []service.LineItemInput{
			{Description: "Widget", Quantity: d("3"), UnitPrice: d("50")},
		},
		DiscountAmount: ptr(d("15")),
	})
	require.NoError(t, err)
	assertMoney(t, "150", inv.Subtotal, "subtotal")
	assertMoney(t, "15", inv.TaxAmount, "tax")
	assertMoney(t, "150", inv.TotalAmount, "total")
	assert.True(t, inv.TotalAmount.Equal(inv.Subtotal.Add(inv.TaxAmount).Sub(inv.DiscountAmount)))

	_, err = h.invoices.MarkAsPaid(h.ctx, &service.MarkAsPaidInput{ID: inv.ID, Amount: d("150")})
	require.NoError(t, err)
	_, err = h.invoices.UpdateInvoice(h.ctx, &service.UpdateInvoiceInput{ID: inv.ID, Notes: ptr("late edit")})
	assert.True(t, apperror.IsInvalidState(err))
}

func TestSendInvoice_EmailsPDF(t *testing.T) {
	h := newHarness(t)
	inv := h.createInvoice(t)

	inv, err := h.invoices.SendInvoice(h.ctx, inv.ID, h.userID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusSent, inv.Status)
	assert.NotEmpty(t, inv.PDFPath)
	require.NotNil(t, inv.LastSentDate)

	sent := h.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@example.com", sent[0].To)
	assert.Contains(t, sent[0].Subject, inv.Number)
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, "application/pdf", sent[0].Attachments[0].ContentType)

	viewed, err := h.invoices.MarkAsViewed(h.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusViewed, viewed.Status)
}

func TestSentInvoiceBecomesOverdue(t *testing.T) {
	h := newHarness(t)
	inv := h.sentInvoice(t, start.Add(24*time.Hour))

	h.clock.Advance(3 * 24 * time.Hour)
	inv, err := h.invoices.UpdateInvoice(h.ctx, &service.UpdateInvoiceInput{ID: inv.ID, Notes: ptr("chased by phone")})
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusOverdue, inv.Status)

	later := h.clock.Now().AddDate(0, 0, 10)
	inv, err = h.invoices.UpdateInvoice(h.ctx, &service.UpdateInvoiceInput{ID: inv.ID, DueDate: &later})
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusSent, inv.Status)
}

func TestDeleteInvoice_DraftOnly(t *testing.T) {
	h := newHarness(t)

	draft := h.createInvoice(t)
	require.NoError(t, h.invoices.DeleteInvoice(h.ctx, draft.ID))
	_, err := h.invoices.GetInvoice(h.ctx, draft.ID)
	assert.True(t, apperror.IsNotFound(err))

	sent := h.sentInvoice(t, start.AddDate(0, 0, 30))
	assert.True(t, apperror.IsInvalidState(h.invoices.DeleteInvoice(h.ctx, sent.ID)))
}

func TestDuplicateInvoice(t *testing.T) {
	h := newHarness(t)
	source := h.sentInvoice(t, start.AddDate(0, 0, 30))

	dup, err := h.invoices.DuplicateInvoice(h.ctx, source.ID, h.userID)
	require.NoError(t, err)
	assert.NotEqual(t, source.ID, dup.ID)
	assert.NotEqual(t, source.Number, dup.Number)
	assert.Equal(t, enum.InvoiceStatusDraft, dup.Status)
	assertMoney(t, source.TotalAmount.String(), dup.TotalAmount, "total")
	require.Len(t, dup.LineItems, len(source.LineItems))
	assert.NotEqual(t, source.LineItems[0].ID, dup.LineItems[0].ID)
}

func TestDuplicateInvoice_LeavesHistoryBehind(t *testing.T) {
	h := newHarness(t)
	source := h.sentInvoice(t, start.AddDate(0, 0, -10))
	_, err := h.invoices.SendReminder(h.ctx, source.ID, enum.ReminderTypeFirst, h.userID)
	require.NoError(t, err)
	source, err = h.invoices.CancelInvoice(h.ctx, source.ID, "customer went out of business", h.userID)
	require.NoError(t, err)
	require.NotNil(t, source.PrivateNotes)

	dup, err := h.invoices.DuplicateInvoice(h.ctx, source.ID, h.userID)
	require.NoError(t, err)
	assert.Nil(t, dup.PrivateNotes)
	assert.Empty(t, dup.Reminders)
	assert.Nil(t, dup.PaidDate)
	assert.Equal(t, enum.InvoiceStatusDraft, dup.Status)
	assertMoney(t, "0", dup.AmountPaid, "amount paid")
}

func TestInvoicesAreTenantScoped(t *testing.T) {
	h := newHarness(t)
	inv := h.createInvoice(t)

	other := repository.WithTenant(context.Background(), uuid.New())
	_, err := h.invoices.GetInvoice(other, inv.ID)
	assert.True(t, apperror.IsNotFound(err))
}
