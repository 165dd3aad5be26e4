package service_test

import (
	"testing"
	"time"

	"github.com/sangkips/investify-billing/internal/application/service"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/sangkips/investify-billing/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) createQuote(t *testing.T) *entity.Quote {
	t.Helper()
	q, err := h.quotes.CreateQuote(h.ctx, &service.CreateQuoteInput{
		UserID:     h.userID,
		CustomerID: h.customer.ID,
		Title:      "Website rebuild",
		Pricing:    standardItems(),
	})
	require.NoError(t, err)
	return q
}

func TestCreateQuote(t *testing.T) {
	h := newHarness(t)
	q := h.createQuote(t)

	assert.Equal(t, "QUO-2026-0001", q.Number)
	assert.Equal(t, enum.QuoteStatusDraft, q.Status)
	assert.Equal(t, start.AddDate(0, 0, 30), q.ExpiryDate)
	assertMoney(t, "220", q.TotalAmount, "total")
}

func TestQuoteLineItems(t *testing.T) {
	h := newHarness(t)
	q := h.createQuote(t)

	q, err := h.quotes.AddLineItem(h.ctx, q.ID, service.LineItemInput{
		Description: "Hosting", Quantity: d("1"), UnitPrice: d("50"), Taxable: ptr(false),
	}, h.userID)
	require.NoError(t, err)
	require.Len(t, q.LineItems, 3)
	assertMoney(t, "250", q.Subtotal, "subtotal")
	assertMoney(t, "20", q.TaxAmount, "tax")
	assertMoney(t, "270", q.TotalAmount, "total")

	setup := q.LineItems[1].ID
	q, err = h.quotes.UpdateLineItem(h.ctx, q.ID, setup, service.LineItemInput{
		Description: "Setup", Quantity: d("1"), UnitPrice: d("200"),
	}, h.userID)
	require.NoError(t, err)
	assertMoney(t, "350", q.Subtotal, "subtotal")
	assertMoney(t, "30", q.TaxAmount, "tax")
	assert.Equal(t, setup, q.LineItems[1].ID)

	hosting := q.LineItems[2].ID
	q, err = h.quotes.RemoveLineItem(h.ctx, q.ID, hosting, h.userID)
	require.NoError(t, err)
	assertMoney(t, "300", q.Subtotal, "subtotal")
	assertMoney(t, "330", q.TotalAmount, "total")

	_, err = h.quotes.RemoveLineItem(h.ctx, q.ID, hosting, h.userID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDecidedQuoteIsLocked(t *testing.T) {
	h := newHarness(t)
	q := h.createQuote(t)

	q, err := h.quotes.AcceptQuote(h.ctx, q.ID, h.userID)
	require.NoError(t, err)
	assert.Equal(t, enum.QuoteStatusAccepted, q.Status)
	assert.NotNil(t, q.AcceptedAt)

	_, err = h.quotes.AddLineItem(h.ctx, q.ID, service.LineItemInput{Description: "Extra", Quantity: d("1"), UnitPrice: d("1")}, h.userID)
	assert.True(t, apperror.IsInvalidState(err))
	_, err = h.quotes.UpdateQuote(h.ctx, &service.UpdateQuoteInput{ID: q.ID, Title: ptr("changed")})
	assert.True(t, apperror.IsInvalidState(err))
	_, err = h.quotes.RejectQuote(h.ctx, q.ID, "too late", h.userID)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestAcceptExpiredQuote(t *testing.T) {
	h := newHarness(t)
	issued := start.AddDate(0, 0, -40)
	expired := start.AddDate(0, 0, -10)

	q, err := h.quotes.CreateQuote(h.ctx, &service.CreateQuoteInput{
		UserID:     h.userID,
		CustomerID: h.customer.ID,
		IssueDate:  &issued,
		ExpiryDate: &expired,
		Pricing:    standardItems(),
	})
	require.NoError(t, err)

	_, err = h.quotes.AcceptQuote(h.ctx, q.ID, h.userID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
	assert.Contains(t, err.Error(), "expired")

	stored, err := h.quotes.GetQuote(h.ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.QuoteStatusExpired, stored.Status)
}

func TestConvertToInvoice(t *testing.T) {
	h := newHarness(t)
	q := h.createQuote(t)

	_, err := h.quotes.ConvertToInvoice(h.ctx, q.ID, h.userID)
	assert.True(t, apperror.IsInvalidState(err), "draft quotes are not convertible")

	_, err = h.quotes.AcceptQuote(h.ctx, q.ID, h.userID)
	require.NoError(t, err)

	inv, err := h.quotes.ConvertToInvoice(h.ctx, q.ID, h.userID)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0001", inv.Number)
	require.NotNil(t, inv.QuoteID)
	assert.Equal(t, q.ID, *inv.QuoteID)
	assert.True(t, q.TotalAmount.Equal(inv.TotalAmount))
	assert.True(t, q.Subtotal.Equal(inv.Subtotal))
	assert.True(t, q.TaxAmount.Equal(inv.TaxAmount))
	require.Len(t, inv.LineItems, len(q.LineItems))
	for i := range q.LineItems {
		assert.Equal(t, q.LineItems[i].Description, inv.LineItems[i].Description)
		assert.True(t, q.LineItems[i].TotalPrice.Equal(inv.LineItems[i].TotalPrice))
	}

	stored, err := h.quotes.GetQuote(h.ctx, q.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ConvertedInvoiceID)
	assert.Equal(t, inv.ID, *stored.ConvertedInvoiceID)

	_, err = h.quotes.ConvertToInvoice(h.ctx, q.ID, h.userID)
	assert.True(t, apperror.IsInvalidState(err))
	assert.True(t, apperror.IsInvalidState(h.quotes.DeleteQuote(h.ctx, q.ID)))
}

func TestSendQuote(t *testing.T) {
	h := newHarness(t)
	q := h.createQuote(t)

	q, err := h.quotes.SendQuote(h.ctx, q.ID, h.userID)
	require.NoError(t, err)
	assert.Equal(t, enum.QuoteStatusSent, q.Status)
	assert.NotEmpty(t, q.PDFPath)
	require.Len(t, h.mailer.Sent(), 1)
	assert.Contains(t, h.mailer.Sent()[0].Subject, q.Number)

	q, err = h.quotes.RejectQuote(h.ctx, q.ID, "over budget", h.userID)
	require.NoError(t, err)
	assert.Equal(t, enum.QuoteStatusRejected, q.Status)
	require.NotNil(t, q.RejectionReason)
	assert.Equal(t, "over budget", *q.RejectionReason)
}

func TestExpireQuotes(t *testing.T) {
	h := newHarness(t)
	stale := h.createQuote(t)
	fresh := h.createQuote(t)

	later := start.AddDate(0, 0, 45)
	_, err := h.quotes.UpdateQuote(h.ctx, &service.UpdateQuoteInput{ID: fresh.ID, ExpiryDate: &later})
	require.NoError(t, err)

	h.clock.Advance(31 * 24 * time.Hour)
	n, err := h.quotes.ExpireQuotes(h.ctx, h.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := h.quotes.GetQuote(h.ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.QuoteStatusExpired, got.Status)
	got, err = h.quotes.GetQuote(h.ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.QuoteStatusDraft, got.Status)
}

func TestDuplicateQuote(t *testing.T) {
	h := newHarness(t)
	q := h.createQuote(t)
	_, err := h.quotes.AcceptQuote(h.ctx, q.ID, h.userID)
	require.NoError(t, err)

	dup, err := h.quotes.DuplicateQuote(h.ctx, q.ID, h.userID)
	require.NoError(t, err)
	assert.Equal(t, enum.QuoteStatusDraft, dup.Status)
	assert.Equal(t, "QUO-2026-0002", dup.Number)
	assert.Nil(t, dup.ConvertedInvoiceID)
	assertMoney(t, "220", dup.TotalAmount, "total")
}
