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

func (h *harness) sweep(t *testing.T, at time.Time) *service.SweepReport {
	t.Helper()
	h.clock.Set(at)
	report, err := h.reminders.RunDailySweep(h.ctx, at)
	require.NoError(t, err)
	return report
}

func TestRunDailySweep_Escalates(t *testing.T) {
	h := newHarness(t)
	due := start.AddDate(0, 0, 1)
	inv := h.sentInvoice(t, due)
	mailsAfterSend := len(h.mailer.Sent())

	report := h.sweep(t, due.Add(12*time.Hour))
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, 0, report.Sent, "less than a day late")

	steps := []struct {
		at   time.Time
		want enum.ReminderType
	}{
		{due.AddDate(0, 0, 2), enum.ReminderTypeFirst},
		{due.AddDate(0, 0, 10), enum.ReminderTypeSecond},
		{due.AddDate(0, 0, 40), enum.ReminderTypeFinal},
	}
	for i, step := range steps {
		report = h.sweep(t, step.at)
		require.Equal(t, 1, report.Sent, "step %d", i)

		got, err := h.invoices.GetInvoice(h.ctx, inv.ID)
		require.NoError(t, err)
		require.Len(t, got.Reminders, i+1)
		assert.Equal(t, step.want, got.Reminders[i].Type)
		assert.Equal(t, "jane@example.com", got.Reminders[i].SentTo)
		assert.Equal(t, enum.InvoiceStatusOverdue, got.Status)
	}
	assert.Len(t, h.mailer.Sent(), mailsAfterSend+3)

	report = h.sweep(t, due.AddDate(0, 0, 40))
	assert.Equal(t, 0, report.Sent, "same-day rerun sends nothing")
	report = h.sweep(t, due.AddDate(0, 0, 60))
	assert.Equal(t, 0, report.Sent, "final notice is the last tier")
}

func TestRunDailySweep_JumpsStraightToHighestTier(t *testing.T) {
	h := newHarness(t)
	due := start.AddDate(0, 0, 1)
	inv := h.sentInvoice(t, due)

	report := h.sweep(t, due.AddDate(0, 0, 40))
	assert.Equal(t, 1, report.Sent)

	got, err := h.invoices.GetInvoice(h.ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, got.Reminders, 1)
	assert.Equal(t, enum.ReminderTypeFinal, got.Reminders[0].Type)
	assert.Equal(t, 40, got.Reminders[0].DaysPastDue)
}

func TestRunDailySweep_SkipsSettledAndDraft(t *testing.T) {
	h := newHarness(t)
	due := start.AddDate(0, 0, 1)
	paid := h.sentInvoice(t, due)
	_ = h.payInvoice(t, paid, "220")

	draft := h.createInvoice(t)
	_, err := h.invoices.UpdateInvoice(h.ctx, &service.UpdateInvoiceInput{ID: draft.ID, DueDate: &due})
	require.NoError(t, err)

	report := h.sweep(t, due.AddDate(0, 0, 5))
	assert.Equal(t, 0, report.Checked)
	assert.Equal(t, 0, report.Sent)
}

func TestRunDailySweep_CoversEveryTenantAndExpiresQuotes(t *testing.T) {
	h := newHarness(t)
	due := start.AddDate(0, 0, 1)
	h.sentInvoice(t, due)
	h.createQuote(t)

	otherCtx := repository.WithTenant(context.Background(), uuid.New())
	buyer, err := h.customers.CreateCustomer(otherCtx, &service.CreateCustomerInput{Name: "Baraka Otieno", Email: ptr("baraka@example.org")})
	require.NoError(t, err)
	issue := h.clock.Now()
	otherInv, err := h.invoices.CreateInvoice(otherCtx, &service.CreateInvoiceInput{
		CustomerID: buyer.ID,
		IssueDate:  &issue,
		DueDate:    &due,
		Pricing:    standardItems(),
	})
	require.NoError(t, err)
	_, err = h.invoices.SendInvoice(otherCtx, otherInv.ID, uuid.Nil)
	require.NoError(t, err)

	report := h.sweep(t, start.AddDate(0, 0, 31))
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.QuotesExpired)

	got, err := h.invoices.GetInvoice(otherCtx, otherInv.ID)
	require.NoError(t, err)
	require.Len(t, got.Reminders, 1)
	assert.Equal(t, "baraka@example.org", got.Reminders[0].SentTo)
}

func TestRunDailySweep_CountsFailures(t *testing.T) {
	h := newHarness(t)
	due := start.AddDate(0, 0, 1)
	inv := h.sentInvoice(t, due)
	h.mailer.Err = assert.AnError

	report := h.sweep(t, due.AddDate(0, 0, 3))
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Sent)

	got, err := h.invoices.GetInvoice(h.ctx, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Reminders, "a failed send is not logged as sent")

	h.mailer.Err = nil
	report = h.sweep(t, due.AddDate(0, 0, 4))
	assert.Equal(t, 1, report.Sent)
}

func TestScheduleInvoiceReminder(t *testing.T) {
	h := newHarness(t)
	due := start.AddDate(0, 0, 1)
	inv := h.sentInvoice(t, due)

	_, err := h.reminders.ScheduleInvoiceReminder(h.ctx, inv.ID, h.userID)
	assert.True(t, apperror.IsInvalidState(err))

	h.clock.Set(due.AddDate(0, 0, 8))
	got, err := h.reminders.ScheduleInvoiceReminder(h.ctx, inv.ID, h.userID)
	require.NoError(t, err)
	require.Len(t, got.Reminders, 1)
	assert.Equal(t, enum.ReminderTypeSecond, got.Reminders[0].Type)
}

func TestSendBulkReminders(t *testing.T) {
	h := newHarness(t)
	late := h.sentInvoice(t, start.AddDate(0, 0, -20))
	recent := h.sentInvoice(t, start.AddDate(0, 0, -3))
	h.sentInvoice(t, start.AddDate(0, 0, 10))

	report, err := h.reminders.SendBulkReminders(h.ctx, &service.BulkReminderCriteria{
		UserID:         h.userID,
		MinDaysPastDue: 10,
		Type:           enum.ReminderTypeFirst,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.Sent)

	got, err := h.invoices.GetInvoice(h.ctx, late.ID)
	require.NoError(t, err)
	require.Len(t, got.Reminders, 1)
	assert.Equal(t, enum.ReminderTypeFirst, got.Reminders[0].Type)

	got, err = h.invoices.GetInvoice(h.ctx, recent.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Reminders)

	report, err = h.reminders.SendBulkReminders(h.ctx, &service.BulkReminderCriteria{MinDaysPastDue: 10, Type: enum.ReminderTypeFirst})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sent, "a tier is never repeated")

	_, err = h.reminders.SendBulkReminders(h.ctx, &service.BulkReminderCriteria{MinDaysPastDue: 5, MaxDaysPastDue: 2})
	assert.True(t, apperror.IsValidation(err))
	_, err = h.reminders.SendBulkReminders(h.ctx, &service.BulkReminderCriteria{Type: "gentle_nudge"})
	assert.True(t, apperror.IsValidation(err))
}

func TestSendBulkReminders_ExplicitTypeNeverDowngrades(t *testing.T) {
	h := newHarness(t)
	inv := h.sentInvoice(t, start.AddDate(0, 0, -40))

	_, err := h.invoices.SendReminder(h.ctx, inv.ID, enum.ReminderTypeFinal, h.userID)
	require.NoError(t, err)

	criteria := &service.BulkReminderCriteria{UserID: h.userID, MinDaysPastDue: 1, Type: enum.ReminderTypeSecond}
	report, err := h.reminders.SendBulkReminders(h.ctx, criteria)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sent, "inside the quiet period")

	h.clock.Advance(3 * 24 * time.Hour)
	report, err = h.reminders.SendBulkReminders(h.ctx, criteria)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sent, "second reminder after the final notice")

	got, err := h.invoices.GetInvoice(h.ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, got.Reminders, 1)
	assert.Equal(t, enum.ReminderTypeFinal, got.Reminders[0].Type)
}
