package billing

import (
	"testing"
	"time"

	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/stretchr/testify/assert"
)

func TestDaysPastDue(t *testing.T) {
	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysPastDue(due, due))
	assert.Equal(t, 0, DaysPastDue(due, due.Add(-48*time.Hour)))
	assert.Equal(t, 0, DaysPastDue(due, due.Add(23*time.Hour)))
	assert.Equal(t, 1, DaysPastDue(due, due.Add(25*time.Hour)))
	assert.Equal(t, 40, DaysPastDue(due, due.AddDate(0, 0, 40)))
}

func TestSelectReminderEscalates(t *testing.T) {
	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inv := &entity.Invoice{Status: enum.InvoiceStatusSent, DueDate: due}

	var sent []enum.ReminderType
	for _, day := range []int{0, 2, 10, 40} {
		now := due.AddDate(0, 0, day).Add(time.Hour)
		if rt, ok := SelectReminder(inv, now); ok {
			sent = append(sent, rt)
			inv.Reminders = append(inv.Reminders, entity.ReminderEntry{Type: rt, SentAt: now})
		}
	}

	assert.Equal(t, []enum.ReminderType{
		enum.ReminderTypeFirst,
		enum.ReminderTypeSecond,
		enum.ReminderTypeFinal,
	}, sent)
}

func TestSelectReminderSkipsLowerTiersAfterFinal(t *testing.T) {
	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inv := &entity.Invoice{Status: enum.InvoiceStatusOverdue, DueDate: due}

	now := due.AddDate(0, 0, 45)
	rt, ok := SelectReminder(inv, now)
	assert.True(t, ok)
	assert.Equal(t, enum.ReminderTypeFinal, rt)

	inv.Reminders = append(inv.Reminders, entity.ReminderEntry{Type: rt, SentAt: now})
	_, ok = SelectReminder(inv, now.AddDate(0, 0, 3))
	assert.False(t, ok, "no less severe tier may follow the final notice")
}

func TestSelectReminderRespectsGap(t *testing.T) {
	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sentAt := due.AddDate(0, 0, 6).Add(20 * time.Hour)
	inv := &entity.Invoice{
		Status:    enum.InvoiceStatusOverdue,
		DueDate:   due,
		Reminders: []entity.ReminderEntry{{Type: enum.ReminderTypeFirst, SentAt: sentAt}},
	}

	_, ok := SelectReminder(inv, sentAt.Add(12*time.Hour))
	assert.False(t, ok)

	rt, ok := SelectReminder(inv, sentAt.Add(25*time.Hour))
	assert.True(t, ok)
	assert.Equal(t, enum.ReminderTypeSecond, rt)
}

func TestSelectReminderIgnoresSettledInvoices(t *testing.T) {
	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := due.AddDate(0, 0, 10)

	for _, status := range []enum.InvoiceStatus{
		enum.InvoiceStatusPaid,
		enum.InvoiceStatusCancelled,
		enum.InvoiceStatusDraft,
		enum.InvoiceStatusRefunded,
	} {
		_, ok := SelectReminder(&entity.Invoice{Status: status, DueDate: due}, now)
		assert.False(t, ok, status)
	}
}

func TestAllowReminder(t *testing.T) {
	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sentAt := due.AddDate(0, 0, 2)
	inv := &entity.Invoice{
		Status:    enum.InvoiceStatusOverdue,
		DueDate:   due,
		Reminders: []entity.ReminderEntry{{Type: enum.ReminderTypeSecond, SentAt: sentAt}},
	}
	later := sentAt.Add(48 * time.Hour)

	assert.False(t, AllowReminder(inv, enum.ReminderTypeFirst, later), "less severe than one already sent")
	assert.False(t, AllowReminder(inv, enum.ReminderTypeSecond, later), "already sent")
	assert.False(t, AllowReminder(inv, enum.ReminderTypeFinal, sentAt.Add(time.Hour)), "quiet period")
	assert.True(t, AllowReminder(inv, enum.ReminderTypeFinal, later), "threshold is the caller's concern")

	inv.Status = enum.InvoiceStatusPaid
	assert.False(t, AllowReminder(inv, enum.ReminderTypeFinal, later))
}
