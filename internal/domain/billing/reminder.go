package billing

import (
	"time"

	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/enum"
)

// MinReminderGap is the quiet period after any reminder before another is sent
const MinReminderGap = 24 * time.Hour

// ReminderTier pairs a days-past-due threshold with the reminder it triggers
type ReminderTier struct {
	DaysPastDue int
	Type        enum.ReminderType
}

// EscalationTable lists tiers from least to most severe
var EscalationTable = []ReminderTier{
	{DaysPastDue: 1, Type: enum.ReminderTypeFirst},
	{DaysPastDue: 7, Type: enum.ReminderTypeSecond},
	{DaysPastDue: 30, Type: enum.ReminderTypeFinal},
}

// DaysPastDue counts whole days elapsed since the due date, zero if not yet due
func DaysPastDue(due, now time.Time) int {
	if !now.After(due) {
		return 0
	}
	return wholeDays(now.Sub(due))
}

// RemindableStatus reports whether reminders may be sent for an invoice in status s
func RemindableStatus(s enum.InvoiceStatus) bool {
	switch s {
	case enum.InvoiceStatusSent, enum.InvoiceStatusViewed, enum.InvoiceStatusPartiallyPaid, enum.InvoiceStatusOverdue:
		return true
	}
	return false
}

// SelectReminder picks the reminder the sweep should send for inv at now.
// It returns the most severe tier whose threshold is met, provided
// AllowReminder accepts it.
func SelectReminder(inv *entity.Invoice, now time.Time) (enum.ReminderType, bool) {
	days := DaysPastDue(inv.DueDate, now)
	for i := len(EscalationTable) - 1; i >= 0; i-- {
		tier := EscalationTable[i]
		if days < tier.DaysPastDue {
			continue
		}
		if !AllowReminder(inv, tier.Type, now) {
			return "", false
		}
		return tier.Type, true
	}
	return "", false
}

// AllowReminder reports whether a reminder of type t may go out for inv at
// now: the invoice is remindable, t has not been sent, t outranks every
// reminder already sent, and the last reminder is at least MinReminderGap old.
// Days-past-due thresholds are not checked here.
func AllowReminder(inv *entity.Invoice, t enum.ReminderType, now time.Time) bool {
	if !RemindableStatus(inv.Status) || inv.HasReminder(t) {
		return false
	}
	if last := inv.LastReminder(); last != nil && now.Sub(last.SentAt) < MinReminderGap {
		return false
	}
	for _, r := range inv.Reminders {
		if r.Type.Severity() >= t.Severity() {
			return false
		}
	}
	return true
}
