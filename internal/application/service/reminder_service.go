package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/billing"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/pkg/apperror"
	"github.com/sangkips/investify-billing/pkg/logger"
	"github.com/sourcegraph/conc/pool"
)

// ReminderService sends overdue reminders following the escalation table
type ReminderService struct {
	invoices *InvoiceService
	quotes   *QuoteService
	workers  int
	log      *logger.Logger
	now      Clock
}

// NewReminderService creates a reminder service that sends on at most workers goroutines
func NewReminderService(invoices *InvoiceService, quotes *QuoteService, workers int, log *logger.Logger) *ReminderService {
	if workers <= 0 {
		workers = 1
	}
	return &ReminderService{
		invoices: invoices,
		quotes:   quotes,
		workers:  workers,
		log:      log,
		now:      systemClock,
	}
}

// WithClock replaces the time source
func (s *ReminderService) WithClock(c Clock) *ReminderService {
	s.now = c
	return s
}

// SweepReport summarises one reminder run
type SweepReport struct {
	Checked       int `json:"checked"`
	Sent          int `json:"sent"`
	Skipped       int `json:"skipped"`
	Failed        int `json:"failed"`
	QuotesExpired int `json:"quotes_expired"`
}

// RunDailySweep sends at most one reminder to every past-due invoice of every
// tenant and expires stale quotes. Failures on one invoice do not stop the run.
func (s *ReminderService) RunDailySweep(ctx context.Context, now time.Time) (*SweepReport, error) {
	ctx = repository.WithSkipTenantScope(ctx, true)
	candidates, err := s.invoices.ReminderCandidates(ctx, now)
	if err != nil {
		return nil, err
	}

	report := s.dispatch(ctx, candidates, uuid.Nil, func(inv *entity.Invoice) (enum.ReminderType, bool) {
		return billing.SelectReminder(inv, now)
	})

	expired, err := s.quotes.ExpireQuotes(ctx, now)
	if err != nil {
		s.log.Errorw("quote expiry failed", "error", err)
	}
	report.QuotesExpired = expired

	s.log.Infow("reminder sweep finished",
		"checked", report.Checked, "sent", report.Sent, "skipped", report.Skipped,
		"failed", report.Failed, "quotes_expired", report.QuotesExpired)
	return report, nil
}

// ScheduleInvoiceReminder evaluates a single invoice now and sends whatever
// reminder is due for it
func (s *ReminderService) ScheduleInvoiceReminder(ctx context.Context, id, userID uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.invoices.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	reminderType, ok := billing.SelectReminder(invoice, s.now())
	if !ok {
		return nil, apperror.NewInvalidStateError("no reminder is due for invoice %s", invoice.Number)
	}
	return s.invoices.SendReminder(ctx, id, reminderType, userID)
}

// BulkReminderCriteria selects past-due invoices by days overdue. A zero
// MaxDaysPastDue means no upper bound; an empty Type lets the escalation
// table choose. An explicit Type skips the days thresholds but still never
// goes below a reminder already sent or inside the quiet period.
type BulkReminderCriteria struct {
	UserID         uuid.UUID
	MinDaysPastDue int
	MaxDaysPastDue int
	Type           enum.ReminderType
}

// SendBulkReminders sends reminders to the current tenant's invoices matching criteria
func (s *ReminderService) SendBulkReminders(ctx context.Context, criteria *BulkReminderCriteria) (*SweepReport, error) {
	if criteria.Type != "" && !criteria.Type.IsValid() {
		return nil, apperror.NewFieldValidationError("type", "unknown reminder type")
	}
	if criteria.MaxDaysPastDue > 0 && criteria.MaxDaysPastDue < criteria.MinDaysPastDue {
		return nil, apperror.NewFieldValidationError("max_days_past_due", "must not be below min_days_past_due")
	}

	now := s.now()
	candidates, err := s.invoices.ReminderCandidates(ctx, now)
	if err != nil {
		return nil, err
	}

	report := s.dispatch(ctx, candidates, criteria.UserID, func(inv *entity.Invoice) (enum.ReminderType, bool) {
		days := billing.DaysPastDue(inv.DueDate, now)
		if days < criteria.MinDaysPastDue || (criteria.MaxDaysPastDue > 0 && days > criteria.MaxDaysPastDue) {
			return "", false
		}
		if criteria.Type == "" {
			return billing.SelectReminder(inv, now)
		}
		if !billing.AllowReminder(inv, criteria.Type, now) {
			return "", false
		}
		return criteria.Type, true
	})
	return report, nil
}

// dispatch fans candidates out over the worker pool. Each invoice is owned by
// exactly one worker.
func (s *ReminderService) dispatch(ctx context.Context, candidates []entity.Invoice, userID uuid.UUID, pick func(*entity.Invoice) (enum.ReminderType, bool)) *SweepReport {
	var sent, skipped, failed atomic.Int64

	p := pool.New().WithMaxGoroutines(s.workers)
	for i := range candidates {
		inv := &candidates[i]
		p.Go(func() {
			reminderType, ok := pick(inv)
			if !ok {
				skipped.Add(1)
				return
			}
			tenantCtx := repository.ScopeForTenant(ctx, inv.TenantID)
			if _, err := s.invoices.SendReminder(tenantCtx, inv.ID, reminderType, userID); err != nil {
				failed.Add(1)
				s.log.Warnw("reminder failed", "invoice_id", inv.ID, "type", reminderType, "error", err)
				return
			}
			sent.Add(1)
		})
	}
	p.Wait()

	return &SweepReport{
		Checked: len(candidates),
		Sent:    int(sent.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}
}
