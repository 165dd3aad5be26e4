package service

import (
	"context"

	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// ReportService builds billing summaries from grouped repository aggregates
type ReportService struct {
	invoiceRepo      repository.InvoiceRepository
	quoteRepo        repository.QuoteRepository
	paymentRepo      repository.PaymentRepository
	subscriptionRepo repository.SubscriptionRepository
}

// NewReportService creates a new report service
func NewReportService(
	invoiceRepo repository.InvoiceRepository,
	quoteRepo repository.QuoteRepository,
	paymentRepo repository.PaymentRepository,
	subscriptionRepo repository.SubscriptionRepository,
) *ReportService {
	return &ReportService{
		invoiceRepo:      invoiceRepo,
		quoteRepo:        quoteRepo,
		paymentRepo:      paymentRepo,
		subscriptionRepo: subscriptionRepo,
	}
}

// BillingSummary is the tenant-wide billing overview
type BillingSummary struct {
	Invoices      []repository.StatusAggregate `json:"invoices"`
	Quotes        []repository.StatusAggregate `json:"quotes"`
	Payments      []repository.StatusAggregate `json:"payments"`
	Subscriptions []repository.StatusAggregate `json:"subscriptions"`

	TotalInvoiced    decimal.Decimal `json:"total_invoiced"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	TotalOverdue     decimal.Decimal `json:"total_overdue"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	// MonthlyRecurring sums amount × quantity of active and trialing subscriptions
	MonthlyRecurring decimal.Decimal `json:"monthly_recurring"`
}

// GetBillingSummary aggregates the current tenant's documents by status
func (s *ReportService) GetBillingSummary(ctx context.Context) (*BillingSummary, error) {
	invoices, err := s.invoiceRepo.Aggregate(ctx, nil)
	if err != nil {
		return nil, err
	}
	quotes, err := s.quoteRepo.Aggregate(ctx, nil)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.Aggregate(ctx, nil)
	if err != nil {
		return nil, err
	}
	subscriptions, err := s.subscriptionRepo.Aggregate(ctx, nil)
	if err != nil {
		return nil, err
	}

	summary := &BillingSummary{
		Invoices:         invoices,
		Quotes:           quotes,
		Payments:         payments,
		Subscriptions:    subscriptions,
		TotalInvoiced:    decimal.Zero,
		TotalOutstanding: decimal.Zero,
		TotalOverdue:     decimal.Zero,
		TotalCollected:   decimal.Zero,
		MonthlyRecurring: decimal.Zero,
	}

	for _, row := range invoices {
		switch enum.InvoiceStatus(row.Status) {
		case enum.InvoiceStatusDraft, enum.InvoiceStatusCancelled:
			continue
		case enum.InvoiceStatusOverdue:
			summary.TotalOverdue = summary.TotalOverdue.Add(row.Outstanding)
		}
		summary.TotalInvoiced = summary.TotalInvoiced.Add(row.Total)
		summary.TotalOutstanding = summary.TotalOutstanding.Add(row.Outstanding)
	}
	for _, row := range payments {
		switch enum.PaymentStatus(row.Status) {
		case enum.PaymentStatusCompleted, enum.PaymentStatusPartiallyRefunded:
			summary.TotalCollected = summary.TotalCollected.Add(row.Total)
		}
	}
	for _, row := range subscriptions {
		switch enum.SubscriptionStatus(row.Status) {
		case enum.SubscriptionStatusActive, enum.SubscriptionStatusTrialing:
			summary.MonthlyRecurring = summary.MonthlyRecurring.Add(row.Total)
		}
	}
	return summary, nil
}
