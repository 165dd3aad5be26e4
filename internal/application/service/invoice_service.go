package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/billing"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/pkg/apperror"
	"github.com/sangkips/investify-billing/pkg/email"
	"github.com/sangkips/investify-billing/pkg/logger"
	"github.com/sangkips/investify-billing/pkg/pagination"
	"github.com/sangkips/investify-billing/pkg/pdf"
	"github.com/shopspring/decimal"
)

// InvoiceService handles invoice-related operations
type InvoiceService struct {
	invoiceRepo  repository.InvoiceRepository
	customerRepo repository.CustomerRepository
	numbers      numberer
	docs         dispatcher
	settings     Settings
	log          *logger.Logger
	now          Clock
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	customerRepo repository.CustomerRepository,
	counterRepo repository.CounterRepository,
	renderer pdf.Renderer,
	mailer email.Sender,
	settings Settings,
	log *logger.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		numbers:      numberer{counters: counterRepo},
		docs:         dispatcher{renderer: renderer, mailer: mailer, settings: settings},
		settings:     settings,
		log:          log,
		now:          systemClock,
	}
}

// WithClock replaces the time source
func (s *InvoiceService) WithClock(c Clock) *InvoiceService {
	s.now = c
	return s
}

// CreateInvoiceInput represents the input for creating an invoice
type CreateInvoiceInput struct {
	UserID       uuid.UUID
	CustomerID   uuid.UUID
	IssueDate    *time.Time
	DueDate      *time.Time
	Pricing      PricingInput
	Notes        *string
	PrivateNotes *string
	Terms        *string
}

// CreateInvoice prices and stores a new draft invoice
func (s *InvoiceService) CreateInvoice(ctx context.Context, input *CreateInvoiceInput) (*entity.Invoice, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}

	customer, err := s.customer(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	pricing := input.Pricing.toPricing(s.settings.DefaultCurrency)
	if err := validatePricing(&pricing); err != nil {
		return nil, err
	}

	issue := now
	if input.IssueDate != nil {
		issue = *input.IssueDate
	}
	due := addDays(issue, s.settings.PaymentTermsDays)
	if input.DueDate != nil {
		due = *input.DueDate
	}
	if due.Before(issue) {
		return nil, apperror.NewFieldValidationError("due_date", "due date cannot be before the issue date")
	}

	invoice := &entity.Invoice{
		TenantID:     tenantID,
		CustomerID:   customer.ID,
		CompanyName:  customer.DisplayCompany(),
		Status:       enum.InvoiceStatusDraft,
		IssueDate:    issue,
		DueDate:      due,
		Pricing:      pricing,
		Notes:        input.Notes,
		PrivateNotes: input.PrivateNotes,
		Terms:        input.Terms,
		CreatedBy:    input.UserID,
		Owner:        input.UserID,
	}
	return invoice, s.insert(ctx, invoice, now)
}

// insert numbers, recomputes and persists a new invoice
func (s *InvoiceService) insert(ctx context.Context, invoice *entity.Invoice, now time.Time) error {
	number, err := s.numbers.next(ctx, invoice.TenantID, enum.DocumentScopeInvoice, now)
	if err != nil {
		return err
	}
	invoice.Number = number
	billing.RecomputeInvoice(invoice, now)

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return err
	}
	s.log.Infow("invoice created", "invoice_id", invoice.ID, "number", invoice.Number, "total", invoice.TotalAmount)
	return nil
}

// GetInvoice retrieves an invoice by ID
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	return invoice, nil
}

// ListInvoicesInput represents the input for listing invoices
type ListInvoicesInput struct {
	Pagination *pagination.PaginationParams
	Statuses   []enum.InvoiceStatus
	CustomerID *uuid.UUID
	DueBefore  *time.Time
	DueAfter   *time.Time
	Search     string
}

// ListInvoices lists invoices with filtering
func (s *InvoiceService) ListInvoices(ctx context.Context, input *ListInvoicesInput) (*pagination.PaginatedResult[entity.Invoice], error) {
	if input.Pagination == nil {
		input.Pagination = pagination.DefaultPagination()
	}
	invoices, total, err := s.invoiceRepo.List(ctx, &repository.InvoiceFilter{
		Pagination: input.Pagination,
		Statuses:   input.Statuses,
		CustomerID: input.CustomerID,
		DueBefore:  input.DueBefore,
		DueAfter:   input.DueAfter,
		Search:     input.Search,
	})
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(input.Pagination.Page, input.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(invoices, pag), nil
}

// UpdateInvoiceInput carries a partial update; nil fields are left unchanged
type UpdateInvoiceInput struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	CustomerID         *uuid.UUID
	IssueDate          *time.Time
	DueDate            *time.Time
	Currency           *string
	Items              []LineItemInput
	TaxRate            *decimal.Decimal
	Taxes              []TaxInput
	DiscountAmount     *decimal.Decimal
	DiscountPercentage *decimal.Decimal
	Notes              *string
	PrivateNotes       *string
	Terms              *string
}

// UpdateInvoice merges the given fields and recomputes totals and status
func (s *InvoiceService) UpdateInvoice(ctx context.Context, input *UpdateInvoiceInput) (*entity.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if invoice.Status.IsSettled() {
		return nil, apperror.NewInvalidStateError("cannot modify an invoice that is %s", invoice.Status)
	}

	if input.CustomerID != nil && *input.CustomerID != invoice.CustomerID {
		customer, err := s.customer(ctx, *input.CustomerID)
		if err != nil {
			return nil, err
		}
		invoice.CustomerID = customer.ID
		invoice.CompanyName = customer.DisplayCompany()
	}
	if input.IssueDate != nil {
		invoice.IssueDate = *input.IssueDate
	}
	if input.DueDate != nil {
		invoice.DueDate = *input.DueDate
	}
	if invoice.DueDate.Before(invoice.IssueDate) {
		return nil, apperror.NewFieldValidationError("due_date", "due date cannot be before the issue date")
	}
	if input.Currency != nil {
		invoice.Currency = *input.Currency
	}
	if input.Items != nil {
		invoice.LineItems = lineItems(input.Items)
	}
	if input.TaxRate != nil {
		invoice.TaxRate = *input.TaxRate
	}
	if input.Taxes != nil {
		invoice.TaxDetails = nil
		for _, t := range input.Taxes {
			invoice.TaxDetails = append(invoice.TaxDetails, entity.TaxDetail{Name: t.Name, Rate: t.Rate})
		}
	}
	if input.DiscountAmount != nil {
		invoice.DiscountAmount = *input.DiscountAmount
		invoice.DiscountPercentage = decimal.Zero
	}
	if input.DiscountPercentage != nil {
		invoice.DiscountPercentage = *input.DiscountPercentage
	}
	if input.Notes != nil {
		invoice.Notes = input.Notes
	}
	if input.PrivateNotes != nil {
		invoice.PrivateNotes = input.PrivateNotes
	}
	if input.Terms != nil {
		invoice.Terms = input.Terms
	}

	if err := validatePricing(&invoice.Pricing); err != nil {
		return nil, err
	}
	// totals changed, so any stored PDF is stale
	invoice.PDFPath = ""
	return invoice, s.save(ctx, invoice, input.UserID)
}

// DeleteInvoice removes a draft invoice
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return err
	}
	if invoice.Status != enum.InvoiceStatusDraft {
		return apperror.NewInvalidStateError("only draft invoices can be deleted; cancel it instead")
	}
	return s.invoiceRepo.Delete(ctx, id)
}

// SendInvoice renders the PDF if needed, emails it and marks the invoice sent
func (s *InvoiceService) SendInvoice(ctx context.Context, id, userID uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status.IsSettled() {
		return nil, apperror.NewInvalidStateError("cannot send an invoice that is %s", invoice.Status)
	}

	customer, err := s.customer(ctx, invoice.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := s.ensurePDF(invoice, customer); err != nil {
		return nil, err
	}

	subject, html, err := email.InvoiceEmail(s.emailData(invoice, customer, invoice.TotalAmount))
	if err != nil {
		return nil, err
	}
	if err := s.docs.mail(ctx, customer.EmailAddress(), subject, html, invoice.PDFPath); err != nil {
		return nil, err
	}

	now := s.now()
	invoice.LastSentDate = &now
	if invoice.Status == enum.InvoiceStatusDraft {
		invoice.Status = enum.InvoiceStatusSent
	}
	if err := s.save(ctx, invoice, userID); err != nil {
		return nil, err
	}
	s.log.Infow("invoice sent", "invoice_id", invoice.ID, "to", customer.EmailAddress())
	return invoice, nil
}

// MarkAsViewed moves a sent invoice to viewed. Any other status is left alone.
func (s *InvoiceService) MarkAsViewed(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != enum.InvoiceStatusSent {
		return invoice, nil
	}

	now := s.now()
	invoice.Status = enum.InvoiceStatusViewed
	invoice.ViewedAt = &now
	return invoice, s.save(ctx, invoice, uuid.Nil)
}

// MarkAsPaidInput sets the cumulative amount received for an invoice
type MarkAsPaidInput struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Amount   decimal.Decimal
	PaidDate *time.Time
}

// MarkAsPaid records the total amount paid so far. The status follows from
// the balance: paid when nothing remains, partially_paid otherwise.
func (s *InvoiceService) MarkAsPaid(ctx context.Context, input *MarkAsPaidInput) (*entity.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if invoice.Status.IsTerminal() {
		return nil, apperror.NewInvalidStateError("cannot record payment on an invoice that is %s", invoice.Status)
	}
	if input.Amount.IsNegative() {
		return nil, apperror.NewFieldValidationError("amount", "amount cannot be negative")
	}

	invoice.AmountPaid = input.Amount
	if input.PaidDate != nil && input.Amount.GreaterThanOrEqual(invoice.TotalAmount) {
		paid := *input.PaidDate
		invoice.PaidDate = &paid
	}
	if err := s.save(ctx, invoice, input.UserID); err != nil {
		return nil, err
	}
	s.log.Infow("invoice payment recorded", "invoice_id", invoice.ID, "amount_paid", invoice.AmountPaid, "status", invoice.Status)
	return invoice, nil
}

// ApplyRefund takes refunded money back off the invoice. An invoice whose
// payments were refunded in full becomes refunded.
func (s *InvoiceService) ApplyRefund(ctx context.Context, id uuid.UUID, amount decimal.Decimal, userID uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status.IsTerminal() {
		return invoice, nil
	}

	hadPayments := invoice.AmountPaid.IsPositive()
	invoice.AmountPaid = billing.ClampZero(invoice.AmountPaid.Sub(amount))
	if hadPayments && invoice.AmountPaid.IsZero() {
		invoice.Status = enum.InvoiceStatusRefunded
	}
	return invoice, s.save(ctx, invoice, userID)
}

// CancelInvoice cancels any invoice that is not paid and not already cancelled
func (s *InvoiceService) CancelInvoice(ctx context.Context, id uuid.UUID, reason string, userID uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	switch invoice.Status {
	case enum.InvoiceStatusPaid:
		return nil, apperror.NewInvalidStateError("cannot cancel a paid invoice; refund the payment instead")
	case enum.InvoiceStatusCancelled:
		return nil, apperror.NewInvalidStateError("invoice is already cancelled")
	case enum.InvoiceStatusRefunded:
		return nil, apperror.NewInvalidStateError("cannot cancel a refunded invoice")
	}

	invoice.Status = enum.InvoiceStatusCancelled
	if reason == "" {
		reason = "no reason given"
	}
	invoice.PrivateNotes = appendNote(invoice.PrivateNotes, "Cancelled: "+reason)
	if err := s.save(ctx, invoice, userID); err != nil {
		return nil, err
	}
	s.log.Infow("invoice cancelled", "invoice_id", invoice.ID, "reason", reason)
	return invoice, nil
}

// SendReminder emails the reminder template for the given tier and logs it
func (s *InvoiceService) SendReminder(ctx context.Context, id uuid.UUID, reminderType enum.ReminderType, userID uuid.UUID) (*entity.Invoice, error) {
	if !reminderType.IsValid() {
		return nil, apperror.NewFieldValidationError("type", "unknown reminder type")
	}
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status.IsSettled() {
		return nil, apperror.NewInvalidStateError("cannot send a reminder for an invoice that is %s", invoice.Status)
	}
	if invoice.Status == enum.InvoiceStatusDraft {
		return nil, apperror.NewInvalidStateError("cannot send a reminder for an invoice that was never sent")
	}

	customer, err := s.customer(ctx, invoice.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := s.ensurePDF(invoice, customer); err != nil {
		return nil, err
	}

	now := s.now()
	data := s.emailData(invoice, customer, invoice.RemainingBalance)
	data.DaysPastDue = billing.DaysPastDue(invoice.DueDate, now)
	subject, html, err := email.ReminderEmail(string(reminderType), data)
	if err != nil {
		return nil, err
	}
	if err := s.docs.mail(ctx, customer.EmailAddress(), subject, html, invoice.PDFPath); err != nil {
		return nil, err
	}

	invoice.Reminders = append(invoice.Reminders, entity.ReminderEntry{
		Type:        reminderType,
		SentAt:      now,
		SentTo:      customer.EmailAddress(),
		DaysPastDue: data.DaysPastDue,
	})
	if err := s.save(ctx, invoice, userID); err != nil {
		return nil, err
	}
	s.log.Infow("invoice reminder sent", "invoice_id", invoice.ID, "type", reminderType, "days_past_due", data.DaysPastDue)
	return invoice, nil
}

// DuplicateInvoice copies an invoice into a fresh draft with a new number.
// Payments, reminders and private notes stay with the source.
func (s *InvoiceService) DuplicateInvoice(ctx context.Context, id, userID uuid.UUID) (*entity.Invoice, error) {
	source, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	pricing := source.Pricing
	pricing.LineItems = source.CloneLineItems()
	pricing.TaxDetails = append([]entity.TaxDetail(nil), source.TaxDetails...)

	invoice := &entity.Invoice{
		TenantID:    source.TenantID,
		CustomerID:  source.CustomerID,
		CompanyName: source.CompanyName,
		Status:      enum.InvoiceStatusDraft,
		IssueDate:   now,
		DueDate:     addDays(now, s.settings.PaymentTermsDays),
		Pricing:     pricing,
		Notes:       source.Notes,
		Terms:       source.Terms,
		CreatedBy:   userID,
		Owner:       userID,
	}
	return invoice, s.insert(ctx, invoice, now)
}

// CreateFromQuote issues a draft invoice carrying the quote's items and totals
func (s *InvoiceService) CreateFromQuote(ctx context.Context, quote *entity.Quote, userID uuid.UUID) (*entity.Invoice, error) {
	now := s.now()
	pricing := quote.Pricing
	pricing.LineItems = quote.CloneLineItems()
	pricing.TaxDetails = append([]entity.TaxDetail(nil), quote.TaxDetails...)

	quoteID := quote.ID
	invoice := &entity.Invoice{
		TenantID:    quote.TenantID,
		CustomerID:  quote.CustomerID,
		CompanyName: quote.CompanyName,
		QuoteID:     &quoteID,
		Status:      enum.InvoiceStatusDraft,
		IssueDate:   now,
		DueDate:     addDays(now, s.settings.PaymentTermsDays),
		Pricing:     pricing,
		Notes:       quote.Notes,
		Terms:       quote.Terms,
		CreatedBy:   userID,
		Owner:       userID,
	}
	return invoice, s.insert(ctx, invoice, now)
}

// GeneratePDF renders the invoice and stores the resulting path
func (s *InvoiceService) GeneratePDF(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	customer, err := s.customer(ctx, invoice.CustomerID)
	if err != nil {
		return nil, err
	}

	invoice.PDFPath = ""
	if err := s.ensurePDF(invoice, customer); err != nil {
		return nil, err
	}
	return invoice, s.save(ctx, invoice, uuid.Nil)
}

// ReminderCandidates returns invoices that are past due and still expect money
func (s *InvoiceService) ReminderCandidates(ctx context.Context, now time.Time) ([]entity.Invoice, error) {
	invoices, _, err := s.invoiceRepo.List(ctx, &repository.InvoiceFilter{
		ExcludeStatuses: []enum.InvoiceStatus{
			enum.InvoiceStatusDraft,
			enum.InvoiceStatusPaid,
			enum.InvoiceStatusCancelled,
			enum.InvoiceStatusRefunded,
		},
		DueBefore: &now,
	})
	return invoices, err
}

func (s *InvoiceService) ensurePDF(invoice *entity.Invoice, customer *entity.Customer) error {
	if invoice.PDFPath != "" {
		return nil
	}
	path, err := s.docs.render(s.docs.invoiceDocument(invoice, customer))
	if err != nil {
		return err
	}
	invoice.PDFPath = path
	return nil
}

func (s *InvoiceService) emailData(invoice *entity.Invoice, customer *entity.Customer, amount decimal.Decimal) email.DocumentData {
	return email.DocumentData{
		CompanyName:  s.settings.CompanyName,
		CustomerName: customer.Name,
		Number:       invoice.Number,
		Amount:       amount.StringFixed(2),
		Currency:     invoice.Currency,
		IssueDate:    invoice.IssueDate.Format(dateLayout),
		DueDate:      invoice.DueDate.Format(dateLayout),
		ViewURL:      s.docs.viewURL("invoices", invoice.ID.String()),
	}
}

func (s *InvoiceService) customer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// save recomputes derived fields and persists the invoice
func (s *InvoiceService) save(ctx context.Context, invoice *entity.Invoice, userID uuid.UUID) error {
	billing.RecomputeInvoice(invoice, s.now())
	if userID != uuid.Nil {
		invoice.UpdatedBy = &userID
	}
	return s.invoiceRepo.Update(ctx, invoice)
}
