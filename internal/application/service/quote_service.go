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

// QuoteService handles quote-related operations
type QuoteService struct {
	quoteRepo    repository.QuoteRepository
	customerRepo repository.CustomerRepository
	invoices     *InvoiceService
	numbers      numberer
	docs         dispatcher
	settings     Settings
	log          *logger.Logger
	now          Clock
}

// NewQuoteService creates a new quote service
func NewQuoteService(
	quoteRepo repository.QuoteRepository,
	customerRepo repository.CustomerRepository,
	counterRepo repository.CounterRepository,
	invoices *InvoiceService,
	renderer pdf.Renderer,
	mailer email.Sender,
	settings Settings,
	log *logger.Logger,
) *QuoteService {
	return &QuoteService{
		quoteRepo:    quoteRepo,
		customerRepo: customerRepo,
		invoices:     invoices,
		numbers:      numberer{counters: counterRepo},
		docs:         dispatcher{renderer: renderer, mailer: mailer, settings: settings},
		settings:     settings,
		log:          log,
		now:          systemClock,
	}
}

// WithClock replaces the time source
func (s *QuoteService) WithClock(c Clock) *QuoteService {
	s.now = c
	return s
}

// CreateQuoteInput represents the input for creating a quote
type CreateQuoteInput struct {
	UserID     uuid.UUID
	CustomerID uuid.UUID
	Title      string
	IssueDate  *time.Time
	ExpiryDate *time.Time
	Pricing    PricingInput
	Notes      *string
	Terms      *string
}

// CreateQuote prices and stores a new draft quote
func (s *QuoteService) CreateQuote(ctx context.Context, input *CreateQuoteInput) (*entity.Quote, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	customer, err := s.customer(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}

	pricing := input.Pricing.toPricing(s.settings.DefaultCurrency)
	if err := validatePricing(&pricing); err != nil {
		return nil, err
	}

	now := s.now()
	issue := now
	if input.IssueDate != nil {
		issue = *input.IssueDate
	}
	expiry := addDays(issue, s.settings.QuoteValidDays)
	if input.ExpiryDate != nil {
		expiry = *input.ExpiryDate
	}

	quote := &entity.Quote{
		TenantID:    tenantID,
		CustomerID:  customer.ID,
		CompanyName: customer.DisplayCompany(),
		Title:       input.Title,
		Status:      enum.QuoteStatusDraft,
		IssueDate:   issue,
		ExpiryDate:  expiry,
		Pricing:     pricing,
		Notes:       input.Notes,
		Terms:       input.Terms,
		CreatedBy:   input.UserID,
		Owner:       input.UserID,
	}
	return quote, s.insert(ctx, quote, now)
}

func (s *QuoteService) insert(ctx context.Context, quote *entity.Quote, now time.Time) error {
	number, err := s.numbers.next(ctx, quote.TenantID, enum.DocumentScopeQuote, now)
	if err != nil {
		return err
	}
	quote.Number = number
	billing.Recompute(&quote.Pricing)

	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		return err
	}
	s.log.Infow("quote created", "quote_id", quote.ID, "number", quote.Number, "total", quote.TotalAmount)
	return nil
}

// GetQuote retrieves a quote by ID
func (s *QuoteService) GetQuote(ctx context.Context, id uuid.UUID) (*entity.Quote, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, apperror.NewNotFoundError("Quote")
	}
	return quote, nil
}

// ListQuotesInput represents the input for listing quotes
type ListQuotesInput struct {
	Pagination *pagination.PaginationParams
	Statuses   []enum.QuoteStatus
	CustomerID *uuid.UUID
	Search     string
}

// ListQuotes lists quotes with filtering
func (s *QuoteService) ListQuotes(ctx context.Context, input *ListQuotesInput) (*pagination.PaginatedResult[entity.Quote], error) {
	if input.Pagination == nil {
		input.Pagination = pagination.DefaultPagination()
	}
	quotes, total, err := s.quoteRepo.List(ctx, &repository.QuoteFilter{
		Pagination: input.Pagination,
		Statuses:   input.Statuses,
		CustomerID: input.CustomerID,
		Search:     input.Search,
	})
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(input.Pagination.Page, input.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(quotes, pag), nil
}

// UpdateQuoteInput carries a partial update; nil fields are left unchanged
type UpdateQuoteInput struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	CustomerID         *uuid.UUID
	Title              *string
	ExpiryDate         *time.Time
	Currency           *string
	Items              []LineItemInput
	TaxRate            *decimal.Decimal
	DiscountAmount     *decimal.Decimal
	DiscountPercentage *decimal.Decimal
	Notes              *string
	Terms              *string
}

// UpdateQuote merges the given fields into an undecided quote
func (s *QuoteService) UpdateQuote(ctx context.Context, input *UpdateQuoteInput) (*entity.Quote, error) {
	quote, err := s.mutable(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.CustomerID != nil && *input.CustomerID != quote.CustomerID {
		customer, err := s.customer(ctx, *input.CustomerID)
		if err != nil {
			return nil, err
		}
		quote.CustomerID = customer.ID
		quote.CompanyName = customer.DisplayCompany()
	}
	if input.Title != nil {
		quote.Title = *input.Title
	}
	if input.ExpiryDate != nil {
		quote.ExpiryDate = *input.ExpiryDate
		if quote.Status == enum.QuoteStatusExpired && !quote.ExpiryDate.Before(s.now()) {
			quote.Status = enum.QuoteStatusDraft
		}
	}
	if input.Currency != nil {
		quote.Currency = *input.Currency
	}
	if input.Items != nil {
		quote.LineItems = lineItems(input.Items)
	}
	if input.TaxRate != nil {
		quote.TaxRate = *input.TaxRate
	}
	if input.DiscountAmount != nil {
		quote.DiscountAmount = *input.DiscountAmount
		quote.DiscountPercentage = decimal.Zero
	}
	if input.DiscountPercentage != nil {
		quote.DiscountPercentage = *input.DiscountPercentage
	}
	if input.Notes != nil {
		quote.Notes = input.Notes
	}
	if input.Terms != nil {
		quote.Terms = input.Terms
	}

	if err := validatePricing(&quote.Pricing); err != nil {
		return nil, err
	}
	quote.PDFPath = ""
	return quote, s.save(ctx, quote, input.UserID)
}

// DeleteQuote removes a quote that has not been turned into an invoice
func (s *QuoteService) DeleteQuote(ctx context.Context, id uuid.UUID) error {
	quote, err := s.GetQuote(ctx, id)
	if err != nil {
		return err
	}
	if quote.IsConverted() {
		return apperror.NewInvalidStateError("cannot delete a quote that was converted to an invoice")
	}
	return s.quoteRepo.Delete(ctx, id)
}

// SendQuote renders the PDF if needed, emails it and marks the quote sent
func (s *QuoteService) SendQuote(ctx context.Context, id, userID uuid.UUID) (*entity.Quote, error) {
	quote, err := s.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if quote.Status.IsDecided() {
		return nil, apperror.NewInvalidStateError("cannot send a quote that is %s", quote.Status)
	}
	if quote.IsExpired(now) {
		return nil, apperror.NewInvalidStateError("cannot send an expired quote")
	}

	customer, err := s.customer(ctx, quote.CustomerID)
	if err != nil {
		return nil, err
	}
	if quote.PDFPath == "" {
		path, err := s.docs.render(s.docs.quoteDocument(quote, customer))
		if err != nil {
			return nil, err
		}
		quote.PDFPath = path
	}

	subject, html, err := email.QuoteEmail(email.DocumentData{
		CompanyName:  s.settings.CompanyName,
		CustomerName: customer.Name,
		Number:       quote.Number,
		Amount:       quote.TotalAmount.StringFixed(2),
		Currency:     quote.Currency,
		IssueDate:    quote.IssueDate.Format(dateLayout),
		DueDate:      quote.ExpiryDate.Format(dateLayout),
		ViewURL:      s.docs.viewURL("quotes", quote.ID.String()),
	})
	if err != nil {
		return nil, err
	}
	if err := s.docs.mail(ctx, customer.EmailAddress(), subject, html, quote.PDFPath); err != nil {
		return nil, err
	}

	quote.Status = enum.QuoteStatusSent
	quote.LastSentDate = &now
	if err := s.save(ctx, quote, userID); err != nil {
		return nil, err
	}
	s.log.Infow("quote sent", "quote_id", quote.ID, "to", customer.EmailAddress())
	return quote, nil
}

// AcceptQuote records the customer's acceptance. A quote past its expiry
// date is marked expired and the acceptance fails.
func (s *QuoteService) AcceptQuote(ctx context.Context, id, userID uuid.UUID) (*entity.Quote, error) {
	quote, err := s.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status.IsDecided() {
		return nil, apperror.NewInvalidStateError("quote is already %s", quote.Status)
	}

	now := s.now()
	if quote.IsExpired(now) {
		if quote.Status != enum.QuoteStatusExpired {
			quote.Status = enum.QuoteStatusExpired
			if err := s.save(ctx, quote, userID); err != nil {
				return nil, err
			}
		}
		return nil, apperror.NewInvalidStateError("quote has expired")
	}

	quote.Status = enum.QuoteStatusAccepted
	quote.AcceptedAt = &now
	if err := s.save(ctx, quote, userID); err != nil {
		return nil, err
	}
	s.log.Infow("quote accepted", "quote_id", quote.ID)
	return quote, nil
}

// RejectQuote records the customer's rejection
func (s *QuoteService) RejectQuote(ctx context.Context, id uuid.UUID, reason string, userID uuid.UUID) (*entity.Quote, error) {
	quote, err := s.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status.IsDecided() {
		return nil, apperror.NewInvalidStateError("quote is already %s", quote.Status)
	}

	now := s.now()
	quote.Status = enum.QuoteStatusRejected
	quote.RejectedAt = &now
	if reason != "" {
		quote.RejectionReason = &reason
	}
	return quote, s.save(ctx, quote, userID)
}

// AddLineItem appends an item and recomputes totals
func (s *QuoteService) AddLineItem(ctx context.Context, id uuid.UUID, item LineItemInput, userID uuid.UUID) (*entity.Quote, error) {
	quote, err := s.mutable(ctx, id)
	if err != nil {
		return nil, err
	}
	quote.LineItems = append(quote.LineItems, item.toEntity(uuid.Nil))
	return s.savePricing(ctx, quote, userID)
}

// UpdateLineItem replaces one item and recomputes totals
func (s *QuoteService) UpdateLineItem(ctx context.Context, id, itemID uuid.UUID, item LineItemInput, userID uuid.UUID) (*entity.Quote, error) {
	quote, err := s.mutable(ctx, id)
	if err != nil {
		return nil, err
	}
	idx := quote.FindLineItem(itemID)
	if idx < 0 {
		return nil, apperror.NewNotFoundError("Line item")
	}
	quote.LineItems[idx] = item.toEntity(itemID)
	return s.savePricing(ctx, quote, userID)
}

// RemoveLineItem deletes one item and recomputes totals
func (s *QuoteService) RemoveLineItem(ctx context.Context, id, itemID uuid.UUID, userID uuid.UUID) (*entity.Quote, error) {
	quote, err := s.mutable(ctx, id)
	if err != nil {
		return nil, err
	}
	idx := quote.FindLineItem(itemID)
	if idx < 0 {
		return nil, apperror.NewNotFoundError("Line item")
	}
	quote.LineItems = append(quote.LineItems[:idx], quote.LineItems[idx+1:]...)
	return s.savePricing(ctx, quote, userID)
}

// ConvertToInvoice issues an invoice from an accepted quote, once
func (s *QuoteService) ConvertToInvoice(ctx context.Context, id, userID uuid.UUID) (*entity.Invoice, error) {
	quote, err := s.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.IsConverted() {
		return nil, apperror.NewInvalidStateError("quote was already converted to an invoice")
	}
	if quote.Status != enum.QuoteStatusAccepted {
		return nil, apperror.NewInvalidStateError("only accepted quotes can be converted; quote is %s", quote.Status)
	}

	invoice, err := s.invoices.CreateFromQuote(ctx, quote, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	quote.ConvertedInvoiceID = &invoice.ID
	quote.ConvertedAt = &now
	if err := s.save(ctx, quote, userID); err != nil {
		return nil, err
	}
	s.log.Infow("quote converted", "quote_id", quote.ID, "invoice_id", invoice.ID)
	return invoice, nil
}

// DuplicateQuote copies a quote into a fresh draft with a new number
func (s *QuoteService) DuplicateQuote(ctx context.Context, id, userID uuid.UUID) (*entity.Quote, error) {
	source, err := s.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	pricing := source.Pricing
	pricing.LineItems = source.CloneLineItems()
	pricing.TaxDetails = append([]entity.TaxDetail(nil), source.TaxDetails...)

	quote := &entity.Quote{
		TenantID:    source.TenantID,
		CustomerID:  source.CustomerID,
		CompanyName: source.CompanyName,
		Title:       source.Title,
		Status:      enum.QuoteStatusDraft,
		IssueDate:   now,
		ExpiryDate:  addDays(now, s.settings.QuoteValidDays),
		Pricing:     pricing,
		Notes:       source.Notes,
		Terms:       source.Terms,
		CreatedBy:   userID,
		Owner:       userID,
	}
	return quote, s.insert(ctx, quote, now)
}

// ExpireQuotes marks every open quote past its expiry date as expired
func (s *QuoteService) ExpireQuotes(ctx context.Context, now time.Time) (int, error) {
	quotes, _, err := s.quoteRepo.List(ctx, &repository.QuoteFilter{
		Statuses:      []enum.QuoteStatus{enum.QuoteStatusDraft, enum.QuoteStatusSent},
		ExpiresBefore: &now,
	})
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range quotes {
		q := &quotes[i]
		q.Status = enum.QuoteStatusExpired
		if err := s.quoteRepo.Update(repository.ScopeForTenant(ctx, q.TenantID), q); err != nil {
			s.log.Errorw("failed to expire quote", "quote_id", q.ID, "error", err)
			continue
		}
		expired++
	}
	if expired > 0 {
		s.log.Infow("quotes expired", "count", expired)
	}
	return expired, nil
}

// mutable loads a quote whose items may still change
func (s *QuoteService) mutable(ctx context.Context, id uuid.UUID) (*entity.Quote, error) {
	quote, err := s.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status.IsDecided() {
		return nil, apperror.NewInvalidStateError("cannot modify a quote that is %s", quote.Status)
	}
	return quote, nil
}

func (s *QuoteService) savePricing(ctx context.Context, quote *entity.Quote, userID uuid.UUID) (*entity.Quote, error) {
	if err := validatePricing(&quote.Pricing); err != nil {
		return nil, err
	}
	quote.PDFPath = ""
	return quote, s.save(ctx, quote, userID)
}

func (s *QuoteService) customer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// save recomputes totals and persists the quote
func (s *QuoteService) save(ctx context.Context, quote *entity.Quote, userID uuid.UUID) error {
	billing.Recompute(&quote.Pricing)
	if userID != uuid.Nil {
		quote.UpdatedBy = &userID
	}
	return s.quoteRepo.Update(ctx, quote)
}
