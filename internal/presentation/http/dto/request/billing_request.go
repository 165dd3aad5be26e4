package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/application/service"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// LineItemRequest is one priced line of an invoice or quote. Amounts are
// accepted as JSON numbers or strings.
type LineItemRequest struct {
	Description string          `json:"description" binding:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	Taxable     *bool           `json:"taxable"`
}

func (r LineItemRequest) ToInput() service.LineItemInput {
	return service.LineItemInput{
		Description: r.Description,
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
		Discount:    r.Discount,
		Taxable:     r.Taxable,
	}
}

// TaxRequest is a named tax applied to the taxable subtotal
type TaxRequest struct {
	Name string          `json:"name" binding:"required,max=100"`
	Rate decimal.Decimal `json:"rate"`
}

func lineItems(items []LineItemRequest) []service.LineItemInput {
	return lo.Map(items, func(it LineItemRequest, _ int) service.LineItemInput { return it.ToInput() })
}

func taxes(in []TaxRequest) []service.TaxInput {
	return lo.Map(in, func(t TaxRequest, _ int) service.TaxInput { return service.TaxInput{Name: t.Name, Rate: t.Rate} })
}

// date parses a value that already passed the datetime binding rule
func date(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, *s)
	if err != nil {
		return nil
	}
	return &t
}

// CreateInvoiceRequest represents the create invoice request body
type CreateInvoiceRequest struct {
	CustomerID         uuid.UUID         `json:"customer_id" binding:"required"`
	IssueDate          *string           `json:"issue_date" binding:"omitempty,datetime=2006-01-02"`
	DueDate            *string           `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	Currency           string            `json:"currency" binding:"omitempty,currency"`
	Items              []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	TaxRate            decimal.Decimal   `json:"tax_rate"`
	Taxes              []TaxRequest      `json:"taxes" binding:"omitempty,dive"`
	DiscountAmount     decimal.Decimal   `json:"discount_amount"`
	DiscountPercentage decimal.Decimal   `json:"discount_percentage"`
	Notes              *string           `json:"notes"`
	PrivateNotes       *string           `json:"private_notes"`
	Terms              *string           `json:"terms"`
}

func (r *CreateInvoiceRequest) ToInput(userID uuid.UUID) *service.CreateInvoiceInput {
	return &service.CreateInvoiceInput{
		UserID:     userID,
		CustomerID: r.CustomerID,
		IssueDate:  date(r.IssueDate),
		DueDate:    date(r.DueDate),
		Pricing: service.PricingInput{
			Currency:           r.Currency,
			Items:              lineItems(r.Items),
			TaxRate:            r.TaxRate,
			Taxes:              taxes(r.Taxes),
			DiscountAmount:     r.DiscountAmount,
			DiscountPercentage: r.DiscountPercentage,
		},
		Notes:        r.Notes,
		PrivateNotes: r.PrivateNotes,
		Terms:        r.Terms,
	}
}

// UpdateInvoiceRequest carries only the fields being changed. A non-empty
// items list replaces every line item.
type UpdateInvoiceRequest struct {
	CustomerID         *uuid.UUID        `json:"customer_id"`
	IssueDate          *string           `json:"issue_date" binding:"omitempty,datetime=2006-01-02"`
	DueDate            *string           `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	Currency           *string           `json:"currency" binding:"omitempty,currency"`
	Items              []LineItemRequest `json:"items" binding:"omitempty,dive"`
	TaxRate            *decimal.Decimal  `json:"tax_rate"`
	Taxes              []TaxRequest      `json:"taxes" binding:"omitempty,dive"`
	DiscountAmount     *decimal.Decimal  `json:"discount_amount"`
	DiscountPercentage *decimal.Decimal  `json:"discount_percentage"`
	Notes              *string           `json:"notes"`
	PrivateNotes       *string           `json:"private_notes"`
	Terms              *string           `json:"terms"`
}

func (r *UpdateInvoiceRequest) ToInput(id, userID uuid.UUID) *service.UpdateInvoiceInput {
	return &service.UpdateInvoiceInput{
		ID:                 id,
		UserID:             userID,
		CustomerID:         r.CustomerID,
		IssueDate:          date(r.IssueDate),
		DueDate:            date(r.DueDate),
		Currency:           r.Currency,
		Items:              lineItems(r.Items),
		TaxRate:            r.TaxRate,
		Taxes:              taxes(r.Taxes),
		DiscountAmount:     r.DiscountAmount,
		DiscountPercentage: r.DiscountPercentage,
		Notes:              r.Notes,
		PrivateNotes:       r.PrivateNotes,
		Terms:              r.Terms,
	}
}

// MarkAsPaidRequest records the cumulative amount received
type MarkAsPaidRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	PaidDate *string         `json:"paid_date" binding:"omitempty,datetime=2006-01-02"`
}

// ReasonRequest is the body of cancel and reject actions
type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// ReminderRequest picks a reminder tier to send by hand
type ReminderRequest struct {
	Type enum.ReminderType `json:"type" binding:"required,oneof=first_reminder second_reminder final_notice"`
}

// BulkReminderRequest selects overdue invoices by days past due
type BulkReminderRequest struct {
	MinDaysPastDue int               `json:"min_days_past_due" binding:"gte=0"`
	MaxDaysPastDue int               `json:"max_days_past_due" binding:"gte=0"`
	Type           enum.ReminderType `json:"type" binding:"omitempty,oneof=first_reminder second_reminder final_notice"`
}

// CreateQuoteRequest represents the create quote request body
type CreateQuoteRequest struct {
	CustomerID         uuid.UUID         `json:"customer_id" binding:"required"`
	Title              string            `json:"title" binding:"max=255"`
	IssueDate          *string           `json:"issue_date" binding:"omitempty,datetime=2006-01-02"`
	ExpiryDate         *string           `json:"expiry_date" binding:"omitempty,datetime=2006-01-02"`
	Currency           string            `json:"currency" binding:"omitempty,currency"`
	Items              []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	TaxRate            decimal.Decimal   `json:"tax_rate"`
	Taxes              []TaxRequest      `json:"taxes" binding:"omitempty,dive"`
	DiscountAmount     decimal.Decimal   `json:"discount_amount"`
	DiscountPercentage decimal.Decimal   `json:"discount_percentage"`
	Notes              *string           `json:"notes"`
	Terms              *string           `json:"terms"`
}

func (r *CreateQuoteRequest) ToInput(userID uuid.UUID) *service.CreateQuoteInput {
	return &service.CreateQuoteInput{
		UserID:     userID,
		CustomerID: r.CustomerID,
		Title:      r.Title,
		IssueDate:  date(r.IssueDate),
		ExpiryDate: date(r.ExpiryDate),
		Pricing: service.PricingInput{
			Currency:           r.Currency,
			Items:              lineItems(r.Items),
			TaxRate:            r.TaxRate,
			Taxes:              taxes(r.Taxes),
			DiscountAmount:     r.DiscountAmount,
			DiscountPercentage: r.DiscountPercentage,
		},
		Notes: r.Notes,
		Terms: r.Terms,
	}
}

// UpdateQuoteRequest carries only the fields being changed
type UpdateQuoteRequest struct {
	CustomerID         *uuid.UUID        `json:"customer_id"`
	Title              *string           `json:"title" binding:"omitempty,max=255"`
	ExpiryDate         *string           `json:"expiry_date" binding:"omitempty,datetime=2006-01-02"`
	Currency           *string           `json:"currency" binding:"omitempty,currency"`
	Items              []LineItemRequest `json:"items" binding:"omitempty,dive"`
	TaxRate            *decimal.Decimal  `json:"tax_rate"`
	DiscountAmount     *decimal.Decimal  `json:"discount_amount"`
	DiscountPercentage *decimal.Decimal  `json:"discount_percentage"`
	Notes              *string           `json:"notes"`
	Terms              *string           `json:"terms"`
}

func (r *UpdateQuoteRequest) ToInput(id, userID uuid.UUID) *service.UpdateQuoteInput {
	return &service.UpdateQuoteInput{
		ID:                 id,
		UserID:             userID,
		CustomerID:         r.CustomerID,
		Title:              r.Title,
		ExpiryDate:         date(r.ExpiryDate),
		Currency:           r.Currency,
		Items:              lineItems(r.Items),
		TaxRate:            r.TaxRate,
		DiscountAmount:     r.DiscountAmount,
		DiscountPercentage: r.DiscountPercentage,
		Notes:              r.Notes,
		Terms:              r.Terms,
	}
}

// CreatePaymentRequest takes a payment against an invoice or a bare customer
type CreatePaymentRequest struct {
	InvoiceID       *uuid.UUID         `json:"invoice_id"`
	CustomerID      *uuid.UUID         `json:"customer_id"`
	Amount          decimal.Decimal    `json:"amount"`
	Currency        string             `json:"currency" binding:"omitempty,currency"`
	Method          enum.PaymentMethod `json:"method" binding:"omitempty,oneof=card bank_transfer cash check other"`
	PaymentMethodID string             `json:"payment_method_id" binding:"max=255"`
	Description     string             `json:"description" binding:"max=500"`
	Confirm         bool               `json:"confirm"`
}

func (r *CreatePaymentRequest) ToInput(userID uuid.UUID) *service.ProcessPaymentInput {
	return &service.ProcessPaymentInput{
		UserID:          userID,
		InvoiceID:       r.InvoiceID,
		CustomerID:      r.CustomerID,
		Amount:          r.Amount,
		Currency:        r.Currency,
		Method:          r.Method,
		PaymentMethodID: r.PaymentMethodID,
		Description:     r.Description,
		Confirm:         r.Confirm,
	}
}

// ConfirmPaymentRequest confirms a pending intent
type ConfirmPaymentRequest struct {
	PaymentMethodID string `json:"payment_method_id" binding:"max=255"`
}

// RefundRequest refunds part of a payment; a missing amount refunds the rest
type RefundRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason" binding:"max=255"`
}

// PaymentStatusRequest overrides a payment's status
type PaymentStatusRequest struct {
	Status enum.PaymentStatus `json:"status" binding:"required"`
}

// CreateSubscriptionRequest starts a subscription on a gateway price
type CreateSubscriptionRequest struct {
	CustomerID uuid.UUID `json:"customer_id" binding:"required"`
	PlanID     string    `json:"plan_id" binding:"required,max=255"`
	Quantity   int64     `json:"quantity" binding:"gte=0"`
	TrialDays  int64     `json:"trial_days" binding:"gte=0,lte=730"`
}

// UpdateSubscriptionRequest changes plan and/or quantity
type UpdateSubscriptionRequest struct {
	PlanID   string `json:"plan_id" binding:"max=255"`
	Quantity int64  `json:"quantity" binding:"gte=0"`
	Prorate  *bool  `json:"prorate"`
}

// CancelSubscriptionRequest picks immediate or end-of-period cancellation
type CancelSubscriptionRequest struct {
	AtPeriodEnd bool `json:"at_period_end"`
}
