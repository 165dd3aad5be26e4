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
	"github.com/shopspring/decimal"
)

// Settings carries the billing defaults shared by the document services
type Settings struct {
	CompanyName      string
	DefaultCurrency  string
	PaymentTermsDays int
	QuoteValidDays   int
	FrontendURL      string
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func tenantFrom(ctx context.Context) (uuid.UUID, error) {
	tenantID, ok := repository.GetTenantID(ctx)
	if !ok {
		return uuid.Nil, apperror.NewBadRequestError("Tenant context required")
	}
	return tenantID, nil
}

// numberer allocates human readable document numbers such as INV-2026-0001
type numberer struct {
	counters repository.CounterRepository
}

func (n numberer) next(ctx context.Context, tenantID uuid.UUID, scope enum.DocumentScope, now time.Time) (string, error) {
	year := now.Year()
	seq, err := n.counters.Next(ctx, tenantID, scope, year)
	if err != nil {
		return "", err
	}
	return billing.FormatNumber(scope, year, seq), nil
}

// LineItemInput is a line item as supplied by a caller
type LineItemInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	// Taxable defaults to true when nil
	Taxable *bool
}

func (in LineItemInput) toEntity(id uuid.UUID) entity.LineItem {
	taxable := true
	if in.Taxable != nil {
		taxable = *in.Taxable
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	return entity.LineItem{
		ID:          id,
		Description: in.Description,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		Discount:    in.Discount,
		Taxable:     taxable,
	}
}

func lineItems(inputs []LineItemInput) []entity.LineItem {
	items := make([]entity.LineItem, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, in.toEntity(uuid.Nil))
	}
	return items
}

// TaxInput is an itemised tax applied instead of a single tax rate
type TaxInput struct {
	Name string
	Rate decimal.Decimal
}

// PricingInput holds the caller-controlled pricing fields of a document
type PricingInput struct {
	Currency           string
	Items              []LineItemInput
	TaxRate            decimal.Decimal
	Taxes              []TaxInput
	DiscountAmount     decimal.Decimal
	DiscountPercentage decimal.Decimal
}

func (in PricingInput) toPricing(defaultCurrency string) entity.Pricing {
	currency := in.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	p := entity.Pricing{
		Currency:           currency,
		LineItems:          lineItems(in.Items),
		TaxRate:            in.TaxRate,
		DiscountAmount:     in.DiscountAmount,
		DiscountPercentage: in.DiscountPercentage,
	}
	for _, t := range in.Taxes {
		p.TaxDetails = append(p.TaxDetails, entity.TaxDetail{Name: t.Name, Rate: t.Rate})
	}
	return p
}

// validatePricing recomputes p and reports malformed inputs
func validatePricing(p *entity.Pricing) error {
	fieldErrors := billing.ValidatePricing(p)
	if len(p.LineItems) == 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "line_items", Message: "at least one line item is required"})
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	billing.Recompute(p)
	return nil
}

func addDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

func appendNote(existing *string, note string) *string {
	if existing == nil || *existing == "" {
		return &note
	}
	joined := *existing + "\n" + note
	return &joined
}
