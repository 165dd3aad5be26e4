// Package billing holds the pure monetary rules shared by quotes, invoices,
// payments and subscriptions. Nothing here touches storage or the network.
package billing

import (
	"fmt"

	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/pkg/apperror"
	"github.com/shopspring/decimal"
)

// SalesTaxName labels the tax detail produced from a flat tax rate
const SalesTaxName = "Sales Tax"

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds half away from zero to two decimal places
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ClampZero returns zero for negative amounts
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// LineTotal is quantity times unit price less the line discount, never negative
func LineTotal(item entity.LineItem) decimal.Decimal {
	gross := item.Quantity.Mul(item.UnitPrice)
	return RoundMoney(ClampZero(gross.Sub(item.Discount)))
}

// TaxAmount applies a percentage rate to a base amount
func TaxAmount(base, ratePercent decimal.Decimal) decimal.Decimal {
	return RoundMoney(base.Mul(ratePercent).Div(hundred))
}

// Recompute refreshes every derived field of p from its line items, tax rate
// and discount inputs. It must run before each persist of a quote or invoice.
func Recompute(p *entity.Pricing) {
	subtotal := decimal.Zero
	taxable := decimal.Zero
	for i := range p.LineItems {
		total := LineTotal(p.LineItems[i])
		p.LineItems[i].TotalPrice = total
		subtotal = subtotal.Add(total)
		if p.LineItems[i].Taxable {
			taxable = taxable.Add(total)
		}
	}
	p.Subtotal = RoundMoney(subtotal)

	if p.DiscountPercentage.IsPositive() {
		p.DiscountAmount = RoundMoney(p.Subtotal.Mul(p.DiscountPercentage).Div(hundred))
	}
	p.DiscountAmount = RoundMoney(ClampZero(p.DiscountAmount))

	switch {
	case p.TaxRate.IsPositive():
		tax := TaxAmount(taxable, p.TaxRate)
		p.TaxDetails = []entity.TaxDetail{{
			Name:          SalesTaxName,
			Rate:          p.TaxRate,
			TaxableAmount: RoundMoney(taxable),
			Amount:        tax,
		}}
		p.TaxAmount = tax
	case len(p.TaxDetails) > 0:
		// itemised taxes, each levied on the same taxable base
		tax := decimal.Zero
		for i := range p.TaxDetails {
			p.TaxDetails[i].TaxableAmount = RoundMoney(taxable)
			p.TaxDetails[i].Amount = TaxAmount(taxable, p.TaxDetails[i].Rate)
			tax = tax.Add(p.TaxDetails[i].Amount)
		}
		p.TaxAmount = RoundMoney(tax)
	default:
		p.TaxDetails = nil
		p.TaxAmount = decimal.Zero
	}

	p.TotalAmount = RoundMoney(ClampZero(p.Subtotal.Add(p.TaxAmount).Sub(p.DiscountAmount)))
}

// ValidateLineItems rejects rows that cannot be priced
func ValidateLineItems(items []entity.LineItem) []apperror.FieldError {
	var errs []apperror.FieldError
	for i, item := range items {
		field := fmt.Sprintf("line_items[%d]", i)
		if item.Description == "" {
			errs = append(errs, apperror.FieldError{Field: field + ".description", Message: "description is required"})
		}
		if !item.Quantity.IsPositive() {
			errs = append(errs, apperror.FieldError{Field: field + ".quantity", Message: "quantity must be greater than zero"})
		}
		if item.UnitPrice.IsNegative() {
			errs = append(errs, apperror.FieldError{Field: field + ".unit_price", Message: "unit price cannot be negative"})
		}
		if item.Discount.IsNegative() {
			errs = append(errs, apperror.FieldError{Field: field + ".discount", Message: "discount cannot be negative"})
		}
	}
	return errs
}

// ValidCurrency reports whether code looks like an ISO 4217 alpha code
func ValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

// ValidatePricing checks the document level inputs to Recompute
func ValidatePricing(p *entity.Pricing) []apperror.FieldError {
	errs := ValidateLineItems(p.LineItems)
	if p.Currency != "" && !ValidCurrency(p.Currency) {
		errs = append(errs, apperror.FieldError{Field: "currency", Message: "currency must be a three letter code"})
	}
	if p.TaxRate.IsNegative() || p.TaxRate.GreaterThan(hundred) {
		errs = append(errs, apperror.FieldError{Field: "tax_rate", Message: "tax rate must be between 0 and 100"})
	}
	if p.DiscountPercentage.IsNegative() || p.DiscountPercentage.GreaterThan(hundred) {
		errs = append(errs, apperror.FieldError{Field: "discount_percentage", Message: "discount percentage must be between 0 and 100"})
	}
	if p.DiscountAmount.IsNegative() {
		errs = append(errs, apperror.FieldError{Field: "discount_amount", Message: "discount cannot be negative"})
	}
	// a percentage discount is derived from the subtotal and can never exceed it
	if !p.DiscountPercentage.IsPositive() && RoundMoney(p.DiscountAmount).GreaterThan(subtotalOf(p.LineItems)) {
		errs = append(errs, apperror.FieldError{Field: "discount_amount", Message: "discount cannot exceed the subtotal"})
	}
	return errs
}

func subtotalOf(items []entity.LineItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(LineTotal(item))
	}
	return RoundMoney(subtotal)
}
