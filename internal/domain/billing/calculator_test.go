package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(qty, price string, taxable bool) entity.LineItem {
	return entity.LineItem{
		ID:          uuid.New(),
		Description: "Consulting",
		Quantity:    d(qty),
		UnitPrice:   d(price),
		Taxable:     taxable,
	}
}

func TestRecompute(t *testing.T) {
	tests := []struct {
		name     string
		pricing  entity.Pricing
		subtotal string
		tax      string
		discount string
		total    string
	}{
		{
			name:     "flat tax on taxable items",
			pricing:  entity.Pricing{LineItems: []entity.LineItem{item("2", "100", true)}, TaxRate: d("10")},
			subtotal: "200", tax: "20", discount: "0", total: "220",
		},
		{
			name: "only taxable lines contribute to tax",
			pricing: entity.Pricing{
				LineItems: []entity.LineItem{item("1", "100", true), item("1", "50", false)},
				TaxRate:   d("16"),
			},
			subtotal: "150", tax: "16", discount: "0", total: "166",
		},
		{
			name:     "percentage discount",
			pricing:  entity.Pricing{LineItems: []entity.LineItem{item("4", "25", true)}, DiscountPercentage: d("10")},
			subtotal: "100", tax: "0", discount: "10", total: "90",
		},
		{
			name:     "absolute discount larger than total clamps to zero",
			pricing:  entity.Pricing{LineItems: []entity.LineItem{item("1", "10", false)}, DiscountAmount: d("50")},
			subtotal: "10", tax: "0", discount: "50", total: "0",
		},
		{
			name:     "tax rounded to cents",
			pricing:  entity.Pricing{LineItems: []entity.LineItem{item("1", "10.05", true)}, TaxRate: d("5")},
			subtotal: "10.05", tax: "0.5", discount: "0", total: "10.55",
		},
		{
			name:     "empty document",
			pricing:  entity.Pricing{},
			subtotal: "0", tax: "0", discount: "0", total: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.pricing
			Recompute(&p)
			assert.True(t, d(tt.subtotal).Equal(p.Subtotal), "subtotal %s", p.Subtotal)
			assert.True(t, d(tt.tax).Equal(p.TaxAmount), "tax %s", p.TaxAmount)
			assert.True(t, d(tt.discount).Equal(p.DiscountAmount), "discount %s", p.DiscountAmount)
			assert.True(t, d(tt.total).Equal(p.TotalAmount), "total %s", p.TotalAmount)
		})
	}
}

func TestRecomputeTotalIdentity(t *testing.T) {
	p := entity.Pricing{
		LineItems: []entity.LineItem{
			item("3", "19.99", true),
			item("1.5", "80", false),
			item("7", "0.33", true),
		},
		TaxRate:        d("7.5"),
		DiscountAmount: d("5"),
	}
	Recompute(&p)

	assert.True(t, p.TotalAmount.Equal(p.Subtotal.Add(p.TaxAmount).Sub(p.DiscountAmount)))
	require.Len(t, p.TaxDetails, 1)
	assert.Equal(t, SalesTaxName, p.TaxDetails[0].Name)
	assert.True(t, p.TaxDetails[0].Amount.Equal(p.TaxAmount))
}

func TestValidatePricingDiscountCap(t *testing.T) {
	items := []entity.LineItem{item("2", "100", true)}

	over := entity.Pricing{LineItems: items, TaxRate: d("10"), DiscountAmount: d("500")}
	errs := ValidatePricing(&over)
	require.Len(t, errs, 1)
	assert.Equal(t, "discount_amount", errs[0].Field)

	whole := entity.Pricing{LineItems: items, TaxRate: d("10"), DiscountAmount: d("200")}
	assert.Empty(t, ValidatePricing(&whole))
	Recompute(&whole)
	assert.True(t, whole.TotalAmount.Equal(whole.Subtotal.Add(whole.TaxAmount).Sub(whole.DiscountAmount)))
	assert.True(t, d("20").Equal(whole.TotalAmount))

	// a stale amount left from an earlier percentage is recomputed, not checked
	pct := entity.Pricing{LineItems: items, DiscountPercentage: d("50"), DiscountAmount: d("900")}
	assert.Empty(t, ValidatePricing(&pct))
}

func TestRecomputeItemisedTaxes(t *testing.T) {
	p := entity.Pricing{
		LineItems: []entity.LineItem{item("1", "200", true)},
		TaxDetails: []entity.TaxDetail{
			{Name: "State", Rate: d("5")},
			{Name: "City", Rate: d("2.5")},
		},
	}
	Recompute(&p)

	assert.True(t, d("15").Equal(p.TaxAmount))
	assert.True(t, d("10").Equal(p.TaxDetails[0].Amount))
	assert.True(t, d("5").Equal(p.TaxDetails[1].Amount))
	assert.True(t, d("215").Equal(p.TotalAmount))
}

func TestLineTotalNeverNegative(t *testing.T) {
	li := item("1", "10", false)
	li.Discount = d("15")
	assert.True(t, LineTotal(li).IsZero())
}

func TestValidatePricing(t *testing.T) {
	p := entity.Pricing{
		LineItems: []entity.LineItem{{Quantity: d("0"), UnitPrice: d("-1")}},
		TaxRate:   d("120"),
	}
	errs := ValidatePricing(&p)

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{
		"line_items[0].description",
		"line_items[0].quantity",
		"line_items[0].unit_price",
		"tax_rate",
	}, fields)
}

func TestValidCurrency(t *testing.T) {
	for _, code := range []string{"USD", "kes", "Eur"} {
		assert.True(t, ValidCurrency(code), code)
	}
	for _, code := range []string{"", "US", "USDT", "U5D"} {
		assert.False(t, ValidCurrency(code), code)
	}
}
