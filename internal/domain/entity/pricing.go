package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is a single billable row on a quote or invoice
type LineItem struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Taxable     bool            `json:"taxable"`
}

// TaxDetail records one tax applied to a document
type TaxDetail struct {
	Name          string          `json:"name"`
	Rate          decimal.Decimal `json:"rate"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	Amount        decimal.Decimal `json:"amount"`
}

// Pricing holds the monetary fields shared by quotes and invoices.
// Subtotal, TaxAmount, TotalAmount, TaxDetails and each LineItem.TotalPrice
// are derived; callers set LineItems, TaxRate and the discount inputs.
type Pricing struct {
	Currency           string          `gorm:"size:3;not null;default:'USD'" json:"currency"`
	LineItems          []LineItem      `gorm:"type:jsonb;serializer:json" json:"line_items"`
	TaxRate            decimal.Decimal `gorm:"type:decimal(7,4);default:0" json:"tax_rate"`
	TaxDetails         []TaxDetail     `gorm:"type:jsonb;serializer:json" json:"tax_details"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(7,4);default:0" json:"discount_percentage"`
	DiscountAmount     decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"discount_amount"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"subtotal"`
	TaxAmount          decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"tax_amount"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"total_amount"`
}

// FindLineItem returns the index of the item with the given id, or -1
func (p *Pricing) FindLineItem(id uuid.UUID) int {
	for i := range p.LineItems {
		if p.LineItems[i].ID == id {
			return i
		}
	}
	return -1
}

// CloneLineItems copies line items under fresh ids
func (p *Pricing) CloneLineItems() []LineItem {
	items := make([]LineItem, len(p.LineItems))
	for i, item := range p.LineItems {
		item.ID = uuid.New()
		items[i] = item
	}
	return items
}
