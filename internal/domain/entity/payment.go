package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment records money received from a customer, optionally against an invoice
type Payment struct {
	ID          uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	TenantID    uuid.UUID          `gorm:"type:uuid;not null;index;uniqueIndex:idx_payment_tenant_number" json:"tenant_id"`
	Number      string             `gorm:"size:50;not null;uniqueIndex:idx_payment_tenant_number" json:"number"`
	InvoiceID   *uuid.UUID         `gorm:"type:uuid;index" json:"invoice_id,omitempty"`
	CustomerID  uuid.UUID          `gorm:"type:uuid;not null;index" json:"customer_id"`
	Amount      decimal.Decimal    `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency    string             `gorm:"size:3;not null" json:"currency"`
	Status      enum.PaymentStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Method      enum.PaymentMethod `gorm:"size:20;not null;default:'card'" json:"method"`
	Description *string            `gorm:"type:text" json:"description,omitempty"`

	GatewayPaymentIntentID string `gorm:"size:255;index" json:"gateway_payment_intent_id,omitempty"`
	GatewayCustomerID      string `gorm:"size:255" json:"gateway_customer_id,omitempty"`
	GatewayChargeID        string `gorm:"size:255" json:"gateway_charge_id,omitempty"`
	ClientSecret           string `gorm:"-" json:"client_secret,omitempty"`

	FailureReason      *string    `gorm:"type:text" json:"failure_reason,omitempty"`
	CancellationReason *string    `gorm:"type:text" json:"cancellation_reason,omitempty"`
	ProcessedAt        *time.Time `json:"processed_at,omitempty"`
	Refunds            []Refund   `gorm:"foreignKey:PaymentID" json:"refunds,omitempty"`

	CreatedBy uuid.UUID      `gorm:"type:uuid;not null" json:"created_by"`
	UpdatedBy *uuid.UUID     `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new payment
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}

// RefundedAmount sums every refund that has not failed or been cancelled.
// Pending refunds count so concurrent requests cannot over-refund.
func (p *Payment) RefundedAmount() decimal.Decimal {
	total := decimal.Zero
	for _, r := range p.Refunds {
		if r.Status == enum.RefundStatusFailed || r.Status == enum.RefundStatusCancelled {
			continue
		}
		total = total.Add(r.Amount)
	}
	return total
}

// RefundableAmount is what can still be returned to the customer
func (p *Payment) RefundableAmount() decimal.Decimal {
	remaining := p.Amount.Sub(p.RefundedAmount())
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// Refund returns part or all of a payment
type Refund struct {
	ID              uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	PaymentID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"payment_id"`
	Amount          decimal.Decimal   `gorm:"type:decimal(15,2);not null" json:"amount"`
	Reason          string            `gorm:"size:255" json:"reason"`
	Status          enum.RefundStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	GatewayRefundID string            `gorm:"size:255" json:"gateway_refund_id,omitempty"`
	FailureReason   *string           `gorm:"type:text" json:"failure_reason,omitempty"`
	ProcessedAt     *time.Time        `json:"processed_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new refund
func (r *Refund) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Refund model
func (Refund) TableName() string {
	return "refunds"
}
