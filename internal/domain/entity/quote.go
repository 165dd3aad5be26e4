package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"gorm.io/gorm"
)

// Quote is a priced offer that a customer can accept and turn into an invoice
type Quote struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	TenantID    uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_quote_tenant_number" json:"tenant_id"`
	Number      string           `gorm:"size:50;not null;uniqueIndex:idx_quote_tenant_number" json:"number"`
	CustomerID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"customer_id"`
	CompanyName string           `gorm:"size:255" json:"company_name"`
	Title       string           `gorm:"size:255" json:"title"`
	Status      enum.QuoteStatus `gorm:"size:20;not null;default:'draft';index" json:"status"`
	IssueDate   time.Time        `gorm:"not null" json:"issue_date"`
	ExpiryDate  time.Time        `gorm:"not null;index" json:"expiry_date"`

	Pricing `gorm:"embedded"`

	Notes              *string    `gorm:"type:text" json:"notes,omitempty"`
	Terms              *string    `gorm:"type:text" json:"terms,omitempty"`
	LastSentDate       *time.Time `json:"last_sent_date,omitempty"`
	AcceptedAt         *time.Time `json:"accepted_at,omitempty"`
	RejectedAt         *time.Time `json:"rejected_at,omitempty"`
	RejectionReason    *string    `gorm:"type:text" json:"rejection_reason,omitempty"`
	ConvertedInvoiceID *uuid.UUID `gorm:"type:uuid" json:"converted_invoice_id,omitempty"`
	ConvertedAt        *time.Time `json:"converted_at,omitempty"`
	PDFPath            string     `gorm:"size:500" json:"pdf_path,omitempty"`

	CreatedBy uuid.UUID      `gorm:"type:uuid;not null" json:"created_by"`
	Owner     uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner"`
	UpdatedBy *uuid.UUID     `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new quote
func (q *Quote) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Quote model
func (Quote) TableName() string {
	return "quotes"
}

// IsExpired reports whether the quote can no longer be accepted at now
func (q *Quote) IsExpired(now time.Time) bool {
	return q.Status == enum.QuoteStatusExpired || now.After(q.ExpiryDate)
}

// IsConverted reports whether an invoice was already produced from the quote
func (q *Quote) IsConverted() bool {
	return q.ConvertedInvoiceID != nil
}
