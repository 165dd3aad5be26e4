package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReminderEntry is one reminder email sent for an invoice
type ReminderEntry struct {
	Type        enum.ReminderType `json:"type"`
	SentAt      time.Time         `json:"sent_at"`
	SentTo      string            `json:"sent_to"`
	DaysPastDue int               `json:"days_past_due"`
}

// Invoice is a bill issued to a customer
type Invoice struct {
	ID          uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	TenantID    uuid.UUID          `gorm:"type:uuid;not null;index;uniqueIndex:idx_invoice_tenant_number" json:"tenant_id"`
	Number      string             `gorm:"size:50;not null;uniqueIndex:idx_invoice_tenant_number" json:"number"`
	CustomerID  uuid.UUID          `gorm:"type:uuid;not null;index" json:"customer_id"`
	CompanyName string             `gorm:"size:255" json:"company_name"`
	QuoteID     *uuid.UUID         `gorm:"type:uuid;index" json:"quote_id,omitempty"`
	Status      enum.InvoiceStatus `gorm:"size:20;not null;default:'draft';index" json:"status"`
	IssueDate   time.Time          `gorm:"not null" json:"issue_date"`
	DueDate     time.Time          `gorm:"not null;index" json:"due_date"`
	PaidDate    *time.Time         `json:"paid_date,omitempty"`

	Pricing          `gorm:"embedded"`
	AmountPaid       decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"amount_paid"`
	RemainingBalance decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"remaining_balance"`

	Notes        *string         `gorm:"type:text" json:"notes,omitempty"`
	PrivateNotes *string         `gorm:"type:text" json:"private_notes,omitempty"`
	Terms        *string         `gorm:"type:text" json:"terms,omitempty"`
	LastSentDate *time.Time      `json:"last_sent_date,omitempty"`
	ViewedAt     *time.Time      `json:"viewed_at,omitempty"`
	PDFPath      string          `gorm:"size:500" json:"pdf_path,omitempty"`
	Reminders    []ReminderEntry `gorm:"type:jsonb;serializer:json" json:"reminders"`

	CreatedBy uuid.UUID      `gorm:"type:uuid;not null" json:"created_by"`
	Owner     uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner"`
	UpdatedBy *uuid.UUID     `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new invoice
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// HasReminder reports whether a reminder of the given type was already sent
func (i *Invoice) HasReminder(t enum.ReminderType) bool {
	for _, r := range i.Reminders {
		if r.Type == t {
			return true
		}
	}
	return false
}

// LastReminder returns the most recent reminder, if any
func (i *Invoice) LastReminder() *ReminderEntry {
	var last *ReminderEntry
	for idx := range i.Reminders {
		if last == nil || i.Reminders[idx].SentAt.After(last.SentAt) {
			last = &i.Reminders[idx]
		}
	}
	return last
}

// IsPastDue reports whether the due date has passed at now
func (i *Invoice) IsPastDue(now time.Time) bool {
	return now.After(i.DueDate)
}
