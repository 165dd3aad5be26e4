package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is a CRM contact that quotes, invoices and payments are addressed to
type Customer struct {
	ID                uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	TenantID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name              string         `gorm:"size:255;not null" json:"name"`
	Company           *string        `gorm:"size:255" json:"company,omitempty"`
	Email             *string        `gorm:"size:255" json:"email,omitempty"`
	Phone             *string        `gorm:"size:50" json:"phone,omitempty"`
	KRAPin            *string        `gorm:"size:50;column:kra_pin" json:"kra_pin,omitempty"`
	Address           *string        `gorm:"type:text" json:"address,omitempty"`
	GatewayCustomerID *string        `gorm:"size:255" json:"gateway_customer_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new customer
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// DisplayCompany prefers the company name, falling back to the contact name
func (c *Customer) DisplayCompany() string {
	if c.Company != nil && *c.Company != "" {
		return *c.Company
	}
	return c.Name
}

// EmailAddress returns the contact email or an empty string
func (c *Customer) EmailAddress() string {
	if c.Email == nil {
		return ""
	}
	return *c.Email
}
