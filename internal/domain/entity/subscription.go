package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Subscription is the local mirror of a recurring plan held by the payment gateway.
// The gateway is the source of truth; SyncWithGateway overwrites these fields.
type Subscription struct {
	ID                    uuid.UUID               `gorm:"type:uuid;primary_key" json:"id"`
	TenantID              uuid.UUID               `gorm:"type:uuid;not null;index" json:"tenant_id"`
	CustomerID            uuid.UUID               `gorm:"type:uuid;not null;index" json:"customer_id"`
	PlanID                string                  `gorm:"size:255;not null" json:"plan_id"`
	Status                enum.SubscriptionStatus `gorm:"size:20;not null;index" json:"status"`
	CurrentPeriodStart    time.Time               `json:"current_period_start"`
	CurrentPeriodEnd      time.Time               `json:"current_period_end"`
	TrialStart            *time.Time              `json:"trial_start,omitempty"`
	TrialEnd              *time.Time              `json:"trial_end,omitempty"`
	Interval              enum.BillingInterval    `gorm:"size:10" json:"interval"`
	IntervalCount         int64                   `gorm:"default:1" json:"interval_count"`
	Amount                decimal.Decimal         `gorm:"type:decimal(15,2);default:0" json:"amount"`
	Currency              string                  `gorm:"size:3" json:"currency"`
	Quantity              int64                   `gorm:"default:1" json:"quantity"`
	GatewaySubscriptionID string                  `gorm:"size:255;uniqueIndex" json:"gateway_subscription_id"`
	GatewayCustomerID     string                  `gorm:"size:255" json:"gateway_customer_id"`
	CancelAtPeriodEnd     bool                    `gorm:"default:false" json:"cancel_at_period_end"`
	CancelledAt           *time.Time              `json:"cancelled_at,omitempty"`
	PausedAt              *time.Time              `json:"paused_at,omitempty"`
	LastSyncedAt          *time.Time              `json:"last_synced_at,omitempty"`

	CreatedBy uuid.UUID      `gorm:"type:uuid;not null" json:"created_by"`
	UpdatedBy *uuid.UUID     `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new subscription
func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Subscription model
func (Subscription) TableName() string {
	return "subscriptions"
}

// IsCancelled reports whether the subscription has ended at the gateway
func (s *Subscription) IsCancelled() bool {
	return s.Status == enum.SubscriptionStatusCancelled
}
