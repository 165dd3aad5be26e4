package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/sangkips/investify-billing/pkg/pagination"
)

// PaymentRepository persists payments together with their refunds
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	// GetByID returns nil, nil when no payment matches
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	GetByGatewayIntentID(ctx context.Context, intentID string) (*entity.Payment, error)
	// Update saves the payment and upserts every refund it carries
	Update(ctx context.Context, payment *entity.Payment) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *PaymentFilter) ([]entity.Payment, int64, error)
	Count(ctx context.Context, filter *PaymentFilter) (int64, error)
	Aggregate(ctx context.Context, filter *PaymentFilter) ([]StatusAggregate, error)
}

// PaymentFilter narrows payment queries
type PaymentFilter struct {
	Pagination *pagination.PaginationParams
	Statuses   []enum.PaymentStatus
	InvoiceID  *uuid.UUID
	CustomerID *uuid.UUID
	Search     string
}

// Matches evaluates the filter in memory
func (f *PaymentFilter) Matches(p *entity.Payment) bool {
	if f == nil {
		return true
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, p.Status) {
		return false
	}
	if f.InvoiceID != nil && (p.InvoiceID == nil || *p.InvoiceID != *f.InvoiceID) {
		return false
	}
	if f.CustomerID != nil && p.CustomerID != *f.CustomerID {
		return false
	}
	if f.Search != "" && !containsFold(f.Search, p.Number, p.GatewayPaymentIntentID) {
		return false
	}
	return true
}
