package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/sangkips/investify-billing/pkg/pagination"
)

// InvoiceRepository is implemented once per backing store
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	// GetByID returns nil, nil when no invoice matches
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	Update(ctx context.Context, invoice *entity.Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *InvoiceFilter) ([]entity.Invoice, int64, error)
	Count(ctx context.Context, filter *InvoiceFilter) (int64, error)
	Aggregate(ctx context.Context, filter *InvoiceFilter) ([]StatusAggregate, error)
}

// InvoiceFilter narrows invoice queries. Zero values mean "no constraint".
type InvoiceFilter struct {
	Pagination      *pagination.PaginationParams
	Statuses        []enum.InvoiceStatus
	ExcludeStatuses []enum.InvoiceStatus
	CustomerID      *uuid.UUID
	QuoteID         *uuid.UUID
	DueBefore       *time.Time
	DueAfter        *time.Time
	Search          string
}

// Matches evaluates the filter in memory for backends without query pushdown
func (f *InvoiceFilter) Matches(inv *entity.Invoice) bool {
	if f == nil {
		return true
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, inv.Status) {
		return false
	}
	if containsStatus(f.ExcludeStatuses, inv.Status) {
		return false
	}
	if f.CustomerID != nil && inv.CustomerID != *f.CustomerID {
		return false
	}
	if f.QuoteID != nil && (inv.QuoteID == nil || *inv.QuoteID != *f.QuoteID) {
		return false
	}
	if f.DueBefore != nil && !inv.DueDate.Before(*f.DueBefore) {
		return false
	}
	if f.DueAfter != nil && !inv.DueDate.After(*f.DueAfter) {
		return false
	}
	if f.Search != "" && !containsFold(f.Search, inv.Number, inv.CompanyName) {
		return false
	}
	return true
}
