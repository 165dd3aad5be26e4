package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/sangkips/investify-billing/pkg/pagination"
)

// QuoteRepository is implemented once per backing store
type QuoteRepository interface {
	Create(ctx context.Context, quote *entity.Quote) error
	// GetByID returns nil, nil when no quote matches
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Quote, error)
	Update(ctx context.Context, quote *entity.Quote) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *QuoteFilter) ([]entity.Quote, int64, error)
	Count(ctx context.Context, filter *QuoteFilter) (int64, error)
	Aggregate(ctx context.Context, filter *QuoteFilter) ([]StatusAggregate, error)
}

// QuoteFilter narrows quote queries
type QuoteFilter struct {
	Pagination    *pagination.PaginationParams
	Statuses      []enum.QuoteStatus
	CustomerID    *uuid.UUID
	ExpiresBefore *time.Time
	Search        string
}

// Matches evaluates the filter in memory
func (f *QuoteFilter) Matches(q *entity.Quote) bool {
	if f == nil {
		return true
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, q.Status) {
		return false
	}
	if f.CustomerID != nil && q.CustomerID != *f.CustomerID {
		return false
	}
	if f.ExpiresBefore != nil && !q.ExpiryDate.Before(*f.ExpiresBefore) {
		return false
	}
	if f.Search != "" && !containsFold(f.Search, q.Number, q.CompanyName, q.Title) {
		return false
	}
	return true
}
