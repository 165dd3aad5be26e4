package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/sangkips/investify-billing/pkg/pagination"
)

// SubscriptionRepository stores the local mirror of gateway subscriptions
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *entity.Subscription) error
	// GetByID returns nil, nil when no subscription matches
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Subscription, error)
	GetByGatewayID(ctx context.Context, gatewayID string) (*entity.Subscription, error)
	Update(ctx context.Context, sub *entity.Subscription) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *SubscriptionFilter) ([]entity.Subscription, int64, error)
	Count(ctx context.Context, filter *SubscriptionFilter) (int64, error)
	Aggregate(ctx context.Context, filter *SubscriptionFilter) ([]StatusAggregate, error)
}

// SubscriptionFilter narrows subscription queries
type SubscriptionFilter struct {
	Pagination *pagination.PaginationParams
	Statuses   []enum.SubscriptionStatus
	CustomerID *uuid.UUID
}

// Matches evaluates the filter in memory
func (f *SubscriptionFilter) Matches(s *entity.Subscription) bool {
	if f == nil {
		return true
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, s.Status) {
		return false
	}
	if f.CustomerID != nil && s.CustomerID != *f.CustomerID {
		return false
	}
	return true
}
