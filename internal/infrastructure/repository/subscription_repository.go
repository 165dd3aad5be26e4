package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-billing/internal/domain/repository"
	"gorm.io/gorm"
)

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB) domainRepo.SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *entity.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Subscription, error) {
	var sub entity.Subscription
	err := r.db.WithContext(ctx).Scopes(TenantScope(ctx)).First(&sub, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sub, err
}

func (r *subscriptionRepository) GetByGatewayID(ctx context.Context, gatewayID string) (*entity.Subscription, error) {
	var sub entity.Subscription
	err := r.db.WithContext(ctx).Scopes(TenantScope(ctx)).First(&sub, "gateway_subscription_id = ?", gatewayID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sub, err
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *entity.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *subscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Scopes(TenantScope(ctx)).Delete(&entity.Subscription{}, "id = ?", id).Error
}

func (r *subscriptionRepository) List(ctx context.Context, filter *domainRepo.SubscriptionFilter) ([]entity.Subscription, int64, error) {
	var subs []entity.Subscription
	var total int64

	query := r.filtered(ctx, filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := query
	if filter != nil {
		q = q.Scopes(Paginate(filter.Pagination))
	}
	err := q.Order("created_at DESC").Find(&subs).Error
	return subs, total, err
}

func (r *subscriptionRepository) Count(ctx context.Context, filter *domainRepo.SubscriptionFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, filter).Count(&total).Error
	return total, err
}

func (r *subscriptionRepository) Aggregate(ctx context.Context, filter *domainRepo.SubscriptionFilter) ([]domainRepo.StatusAggregate, error) {
	return aggregateByStatus(r.filtered(ctx, filter), "amount * quantity", "")
}

func (r *subscriptionRepository) filtered(ctx context.Context, f *domainRepo.SubscriptionFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entity.Subscription{}).Scopes(TenantScope(ctx))
	if f == nil {
		return query
	}
	if len(f.Statuses) > 0 {
		query = query.Where("status IN ?", domainRepo.StatusStrings(f.Statuses))
	}
	if f.CustomerID != nil {
		query = query.Where("customer_id = ?", *f.CustomerID)
	}
	return query
}
