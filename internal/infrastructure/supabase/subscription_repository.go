package supabase

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/pkg/pagination"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type subscriptionRepository struct {
	t *table[entity.Subscription]
}

// NewSubscriptionRepository returns a SubscriptionRepository backed by Supabase
func NewSubscriptionRepository(c *Client) domainRepo.SubscriptionRepository {
	return &subscriptionRepository{t: &table[entity.Subscription]{
		client: c,
		name:   tableSubscriptions,
		stamp: func(s *entity.Subscription, now time.Time, creating bool) {
			if creating {
				if s.ID == uuid.Nil {
					s.ID = uuid.New()
				}
				s.CreatedAt = now
			}
			s.UpdatedAt = now
		},
	}}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *entity.Subscription) error {
	return r.t.create(sub)
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Subscription, error) {
	return r.t.get(ctx, id)
}

func (r *subscriptionRepository) GetByGatewayID(ctx context.Context, gatewayID string) (*entity.Subscription, error) {
	conds, err := tenantConds(ctx)
	if errors.Is(err, errNoTenant) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.t.first(append(conds, cond{column: "gateway_subscription_id", value: gatewayID}))
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *entity.Subscription) error {
	return r.t.save(ctx, sub.ID, sub)
}

func (r *subscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.t.remove(ctx, id)
}

func (r *subscriptionRepository) matching(ctx context.Context, filter *domainRepo.SubscriptionFilter) ([]entity.Subscription, error) {
	rows, err := r.t.all(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(rows, func(s entity.Subscription, _ int) bool { return filter.Matches(&s) }), nil
}

func (r *subscriptionRepository) List(ctx context.Context, filter *domainRepo.SubscriptionFilter) ([]entity.Subscription, int64, error) {
	rows, err := r.matching(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	sortDesc(rows,
		func(s *entity.Subscription) time.Time { return s.CreatedAt },
		func(s *entity.Subscription) string { return s.GatewaySubscriptionID })

	var params *pagination.PaginationParams
	if filter != nil {
		params = filter.Pagination
	}
	return pagination.Window(rows, params), int64(len(rows)), nil
}

func (r *subscriptionRepository) Count(ctx context.Context, filter *domainRepo.SubscriptionFilter) (int64, error) {
	rows, err := r.matching(ctx, filter)
	return int64(len(rows)), err
}

func (r *subscriptionRepository) Aggregate(ctx context.Context, filter *domainRepo.SubscriptionFilter) ([]domainRepo.StatusAggregate, error) {
	rows, err := r.matching(ctx, filter)
	if err != nil {
		return nil, err
	}
	return aggregate(rows,
		func(s entity.Subscription) string { return string(s.Status) },
		func(s entity.Subscription) decimal.Decimal { return s.Amount.Mul(decimal.NewFromInt(s.Quantity)) },
		nil,
	), nil
}
