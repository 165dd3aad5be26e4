package supabase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/pkg/pagination"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type quoteRepository struct {
	t *table[entity.Quote]
}

// NewQuoteRepository returns a QuoteRepository backed by Supabase
func NewQuoteRepository(c *Client) domainRepo.QuoteRepository {
	return &quoteRepository{t: &table[entity.Quote]{
		client: c,
		name:   tableQuotes,
		stamp: func(q *entity.Quote, now time.Time, creating bool) {
			if creating {
				if q.ID == uuid.Nil {
					q.ID = uuid.New()
				}
				q.CreatedAt = now
			}
			q.UpdatedAt = now
		},
	}}
}

func (r *quoteRepository) Create(ctx context.Context, quote *entity.Quote) error {
	return r.t.create(quote)
}

func (r *quoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Quote, error) {
	return r.t.get(ctx, id)
}

func (r *quoteRepository) Update(ctx context.Context, quote *entity.Quote) error {
	return r.t.save(ctx, quote.ID, quote)
}

func (r *quoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.t.remove(ctx, id)
}

func (r *quoteRepository) matching(ctx context.Context, filter *domainRepo.QuoteFilter) ([]entity.Quote, error) {
	var extra []cond
	if filter != nil && filter.CustomerID != nil {
		extra = append(extra, cond{column: "customer_id", value: filter.CustomerID.String()})
	}
	rows, err := r.t.all(ctx, extra...)
	if err != nil {
		return nil, err
	}
	return lo.Filter(rows, func(q entity.Quote, _ int) bool { return filter.Matches(&q) }), nil
}

func (r *quoteRepository) List(ctx context.Context, filter *domainRepo.QuoteFilter) ([]entity.Quote, int64, error) {
	rows, err := r.matching(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	sortDesc(rows,
		func(q *entity.Quote) time.Time { return q.IssueDate },
		func(q *entity.Quote) string { return q.Number })

	var params *pagination.PaginationParams
	if filter != nil {
		params = filter.Pagination
	}
	return pagination.Window(rows, params), int64(len(rows)), nil
}

func (r *quoteRepository) Count(ctx context.Context, filter *domainRepo.QuoteFilter) (int64, error) {
	rows, err := r.matching(ctx, filter)
	return int64(len(rows)), err
}

func (r *quoteRepository) Aggregate(ctx context.Context, filter *domainRepo.QuoteFilter) ([]domainRepo.StatusAggregate, error) {
	rows, err := r.matching(ctx, filter)
	if err != nil {
		return nil, err
	}
	return aggregate(rows,
		func(q entity.Quote) string { return string(q.Status) },
		func(q entity.Quote) decimal.Decimal { return q.TotalAmount },
		nil,
	), nil
}
