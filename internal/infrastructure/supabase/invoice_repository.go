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

type invoiceRepository struct {
	t *table[entity.Invoice]
}

// NewInvoiceRepository returns an InvoiceRepository backed by Supabase
func NewInvoiceRepository(c *Client) domainRepo.InvoiceRepository {
	return &invoiceRepository{t: &table[entity.Invoice]{
		client: c,
		name:   tableInvoices,
		stamp: func(inv *entity.Invoice, now time.Time, creating bool) {
			if creating {
				if inv.ID == uuid.Nil {
					inv.ID = uuid.New()
				}
				inv.CreatedAt = now
			}
			inv.UpdatedAt = now
		},
	}}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	return r.t.create(invoice)
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	return r.t.get(ctx, id)
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *entity.Invoice) error {
	return r.t.save(ctx, invoice.ID, invoice)
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.t.remove(ctx, id)
}

func (r *invoiceRepository) matching(ctx context.Context, filter *domainRepo.InvoiceFilter) ([]entity.Invoice, error) {
	var extra []cond
	if filter != nil && filter.CustomerID != nil {
		extra = append(extra, cond{column: "customer_id", value: filter.CustomerID.String()})
	}
	rows, err := r.t.all(ctx, extra...)
	if err != nil {
		return nil, err
	}
	return lo.Filter(rows, func(inv entity.Invoice, _ int) bool { return filter.Matches(&inv) }), nil
}

func (r *invoiceRepository) List(ctx context.Context, filter *domainRepo.InvoiceFilter) ([]entity.Invoice, int64, error) {
	rows, err := r.matching(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	sortDesc(rows,
		func(inv *entity.Invoice) time.Time { return inv.IssueDate },
		func(inv *entity.Invoice) string { return inv.Number })

	var params *pagination.PaginationParams
	if filter != nil {
		params = filter.Pagination
	}
	return pagination.Window(rows, params), int64(len(rows)), nil
}

func (r *invoiceRepository) Count(ctx context.Context, filter *domainRepo.InvoiceFilter) (int64, error) {
	rows, err := r.matching(ctx, filter)
	return int64(len(rows)), err
}

func (r *invoiceRepository) Aggregate(ctx context.Context, filter *domainRepo.InvoiceFilter) ([]domainRepo.StatusAggregate, error) {
	rows, err := r.matching(ctx, filter)
	if err != nil {
		return nil, err
	}
	return aggregate(rows,
		func(inv entity.Invoice) string { return string(inv.Status) },
		func(inv entity.Invoice) decimal.Decimal { return inv.TotalAmount },
		func(inv entity.Invoice) decimal.Decimal { return inv.RemainingBalance },
	), nil
}
