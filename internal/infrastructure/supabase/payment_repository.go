package supabase

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/pkg/pagination"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// paymentRepository keeps refunds in their own table and stitches them back
// onto payments on read
type paymentRepository struct {
	t       *table[entity.Payment]
	refunds *table[entity.Refund]
}

// NewPaymentRepository returns a PaymentRepository backed by Supabase
func NewPaymentRepository(c *Client) domainRepo.PaymentRepository {
	return &paymentRepository{
		t: &table[entity.Payment]{
			client: c,
			name:   tablePayments,
			drop:   []string{"refunds", "client_secret"},
			stamp: func(p *entity.Payment, now time.Time, creating bool) {
				if creating {
					if p.ID == uuid.Nil {
						p.ID = uuid.New()
					}
					p.CreatedAt = now
				}
				p.UpdatedAt = now
			},
		},
		refunds: &table[entity.Refund]{
			client: c,
			name:   tableRefunds,
			stamp: func(rf *entity.Refund, now time.Time, creating bool) {
				if creating {
					if rf.ID == uuid.Nil {
						rf.ID = uuid.New()
					}
					rf.CreatedAt = now
				}
				rf.UpdatedAt = now
			},
		},
	}
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	if err := r.t.create(payment); err != nil {
		return err
	}
	return r.saveRefunds(ctx, payment)
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	p, err := r.t.get(ctx, id)
	if err != nil || p == nil {
		return p, err
	}
	return p, r.loadRefunds(p)
}

func (r *paymentRepository) GetByGatewayIntentID(ctx context.Context, intentID string) (*entity.Payment, error) {
	conds, err := tenantConds(ctx)
	if errors.Is(err, errNoTenant) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p, err := r.t.first(append(conds, cond{column: "gateway_payment_intent_id", value: intentID}))
	if err != nil || p == nil {
		return p, err
	}
	return p, r.loadRefunds(p)
}

func (r *paymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	if err := r.t.save(ctx, payment.ID, payment); err != nil {
		return err
	}
	return r.saveRefunds(ctx, payment)
}

func (r *paymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.refunds.client.deleteWhere(tableRefunds, []cond{{column: "payment_id", value: id.String()}}); err != nil {
		return errors.Wrap(err, "delete refunds")
	}
	return r.t.remove(ctx, id)
}

func (r *paymentRepository) loadRefunds(p *entity.Payment) error {
	var rows []entity.Refund
	if err := r.refunds.client.selectWhere(tableRefunds, []cond{{column: "payment_id", value: p.ID.String()}}, &rows); err != nil {
		return errors.Wrap(err, "select refunds")
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	p.Refunds = rows
	return nil
}

// saveRefunds inserts refunds not yet stored and rewrites the rest
func (r *paymentRepository) saveRefunds(ctx context.Context, p *entity.Payment) error {
	if len(p.Refunds) == 0 {
		return nil
	}
	var existing []entity.Refund
	if err := r.refunds.client.selectWhere(tableRefunds, []cond{{column: "payment_id", value: p.ID.String()}}, &existing); err != nil {
		return errors.Wrap(err, "select refunds")
	}
	stored := lo.SliceToMap(existing, func(rf entity.Refund) (uuid.UUID, bool) { return rf.ID, true })

	for i := range p.Refunds {
		rf := &p.Refunds[i]
		rf.PaymentID = p.ID
		if rf.ID != uuid.Nil && stored[rf.ID] {
			rf.UpdatedAt = time.Now().UTC()
			data, err := toRow(rf, "id", "created_at")
			if err != nil {
				return err
			}
			var out []entity.Refund
			if err := r.refunds.client.updateWhere(tableRefunds, data, []cond{{column: "id", value: rf.ID.String()}}, &out); err != nil {
				return errors.Wrap(err, "update refund")
			}
			continue
		}
		if err := r.refunds.create(rf); err != nil {
			return err
		}
	}
	return nil
}

func (r *paymentRepository) matching(ctx context.Context, filter *domainRepo.PaymentFilter) ([]entity.Payment, error) {
	var extra []cond
	if filter != nil && filter.InvoiceID != nil {
		extra = append(extra, cond{column: "invoice_id", value: filter.InvoiceID.String()})
	}
	rows, err := r.t.all(ctx, extra...)
	if err != nil {
		return nil, err
	}
	return lo.Filter(rows, func(p entity.Payment, _ int) bool { return filter.Matches(&p) }), nil
}

func (r *paymentRepository) List(ctx context.Context, filter *domainRepo.PaymentFilter) ([]entity.Payment, int64, error) {
	rows, err := r.matching(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	sortDesc(rows,
		func(p *entity.Payment) time.Time { return p.CreatedAt },
		func(p *entity.Payment) string { return p.Number })

	var params *pagination.PaginationParams
	if filter != nil {
		params = filter.Pagination
	}
	page := pagination.Window(rows, params)
	for i := range page {
		if err := r.loadRefunds(&page[i]); err != nil {
			return nil, 0, err
		}
	}
	return page, int64(len(rows)), nil
}

func (r *paymentRepository) Count(ctx context.Context, filter *domainRepo.PaymentFilter) (int64, error) {
	rows, err := r.matching(ctx, filter)
	return int64(len(rows)), err
}

func (r *paymentRepository) Aggregate(ctx context.Context, filter *domainRepo.PaymentFilter) ([]domainRepo.StatusAggregate, error) {
	rows, err := r.matching(ctx, filter)
	if err != nil {
		return nil, err
	}
	return aggregate(rows,
		func(p entity.Payment) string { return string(p.Status) },
		func(p entity.Payment) decimal.Decimal { return p.Amount },
		nil,
	), nil
}
