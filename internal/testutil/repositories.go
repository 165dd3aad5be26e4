package testutil

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	domainRepo "github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/pkg/pagination"
	"github.com/shopspring/decimal"
)

// InvoiceRepository is an in-memory domainRepo.InvoiceRepository
type InvoiceRepository struct {
	*Store[entity.Invoice]
}

func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{NewStore(
		func(i *entity.Invoice) uuid.UUID { return i.ID },
		func(i *entity.Invoice) uuid.UUID { return i.TenantID },
	)}
}

func (r *InvoiceRepository) Create(_ context.Context, inv *entity.Invoice) error {
	_ = inv.BeforeCreate(nil)
	return r.Insert(inv)
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	return r.Get(ctx, id)
}

func (r *InvoiceRepository) Update(ctx context.Context, inv *entity.Invoice) error {
	return r.Put(ctx, inv)
}

func (r *InvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.Remove(ctx, id)
}

func (r *InvoiceRepository) List(ctx context.Context, f *domainRepo.InvoiceFilter) ([]entity.Invoice, int64, error) {
	rows, err := r.Filter(ctx, f.Matches)
	if err != nil {
		return nil, 0, err
	}
	var p *pagination.PaginationParams
	if f != nil {
		p = f.Pagination
	}
	return pagination.Window(rows, p), int64(len(rows)), nil
}

func (r *InvoiceRepository) Count(ctx context.Context, f *domainRepo.InvoiceFilter) (int64, error) {
	rows, err := r.Filter(ctx, f.Matches)
	return int64(len(rows)), err
}

func (r *InvoiceRepository) Aggregate(ctx context.Context, f *domainRepo.InvoiceFilter) ([]domainRepo.StatusAggregate, error) {
	rows, err := r.Filter(ctx, f.Matches)
	if err != nil {
		return nil, err
	}
	return groupByStatus(rows,
		func(i entity.Invoice) string { return string(i.Status) },
		func(i entity.Invoice) decimal.Decimal { return i.TotalAmount },
		func(i entity.Invoice) decimal.Decimal { return i.RemainingBalance },
	), nil
}

// QuoteRepository is an in-memory domainRepo.QuoteRepository
type QuoteRepository struct {
	*Store[entity.Quote]
}

func NewQuoteRepository() *QuoteRepository {
	return &QuoteRepository{NewStore(
		func(q *entity.Quote) uuid.UUID { return q.ID },
		func(q *entity.Quote) uuid.UUID { return q.TenantID },
	)}
}

func (r *QuoteRepository) Create(_ context.Context, q *entity.Quote) error {
	_ = q.BeforeCreate(nil)
	return r.Insert(q)
}

func (r *QuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Quote, error) {
	return r.Get(ctx, id)
}

func (r *QuoteRepository) Update(ctx context.Context, q *entity.Quote) error {
	return r.Put(ctx, q)
}

func (r *QuoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.Remove(ctx, id)
}

func (r *QuoteRepository) List(ctx context.Context, f *domainRepo.QuoteFilter) ([]entity.Quote, int64, error) {
	rows, err := r.Filter(ctx, f.Matches)
	if err != nil {
		return nil, 0, err
	}
	var p *pagination.PaginationParams
	if f != nil {
		p = f.Pagination
	}
	return pagination.Window(rows, p), int64(len(rows)), nil
}

func (r *QuoteRepository) Count(ctx context.Context, f *domainRepo.QuoteFilter) (int64, error) {
	rows, err := r.Filter(ctx, f.Matches)
	return int64(len(rows)), err
}

func (r *QuoteRepository) Aggregate(ctx context.Context, f *domainRepo.QuoteFilter) ([]domainRepo.StatusAggregate, error) {
	rows, err := r.Filter(ctx, f.Matches)
	if err != nil {
		return nil, err
	}
	return groupByStatus(rows,
		func(q entity.Quote) string { return string(q.Status) },
		func(q entity.Quote) decimal.Decimal { return q.TotalAmount },
		nil,
	), nil
}

// PaymentRepository is an in-memory domainRepo.PaymentRepository
type PaymentRepository struct {
	*Store[entity.Payment]
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{NewStore(
		func(p *entity.Payment) uuid.UUID { return p.ID },
		func(p *entity.Payment) uuid.UUID { return p.TenantID },
	)}
}

func (r *PaymentRepository) Create(_ context.Context, p *entity.Payment) error {
	_ = p.BeforeCreate(nil)
	return r.Insert(p)
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	return r.Get(ctx, id)
}

func (r *PaymentRepository) GetByGatewayIntentID(ctx context.Context, intentID string) (*entity.Payment, error) {
	if intentID == "" {
		return nil, nil
	}
	return r.First(ctx, func(p *entity.Payment) bool { return p.GatewayPaymentIntentID == intentID })
}

func (r *PaymentRepository) Update(ctx context.Context, p *entity.Payment) error {
	for i := range p.Refunds {
		_ = p.Refunds[i].BeforeCreate(nil)
	}
	return r.Put(ctx, p)
}

func (r *PaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.Remove(ctx, id)
}

func (r *PaymentRepository) List(ctx context.Context, f *domainRepo.PaymentFilter) ([]entity.Payment, int64, error) {
	rows, err := r.Filter(ctx, f.Matches)
	if err != nil {
		return nil, 0, err
	}
	var p *pagination.PaginationParams
	if f != nil {
		p = f.Pagination
	}
	return pagination.Window(rows, p), int64(len(rows)), nil
}

func (r *PaymentRepository) Count(ctx context.Context, f *domainRepo.PaymentFilter) (int64, error) {
	rows, err := r.Filter(ctx, f.Matches)
	return int64(len(rows)), err
}

func (r *PaymentRepository) Aggregate(ctx context.Context, f *domainRepo.PaymentFilter) ([]domainRepo.StatusAggregate, error) {
	rows, err := r.Filter(ctx, f.Matches)
	if err != nil {
		return nil, err
	}
	return groupByStatus(rows,
		func(p entity.Payment) string { return string(p.Status) },
		func(p entity.Payment) decimal.Decimal { return p.Amount },
		nil,
	), nil
}

// SubscriptionRepository is an in-memory domainRepo.SubscriptionRepository
type SubscriptionRepository struct {
	*Store[entity.Subscription]
}

func NewSubscriptionRepository() *SubscriptionRepository {
	return &SubscriptionRepository{NewStore(
		func(s *entity.Subscription) uuid.UUID { return s.ID },
		func(s *entity.Subscription) uuid.UUID { return s.TenantID },
	)}
}

func (r *SubscriptionRepository) Create(_ context.Context, s *entity.Subscription) error {
	_ = s.BeforeCreate(nil)
	return r.Insert(s)
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Subscription, error) {
	return r.Get(ctx, id)
}

func (r *SubscriptionRepository) GetByGatewayID(ctx context.Context, gatewayID string) (*entity.Subscription, error) {
	return r.First(ctx, func(s *entity.Subscription) bool { return s.GatewaySubscriptionID == gatewayID })
}

func (r *SubscriptionRepository) Update(ctx context.Context, s *entity.Subscription) error {
	return r.Put(ctx, s)
}

func (r *SubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.Remove(ctx, id)
}

func (r *SubscriptionRepository) List(ctx context.Context, f *domainRepo.SubscriptionFilter) ([]entity.Subscription, int64, error) {
	rows, err := r.Filter(ctx, f.Matches)
	if err != nil {
		return nil, 0, err
	}
	var p *pagination.PaginationParams
	if f != nil {
		p = f.Pagination
	}
	return pagination.Window(rows, p), int64(len(rows)), nil
}

func (r *SubscriptionRepository) Count(ctx context.Context, f *domainRepo.SubscriptionFilter) (int64, error) {
	rows, err := r.Filter(ctx, f.Matches)
	return int64(len(rows)), err
}

func (r *SubscriptionRepository) Aggregate(ctx context.Context, f *domainRepo.SubscriptionFilter) ([]domainRepo.StatusAggregate, error) {
	rows, err := r.Filter(ctx, f.Matches)
	if err != nil {
		return nil, err
	}
	return groupByStatus(rows,
		func(s entity.Subscription) string { return string(s.Status) },
		func(s entity.Subscription) decimal.Decimal { return s.Amount.Mul(decimal.NewFromInt(s.Quantity)) },
		nil,
	), nil
}

// CustomerRepository is an in-memory domainRepo.CustomerRepository
type CustomerRepository struct {
	*Store[entity.Customer]
}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{NewStore(
		func(c *entity.Customer) uuid.UUID { return c.ID },
		func(c *entity.Customer) uuid.UUID { return c.TenantID },
	)}
}

func (r *CustomerRepository) Create(_ context.Context, c *entity.Customer) error {
	_ = c.BeforeCreate(nil)
	return r.Insert(c)
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	return r.Get(ctx, id)
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*entity.Customer, error) {
	return r.First(ctx, func(c *entity.Customer) bool { return c.Email != nil && *c.Email == email })
}

func (r *CustomerRepository) Update(ctx context.Context, c *entity.Customer) error {
	return r.Put(ctx, c)
}

func (r *CustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.Remove(ctx, id)
}

func (r *CustomerRepository) List(ctx context.Context, f *domainRepo.CustomerFilter) ([]entity.Customer, int64, error) {
	rows, err := r.Filter(ctx, f.Matches)
	if err != nil {
		return nil, 0, err
	}
	var p *pagination.PaginationParams
	if f != nil {
		p = f.Pagination
	}
	return pagination.Window(rows, p), int64(len(rows)), nil
}

// CounterRepository is an in-memory domainRepo.CounterRepository
type CounterRepository struct {
	mu     sync.Mutex
	values map[string]int64
}

func NewCounterRepository() *CounterRepository {
	return &CounterRepository{values: map[string]int64{}}
}

func (r *CounterRepository) Next(_ context.Context, tenantID uuid.UUID, scope enum.DocumentScope, year int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := tenantID.String() + "/" + string(scope) + "/" + strconv.Itoa(year)
	r.values[key]++
	return r.values[key], nil
}

var (
	_ domainRepo.InvoiceRepository      = (*InvoiceRepository)(nil)
	_ domainRepo.QuoteRepository        = (*QuoteRepository)(nil)
	_ domainRepo.PaymentRepository      = (*PaymentRepository)(nil)
	_ domainRepo.SubscriptionRepository = (*SubscriptionRepository)(nil)
	_ domainRepo.CustomerRepository     = (*CustomerRepository)(nil)
	_ domainRepo.CounterRepository      = (*CounterRepository)(nil)
)
