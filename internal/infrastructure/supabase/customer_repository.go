package supabase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	domainRepo "github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/pkg/pagination"
	"github.com/samber/lo"
)

type customerRepository struct {
	t *table[entity.Customer]
}

// NewCustomerRepository returns a CustomerRepository backed by Supabase
func NewCustomerRepository(c *Client) domainRepo.CustomerRepository {
	return &customerRepository{t: &table[entity.Customer]{
		client: c,
		name:   tableCustomers,
		stamp: func(cu *entity.Customer, now time.Time, creating bool) {
			if creating {
				if cu.ID == uuid.Nil {
					cu.ID = uuid.New()
				}
				cu.CreatedAt = now
			}
			cu.UpdatedAt = now
		},
	}}
}

func (r *customerRepository) Create(ctx context.Context, customer *entity.Customer) error {
	return r.t.create(customer)
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	return r.t.get(ctx, id)
}

func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*entity.Customer, error) {
	conds, err := tenantConds(ctx)
	if errors.Is(err, errNoTenant) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.t.first(append(conds, cond{column: "email", value: email}))
}

func (r *customerRepository) Update(ctx context.Context, customer *entity.Customer) error {
	return r.t.save(ctx, customer.ID, customer)
}

func (r *customerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.t.remove(ctx, id)
}

func (r *customerRepository) List(ctx context.Context, filter *domainRepo.CustomerFilter) ([]entity.Customer, int64, error) {
	rows, err := r.t.all(ctx)
	if err != nil {
		return nil, 0, err
	}
	rows = lo.Filter(rows, func(c entity.Customer, _ int) bool { return filter.Matches(&c) })
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})

	var params *pagination.PaginationParams
	if filter != nil {
		params = filter.Pagination
	}
	return pagination.Window(rows, params), int64(len(rows)), nil
}
