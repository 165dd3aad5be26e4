package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/pkg/pagination"
)

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	GetByEmail(ctx context.Context, email string) (*entity.Customer, error)
	Update(ctx context.Context, customer *entity.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *CustomerFilter) ([]entity.Customer, int64, error)
}

// CustomerFilter narrows customer queries
type CustomerFilter struct {
	Pagination *pagination.PaginationParams
	Search     string
}

// Matches evaluates the filter in memory
func (f *CustomerFilter) Matches(c *entity.Customer) bool {
	if f == nil || f.Search == "" {
		return true
	}
	email, company, phone := "", "", ""
	if c.Email != nil {
		email = *c.Email
	}
	if c.Company != nil {
		company = *c.Company
	}
	if c.Phone != nil {
		phone = *c.Phone
	}
	return containsFold(f.Search, c.Name, email, company, phone)
}
