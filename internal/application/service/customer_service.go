package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/pkg/apperror"
	"github.com/sangkips/investify-billing/pkg/pagination"
)

// CustomerService handles customer-related operations
type CustomerService struct {
	customerRepo repository.CustomerRepository
}

// NewCustomerService creates a new customer service
func NewCustomerService(customerRepo repository.CustomerRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo}
}

// CreateCustomerInput represents the create customer input
type CreateCustomerInput struct {
	UserID            uuid.UUID
	Name              string
	Company           *string
	Email             *string
	Phone             *string
	KRAPin            *string
	Address           *string
	GatewayCustomerID *string
}

// CreateCustomer creates a new customer
func (s *CustomerService) CreateCustomer(ctx context.Context, input *CreateCustomerInput) (*entity.Customer, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	if input.Email != nil && *input.Email != "" {
		existing, err := s.customerRepo.GetByEmail(ctx, *input.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperror.NewConflictError("A customer with this email already exists")
		}
	}

	customer := &entity.Customer{
		TenantID:          tenantID,
		UserID:            input.UserID,
		Name:              input.Name,
		Company:           input.Company,
		Email:             input.Email,
		Phone:             input.Phone,
		KRAPin:            input.KRAPin,
		Address:           input.Address,
		GatewayCustomerID: input.GatewayCustomerID,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// GetCustomer retrieves a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// ListCustomers lists the tenant's customers
func (s *CustomerService) ListCustomers(ctx context.Context, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.Customer], error) {
	if params == nil {
		params = pagination.DefaultPagination()
	}
	customers, total, err := s.customerRepo.List(ctx, &repository.CustomerFilter{Pagination: params, Search: search})
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(customers, pag), nil
}

// UpdateCustomerInput represents the update customer input
type UpdateCustomerInput struct {
	ID                uuid.UUID
	Name              *string
	Company           *string
	Email             *string
	Phone             *string
	KRAPin            *string
	Address           *string
	GatewayCustomerID *string
}

// UpdateCustomer updates a customer
func (s *CustomerService) UpdateCustomer(ctx context.Context, input *UpdateCustomerInput) (*entity.Customer, error) {
	customer, err := s.GetCustomer(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		customer.Name = *input.Name
	}
	if input.Company != nil {
		customer.Company = input.Company
	}
	if input.Email != nil {
		customer.Email = input.Email
	}
	if input.Phone != nil {
		customer.Phone = input.Phone
	}
	if input.KRAPin != nil {
		customer.KRAPin = input.KRAPin
	}
	if input.Address != nil {
		customer.Address = input.Address
	}
	if input.GatewayCustomerID != nil {
		customer.GatewayCustomerID = input.GatewayCustomerID
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// DeleteCustomer deletes a customer
func (s *CustomerService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetCustomer(ctx, id); err != nil {
		return err
	}
	return s.customerRepo.Delete(ctx, id)
}
