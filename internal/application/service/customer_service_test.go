package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/application/service"
	"github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/pkg/apperror"
	"github.com/sangkips/investify-billing/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerService(t *testing.T) {
	h := newHarness(t)

	_, err := h.customers.CreateCustomer(h.ctx, &service.CreateCustomerInput{Name: "Copy", Email: ptr("jane@example.com")})
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.GetAppError(err).Kind)

	other, err := h.customers.CreateCustomer(h.ctx, &service.CreateCustomerInput{Name: "Otieno Hardware", Phone: ptr("+254700000000")})
	require.NoError(t, err)

	page, err := h.customers.ListCustomers(h.ctx, pagination.DefaultPagination(), "wanjiku")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, h.customer.ID, page.Items[0].ID)

	updated, err := h.customers.UpdateCustomer(h.ctx, &service.UpdateCustomerInput{ID: other.ID, Email: ptr("sales@otieno.example")})
	require.NoError(t, err)
	assert.Equal(t, "sales@otieno.example", updated.EmailAddress())
	assert.Equal(t, "Otieno Hardware", updated.Name)

	require.NoError(t, h.customers.DeleteCustomer(h.ctx, other.ID))
	_, err = h.customers.GetCustomer(h.ctx, other.ID)
	assert.True(t, apperror.IsNotFound(err))

	_, err = h.customers.CreateCustomer(context.Background(), &service.CreateCustomerInput{Name: "No tenant"})
	require.Error(t, err)
	assert.Equal(t, apperror.KindBadRequest, apperror.GetAppError(err).Kind)

	_, err = h.customers.GetCustomer(repository.WithTenant(context.Background(), uuid.New()), h.customer.ID)
	assert.True(t, apperror.IsNotFound(err))
}
