package service_test

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/application/service"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/sangkips/investify-billing/pkg/apperror"
	"github.com/sangkips/investify-billing/pkg/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) subscribe(t *testing.T) *entity.Subscription {
	t.Helper()
	sub, err := h.subscriptions.CreateSubscription(h.ctx, &service.CreateSubscriptionInput{
		UserID:     h.userID,
		CustomerID: h.customer.ID,
		PlanID:     "price_basic",
	})
	require.NoError(t, err)
	return sub
}

func TestCreateSubscription(t *testing.T) {
	h := newHarness(t)
	sub := h.subscribe(t)

	assert.Equal(t, enum.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, "price_basic", sub.PlanID)
	assert.Equal(t, int64(1), sub.Quantity)
	assert.Equal(t, enum.BillingIntervalMonth, sub.Interval)
	assert.Equal(t, "cus_test", sub.GatewayCustomerID)
	assert.NotEmpty(t, sub.GatewaySubscriptionID)
	require.NotNil(t, sub.LastSyncedAt)
	assert.Equal(t, start, *sub.LastSyncedAt)

	remote := h.gateway.Subscriptions[sub.GatewaySubscriptionID]
	require.NotNil(t, remote)
	assert.Equal(t, h.tenantID.String(), remote.Metadata[payment.MetaTenantID])
}

func TestCreateSubscription_Validation(t *testing.T) {
	h := newHarness(t)

	_, err := h.subscriptions.CreateSubscription(h.ctx, &service.CreateSubscriptionInput{CustomerID: h.customer.ID})
	assert.True(t, apperror.IsValidation(err))

	offline, err := h.customers.CreateCustomer(h.ctx, &service.CreateCustomerInput{Name: "Walk-in"})
	require.NoError(t, err)
	_, err = h.subscriptions.CreateSubscription(h.ctx, &service.CreateSubscriptionInput{CustomerID: offline.ID, PlanID: "price_basic"})
	assert.True(t, apperror.IsValidation(err))

	_, err = h.subscriptions.CreateSubscription(h.ctx, &service.CreateSubscriptionInput{CustomerID: uuid.New(), PlanID: "price_basic"})
	assert.True(t, apperror.IsNotFound(err))

	h.gateway.SubscribeErr = errors.New("no such price")
	_, err = h.subscriptions.CreateSubscription(h.ctx, &service.CreateSubscriptionInput{CustomerID: h.customer.ID, PlanID: "price_missing"})
	assert.True(t, apperror.IsGateway(err))
}

func TestSubscriptionLifecycle(t *testing.T) {
	h := newHarness(t)
	sub := h.subscribe(t)

	_, err := h.subscriptions.ResumeSubscription(h.ctx, sub.ID, h.userID)
	assert.True(t, apperror.IsInvalidState(err), "only paused subscriptions resume")

	sub, err = h.subscriptions.PauseSubscription(h.ctx, sub.ID, h.userID)
	require.NoError(t, err)
	assert.Equal(t, enum.SubscriptionStatusPaused, sub.Status)
	require.NotNil(t, sub.PausedAt)

	_, err = h.subscriptions.PauseSubscription(h.ctx, sub.ID, h.userID)
	assert.True(t, apperror.IsInvalidState(err))

	sub, err = h.subscriptions.ResumeSubscription(h.ctx, sub.ID, h.userID)
	require.NoError(t, err)
	assert.Equal(t, enum.SubscriptionStatusActive, sub.Status)
	assert.Nil(t, sub.PausedAt)

	sub, err = h.subscriptions.UpdateSubscription(h.ctx, &service.UpdateSubscriptionInput{ID: sub.ID, PlanID: "price_pro", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, "price_pro", sub.PlanID)
	assert.Equal(t, int64(3), sub.Quantity)

	sub, err = h.subscriptions.CancelSubscription(h.ctx, sub.ID, true, h.userID)
	require.NoError(t, err)
	assert.Equal(t, enum.SubscriptionStatusActive, sub.Status)
	assert.True(t, sub.CancelAtPeriodEnd)

	sub, err = h.subscriptions.CancelSubscription(h.ctx, sub.ID, false, h.userID)
	require.NoError(t, err)
	assert.Equal(t, enum.SubscriptionStatusCancelled, sub.Status)
	assert.NotNil(t, sub.CancelledAt)

	_, err = h.subscriptions.UpdateSubscription(h.ctx, &service.UpdateSubscriptionInput{ID: sub.ID, Quantity: 2})
	assert.True(t, apperror.IsInvalidState(err))
	_, err = h.subscriptions.CancelSubscription(h.ctx, sub.ID, false, h.userID)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestSyncWithGateway(t *testing.T) {
	h := newHarness(t)
	sub := h.subscribe(t)

	remote := h.gateway.Subscriptions[sub.GatewaySubscriptionID]
	remote.Status = "unpaid"
	remote.Quantity = 5
	h.clock.Advance(time.Hour)

	sub, err := h.subscriptions.SyncWithGateway(h.ctx, sub.ID, h.userID)
	require.NoError(t, err)
	assert.Equal(t, enum.SubscriptionStatusPastDue, sub.Status)
	assert.Equal(t, int64(5), sub.Quantity)
	assert.Equal(t, start.Add(time.Hour), *sub.LastSyncedAt)
}

func TestSyncAll(t *testing.T) {
	h := newHarness(t)
	healthy := h.subscribe(t)
	orphan := h.subscribe(t)
	gone := h.subscribe(t)

	h.gateway.Subscriptions[healthy.GatewaySubscriptionID].Status = "trialing"
	delete(h.gateway.Subscriptions, orphan.GatewaySubscriptionID)
	_, err := h.subscriptions.CancelSubscription(h.ctx, gone.ID, false, h.userID)
	require.NoError(t, err)

	report, err := h.subscriptions.SyncAll(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked, "cancelled subscriptions are skipped")
	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, 1, report.Failed)

	healthy, err = h.subscriptions.GetSubscription(h.ctx, healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.SubscriptionStatusTrialing, healthy.Status)
}

func TestEstimateProration(t *testing.T) {
	h := newHarness(t)
	sub := h.subscribe(t)
	h.gateway.Subscriptions[sub.GatewaySubscriptionID].UnitAmount = d("30")
	sub, err := h.subscriptions.SyncWithGateway(h.ctx, sub.ID, h.userID)
	require.NoError(t, err)

	// the period runs March 1 to April 1 and the clock sits on March 10
	est, err := h.subscriptions.EstimateProration(h.ctx, &service.EstimateProrationInput{ID: sub.ID, NewUnitAmount: d("60")})
	require.NoError(t, err)
	assert.Equal(t, 31, est.PeriodDays)
	assert.Equal(t, 21, est.RemainingDays)
	assertMoney(t, "20.32", est.Amount, "proration")

	est, err = h.subscriptions.EstimateProration(h.ctx, &service.EstimateProrationInput{ID: sub.ID, NewUnitAmount: d("15"), Quantity: 1})
	require.NoError(t, err)
	assertMoney(t, "-10.16", est.Amount, "downgrade credit")

	_, err = h.subscriptions.EstimateProration(h.ctx, &service.EstimateProrationInput{ID: sub.ID, NewUnitAmount: d("-1")})
	assert.True(t, apperror.IsValidation(err))
}
