package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/billing"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/pkg/apperror"
	"github.com/sangkips/investify-billing/pkg/logger"
	"github.com/sangkips/investify-billing/pkg/pagination"
	"github.com/sangkips/investify-billing/pkg/payment"
	"github.com/shopspring/decimal"
)

// SubscriptionService mirrors gateway subscriptions locally. Every change is
// made at the gateway first and the returned state is copied back.
type SubscriptionService struct {
	subscriptionRepo repository.SubscriptionRepository
	customerRepo     repository.CustomerRepository
	gateway          payment.Gateway
	log              *logger.Logger
	now              Clock
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	subscriptionRepo repository.SubscriptionRepository,
	customerRepo repository.CustomerRepository,
	gateway payment.Gateway,
	log *logger.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		customerRepo:     customerRepo,
		gateway:          gateway,
		log:              log,
		now:              systemClock,
	}
}

// WithClock replaces the time source
func (s *SubscriptionService) WithClock(c Clock) *SubscriptionService {
	s.now = c
	return s
}

// CreateSubscriptionInput represents the input for starting a subscription
type CreateSubscriptionInput struct {
	UserID     uuid.UUID
	CustomerID uuid.UUID
	PlanID     string
	Quantity   int64
	TrialDays  int64
}

// CreateSubscription starts a subscription at the gateway and stores its mirror
func (s *SubscriptionService) CreateSubscription(ctx context.Context, input *CreateSubscriptionInput) (*entity.Subscription, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	if input.PlanID == "" {
		return nil, apperror.NewFieldValidationError("plan_id", "plan_id is required")
	}
	customer, err := s.customerRepo.GetByID(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	if customer.GatewayCustomerID == nil || *customer.GatewayCustomerID == "" {
		return nil, apperror.NewFieldValidationError("customer_id", "customer has no payment gateway account")
	}

	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	remote, err := s.gateway.CreateSubscription(ctx, payment.SubscriptionRequest{
		CustomerID: *customer.GatewayCustomerID,
		PriceID:    input.PlanID,
		Quantity:   quantity,
		TrialDays:  input.TrialDays,
		Metadata: map[string]string{
			payment.MetaTenantID: tenantID.String(),
			"customer_id":        customer.ID.String(),
		},
	})
	if err != nil {
		return nil, apperror.NewGatewayError("subscription creation failed", err)
	}

	sub := &entity.Subscription{
		TenantID:   tenantID,
		CustomerID: customer.ID,
		CreatedBy:  input.UserID,
	}
	s.applyRemote(sub, remote)
	if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}
	s.log.Infow("subscription created", "subscription_id", sub.ID, "gateway_id", sub.GatewaySubscriptionID, "status", sub.Status)
	return sub, nil
}

// GetSubscription retrieves a subscription by ID
func (s *SubscriptionService) GetSubscription(ctx context.Context, id uuid.UUID) (*entity.Subscription, error) {
	sub, err := s.subscriptionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperror.NewNotFoundError("Subscription")
	}
	return sub, nil
}

// ListSubscriptionsInput represents the input for listing subscriptions
type ListSubscriptionsInput struct {
	Pagination *pagination.PaginationParams
	Statuses   []enum.SubscriptionStatus
	CustomerID *uuid.UUID
}

// ListSubscriptions lists subscriptions with filtering
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, input *ListSubscriptionsInput) (*pagination.PaginatedResult[entity.Subscription], error) {
	if input.Pagination == nil {
		input.Pagination = pagination.DefaultPagination()
	}
	subs, total, err := s.subscriptionRepo.List(ctx, &repository.SubscriptionFilter{
		Pagination: input.Pagination,
		Statuses:   input.Statuses,
		CustomerID: input.CustomerID,
	})
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(input.Pagination.Page, input.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(subs, pag), nil
}

// UpdateSubscriptionInput changes plan and/or quantity
type UpdateSubscriptionInput struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	PlanID   string
	Quantity int64
	// Prorate defaults to true
	Prorate *bool
}

// UpdateSubscription moves the subscription to another plan or quantity
func (s *SubscriptionService) UpdateSubscription(ctx context.Context, input *UpdateSubscriptionInput) (*entity.Subscription, error) {
	sub, err := s.GetSubscription(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if sub.IsCancelled() {
		return nil, apperror.NewInvalidStateError("cannot change a cancelled subscription")
	}
	if input.PlanID == "" && input.Quantity <= 0 {
		return nil, apperror.NewFieldValidationError("plan_id", "plan_id or quantity is required")
	}

	prorate := true
	if input.Prorate != nil {
		prorate = *input.Prorate
	}
	remote, err := s.gateway.UpdateSubscription(ctx, sub.GatewaySubscriptionID, payment.SubscriptionUpdate{
		PriceID:  input.PlanID,
		Quantity: input.Quantity,
		Prorate:  prorate,
	})
	if err != nil {
		return nil, apperror.NewGatewayError("subscription update failed", err)
	}
	return sub, s.mirror(ctx, sub, remote, input.UserID)
}

// CancelSubscription ends the subscription now or at the end of the period
func (s *SubscriptionService) CancelSubscription(ctx context.Context, id uuid.UUID, atPeriodEnd bool, userID uuid.UUID) (*entity.Subscription, error) {
	sub, err := s.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.IsCancelled() {
		return nil, apperror.NewInvalidStateError("subscription is already cancelled")
	}

	remote, err := s.gateway.CancelSubscription(ctx, sub.GatewaySubscriptionID, atPeriodEnd)
	if err != nil {
		return nil, apperror.NewGatewayError("subscription cancellation failed", err)
	}
	if err := s.mirror(ctx, sub, remote, userID); err != nil {
		return nil, err
	}
	s.log.Infow("subscription cancelled", "subscription_id", sub.ID, "at_period_end", atPeriodEnd)
	return sub, nil
}

// PauseSubscription stops collecting payments until resumed
func (s *SubscriptionService) PauseSubscription(ctx context.Context, id, userID uuid.UUID) (*entity.Subscription, error) {
	sub, err := s.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	switch sub.Status {
	case enum.SubscriptionStatusActive, enum.SubscriptionStatusTrialing, enum.SubscriptionStatusPastDue:
	default:
		return nil, apperror.NewInvalidStateError("cannot pause a subscription that is %s", sub.Status)
	}

	remote, err := s.gateway.PauseSubscription(ctx, sub.GatewaySubscriptionID)
	if err != nil {
		return nil, apperror.NewGatewayError("subscription pause failed", err)
	}
	return sub, s.mirror(ctx, sub, remote, userID)
}

// ResumeSubscription restarts collection on a paused subscription
func (s *SubscriptionService) ResumeSubscription(ctx context.Context, id, userID uuid.UUID) (*entity.Subscription, error) {
	sub, err := s.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != enum.SubscriptionStatusPaused {
		return nil, apperror.NewInvalidStateError("cannot resume a subscription that is %s", sub.Status)
	}

	remote, err := s.gateway.ResumeSubscription(ctx, sub.GatewaySubscriptionID)
	if err != nil {
		return nil, apperror.NewGatewayError("subscription resume failed", err)
	}
	return sub, s.mirror(ctx, sub, remote, userID)
}

// SyncWithGateway overwrites the local mirror with the gateway's current state
func (s *SubscriptionService) SyncWithGateway(ctx context.Context, id, userID uuid.UUID) (*entity.Subscription, error) {
	sub, err := s.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	remote, err := s.gateway.GetSubscription(ctx, sub.GatewaySubscriptionID)
	if err != nil {
		return nil, apperror.NewGatewayError("subscription sync failed", err)
	}
	return sub, s.mirror(ctx, sub, remote, userID)
}

// SyncFromEvent applies a subscription carried by a verified webhook event
func (s *SubscriptionService) SyncFromEvent(ctx context.Context, eventType string, remote *payment.RemoteSubscription) error {
	if remote == nil {
		return nil
	}
	if raw, ok := remote.Metadata[payment.MetaTenantID]; ok {
		if tenantID, err := uuid.Parse(raw); err == nil {
			ctx = repository.ScopeForTenant(ctx, tenantID)
		}
	} else {
		ctx = repository.WithSkipTenantScope(ctx, true)
	}

	sub, err := s.subscriptionRepo.GetByGatewayID(ctx, remote.ID)
	if err != nil {
		return err
	}
	if sub == nil {
		s.log.Warnw("webhook for unknown subscription", "gateway_id", remote.ID, "event", eventType)
		return nil
	}
	return s.mirror(repository.ScopeForTenant(ctx, sub.TenantID), sub, remote, uuid.Nil)
}

// SyncReport summarises a SyncAll run
type SyncReport struct {
	Checked int `json:"checked"`
	Synced  int `json:"synced"`
	Failed  int `json:"failed"`
}

// SyncAll refreshes every subscription that has not been cancelled, across tenants
func (s *SubscriptionService) SyncAll(ctx context.Context) (*SyncReport, error) {
	ctx = repository.WithSkipTenantScope(ctx, true)
	subs, _, err := s.subscriptionRepo.List(ctx, &repository.SubscriptionFilter{
		Statuses: []enum.SubscriptionStatus{
			enum.SubscriptionStatusActive,
			enum.SubscriptionStatusTrialing,
			enum.SubscriptionStatusPastDue,
			enum.SubscriptionStatusPaused,
			enum.SubscriptionStatusInactive,
		},
	})
	if err != nil {
		return nil, err
	}

	report := &SyncReport{Checked: len(subs)}
	for i := range subs {
		sub := &subs[i]
		remote, err := s.gateway.GetSubscription(ctx, sub.GatewaySubscriptionID)
		if err == nil {
			err = s.mirror(repository.ScopeForTenant(ctx, sub.TenantID), sub, remote, uuid.Nil)
		}
		if err != nil {
			report.Failed++
			s.log.Warnw("subscription sync failed", "subscription_id", sub.ID, "error", err)
			continue
		}
		report.Synced++
	}
	s.log.Infow("subscription sync finished", "checked", report.Checked, "synced", report.Synced, "failed", report.Failed)
	return report, nil
}

// EstimateProrationInput describes a prospective plan change
type EstimateProrationInput struct {
	ID            uuid.UUID
	NewUnitAmount decimal.Decimal
	// Quantity defaults to the current quantity
	Quantity int64
}

// EstimateProration previews the charge for a plan change. The figure is a
// linear approximation and the gateway's invoice is authoritative.
func (s *SubscriptionService) EstimateProration(ctx context.Context, input *EstimateProrationInput) (*billing.ProrationEstimate, error) {
	sub, err := s.GetSubscription(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if sub.IsCancelled() {
		return nil, apperror.NewInvalidStateError("cannot prorate a cancelled subscription")
	}
	if input.NewUnitAmount.IsNegative() {
		return nil, apperror.NewFieldValidationError("new_unit_amount", "amount cannot be negative")
	}

	quantity := input.Quantity
	if quantity <= 0 {
		quantity = sub.Quantity
	}
	current := sub.Amount.Mul(decimal.NewFromInt(sub.Quantity))
	next := input.NewUnitAmount.Mul(decimal.NewFromInt(quantity))
	est := billing.EstimateProration(current, next, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, s.now())
	return &est, nil
}

func (s *SubscriptionService) mirror(ctx context.Context, sub *entity.Subscription, remote *payment.RemoteSubscription, userID uuid.UUID) error {
	s.applyRemote(sub, remote)
	if userID != uuid.Nil {
		sub.UpdatedBy = &userID
	}
	return s.subscriptionRepo.Update(ctx, sub)
}

// applyRemote copies the gateway's view over the local fields it owns
func (s *SubscriptionService) applyRemote(sub *entity.Subscription, remote *payment.RemoteSubscription) {
	now := s.now()

	sub.Status = enum.SubscriptionStatusFromGateway(remote.Status)
	if remote.Paused && sub.Status != enum.SubscriptionStatusCancelled {
		sub.Status = enum.SubscriptionStatusPaused
	}
	sub.GatewaySubscriptionID = remote.ID
	if remote.CustomerID != "" {
		sub.GatewayCustomerID = remote.CustomerID
	}
	if remote.PriceID != "" {
		sub.PlanID = remote.PriceID
	}
	sub.CurrentPeriodStart = remote.CurrentPeriodStart
	sub.CurrentPeriodEnd = remote.CurrentPeriodEnd
	sub.TrialStart = remote.TrialStart
	sub.TrialEnd = remote.TrialEnd
	if remote.Interval != "" {
		sub.Interval = enum.BillingInterval(remote.Interval)
	}
	if remote.IntervalCount > 0 {
		sub.IntervalCount = remote.IntervalCount
	}
	sub.Amount = remote.UnitAmount
	if remote.Currency != "" {
		sub.Currency = remote.Currency
	}
	if remote.Quantity > 0 {
		sub.Quantity = remote.Quantity
	}
	sub.CancelAtPeriodEnd = remote.CancelAtPeriodEnd
	sub.CancelledAt = remote.CanceledAt
	if sub.Status == enum.SubscriptionStatusCancelled && sub.CancelledAt == nil {
		sub.CancelledAt = &now
	}

	switch {
	case sub.Status != enum.SubscriptionStatusPaused:
		sub.PausedAt = nil
	case sub.PausedAt == nil:
		sub.PausedAt = &now
	}
	sub.LastSyncedAt = &now
}

